package config

import (
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{})
	require.NoError(t, err)

	assert.Equal(t, "assets", cfg.Assets)
	assert.Equal(t, "critter.yaml", cfg.ManifestName())
	assert.Equal(t, "critter-v1", cfg.CacheTag())
	assert.Equal(t, 1.0, cfg.Volume)
	assert.Equal(t, 40, cfg.FrameWidth)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.False(t, cfg.Debug)
	assert.False(t, cfg.RemoteAssets())
	require.NoError(t, cfg.Validate())
}

func TestLoadPrefixedEnv(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{
		"CRITTER_ASSETS":       "https://example.test/critter",
		"CRITTER_VOLUME":       "0.25",
		"CRITTER_DEBUG":        "true",
		"CRITTER_METRICS_ADDR": "127.0.0.1:9090",
		"CRITTER_SEED":         "42",
		"ASSETS":               "ignored",
	})
	require.NoError(t, err)

	assert.Equal(t, "https://example.test/critter", cfg.Assets)
	assert.True(t, cfg.RemoteAssets())
	assert.Equal(t, 0.25, cfg.Volume)
	assert.True(t, cfg.Debug)
	assert.Equal(t, "127.0.0.1:9090", cfg.MetricsAddr)
	assert.Equal(t, uint64(42), cfg.Seed)
}

func TestLoadRejectsMalformed(t *testing.T) {
	_, err := LoadFrom(map[string]string{"CRITTER_VOLUME": "loud"})
	require.Error(t, err)
}

func TestFlagsOverrideEnv(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{"CRITTER_VOLUME": "0.5"})
	require.NoError(t, err)

	fs := pflag.NewFlagSet("play", pflag.ContinueOnError)
	cfg.BindFlags(fs)
	require.NoError(t, fs.Parse([]string{"--volume=0.8", "--no-persist"}))

	assert.Equal(t, 0.8, cfg.Volume)
	assert.Equal(t, "memory:", cfg.PrefsURL())
}

func TestValidate(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{})
	require.NoError(t, err)

	cfg.Volume = 1.5
	assert.Error(t, cfg.Validate())

	cfg.Volume = 1
	cfg.FrameWidth = 0
	assert.Error(t, cfg.Validate())
}

func TestPaths(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg := &Config{Prefs: "sqlite:/tmp/p.db"}
	assert.Equal(t, "sqlite:/tmp/p.db", cfg.PrefsURL())

	cfg.Prefs = ""
	assert.Contains(t, cfg.PrefsURL(), "prefs.yaml")

	cfg.CachePath = "/var/cache/critter.db"
	assert.Equal(t, "/var/cache/critter.db", cfg.CacheFile())

	cfg.CachePath = ""
	assert.Equal(t, "offline.db", filepath.Base(cfg.CacheFile()))
}
