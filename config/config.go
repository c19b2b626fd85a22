// Package config resolves runtime settings from CRITTER_* environment
// variables, overridable by command line flags
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/spf13/pflag"

	"github.com/lixenwraith/critter/asset"
	"github.com/lixenwraith/critter/constant"
	"github.com/lixenwraith/critter/prefs"
)

// EnvPrefix is prepended to every variable name
const EnvPrefix = "CRITTER_"

// Config holds process settings
type Config struct {
	Assets   string `env:"ASSETS"   envDefault:"assets"` // directory or http(s) base URL
	Manifest string `env:"MANIFEST" envDefault:"critter.yaml"`

	Prefs     string `env:"PREFS"` // store URL, empty selects prefs.DefaultURL
	NoPersist bool   `env:"NO_PERSIST"`

	CachePath    string `env:"CACHE_PATH"` // offline cache db, empty selects the user cache dir
	CacheVersion string `env:"CACHE_VERSION" envDefault:"critter-v1"`

	Volume     float64 `env:"VOLUME"      envDefault:"1"`
	FrameWidth int     `env:"FRAME_WIDTH" envDefault:"40"`
	Seed       uint64  `env:"SEED"`

	Debug       bool   `env:"DEBUG"`
	LogLevel    string `env:"LOG_LEVEL"    envDefault:"info"`
	LogDir      string `env:"LOG_DIR"      envDefault:"logs"`
	ListenAddr  string `env:"LISTEN_ADDR"  envDefault:":8080"`
	MetricsAddr string `env:"METRICS_ADDR"`
}

// Load parses the process environment
func Load() (*Config, error) {
	return LoadFrom(nil)
}

// LoadFrom parses environ, or the process environment when environ is nil
func LoadFrom(environ map[string]string) (*Config, error) {
	var cfg Config
	opts := env.Options{Prefix: EnvPrefix}
	if environ != nil {
		opts.Environment = environ
	}
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &cfg, nil
}

// BindFlags registers overrides for the interactive settings
// Defaults are the already-parsed env values
func (c *Config) BindFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.Assets, "assets", c.Assets, "asset directory or http(s) base URL")
	fs.StringVar(&c.Manifest, "manifest", c.Manifest, "manifest file name inside the asset root")
	fs.StringVar(&c.Prefs, "prefs", c.Prefs, "preference store URL (file:, sqlite:, redis://, memory:)")
	fs.BoolVar(&c.NoPersist, "no-persist", c.NoPersist, "keep preferences in memory only")
	fs.StringVar(&c.CachePath, "cache", c.CachePath, "offline cache database for remote assets")
	fs.StringVar(&c.CacheVersion, "cache-version", c.CacheVersion, "offline cache version tag")
	fs.Float64Var(&c.Volume, "volume", c.Volume, "master volume in [0,1]")
	fs.IntVar(&c.FrameWidth, "width", c.FrameWidth, "sprite width in columns")
	fs.Uint64Var(&c.Seed, "seed", c.Seed, "random seed, 0 picks one")
	fs.BoolVar(&c.Debug, "debug", c.Debug, "write debug log to the log directory")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "log level for non-interactive commands")
	fs.StringVar(&c.MetricsAddr, "metrics-addr", c.MetricsAddr, "serve /metrics on this address")
}

// Validate rejects out of range values
func (c *Config) Validate() error {
	if c.Volume < 0 || c.Volume > 1 {
		return fmt.Errorf("volume %v outside [0,1]", c.Volume)
	}
	if c.FrameWidth <= 0 {
		return fmt.Errorf("frame width must be positive, got %d", c.FrameWidth)
	}
	if c.Assets == "" {
		return fmt.Errorf("assets location is empty")
	}
	return nil
}

// RemoteAssets reports whether assets come over http
func (c *Config) RemoteAssets() bool {
	return strings.HasPrefix(c.Assets, "http://") || strings.HasPrefix(c.Assets, "https://")
}

// PrefsURL resolves the preference store location
func (c *Config) PrefsURL() string {
	switch {
	case c.NoPersist:
		return "memory:"
	case c.Prefs != "":
		return c.Prefs
	default:
		return prefs.DefaultURL()
	}
}

// CacheFile resolves the offline cache database path
func (c *Config) CacheFile() string {
	if c.CachePath != "" {
		return c.CachePath
	}
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "critter", "offline.db")
}

// ManifestName falls back to the default manifest file name
func (c *Config) ManifestName() string {
	if c.Manifest == "" {
		return asset.DefaultManifestName
	}
	return c.Manifest
}

// CacheTag falls back to the default cache version
func (c *Config) CacheTag() string {
	if c.CacheVersion == "" {
		return constant.DefaultCacheVersion
	}
	return c.CacheVersion
}
