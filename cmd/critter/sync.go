package main

import (
	"context"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"

	"github.com/lixenwraith/critter/asset"
	"github.com/lixenwraith/critter/audio"
	"github.com/lixenwraith/critter/config"
	"github.com/lixenwraith/critter/logging"
)

// runSync copies every remote asset the manifest can name into the offline
// cache so later runs work without a network
func runSync(ctx context.Context, cfg *config.Config, out io.Writer) error {
	if !cfg.RemoteAssets() {
		return fmt.Errorf("sync needs an http(s) asset location, got %q", cfg.Assets)
	}
	logger := logging.New(logging.ParseLevel(cfg.LogLevel), os.Stderr)

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.close()

	paths := manifestPaths(cfg.ManifestName(), a.manifest)
	n, err := a.cache.Precache(ctx, paths)
	if err != nil {
		// Each frame exists in one of its formats only, misses are expected
		logger.Debug("some candidates missing", "error", err)
	}
	fmt.Fprintf(out, "cache %s: stored %d of %d candidates\n", a.cache.Version(), n, len(paths))
	return nil
}

// manifestPaths lists every file a manifest may resolve to
func manifestPaths(manifestName string, m *asset.Manifest) []string {
	paths := []string{manifestName}
	for _, pattern := range []string{m.Frames.Resting, m.Frames.Reacting} {
		for i := 1; i <= m.PoolSize; i++ {
			for _, ext := range asset.FrameExts {
				paths = append(paths, asset.FramePath(pattern, i, ext))
			}
		}
	}
	formats := audio.ParseFormats(m.Formats)
	for _, base := range slices.Sorted(maps.Values(m.Sounds)) {
		for _, f := range formats {
			paths = append(paths, base+"."+string(f))
		}
	}
	return paths
}
