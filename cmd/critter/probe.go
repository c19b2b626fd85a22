package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/lixenwraith/critter/audio"
	"github.com/lixenwraith/critter/config"
	"github.com/lixenwraith/critter/logging"
	"github.com/lixenwraith/critter/prefs"
	"github.com/lixenwraith/critter/status"
)

const probeTone = 300 * time.Millisecond

// runProbe reports the audio setup and plays a short test tone
func runProbe(ctx context.Context, cfg *config.Config, out io.Writer, opts ...audio.Option) error {
	logger := logging.New(logging.ParseLevel(cfg.LogLevel), os.Stderr)

	if p, err := audio.DetectPlayer(); err != nil {
		fmt.Fprintf(out, "system player: none (%v)\n", err)
	} else {
		fmt.Fprintf(out, "system player: %s (%s)\n", p.Name, p.Path)
	}

	store, err := prefs.Open(ctx, cfg.PrefsURL())
	if err != nil {
		logger.Warn("preference store unavailable", "url", cfg.PrefsURL(), "error", err)
		store = prefs.NewMemoryStore()
	}
	defer store.Close()

	reg := status.NewRegistry()
	acfg := audio.DefaultConfig()
	acfg.MasterVolume = cfg.Volume
	eng := audio.NewEngine(ctx, acfg, append([]audio.Option{
		audio.WithStore(store),
		audio.WithLogger(logger),
		audio.WithStatus(reg),
	}, opts...)...)
	defer eng.Cleanup()

	eng.Initialize()
	fmt.Fprintf(out, "backend: %s\n", eng.ActiveKind())
	fmt.Fprintf(out, "muted: %v\n", eng.Muted())

	if err := eng.AddTone("probe", audio.WaveSine, 440, probeTone); err != nil {
		fmt.Fprintf(out, "tone: %v\n", err)
	} else if err := eng.Play(ctx, "probe"); err != nil {
		fmt.Fprintf(out, "play: %v\n", err)
	} else {
		select {
		case <-time.After(probeTone + 200*time.Millisecond):
		case <-ctx.Done():
		}
	}

	snap := reg.Snapshot()
	keys := make([]string, 0, len(snap))
	for k := range snap {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(out, "%s = %s\n", k, snap[k])
	}
	return nil
}
