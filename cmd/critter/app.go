package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/lixenwraith/critter/asset"
	"github.com/lixenwraith/critter/audio"
	"github.com/lixenwraith/critter/config"
	"github.com/lixenwraith/critter/event"
	"github.com/lixenwraith/critter/offline"
	"github.com/lixenwraith/critter/prefs"
	"github.com/lixenwraith/critter/random"
	"github.com/lixenwraith/critter/render"
	"github.com/lixenwraith/critter/server"
	"github.com/lixenwraith/critter/service"
	"github.com/lixenwraith/critter/stage"
	"github.com/lixenwraith/critter/state"
	"github.com/lixenwraith/critter/status"
	"github.com/lixenwraith/critter/timing"
)

// app is the composition root shared by every command
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	session string

	reg      *status.Registry
	prom     *prometheus.Registry
	clock    timing.Clock
	rng      random.Source
	source   asset.Source
	cache    *offline.Cache
	manifest *asset.Manifest

	services *service.Hub
	prefs    *prefs.Service
	audio    *audio.Service
	stage    *stage.Service

	// audioOpts are appended to the engine options, used to swap backends
	audioOpts []audio.Option
}

// newApp resolves the asset source and manifest; no service runs yet
func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	session := uuid.NewString()
	a := &app{
		cfg:     cfg,
		logger:  logger.With("session", session),
		session: session,
		reg:     status.NewRegistry(),
		prom:    prometheus.NewRegistry(),
		clock:   timing.NewRealClock(),
		rng:     newRandom(cfg.Seed),
	}
	a.reg.Strings.Get("session").Store(session)
	a.prom.MustRegister(
		status.NewCollector(a.reg, "critter"),
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	if err := a.openSource(ctx); err != nil {
		return nil, err
	}

	m, found, err := asset.LoadManifest(ctx, a.source, cfg.ManifestName())
	if err != nil {
		a.close()
		return nil, fmt.Errorf("load manifest: %w", err)
	}
	if !found {
		a.logger.Info("no manifest found, using default layout", "name", cfg.ManifestName())
	}
	a.manifest = m
	return a, nil
}

func newRandom(seed uint64) random.Source {
	if seed == 0 {
		seed = rand.Uint64()
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func (a *app) openSource(ctx context.Context) error {
	if !a.cfg.RemoteAssets() {
		a.source = asset.NewDirSource(a.cfg.Assets)
		return nil
	}
	c, err := offline.Open(ctx, a.cfg.CacheFile(), a.cfg.Assets, a.cfg.CacheTag(),
		offline.WithLogger(a.logger),
		offline.WithStatus(a.reg),
	)
	if err != nil {
		return fmt.Errorf("open offline cache: %w", err)
	}
	if _, err := c.Activate(ctx); err != nil {
		a.logger.Warn("cache activation failed", "error", err)
	}
	a.cache = c
	a.source = c
	return nil
}

func (a *app) audioConfig() *audio.Config {
	cfg := audio.DefaultConfig()
	cfg.MasterVolume = a.cfg.Volume
	if formats := audio.ParseFormats(a.manifest.Formats); len(formats) > 0 {
		cfg.Formats = formats
	}
	return cfg
}

// wire registers the interactive services around display
func (a *app) wire(display render.Display) error {
	a.services = service.NewHub(a.logger)
	a.prefs = prefs.NewService(a.cfg.PrefsURL(), a.logger)

	opts := []audio.Option{
		audio.WithSource(a.source),
		audio.WithLogger(a.logger),
		audio.WithRandom(a.rng),
		audio.WithStatus(a.reg),
	}
	a.audio = audio.NewService(a.audioConfig(), a.prefs.Store, append(opts, a.audioOpts...)...)

	a.stage = stage.NewService(func() stage.Deps {
		hub := event.NewHub(a.logger)
		return stage.Deps{
			Machine:    state.New(a.clock, hub, a.logger),
			Hub:        hub,
			Audio:      a.audio.Engine(),
			Display:    display,
			Clock:      a.clock,
			Random:     a.rng,
			Logger:     a.logger,
			Status:     a.reg,
			Source:     a.source,
			Manifest:   a.manifest,
			FrameWidth: a.cfg.FrameWidth,
		}
	}, a.logger)

	svcs := []service.Service{a.prefs, a.audio, a.stage}
	if a.cfg.MetricsAddr != "" {
		svcs = append(svcs, server.NewService("metrics", a.cfg.MetricsAddr, a.handler, a.logger, "stage"))
	}
	for _, s := range svcs {
		if err := a.services.Register(s); err != nil {
			return err
		}
	}
	return nil
}

// handler serves assets, status and metrics of this process
func (a *app) handler() http.Handler {
	return server.NewHandler(server.Options{
		Assets:   a.source,
		Gatherer: a.prom,
		Status:   a.reg,
		Health:   a.health,
		Logger:   a.logger,
	})
}

func (a *app) health() error {
	if a.reg.Ints.Get("frames.resting").Load() == 0 && a.stage != nil {
		return stage.ErrNoRestingFrames
	}
	return nil
}

// start runs InitAll then StartAll
func (a *app) start(ctx context.Context) error {
	if err := a.services.InitAll(ctx); err != nil {
		return err
	}
	if err := a.services.StartAll(ctx); err != nil {
		_ = a.services.StopAll()
		return err
	}
	return nil
}

// close stops services and releases the asset cache
func (a *app) close() error {
	var err error
	if a.services != nil {
		err = a.services.StopAll()
		a.services = nil
	}
	if a.cache != nil {
		if cerr := a.cache.Close(); cerr != nil && err == nil {
			err = cerr
		}
		a.cache = nil
	}
	return err
}
