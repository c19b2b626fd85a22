package main

import (
	"context"
	"os"

	"github.com/lixenwraith/critter/config"
	"github.com/lixenwraith/critter/logging"
	"github.com/lixenwraith/critter/server"
	"github.com/lixenwraith/critter/service"
)

// runServe publishes the asset set and process metrics until interrupted
func runServe(ctx context.Context, cfg *config.Config) error {
	logger := logging.New(logging.ParseLevel(cfg.LogLevel), os.Stderr)

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.close()

	a.services = service.NewHub(a.logger)
	srv := server.NewService("http", cfg.ListenAddr, a.handler, a.logger)
	if err := a.services.Register(srv); err != nil {
		return err
	}
	if err := a.start(ctx); err != nil {
		return err
	}
	a.logger.Info("serving critter assets", "addr", srv.Addr(), "assets", cfg.Assets, "manifest", a.manifest.Name)

	<-ctx.Done()
	a.logger.Info("shutting down")
	return nil
}
