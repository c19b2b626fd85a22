package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/lixenwraith/critter/core"
)

const shutdownTimeout = 2 * time.Second

// Service runs the HTTP server under the service hub
// The listener is bound during Init so address conflicts fail startup
type Service struct {
	name    string
	addr    string
	handler func() http.Handler
	deps    []string
	logger  *slog.Logger

	ln  net.Listener
	srv *http.Server
}

// NewService creates a server named name on addr; handler is built at Init
func NewService(name, addr string, handler func() http.Handler, logger *slog.Logger, deps ...string) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{name: name, addr: addr, handler: handler, deps: deps, logger: logger.With("component", name)}
}

func (s *Service) Name() string           { return s.name }
func (s *Service) Dependencies() []string { return s.deps }

func (s *Service) Init(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.addr, err)
	}
	s.ln = ln
	s.srv = &http.Server{
		Handler:           s.handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return nil
}

func (s *Service) Start(context.Context) error {
	if s.srv == nil {
		return fmt.Errorf("%s: not initialized", s.name)
	}
	s.logger.Info("http server listening", "addr", s.ln.Addr().String())
	srv, ln := s.srv, s.ln
	core.Go(func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http server stopped", "error", err)
		}
	})
	return nil
}

func (s *Service) Stop() error {
	if s.srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := s.srv.Shutdown(ctx)
	s.srv = nil
	if s.ln != nil {
		_ = s.ln.Close()
	}
	return err
}

// Addr returns the bound address, empty before Init
func (s *Service) Addr() string {
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}
