package prefs

import (
	"context"
	"log/slog"
)

// Service opens the configured store during Init and closes it on Stop
type Service struct {
	url    string
	logger *slog.Logger
	store  Store
}

func NewService(url string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{url: url, logger: logger}
}

func (s *Service) Name() string           { return "prefs" }
func (s *Service) Dependencies() []string { return nil }

// Init opens the store; an unreachable store degrades to memory
func (s *Service) Init(ctx context.Context) error {
	st, err := Open(ctx, s.url)
	if err != nil {
		s.logger.Warn("preference store unavailable, using memory", "url", s.url, "error", err)
		st = NewMemoryStore()
	}
	s.store = st
	return nil
}

func (s *Service) Start(context.Context) error { return nil }

func (s *Service) Stop() error {
	if s.store == nil {
		return nil
	}
	err := s.store.Close()
	s.store = nil
	return err
}

// Store returns the open store, nil before Init
func (s *Service) Store() Store { return s.store }
