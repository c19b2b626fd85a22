package stage

import (
	"context"
	"errors"
	"log/slog"
)

// Service owns the Stage lifecycle
// deps is resolved during Init so it can read engines created by earlier
// services
type Service struct {
	deps   func() Deps
	logger *slog.Logger

	stage *Stage
}

// NewService creates the stage service
func NewService(deps func() Deps, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{deps: deps, logger: logger}
}

func (s *Service) Name() string           { return "stage" }
func (s *Service) Dependencies() []string { return []string{"audio"} }

// Init builds the stage and enters the initial state
// Missing resting frames leave the stage inert but do not fail startup,
// the toast already told the user
func (s *Service) Init(ctx context.Context) error {
	s.stage = New(s.deps())
	if err := s.stage.Init(ctx); err != nil {
		if errors.Is(err, ErrNoRestingFrames) {
			s.logger.Warn("stage inert", "error", err)
			return nil
		}
		return err
	}
	return nil
}

func (s *Service) Start(context.Context) error { return nil }

func (s *Service) Stop() error {
	if s.stage != nil {
		s.stage.Close()
	}
	return nil
}

// Stage returns the stage, nil before Init
func (s *Service) Stage() *Stage { return s.stage }
