package audio

import (
	"context"

	"github.com/lixenwraith/critter/prefs"
)

// Service builds the Engine once the preference store is open
// Audio is best effort: backend problems never fail Init or Start
type Service struct {
	cfg   *Config
	store func() prefs.Store
	opts  []Option

	engine *Engine
}

// NewService creates the audio service; store is read during Init
func NewService(cfg *Config, store func() prefs.Store, opts ...Option) *Service {
	return &Service{cfg: cfg, store: store, opts: opts}
}

func (s *Service) Name() string           { return "audio" }
func (s *Service) Dependencies() []string { return []string{"prefs"} }

func (s *Service) Init(ctx context.Context) error {
	opts := s.opts
	if s.store != nil {
		opts = append(append([]Option(nil), opts...), WithStore(s.store()))
	}
	s.engine = NewEngine(ctx, s.cfg, opts...)
	return nil
}

// Start selects the backend ahead of the first load
func (s *Service) Start(context.Context) error {
	if s.engine != nil {
		s.engine.Initialize()
	}
	return nil
}

func (s *Service) Stop() error {
	if s.engine == nil {
		return nil
	}
	return s.engine.Cleanup()
}

// Engine returns the engine, nil before Init
func (s *Service) Engine() *Engine { return s.engine }
