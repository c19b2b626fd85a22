// Package service runs long-lived subsystems (preference store, audio,
// stage, metrics server) through a dependency-ordered lifecycle
package service

import "context"

// Service is the lifecycle contract for infrastructure subsystems
//
// Lifecycle:
//  1. Construction (by the composition root)
//  2. Init(ctx) - acquire resources, after all dependencies have initialized
//  3. Start(ctx) - launch background goroutines
//  4. [runtime operation]
//  5. Stop() - halt goroutines, release resources; idempotent
type Service interface {
	Name() string

	// Dependencies returns names of services that must Init before this one
	Dependencies() []string

	Init(ctx context.Context) error
	Start(ctx context.Context) error
	Stop() error
}

// Func adapts plain functions into a Service
// Nil hooks are no-ops
type Func struct {
	ServiceName string
	DependsOn   []string
	OnInit      func(ctx context.Context) error
	OnStart     func(ctx context.Context) error
	OnStop      func() error
}

func (f *Func) Name() string           { return f.ServiceName }
func (f *Func) Dependencies() []string { return f.DependsOn }

func (f *Func) Init(ctx context.Context) error {
	if f.OnInit == nil {
		return nil
	}
	return f.OnInit(ctx)
}

func (f *Func) Start(ctx context.Context) error {
	if f.OnStart == nil {
		return nil
	}
	return f.OnStart(ctx)
}

func (f *Func) Stop() error {
	if f.OnStop == nil {
		return nil
	}
	return f.OnStop()
}
