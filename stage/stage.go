// Package stage binds input, frames, sounds and timers to the state machine
//
// Every entry point (tap, timer expiry, mute toggle) takes the stage mutex,
// so machine transitions and their event handlers never interleave. Event
// handlers run synchronously inside those entry points and assume the lock
// is held.
package stage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lixenwraith/critter/asset"
	"github.com/lixenwraith/critter/audio"
	"github.com/lixenwraith/critter/constant"
	"github.com/lixenwraith/critter/core"
	"github.com/lixenwraith/critter/event"
	"github.com/lixenwraith/critter/random"
	"github.com/lixenwraith/critter/render"
	"github.com/lixenwraith/critter/sprite"
	"github.com/lixenwraith/critter/state"
	"github.com/lixenwraith/critter/status"
	"github.com/lixenwraith/critter/timing"
)

// ErrNoRestingFrames means the critter has nothing to show at rest
var ErrNoRestingFrames = errors.New("no resting frames loaded")

// LoadFailedToast is shown when the resting pool is empty
const LoadFailedToast = "could not load critter frames"

// Player is the slice of the audio engine the stage drives
type Player interface {
	LoadAssetMap(ctx context.Context, assets map[string]string) []audio.LoadResult
	PlayRandom(ctx context.Context, prefix string, opts ...audio.PlayOption) error
	ToggleMuted(ctx context.Context) bool
	Muted() bool
	SetMasterVolume(v float64)
	MasterVolume() float64
	ActiveKind() audio.BackendKind
}

// Deps are the stage collaborators, all explicitly injected
type Deps struct {
	Machine  *state.Machine
	Hub      *event.Hub
	Audio    Player
	Display  render.Display
	Clock    timing.Clock
	Random   random.Source
	Logger   *slog.Logger
	Status   *status.Registry
	Source   asset.Source
	Manifest *asset.Manifest

	// FrameWidth is the sprite width in columns, constant.FrameWidth if zero
	FrameWidth int
}

// Stage is the orchestrator
type Stage struct {
	machine *state.Machine
	hub     *event.Hub
	audio   Player
	display render.Display
	clock   timing.Clock
	rng     random.Source
	logger  *slog.Logger
	src     asset.Source
	mf      *asset.Manifest
	width   int

	mu          sync.Mutex
	ctx         context.Context
	initialized bool
	closed      bool
	resting     []*sprite.Frame
	reacting    []*sprite.Frame
	lastResting *sprite.Frame
	lastReact   *sprite.Frame
	unsub       []func()

	idle  *timing.Slot
	react *timing.Slot
	tap   func() bool

	statTaps       *atomic.Int64
	statTapsMerged *atomic.Int64
	statReactions  *atomic.Int64
	statRefreshes  *atomic.Int64
	statResting    *atomic.Int64
	statReacting   *atomic.Int64
	statFrameFails *atomic.Int64
}

// New wires a stage; nothing runs until Init
func New(d Deps) *Stage {
	if d.Logger == nil {
		d.Logger = slog.New(slog.DiscardHandler)
	}
	if d.Status == nil {
		d.Status = status.NewRegistry()
	}
	if d.FrameWidth <= 0 {
		d.FrameWidth = constant.FrameWidth
	}
	s := &Stage{
		machine: d.Machine,
		hub:     d.Hub,
		audio:   d.Audio,
		display: d.Display,
		clock:   d.Clock,
		rng:     d.Random,
		logger:  d.Logger.With("component", "stage"),
		src:     d.Source,
		mf:      d.Manifest,
		width:   d.FrameWidth,
		ctx:     context.Background(),
		idle:    timing.NewSlot(d.Clock),
		react:   timing.NewSlot(d.Clock),

		statTaps:       d.Status.Ints.Get("stage.taps"),
		statTapsMerged: d.Status.Ints.Get("stage.taps_debounced"),
		statReactions:  d.Status.Ints.Get("stage.reactions"),
		statRefreshes:  d.Status.Ints.Get("stage.idle_refreshes"),
		statResting:    d.Status.Ints.Get("frames.resting"),
		statReacting:   d.Status.Ints.Get("frames.reacting"),
		statFrameFails: d.Status.Ints.Get("frames.failed"),
	}
	s.tap = timing.Throttle(d.Clock, constant.TapDebounce, s.reactLocked)
	return s
}

// Init loads frame pools and sounds, subscribes to the hub and enters the
// initial state. With no resting frames it shows a toast and returns
// ErrNoRestingFrames; the stage then stays inert
func (s *Stage) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("stage closed")
	}
	if s.initialized {
		return nil
	}

	s.resting = s.loadPool(ctx, "resting", s.mf.Frames.Resting)
	s.reacting = s.loadPool(ctx, "reacting", s.mf.Frames.Reacting)
	s.statResting.Store(int64(len(s.resting)))
	s.statReacting.Store(int64(len(s.reacting)))

	if len(s.resting) == 0 {
		s.display.Toast(LoadFailedToast)
		return ErrNoRestingFrames
	}

	if s.audio != nil && len(s.mf.Sounds) > 0 {
		s.audio.LoadAssetMap(ctx, s.mf.Sounds)
	}

	s.unsub = append(s.unsub,
		render.FollowState(s.hub, s.display),
		s.hub.Subscribe(event.OnEnter(core.StateResting, func(event.Entered) { s.enterResting() })),
		s.hub.Subscribe(event.OnEnter(core.StateReacting, func(event.Entered) { s.enterReacting() })),
		s.hub.Subscribe(event.Func(func(event.Event) { s.enterResting() }, event.KindReset)),
	)
	s.initialized = true
	s.refreshAudioStatus()

	s.machine.EnterInitialState()
	return nil
}

func (s *Stage) loadPool(ctx context.Context, name, pattern string) []*sprite.Frame {
	frames, errs := asset.LoadFrames(ctx, s.src, pattern, s.mf.PoolSize, sprite.Decoder(s.width))
	for _, fe := range errs {
		s.logger.Warn("frame load failed", "pool", name, "path", fe.Path, "error", fe.Err)
	}
	s.statFrameFails.Add(int64(len(errs)))
	s.logger.Info("frame pool loaded", "pool", name, "loaded", len(frames), "failed", len(errs))
	return frames
}

// Tap handles a key press or click
// Taps within constant.TapDebounce of the last accepted tap are dropped
func (s *Stage) Tap() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized || s.closed {
		return
	}
	s.statTaps.Add(1)
	if !s.tap() {
		s.statTapsMerged.Add(1)
	}
}

func (s *Stage) reactLocked() {
	if s.machine.Current() != core.StateResting {
		return
	}
	if s.machine.SetState(core.StateReacting) {
		s.statReactions.Add(1)
		core.Haptic(s.display)
	}
}

// enterResting shows a fresh resting frame and arms the idle refresh
func (s *Stage) enterResting() {
	s.react.Cancel()
	s.showResting()
	s.scheduleIdle()
}

func (s *Stage) enterReacting() {
	s.idle.Cancel()
	if f, ok := random.ChoiceAvoidLast(s.rng, s.reacting, s.lastReact); ok {
		s.lastReact = f
		s.display.ShowFrame(f)
	} else {
		s.logger.Debug("reacting pool empty, keeping current frame")
	}
	s.play(constant.SoundPrefixReact)
	s.react.ScheduleGen(random.Duration(s.rng, constant.ReactingMin, constant.ReactingMax), s.onReactExpired)
}

func (s *Stage) showResting() {
	if f, ok := random.ChoiceAvoidLast(s.rng, s.resting, s.lastResting); ok {
		s.lastResting = f
		s.display.ShowFrame(f)
	}
}

func (s *Stage) scheduleIdle() {
	s.idle.ScheduleGen(random.Duration(s.rng, constant.IdleRefreshMin, constant.IdleRefreshMax), s.onIdle)
}

func (s *Stage) onIdle(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || !s.idle.Live(gen) || s.machine.Current() != core.StateResting {
		return
	}
	s.statRefreshes.Add(1)
	s.showResting()
	if random.Chance(s.rng, constant.SoftSoundChance) {
		s.play(constant.SoundPrefixSoft)
	}
	s.scheduleIdle()
}

func (s *Stage) onReactExpired(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || !s.react.Live(gen) || s.machine.Current() != core.StateReacting {
		return
	}
	s.machine.SetState(core.StateResting)
}

// play never interrupts the interaction; failures are logged at debug
func (s *Stage) play(prefix string) {
	if s.audio == nil {
		return
	}
	if err := s.audio.PlayRandom(s.ctx, prefix); err != nil {
		s.logger.Debug("playback failed", "prefix", prefix, "error", err)
	}
}

// ToggleMute flips and persists the mute flag, returns the new value
func (s *Stage) ToggleMute() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.audio == nil {
		return true
	}
	muted := s.audio.ToggleMuted(s.ctx)
	s.refreshAudioStatus()
	return muted
}

// AdjustVolume shifts master volume by delta, clamped to [0,1]
func (s *Stage) AdjustVolume(delta float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.audio == nil {
		return 0
	}
	s.audio.SetMasterVolume(s.audio.MasterVolume() + delta)
	s.refreshAudioStatus()
	return s.audio.MasterVolume()
}

// Reset forces the critter back to rest with a fresh idle cycle
func (s *Stage) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized || s.closed {
		return
	}
	s.machine.Reset()
}

func (s *Stage) refreshAudioStatus() {
	if s.audio == nil {
		return
	}
	s.display.SetAudio(render.AudioStatus{
		Muted:   s.audio.Muted(),
		Volume:  s.audio.MasterVolume(),
		Backend: s.audio.ActiveKind().String(),
	})
}

// State returns the machine's current state
func (s *Stage) State() core.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.Current()
}

// IdleTimer reports the last idle delay and whether it is pending
func (s *Stage) IdleTimer() (time.Duration, bool) {
	return s.idle.LastDelay(), s.idle.Armed()
}

// ReactTimer reports the last reacting delay and whether it is pending
func (s *Stage) ReactTimer() (time.Duration, bool) {
	return s.react.LastDelay(), s.react.Armed()
}

// Close cancels both timers and detaches from the hub
// Audio cleanup belongs to the audio service
func (s *Stage) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.idle.Cancel()
	s.react.Cancel()
	for _, u := range s.unsub {
		u()
	}
	s.unsub = nil
}
