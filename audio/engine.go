package audio

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep"
	"golang.org/x/sync/errgroup"

	"github.com/lixenwraith/critter/asset"
	"github.com/lixenwraith/critter/constant"
	"github.com/lixenwraith/critter/prefs"
	"github.com/lixenwraith/critter/random"
	"github.com/lixenwraith/critter/status"
)

// Engine is the playback facade: backend selection, sound registries,
// master volume and the persisted mute flag
type Engine struct {
	cfg    *Config
	src    asset.Source
	store  prefs.Store
	logger *slog.Logger
	rng    random.Source

	bufferFactory BackendFactory
	pipeFactory   BackendFactory

	mu          sync.RWMutex
	initialized bool
	closed      bool
	active      Backend
	backends    map[BackendKind]Backend
	sounds      map[BackendKind]map[string]*Sound
	master      float64

	muted atomic.Bool

	statPlays      *atomic.Int64
	statMutedSkips *atomic.Int64
	statLoadOK     *atomic.Int64
	statLoadFailed *atomic.Int64
	statMuted      *atomic.Bool
	statVolume     *status.AtomicFloat
	statBackend    *status.AtomicString
}

// Option configures an Engine
type Option func(*Engine)

func WithSource(src asset.Source) Option { return func(e *Engine) { e.src = src } }

func WithStore(s prefs.Store) Option { return func(e *Engine) { e.store = s } }

func WithLogger(l *slog.Logger) Option { return func(e *Engine) { e.logger = l } }

func WithRandom(r random.Source) Option { return func(e *Engine) { e.rng = r } }

// WithBackends replaces the backend factories; nil keeps the default
func WithBackends(buffer, pipe BackendFactory) Option {
	return func(e *Engine) {
		if buffer != nil {
			e.bufferFactory = buffer
		}
		if pipe != nil {
			e.pipeFactory = pipe
		}
	}
}

// WithStatus records metrics into reg
func WithStatus(reg *status.Registry) Option {
	return func(e *Engine) { e.bindStatus(reg) }
}

// NewEngine creates an engine and loads the persisted mute flag
// A store read failure is logged and leaves audio unmuted
func NewEngine(ctx context.Context, cfg *Config, opts ...Option) *Engine {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	e := &Engine{
		cfg:      cfg,
		logger:   slog.New(slog.DiscardHandler),
		backends: make(map[BackendKind]Backend),
		sounds:   make(map[BackendKind]map[string]*Sound),
		master:   clamp01(cfg.MasterVolume),
	}
	e.bufferFactory = NewBufferBackend
	e.bindStatus(status.NewRegistry())
	for _, opt := range opts {
		opt(e)
	}
	if e.pipeFactory == nil {
		e.pipeFactory = PipeFactory(e.logger)
	}
	e.logger = e.logger.With("component", "audio")

	muted, err := prefs.LoadBool(ctx, e.store, constant.MutePrefKey, false)
	if err != nil {
		e.logger.Warn("mute preference unreadable", "error", err)
	}
	e.muted.Store(muted)
	e.statMuted.Store(muted)
	e.statVolume.Set(e.master)
	e.statBackend.Store(BackendNone.String())
	return e
}

func (e *Engine) bindStatus(reg *status.Registry) {
	e.statPlays = reg.Ints.Get("audio.plays")
	e.statMutedSkips = reg.Ints.Get("audio.muted_skips")
	e.statLoadOK = reg.Ints.Get("audio.load_ok")
	e.statLoadFailed = reg.Ints.Get("audio.load_failed")
	e.statMuted = reg.Bools.Get("audio.muted")
	e.statVolume = reg.Floats.Get("audio.volume")
	e.statBackend = reg.Strings.Get("audio.backend")
}

// Initialize selects a backend once: buffer first, pipe on failure
// Returns false only after Cleanup
func (e *Engine) Initialize() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.initLocked()
}

func (e *Engine) initLocked() bool {
	if e.closed {
		return false
	}
	if e.initialized {
		return true
	}
	e.initialized = true

	b, err := e.bufferFactory(e.cfg)
	if err != nil {
		e.logger.Info("buffer backend unavailable, falling back to pipe", "error", err)
		b, err = e.pipeFactory(e.cfg)
		if err != nil {
			e.logger.Warn("no audio backend", "error", err)
			return true
		}
	}
	e.active = b
	e.backends[b.Kind()] = b
	e.statBackend.Store(b.Kind().String())
	e.logger.Debug("audio backend selected", "backend", b.Kind().String())
	return true
}

// ActiveKind reports the selected backend, BackendNone before Initialize
func (e *Engine) ActiveKind() BackendKind {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.active == nil {
		return BackendNone
	}
	return e.active.Kind()
}

// LoadAssetMap loads every key -> base path concurrently
// Failures are isolated per key; results are sorted by key
func (e *Engine) LoadAssetMap(ctx context.Context, assets map[string]string) []LoadResult {
	e.mu.Lock()
	ok := e.initLocked()
	backend := e.active
	e.mu.Unlock()

	keys := slices.Sorted(maps.Keys(assets))
	results := make([]LoadResult, len(keys))

	if !ok {
		for i, k := range keys {
			results[i] = LoadResult{Key: k, Err: ErrClosed}
		}
		return results
	}

	limit := e.cfg.LoadConcurrency
	if limit <= 0 {
		limit = constant.AudioLoadConcurrency
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, key := range keys {
		g.Go(func() error {
			results[i] = e.loadOne(gctx, backend, key, assets[key])
			return nil
		})
	}
	_ = g.Wait()

	var okCount, failCount int
	for _, r := range results {
		if r.Err != nil {
			failCount++
			e.logger.Debug("sound load failed", "key", r.Key, "path", r.Path, "error", r.Err)
			continue
		}
		okCount++
	}
	e.statLoadOK.Add(int64(okCount))
	e.statLoadFailed.Add(int64(failCount))
	e.logger.Info("sounds loaded", "ok", okCount, "failed", failCount)
	return results
}

func (e *Engine) loadOne(ctx context.Context, backend Backend, key, base string) LoadResult {
	res := LoadResult{Key: key}
	if backend == nil {
		res.Err = ErrNoAudioBackend
		return res
	}
	if e.src == nil {
		res.Err = fmt.Errorf("no asset source configured")
		return res
	}
	f, ok := pickFormat(e.cfg.Formats, backend)
	if !ok {
		res.Err = fmt.Errorf("%w: none of %v", ErrUnsupportedFormat, e.cfg.Formats)
		return res
	}
	res.Format = f
	res.Path = base + "." + string(f)

	rc, err := e.src.Open(ctx, res.Path)
	if err != nil {
		res.Err = err
		return res
	}
	defer rc.Close()

	snd, err := backend.Decode(key, rc, f)
	if err != nil {
		res.Err = fmt.Errorf("%s: %w", res.Path, err)
		return res
	}
	e.register(snd)
	return res
}

// AddTone registers a synthesized sound on the active backend
func (e *Engine) AddTone(key string, wave WaveType, freq float64, d time.Duration) error {
	e.mu.Lock()
	ok := e.initLocked()
	backend := e.active
	e.mu.Unlock()
	if !ok {
		return ErrClosed
	}
	if backend == nil {
		return ErrNoAudioBackend
	}
	rate := beep.SampleRate(e.cfg.SampleRate)
	snd, err := backend.Ingest(key, Tone(wave, freq, d, rate), beep.Format{SampleRate: rate, NumChannels: 2, Precision: 2})
	if err != nil {
		return err
	}
	e.register(snd)
	return nil
}

func (e *Engine) register(snd *Sound) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	reg := e.sounds[snd.Kind]
	if reg == nil {
		reg = make(map[string]*Sound)
		e.sounds[snd.Kind] = reg
	}
	reg[snd.Key] = snd
}

// lookupLocked searches registries in backend preference order
func (e *Engine) lookupLocked(key string) (*Sound, Backend) {
	for _, kind := range []BackendKind{BackendBuffer, BackendPipe} {
		if snd, ok := e.sounds[kind][key]; ok {
			return snd, e.backends[kind]
		}
	}
	return nil, nil
}

// Play starts key; nil without touching any backend when muted
func (e *Engine) Play(ctx context.Context, key string, opts ...PlayOption) error {
	if e.muted.Load() {
		e.statMutedSkips.Add(1)
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	e.mu.Lock()
	if !e.initLocked() {
		e.mu.Unlock()
		return ErrClosed
	}
	snd, backend := e.lookupLocked(key)
	master := e.master
	e.mu.Unlock()

	if snd == nil || backend == nil {
		return fmt.Errorf("%w: %s", ErrUnknownSound, key)
	}

	o := buildOptions(opts)
	o.Volume *= master
	if err := backend.Play(snd, o); err != nil {
		return fmt.Errorf("play %s: %w", key, err)
	}
	e.statPlays.Add(1)
	return nil
}

// PlayRandom plays a uniformly chosen sound whose key starts with prefix
func (e *Engine) PlayRandom(ctx context.Context, prefix string, opts ...PlayOption) error {
	if e.muted.Load() {
		e.statMutedSkips.Add(1)
		return nil
	}
	keys := e.Keys(prefix)
	key, ok := random.Choice(e.rng, keys)
	if !ok {
		return fmt.Errorf("%w: %q", ErrNoMatch, prefix)
	}
	return e.Play(ctx, key, opts...)
}

// Keys returns registered keys across all registries with prefix, sorted
func (e *Engine) Keys(prefix string) []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	seen := make(map[string]struct{})
	for _, reg := range e.sounds {
		for k := range reg {
			if strings.HasPrefix(k, prefix) {
				seen[k] = struct{}{}
			}
		}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SetMasterVolume clamps v to [0,1]
func (e *Engine) SetMasterVolume(v float64) {
	v = clamp01(v)
	e.mu.Lock()
	e.master = v
	e.mu.Unlock()
	e.statVolume.Set(v)
}

// MasterVolume returns the current master gain
func (e *Engine) MasterVolume() float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.master
}

// Muted reports the mute flag
func (e *Engine) Muted() bool { return e.muted.Load() }

// SetMuted updates and persists the flag; persistence failures are logged
func (e *Engine) SetMuted(ctx context.Context, muted bool) {
	e.muted.Store(muted)
	e.statMuted.Store(muted)
	if err := prefs.SaveBool(ctx, e.store, constant.MutePrefKey, muted); err != nil {
		e.logger.Warn("mute preference not saved", "error", err)
	}
}

// ToggleMuted flips the flag and returns the new value
func (e *Engine) ToggleMuted(ctx context.Context) bool {
	next := !e.muted.Load()
	e.SetMuted(ctx, next)
	return next
}

// Cleanup closes backends and drops all sounds; the engine stays closed
func (e *Engine) Cleanup() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true

	var firstErr error
	for kind, b := range e.backends {
		if err := b.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close %s backend: %w", kind, err)
		}
	}
	clear(e.backends)
	clear(e.sounds)
	e.active = nil
	e.statBackend.Store(BackendNone.String())
	return firstErr
}
