package audio

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"testing/fstest"
	"time"

	"github.com/gopxl/beep"

	"github.com/lixenwraith/critter/asset"
	"github.com/lixenwraith/critter/constant"
	"github.com/lixenwraith/critter/prefs"
	"github.com/lixenwraith/critter/status"
)

// spyBackend records every call the engine makes
type spyBackend struct {
	kind    BackendKind
	formats []Format

	mu      sync.Mutex
	decodes []string
	plays   []PlayOptions
	played  []string
	closed  int
}

func (s *spyBackend) Kind() BackendKind { return s.kind }

func (s *spyBackend) Supports(f Format) bool {
	for _, sf := range s.formats {
		if sf == f {
			return true
		}
	}
	return false
}

func (s *spyBackend) Decode(key string, r io.Reader, f Format) (*Sound, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if string(data) == "corrupt" {
		return nil, errors.New("bad data")
	}
	s.mu.Lock()
	s.decodes = append(s.decodes, key)
	s.mu.Unlock()
	return &Sound{Key: key, Kind: s.kind, Format: f}, nil
}

func (s *spyBackend) Ingest(key string, _ beep.Streamer, _ beep.Format) (*Sound, error) {
	return &Sound{Key: key, Kind: s.kind}, nil
}

func (s *spyBackend) Play(snd *Sound, opts PlayOptions) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plays = append(s.plays, opts)
	s.played = append(s.played, snd.Key)
	return nil
}

func (s *spyBackend) Close() error {
	s.mu.Lock()
	s.closed++
	s.mu.Unlock()
	return nil
}

func (s *spyBackend) playCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.plays)
}

func factoryOf(b Backend) BackendFactory {
	return func(*Config) (Backend, error) { return b, nil }
}

func failingFactory(*Config) (Backend, error) {
	return nil, errors.New("no speaker")
}

var testAssets = fstest.MapFS{
	"sounds/soft_01.mp3":  {Data: []byte("a")},
	"sounds/soft_02.mp3":  {Data: []byte("b")},
	"sounds/react_01.mp3": {Data: []byte("c")},
	"sounds/react_02.wav": {Data: []byte("d")},
}

func newTestEngine(t *testing.T, spy *spyBackend, opts ...Option) *Engine {
	t.Helper()
	base := []Option{
		WithSource(asset.NewFSSource(testAssets)),
		WithBackends(factoryOf(spy), failingFactory),
	}
	return NewEngine(context.Background(), nil, append(base, opts...)...)
}

func TestInitializeMemoized(t *testing.T) {
	calls := 0
	spy := &spyBackend{kind: BackendBuffer, formats: []Format{FormatMP3}}
	e := NewEngine(context.Background(), nil, WithBackends(func(*Config) (Backend, error) {
		calls++
		return spy, nil
	}, nil))

	for i := 0; i < 3; i++ {
		if !e.Initialize() {
			t.Fatal("Initialize returned false")
		}
	}
	if calls != 1 {
		t.Errorf("factory called %d times, want 1", calls)
	}
	if e.ActiveKind() != BackendBuffer {
		t.Errorf("ActiveKind = %v", e.ActiveKind())
	}
}

func TestInitializeFallsBackToPipe(t *testing.T) {
	pipe := &spyBackend{kind: BackendPipe, formats: []Format{FormatWAV}}
	e := NewEngine(context.Background(), nil, WithBackends(failingFactory, factoryOf(pipe)))
	if !e.Initialize() {
		t.Fatal("Initialize returned false")
	}
	if e.ActiveKind() != BackendPipe {
		t.Errorf("ActiveKind = %v, want pipe", e.ActiveKind())
	}
}

func TestInitializeBothFail(t *testing.T) {
	e := NewEngine(context.Background(), nil, WithBackends(failingFactory, failingFactory))
	if !e.Initialize() {
		t.Error("Initialize should report attempted")
	}
	res := e.LoadAssetMap(context.Background(), map[string]string{"soft_01": "sounds/soft_01"})
	if !errors.Is(res[0].Err, ErrNoAudioBackend) {
		t.Errorf("load error = %v", res[0].Err)
	}
}

func TestLoadAssetMapPartialFailure(t *testing.T) {
	spy := &spyBackend{kind: BackendBuffer, formats: []Format{FormatMP3, FormatWAV}}
	reg := status.NewRegistry()
	e := newTestEngine(t, spy, WithStatus(reg))

	results := e.LoadAssetMap(context.Background(), map[string]string{
		"soft_01":  "sounds/soft_01",
		"soft_02":  "sounds/soft_02",
		"react_01": "sounds/react_01",
		"missing":  "sounds/missing",
	})

	if len(results) != 4 {
		t.Fatalf("got %d results", len(results))
	}
	wantOrder := []string{"missing", "react_01", "soft_01", "soft_02"}
	failures := 0
	for i, r := range results {
		if r.Key != wantOrder[i] {
			t.Errorf("result[%d] = %s, want %s", i, r.Key, wantOrder[i])
		}
		if !r.OK() {
			failures++
		}
	}
	if failures != 1 || results[0].OK() {
		t.Errorf("failures = %d, missing ok = %v", failures, results[0].OK())
	}
	if got := reg.Ints.Get("audio.load_ok").Load(); got != 3 {
		t.Errorf("load_ok = %d", got)
	}
	if got := reg.Ints.Get("audio.load_failed").Load(); got != 1 {
		t.Errorf("load_failed = %d", got)
	}

	for _, key := range []string{"soft_01", "soft_02", "react_01"} {
		if err := e.Play(context.Background(), key); err != nil {
			t.Errorf("Play(%s) = %v", key, err)
		}
	}
	if err := e.Play(context.Background(), "missing"); !errors.Is(err, ErrUnknownSound) {
		t.Errorf("Play(missing) = %v, want ErrUnknownSound", err)
	}
}

func TestLoadPicksFirstSupportedFormat(t *testing.T) {
	spy := &spyBackend{kind: BackendBuffer, formats: []Format{FormatWAV}}
	e := newTestEngine(t, spy)

	results := e.LoadAssetMap(context.Background(), map[string]string{
		"react_01": "sounds/react_01",
		"react_02": "sounds/react_02",
	})
	// react_01 only exists as mp3, which this backend cannot decode
	if results[0].OK() || results[0].Path != "sounds/react_01.wav" {
		t.Errorf("react_01 = %+v", results[0])
	}
	if !results[1].OK() || results[1].Format != FormatWAV {
		t.Errorf("react_02 = %+v", results[1])
	}
}

func TestLoadDecodeFailureIsolated(t *testing.T) {
	spy := &spyBackend{kind: BackendBuffer, formats: []Format{FormatMP3}}
	src := asset.NewFSSource(fstest.MapFS{
		"a.mp3": {Data: []byte("fine")},
		"b.mp3": {Data: []byte("corrupt")},
	})
	e := NewEngine(context.Background(), nil, WithSource(src), WithBackends(factoryOf(spy), nil))
	results := e.LoadAssetMap(context.Background(), map[string]string{"a": "a", "b": "b"})
	if !results[0].OK() || results[1].OK() {
		t.Errorf("results = %+v", results)
	}
}

func TestMutedMakesNoBackendCalls(t *testing.T) {
	spy := &spyBackend{kind: BackendBuffer, formats: []Format{FormatMP3}}
	reg := status.NewRegistry()
	e := newTestEngine(t, spy, WithStatus(reg))
	e.LoadAssetMap(context.Background(), map[string]string{"soft_01": "sounds/soft_01"})
	e.SetMuted(context.Background(), true)

	ctx := context.Background()
	if err := e.Play(ctx, "soft_01"); err != nil {
		t.Errorf("muted Play = %v", err)
	}
	if err := e.Play(ctx, "does-not-exist"); err != nil {
		t.Errorf("muted Play of unknown key = %v", err)
	}
	if err := e.PlayRandom(ctx, "soft"); err != nil {
		t.Errorf("muted PlayRandom = %v", err)
	}
	if n := spy.playCount(); n != 0 {
		t.Errorf("backend received %d plays while muted", n)
	}
	if got := reg.Ints.Get("audio.muted_skips").Load(); got != 3 {
		t.Errorf("muted_skips = %d", got)
	}
}

func TestPlayRandomPrefix(t *testing.T) {
	spy := &spyBackend{kind: BackendBuffer, formats: []Format{FormatMP3}}
	e := newTestEngine(t, spy)
	e.LoadAssetMap(context.Background(), map[string]string{
		"soft_01":  "sounds/soft_01",
		"soft_02":  "sounds/soft_02",
		"react_01": "sounds/react_01",
	})

	for i := 0; i < 50; i++ {
		if err := e.PlayRandom(context.Background(), constant.SoundPrefixSoft); err != nil {
			t.Fatalf("PlayRandom = %v", err)
		}
	}
	for _, k := range spy.played {
		if k != "soft_01" && k != "soft_02" {
			t.Fatalf("PlayRandom(soft) played %s", k)
		}
	}

	err := e.PlayRandom(context.Background(), "growl")
	if !errors.Is(err, ErrNoMatch) {
		t.Errorf("PlayRandom(growl) = %v, want ErrNoMatch", err)
	}
}

func TestEffectiveVolume(t *testing.T) {
	spy := &spyBackend{kind: BackendBuffer, formats: []Format{FormatMP3}}
	e := newTestEngine(t, spy)
	e.LoadAssetMap(context.Background(), map[string]string{"soft_01": "sounds/soft_01"})

	e.SetMasterVolume(0.5)
	if err := e.Play(context.Background(), "soft_01", WithVolume(0.5), WithPitch(100)); err != nil {
		t.Fatal(err)
	}
	e.SetMasterVolume(3)
	if e.MasterVolume() != 1 {
		t.Errorf("master not clamped: %v", e.MasterVolume())
	}
	if err := e.Play(context.Background(), "soft_01", WithVolume(-1)); err != nil {
		t.Fatal(err)
	}

	if got := spy.plays[0].Volume; got != 0.25 {
		t.Errorf("effective volume = %v, want 0.25", got)
	}
	if spy.plays[0].PitchCents != 100 {
		t.Errorf("pitch not forwarded: %v", spy.plays[0].PitchCents)
	}
	if got := spy.plays[1].Volume; got != 0 {
		t.Errorf("negative volume not clamped: %v", got)
	}
}

func TestMutePersistence(t *testing.T) {
	ctx := context.Background()
	store := prefs.NewMemoryStore()
	spy := &spyBackend{kind: BackendBuffer}

	e := NewEngine(ctx, nil, WithStore(store), WithBackends(factoryOf(spy), nil))
	if e.Muted() {
		t.Fatal("engine muted with empty store")
	}
	if !e.ToggleMuted(ctx) {
		t.Fatal("ToggleMuted should return true")
	}
	v, ok, _ := store.Get(ctx, constant.MutePrefKey)
	if !ok || v != "true" {
		t.Errorf("stored %q (present=%v)", v, ok)
	}

	reloaded := NewEngine(ctx, nil, WithStore(store), WithBackends(factoryOf(spy), nil))
	if !reloaded.Muted() {
		t.Error("mute flag not restored from store")
	}
	if reloaded.ToggleMuted(ctx) {
		t.Error("second toggle should unmute")
	}
	v, _, _ = store.Get(ctx, constant.MutePrefKey)
	if v != "false" {
		t.Errorf("stored %q after unmute", v)
	}
}

type brokenStore struct{ *prefs.MemoryStore }

func (brokenStore) Set(context.Context, string, string) error { return errors.New("disk full") }

func TestMutePersistenceFailureNotFatal(t *testing.T) {
	st := brokenStore{prefs.NewMemoryStore()}
	e := NewEngine(context.Background(), nil, WithStore(st), WithBackends(failingFactory, failingFactory))
	if !e.ToggleMuted(context.Background()) {
		t.Error("toggle should still flip in memory")
	}
}

func TestCleanupIrreversible(t *testing.T) {
	spy := &spyBackend{kind: BackendBuffer, formats: []Format{FormatMP3}}
	e := newTestEngine(t, spy)
	e.LoadAssetMap(context.Background(), map[string]string{"soft_01": "sounds/soft_01"})

	if err := e.Cleanup(); err != nil {
		t.Fatal(err)
	}
	if spy.closed != 1 {
		t.Errorf("backend closed %d times", spy.closed)
	}
	if e.Initialize() {
		t.Error("Initialize after Cleanup returned true")
	}
	if err := e.Play(context.Background(), "soft_01"); !errors.Is(err, ErrClosed) {
		t.Errorf("Play after Cleanup = %v", err)
	}
	if len(e.Keys("")) != 0 {
		t.Error("registries not cleared")
	}
	if err := e.Cleanup(); err != nil {
		t.Error("second Cleanup should be a no-op")
	}
}

func TestAddTone(t *testing.T) {
	spy := &spyBackend{kind: BackendPipe}
	e := NewEngine(context.Background(), nil, WithBackends(factoryOf(spy), nil))
	if err := e.AddTone("probe", WaveSine, 440, 50*time.Millisecond); err != nil {
		t.Fatal(err)
	}
	if err := e.Play(context.Background(), "probe"); err != nil {
		t.Errorf("Play(probe) = %v", err)
	}
}

func TestServiceLifecycle(t *testing.T) {
	store := prefs.NewMemoryStore()
	store.Set(context.Background(), constant.MutePrefKey, "true")
	spy := &spyBackend{kind: BackendBuffer}

	svc := NewService(nil, func() prefs.Store { return store }, WithBackends(factoryOf(spy), nil))
	if svc.Name() != "audio" || svc.Dependencies()[0] != "prefs" {
		t.Errorf("service identity = %s %v", svc.Name(), svc.Dependencies())
	}
	if err := svc.Init(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !svc.Engine().Muted() {
		t.Error("engine did not load mute flag through the service")
	}
	if err := svc.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if svc.Engine().ActiveKind() != BackendBuffer {
		t.Error("Start did not initialize backend")
	}
	if err := svc.Stop(); err != nil {
		t.Fatal(err)
	}
	if spy.closed != 1 {
		t.Errorf("backend closed %d times", spy.closed)
	}
}
