package status

import (
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricMapCachesPointer(t *testing.T) {
	m := NewMetricMap[AtomicFloat]()
	a := m.Get("volume")
	b := m.Get("volume")
	if a != b {
		t.Fatal("Get returned different pointers for the same key")
	}
	a.Set(0.5)
	if b.Get() != 0.5 {
		t.Errorf("shared pointer value = %v", b.Get())
	}
}

func TestMetricMapConcurrentGet(t *testing.T) {
	reg := NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			reg.Ints.Get("audio.plays").Add(1)
		}()
	}
	wg.Wait()
	if got := reg.Ints.Get("audio.plays").Load(); got != 32 {
		t.Errorf("concurrent increments = %d", got)
	}
	if reg.Ints.Count() != 1 {
		t.Errorf("Count = %d", reg.Ints.Count())
	}
}

func TestRangeSorted(t *testing.T) {
	m := NewMetricMap[AtomicString]()
	for _, k := range []string{"c", "a", "b"} {
		m.Get(k)
	}
	var keys []string
	m.Range(func(k string, _ *AtomicString) { keys = append(keys, k) })
	if strings.Join(keys, ",") != "a,b,c" {
		t.Errorf("Range order = %v", keys)
	}
}

func TestAtomicStringTruncates(t *testing.T) {
	var s AtomicString
	if s.Load() != "" {
		t.Error("zero value not empty")
	}
	s.Store(strings.Repeat("x", MaxStringLen+10))
	if len(s.Load()) != MaxStringLen {
		t.Errorf("stored length %d", len(s.Load()))
	}
}

func TestSnapshot(t *testing.T) {
	reg := NewRegistry()
	reg.Ints.Get("state.transitions").Store(3)
	reg.Bools.Get("audio.muted").Store(true)
	reg.Floats.Get("audio.volume").Set(0.25)
	reg.Strings.Get("audio.backend").Store("buffer")

	snap := reg.Snapshot()
	want := map[string]string{
		"state.transitions": "3",
		"audio.muted":       "true",
		"audio.volume":      "0.25",
		"audio.backend":     "buffer",
	}
	for k, v := range want {
		if snap[k] != v {
			t.Errorf("snapshot[%s] = %q, want %q", k, snap[k], v)
		}
	}
	if reg.TotalCount() != 4 {
		t.Errorf("TotalCount = %d", reg.TotalCount())
	}
}

func TestCollectorExports(t *testing.T) {
	reg := NewRegistry()
	reg.Ints.Get("audio.plays").Store(7)
	reg.Bools.Get("audio.muted").Store(true)

	promReg := prometheus.NewPedanticRegistry()
	if err := promReg.Register(NewCollector(reg, "critter")); err != nil {
		t.Fatalf("register: %v", err)
	}

	expected := `
# HELP critter_audio_plays critter status metric audio.plays
# TYPE critter_audio_plays untyped
critter_audio_plays 7
`
	if err := testutil.GatherAndCompare(promReg, strings.NewReader(expected), "critter_audio_plays"); err != nil {
		t.Errorf("gathered metrics mismatch: %v", err)
	}

	if n, err := testutil.GatherAndCount(promReg); err != nil || n != 2 {
		t.Errorf("GatherAndCount = %d, %v", n, err)
	}
}

func TestMetricName(t *testing.T) {
	cases := map[string]string{
		"audio.plays":     "audio_plays",
		"load-failures":   "load_failures",
		"9lives":          "_9lives",
		"state.resting_s": "state_resting_s",
	}
	for in, want := range cases {
		if got := MetricName(in); got != want {
			t.Errorf("MetricName(%q) = %q, want %q", in, got, want)
		}
	}
}
