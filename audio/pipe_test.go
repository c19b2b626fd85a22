package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
	"time"

	"github.com/gopxl/beep"

	"github.com/lixenwraith/critter/constant"
)

func TestDetectPlayerPriority(t *testing.T) {
	available := map[string]bool{"aplay": true, "ffplay": true}
	look := func(name string) (string, error) {
		if available[name] {
			return "/usr/bin/" + name, nil
		}
		return "", errors.New("not found")
	}

	p, err := detectPlayer(look, "linux")
	if err != nil {
		t.Fatal(err)
	}
	if p.Type != PlayerALSA || p.Path != "/usr/bin/aplay" {
		t.Errorf("detected %+v, want aplay", p)
	}

	available["pacat"] = true
	p, _ = detectPlayer(look, "linux")
	if p.Type != PlayerPulse {
		t.Errorf("pacat not preferred: %+v", p)
	}

	_, err = detectPlayer(func(string) (string, error) { return "", errors.New("x") }, "linux")
	if !errors.Is(err, ErrNoAudioBackend) {
		t.Errorf("empty system error = %v", err)
	}
}

func TestPipeIngestDownmixes(t *testing.T) {
	p := newPipeBackendWriter(&bytes.Buffer{})
	snd, err := p.Ingest("k", Tone(WaveSine, 440, 100*time.Millisecond, 22050), beep.Format{SampleRate: 22050, NumChannels: 2, Precision: 2})
	if err != nil {
		t.Fatal(err)
	}
	want := constant.AudioSampleRate / 10
	if got := len(snd.pcm); got < want-64 || got > want+64 {
		t.Errorf("pcm length = %d, want ~%d", got, want)
	}
}

func TestPipeOverlappingPlaysMix(t *testing.T) {
	out := &bytes.Buffer{}
	p := newPipeBackendWriter(out)
	snd := &Sound{Key: "k", Kind: BackendPipe, pcm: floatBuffer{0.25, 0.25, 0.25}}

	if err := p.Play(snd, PlayOptions{Volume: 1}); err != nil {
		t.Fatal(err)
	}
	if err := p.Play(snd, PlayOptions{Volume: 1}); err != nil {
		t.Fatal(err)
	}
	if err := p.mixer.tick(); err != nil {
		t.Fatal(err)
	}

	played, _ := p.mixer.Stats()
	if played != 2 {
		t.Errorf("played = %d, want 2", played)
	}
	if out.Len() != constant.AudioBufferSamples*constant.AudioBytesPerFrame {
		t.Fatalf("chunk size = %d", out.Len())
	}
	first := int16(binary.LittleEndian.Uint16(out.Bytes()[0:2]))
	mixed := 0.5
	if want := int16(mixed * 32767); first != want {
		t.Errorf("mixed sample = %d, want %d", first, want)
	}
	if len(p.mixer.active) != 0 {
		t.Errorf("finished voices still active: %d", len(p.mixer.active))
	}
}

func TestMixerDelayAndPitch(t *testing.T) {
	buf := make([]float64, 8)
	voices := []voice{
		{buffer: floatBuffer{1, 1}, step: 1, wait: 3, volume: 1},
		{buffer: floatBuffer{0.1, 0.2, 0.3, 0.4}, step: 2, volume: 1},
	}
	remaining := mixActive(voices, buf)
	if len(remaining) != 0 {
		t.Errorf("remaining = %d", len(remaining))
	}
	want := []float64{0.1, 0.3, 0, 1, 1, 0, 0, 0}
	for i := range want {
		if diff := buf[i] - want[i]; diff > 1e-9 || diff < -1e-9 {
			t.Fatalf("buf = %v, want %v", buf, want)
		}
	}
}

func TestMixerQueueFull(t *testing.T) {
	m := NewMixer(&bytes.Buffer{})
	req := playRequest{pcm: floatBuffer{1}, volume: 1, step: 1}
	for i := 0; i < constant.AudioPlayQueueSize; i++ {
		if !m.Enqueue(req) {
			t.Fatalf("enqueue %d rejected", i)
		}
	}
	if m.Enqueue(req) {
		t.Error("overflow accepted")
	}
	if _, dropped := m.Stats(); dropped != 1 {
		t.Errorf("dropped = %d", dropped)
	}
}

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) { return 0, errors.New("broken pipe") }

func TestMixerWriteError(t *testing.T) {
	m := NewMixer(failWriter{})
	if err := m.tick(); !errors.Is(err, ErrPipeClosed) {
		t.Errorf("tick error = %v", err)
	}
}

func TestPipeSilentAcceptsPlays(t *testing.T) {
	p := &PipeBackend{}
	p.silent.Store(true)
	snd := &Sound{Key: "k", Kind: BackendPipe, pcm: floatBuffer{1}}
	if err := p.Play(snd, PlayOptions{Volume: 1}); err != nil {
		t.Errorf("silent Play = %v", err)
	}
	p.Close()
	if err := p.Play(snd, PlayOptions{Volume: 1}); !errors.Is(err, ErrClosed) {
		t.Errorf("Play after Close = %v", err)
	}
}
