package audio

import (
	"fmt"
	"io"
	"math"
	"sync"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/speaker"

	"github.com/lixenwraith/critter/constant"
)

// BufferBackend plays fully decoded buffers through the beep speaker
// Every Play opens a fresh streamer over the shared buffer, so overlapping
// plays of one sound are independent
type BufferBackend struct {
	mu     sync.Mutex
	rate   beep.SampleRate
	sink   func(beep.Streamer)
	close  func()
	closed bool
}

// NewBufferBackend initializes the speaker at cfg.SampleRate
func NewBufferBackend(cfg *Config) (Backend, error) {
	rate := beep.SampleRate(cfg.SampleRate)
	if err := speaker.Init(rate, rate.N(constant.SpeakerBufferDuration)); err != nil {
		return nil, fmt.Errorf("speaker init: %w", err)
	}
	return newBufferBackend(rate, func(s beep.Streamer) { speaker.Play(s) }, speaker.Close), nil
}

// newBufferBackend wires an arbitrary sink, tests capture streamers with it
func newBufferBackend(rate beep.SampleRate, sink func(beep.Streamer), closeFn func()) *BufferBackend {
	if closeFn == nil {
		closeFn = func() {}
	}
	return &BufferBackend{rate: rate, sink: sink, close: closeFn}
}

func (b *BufferBackend) Kind() BackendKind { return BackendBuffer }

func (b *BufferBackend) Supports(f Format) bool { return decodedSupports(f) }

func (b *BufferBackend) Decode(key string, r io.Reader, f Format) (*Sound, error) {
	if !b.Supports(f) {
		return nil, unsupported(f)
	}
	s, format, err := decodeStream(r, f)
	if err != nil {
		return nil, err
	}
	defer s.Close()

	snd, err := b.Ingest(key, s, format)
	if err != nil {
		return nil, err
	}
	snd.Format = f
	return snd, nil
}

func (b *BufferBackend) Ingest(key string, s beep.Streamer, f beep.Format) (*Sound, error) {
	buf := beep.NewBuffer(beep.Format{
		SampleRate:  b.rate,
		NumChannels: constant.AudioChannels,
		Precision:   constant.AudioBitDepth / 8,
	})
	buf.Append(resampleTo(s, f.SampleRate, b.rate))
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("stream %s: %w", key, err)
	}
	if buf.Len() == 0 {
		return nil, fmt.Errorf("sound %s decoded to zero samples", key)
	}
	return &Sound{Key: key, Kind: BackendBuffer, buffer: buf}, nil
}

func (b *BufferBackend) Play(snd *Sound, opts PlayOptions) error {
	if snd == nil || snd.buffer == nil {
		return fmt.Errorf("%w: not a buffer sound", ErrUnknownSound)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}

	b.sink(b.voice(snd, opts))
	return nil
}

// voice builds the per-play streamer chain: pitch, gain, delay
func (b *BufferBackend) voice(snd *Sound, opts PlayOptions) beep.Streamer {
	var s beep.Streamer = snd.buffer.Streamer(0, snd.buffer.Len())
	if opts.PitchCents != 0 {
		s = beep.ResampleRatio(4, pitchRatio(opts.PitchCents), s)
	}
	s = newVolume(s, opts.Volume)
	if opts.Delay > 0 {
		s = beep.Seq(beep.Silence(b.rate.N(opts.Delay)), s)
	}
	return s
}

func (b *BufferBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	b.close()
	return nil
}

// newVolume maps linear gain onto effects.Volume
// math.Log2(0) is -Inf, so zero volume is expressed as Silent
func newVolume(s beep.Streamer, vol float64) beep.Streamer {
	if vol <= 0 {
		return &effects.Volume{Streamer: s, Base: 2, Volume: 0, Silent: true}
	}
	return &effects.Volume{Streamer: s, Base: 2, Volume: math.Log2(vol), Silent: false}
}

// pitchRatio converts cents to a playback speed ratio
func pitchRatio(cents float64) float64 {
	return math.Pow(2, cents/1200)
}
