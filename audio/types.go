package audio

import (
	"errors"
	"fmt"
	"time"

	"github.com/gopxl/beep"
)

// Format is an audio container/codec identified by file extension
type Format string

const (
	FormatMP3 Format = "mp3"
	FormatWAV Format = "wav"
)

// BackendKind identifies the playback strategy holding a sound
type BackendKind int

const (
	BackendNone   BackendKind = iota
	BackendBuffer             // beep speaker, decoded buffers
	BackendPipe               // raw PCM mixed into a system player pipe
)

func (k BackendKind) String() string {
	switch k {
	case BackendBuffer:
		return "buffer"
	case BackendPipe:
		return "pipe"
	}
	return "none"
}

// Sound is a decoded, immutable asset owned by one backend
type Sound struct {
	Key    string
	Kind   BackendKind
	Format Format

	buffer *beep.Buffer // BackendBuffer
	pcm    floatBuffer  // BackendPipe, mono at AudioSampleRate
}

// Duration returns the playback length at unity pitch
func (s *Sound) Duration() time.Duration {
	switch {
	case s.buffer != nil:
		return s.buffer.Format().SampleRate.D(s.buffer.Len())
	case s.pcm != nil:
		return pipeRate.D(len(s.pcm))
	}
	return 0
}

// PlayOptions tunes a single playback
type PlayOptions struct {
	Volume     float64       // [0,1], multiplied by master volume
	PitchCents float64       // 1200 cents per octave
	Delay      time.Duration // silence before the sound starts
}

// PlayOption mutates PlayOptions
type PlayOption func(*PlayOptions)

func WithVolume(v float64) PlayOption {
	return func(o *PlayOptions) { o.Volume = v }
}

func WithPitch(cents float64) PlayOption {
	return func(o *PlayOptions) { o.PitchCents = cents }
}

func WithDelay(d time.Duration) PlayOption {
	return func(o *PlayOptions) { o.Delay = d }
}

func buildOptions(opts []PlayOption) PlayOptions {
	o := PlayOptions{Volume: 1}
	for _, fn := range opts {
		fn(&o)
	}
	o.Volume = clamp01(o.Volume)
	if o.Delay < 0 {
		o.Delay = 0
	}
	return o
}

// LoadResult reports the outcome for one key of a batch load
type LoadResult struct {
	Key    string
	Path   string
	Format Format
	Err    error
}

func (r LoadResult) OK() bool { return r.Err == nil }

// PlayerType identifies the system tool behind the pipe backend
type PlayerType int

const (
	PlayerPulse PlayerType = iota
	PlayerPipeWire
	PlayerALSA
	PlayerSoX
	PlayerFFplay
	PlayerOSS
)

// PlayerConfig describes a CLI audio player reading raw PCM from stdin
type PlayerConfig struct {
	Type PlayerType
	Name string
	Path string
	Args []string
}

// Sentinel errors
var (
	ErrUnknownSound      = errors.New("unknown sound")
	ErrNoMatch           = errors.New("no sound matches prefix")
	ErrClosed            = errors.New("audio engine closed")
	ErrNoAudioBackend    = errors.New("no compatible audio backend found")
	ErrPipeClosed        = errors.New("audio pipe closed")
	ErrUnsupportedFormat = errors.New("unsupported audio format")
)

func unsupported(f Format) error {
	return fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
