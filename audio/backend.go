package audio

import (
	"bytes"
	"fmt"
	"io"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/mp3"
	"github.com/gopxl/beep/wav"
)

// Backend decodes and plays sounds through one output strategy
type Backend interface {
	Kind() BackendKind
	Supports(f Format) bool

	// Decode reads an encoded asset into a playable Sound
	Decode(key string, r io.Reader, f Format) (*Sound, error)

	// Ingest captures an already decoded stream, used for synthesized tones
	Ingest(key string, s beep.Streamer, f beep.Format) (*Sound, error)

	// Play starts an independent playback instance of s
	Play(s *Sound, opts PlayOptions) error

	Close() error
}

// BackendFactory constructs a backend from engine config
type BackendFactory func(cfg *Config) (Backend, error)

// decodedSupports lists formats both backends decode through beep
func decodedSupports(f Format) bool {
	return f == FormatMP3 || f == FormatWAV
}

// decodeStream decodes r fully into memory and returns a streamer over it
// The caller must close the returned streamer
func decodeStream(r io.Reader, f Format) (beep.StreamSeekCloser, beep.Format, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, beep.Format{}, fmt.Errorf("read: %w", err)
	}

	var (
		s      beep.StreamSeekCloser
		format beep.Format
	)
	switch f {
	case FormatMP3:
		s, format, err = mp3.Decode(io.NopCloser(bytes.NewReader(data)))
	case FormatWAV:
		s, format, err = wav.Decode(bytes.NewReader(data))
	default:
		return nil, beep.Format{}, unsupported(f)
	}
	if err != nil {
		return nil, beep.Format{}, fmt.Errorf("decode %s: %w", f, err)
	}
	return s, format, nil
}

// resampleTo converts s from its native rate to target, passing through when equal
func resampleTo(s beep.Streamer, from, target beep.SampleRate) beep.Streamer {
	if from == target {
		return s
	}
	return beep.Resample(4, from, target, s)
}
