package audio

import (
	"slices"

	"github.com/lixenwraith/critter/constant"
)

// Config holds engine settings
type Config struct {
	SampleRate      int
	MasterVolume    float64
	Formats         []Format // preference order
	LoadConcurrency int
}

// DefaultConfig returns the engine defaults
func DefaultConfig() *Config {
	formats := make([]Format, 0, len(constant.DefaultFormats))
	for _, f := range constant.DefaultFormats {
		formats = append(formats, Format(f))
	}
	return &Config{
		SampleRate:      constant.AudioSampleRate,
		MasterVolume:    1.0,
		Formats:         formats,
		LoadConcurrency: constant.AudioLoadConcurrency,
	}
}

// ParseFormats converts manifest strings, dropping unknown entries
func ParseFormats(names []string) []Format {
	var out []Format
	for _, n := range names {
		f := Format(n)
		if (f == FormatMP3 || f == FormatWAV) && !slices.Contains(out, f) {
			out = append(out, f)
		}
	}
	return out
}

// pickFormat returns the first preferred format the backend can decode
func pickFormat(prefs []Format, b Backend) (Format, bool) {
	for _, f := range prefs {
		if b.Supports(f) {
			return f, true
		}
	}
	return "", false
}
