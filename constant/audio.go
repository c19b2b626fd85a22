package constant

import "time"

// Audio Hardware Settings
const (
	AudioSampleRate    = 44100
	AudioChannels      = 2
	AudioBitDepth      = 16
	AudioBytesPerFrame = AudioChannels * (AudioBitDepth / 8) // 4 bytes
)

// Audio Engine Timing
const (
	// AudioBufferDuration determines latency and pipe mixer tick rate
	AudioBufferDuration = 50 * time.Millisecond

	// AudioBufferSamples is frames per mixer tick at 44.1kHz
	AudioBufferSamples = (AudioSampleRate * 50) / 1000 // 2205

	// SpeakerBufferDuration is the beep speaker buffer, lower means lower latency
	SpeakerBufferDuration = 100 * time.Millisecond

	// AudioPlayQueueSize bounds pending pipe voices before drops
	AudioPlayQueueSize = 32

	// AudioLoadConcurrency bounds parallel asset decodes per batch
	AudioLoadConcurrency = 8
)

// Sound categories, matched by key prefix
const (
	SoundPrefixSoft  = "soft"
	SoundPrefixReact = "react"
)

// DefaultFormats is the ordered codec preference, compressed first
var DefaultFormats = []string{"mp3", "wav"}
