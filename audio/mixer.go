package audio

import (
	"encoding/binary"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/lixenwraith/critter/constant"
)

// floatBuffer is mono float64 samples at unity gain
type floatBuffer []float64

// voice is one playing instance over a shared buffer
type voice struct {
	buffer floatBuffer
	pos    float64 // fractional read head, advanced by step
	step   float64 // pitch ratio
	wait   int     // silent samples before start
	volume float64
}

type playRequest struct {
	pcm    floatBuffer
	volume float64
	step   float64
	wait   int
}

// Mixer sums active voices into fixed-size s16le stereo chunks
type Mixer struct {
	output io.Writer

	playQueue chan playRequest
	stopChan  chan struct{}
	doneChan  chan struct{}
	stopped   atomic.Bool

	// Accessed only by the mix goroutine (or a test driving tick directly)
	active  []voice
	mixBuf  []float64
	outByte []byte

	played  atomic.Uint64
	dropped atomic.Uint64

	errChan chan error
}

// NewMixer creates a mixer writing to out
func NewMixer(out io.Writer) *Mixer {
	return &Mixer{
		output:    out,
		playQueue: make(chan playRequest, constant.AudioPlayQueueSize),
		stopChan:  make(chan struct{}),
		doneChan:  make(chan struct{}),
		active:    make([]voice, 0, 8),
		mixBuf:    make([]float64, constant.AudioBufferSamples),
		outByte:   make([]byte, constant.AudioBufferSamples*constant.AudioBytesPerFrame),
		errChan:   make(chan error, 1),
	}
}

// Start begins the mixing loop
func (m *Mixer) Start() {
	go m.loop()
}

// Stop signals the mixer to halt
func (m *Mixer) Stop() {
	if m.stopped.CompareAndSwap(false, true) {
		close(m.stopChan)
	}
}

// Done closes when the loop has exited
func (m *Mixer) Done() <-chan struct{} { return m.doneChan }

// Enqueue queues a voice; false when the queue is full
func (m *Mixer) Enqueue(req playRequest) bool {
	if m.stopped.Load() {
		return false
	}
	select {
	case m.playQueue <- req:
		return true
	default:
		m.dropped.Add(1)
		return false
	}
}

// Errors returns channel for pipe errors
func (m *Mixer) Errors() <-chan error {
	return m.errChan
}

func (m *Mixer) loop() {
	defer close(m.doneChan)
	ticker := time.NewTicker(constant.AudioBufferDuration)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopChan:
			return
		case <-ticker.C:
			if err := m.tick(); err != nil {
				select {
				case m.errChan <- err:
				default:
				}
				return
			}
		}
	}
}

// tick admits queued voices, mixes one chunk and writes it
// An idle mixer writes silence to keep the pipe alive
func (m *Mixer) tick() error {
	m.drainQueue()

	if len(m.active) == 0 {
		clear(m.outByte)
	} else {
		clear(m.mixBuf)
		m.active = mixActive(m.active, m.mixBuf)
		floatToBytes(m.mixBuf, m.outByte)
	}

	if _, err := m.output.Write(m.outByte); err != nil {
		return fmt.Errorf("%w: %v", ErrPipeClosed, err)
	}
	return nil
}

func (m *Mixer) drainQueue() {
	for {
		select {
		case req := <-m.playQueue:
			if len(req.pcm) == 0 {
				continue
			}
			step := req.step
			if step <= 0 {
				step = 1
			}
			m.active = append(m.active, voice{
				buffer: req.pcm,
				step:   step,
				wait:   req.wait,
				volume: req.volume,
			})
			m.played.Add(1)
		default:
			return
		}
	}
}

// mixActive adds every voice into buf and returns voices still sounding
func mixActive(active []voice, buf []float64) []voice {
	remaining := active[:0]

	for i := range active {
		v := active[i]
		for j := 0; j < len(buf); j++ {
			if v.wait > 0 {
				v.wait--
				continue
			}
			idx := int(v.pos)
			if idx >= len(v.buffer) {
				break
			}
			buf[j] += v.buffer[idx] * v.volume
			v.pos += v.step
		}
		if v.wait > 0 || int(v.pos) < len(v.buffer) {
			remaining = append(remaining, v)
		}
	}

	return remaining
}

// floatToBytes converts float64 mono to interleaved stereo int16 LE bytes
// Applies soft limiting before hard clip
func floatToBytes(in []float64, out []byte) {
	for i, v := range in {
		if v > 0.8 {
			v = 0.8 + 0.2*(1.0-1.0/(1.0+(v-0.8)*5.0))
		} else if v < -0.8 {
			v = -0.8 - 0.2*(1.0-1.0/(1.0+(-v-0.8)*5.0))
		}

		if v > 1.0 {
			v = 1.0
		} else if v < -1.0 {
			v = -1.0
		}

		i16 := int16(v * 32767)
		idx := i * constant.AudioBytesPerFrame
		binary.LittleEndian.PutUint16(out[idx:], uint16(i16))   // L
		binary.LittleEndian.PutUint16(out[idx+2:], uint16(i16)) // R
	}
}

// Stats returns played and dropped counts
func (m *Mixer) Stats() (played, dropped uint64) {
	return m.played.Load(), m.dropped.Load()
}
