package render

import (
	"fmt"
	"io"
	"sync"

	"github.com/lixenwraith/critter/core"
	"github.com/lixenwraith/critter/sprite"
)

// Headless is a Display without a terminal
// It keeps the latest values and, when w is set, logs one line per change
type Headless struct {
	mu     sync.Mutex
	w      io.Writer
	frame  *sprite.Frame
	frames int
	state  core.State
	audio  AudioStatus
	toasts []string
	beeps  int
}

func NewHeadless(w io.Writer) *Headless {
	return &Headless{w: w, state: core.StateNone}
}

func (h *Headless) printf(format string, args ...any) {
	if h.w != nil {
		fmt.Fprintf(h.w, format+"\n", args...)
	}
}

func (h *Headless) ShowFrame(f *sprite.Frame) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.frame = f
	h.frames++
	if f != nil {
		h.printf("frame %s", f.Name)
	}
}

func (h *Headless) SetState(s core.State) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.state = s
	h.printf("state %s", s)
}

func (h *Headless) SetAudio(a AudioStatus) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.audio = a
	h.printf("audio %s", a)
}

func (h *Headless) Toast(msg string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.toasts = append(h.toasts, msg)
	h.printf("toast %s", msg)
}

func (h *Headless) Beep() error {
	h.mu.Lock()
	h.beeps++
	h.mu.Unlock()
	return nil
}

// Frame returns the last shown frame and the total shown so far
func (h *Headless) Frame() (*sprite.Frame, int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.frame, h.frames
}

func (h *Headless) State() core.State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

func (h *Headless) Audio() AudioStatus {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.audio
}

func (h *Headless) Toasts() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.toasts...)
}

func (h *Headless) Beeps() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.beeps
}
