package render

import (
	"context"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/lixenwraith/critter/constant"
	"github.com/lixenwraith/critter/core"
	"github.com/lixenwraith/critter/sprite"
	"github.com/lixenwraith/critter/timing"
)

var (
	statusStyle = tcell.StyleDefault.Reverse(true)
	toastStyle  = tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorYellow)
)

// Renderer draws onto a tcell screen
// Setters mark the view dirty; Run redraws on the frame ticker
type Renderer struct {
	screen tcell.Screen
	clock  timing.Clock

	mu         sync.Mutex
	frame      *sprite.Frame
	state      core.State
	audio      AudioStatus
	toast      string
	toastUntil time.Time
	dirty      bool
}

func NewRenderer(screen tcell.Screen, clock timing.Clock) *Renderer {
	return &Renderer{screen: screen, clock: clock, state: core.StateNone, dirty: true}
}

func (r *Renderer) ShowFrame(f *sprite.Frame) {
	r.mu.Lock()
	r.frame = f
	r.dirty = true
	r.mu.Unlock()
}

func (r *Renderer) SetState(s core.State) {
	r.mu.Lock()
	r.state = s
	r.dirty = true
	r.mu.Unlock()
}

func (r *Renderer) SetAudio(a AudioStatus) {
	r.mu.Lock()
	r.audio = a
	r.dirty = true
	r.mu.Unlock()
}

// Toast shows msg above the critter for constant.ToastDuration
func (r *Renderer) Toast(msg string) {
	r.mu.Lock()
	r.toast = msg
	r.toastUntil = r.clock.Now().Add(constant.ToastDuration)
	r.dirty = true
	r.mu.Unlock()
}

func (r *Renderer) Beep() error {
	return r.screen.Beep()
}

// Invalidate forces a redraw on the next tick, used after resize
func (r *Renderer) Invalidate() {
	r.mu.Lock()
	r.dirty = true
	r.mu.Unlock()
}

// Run redraws until ctx is done
func (r *Renderer) Run(ctx context.Context) {
	ticker := time.NewTicker(constant.FrameUpdateInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Draw(false)
		}
	}
}

// Draw renders if dirty or forced; reports whether it drew
func (r *Renderer) Draw(force bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.toast != "" && !r.clock.Now().Before(r.toastUntil) {
		r.toast = ""
		r.dirty = true
	}
	if !r.dirty && !force {
		return false
	}
	r.dirty = false

	r.screen.Clear()
	w, h := r.screen.Size()
	if r.frame != nil {
		r.drawFrame(w, h-1)
	}
	if r.toast != "" {
		drawCentered(r.screen, 0, w, " "+r.toast+" ", toastStyle)
	}
	r.drawStatus(w, h)
	r.screen.Show()
	return true
}

// drawFrame centers the frame in the area above the status line, clipping
func (r *Renderer) drawFrame(w, h int) {
	f := r.frame
	ox := (w - f.Width) / 2
	oy := (h - f.Height) / 2
	for y := 0; y < f.Height; y++ {
		sy := oy + y
		if sy < 0 || sy >= h {
			continue
		}
		for x := 0; x < f.Width; x++ {
			sx := ox + x
			if sx < 0 || sx >= w {
				continue
			}
			c := f.Cells[y*f.Width+x]
			r.screen.SetContent(sx, sy, c.Rune, nil, c.Style)
		}
	}
}

func (r *Renderer) drawStatus(w, h int) {
	if h <= 0 {
		return
	}
	y := h - 1
	for x := 0; x < w; x++ {
		r.screen.SetContent(x, y, ' ', nil, statusStyle)
	}
	left := " " + r.state.String()
	drawText(r.screen, 0, y, w, left, statusStyle)

	right := r.audio.String() + " | m: mute  q: quit "
	if start := w - len([]rune(right)); start > len([]rune(left)) {
		drawText(r.screen, start, y, w, right, statusStyle)
	}
}

func drawText(s tcell.Screen, x, y, maxX int, text string, style tcell.Style) {
	for _, ch := range text {
		if x >= maxX {
			return
		}
		s.SetContent(x, y, ch, nil, style)
		x++
	}
}

func drawCentered(s tcell.Screen, y, w int, text string, style tcell.Style) {
	x := (w - len([]rune(text))) / 2
	drawText(s, max(0, x), y, w, text, style)
}
