package timing

import (
	"sync"
	"time"
)

// LeadingDebounce runs fn on the first call of a burst and suppresses calls
// until wait has passed without any call. Returns whether fn ran
func LeadingDebounce(c Clock, wait time.Duration, fn func()) func() bool {
	var (
		mu      sync.Mutex
		last    time.Time
		started bool
	)
	return func() bool {
		mu.Lock()
		now := c.Now()
		quiet := !started || now.Sub(last) >= wait
		started = true
		last = now
		mu.Unlock()

		if quiet {
			fn()
		}
		return quiet
	}
}

// Debouncer runs fn once, wait after the last call of a burst
type Debouncer struct {
	slot *Slot
	wait time.Duration
	fn   func()
}

// Debounce creates a trailing-edge debouncer
func Debounce(c Clock, wait time.Duration, fn func()) *Debouncer {
	return &Debouncer{slot: NewSlot(c), wait: wait, fn: fn}
}

// Call restarts the quiet window
func (d *Debouncer) Call() {
	d.slot.Schedule(d.wait, d.fn)
}

// Cancel drops a pending invocation
func (d *Debouncer) Cancel() {
	d.slot.Cancel()
}

// Throttle runs fn at most once per interval, dropping calls in between
// Returns whether fn ran
func Throttle(c Clock, interval time.Duration, fn func()) func() bool {
	var (
		mu      sync.Mutex
		last    time.Time
		started bool
	)
	return func() bool {
		mu.Lock()
		now := c.Now()
		allowed := !started || now.Sub(last) >= interval
		if allowed {
			started = true
			last = now
		}
		mu.Unlock()

		if allowed {
			fn()
		}
		return allowed
	}
}
