package timing

import (
	"sync"
	"time"
)

// Slot owns the single pending timer for one purpose
// Scheduling replaces the previous timer so two callbacks for the same
// purpose can never be armed at once. A callback whose arming was superseded
// or cancelled is dropped even if the underlying timer already fired
type Slot struct {
	clock Clock

	mu    sync.Mutex
	timer Timer
	gen   uint64
	delay time.Duration
}

// NewSlot creates an empty slot on the given clock
func NewSlot(c Clock) *Slot {
	return &Slot{clock: c}
}

// Schedule cancels any pending timer and arms fn after d
func (s *Slot) Schedule(d time.Duration, fn func()) {
	s.ScheduleGen(d, func(uint64) { fn() })
}

// ScheduleGen is Schedule for callbacks that take their own lock before
// acting; they must recheck Live(gen) once holding it, since a Cancel or
// Schedule can land between the slot check and that lock
func (s *Slot) ScheduleGen(d time.Duration, fn func(gen uint64)) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
	}
	s.gen++
	gen := s.gen
	s.delay = d
	s.timer = s.clock.AfterFunc(d, func() {
		s.mu.Lock()
		if s.gen != gen {
			s.mu.Unlock()
			return
		}
		s.timer = nil
		s.mu.Unlock()
		fn(gen)
	})
	return gen
}

// Live reports whether gen is still the latest arming
func (s *Slot) Live(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen == gen
}

// Gen returns the latest arming generation
func (s *Slot) Gen() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

// Cancel stops the pending timer, returns true if one was armed
func (s *Slot) Cancel() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.gen++
	if s.timer == nil {
		return false
	}
	s.timer.Stop()
	s.timer = nil
	return true
}

// Armed reports whether a timer is pending
func (s *Slot) Armed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timer != nil
}

// LastDelay returns the delay of the most recent Schedule call
func (s *Slot) LastDelay() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.delay
}
