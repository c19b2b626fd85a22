// Package timing provides the clock abstraction, owned timer handles and
// input rate limiting used by the interaction loop
package timing

import "time"

// Timer is a cancellable pending callback
type Timer interface {
	// Stop prevents the callback from firing, false if it already fired or was stopped
	Stop() bool
}

// Clock provides monotonic time and deferred callbacks
// Real time in production, FakeClock in tests
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// RealClock provides the system time with monotonic clock readings
type RealClock struct{}

// NewRealClock creates a system clock
func NewRealClock() RealClock {
	return RealClock{}
}

// Now returns the current time with monotonic clock reading
func (RealClock) Now() time.Time {
	return time.Now()
}

// AfterFunc schedules f on its own goroutine after d
func (RealClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Since returns elapsed time on the given clock
func Since(c Clock, t time.Time) time.Duration {
	return c.Now().Sub(t)
}
