package event

import (
	"fmt"
	"time"

	"github.com/lixenwraith/critter/core"
)

// Event is a tagged variant, the concrete type is fixed by Kind
type Event interface {
	Kind() Kind
}

// StateChanged is emitted for every accepted transition
type StateChanged struct {
	From         core.State // core.StateNone on the bootstrap entry
	To           core.State
	PrevDuration time.Duration // time spent in From
	Aux          any
	At           time.Time
}

// Kind implements Event
func (StateChanged) Kind() Kind { return KindStateChanged }

func (e StateChanged) String() string {
	return fmt.Sprintf("%s -> %s after %v", e.From, e.To, e.PrevDuration)
}

// Entered is emitted after StateChanged for the target state
type Entered struct {
	State core.State
	Aux   any
	At    time.Time
}

// Kind implements Event
func (Entered) Kind() Kind { return KindEntered }

// Exited is emitted after Entered for the source state
type Exited struct {
	State    core.State
	Duration time.Duration
	At       time.Time
}

// Kind implements Event
func (Exited) Kind() Kind { return KindExited }

// Reset is emitted when the machine is forced back to resting
type Reset struct {
	From core.State
	At   time.Time
}

// Kind implements Event
func (Reset) Kind() Kind { return KindReset }
