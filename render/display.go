// Package render draws the critter, its status line and transient toasts
package render

import (
	"fmt"

	"github.com/lixenwraith/critter/core"
	"github.com/lixenwraith/critter/event"
	"github.com/lixenwraith/critter/sprite"
)

// Display is the output surface driven by the stage
type Display interface {
	ShowFrame(f *sprite.Frame)
	SetState(s core.State)
	SetAudio(a AudioStatus)
	Toast(msg string)

	// Beep nudges the user; satisfies core.Buzzer
	Beep() error
}

// AudioStatus is the audio part of the status line
type AudioStatus struct {
	Muted   bool
	Volume  float64
	Backend string
}

func (a AudioStatus) String() string {
	if a.Muted {
		return fmt.Sprintf("muted [%s]", a.Backend)
	}
	return fmt.Sprintf("vol %3.0f%% [%s]", a.Volume*100, a.Backend)
}

// FollowState keeps the display's state text current
// It listens to StateChanged, which fires before Entered, so the status is
// already updated when frame and sound handlers run. Reset carries no
// StateChanged, so it is mapped to resting here
func FollowState(hub *event.Hub, d Display) (unsubscribe func()) {
	return hub.Subscribe(event.Func(func(ev event.Event) {
		switch e := ev.(type) {
		case event.StateChanged:
			d.SetState(e.To)
		case event.Reset:
			d.SetState(core.StateResting)
		}
	}, event.KindStateChanged, event.KindReset))
}
