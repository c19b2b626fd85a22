package main

import (
	"testing"

	"github.com/gdamore/tcell/v2"
)

type recorder struct {
	taps, mutes, resets int
	volume              float64
}

func (r *recorder) Tap()   { r.taps++ }
func (r *recorder) Reset() { r.resets++ }

func (r *recorder) ToggleMute() bool {
	r.mutes++
	return r.mutes%2 == 1
}

func (r *recorder) AdjustVolume(d float64) float64 {
	r.volume += d
	return r.volume
}

func TestKeyCommand(t *testing.T) {
	tests := []struct {
		name string
		key  tcell.Key
		r    rune
		mod  tcell.ModMask
		want command
	}{
		{"escape", tcell.KeyEscape, 0, tcell.ModNone, cmdQuit},
		{"ctrl-c", tcell.KeyCtrlC, 0, tcell.ModCtrl, cmdQuit},
		{"q", tcell.KeyRune, 'q', tcell.ModNone, cmdQuit},
		{"enter", tcell.KeyEnter, 0, tcell.ModNone, cmdTap},
		{"space", tcell.KeyRune, ' ', tcell.ModNone, cmdTap},
		{"letter", tcell.KeyRune, 'x', tcell.ModNone, cmdTap},
		{"mute", tcell.KeyRune, 'm', tcell.ModNone, cmdMute},
		{"plus", tcell.KeyRune, '+', tcell.ModNone, cmdVolumeUp},
		{"minus", tcell.KeyRune, '-', tcell.ModNone, cmdVolumeDown},
		{"arrow up", tcell.KeyUp, 0, tcell.ModNone, cmdVolumeUp},
		{"reset", tcell.KeyRune, 'r', tcell.ModNone, cmdReset},
		{"ctrl-l", tcell.KeyCtrlL, 0, tcell.ModCtrl, cmdRedraw},
		{"alt letter", tcell.KeyRune, 'x', tcell.ModAlt, cmdNone},
		{"function key", tcell.KeyF5, 0, tcell.ModNone, cmdNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := keyCommand(tt.key, tt.r, tt.mod); got != tt.want {
				t.Errorf("keyCommand = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEventCommandMouse(t *testing.T) {
	if got := eventCommand(tcell.NewEventMouse(3, 4, tcell.Button1, tcell.ModNone)); got != cmdTap {
		t.Errorf("left click = %v, want tap", got)
	}
	if got := eventCommand(tcell.NewEventMouse(3, 4, tcell.ButtonNone, tcell.ModNone)); got != cmdNone {
		t.Errorf("mouse move = %v, want none", got)
	}
	if got := eventCommand(tcell.NewEventResize(80, 24)); got != cmdRedraw {
		t.Errorf("resize = %v, want redraw", got)
	}
}

func TestLineCommand(t *testing.T) {
	cases := map[string]command{
		"":       cmdTap,
		"  tap ": cmdTap,
		"M":      cmdMute,
		"+":      cmdVolumeUp,
		"down":   cmdVolumeDown,
		"reset":  cmdReset,
		"quit":   cmdQuit,
		"dance":  cmdNone,
	}
	for in, want := range cases {
		if got := lineCommand(in); got != want {
			t.Errorf("lineCommand(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestApply(t *testing.T) {
	var r recorder
	for _, c := range []command{cmdTap, cmdTap, cmdMute, cmdVolumeUp, cmdVolumeDown, cmdVolumeDown, cmdReset, cmdNone, cmdRedraw} {
		if !apply(c, &r) {
			t.Fatalf("apply(%v) requested quit", c)
		}
	}
	if apply(cmdQuit, &r) {
		t.Error("quit did not stop")
	}
	if r.taps != 2 || r.mutes != 1 || r.resets != 1 {
		t.Errorf("recorder = %+v", r)
	}
	if r.volume > -0.09 || r.volume < -0.11 {
		t.Errorf("volume delta = %v, want -0.1", r.volume)
	}
}
