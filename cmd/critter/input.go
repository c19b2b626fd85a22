package main

import (
	"strings"

	"github.com/gdamore/tcell/v2"
)

// command is a user intent decoded from a key, click or stdin line
type command int

const (
	cmdNone command = iota
	cmdTap
	cmdMute
	cmdVolumeUp
	cmdVolumeDown
	cmdReset
	cmdRedraw
	cmdQuit
)

const volumeStep = 0.1

// controls is the part of the stage input drives
type controls interface {
	Tap()
	ToggleMute() bool
	AdjustVolume(delta float64) float64
	Reset()
}

// keyCommand maps a key press; every printable key that is not bound taps
func keyCommand(key tcell.Key, r rune, mod tcell.ModMask) command {
	switch key {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return cmdQuit
	case tcell.KeyCtrlL:
		return cmdRedraw
	case tcell.KeyEnter:
		return cmdTap
	case tcell.KeyUp:
		return cmdVolumeUp
	case tcell.KeyDown:
		return cmdVolumeDown
	case tcell.KeyRune:
	default:
		return cmdNone
	}

	if mod&(tcell.ModCtrl|tcell.ModAlt) != 0 {
		return cmdNone
	}
	switch r {
	case 'q', 'Q':
		return cmdQuit
	case 'm', 'M':
		return cmdMute
	case '+', '=':
		return cmdVolumeUp
	case '-', '_':
		return cmdVolumeDown
	case 'r', 'R':
		return cmdReset
	default:
		return cmdTap
	}
}

// eventCommand decodes a tcell event
func eventCommand(ev tcell.Event) command {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		return keyCommand(ev.Key(), ev.Rune(), ev.Modifiers())
	case *tcell.EventMouse:
		if ev.Buttons()&tcell.Button1 != 0 {
			return cmdTap
		}
	case *tcell.EventResize:
		return cmdRedraw
	}
	return cmdNone
}

// lineCommand decodes one stdin line in headless mode
// An empty line taps
func lineCommand(line string) command {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "", "tap", "t":
		return cmdTap
	case "mute", "m":
		return cmdMute
	case "+", "up":
		return cmdVolumeUp
	case "-", "down":
		return cmdVolumeDown
	case "reset", "r":
		return cmdReset
	case "quit", "q", "exit":
		return cmdQuit
	default:
		return cmdNone
	}
}

// apply performs cmd, returns false to quit
func apply(cmd command, c controls) bool {
	switch cmd {
	case cmdQuit:
		return false
	case cmdTap:
		c.Tap()
	case cmdMute:
		c.ToggleMute()
	case cmdVolumeUp:
		c.AdjustVolume(volumeStep)
	case cmdVolumeDown:
		c.AdjustVolume(-volumeStep)
	case cmdReset:
		c.Reset()
	}
	return true
}
