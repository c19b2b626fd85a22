package core

import "strings"

// State is the interaction state of the critter
type State int

const (
	// StateNone marks the absence of a previous state on the first entry
	StateNone State = iota - 1
	// StateResting cycles idle frames and waits for a tap
	StateResting
	// StateReacting shows reaction frames until its timer expires
	StateReacting
	stateCount
)

var stateNames = [stateCount]string{
	StateResting:  "resting",
	StateReacting: "reacting",
}

// Valid reports whether s is a member of the enumeration
func (s State) Valid() bool {
	return s >= StateResting && s < stateCount
}

func (s State) String() string {
	if s == StateNone {
		return "none"
	}
	if !s.Valid() {
		return "invalid"
	}
	return stateNames[s]
}

// ParseState resolves a state name, case-insensitive
func ParseState(name string) (State, bool) {
	for i, n := range stateNames {
		if strings.EqualFold(n, name) {
			return State(i), true
		}
	}
	return StateNone, false
}

// States lists all valid states in declaration order
func States() []State {
	return []State{StateResting, StateReacting}
}
