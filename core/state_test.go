package core

import "testing"

func TestStateValid(t *testing.T) {
	cases := []struct {
		s     State
		valid bool
		name  string
	}{
		{StateResting, true, "resting"},
		{StateReacting, true, "reacting"},
		{StateNone, false, "none"},
		{State(7), false, "invalid"},
	}
	for _, tc := range cases {
		if tc.s.Valid() != tc.valid {
			t.Errorf("%d.Valid() = %v", tc.s, tc.s.Valid())
		}
		if tc.s.String() != tc.name {
			t.Errorf("%d.String() = %q, want %q", tc.s, tc.s.String(), tc.name)
		}
	}
}

func TestParseState(t *testing.T) {
	if s, ok := ParseState("REACTING"); !ok || s != StateReacting {
		t.Errorf("ParseState(REACTING) = %v, %v", s, ok)
	}
	if _, ok := ParseState("sleeping"); ok {
		t.Error("ParseState accepted unknown name")
	}
}
