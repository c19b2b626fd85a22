package event

// Kind is the closed set of events the state machine emits
type Kind int

const (
	// KindStateChanged signals any accepted transition
	// Trigger: Machine.SetState, Machine.EnterInitialState
	// Consumer: status text, stats | Payload: StateChanged
	// Delivered before the state-specific Entered and Exited events
	KindStateChanged Kind = iota

	// KindEntered signals entry into a specific state
	// Trigger: accepted transition, after StateChanged
	// Consumer: stage timers and frames | Payload: Entered
	KindEntered

	// KindExited signals leaving a specific state
	// Trigger: accepted transition with a previous state, after Entered
	// Consumer: diagnostics | Payload: Exited
	KindExited

	// KindReset signals the machine was forced back to resting with history cleared
	// Trigger: Machine.Reset
	// Consumer: stage, status | Payload: Reset
	// Not followed by Entered
	KindReset

	kindCount
)

var kindNames = [kindCount]string{
	KindStateChanged: "state_changed",
	KindEntered:      "entered",
	KindExited:       "exited",
	KindReset:        "reset",
}

func (k Kind) String() string {
	if k < 0 || k >= kindCount {
		return "unknown"
	}
	return kindNames[k]
}

// Kinds lists every event kind
func Kinds() []Kind {
	return []Kind{KindStateChanged, KindEntered, KindExited, KindReset}
}
