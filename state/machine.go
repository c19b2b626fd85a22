// Package state implements the two-state interaction machine
//
// The machine owns the current interaction state, enforces the legal
// transition table, timestamps transitions and emits lifecycle events through
// the event hub. It is not safe for concurrent use; the stage serializes all
// calls into it.
package state

import (
	"log/slog"
	"time"

	"github.com/lixenwraith/critter/constant"
	"github.com/lixenwraith/critter/core"
	"github.com/lixenwraith/critter/event"
	"github.com/lixenwraith/critter/timing"
)

// Transition records one accepted state change
type Transition struct {
	From         core.State // core.StateNone for the bootstrap entry
	To           core.State
	At           time.Time
	PrevDuration time.Duration
	Aux          any
}

// legal lists permitted targets per source state
var legal = map[core.State][]core.State{
	core.StateResting:  {core.StateReacting},
	core.StateReacting: {core.StateResting},
}

// CanTransition reports whether from -> to is in the transition table
func CanTransition(from, to core.State) bool {
	for _, t := range legal[from] {
		if t == to {
			return true
		}
	}
	return false
}

// Option adjusts a single SetState call
type Option func(*setOptions)

type setOptions struct {
	force bool
	aux   any
}

// WithForce applies the transition even when the table forbids it,
// including a self-transition with full event emission
func WithForce() Option {
	return func(o *setOptions) { o.force = true }
}

// WithAux attaches data carried on the emitted events and the history record
func WithAux(v any) Option {
	return func(o *setOptions) { o.aux = v }
}

// Machine is the interaction state machine
type Machine struct {
	clock  timing.Clock
	hub    *event.Hub
	logger *slog.Logger

	current      core.State
	startedAt    time.Time
	bootstrapped bool

	history ring
}

// New creates a machine in the resting state
// No event fires until EnterInitialState is called
func New(clock timing.Clock, hub *event.Hub, logger *slog.Logger) *Machine {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Machine{
		clock:     clock,
		hub:       hub,
		logger:    logger.With("component", "state"),
		current:   core.StateResting,
		startedAt: clock.Now(),
	}
}

// Current returns the active state
func (m *Machine) Current() core.State {
	return m.current
}

// TimeInState returns elapsed time since the last accepted transition
func (m *Machine) TimeInState() time.Duration {
	return timing.Since(m.clock, m.startedAt)
}

// SetState attempts a transition to next
// Returns false without emitting when next is invalid or the transition is
// illegal and not forced
func (m *Machine) SetState(next core.State, opts ...Option) bool {
	var o setOptions
	for _, opt := range opts {
		opt(&o)
	}

	if !next.Valid() {
		m.logger.Warn("rejected transition to invalid state", "state", int(next))
		return false
	}

	if !o.force && !CanTransition(m.current, next) {
		m.logger.Debug("rejected illegal transition", "from", m.current.String(), "to", next.String())
		return false
	}

	m.apply(m.current, next, o.aux)
	return true
}

// EnterInitialState fires the bootstrap entry into resting
// The machine starts in resting, so this is the one entry with no previous
// state: StateChanged and Entered fire, Exited does not. Only the first call
// has effect
func (m *Machine) EnterInitialState() bool {
	if m.bootstrapped {
		return false
	}
	m.bootstrapped = true
	m.apply(core.StateNone, core.StateResting, nil)
	return true
}

// apply records and announces an accepted transition
// Event order is a contract: StateChanged, then Entered, then Exited
func (m *Machine) apply(from, to core.State, aux any) {
	now := m.clock.Now()
	var prev time.Duration
	if from != core.StateNone {
		prev = now.Sub(m.startedAt)
	}

	m.history.push(Transition{
		From:         from,
		To:           to,
		At:           now,
		PrevDuration: prev,
		Aux:          aux,
	})

	m.current = to
	m.startedAt = now
	m.bootstrapped = true

	m.logger.Debug("state changed", "from", from.String(), "to", to.String(), "prev_duration", prev)

	if m.hub == nil {
		return
	}
	m.hub.Emit(event.StateChanged{From: from, To: to, PrevDuration: prev, Aux: aux, At: now})
	m.hub.Emit(event.Entered{State: to, Aux: aux, At: now})
	if from != core.StateNone {
		m.hub.Emit(event.Exited{State: from, Duration: prev, At: now})
	}
}

// Reset forces resting, clears history and emits Reset only
func (m *Machine) Reset() {
	from := m.current
	now := m.clock.Now()

	m.current = core.StateResting
	m.startedAt = now
	m.history.clear()

	m.logger.Debug("state reset", "from", from.String())

	if m.hub != nil {
		m.hub.Emit(event.Reset{From: from, At: now})
	}
}

// History returns retained transitions, oldest first
func (m *Machine) History() []Transition {
	return m.history.slice()
}

// Pair identifies a from -> to transition
type Pair struct {
	From, To core.State
}

func (p Pair) String() string {
	return p.From.String() + "->" + p.To.String()
}

// Stats aggregates the retained history
// Only the last constant.HistorySize transitions are covered; long-run
// statistics must be collected from events
type Stats struct {
	Transitions map[Pair]int
	TimeIn      map[core.State]time.Duration
	Total       int
}

// Stats computes aggregate counts and time per state from the history ring
func (m *Machine) Stats() Stats {
	st := Stats{
		Transitions: make(map[Pair]int),
		TimeIn:      make(map[core.State]time.Duration),
	}
	for _, tr := range m.history.slice() {
		st.Transitions[Pair{tr.From, tr.To}]++
		if tr.From != core.StateNone {
			st.TimeIn[tr.From] += tr.PrevDuration
		}
		st.Total++
	}
	return st
}

// ring is a fixed-capacity FIFO of transitions
type ring struct {
	buf   [constant.HistorySize]Transition
	head  int // index of oldest entry
	count int
}

func (r *ring) push(t Transition) {
	if r.count < len(r.buf) {
		r.buf[(r.head+r.count)%len(r.buf)] = t
		r.count++
		return
	}
	// Full: overwrite oldest
	r.buf[r.head] = t
	r.head = (r.head + 1) % len(r.buf)
}

func (r *ring) slice() []Transition {
	out := make([]Transition, r.count)
	for i := 0; i < r.count; i++ {
		out[i] = r.buf[(r.head+i)%len(r.buf)]
	}
	return out
}

func (r *ring) clear() {
	r.buf = [constant.HistorySize]Transition{}
	r.head = 0
	r.count = 0
}
