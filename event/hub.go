package event

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/lixenwraith/critter/core"
)

// Handler receives routed events
type Handler interface {
	// HandleEvent processes a single event
	// Called synchronously on the emitting goroutine
	HandleEvent(ev Event)

	// EventKinds returns the kinds this handler receives, empty means all
	EventKinds() []Kind
}

type handlerFunc struct {
	kinds []Kind
	fn    func(Event)
}

func (h handlerFunc) HandleEvent(ev Event) { h.fn(ev) }
func (h handlerFunc) EventKinds() []Kind  { return h.kinds }

// Func adapts a closure to Handler
func Func(fn func(Event), kinds ...Kind) Handler {
	return handlerFunc{kinds: kinds, fn: fn}
}

// OnEnter subscribes fn to entries into one state
func OnEnter(s core.State, fn func(Entered)) Handler {
	return Func(func(ev Event) {
		if e, ok := ev.(Entered); ok && e.State == s {
			fn(e)
		}
	}, KindEntered)
}

// OnExit subscribes fn to exits from one state
func OnExit(s core.State, fn func(Exited)) Handler {
	return Func(func(ev Event) {
		if e, ok := ev.(Exited); ok && e.State == s {
			fn(e)
		}
	}, KindExited)
}

type subscription struct {
	id      uint64
	handler Handler
	mask    [kindCount]bool
}

// Hub dispatches events to subscribers
//
// Architecture:
//   - Synchronous dispatch on the emitting goroutine
//   - Handlers are invoked in subscription order
//   - Emit returns only after every subscriber has seen the event, so a
//     sequence of Emit calls is observed in that order by everyone
//   - Subscription changes made during dispatch apply from the next Emit
type Hub struct {
	mu     sync.RWMutex
	subs   []subscription
	nextID uint64
	logger *slog.Logger
}

// NewHub creates an empty hub, nil logger discards handler panics silently
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Hub{logger: logger}
}

// Subscribe registers a handler and returns its unsubscribe function
func (h *Hub) Subscribe(handler Handler) func() {
	sub := subscription{handler: handler}
	kinds := handler.EventKinds()
	if len(kinds) == 0 {
		kinds = Kinds()
	}
	for _, k := range kinds {
		if k >= 0 && k < kindCount {
			sub.mask[k] = true
		}
	}

	h.mu.Lock()
	h.nextID++
	sub.id = h.nextID
	h.subs = append(h.subs, sub)
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { h.remove(sub.id) })
	}
}

func (h *Hub) remove(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	next := make([]subscription, 0, len(h.subs))
	for _, s := range h.subs {
		if s.id != id {
			next = append(next, s)
		}
	}
	h.subs = next
}

// Emit delivers ev to every matching subscriber
func (h *Hub) Emit(ev Event) {
	k := ev.Kind()
	if k < 0 || k >= kindCount {
		h.logger.Warn("dropping event of unknown kind", "kind", int(k))
		return
	}

	// Snapshot: subs is replaced, never mutated in place
	h.mu.RLock()
	subs := h.subs
	h.mu.RUnlock()

	for _, s := range subs {
		if !s.mask[k] {
			continue
		}
		h.deliver(s.handler, ev)
	}
}

// EmitAll delivers events strictly in argument order
func (h *Hub) EmitAll(evs ...Event) {
	for _, ev := range evs {
		h.Emit(ev)
	}
}

func (h *Hub) deliver(handler Handler, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("event handler panicked",
				"kind", ev.Kind().String(),
				"handler", fmt.Sprintf("%T", handler),
				"panic", r,
			)
		}
	}()
	handler.HandleEvent(ev)
}

// HandlerCount returns the number of subscribers receiving kind k
func (h *Hub) HandlerCount(k Kind) int {
	if k < 0 || k >= kindCount {
		return 0
	}
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := 0
	for _, s := range h.subs {
		if s.mask[k] {
			n++
		}
	}
	return n
}
