package event

import (
	"testing"

	"github.com/lixenwraith/critter/core"
)

func TestHubDeliversInSubscriptionOrder(t *testing.T) {
	hub := NewHub(nil)
	var order []string

	hub.Subscribe(Func(func(Event) { order = append(order, "a") }, KindStateChanged))
	hub.Subscribe(Func(func(Event) { order = append(order, "b") }, KindStateChanged))
	hub.Subscribe(Func(func(Event) { order = append(order, "c") }))

	hub.Emit(StateChanged{From: core.StateResting, To: core.StateReacting})

	want := []string{"a", "b", "c"}
	if len(order) != len(want) {
		t.Fatalf("got %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("got %v, want %v", order, want)
		}
	}
}

func TestHubKindFiltering(t *testing.T) {
	hub := NewHub(nil)
	var changed, entered int

	hub.Subscribe(Func(func(Event) { changed++ }, KindStateChanged))
	hub.Subscribe(Func(func(Event) { entered++ }, KindEntered))

	hub.EmitAll(
		StateChanged{From: core.StateNone, To: core.StateResting},
		Entered{State: core.StateResting},
		Reset{From: core.StateReacting},
	)

	if changed != 1 || entered != 1 {
		t.Errorf("changed=%d entered=%d, want 1 and 1", changed, entered)
	}
	if n := hub.HandlerCount(KindReset); n != 0 {
		t.Errorf("HandlerCount(reset) = %d", n)
	}
}

func TestHubEmitAllOrdering(t *testing.T) {
	hub := NewHub(nil)
	var seen []Kind

	// Late subscriber for Entered must still see StateChanged first from everyone
	hub.Subscribe(Func(func(ev Event) { seen = append(seen, ev.Kind()) }, KindEntered))
	hub.Subscribe(Func(func(ev Event) { seen = append(seen, ev.Kind()) }, KindStateChanged, KindExited))

	hub.EmitAll(
		StateChanged{From: core.StateResting, To: core.StateReacting},
		Entered{State: core.StateReacting},
		Exited{State: core.StateResting},
	)

	want := []Kind{KindStateChanged, KindEntered, KindExited}
	if len(seen) != len(want) {
		t.Fatalf("got %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("got %v, want %v", seen, want)
		}
	}
}

func TestHubUnsubscribe(t *testing.T) {
	hub := NewHub(nil)
	calls := 0
	unsub := hub.Subscribe(Func(func(Event) { calls++ }))

	hub.Emit(Reset{})
	unsub()
	unsub() // idempotent
	hub.Emit(Reset{})

	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
	if n := hub.HandlerCount(KindReset); n != 0 {
		t.Errorf("HandlerCount after unsubscribe = %d", n)
	}
}

func TestHubSubscribeDuringDispatch(t *testing.T) {
	hub := NewHub(nil)
	late := 0

	hub.Subscribe(Func(func(Event) {
		hub.Subscribe(Func(func(Event) { late++ }))
	}, KindReset))

	hub.Emit(Reset{})
	if late != 0 {
		t.Errorf("subscriber added during dispatch saw the same event")
	}
	hub.Emit(Entered{State: core.StateResting})
	if late != 1 {
		t.Errorf("late subscriber should see the next event, got %d", late)
	}
}

func TestHubRecoversHandlerPanic(t *testing.T) {
	hub := NewHub(nil)
	after := false

	hub.Subscribe(Func(func(Event) { panic("boom") }))
	hub.Subscribe(Func(func(Event) { after = true }))

	hub.Emit(Reset{})
	if !after {
		t.Error("handler after a panicking one was not invoked")
	}
}

func TestOnEnterFiltersState(t *testing.T) {
	hub := NewHub(nil)
	var got []core.State

	hub.Subscribe(OnEnter(core.StateReacting, func(e Entered) { got = append(got, e.State) }))
	hub.Emit(Entered{State: core.StateResting})
	hub.Emit(Entered{State: core.StateReacting})

	if len(got) != 1 || got[0] != core.StateReacting {
		t.Errorf("OnEnter(reacting) got %v", got)
	}
}

func TestKindString(t *testing.T) {
	if KindEntered.String() != "entered" {
		t.Errorf("KindEntered.String() = %q", KindEntered.String())
	}
	if Kind(99).String() != "unknown" {
		t.Errorf("unknown kind string = %q", Kind(99).String())
	}
}
