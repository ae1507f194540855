package anim

import (
	"errors"
	"testing"

	gwerrors "github.com/provide-io/gifweave/pkg/anim/errors"
)

func TestEvents_EmitInSubscriptionOrder(t *testing.T) {
	ev := NewEvents()

	var calls []string
	ev.Subscribe(EventProgress, func(e Event) { calls = append(calls, "a") })
	ev.Subscribe(EventProgress, func(e Event) { calls = append(calls, "b") })
	ev.Subscribe(EventFinished, func(e Event) { calls = append(calls, "finished") })

	if !ev.Emit(Event{Kind: EventProgress, Progress: 0.5}) {
		t.Fatal("Emit reported no listeners")
	}
	if got := len(calls); got != 2 || calls[0] != "a" || calls[1] != "b" {
		t.Errorf("calls = %v, want [a b]", calls)
	}
	if ev.Emit(Event{Kind: EventAborted}) {
		t.Error("Emit without listeners reported true")
	}
}

func TestEvents_Once(t *testing.T) {
	ev := NewEvents()

	n := 0
	ev.SubscribeOnce(EventStarted, func(Event) { n++ })
	ev.Emit(Event{Kind: EventStarted})
	ev.Emit(Event{Kind: EventStarted})

	if n != 1 {
		t.Errorf("once listener called %d times", n)
	}
	if c := ev.ListenerCount(EventStarted); c != 0 {
		t.Errorf("ListenerCount = %d after once listener fired", c)
	}
}

func TestEvents_Unsubscribe(t *testing.T) {
	ev := NewEvents()

	n := 0
	sub, err := ev.Subscribe(EventProgress, func(Event) { n++ })
	if err != nil {
		t.Fatal(err)
	}
	if sub.Kind() != EventProgress {
		t.Errorf("Kind = %s", sub.Kind())
	}

	if !ev.Unsubscribe(sub) {
		t.Error("Unsubscribe of a registered listener returned false")
	}
	if ev.Unsubscribe(sub) {
		t.Error("second Unsubscribe returned true")
	}
	ev.Emit(Event{Kind: EventProgress})
	if n != 0 {
		t.Errorf("removed listener called %d times", n)
	}

	ev.Subscribe(EventProgress, func(Event) {})
	ev.Subscribe(EventAborted, func(Event) {})
	ev.UnsubscribeAll(EventProgress)
	if ev.ListenerCount(EventProgress) != 0 || ev.ListenerCount(EventAborted) != 1 {
		t.Error("UnsubscribeAll(kind) removed the wrong listeners")
	}
	ev.UnsubscribeAll()
	if ev.ListenerCount(EventAborted) != 0 {
		t.Error("UnsubscribeAll() left listeners")
	}
}

func TestEvents_MaxListeners(t *testing.T) {
	ev := NewEvents()
	ev.SetMaxListeners(1)

	if _, err := ev.Subscribe(EventFinished, func(Event) {}); err != nil {
		t.Fatal(err)
	}
	_, err := ev.Subscribe(EventFinished, func(Event) {})
	if !errors.Is(err, gwerrors.ErrTooManyListeners) {
		t.Errorf("err = %v, want ErrTooManyListeners", err)
	}
	if _, err := ev.Subscribe(EventAborted, func(Event) {}); err != nil {
		t.Errorf("limit applies per kind: %v", err)
	}
	if _, err := ev.Subscribe(EventAborted, nil); err == nil {
		t.Error("nil listener accepted")
	}
}

func TestEvents_ListenerMaySubscribe(t *testing.T) {
	ev := NewEvents()

	ev.Subscribe(EventProgress, func(Event) {
		ev.Subscribe(EventProgress, func(Event) {})
	})
	ev.Emit(Event{Kind: EventProgress})

	if c := ev.ListenerCount(EventProgress); c != 2 {
		t.Errorf("ListenerCount = %d, want 2", c)
	}
}
