package anim

import (
	"fmt"
	"sync"

	gwerrors "github.com/provide-io/gifweave/pkg/anim/errors"
)

// EventKind identifies a lifecycle notification.
type EventKind uint8

const (
	EventStarted EventKind = iota
	EventProgress
	EventFinished
	EventAborted
)

func (k EventKind) String() string {
	switch k {
	case EventStarted:
		return "started"
	case EventProgress:
		return "progress"
	case EventFinished:
		return "finished"
	case EventAborted:
		return "aborted"
	default:
		return fmt.Sprintf("event(%d)", uint8(k))
	}
}

// Event is delivered to listeners. Progress is set for EventProgress, Data
// and Len for EventFinished.
type Event struct {
	Kind     EventKind
	Session  string
	Progress float64
	Data     []byte
	Len      int
}

// Listener receives events.
type Listener func(Event)

// Subscription identifies a registered listener.
type Subscription struct {
	kind EventKind
	id   uint64
}

// Kind returns the event kind the subscription listens to.
func (s Subscription) Kind() EventKind {
	return s.kind
}

type entry struct {
	id   uint64
	fn   Listener
	once bool
}

// Events is a registry of listeners per event kind. Listeners of one kind
// run in subscription order on the emitting goroutine.
type Events struct {
	mu        sync.Mutex
	listeners map[EventKind][]entry
	nextID    uint64
	max       int
}

// NewEvents creates an empty registry with no listener limit.
func NewEvents() *Events {
	return &Events{listeners: make(map[EventKind][]entry)}
}

// SetMaxListeners caps the listeners per kind. Zero removes the cap.
func (ev *Events) SetMaxListeners(n int) {
	ev.mu.Lock()
	defer ev.mu.Unlock()
	if n < 0 {
		n = 0
	}
	ev.max = n
}

// Subscribe registers fn for kind.
func (ev *Events) Subscribe(kind EventKind, fn Listener) (Subscription, error) {
	return ev.add(kind, fn, false)
}

// SubscribeOnce registers fn for the next event of kind only.
func (ev *Events) SubscribeOnce(kind EventKind, fn Listener) (Subscription, error) {
	return ev.add(kind, fn, true)
}

func (ev *Events) add(kind EventKind, fn Listener, once bool) (Subscription, error) {
	if fn == nil {
		return Subscription{}, fmt.Errorf("nil listener for %s", kind)
	}

	ev.mu.Lock()
	defer ev.mu.Unlock()

	if ev.max > 0 && len(ev.listeners[kind]) >= ev.max {
		return Subscription{}, fmt.Errorf("%w: %d %s listeners", gwerrors.ErrTooManyListeners, ev.max, kind)
	}

	ev.nextID++
	ev.listeners[kind] = append(ev.listeners[kind], entry{id: ev.nextID, fn: fn, once: once})

	return Subscription{kind: kind, id: ev.nextID}, nil
}

// Unsubscribe removes a listener. It reports whether the listener was
// registered.
func (ev *Events) Unsubscribe(sub Subscription) bool {
	ev.mu.Lock()
	defer ev.mu.Unlock()
	return ev.removeLocked(sub.kind, sub.id)
}

func (ev *Events) removeLocked(kind EventKind, id uint64) bool {
	list := ev.listeners[kind]
	for i, e := range list {
		if e.id != id {
			continue
		}
		if len(list) == 1 {
			delete(ev.listeners, kind)
		} else {
			ev.listeners[kind] = append(list[:i:i], list[i+1:]...)
		}
		return true
	}
	return false
}

// UnsubscribeAll removes the listeners of the given kinds, or of every kind
// when none is given.
func (ev *Events) UnsubscribeAll(kinds ...EventKind) {
	ev.mu.Lock()
	defer ev.mu.Unlock()

	if len(kinds) == 0 {
		ev.listeners = make(map[EventKind][]entry)
		return
	}
	for _, k := range kinds {
		delete(ev.listeners, k)
	}
}

// ListenerCount returns the number of listeners for kind.
func (ev *Events) ListenerCount(kind EventKind) int {
	ev.mu.Lock()
	defer ev.mu.Unlock()
	return len(ev.listeners[kind])
}

// Emit calls the listeners registered for e.Kind. The list is snapshotted
// first, so listeners may subscribe or unsubscribe while being called.
func (ev *Events) Emit(e Event) bool {
	ev.mu.Lock()
	list := ev.listeners[e.Kind]
	if len(list) == 0 {
		ev.mu.Unlock()
		return false
	}
	snapshot := make([]entry, len(list))
	copy(snapshot, list)
	for _, l := range snapshot {
		if l.once {
			ev.removeLocked(e.Kind, l.id)
		}
	}
	ev.mu.Unlock()

	for _, l := range snapshot {
		l.fn(e)
	}
	return true
}
