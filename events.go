package depot

import (
	"reflect"
	"sync"
)

// Events is a double-buffered queue of T events stored as a resource. An
// event stays readable for the step it was sent in and the following one.
// Sending is safe for concurrent use.
type Events[T any] struct {
	mu            sync.Mutex
	previous      []T
	current       []T
	previousStart uint64
	currentStart  uint64
}

func (ev *Events[T]) Send(v T) {
	ev.mu.Lock()
	ev.current = append(ev.current, v)
	ev.mu.Unlock()
}

// Len returns how many events are retained.
func (ev *Events[T]) Len() int {
	ev.mu.Lock()
	defer ev.mu.Unlock()
	return len(ev.previous) + len(ev.current)
}

// readFrom returns the retained events with sequence number >= from and the
// sequence number following the last one.
func (ev *Events[T]) readFrom(from uint64) ([]T, uint64) {
	ev.mu.Lock()
	defer ev.mu.Unlock()
	end := ev.currentStart + uint64(len(ev.current))
	from = max(from, ev.previousStart)
	if from >= end {
		return nil, end
	}
	out := make([]T, 0, end-from)
	if from < ev.currentStart {
		out = append(out, ev.previous[from-ev.previousStart:]...)
		from = ev.currentStart
	}
	out = append(out, ev.current[from-ev.currentStart:]...)
	return out, end
}

// update drops the older buffer and starts a new one.
func (ev *Events[T]) update() {
	ev.mu.Lock()
	defer ev.mu.Unlock()
	clear(ev.previous)
	ev.previous, ev.current = ev.current, ev.previous[:0]
	ev.previousStart = ev.currentStart
	ev.currentStart += uint64(len(ev.previous))
}

func eventsFor[T any](w *World) *Events[T] {
	if ev := GetResource[Events[T]](w); ev != nil {
		return ev
	}
	ev := &Events[T]{}
	w.resources.insertPtr(reflect.TypeFor[Events[T]](), ev, w.ChangeTick())
	w.eventUpdaters[reflect.TypeFor[T]()] = ev.update
	return ev
}

// SendEvent queues v for readers of T events.
func SendEvent[T any](w *World, v T) {
	eventsFor[T](w).Send(v)
}

// ReadEvents returns every retained T event, oldest first.
func ReadEvents[T any](w *World) []T {
	out, _ := eventsFor[T](w).readFrom(0)
	return out
}

// EventReader is a system parameter that reads each T event once.
type EventReader[T any] struct {
	events *Events[T]
	next   uint64
}

func NewEventReader[T any](w *World) *EventReader[T] {
	r := &EventReader[T]{}
	r.Update(w)
	return r
}

// Update rebinds r to w's T events. A replaced event buffer, as after
// World.Clear, is read from its start.
func (r *EventReader[T]) Update(w *World) {
	ev := eventsFor[T](w)
	if ev != r.events {
		r.events = ev
		r.next = 0
	}
}

// Read returns the events sent since the previous Read.
func (r *EventReader[T]) Read() []T {
	out, next := r.events.readFrom(r.next)
	r.next = next
	return out
}

// EventWriter is a system parameter that sends T events.
type EventWriter[T any] struct {
	events *Events[T]
}

func NewEventWriter[T any](w *World) *EventWriter[T] {
	wr := &EventWriter[T]{}
	wr.Update(w)
	return wr
}

func (wr *EventWriter[T]) Update(w *World) {
	wr.events = eventsFor[T](w)
}

func (wr *EventWriter[T]) Send(v T) {
	wr.events.Send(v)
}
