package engine

import (
	"sync"
)

// EventType distinguishes between event kinds.
type EventType int

const (
	// EventTypeAction carries a dispatched action.
	EventTypeAction EventType = iota + 1
	// EventTypeCycleComplete carries the outcome of a synchronization batch.
	EventTypeCycleComplete
	// EventTypeConfigLoaded carries the result of a view configuration fetch.
	EventTypeConfigLoaded
	// EventTypeLoginComplete carries the result of a login exchange.
	EventTypeLoginComplete
	// EventTypeIdleCheck wakes the loop so it can release idle waiters.
	EventTypeIdleCheck
)

func (t EventType) String() string {
	switch t {
	case EventTypeAction:
		return "action"
	case EventTypeCycleComplete:
		return "cycle_complete"
	case EventTypeConfigLoaded:
		return "config_loaded"
	case EventTypeLoginComplete:
		return "login_complete"
	case EventTypeIdleCheck:
		return "idle_check"
	}
	return "unknown"
}

// Event wraps everything the Run loop processes. Exactly one payload field
// is set, matching Type.
type Event struct {
	Type   EventType
	Action Action
	Cycle  *cycleResult
	Config *configResult
	Login  *loginResult
}

// eventQueue is the unbounded FIFO between dispatchers and the Run loop.
// Views, CLI drivers and effect goroutines enqueue from anywhere; a batch's
// success actions and effect results never block on a full queue.
//
// signal has a buffer of one so bursts of Enqueue coalesce into a single
// wakeup; Close closes it so every waiter wakes.
type eventQueue struct {
	mu     sync.Mutex
	events []Event
	closed bool
	signal chan struct{}
}

func newEventQueue() *eventQueue {
	return &eventQueue{
		events: make([]Event, 0, 64),
		signal: make(chan struct{}, 1),
	}
}

// Enqueue appends e. Returns false once the queue is closed.
func (q *eventQueue) Enqueue(e Event) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.events = append(q.events, e)
	select {
	case q.signal <- struct{}{}:
	default:
	}
	return true
}

// TryDequeue pops the oldest event without blocking.
func (q *eventQueue) TryDequeue() (Event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.events) == 0 {
		return Event{}, false
	}
	e := q.events[0]
	// Clear the slot so a drained batch result is not kept alive.
	q.events[0] = Event{}
	q.events = q.events[1:]
	if len(q.events) == 0 {
		q.events = q.events[:0:0]
	}
	return e, true
}

// Wait returns the wakeup channel. Receivers re-check with TryDequeue;
// a receive does not guarantee an event.
func (q *eventQueue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the number of queued events.
func (q *eventQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

// Closed reports whether Close has been called.
func (q *eventQueue) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// Drained reports whether the queue is closed and empty, the point at which
// the loop exits.
func (q *eventQueue) Drained() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed && len(q.events) == 0
}

// Close stops further enqueues and wakes every waiter.
func (q *eventQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.signal)
}
