package engine

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/presenter/internal/ir"
)

func navigateEvent(route string) Event {
	return Event{Type: EventTypeAction, Action: NavigateRoute{Route: route}}
}

func TestEventQueue_EnqueueDequeue(t *testing.T) {
	q := newEventQueue()

	ok := q.Enqueue(Event{Type: EventTypeAction, Action: DestroyView{ID: ir.ViewID(4)}})
	require.True(t, ok, "enqueue should succeed")

	got, ok := q.TryDequeue()
	require.True(t, ok, "dequeue should succeed")
	assert.Equal(t, EventTypeAction, got.Type)
	assert.Equal(t, DestroyView{ID: 4}, got.Action)
}

func TestEventQueue_FIFO(t *testing.T) {
	q := newEventQueue()

	for _, r := range []string{"/a", "/b", "/c"} {
		q.Enqueue(navigateEvent(r))
	}

	for _, want := range []string{"/a", "/b", "/c"} {
		e, ok := q.TryDequeue()
		require.True(t, ok)
		assert.Equal(t, want, e.Action.(NavigateRoute).Route)
	}
}

func TestEventQueue_TryDequeue_Empty(t *testing.T) {
	q := newEventQueue()

	_, ok := q.TryDequeue()
	assert.False(t, ok, "dequeue from empty queue should return false")
}

func TestEventQueue_Wait_SignalsOnEnqueue(t *testing.T) {
	q := newEventQueue()

	go func() {
		time.Sleep(10 * time.Millisecond)
		q.Enqueue(navigateEvent("/late"))
	}()

	select {
	case <-q.Wait():
		e, ok := q.TryDequeue()
		require.True(t, ok)
		assert.Equal(t, "/late", e.Action.(NavigateRoute).Route)
	case <-time.After(time.Second):
		t.Fatal("wait did not signal")
	}
}

func TestEventQueue_Close_WakesWaiters(t *testing.T) {
	q := newEventQueue()

	done := make(chan struct{})
	go func() {
		<-q.Wait()
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	q.Close()

	select {
	case <-done:
	case <-time.After(100 * time.Millisecond):
		t.Fatal("waiter did not wake after close")
	}

	// Closing twice is a no-op.
	q.Close()
}

func TestEventQueue_Enqueue_AfterClose(t *testing.T) {
	q := newEventQueue()
	q.Close()

	ok := q.Enqueue(navigateEvent("/after-close"))
	assert.False(t, ok, "enqueue after close should return false")
}

func TestEventQueue_Drained(t *testing.T) {
	q := newEventQueue()
	q.Enqueue(navigateEvent("/1"))
	q.Enqueue(navigateEvent("/2"))
	assert.Equal(t, 2, q.Len())

	q.Close()
	assert.True(t, q.Closed())
	assert.False(t, q.Drained(), "queued events survive Close")

	_, ok := q.TryDequeue()
	require.True(t, ok)
	_, ok = q.TryDequeue()
	require.True(t, ok)
	assert.Equal(t, 0, q.Len())
	assert.True(t, q.Drained())

	// Close is idempotent.
	q.Close()
	assert.True(t, q.Drained())
}

func TestEventType_String(t *testing.T) {
	assert.Equal(t, "action", EventTypeAction.String())
	assert.Equal(t, "cycle_complete", EventTypeCycleComplete.String())
	assert.Equal(t, "idle_check", EventTypeIdleCheck.String())
	assert.Equal(t, "unknown", EventType(0).String())
}

func TestEventQueue_ThreadSafe(t *testing.T) {
	q := newEventQueue()

	const producers = 10
	const eventsPerProducer = 100

	var wg sync.WaitGroup

	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(producerID int) {
			defer wg.Done()
			for i := 0; i < eventsPerProducer; i++ {
				q.Enqueue(Event{Type: EventTypeAction, Action: DestroyView{ID: ir.ViewID(producerID*1000 + i)}})
			}
		}(p)
	}

	received := make([]Event, 0, producers*eventsPerProducer)
	var mu sync.Mutex

	consumerDone := make(chan struct{})
	go func() {
		for {
			e, ok := q.TryDequeue()
			if !ok {
				time.Sleep(1 * time.Millisecond)
				continue
			}
			mu.Lock()
			received = append(received, e)
			if len(received) >= producers*eventsPerProducer {
				mu.Unlock()
				break
			}
			mu.Unlock()
		}
		close(consumerDone)
	}()

	wg.Wait()

	select {
	case <-consumerDone:
	case <-time.After(5 * time.Second):
		mu.Lock()
		n := len(received)
		mu.Unlock()
		t.Fatalf("consumer timeout: received %d events", n)
	}

	assert.Len(t, received, producers*eventsPerProducer)
}
