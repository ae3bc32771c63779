package streamio

import (
	"sync"
	"testing"
	"time"
)

// eventRecorder collects delivered events for assertions.
type eventRecorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *eventRecorder) handler(ev Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

func (r *eventRecorder) kinds() []EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds := make([]EventKind, len(r.events))
	for i, ev := range r.events {
		kinds[i] = ev.Kind
	}
	return kinds
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestNotifierDeliversInOrder(t *testing.T) {
	n := NewNotifier()
	rec := &eventRecorder{}
	n.SetHandler(rec.handler)
	n.Start()
	defer n.Stop()

	want := []EventKind{EventOpened, EventBytesAvailable, EventSpaceAvailable, EventEnd}
	for _, k := range want {
		n.Enqueue(Event{Kind: k})
	}

	waitFor(t, func() bool { return len(rec.kinds()) == len(want) })
	for i, k := range rec.kinds() {
		if k != want[i] {
			t.Fatalf("event %d = %v, want %v", i, k, want[i])
		}
	}
}

func TestNotifierStopDrainsQueue(t *testing.T) {
	n := NewNotifier()
	rec := &eventRecorder{}
	n.SetHandler(rec.handler)
	n.Start()

	for i := 0; i < 10; i++ {
		n.Enqueue(Event{Kind: EventBytesAvailable})
	}
	n.Stop()

	if got := len(rec.kinds()); got != 10 {
		t.Fatalf("delivered %d events, want 10", got)
	}
}

func TestNotifierEnqueueAfterStop(t *testing.T) {
	n := NewNotifier()
	rec := &eventRecorder{}
	n.SetHandler(rec.handler)
	n.Start()
	n.Stop()

	n.Enqueue(Event{Kind: EventError})
	time.Sleep(5 * time.Millisecond)
	if len(rec.kinds()) != 0 {
		t.Fatal("events enqueued after Stop must be dropped")
	}
}

func TestNotifierNilHandlerDiscards(t *testing.T) {
	n := NewNotifier()
	n.Start()
	defer n.Stop()

	n.Enqueue(Event{Kind: EventOpened})

	rec := &eventRecorder{}
	n.SetHandler(rec.handler)
	n.Enqueue(Event{Kind: EventEnd})

	waitFor(t, func() bool { return len(rec.kinds()) >= 1 })
	kinds := rec.kinds()
	if kinds[len(kinds)-1] != EventEnd {
		t.Fatalf("last event = %v, want EventEnd", kinds[len(kinds)-1])
	}
}

func TestNotifierStopWithoutStart(t *testing.T) {
	n := NewNotifier()
	n.Stop()
	n.Stop() // idempotent
}
