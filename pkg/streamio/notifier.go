package streamio

import "sync"

// Notifier is the serialized delivery context behind a stream endpoint: a
// single goroutine that invokes the registered Handler for each queued event,
// one at a time, in enqueue order. It stands in for the platform event loop.
//
// Enqueue never blocks, so transports may call it while holding their own
// locks. Handlers run without any Notifier lock held, so they are free to
// call back into the transport.
type Notifier struct {
	mu      sync.Mutex
	cond    *sync.Cond
	queue   []Event
	handler Handler
	started bool
	closed  bool
	stopped chan struct{}
}

// NewNotifier creates a Notifier. Delivery begins on Start.
func NewNotifier() *Notifier {
	n := &Notifier{stopped: make(chan struct{})}
	n.cond = sync.NewCond(&n.mu)
	return n
}

// Start launches the delivery goroutine. Starting twice is a no-op.
func (n *Notifier) Start() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.started || n.closed {
		return
	}
	n.started = true
	go n.run()
}

// SetHandler registers the delegate invoked per event; nil unregisters it.
// Events delivered while no handler is registered are discarded. An
// invocation already in flight when SetHandler(nil) returns may still
// complete.
func (n *Notifier) SetHandler(h Handler) {
	n.mu.Lock()
	n.handler = h
	n.mu.Unlock()
}

// Enqueue appends an event for delivery. Events enqueued after Stop are
// dropped. Never blocks.
func (n *Notifier) Enqueue(ev Event) {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return
	}
	n.queue = append(n.queue, ev)
	n.cond.Signal()
	n.mu.Unlock()
}

// Stop drains pending events and terminates the delivery goroutine. It
// blocks until delivery has fully stopped. Callers must not hold locks that
// the handler may need. Idempotent.
func (n *Notifier) Stop() {
	n.mu.Lock()
	if n.closed {
		started := n.started
		n.mu.Unlock()
		if started {
			<-n.stopped
		}
		return
	}
	n.closed = true
	started := n.started
	n.cond.Signal()
	n.mu.Unlock()
	if started {
		<-n.stopped
	} else {
		close(n.stopped)
	}
}

func (n *Notifier) run() {
	defer close(n.stopped)
	for {
		n.mu.Lock()
		for len(n.queue) == 0 && !n.closed {
			n.cond.Wait()
		}
		if len(n.queue) == 0 && n.closed {
			n.mu.Unlock()
			return
		}
		ev := n.queue[0]
		n.queue = n.queue[1:]
		h := n.handler
		n.mu.Unlock()

		if h != nil {
			h(ev)
		}
	}
}
