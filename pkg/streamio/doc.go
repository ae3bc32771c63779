/*
Package streamio defines the platform boundary for event-driven byte streams.

A Source or Sink is a non-blocking stream handle: reads and writes never
block, readiness is reported through hints (HasBytesAvailable,
HasSpaceAvailable) and through asynchronous events (EventBytesAvailable,
EventSpaceAvailable, EventError, EventEnd) delivered to a registered Handler
from a notifier goroutine — the stand-in for a platform event loop.

The adapters in pkg/adapter wrap exactly one endpoint each and own it for
their lifetime. Transports implement these interfaces; the package ships one
reference transport, Pipe, a capacity-bounded in-memory byte pipe used by
tests and examples:

	src, sink := streamio.Pipe(4096)

	sink.SetHandler(func(ev streamio.Event) {
		// runs on the sink's notifier goroutine, in delivery order
	})
	_ = sink.Open()

	n, err := sink.Write(data) // non-blocking, may be partial
	if errors.Is(err, streamio.ErrWouldBlock) {
		// wait for EventSpaceAvailable, then retry
	}

Notifier is exported for transport implementors: it serializes handler
invocations onto one goroutine with a non-blocking enqueue, which is the
delivery discipline the adapters rely on.
*/
package streamio
