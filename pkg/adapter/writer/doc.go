/*
Package writer adapts a writable, backpressure-signaling sink into a
serialized write path with an asynchronous space-available sequence.

The adapter owns exactly one streamio.Sink: it opens the sink at
construction, registers for its events, and guarantees that at most one
write is in flight at any instant.

# Quick Start

	src, sink := streamio.Pipe(4096)
	w, err := writer.New(sink)
	if err != nil {
		log.Fatal(err)
	}
	defer w.Close()

	// Low level: write what fits right now. Partial writes are not errors.
	n, err := w.Write(data)

	// High level: suspend on backpressure until everything is written.
	err = w.WriteAll(ctx, largeBuffer)

# Space Signals

SpaceSignals exposes the sink's readiness as a sequence of booleans: true
per space-available notification, false when a write actually observed the
sink full. A false is never emitted twice in a row, so a subscriber woken by
false can trust that space existed in between. Signals conflate under a slow
subscriber, always keeping the newest state. The sequence is created once
and lives as long as the adapter; a second subscription fails with
errors.ErrBusy.

# Driving Writes from a Producer

AttachProducer pumps an external chunk source through WriteAll:

	err := w.AttachProducer(ctx, sequence.FromChannel(chunkCh))

Replacement is sequential: attaching while a producer task runs waits for
that task to stop before the new one starts, and AttachProducer(ctx, nil)
detaches by waiting for natural completion. A producer task stops silently
on the first write failure; use the OnError hook for visibility.

# Errors

Write and WriteAll fail with errors.ErrNotOpen when the sink is not open,
with the sink's own recorded error when it has one, and with errors.ErrWrite
when the write primitive fails bare. Errors observed via notifications
terminate the space-signal sequence instead of surfacing to unrelated
callers.

# Monitoring

NewWithMetrics reports bytes, calls, partial writes, backpressure events and
producer swaps to Prometheus.
*/
package writer
