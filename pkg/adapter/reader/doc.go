/*
Package reader adapts a readable, event-driven stream into a pull-based
asynchronous sequence of byte chunks.

The adapter owns exactly one streamio.Source: it opens the source at
construction, registers for its events, and converts each bytes-available
notification into at most one chunk on its sequence.

# Quick Start

	src, sink := streamio.Pipe(4096)
	r, err := reader.New(src)
	if err != nil {
		log.Fatal(err)
	}
	defer r.Close()

	chunks, err := r.Subscribe()
	if err != nil {
		log.Fatal(err)
	}

	for {
		chunk, ok, err := chunks.Next(ctx)
		if !ok {
			// err is the source's terminal error, nil on clean end
			break
		}
		process(chunk)
	}

# Coalescing

A single readiness notification may correspond to several underlying
packets. The adapter drains the source while it hints bytes are available
and yields everything read as one chunk, so one logical read event maps to
one logical notification. A read returning zero bytes ends the pass without
error; the hint is advisory and the drain must not spin on it.

# Single Subscriber

The chunk sequence is built once for the adapter's lifetime and supports
exactly one subscriber. A second Subscribe call fails fast with
errors.ErrBusy instead of silently displacing the first subscriber.

# Termination

An error or end notification terminates the sequence, delivering the
source's recorded error exactly once. Close does the same during teardown,
so a consumer blocked in Next never outlives the adapter.

# Monitoring

NewWithMetrics reports chunk, byte and error counts to Prometheus; the
OnChunk and OnError hooks serve custom instrumentation.
*/
package reader
