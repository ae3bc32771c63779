/*
Package streambridge adapts event-driven byte streams into backpressure-aware,
pull-based asynchronous sequences.

Platform stream primitives (sockets, pipes, platform channels) are usually
callback-driven: they signal "bytes became readable" or "space became
writable" from an event loop, and their read/write primitives never block.
streambridge wraps one such source or sink per adapter and exposes the
readiness callbacks as ordered sequences a consumer can pull from, plus a
write path that delivers data only as fast as the sink accepts it.

Stream I/O Boundary (pkg/streamio):
  - Source, Sink: non-blocking stream primitives with readiness hints
  - Event delegate registration for readiness/error/end notifications
  - Pipe: capacity-bounded in-memory transport with a real notifier loop

Sequences (pkg/sequence):
  - Sequence: single-subscriber asynchronous sequence, terminated by error
  - Source adapters for producer attachment (FromSlice, FromChannel,
    FromSequence)

Adapters (pkg/adapter):
  - reader: converts bytes-available notifications into coalesced chunks
  - writer: serialized writes, space-available signals, retrying WriteAll,
    and continuous producer attachment

Example usage:

	import (
		"github.com/vnykmshr/streambridge/pkg/adapter/reader"
		"github.com/vnykmshr/streambridge/pkg/adapter/writer"
		"github.com/vnykmshr/streambridge/pkg/streamio"
	)

	src, sink := streamio.Pipe(4096)
	r, _ := reader.New(src)
	w, _ := writer.New(sink)
	defer r.Close()
	defer w.Close()

	chunks, _ := r.Subscribe()
	go w.WriteAll(ctx, payload)

	for {
		chunk, ok, err := chunks.Next(ctx)
		if !ok {
			break // err carries the terminal stream error, nil on clean end
		}
		process(chunk)
	}
*/
package streambridge
