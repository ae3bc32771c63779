package streamio

import "errors"

// ErrWouldBlock is returned by a non-blocking write when the sink cannot
// accept any bytes right now. It is expected control flow, not a failure:
// wait for a SpaceAvailable event, then retry.
var ErrWouldBlock = errors.New("streamio: would block")

// ErrNotOpen is returned when a read or write primitive is invoked on a
// stream that is not in the open state.
var ErrNotOpen = errors.New("streamio: stream not open")

// ErrAlreadyOpen is returned by Open when the stream was opened before.
// Streams are opened exactly once for their lifetime.
var ErrAlreadyOpen = errors.New("streamio: stream already open")

// State describes the lifecycle state of a stream endpoint.
type State int

const (
	// StateUnopened is the initial state before Open.
	StateUnopened State = iota

	// StateOpen means the stream can be read from or written to.
	StateOpen

	// StateError means the stream failed; Err returns the cause.
	StateError

	// StateEnd means the remote side finished cleanly (read side only).
	StateEnd

	// StateClosed means Close was called on this endpoint.
	StateClosed
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateUnopened:
		return "unopened"
	case StateOpen:
		return "open"
	case StateError:
		return "error"
	case StateEnd:
		return "end"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// EventKind identifies a readiness or lifecycle notification.
type EventKind int

const (
	// EventOpened reports that the stream finished opening.
	EventOpened EventKind = iota

	// EventBytesAvailable reports that a source can be read without blocking.
	// It is a hint that bytes exist, not a byte count.
	EventBytesAvailable

	// EventSpaceAvailable reports that a sink can accept bytes without
	// blocking. It is a hint, not a capacity guarantee.
	EventSpaceAvailable

	// EventError reports stream failure; Event.Err carries the cause.
	EventError

	// EventEnd reports clean end-of-stream.
	EventEnd
)

// Event is one notification delivered to a stream's registered Handler.
type Event struct {
	Kind EventKind
	Err  error
}

// Handler receives stream events. Handlers are invoked from the stream's
// notifier goroutine, one event at a time, in delivery order. A handler must
// not call Close on the stream that delivered the event.
type Handler func(Event)

// Stream is the part of the platform boundary shared by sources and sinks:
// lifecycle, state inspection, and delegate registration.
//
// An adapter owns its stream exclusively once wrapped; external code must not
// touch the handle directly.
type Stream interface {
	// Open transitions the stream to the open state and starts event
	// delivery. Opening twice returns ErrAlreadyOpen.
	Open() error

	// Close tears the endpoint down and stops event delivery. Idempotent.
	Close() error

	// Status returns the current lifecycle state.
	Status() State

	// Err returns the recorded stream error, or nil.
	Err() error

	// SetHandler registers the event delegate. Passing nil unregisters it.
	// The registration is a back-reference, not an ownership edge: it must
	// be cleared at teardown before the handle is closed.
	SetHandler(h Handler)
}

// Source is a readable, event-driven stream endpoint.
type Source interface {
	Stream

	// Read copies up to len(p) bytes into p without blocking. It returns
	// 0, nil when nothing is available right now.
	Read(p []byte) (int, error)

	// HasBytesAvailable hints that a Read would make progress. It is a
	// hint only; Read may still return 0.
	HasBytesAvailable() bool
}

// Sink is a writable, event-driven stream endpoint.
type Sink interface {
	Stream

	// Write copies up to len(p) bytes from p without blocking and returns
	// how many were accepted. It returns ErrWouldBlock when the sink is
	// full.
	Write(p []byte) (int, error)

	// HasSpaceAvailable hints that a Write would make progress.
	HasSpaceAvailable() bool
}
