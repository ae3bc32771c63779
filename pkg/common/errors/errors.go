package errors

import "errors"

// Common error types used across the streambridge library

var (
	// ErrNotOpen indicates that an operation was attempted while the wrapped
	// stream is not in the open state
	ErrNotOpen = errors.New("stream is not open")

	// ErrWrite indicates that the sink's write primitive failed without a
	// more specific stream error attached
	ErrWrite = errors.New("write failed")

	// ErrClosed indicates that an operation was attempted on a closed adapter
	ErrClosed = errors.New("adapter is closed")

	// ErrBusy indicates that a sequence already has a live subscriber
	ErrBusy = errors.New("sequence already subscribed")
)

// IsTerminal returns true if the error ends the stream for good; no further
// values will be produced and retrying cannot help
func IsTerminal(err error) bool {
	return errors.Is(err, ErrWrite) || errors.Is(err, ErrClosed)
}

// IsUsage returns true if the error reports a contract violation the caller
// can correct (wrong state, duplicate subscription) rather than stream failure
func IsUsage(err error) bool {
	return errors.Is(err, ErrNotOpen) || errors.Is(err, ErrBusy)
}
