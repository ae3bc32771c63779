package sequence

import (
	"context"
	"sync"
)

// Sequence is an asynchronous sequence of values terminated at most once by
// an error (nil for a clean end). It connects one producer to one consumer:
// the producer calls Yield and finally Finish, the consumer pulls with Next.
//
// Values yielded before Finish are delivered before the termination is
// observed. The terminal error is reported by the first Next that finds the
// sequence exhausted, and by every Next after that.
//
// A Sequence is intended for exactly one consumer; the owning adapter
// enforces the single-subscriber contract.
type Sequence[T any] struct {
	ch   chan T
	done chan struct{}

	mu       sync.Mutex
	err      error
	finished bool
}

// New creates a sequence with the given producer-side buffer. A buffer below
// one is raised to one.
func New[T any](buf int) *Sequence[T] {
	if buf < 1 {
		buf = 1
	}
	return &Sequence[T]{
		ch:   make(chan T, buf),
		done: make(chan struct{}),
	}
}

// Yield delivers one value to the consumer, blocking while the buffer is
// full. It returns false if the sequence finished before the value could be
// delivered; the value is dropped in that case.
func (s *Sequence[T]) Yield(v T) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.ch <- v:
		return true
	case <-s.done:
		return false
	}
}

// TryYield delivers one value without blocking. When the buffer is full it
// discards the oldest pending value to make room, so the consumer always
// observes the most recent state. Use for conflatable signals (readiness
// booleans), never for data.
func (s *Sequence[T]) TryYield(v T) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finished {
		return false
	}
	for {
		select {
		case s.ch <- v:
			return true
		default:
		}
		select {
		case <-s.ch: // drop stale value
		default:
		}
	}
}

// Finish terminates the sequence. The first call records err as the terminal
// error; later calls are no-ops. Pending values yielded before Finish are
// still delivered.
func (s *Sequence[T]) Finish(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finished {
		return
	}
	s.finished = true
	s.err = err
	close(s.done)
}

// Next pulls the next value. It returns ok=false once the sequence is
// exhausted, with err carrying the terminal error (nil on clean end).
// A context error does not terminate the sequence.
func (s *Sequence[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T

	// Buffered values win over termination so nothing yielded is lost.
	select {
	case v := <-s.ch:
		return v, true, nil
	default:
	}

	select {
	case v := <-s.ch:
		return v, true, nil
	case <-s.done:
		select {
		case v := <-s.ch:
			return v, true, nil
		default:
		}
		return zero, false, s.terminalErr()
	case <-ctx.Done():
		return zero, false, ctx.Err()
	}
}

// Finished reports whether the sequence has terminated. Buffered values may
// still be pending.
func (s *Sequence[T]) Finished() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

func (s *Sequence[T]) terminalErr() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}
