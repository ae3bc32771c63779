package sequence

import "context"

// Source is a pull-based producer of values, the input contract for driving
// writes from an external sequence of chunks.
type Source[T any] interface {
	// Next returns the next value and true, or zero value and false when no
	// more values exist. A non-nil error ends the source.
	Next(ctx context.Context) (T, bool, error)
	// Close releases any resources held by the source.
	Close() error
}

// sliceSource implements Source over a slice.
type sliceSource[T any] struct {
	values []T
	index  int
}

// FromSlice creates a Source that yields the slice elements in order.
func FromSlice[T any](values []T) Source[T] {
	return &sliceSource[T]{values: values}
}

func (s *sliceSource[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, false, err
	}
	if s.index >= len(s.values) {
		return zero, false, nil
	}
	v := s.values[s.index]
	s.index++
	return v, true, nil
}

func (s *sliceSource[T]) Close() error { return nil }

// channelSource implements Source over a receive channel.
type channelSource[T any] struct {
	ch <-chan T
}

// FromChannel creates a Source that yields values received from ch until the
// channel is closed.
func FromChannel[T any](ch <-chan T) Source[T] {
	return &channelSource[T]{ch: ch}
}

func (s *channelSource[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T
	select {
	case v, ok := <-s.ch:
		if !ok {
			return zero, false, nil
		}
		return v, true, nil
	case <-ctx.Done():
		return zero, false, ctx.Err()
	}
}

func (s *channelSource[T]) Close() error { return nil }

// seqSource implements Source over a Sequence, letting one adapter's output
// feed another adapter's producer attachment.
type seqSource[T any] struct {
	seq *Sequence[T]
}

// FromSequence creates a Source that pulls from seq. A clean termination of
// seq ends the source; an error termination propagates the error.
func FromSequence[T any](seq *Sequence[T]) Source[T] {
	return &seqSource[T]{seq: seq}
}

func (s *seqSource[T]) Next(ctx context.Context) (T, bool, error) {
	return s.seq.Next(ctx)
}

func (s *seqSource[T]) Close() error { return nil }
