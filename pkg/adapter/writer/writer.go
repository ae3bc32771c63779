package writer

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	cerrors "github.com/vnykmshr/streambridge/pkg/common/errors"
	"github.com/vnykmshr/streambridge/pkg/sequence"
	"github.com/vnykmshr/streambridge/pkg/streamio"
)

// WriteAdapter serializes writes against a backpressure-signaling sink and
// exposes the sink's readiness as an asynchronous sequence of booleans.
type WriteAdapter interface {
	// Write drains as much of p as the sink currently accepts and returns
	// the number of bytes written. A partial write is a valid, non-error
	// outcome. It returns ErrNotOpen when the sink is not open, and 0, nil
	// when the sink hints no space.
	Write(p []byte) (int, error)

	// WriteAll writes all of p, suspending between attempts until the sink
	// signals space, and returns once the whole buffer is written or a
	// write error or context cancellation occurs.
	WriteAll(ctx context.Context, p []byte) error

	// SpaceSignals returns the space-available sequence: true per
	// space-available notification, false when a write observed the sink
	// full. Built once for the adapter's lifetime; a second subscription
	// returns ErrBusy.
	SpaceSignals() (*sequence.Sequence[bool], error)

	// AttachProducer starts a task that pulls chunks from src and writes
	// each via WriteAll. If a producer task is already running it waits
	// for that task to stop first; attaching nil only performs that wait
	// (detach). The task stops on input exhaustion or the first write
	// failure, without propagating the error.
	AttachProducer(ctx context.Context, src sequence.Source[[]byte]) error

	// Stats returns statistics about the adapter's activity.
	Stats() Stats

	// IsClosed returns true if the adapter is closed.
	IsClosed() bool

	// Close tears the adapter down: it unregisters the event delegate,
	// closes the sink, terminates the space-signal sequence with the
	// sink's last error, and wakes any suspended WriteAll. Idempotent.
	Close() error
}

// Stats holds statistics about write adapter activity.
type Stats struct {
	// BytesWritten is the total number of bytes accepted by the sink.
	BytesWritten int64

	// WriteCalls is the number of Write invocations, including the ones
	// issued on behalf of WriteAll.
	WriteCalls int64

	// PartialWrites is the number of Write calls that returned fewer bytes
	// than requested.
	PartialWrites int64

	// BackpressureSignals is the number of space-available=false signals
	// emitted after a write observed the sink full.
	BackpressureSignals int64

	// ProducerSwaps is the number of producer tasks started.
	ProducerSwaps int64

	// LastWriteTime is the timestamp of the last successful Write.
	LastWriteTime time.Time
}

// Config holds configuration options for a WriteAdapter.
type Config struct {
	// SignalBufferSize is the buffer of the space-signal sequence. Signals
	// conflate when the subscriber lags, keeping the newest state.
	// Default: 2.
	SignalBufferSize int

	// OnWrite is called after each write call that accepted bytes, with the
	// number of bytes the sink took.
	OnWrite func(n int)

	// OnBackpressure is called each time a write observes the sink full.
	OnBackpressure func()

	// OnError is called when a write fails or the sink reports a terminal
	// error, including failures swallowed by an attached producer.
	OnError func(error)
}

// DefaultConfig returns a default configuration.
func DefaultConfig() Config {
	return Config{
		SignalBufferSize: 2,
	}
}

const (
	signalNone int32 = iota
	signalFalse
	signalTrue
)

// writeAdapter implements WriteAdapter.
type writeAdapter struct {
	sink   streamio.Sink
	config Config

	// mu is the adapter's monitor: every state mutation, whether from a
	// caller or from the sink's event goroutine, runs under it. Suspension
	// points (WriteAll waiting for space, producer hand-off) never hold it.
	mu         sync.Mutex
	lastSignal int32
	termErr    error

	space   *sequence.Sequence[bool]
	claimed int32 // atomic
	closed  int32 // atomic

	spaceCh  chan struct{} // readiness latch for suspended WriteAll calls
	terminal chan struct{} // closed once the sink is finished for good
	termOnce sync.Once

	producerMu   sync.Mutex
	producerDone chan struct{}

	stats   Stats
	statsMu sync.RWMutex
}

// New creates a WriteAdapter with default configuration. The sink must be
// unopened: the adapter opens it and registers for its events.
func New(sink streamio.Sink) (WriteAdapter, error) {
	return NewWithConfig(sink, DefaultConfig())
}

// NewWithConfig creates a WriteAdapter with the specified configuration.
func NewWithConfig(sink streamio.Sink, config Config) (WriteAdapter, error) {
	if sink == nil {
		return nil, errors.New("writer: nil sink")
	}
	if config.SignalBufferSize <= 0 {
		config.SignalBufferSize = DefaultConfig().SignalBufferSize
	}

	a := &writeAdapter{
		sink:     sink,
		config:   config,
		space:    sequence.New[bool](config.SignalBufferSize),
		spaceCh:  make(chan struct{}, 1),
		terminal: make(chan struct{}),
	}

	sink.SetHandler(a.handleEvent)
	if err := sink.Open(); err != nil {
		sink.SetHandler(nil)
		return nil, err
	}

	return a, nil
}

// SpaceSignals implements WriteAdapter.SpaceSignals.
func (a *writeAdapter) SpaceSignals() (*sequence.Sequence[bool], error) {
	if !atomic.CompareAndSwapInt32(&a.claimed, 0, 1) {
		return nil, cerrors.ErrBusy
	}
	return a.space, nil
}

// Write implements WriteAdapter.Write.
func (a *writeAdapter) Write(p []byte) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.IsClosed() || a.sink.Status() != streamio.StateOpen {
		return 0, cerrors.ErrNotOpen
	}

	// No space right now: plain no-op. The previous write already emitted
	// the false signal, so emitting another would be a spurious wakeup.
	if !a.sink.HasSpaceAvailable() {
		a.updateStats(func(s *Stats) { s.WriteCalls++ })
		return 0, nil
	}

	written := 0
	var writeErr error
	for written < len(p) && a.sink.HasSpaceAvailable() {
		n, err := a.sink.Write(p[written:])
		written += n
		if err != nil {
			if errors.Is(err, streamio.ErrWouldBlock) {
				break
			}
			writeErr = err
			break
		}
		if n == 0 {
			break
		}
	}

	a.updateStats(func(s *Stats) {
		s.WriteCalls++
		s.BytesWritten += int64(written)
		if written > 0 {
			s.LastWriteTime = time.Now()
		}
		if writeErr == nil && written < len(p) {
			s.PartialWrites++
		}
	})
	if written > 0 && a.config.OnWrite != nil {
		a.config.OnWrite(written)
	}

	if writeErr != nil {
		if serr := a.sink.Err(); serr != nil {
			writeErr = serr
		} else {
			writeErr = cerrors.ErrWrite
		}
		if a.config.OnError != nil {
			a.config.OnError(writeErr)
		}
		return written, writeErr
	}

	if !a.sink.HasSpaceAvailable() {
		a.signalLocked(false)
	}

	return written, nil
}

// WriteAll implements WriteAdapter.WriteAll. Each attempt writes what the
// sink accepts; when the buffer is not fully consumed the call suspends
// until the next space-available event rather than spinning on the hint.
func (a *writeAdapter) WriteAll(ctx context.Context, p []byte) error {
	for len(p) > 0 {
		n, err := a.Write(p)
		if err != nil {
			return err
		}
		p = p[n:]
		if len(p) == 0 {
			break
		}

		select {
		case <-a.spaceCh:
		case <-a.terminal:
			return a.terminalError()
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// AttachProducer implements WriteAdapter.AttachProducer. Replacement is
// strictly sequential: the new task starts only after the previous one has
// fully stopped, and detaching waits for natural completion rather than
// aborting a write mid-flight.
func (a *writeAdapter) AttachProducer(ctx context.Context, src sequence.Source[[]byte]) error {
	a.producerMu.Lock()
	defer a.producerMu.Unlock()

	if a.producerDone != nil {
		select {
		case <-a.producerDone:
			a.producerDone = nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if src == nil {
		return nil
	}
	if a.IsClosed() {
		return cerrors.ErrNotOpen
	}

	done := make(chan struct{})
	a.producerDone = done
	a.updateStats(func(s *Stats) { s.ProducerSwaps++ })
	go a.runProducer(ctx, src, done)

	return nil
}

// runProducer pulls chunks from src and drives them through WriteAll until
// the input is exhausted or a write fails. Write failures stop the task
// without propagating; callers needing failure visibility use Write or
// WriteAll directly, or the OnError hook.
func (a *writeAdapter) runProducer(ctx context.Context, src sequence.Source[[]byte], done chan struct{}) {
	defer close(done)

	for {
		chunk, ok, err := src.Next(ctx)
		if err != nil {
			if a.config.OnError != nil && !errors.Is(err, context.Canceled) {
				a.config.OnError(err)
			}
			return
		}
		if !ok {
			return
		}
		if err := a.WriteAll(ctx, chunk); err != nil {
			return
		}
	}
}

// IsClosed implements WriteAdapter.IsClosed.
func (a *writeAdapter) IsClosed() bool {
	return atomic.LoadInt32(&a.closed) != 0
}

// Stats implements WriteAdapter.Stats.
func (a *writeAdapter) Stats() Stats {
	a.statsMu.RLock()
	defer a.statsMu.RUnlock()
	return a.stats
}

// Close implements WriteAdapter.Close.
func (a *writeAdapter) Close() error {
	if !atomic.CompareAndSwapInt32(&a.closed, 0, 1) {
		return nil // Already closed
	}

	// Unregister before closing the handle so no event fires into a
	// partially torn-down adapter.
	a.sink.SetHandler(nil)
	err := a.sink.Close()

	a.mu.Lock()
	if a.termErr == nil {
		a.termErr = a.sink.Err()
	}
	termErr := a.termErr
	a.mu.Unlock()

	a.termOnce.Do(func() { close(a.terminal) })
	a.space.Finish(termErr)

	return err
}

// handleEvent runs on the sink's notifier goroutine, one event at a time.
func (a *writeAdapter) handleEvent(ev streamio.Event) {
	switch ev.Kind {
	case streamio.EventSpaceAvailable:
		a.mu.Lock()
		a.signalLocked(true)
		a.mu.Unlock()

		// Wake one suspended WriteAll. The latch holds a single token;
		// a stale token only costs the waiter one extra no-op attempt.
		select {
		case a.spaceCh <- struct{}{}:
		default:
		}
	case streamio.EventError:
		a.finish(ev.Err)
	case streamio.EventEnd:
		a.finish(nil)
	case streamio.EventOpened, streamio.EventBytesAvailable:
		// Not meaningful on the write side.
	}
}

// finish records the terminal condition, terminates the space-signal
// sequence, and wakes any suspended WriteAll.
func (a *writeAdapter) finish(evErr error) {
	a.mu.Lock()
	if a.termErr == nil {
		a.termErr = evErr
		if a.termErr == nil {
			a.termErr = a.sink.Err()
		}
	}
	termErr := a.termErr
	a.mu.Unlock()

	if termErr != nil && a.config.OnError != nil {
		a.config.OnError(termErr)
	}
	a.termOnce.Do(func() { close(a.terminal) })
	a.space.Finish(termErr)
}

// signalLocked emits a space-available signal, suppressing a false that
// would repeat the previously emitted false. Signals conflate under a slow
// subscriber, so emission never blocks the monitor.
func (a *writeAdapter) signalLocked(available bool) {
	if !available {
		if a.lastSignal == signalFalse {
			return
		}
		a.lastSignal = signalFalse
		a.updateStats(func(s *Stats) { s.BackpressureSignals++ })
		if a.config.OnBackpressure != nil {
			a.config.OnBackpressure()
		}
		a.space.TryYield(false)
		return
	}
	a.lastSignal = signalTrue
	a.space.TryYield(true)
}

// terminalError maps the terminal condition to the caller-facing error: the
// sink's recorded error when one exists, otherwise ErrNotOpen (the sink is
// simply gone).
func (a *writeAdapter) terminalError() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.termErr != nil {
		return a.termErr
	}
	return cerrors.ErrNotOpen
}

// updateStats safely updates statistics.
func (a *writeAdapter) updateStats(updater func(*Stats)) {
	a.statsMu.Lock()
	defer a.statsMu.Unlock()
	updater(&a.stats)
}
