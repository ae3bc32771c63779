package reader

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	cerrors "github.com/vnykmshr/streambridge/pkg/common/errors"
	"github.com/vnykmshr/streambridge/pkg/sequence"
	"github.com/vnykmshr/streambridge/pkg/streamio"
)

// ReadAdapter converts a readable, event-driven stream into a pull-based
// asynchronous sequence of byte chunks.
type ReadAdapter interface {
	// Subscribe returns the adapter's chunk sequence. The sequence is built
	// once for the adapter's lifetime and supports exactly one subscriber;
	// a second call returns ErrBusy.
	Subscribe() (*sequence.Sequence[[]byte], error)

	// Stats returns statistics about the adapter's activity.
	Stats() Stats

	// IsClosed returns true if the adapter is closed.
	IsClosed() bool

	// Close tears the adapter down: it unregisters the event delegate,
	// terminates the chunk sequence with the source's last error, if any,
	// and closes the source. Idempotent.
	Close() error
}

// Stats holds statistics about read adapter activity.
type Stats struct {
	// ChunksYielded is the number of chunks delivered to the subscriber.
	ChunksYielded int64

	// BytesRead is the total number of bytes read from the source.
	BytesRead int64

	// Drains is the number of bytes-available notifications processed.
	Drains int64

	// ReadCalls is the number of calls to the source's read primitive.
	ReadCalls int64

	// LastChunkTime is the timestamp of the last yielded chunk.
	LastChunkTime time.Time
}

// Config holds configuration options for a ReadAdapter.
type Config struct {
	// ReadBufferSize is the size of the scratch buffer used per read call.
	// Default: 4KB.
	ReadBufferSize int

	// ChunkBufferSize is the number of chunks the sequence buffers before
	// draining applies backpressure to the event loop. Default: 16.
	ChunkBufferSize int

	// OnChunk is called for each chunk yielded to the subscriber.
	OnChunk func(chunk []byte)

	// OnError is called when the source reports a terminal error.
	OnError func(error)
}

// DefaultConfig returns a default configuration.
func DefaultConfig() Config {
	return Config{
		ReadBufferSize:  4 * 1024,
		ChunkBufferSize: 16,
	}
}

// readAdapter implements ReadAdapter.
type readAdapter struct {
	src    streamio.Source
	config Config

	chunks  *sequence.Sequence[[]byte]
	claimed int32 // atomic
	closed  int32 // atomic

	// mu serializes event processing against Close and guards the fields
	// below. Chunk yields happen outside mu so a slow subscriber can never
	// wedge teardown.
	mu      sync.Mutex
	readBuf []byte
	termErr error

	stats   Stats
	statsMu sync.RWMutex
}

// New creates a ReadAdapter with default configuration. The source must be
// unopened: the adapter opens it and registers for its events.
func New(src streamio.Source) (ReadAdapter, error) {
	return NewWithConfig(src, DefaultConfig())
}

// NewWithConfig creates a ReadAdapter with the specified configuration.
func NewWithConfig(src streamio.Source, config Config) (ReadAdapter, error) {
	if src == nil {
		return nil, errors.New("reader: nil source")
	}
	if config.ReadBufferSize <= 0 {
		config.ReadBufferSize = DefaultConfig().ReadBufferSize
	}
	if config.ChunkBufferSize <= 0 {
		config.ChunkBufferSize = DefaultConfig().ChunkBufferSize
	}

	a := &readAdapter{
		src:     src,
		config:  config,
		chunks:  sequence.New[[]byte](config.ChunkBufferSize),
		readBuf: make([]byte, config.ReadBufferSize),
	}

	src.SetHandler(a.handleEvent)
	if err := src.Open(); err != nil {
		src.SetHandler(nil)
		return nil, err
	}

	return a, nil
}

// Subscribe implements ReadAdapter.Subscribe.
func (a *readAdapter) Subscribe() (*sequence.Sequence[[]byte], error) {
	if !atomic.CompareAndSwapInt32(&a.claimed, 0, 1) {
		return nil, cerrors.ErrBusy
	}
	return a.chunks, nil
}

// IsClosed implements ReadAdapter.IsClosed.
func (a *readAdapter) IsClosed() bool {
	return atomic.LoadInt32(&a.closed) != 0
}

// Stats implements ReadAdapter.Stats.
func (a *readAdapter) Stats() Stats {
	a.statsMu.RLock()
	defer a.statsMu.RUnlock()
	return a.stats
}

// Close implements ReadAdapter.Close.
func (a *readAdapter) Close() error {
	if !atomic.CompareAndSwapInt32(&a.closed, 0, 1) {
		return nil // Already closed
	}

	// Unregister before closing the handle so no event fires into a
	// partially torn-down adapter.
	a.src.SetHandler(nil)

	// Finish the sequence before closing the source: Stream.Close waits out
	// any in-flight delivery, and a drain blocked yielding to a lagging
	// subscriber only unblocks once the sequence terminates.
	a.mu.Lock()
	termErr := a.termErr
	a.mu.Unlock()
	if termErr == nil {
		termErr = a.src.Err()
	}
	a.chunks.Finish(termErr)

	return a.src.Close()
}

// handleEvent runs on the source's notifier goroutine, one event at a time.
func (a *readAdapter) handleEvent(ev streamio.Event) {
	switch ev.Kind {
	case streamio.EventBytesAvailable:
		a.drain()
	case streamio.EventError:
		a.finish(ev.Err)
	case streamio.EventEnd:
		a.finish(nil)
	case streamio.EventOpened, streamio.EventSpaceAvailable:
		// Not meaningful on the read side.
	}
}

// drain is invoked once per bytes-available notification. It reads while the
// source hints bytes are available, coalescing everything read into a single
// chunk, and yields that chunk once. A read returning 0 means "nothing more
// right now", not an error; stopping there avoids busy-looping when the hint
// and reality disagree.
func (a *readAdapter) drain() {
	a.mu.Lock()
	if a.IsClosed() {
		a.mu.Unlock()
		return
	}

	var chunk []byte
	var readErr error
	reads := int64(0)
	for a.src.HasBytesAvailable() {
		n, err := a.src.Read(a.readBuf)
		reads++
		if n > 0 {
			chunk = append(chunk, a.readBuf[:n]...)
		}
		if err != nil {
			readErr = err
			break
		}
		if n == 0 {
			break
		}
	}
	if readErr != nil {
		a.termErr = readErr
	}
	a.mu.Unlock()

	a.updateStats(func(s *Stats) {
		s.Drains++
		s.ReadCalls += reads
		s.BytesRead += int64(len(chunk))
	})

	if len(chunk) > 0 {
		if a.config.OnChunk != nil {
			a.config.OnChunk(chunk)
		}
		if a.chunks.Yield(chunk) {
			a.updateStats(func(s *Stats) {
				s.ChunksYielded++
				s.LastChunkTime = time.Now()
			})
		}
	}

	if readErr != nil {
		if a.config.OnError != nil {
			a.config.OnError(readErr)
		}
		a.chunks.Finish(readErr)
	}
}

// finish terminates the chunk sequence with the source's recorded error.
func (a *readAdapter) finish(evErr error) {
	a.mu.Lock()
	if a.termErr == nil {
		a.termErr = evErr
		if a.termErr == nil {
			a.termErr = a.src.Err()
		}
	}
	termErr := a.termErr
	a.mu.Unlock()

	if termErr != nil && a.config.OnError != nil {
		a.config.OnError(termErr)
	}
	a.chunks.Finish(termErr)
}

// updateStats safely updates statistics.
func (a *readAdapter) updateStats(updater func(*Stats)) {
	a.statsMu.Lock()
	defer a.statsMu.Unlock()
	updater(&a.stats)
}
