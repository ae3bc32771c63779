package streamio

import (
	"errors"
	"sync"
)

// Pipe creates a capacity-bounded, in-process byte pipe whose two endpoints
// behave like platform streams: non-blocking primitives, readiness hints,
// and asynchronous event delivery from a per-endpoint notifier goroutine.
//
// Writing signals EventBytesAvailable to the source side. Reading from a
// full pipe signals EventSpaceAvailable to the sink side. Closing the sink
// ends the stream: the source observes EventEnd once the buffered bytes are
// drained. Fail injects an error observed by both ends.
//
// Both endpoints start unopened; each is opened by whoever wraps it.
func Pipe(capacity int) (*PipeSource, *PipeSink) {
	if capacity <= 0 {
		capacity = 4096
	}
	p := &pipe{buf: make([]byte, capacity)}
	p.src = &PipeSource{end: end{p: p, notifier: NewNotifier()}}
	p.sink = &PipeSink{end: end{p: p, notifier: NewNotifier()}}
	return p.src, p.sink
}

// pipe is the shared ring buffer between the two endpoints.
type pipe struct {
	mu    sync.Mutex
	buf   []byte
	head  int
	count int

	src  *PipeSource
	sink *PipeSink

	writeClosed  bool
	endDelivered bool
	failErr      error
}

// end holds the per-endpoint state shared by PipeSource and PipeSink.
// All fields except notifier are guarded by pipe.mu.
type end struct {
	p        *pipe
	notifier *Notifier
	state    State
	err      error
}

func (e *end) open() error {
	e.p.mu.Lock()
	if e.state != StateUnopened {
		e.p.mu.Unlock()
		return ErrAlreadyOpen
	}
	e.state = StateOpen
	e.p.mu.Unlock()

	e.notifier.Start()
	e.notifier.Enqueue(Event{Kind: EventOpened})
	return nil
}

func (e *end) status() State {
	e.p.mu.Lock()
	defer e.p.mu.Unlock()
	return e.state
}

func (e *end) lastErr() error {
	e.p.mu.Lock()
	defer e.p.mu.Unlock()
	return e.err
}

// PipeSource is the readable endpoint of a Pipe.
type PipeSource struct {
	end
}

var _ Source = (*PipeSource)(nil)

// Open implements Stream.Open.
func (s *PipeSource) Open() error {
	if err := s.open(); err != nil {
		return err
	}
	s.p.mu.Lock()
	readable := s.p.count > 0
	ended := s.p.writeClosed && s.p.count == 0 && !s.p.endDelivered
	if ended {
		s.p.endDelivered = true
		s.state = StateEnd
	}
	s.p.mu.Unlock()

	if readable {
		s.notifier.Enqueue(Event{Kind: EventBytesAvailable})
	}
	if ended {
		s.notifier.Enqueue(Event{Kind: EventEnd})
	}
	return nil
}

// Read implements Source.Read. It returns 0, nil when the pipe is empty.
func (s *PipeSource) Read(b []byte) (int, error) {
	s.p.mu.Lock()
	if s.state != StateOpen && s.state != StateEnd {
		err := s.err
		s.p.mu.Unlock()
		if err != nil {
			return 0, err
		}
		return 0, ErrNotOpen
	}
	wasFull := s.p.count == len(s.p.buf)
	n := 0
	for n < len(b) && s.p.count > 0 {
		b[n] = s.p.buf[s.p.head]
		s.p.head = (s.p.head + 1) % len(s.p.buf)
		s.p.count--
		n++
	}
	freed := wasFull && n > 0
	notifySink := freed && s.p.sink.state == StateOpen
	ended := s.p.writeClosed && s.p.count == 0 && !s.p.endDelivered && n > 0
	if ended {
		s.p.endDelivered = true
		s.state = StateEnd
	}
	s.p.mu.Unlock()

	if notifySink {
		s.p.sink.notifier.Enqueue(Event{Kind: EventSpaceAvailable})
	}
	if ended {
		s.notifier.Enqueue(Event{Kind: EventEnd})
	}
	return n, nil
}

// HasBytesAvailable implements Source.HasBytesAvailable.
func (s *PipeSource) HasBytesAvailable() bool {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()
	return s.p.count > 0
}

// Status implements Stream.Status.
func (s *PipeSource) Status() State { return s.status() }

// Err implements Stream.Err.
func (s *PipeSource) Err() error { return s.lastErr() }

// SetHandler implements Stream.SetHandler.
func (s *PipeSource) SetHandler(h Handler) { s.notifier.SetHandler(h) }

// Close implements Stream.Close.
func (s *PipeSource) Close() error {
	s.p.mu.Lock()
	if s.state == StateClosed {
		s.p.mu.Unlock()
		s.notifier.Stop()
		return nil
	}
	s.state = StateClosed
	s.p.mu.Unlock()

	s.notifier.Stop()
	return nil
}

// Fail injects a stream error: both open endpoints transition to the error
// state and observe EventError. Intended for tests and fault injection.
func (s *PipeSource) Fail(err error) { s.p.fail(err) }

// PipeSink is the writable endpoint of a Pipe.
type PipeSink struct {
	end
}

var _ Sink = (*PipeSink)(nil)

// Open implements Stream.Open. A sink with free capacity announces space
// right after opening, matching platform streams that report writability as
// soon as the handle is live.
func (s *PipeSink) Open() error {
	if err := s.open(); err != nil {
		return err
	}
	s.p.mu.Lock()
	writable := s.p.count < len(s.p.buf) && s.p.failErr == nil
	s.p.mu.Unlock()

	if writable {
		s.notifier.Enqueue(Event{Kind: EventSpaceAvailable})
	}
	return nil
}

// Write implements Sink.Write. It accepts as many bytes as fit, returning
// ErrWouldBlock only when it cannot accept any.
func (s *PipeSink) Write(b []byte) (int, error) {
	s.p.mu.Lock()
	if s.state != StateOpen {
		err := s.err
		s.p.mu.Unlock()
		if err != nil {
			return 0, err
		}
		return 0, ErrNotOpen
	}
	if s.p.failErr != nil {
		err := s.p.failErr
		s.p.mu.Unlock()
		return 0, err
	}
	free := len(s.p.buf) - s.p.count
	if free == 0 {
		s.p.mu.Unlock()
		return 0, ErrWouldBlock
	}
	n := len(b)
	if n > free {
		n = free
	}
	tail := (s.p.head + s.p.count) % len(s.p.buf)
	for i := 0; i < n; i++ {
		s.p.buf[tail] = b[i]
		tail = (tail + 1) % len(s.p.buf)
	}
	s.p.count += n
	notifySrc := n > 0 && s.p.src.state == StateOpen
	s.p.mu.Unlock()

	if notifySrc {
		s.p.src.notifier.Enqueue(Event{Kind: EventBytesAvailable})
	}
	return n, nil
}

// HasSpaceAvailable implements Sink.HasSpaceAvailable.
func (s *PipeSink) HasSpaceAvailable() bool {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()
	return s.state == StateOpen && s.p.failErr == nil && s.p.count < len(s.p.buf)
}

// Status implements Stream.Status.
func (s *PipeSink) Status() State { return s.status() }

// Err implements Stream.Err.
func (s *PipeSink) Err() error { return s.lastErr() }

// SetHandler implements Stream.SetHandler.
func (s *PipeSink) SetHandler(h Handler) { s.notifier.SetHandler(h) }

// Close implements Stream.Close. Closing the sink ends the stream for the
// source: it observes EventEnd once remaining bytes are drained.
func (s *PipeSink) Close() error {
	s.p.mu.Lock()
	if s.state == StateClosed {
		s.p.mu.Unlock()
		s.notifier.Stop()
		return nil
	}
	s.state = StateClosed
	s.p.writeClosed = true
	ended := s.p.count == 0 && !s.p.endDelivered && s.p.src.state == StateOpen
	if ended {
		s.p.endDelivered = true
		s.p.src.state = StateEnd
	}
	s.p.mu.Unlock()

	if ended {
		s.p.src.notifier.Enqueue(Event{Kind: EventEnd})
	}
	s.notifier.Stop()
	return nil
}

// Fail injects a stream error; see PipeSource.Fail.
func (s *PipeSink) Fail(err error) { s.p.fail(err) }

func (p *pipe) fail(err error) {
	if err == nil {
		err = errors.New("streamio: stream failed")
	}
	p.mu.Lock()
	if p.failErr != nil {
		p.mu.Unlock()
		return
	}
	p.failErr = err
	notifySrc := p.src.state == StateOpen
	notifySink := p.sink.state == StateOpen
	if notifySrc {
		p.src.state = StateError
		p.src.err = err
	}
	if notifySink {
		p.sink.state = StateError
		p.sink.err = err
	}
	p.mu.Unlock()

	if notifySrc {
		p.src.notifier.Enqueue(Event{Kind: EventError, Err: err})
	}
	if notifySink {
		p.sink.notifier.Enqueue(Event{Kind: EventError, Err: err})
	}
}
