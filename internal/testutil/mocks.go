package testutil

import (
	"bytes"
	"sync"

	"github.com/vnykmshr/streambridge/pkg/streamio"
)

// ScriptedSource is a streamio.Source double with full manual control over
// payloads and event delivery. Each buffered payload is returned by exactly
// one Read call, so tests can script precise read-per-notification shapes.
type ScriptedSource struct {
	mu       sync.Mutex
	notifier *streamio.Notifier
	state    streamio.State
	err      error
	pending  [][]byte
}

// NewScriptedSource creates an unopened ScriptedSource.
func NewScriptedSource() *ScriptedSource {
	return &ScriptedSource{notifier: streamio.NewNotifier()}
}

// Open implements streamio.Stream.
func (s *ScriptedSource) Open() error {
	s.mu.Lock()
	if s.state != streamio.StateUnopened {
		s.mu.Unlock()
		return streamio.ErrAlreadyOpen
	}
	s.state = streamio.StateOpen
	s.mu.Unlock()
	s.notifier.Start()
	s.notifier.Enqueue(streamio.Event{Kind: streamio.EventOpened})
	return nil
}

// Close implements streamio.Stream.
func (s *ScriptedSource) Close() error {
	s.mu.Lock()
	s.state = streamio.StateClosed
	s.mu.Unlock()
	s.notifier.Stop()
	return nil
}

// Status implements streamio.Stream.
func (s *ScriptedSource) Status() streamio.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err implements streamio.Stream.
func (s *ScriptedSource) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// SetHandler implements streamio.Stream.
func (s *ScriptedSource) SetHandler(h streamio.Handler) {
	s.notifier.SetHandler(h)
}

// Read implements streamio.Source. It returns the next buffered payload,
// truncated to len(p), one payload per call.
func (s *ScriptedSource) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != streamio.StateOpen && s.state != streamio.StateEnd {
		if s.err != nil {
			return 0, s.err
		}
		return 0, streamio.ErrNotOpen
	}
	if len(s.pending) == 0 {
		return 0, nil
	}
	payload := s.pending[0]
	n := copy(p, payload)
	if n < len(payload) {
		s.pending[0] = payload[n:]
	} else {
		s.pending = s.pending[1:]
	}
	return n, nil
}

// HasBytesAvailable implements streamio.Source.
func (s *ScriptedSource) HasBytesAvailable() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending) > 0
}

// Buffer queues a payload without emitting an event.
func (s *ScriptedSource) Buffer(b []byte) {
	s.mu.Lock()
	s.pending = append(s.pending, append([]byte(nil), b...))
	s.mu.Unlock()
}

// Notify emits a single bytes-available event.
func (s *ScriptedSource) Notify() {
	s.notifier.Enqueue(streamio.Event{Kind: streamio.EventBytesAvailable})
}

// Deliver queues a payload and emits one bytes-available event.
func (s *ScriptedSource) Deliver(b []byte) {
	s.Buffer(b)
	s.Notify()
}

// End emits a clean end-of-stream event.
func (s *ScriptedSource) End() {
	s.mu.Lock()
	s.state = streamio.StateEnd
	s.mu.Unlock()
	s.notifier.Enqueue(streamio.Event{Kind: streamio.EventEnd})
}

// FailWith records err and emits an error event.
func (s *ScriptedSource) FailWith(err error) {
	s.mu.Lock()
	s.state = streamio.StateError
	s.err = err
	s.mu.Unlock()
	s.notifier.Enqueue(streamio.Event{Kind: streamio.EventError, Err: err})
}

// ScriptedSink is a streamio.Sink double with a fixed acceptance budget.
// Writes accept bytes until the budget is exhausted; Drain refills it and
// optionally announces the new space, letting tests script exact
// bytes-per-readiness-cycle behavior.
type ScriptedSink struct {
	mu       sync.Mutex
	notifier *streamio.Notifier
	state    streamio.State
	err      error
	buf      bytes.Buffer
	capacity int
	free     int
	writes   int
}

// NewScriptedSink creates an unopened ScriptedSink accepting up to capacity
// bytes before it reports itself full.
func NewScriptedSink(capacity int) *ScriptedSink {
	return &ScriptedSink{
		notifier: streamio.NewNotifier(),
		capacity: capacity,
		free:     capacity,
	}
}

// Open implements streamio.Stream. No initial space event is emitted; tests
// script every notification explicitly.
func (s *ScriptedSink) Open() error {
	s.mu.Lock()
	if s.state != streamio.StateUnopened {
		s.mu.Unlock()
		return streamio.ErrAlreadyOpen
	}
	s.state = streamio.StateOpen
	s.mu.Unlock()
	s.notifier.Start()
	s.notifier.Enqueue(streamio.Event{Kind: streamio.EventOpened})
	return nil
}

// Close implements streamio.Stream.
func (s *ScriptedSink) Close() error {
	s.mu.Lock()
	s.state = streamio.StateClosed
	s.mu.Unlock()
	s.notifier.Stop()
	return nil
}

// Status implements streamio.Stream.
func (s *ScriptedSink) Status() streamio.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err implements streamio.Stream.
func (s *ScriptedSink) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// SetHandler implements streamio.Stream.
func (s *ScriptedSink) SetHandler(h streamio.Handler) {
	s.notifier.SetHandler(h)
}

// Write implements streamio.Sink.
func (s *ScriptedSink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes++
	if s.state != streamio.StateOpen {
		if s.err != nil {
			return 0, s.err
		}
		return 0, streamio.ErrNotOpen
	}
	if s.err != nil {
		return 0, s.err
	}
	if s.free == 0 {
		return 0, streamio.ErrWouldBlock
	}
	n := len(p)
	if n > s.free {
		n = s.free
	}
	s.buf.Write(p[:n])
	s.free -= n
	return n, nil
}

// HasSpaceAvailable implements streamio.Sink.
func (s *ScriptedSink) HasSpaceAvailable() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == streamio.StateOpen && s.err == nil && s.free > 0
}

// Drain refills up to n bytes of acceptance budget and emits a
// space-available event.
func (s *ScriptedSink) Drain(n int) {
	s.mu.Lock()
	s.free += n
	if s.free > s.capacity {
		s.free = s.capacity
	}
	s.mu.Unlock()
	s.notifier.Enqueue(streamio.Event{Kind: streamio.EventSpaceAvailable})
}

// AnnounceSpace emits a space-available event without changing the budget.
func (s *ScriptedSink) AnnounceSpace() {
	s.notifier.Enqueue(streamio.Event{Kind: streamio.EventSpaceAvailable})
}

// End emits a clean end event.
func (s *ScriptedSink) End() {
	s.mu.Lock()
	s.state = streamio.StateEnd
	s.mu.Unlock()
	s.notifier.Enqueue(streamio.Event{Kind: streamio.EventEnd})
}

// FailWith records err and emits an error event.
func (s *ScriptedSink) FailWith(err error) {
	s.mu.Lock()
	s.state = streamio.StateError
	s.err = err
	s.mu.Unlock()
	s.notifier.Enqueue(streamio.Event{Kind: streamio.EventError, Err: err})
}

// Bytes returns everything the sink accepted so far.
func (s *ScriptedSink) Bytes() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.buf.Bytes()...)
}

// Len returns the number of accepted bytes.
func (s *ScriptedSink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Len()
}

// WriteCount returns the number of Write calls observed.
func (s *ScriptedSink) WriteCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}
