package streamio

import (
	"bytes"
	"errors"
	"testing"
	"time"
)

func TestPipeOpenOnce(t *testing.T) {
	src, sink := Pipe(16)
	defer func() { _ = src.Close() }()
	defer func() { _ = sink.Close() }()

	if err := src.Open(); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := src.Open(); !errors.Is(err, ErrAlreadyOpen) {
		t.Fatalf("second Open = %v, want ErrAlreadyOpen", err)
	}
	if src.Status() != StateOpen {
		t.Fatalf("Status = %v, want open", src.Status())
	}
}

func TestPipeWriteBeforeOpen(t *testing.T) {
	src, sink := Pipe(16)
	defer func() { _ = src.Close() }()
	defer func() { _ = sink.Close() }()

	if _, err := sink.Write([]byte("x")); !errors.Is(err, ErrNotOpen) {
		t.Fatalf("Write before Open = %v, want ErrNotOpen", err)
	}
}

func TestPipeCapacityAccounting(t *testing.T) {
	src, sink := Pipe(8)
	defer func() { _ = src.Close() }()
	defer func() { _ = sink.Close() }()
	mustOpen(t, sink)

	n, err := sink.Write([]byte("abcdef"))
	if err != nil || n != 6 {
		t.Fatalf("Write = %d, %v", n, err)
	}

	// Only two bytes of capacity remain; the write is partial.
	n, err = sink.Write([]byte("ghij"))
	if err != nil || n != 2 {
		t.Fatalf("partial Write = %d, %v", n, err)
	}
	if sink.HasSpaceAvailable() {
		t.Fatal("full pipe should hint no space")
	}

	// A full pipe refuses further bytes with ErrWouldBlock.
	if _, err = sink.Write([]byte("k")); !errors.Is(err, ErrWouldBlock) {
		t.Fatalf("Write into full pipe = %v, want ErrWouldBlock", err)
	}
}

func TestPipeReadWriteRoundTrip(t *testing.T) {
	src, sink := Pipe(4)
	defer func() { _ = src.Close() }()
	defer func() { _ = sink.Close() }()
	mustOpen(t, sink)
	mustOpen(t, src)

	payload := []byte("hello, stream")
	var got bytes.Buffer
	written := 0
	for written < len(payload) {
		n, err := sink.Write(payload[written:])
		if err != nil && !errors.Is(err, ErrWouldBlock) {
			t.Fatalf("Write: %v", err)
		}
		written += n

		buf := make([]byte, 8)
		rn, err := src.Read(buf)
		if err != nil {
			t.Fatalf("Read: %v", err)
		}
		got.Write(buf[:rn])
	}
	for {
		buf := make([]byte, 8)
		rn, err := src.Read(buf)
		if err != nil {
			t.Fatalf("Read: %v", err)
		}
		if rn == 0 {
			break
		}
		got.Write(buf[:rn])
	}

	if !bytes.Equal(got.Bytes(), payload) {
		t.Fatalf("round trip mismatch: got %q", got.Bytes())
	}
}

func TestPipeWriteSignalsBytesAvailable(t *testing.T) {
	src, sink := Pipe(16)
	defer func() { _ = src.Close() }()
	defer func() { _ = sink.Close() }()

	rec := &eventRecorder{}
	src.SetHandler(rec.handler)
	mustOpen(t, src)
	mustOpen(t, sink)

	if _, err := sink.Write([]byte("data")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	waitFor(t, func() bool {
		for _, k := range rec.kinds() {
			if k == EventBytesAvailable {
				return true
			}
		}
		return false
	})
}

func TestPipeReadFromFullSignalsSpaceAvailable(t *testing.T) {
	src, sink := Pipe(4)
	defer func() { _ = src.Close() }()
	defer func() { _ = sink.Close() }()

	rec := &eventRecorder{}
	sink.SetHandler(rec.handler)
	mustOpen(t, sink)
	mustOpen(t, src)

	if _, err := sink.Write([]byte("full")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	// One space event from Open; none yet from reading.
	buf := make([]byte, 2)
	if _, err := src.Read(buf); err != nil {
		t.Fatalf("Read: %v", err)
	}

	waitFor(t, func() bool {
		count := 0
		for _, k := range rec.kinds() {
			if k == EventSpaceAvailable {
				count++
			}
		}
		return count >= 2
	})
}

func TestPipeSinkCloseEndsSource(t *testing.T) {
	src, sink := Pipe(16)
	defer func() { _ = src.Close() }()

	rec := &eventRecorder{}
	src.SetHandler(rec.handler)
	mustOpen(t, src)
	mustOpen(t, sink)

	if _, err := sink.Write([]byte("tail")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	_ = sink.Close()

	// End arrives only after the buffered bytes are drained.
	time.Sleep(5 * time.Millisecond)
	for _, k := range rec.kinds() {
		if k == EventEnd {
			t.Fatal("EventEnd delivered before the pipe was drained")
		}
	}

	buf := make([]byte, 16)
	n, err := src.Read(buf)
	if err != nil || n != 4 {
		t.Fatalf("Read = %d, %v", n, err)
	}

	waitFor(t, func() bool {
		for _, k := range rec.kinds() {
			if k == EventEnd {
				return true
			}
		}
		return false
	})
	if src.Status() != StateEnd {
		t.Fatalf("Status = %v, want end", src.Status())
	}
}

func TestPipeFailNotifiesBothEnds(t *testing.T) {
	src, sink := Pipe(16)
	defer func() { _ = src.Close() }()
	defer func() { _ = sink.Close() }()

	srcRec := &eventRecorder{}
	sinkRec := &eventRecorder{}
	src.SetHandler(srcRec.handler)
	sink.SetHandler(sinkRec.handler)
	mustOpen(t, src)
	mustOpen(t, sink)

	boom := errors.New("boom")
	sink.Fail(boom)

	for _, rec := range []*eventRecorder{srcRec, sinkRec} {
		waitFor(t, func() bool {
			for _, ev := range rec.kinds() {
				if ev == EventError {
					return true
				}
			}
			return false
		})
	}
	if !errors.Is(src.Err(), boom) || !errors.Is(sink.Err(), boom) {
		t.Fatalf("recorded errors = %v / %v, want boom", src.Err(), sink.Err())
	}
	if _, err := sink.Write([]byte("x")); !errors.Is(err, boom) {
		t.Fatalf("Write after Fail = %v, want boom", err)
	}
}

func TestPipeSinkOpenAnnouncesSpace(t *testing.T) {
	_, sink := Pipe(16)
	defer func() { _ = sink.Close() }()

	rec := &eventRecorder{}
	sink.SetHandler(rec.handler)
	mustOpen(t, sink)

	waitFor(t, func() bool {
		for _, k := range rec.kinds() {
			if k == EventSpaceAvailable {
				return true
			}
		}
		return false
	})
}

func mustOpen(t *testing.T, s Stream) {
	t.Helper()
	if err := s.Open(); err != nil {
		t.Fatalf("Open: %v", err)
	}
}
