// Package integration exercises both adapters end to end over an in-process
// pipe: a producer drives the write adapter while a subscriber drains the
// read adapter, with the pipe's capacity forcing real backpressure cycles.
package integration

import (
	"bytes"
	"testing"

	"go.uber.org/goleak"

	"github.com/vnykmshr/streambridge/internal/testutil"
	"github.com/vnykmshr/streambridge/pkg/adapter/reader"
	"github.com/vnykmshr/streambridge/pkg/adapter/writer"
	"github.com/vnykmshr/streambridge/pkg/sequence"
	"github.com/vnykmshr/streambridge/pkg/streamio"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestProducerToSubscriberTransfer(t *testing.T) {
	src, sink := streamio.Pipe(1024)

	readAdapter, err := reader.New(src)
	testutil.AssertNoError(t, err)
	defer func() { _ = readAdapter.Close() }()

	writeAdapter, err := writer.New(sink)
	testutil.AssertNoError(t, err)
	defer func() { _ = writeAdapter.Close() }()

	chunks, err := readAdapter.Subscribe()
	testutil.AssertNoError(t, err)

	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	// 4096 bytes through a 1024-byte pipe: the producer has to suspend and
	// resume on space signals at least three times.
	var want bytes.Buffer
	var payloads [][]byte
	for i := 0; i < 4; i++ {
		p := bytes.Repeat([]byte{'a' + byte(i)}, 1024)
		want.Write(p)
		payloads = append(payloads, p)
	}
	testutil.AssertNoError(t, writeAdapter.AttachProducer(ctx, sequence.FromSlice(payloads)))

	var got bytes.Buffer
	for got.Len() < want.Len() {
		chunk, ok, err := chunks.Next(ctx)
		testutil.AssertNoError(t, err)
		if !ok {
			t.Fatalf("sequence terminated early after %d bytes", got.Len())
		}
		got.Write(chunk)
	}
	if !bytes.Equal(got.Bytes(), want.Bytes()) {
		t.Fatal("received bytes differ from sent bytes")
	}

	// Detach waits for the producer's last write to land.
	testutil.AssertNoError(t, writeAdapter.AttachProducer(ctx, nil))

	ws := writeAdapter.Stats()
	testutil.AssertEqual(t, ws.BytesWritten, int64(4096))
	rs := readAdapter.Stats()
	testutil.AssertEqual(t, rs.BytesRead, int64(4096))
}

func TestWriterCloseEndsReader(t *testing.T) {
	src, sink := streamio.Pipe(256)

	readAdapter, err := reader.New(src)
	testutil.AssertNoError(t, err)
	defer func() { _ = readAdapter.Close() }()

	writeAdapter, err := writer.New(sink)
	testutil.AssertNoError(t, err)

	chunks, err := readAdapter.Subscribe()
	testutil.AssertNoError(t, err)

	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	testutil.AssertNoError(t, writeAdapter.WriteAll(ctx, []byte("final payload")))
	testutil.AssertNoError(t, writeAdapter.Close())

	var got bytes.Buffer
	for {
		chunk, ok, err := chunks.Next(ctx)
		testutil.AssertNoError(t, err)
		if !ok {
			break
		}
		got.Write(chunk)
	}
	testutil.AssertEqual(t, got.String(), "final payload")
}

func TestFailurePropagatesToBothAdapters(t *testing.T) {
	src, sink := streamio.Pipe(256)

	readAdapter, err := reader.New(src)
	testutil.AssertNoError(t, err)
	defer func() { _ = readAdapter.Close() }()

	writeAdapter, err := writer.New(sink)
	testutil.AssertNoError(t, err)
	defer func() { _ = writeAdapter.Close() }()

	chunks, err := readAdapter.Subscribe()
	testutil.AssertNoError(t, err)
	signals, err := writeAdapter.SpaceSignals()
	testutil.AssertNoError(t, err)

	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	sink.Fail(nil)

	// Both sequences terminate with the injected stream error.
	for {
		_, ok, err := chunks.Next(ctx)
		if !ok {
			testutil.AssertError(t, err)
			break
		}
	}
	for {
		_, ok, err := signals.Next(ctx)
		if !ok {
			testutil.AssertError(t, err)
			break
		}
	}
}
