/*
Package sequence provides the asynchronous sequence primitive shared by the
stream adapters: a single-subscriber, buffered sequence of values that is
terminated at most once, optionally with an error.

The producer side (owned by an adapter) yields values and finishes the
sequence; the consumer side pulls:

	seq := sequence.New[[]byte](16)

	// producer
	seq.Yield(chunk)
	seq.Finish(nil) // clean end

	// consumer
	for {
		v, ok, err := seq.Next(ctx)
		if !ok {
			// err is the terminal stream error, nil on clean end
			break
		}
		use(v)
	}

Source is the matching pull contract for feeding values into an adapter
(producer attachment); FromSlice, FromChannel and FromSequence build Sources
from common shapes.
*/
package sequence
