package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
)

const readChunkSize = 64 * 1024

var ErrIncomplete = errors.New("stream: source closed inside a message")

// Records reads src to the end and yields every record in stream order.
// Decode failures are yielded with the record's Err as the second value and
// the sequence continues unless the reassembler stops on error. Read errors,
// cancellation and trailing partial bytes at EOF end the sequence with a
// final error. Each iteration starts from a reset reassembler.
func (r *Reassembler) Records(ctx context.Context, src io.Reader) iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		r.Reset()
		buf := make([]byte, readChunkSize)
		for {
			if err := ctx.Err(); err != nil {
				r.Reset()
				yield(Record{}, err)
				return
			}
			n, readErr := src.Read(buf)
			if n > 0 {
				recs, err := r.Ingest(buf[:n])
				for _, rec := range recs {
					if !yield(rec, rec.Err) {
						return
					}
				}
				if err != nil {
					return
				}
			}
			if errors.Is(readErr, io.EOF) {
				if left := len(r.buf); left > 0 {
					yield(Record{}, fmt.Errorf("%w: %d bytes buffered", ErrIncomplete, left))
				}
				return
			}
			if readErr != nil {
				yield(Record{}, readErr)
				return
			}
		}
	}
}
