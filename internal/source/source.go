package source

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/danmuck/dltkit/internal/dlt/stream"
	"github.com/google/uuid"
)

const readChunkSize = 64 * 1024

var ErrSinkRequired = errors.New("source: sink required")

// Sink receives the formatter result for every n bytes read.
type Sink func(n int, chunk stream.Chunk) error

// Source is a byte producer driving one formatter until it ends or ctx is cancelled.
type Source interface {
	Run(ctx context.Context) error
	Stats() Stats
}

// Stats describes the current session and counts accumulated over all sessions.
type Stats struct {
	SessionID string    `json:"session_id"`
	Kind      string    `json:"kind"`
	Target    string    `json:"target"`
	Connected bool      `json:"connected"`
	Sessions  int       `json:"sessions"`
	Started   time.Time `json:"started"`
	Bytes     uint64    `json:"bytes"`
	Packets   uint64    `json:"packets"`
	Errors    uint64    `json:"errors"`
	Filtered  uint64    `json:"filtered"`
}

type tracker struct {
	mu    sync.Mutex
	stats Stats
}

func newTracker(kind, target string) *tracker {
	return &tracker{stats: Stats{Kind: kind, Target: target}}
}

func (t *tracker) begin() string {
	id := uuid.NewString()
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stats.SessionID = id
	t.stats.Connected = true
	t.stats.Sessions++
	t.stats.Started = time.Now()
	return id
}

func (t *tracker) end() {
	t.mu.Lock()
	t.stats.Connected = false
	t.mu.Unlock()
}

func (t *tracker) add(n int, chunk stream.Chunk) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stats.Bytes += uint64(n)
	t.stats.Packets += uint64(len(chunk.Entries))
	t.stats.Errors += uint64(len(chunk.Errors))
	t.stats.Filtered += uint64(chunk.Filtered)
}

func (t *tracker) snapshot() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stats
}

// pump reads r until it fails, handing each chunk to the formatter and sink.
// A formatter stop error ends the pump; io.EOF is returned as is.
func pump(ctx context.Context, r io.Reader, f *stream.Formatter, sink Sink, st *tracker) error {
	buf := make([]byte, readChunkSize)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, readErr := r.Read(buf)
		if n > 0 {
			chunk, err := f.Ingest(buf[:n])
			st.add(n, chunk)
			if serr := sink(n, chunk); serr != nil {
				return serr
			}
			if err != nil {
				return err
			}
		}
		if readErr != nil {
			return readErr
		}
	}
}
