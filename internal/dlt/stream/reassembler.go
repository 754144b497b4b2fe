package stream

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/danmuck/dltkit/internal/dlt"
)

// Mode selects the framing of the input.
type Mode uint8

const (
	// ModeLive reads bare messages as sent by a daemon.
	ModeLive Mode = iota
	// ModeFile reads messages each prefixed by a storage header.
	ModeFile
)

func (m Mode) String() string {
	if m == ModeFile {
		return "file"
	}
	return "live"
}

var ErrStopped = errors.New("stream: stopped after decode error")

var storagePattern = []byte{'D', 'L', 'T', 0x01}

// Record is one decoded message or one decode failure, in stream order.
type Record struct {
	Packet  *dlt.Packet
	Storage *dlt.StorageHeader // file mode only
	Err     error
}

// Totals counts everything seen since construction or the last Reset.
type Totals struct {
	Bytes   uint64
	Packets uint64
	Errors  uint64
}

// Reassembler accumulates chunks and decodes complete messages.
type Reassembler struct {
	mode        Mode
	stopOnError bool

	buf     []byte
	pending *dlt.StorageHeader
	stopped error
	totals  Totals
}

func NewReassembler(mode Mode, stopOnError bool) *Reassembler {
	return &Reassembler{mode: mode, stopOnError: stopOnError}
}

func (r *Reassembler) Mode() Mode {
	return r.mode
}

// Ingest appends chunk and returns every record decodable from the buffer.
// Bytes that do not yet form a whole message stay buffered for the next call.
// With stop-on-error the first surfaced error aborts the stream: Ingest
// returns the records so far plus an error wrapping ErrStopped, and every
// later call fails until Reset.
func (r *Reassembler) Ingest(chunk []byte) ([]Record, error) {
	if r.stopped != nil {
		return nil, fmt.Errorf("%w: %w", ErrStopped, r.stopped)
	}
	r.buf = append(r.buf, chunk...)
	r.totals.Bytes += uint64(len(chunk))

	var out []Record
	for {
		rec, ok := r.next()
		if !ok {
			break
		}
		out = append(out, rec)
		if rec.Err == nil {
			r.totals.Packets++
			continue
		}
		r.totals.Errors++
		if r.stopOnError {
			r.stopped = rec.Err
			return out, fmt.Errorf("%w: %w", ErrStopped, rec.Err)
		}
	}
	r.compact()
	return out, nil
}

// next decodes one record. ok is false when more bytes are needed.
func (r *Reassembler) next() (Record, bool) {
	if r.mode == ModeFile && r.pending == nil {
		h, _, err := dlt.DecodeStorageHeader(r.buf)
		if err != nil {
			if errors.Is(err, dlt.ErrHeaderMinLen) {
				return Record{}, false
			}
			if !r.stopOnError {
				r.resync()
			}
			return Record{Err: err}, true
		}
		r.pending = &h
		r.consume(dlt.StorageHeaderLen)
	}

	n, err := dlt.PacketLength(r.buf)
	if err != nil || len(r.buf) < n {
		return Record{}, false
	}
	// LEN below the minimal header still has to move the stream forward;
	// DecodePacket reports it as HEADER_MIN_LEN.
	if n < dlt.StandardHeaderMinLen {
		n = dlt.StandardHeaderMinLen
	}
	raw := make([]byte, n)
	copy(raw, r.buf[:n])
	r.consume(n)

	storage := r.pending
	r.pending = nil
	p, err := dlt.DecodePacket(raw)
	if err != nil {
		return Record{Storage: storage, Err: err}, true
	}
	return Record{Packet: p, Storage: storage}, true
}

// resync drops bytes up to the next storage pattern. Without a match, a tail
// that could begin a pattern split across chunks is kept.
func (r *Reassembler) resync() {
	if i := dlt.NextStoragePattern(r.buf, 1); i >= 0 {
		r.consume(i)
		return
	}
	keep := 0
	for k := min(len(storagePattern)-1, len(r.buf)-1); k > 0; k-- {
		if bytes.HasPrefix(storagePattern, r.buf[len(r.buf)-k:]) {
			keep = k
			break
		}
	}
	r.consume(len(r.buf) - keep)
}

func (r *Reassembler) consume(n int) {
	r.buf = r.buf[n:]
}

func (r *Reassembler) compact() {
	if len(r.buf) == 0 {
		r.buf = nil
		return
	}
	if cap(r.buf) > 2*len(r.buf)+4096 {
		r.buf = append([]byte(nil), r.buf...)
	}
}

// Buffered returns a copy of the bytes waiting for completion.
func (r *Reassembler) Buffered() []byte {
	return append([]byte(nil), r.buf...)
}

// PendingStorage returns the storage header whose message is still incomplete.
func (r *Reassembler) PendingStorage() *dlt.StorageHeader {
	if r.pending == nil {
		return nil
	}
	h := *r.pending
	return &h
}

func (r *Reassembler) Totals() Totals {
	return r.totals
}

// Stopped reports the error that aborted the stream, if any.
func (r *Reassembler) Stopped() error {
	return r.stopped
}

// Reset drops buffered bytes, any pending storage header, the stop state and totals.
func (r *Reassembler) Reset() {
	r.buf = nil
	r.pending = nil
	r.stopped = nil
	r.totals = Totals{}
}
