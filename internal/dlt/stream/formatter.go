package stream

import (
	"errors"
	"strings"
	"time"

	"github.com/danmuck/dltkit/internal/dlt"
)

// Entry is one packet that passed the MTIN filter, with its rendered line.
type Entry struct {
	Packet  *dlt.Packet
	Storage *dlt.StorageHeader
	Line    string
}

// Aggregator turns the entries of one Ingest call into output bytes.
type Aggregator func(entries []Entry) []byte

// Config is fixed for the lifetime of a Formatter.
type Config struct {
	Mode               Mode
	StopOnError        bool
	Columns            []Column
	ColumnsDelimiter   string
	ArgumentsDelimiter string
	// MTINFilter is an allow-list; empty allows everything. Packets without
	// an extended header always pass.
	MTINFilter []dlt.MessageTypeInfo
	Datetime   bool
	Location   *time.Location
	Aggregator Aggregator
}

func DefaultConfig() Config {
	return Config{
		Mode:               ModeFile,
		Columns:            append([]Column(nil), DefaultColumns...),
		ColumnsDelimiter:   " ",
		ArgumentsDelimiter: " ",
		Location:           time.UTC,
	}
}

// Chunk is the outcome of one Formatter.Ingest call.
type Chunk struct {
	Entries  []Entry
	Errors   []error
	Filtered int
	// Output is the aggregator result, or the lines joined by newlines.
	Output []byte

	TotalBytes   uint64
	TotalPackets uint64
}

// Lines returns the rendered line of every entry.
func (c Chunk) Lines() []string {
	out := make([]string, len(c.Entries))
	for i, e := range c.Entries {
		out[i] = e.Line
	}
	return out
}

// Formatter renders decoded packets as delimited text.
type Formatter struct {
	cfg    Config
	filter map[dlt.MessageTypeInfo]struct{}
	r      *Reassembler
}

var ErrNoColumns = errors.New("stream: no columns configured")

func NewFormatter(cfg Config) (*Formatter, error) {
	cols := append([]Column(nil), cfg.Columns...)
	if len(cols) == 0 {
		return nil, ErrNoColumns
	}
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = string(c)
	}
	cols, err := ParseColumns(names)
	if err != nil {
		return nil, err
	}
	cfg.Columns = cols
	cfg.MTINFilter = append([]dlt.MessageTypeInfo(nil), cfg.MTINFilter...)

	f := &Formatter{cfg: cfg, r: NewReassembler(cfg.Mode, cfg.StopOnError)}
	if len(cfg.MTINFilter) > 0 {
		f.filter = make(map[dlt.MessageTypeInfo]struct{}, len(cfg.MTINFilter))
		for _, m := range cfg.MTINFilter {
			f.filter[m] = struct{}{}
		}
	}
	return f, nil
}

// Config returns a copy of the configuration.
func (f *Formatter) Config() Config {
	cfg := f.cfg
	cfg.Columns = append([]Column(nil), f.cfg.Columns...)
	cfg.MTINFilter = append([]dlt.MessageTypeInfo(nil), f.cfg.MTINFilter...)
	return cfg
}

// Ingest feeds chunk through the reassembler and renders every packet that
// passes the filter. Filtered packets are still counted in TotalPackets.
func (f *Formatter) Ingest(chunk []byte) (Chunk, error) {
	recs, stopErr := f.r.Ingest(chunk)
	var out Chunk
	for _, rec := range recs {
		if rec.Err != nil {
			out.Errors = append(out.Errors, rec.Err)
			continue
		}
		if !f.allowed(rec.Packet) {
			out.Filtered++
			continue
		}
		out.Entries = append(out.Entries, Entry{
			Packet:  rec.Packet,
			Storage: rec.Storage,
			Line:    f.render(rec.Packet, rec.Storage),
		})
	}
	totals := f.r.Totals()
	out.TotalBytes = totals.Bytes
	out.TotalPackets = totals.Packets
	if f.cfg.Aggregator != nil {
		out.Output = f.cfg.Aggregator(out.Entries)
	} else if len(out.Entries) > 0 {
		out.Output = []byte(strings.Join(out.Lines(), "\n") + "\n")
	}
	return out, stopErr
}

func (f *Formatter) allowed(p *dlt.Packet) bool {
	if f.filter == nil || p.Extended == nil {
		return true
	}
	_, ok := f.filter[p.Extended.MTIN]
	return ok
}

// Format renders a single packet with the configured columns.
func (f *Formatter) Format(p *dlt.Packet, s *dlt.StorageHeader) string {
	return f.render(p, s)
}

func (f *Formatter) Totals() Totals {
	return f.r.Totals()
}

// Reset discards buffered bytes and counters.
func (f *Formatter) Reset() {
	f.r.Reset()
}

// Buffered returns the number of bytes waiting for the rest of a message.
func (f *Formatter) Buffered() int {
	return len(f.r.buf)
}
