package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/danmuck/dltkit/internal/dlt/stream"
	"github.com/rs/zerolog/log"
)

var ErrPathRequired = errors.New("source: file path required")

// File replays a stored trace once.
type File struct {
	path      string
	formatter *stream.Formatter
	sink      Sink
	tracker   *tracker
}

var _ Source = (*File)(nil)

func NewFile(path string, f *stream.Formatter, sink Sink) (*File, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, ErrPathRequired
	}
	if sink == nil {
		return nil, ErrSinkRequired
	}
	return &File{path: path, formatter: f, sink: sink, tracker: newTracker("file", path)}, nil
}

// Run reads the whole file. Bytes left over at the end are reported as
// stream.ErrIncomplete.
func (s *File) Run(ctx context.Context) error {
	fh, err := os.Open(s.path)
	if err != nil {
		return fmt.Errorf("source: open %s: %w", s.path, err)
	}
	defer fh.Close()

	s.formatter.Reset()
	id := s.tracker.begin()
	defer s.tracker.end()
	log.Info().Str("session", id).Str("file", s.path).Msg("file source opened")

	err = pump(ctx, fh, s.formatter, s.sink, s.tracker)
	switch {
	case errors.Is(err, io.EOF):
		if left := s.formatter.Buffered(); left > 0 {
			return fmt.Errorf("%w: %d bytes buffered", stream.ErrIncomplete, left)
		}
		stats := s.tracker.snapshot()
		log.Info().
			Str("session", id).
			Uint64("bytes", stats.Bytes).
			Uint64("packets", stats.Packets).
			Uint64("errors", stats.Errors).
			Msg("file source done")
		return nil
	case ctx.Err() != nil:
		s.formatter.Reset()
		return ctx.Err()
	default:
		return err
	}
}

func (s *File) Stats() Stats {
	return s.tracker.snapshot()
}
