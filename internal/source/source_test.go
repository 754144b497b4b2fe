package source

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"net"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/danmuck/dltkit/internal/dlt/stream"
	"github.com/danmuck/dltkit/internal/testutil/dlttest"
	"github.com/danmuck/dltkit/internal/testutil/testlog"
)

type collector struct {
	mu    sync.Mutex
	lines []string
	errs  []error
	bytes int
	onAdd func(lines int)
}

func (c *collector) sink(n int, chunk stream.Chunk) error {
	c.mu.Lock()
	c.bytes += n
	c.lines = append(c.lines, chunk.Lines()...)
	c.errs = append(c.errs, chunk.Errors...)
	count := len(c.lines)
	c.mu.Unlock()
	if c.onAdd != nil {
		c.onAdd(count)
	}
	return nil
}

func (c *collector) snapshot() ([]string, []error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.lines...), append([]error(nil), c.errs...)
}

func newFormatter(t *testing.T, mode stream.Mode) *stream.Formatter {
	t.Helper()
	cfg := stream.DefaultConfig()
	cfg.Mode = mode
	cfg.Columns = []stream.Column{stream.ColMCNT, stream.ColAPID, stream.ColPayload}
	f, err := stream.NewFormatter(cfg)
	if err != nil {
		t.Fatalf("new formatter: %v", err)
	}
	return f
}

func logMessage(mcnt uint8, text string) []byte {
	le := binary.LittleEndian
	return dlttest.Log(false, mcnt, 4, "APP1", "CTX1", dlttest.String(le, text, false)).Bytes()
}

func TestFileSourceReadsStoredTrace(t *testing.T) {
	testlog.Start(t)
	var trace bytes.Buffer
	trace.Write(dlttest.Stored(1600000000, 100, "ECU1", logMessage(1, "one")))
	trace.Write(dlttest.Stored(1600000001, 200, "ECU1", logMessage(2, "two")))
	path := filepath.Join(t.TempDir(), "trace.dlt")
	if err := os.WriteFile(path, trace.Bytes(), 0o600); err != nil {
		t.Fatalf("write trace: %v", err)
	}

	var c collector
	src, err := NewFile(path, newFormatter(t, stream.ModeFile), c.sink)
	if err != nil {
		t.Fatalf("new file source: %v", err)
	}
	if err := src.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	lines, errs := c.snapshot()
	if len(errs) != 0 {
		t.Fatalf("unexpected decode errors: %v", errs)
	}
	want := []string{"1 APP1 one", "2 APP1 two"}
	if len(lines) != len(want) || lines[0] != want[0] || lines[1] != want[1] {
		t.Fatalf("lines=%q want %q", lines, want)
	}
	stats := src.Stats()
	if stats.Packets != 2 || stats.Bytes != uint64(trace.Len()) || stats.Connected || stats.SessionID == "" {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestFileSourceTruncatedTrace(t *testing.T) {
	testlog.Start(t)
	full := dlttest.Stored(1600000000, 0, "ECU1", logMessage(1, "cut"))
	path := filepath.Join(t.TempDir(), "trace.dlt")
	if err := os.WriteFile(path, full[:len(full)-3], 0o600); err != nil {
		t.Fatalf("write trace: %v", err)
	}
	var c collector
	src, err := NewFile(path, newFormatter(t, stream.ModeFile), c.sink)
	if err != nil {
		t.Fatalf("new file source: %v", err)
	}
	if err := src.Run(context.Background()); !errors.Is(err, stream.ErrIncomplete) {
		t.Fatalf("expected ErrIncomplete, got %v", err)
	}
}

func TestFileSourceValidation(t *testing.T) {
	testlog.Start(t)
	f := newFormatter(t, stream.ModeFile)
	var c collector
	if _, err := NewFile(" ", f, c.sink); !errors.Is(err, ErrPathRequired) {
		t.Fatalf("expected ErrPathRequired, got %v", err)
	}
	if _, err := NewFile("x.dlt", f, nil); !errors.Is(err, ErrSinkRequired) {
		t.Fatalf("expected ErrSinkRequired, got %v", err)
	}
	src, err := NewFile(filepath.Join(t.TempDir(), "missing.dlt"), f, c.sink)
	if err != nil {
		t.Fatalf("new file source: %v", err)
	}
	if err := src.Run(context.Background()); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func listenOrSkip(t *testing.T) net.Listener {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("listen unavailable: %v", err)
	}
	return ln
}

func TestDaemonReconnectsAndResetsPerConnection(t *testing.T) {
	testlog.Start(t)
	ln := listenOrSkip(t)
	defer ln.Close()

	second := logMessage(2, "again")
	first := append(logMessage(1, "hello"), second[:5]...)
	go func() {
		for _, payload := range [][]byte{first, second} {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			_, _ = conn.Write(payload)
			_ = conn.Close()
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c := collector{onAdd: func(lines int) {
		if lines >= 2 {
			cancel()
		}
	}}
	cfg := DefaultDaemonConfig()
	cfg.Address = ln.Addr().String()
	cfg.Backoff = BackoffConfig{InitialDelay: time.Millisecond, Multiplier: 2, MaxDelay: 10 * time.Millisecond}
	d, err := NewDaemon(cfg, newFormatter(t, stream.ModeLive), c.sink)
	if err != nil {
		t.Fatalf("new daemon: %v", err)
	}

	if err := d.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	lines, errs := c.snapshot()
	if len(errs) != 0 {
		t.Fatalf("unexpected decode errors: %v", errs)
	}
	if len(lines) != 2 || lines[0] != "1 APP1 hello" || lines[1] != "2 APP1 again" {
		t.Fatalf("unexpected lines: %q", lines)
	}
	if stats := d.Stats(); stats.Sessions != 2 || stats.Kind != "daemon" {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

type failingDialer struct {
	mu    sync.Mutex
	calls int
}

var errRefused = errors.New("connection refused")

func (f *failingDialer) DialContext(context.Context, string, string) (net.Conn, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return nil, errRefused
}

func TestDaemonGivesUpAfterMaxAttempts(t *testing.T) {
	testlog.Start(t)
	var c collector
	cfg := DaemonConfig{
		Address:            "127.0.0.1:3490",
		Backoff:            BackoffConfig{InitialDelay: time.Millisecond, Multiplier: 2},
		MaxConnectAttempts: 3,
	}
	dialer := &failingDialer{}
	d, err := NewDaemon(cfg, newFormatter(t, stream.ModeLive), c.sink)
	if err != nil {
		t.Fatalf("new daemon: %v", err)
	}
	err = d.WithDialer(dialer).Run(context.Background())
	if !errors.Is(err, errRefused) {
		t.Fatalf("expected dial error, got %v", err)
	}
	if dialer.calls != 3 {
		t.Fatalf("expected 3 dial attempts, got %d", dialer.calls)
	}
}

func TestDaemonStopsOnDecodeError(t *testing.T) {
	testlog.Start(t)
	client, server := net.Pipe()
	defer server.Close()
	go func() {
		// LEN=4 with an extended header flag fails decoding.
		_, _ = server.Write([]byte{0x21, 0x00, 0x00, 0x04})
	}()

	cfg := stream.DefaultConfig()
	cfg.Mode = stream.ModeLive
	cfg.StopOnError = true
	f, err := stream.NewFormatter(cfg)
	if err != nil {
		t.Fatalf("new formatter: %v", err)
	}
	var c collector
	d, err := NewDaemon(DaemonConfig{Address: "pipe"}, f, c.sink)
	if err != nil {
		t.Fatalf("new daemon: %v", err)
	}
	d.WithDialer(pipeDialer{conn: client})
	if err := d.Run(context.Background()); !errors.Is(err, stream.ErrStopped) {
		t.Fatalf("expected ErrStopped, got %v", err)
	}
	if _, errs := c.snapshot(); len(errs) != 1 {
		t.Fatalf("expected one decode error, got %v", errs)
	}
}

type pipeDialer struct {
	conn net.Conn
}

func (p pipeDialer) DialContext(context.Context, string, string) (net.Conn, error) {
	return p.conn, nil
}

func TestDaemonValidation(t *testing.T) {
	testlog.Start(t)
	var c collector
	if _, err := NewDaemon(DaemonConfig{}, newFormatter(t, stream.ModeLive), c.sink); !errors.Is(err, ErrAddressRequired) {
		t.Fatalf("expected ErrAddressRequired, got %v", err)
	}
}
