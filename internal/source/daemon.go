package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"strings"
	"time"

	"github.com/danmuck/dltkit/internal/dlt/stream"
	"github.com/rs/zerolog/log"
)

var ErrAddressRequired = errors.New("source: daemon address required")

type DaemonConfig struct {
	Address     string
	DialTimeout time.Duration
	Backoff     BackoffConfig
	// MaxConnectAttempts bounds consecutive failed dials; zero retries forever.
	MaxConnectAttempts int
}

func DefaultDaemonConfig() DaemonConfig {
	return DaemonConfig{
		DialTimeout: 5 * time.Second,
		Backoff:     DefaultBackoffConfig(),
	}
}

// Dialer opens the daemon connection.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Daemon follows a live daemon connection and reconnects when it drops.
type Daemon struct {
	cfg       DaemonConfig
	formatter *stream.Formatter
	sink      Sink
	dialer    Dialer
	rng       *rand.Rand
	tracker   *tracker
}

var _ Source = (*Daemon)(nil)

func NewDaemon(cfg DaemonConfig, f *stream.Formatter, sink Sink) (*Daemon, error) {
	cfg.Address = strings.TrimSpace(cfg.Address)
	if cfg.Address == "" {
		return nil, ErrAddressRequired
	}
	if sink == nil {
		return nil, ErrSinkRequired
	}
	return &Daemon{
		cfg:       cfg,
		formatter: f,
		sink:      sink,
		dialer:    &net.Dialer{Timeout: cfg.DialTimeout},
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
		tracker:   newTracker("daemon", cfg.Address),
	}, nil
}

// WithDialer replaces the TCP dialer.
func (d *Daemon) WithDialer(dialer Dialer) *Daemon {
	d.dialer = dialer
	return d
}

// Run dials, streams and redials until ctx ends, the formatter stops on a
// decode error, the sink fails, or MaxConnectAttempts dials fail in a row.
func (d *Daemon) Run(ctx context.Context) error {
	var attempt int
	for {
		attempt++
		conn, err := d.dialer.DialContext(ctx, "tcp", d.cfg.Address)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Warn().Int("attempt", attempt).Str("addr", d.cfg.Address).Err(err).Msg("daemon dial failed")
			if !d.shouldRetry(attempt) {
				return fmt.Errorf("source: dial %s: %w", d.cfg.Address, err)
			}
			if err := d.sleepBackoff(ctx, attempt); err != nil {
				return err
			}
			continue
		}

		attempt = 0
		err = d.serve(ctx, conn)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !isDisconnect(err) {
			return err
		}
		log.Warn().Str("addr", d.cfg.Address).Err(err).Msg("daemon connection closed")
		if err := d.sleepBackoff(ctx, 1); err != nil {
			return err
		}
	}
}

func (d *Daemon) serve(ctx context.Context, conn net.Conn) error {
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() {
		_ = conn.Close()
	})
	defer stop()

	d.formatter.Reset()
	id := d.tracker.begin()
	defer d.tracker.end()
	log.Info().Str("session", id).Str("addr", d.cfg.Address).Msg("daemon connected")

	err := pump(ctx, conn, d.formatter, d.sink, d.tracker)
	if ctx.Err() != nil {
		d.formatter.Reset()
	}
	return err
}

func isDisconnect(err error) bool {
	var netErr net.Error
	return errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) || errors.As(err, &netErr)
}

func (d *Daemon) shouldRetry(attempt int) bool {
	if d.cfg.MaxConnectAttempts <= 0 {
		return true
	}
	return attempt < d.cfg.MaxConnectAttempts
}

func (d *Daemon) sleepBackoff(ctx context.Context, attempt int) error {
	delay := NextBackoffDelay(d.cfg.Backoff, attempt, d.rng)
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (d *Daemon) Stats() Stats {
	return d.tracker.snapshot()
}
