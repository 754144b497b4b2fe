package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/danmuck/dltkit/internal/config"
	"github.com/danmuck/dltkit/internal/dlt"
	"github.com/danmuck/dltkit/internal/dlt/stream"
	"github.com/danmuck/dltkit/internal/observability"
	"github.com/danmuck/dltkit/internal/server"
	"github.com/danmuck/dltkit/internal/source"
	"github.com/rs/zerolog/log"
)

type options struct {
	configPath  string
	file        string
	addr        string
	columns     string
	mtin        string
	stopOnError bool
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "viewer config path (toml)")
	flag.StringVar(&opts.file, "file", "", "stored .dlt file to decode")
	flag.StringVar(&opts.addr, "addr", "", "daemon address host:port to follow")
	flag.StringVar(&opts.columns, "columns", "", "comma separated output columns")
	flag.StringVar(&opts.mtin, "mtin", "", "comma separated message type info filter, e.g. INFO,WARN")
	flag.BoolVar(&opts.stopOnError, "stop-on-error", false, "abort on the first decode error")
	flag.Parse()

	observability.InitLogger("dltcat")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "dltcat: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, out io.Writer) error {
	viewer := config.DefaultViewerConfig()
	if opts.configPath != "" {
		loaded, err := config.LoadViewerConfig(opts.configPath)
		if err != nil {
			return err
		}
		viewer = loaded
		log.Info().Str("path", opts.configPath).Msg("loaded viewer config")
	}
	formatCfg, err := loadFormatConfig(opts.configPath)
	if err != nil {
		return err
	}
	if err := applyFlags(&viewer, &formatCfg, opts); err != nil {
		return err
	}

	formatter, err := stream.NewFormatter(formatCfg)
	if err != nil {
		return err
	}
	src, err := newSource(viewer.Source, formatter, writeSink(out))
	if err != nil {
		return err
	}

	if viewer.Metrics.Enabled {
		status := server.Appear(viewer.Name, viewer.Metrics.Addr, viewer.Metrics.CorsOrigins, src)
		go func() {
			if err := status.Serve(ctx); err != nil {
				log.Error().Err(err).Str("addr", viewer.Metrics.Addr).Msg("status server stopped")
			}
		}()
	}
	return src.Run(ctx)
}

// applyFlags lets command line flags win over the config file.
func applyFlags(viewer *config.ViewerConfig, formatCfg *stream.Config, opts options) error {
	if opts.file != "" && opts.addr != "" {
		return fmt.Errorf("-file and -addr are mutually exclusive")
	}
	if opts.file != "" {
		viewer.Source.Mode = config.SourceModeFile
		viewer.Source.File = opts.file
	}
	if opts.addr != "" {
		viewer.Source.Mode = config.SourceModeLive
		viewer.Source.Addr = opts.addr
	}
	if cols := splitList(opts.columns); len(cols) > 0 {
		parsed, err := stream.ParseColumns(cols)
		if err != nil {
			return err
		}
		formatCfg.Columns = parsed
	}
	if names := splitList(opts.mtin); len(names) > 0 {
		filter, err := parseMTINFilter(names)
		if err != nil {
			return err
		}
		formatCfg.MTINFilter = filter
	}
	if opts.stopOnError {
		formatCfg.StopOnError = true
	}

	switch viewer.Source.Mode {
	case config.SourceModeLive:
		formatCfg.Mode = stream.ModeLive
	default:
		formatCfg.Mode = stream.ModeFile
	}
	return nil
}

func newSource(cfg config.SourceConfig, formatter *stream.Formatter, sink source.Sink) (source.Source, error) {
	if cfg.Mode == config.SourceModeLive {
		daemonCfg := source.DaemonConfig{
			Address:            cfg.Addr,
			DialTimeout:        cfg.DialTimeout(),
			Backoff:            source.BackoffFromConfig(cfg.Backoff),
			MaxConnectAttempts: cfg.MaxConnectAttempts,
		}
		return source.NewDaemon(daemonCfg, formatter, sink)
	}
	if strings.TrimSpace(cfg.File) == "" {
		return nil, fmt.Errorf("no input: set -file, -addr or source.file")
	}
	return source.NewFile(cfg.File, formatter, sink)
}

func writeSink(out io.Writer) source.Sink {
	return func(n int, chunk stream.Chunk) error {
		observability.RecordChunk(n, chunk)
		for _, err := range chunk.Errors {
			log.Warn().Str("code", string(dlt.CodeOf(err))).Err(err).Msg("decode error")
		}
		if len(chunk.Output) == 0 {
			return nil
		}
		_, err := out.Write(chunk.Output)
		return err
	}
}
