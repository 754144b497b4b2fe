package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/dltkit/internal/dlt"
	"github.com/danmuck/dltkit/internal/dlt/stream"
)

type fileConfig struct {
	Format formatTable `toml:"format"`
}

type formatTable struct {
	Columns            []string `toml:"columns"`
	ColumnsDelimiter   string   `toml:"columns_delimiter"`
	ArgumentsDelimiter string   `toml:"arguments_delimiter"`
	MTINFilter         []string `toml:"mtin_filter"`
	Datetime           bool     `toml:"datetime"`
	Timezone           string   `toml:"timezone"`
	StopOnError        bool     `toml:"stop_on_error"`
}

// loadFormatConfig overlays the [format] table of path onto stream.DefaultConfig.
func loadFormatConfig(path string) (stream.Config, error) {
	cfg := stream.DefaultConfig()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return stream.Config{}, fmt.Errorf("load format config: %w", err)
	}
	f := raw.Format

	if meta.IsDefined("format", "columns") {
		cols, err := stream.ParseColumns(f.Columns)
		if err != nil {
			return stream.Config{}, err
		}
		cfg.Columns = cols
	}

	if meta.IsDefined("format", "columns_delimiter") {
		cfg.ColumnsDelimiter = f.ColumnsDelimiter
	}

	if meta.IsDefined("format", "arguments_delimiter") {
		cfg.ArgumentsDelimiter = f.ArgumentsDelimiter
	}

	if meta.IsDefined("format", "mtin_filter") {
		filter, err := parseMTINFilter(f.MTINFilter)
		if err != nil {
			return stream.Config{}, err
		}
		cfg.MTINFilter = filter
	}

	if meta.IsDefined("format", "datetime") {
		cfg.Datetime = f.Datetime
	}

	if meta.IsDefined("format", "timezone") {
		loc, err := time.LoadLocation(strings.TrimSpace(f.Timezone))
		if err != nil {
			return stream.Config{}, fmt.Errorf("parse timezone: %w", err)
		}
		cfg.Location = loc
	}

	if meta.IsDefined("format", "stop_on_error") {
		cfg.StopOnError = f.StopOnError
	}

	return cfg, nil
}

func parseMTINFilter(names []string) ([]dlt.MessageTypeInfo, error) {
	out := make([]dlt.MessageTypeInfo, 0, len(names))
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			continue
		}
		m, err := dlt.ParseMessageTypeInfo(name)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

func splitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}
