package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

const (
	SourceModeFile = "file"
	SourceModeLive = "live"
)

type ViewerConfig struct {
	Name    string        `toml:"name"`
	Source  SourceConfig  `toml:"source"`
	Metrics MetricsConfig `toml:"metrics"`
}

type SourceConfig struct {
	Mode               string        `toml:"mode"`
	File               string        `toml:"file"`
	Addr               string        `toml:"addr"`
	DialTimeoutMS      int64         `toml:"dial_timeout_ms"`
	MaxConnectAttempts int           `toml:"max_connect_attempts"`
	Backoff            BackoffConfig `toml:"backoff"`
}

type BackoffConfig struct {
	InitialDelayMS int64   `toml:"initial_delay_ms"`
	Multiplier     float64 `toml:"multiplier"`
	MaxDelayMS     int64   `toml:"max_delay_ms"`
	Jitter         bool    `toml:"jitter"`
}

type MetricsConfig struct {
	Enabled     bool     `toml:"enabled"`
	Addr        string   `toml:"addr"`
	CorsOrigins []string `toml:"cors_origins"`
}

func DefaultViewerConfig() ViewerConfig {
	return ViewerConfig{
		Name: "dltcat",
		Source: SourceConfig{
			Mode:          SourceModeFile,
			Addr:          "127.0.0.1:3490",
			DialTimeoutMS: 5000,
			Backoff: BackoffConfig{
				InitialDelayMS: 250,
				Multiplier:     2.0,
				MaxDelayMS:     5000,
				Jitter:         true,
			},
		},
		Metrics: MetricsConfig{
			Addr: "127.0.0.1:9464",
		},
	}
}

// LoadViewerConfig overlays the file at path onto the defaults.
func LoadViewerConfig(path string) (ViewerConfig, error) {
	cfg := DefaultViewerConfig()
	if err := loadToml(path, &cfg); err != nil {
		return ViewerConfig{}, err
	}
	cfg.Source.Mode = strings.ToLower(strings.TrimSpace(cfg.Source.Mode))
	if strings.TrimSpace(cfg.Name) == "" {
		cfg.Name = "dltcat"
	}
	if err := ValidateViewerConfig(cfg); err != nil {
		return ViewerConfig{}, err
	}
	return cfg, nil
}

func loadToml(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := toml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return nil
}

func ValidateViewerConfig(cfg ViewerConfig) error {
	if err := ValidateSourceConfig(cfg.Source); err != nil {
		return fmt.Errorf("source invalid: %w", err)
	}
	if cfg.Metrics.Enabled && strings.TrimSpace(cfg.Metrics.Addr) == "" {
		return fmt.Errorf("metrics addr required when metrics are enabled")
	}
	return nil
}

func ValidateSourceConfig(cfg SourceConfig) error {
	switch cfg.Mode {
	case SourceModeFile:
		// the file path may still come from the command line
	case SourceModeLive:
		if strings.TrimSpace(cfg.Addr) == "" {
			return fmt.Errorf("addr is required in live mode")
		}
	default:
		return fmt.Errorf("unknown mode %q", cfg.Mode)
	}
	if cfg.DialTimeoutMS < 0 {
		return fmt.Errorf("dial_timeout_ms must not be negative")
	}
	if cfg.MaxConnectAttempts < 0 {
		return fmt.Errorf("max_connect_attempts must not be negative")
	}
	b := cfg.Backoff
	if b.InitialDelayMS < 0 || b.MaxDelayMS < 0 {
		return fmt.Errorf("backoff delays must not be negative")
	}
	if b.Multiplier != 0 && b.Multiplier < 1 {
		return fmt.Errorf("backoff multiplier must be >= 1")
	}
	if b.MaxDelayMS > 0 && b.MaxDelayMS < b.InitialDelayMS {
		return fmt.Errorf("backoff max_delay_ms below initial_delay_ms")
	}
	return nil
}

func (s SourceConfig) DialTimeout() time.Duration {
	return time.Duration(s.DialTimeoutMS) * time.Millisecond
}

func (b BackoffConfig) InitialDelay() time.Duration {
	return time.Duration(b.InitialDelayMS) * time.Millisecond
}

func (b BackoffConfig) MaxDelay() time.Duration {
	return time.Duration(b.MaxDelayMS) * time.Millisecond
}
