// internal/config/config.go
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/llehouerou/pulsar/internal/engine"
)

type Config struct {
	Engine EngineConfig `koanf:"engine"`
}

// EngineConfig tunes the playback engine. Zero values fall through to
// the engine's own defaults.
type EngineConfig struct {
	PollIntervalMs      int `koanf:"poll_interval_ms"`       // clock cadence (default 250)
	SeekToleranceMs     int `koanf:"seek_tolerance_ms"`      // seek confirmation tolerance (default 2000)
	SeekConfirmWindowMs int `koanf:"seek_confirm_window_ms"` // max wait for confirmation (default 300)

	RetryMaxAttempts int   `koanf:"retry_max_attempts"` // transient-load retry cap (default 3)
	RetryBackoffMs   int   `koanf:"retry_backoff_ms"`   // linear backoff unit (default 500)
	TransientRetry   *bool `koanf:"transient_retry"`    // override the platform fingerprint

	FormatFallback []string `koanf:"format_fallback"` // decode order when no hint given
	Volume         *float64 `koanf:"volume"`          // starting level 0.0-1.0 (default 1.0)
}

func Load() (*Config, error) {
	return load(configPaths())
}

func load(paths []string) (*Config, error) {
	k := koanf.New(".")

	// Try config files in order of priority (last wins)
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, err
			}
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func configPaths() []string {
	paths := []string{
		filepath.Join(xdg.ConfigHome, "pulsar", "config.toml"),
	}
	// ./config.toml (pwd, highest priority)
	paths = append(paths, "config.toml")
	return paths
}

// EngineOptions translates the config into engine options, leaving
// unset fields at zero so the engine applies its defaults.
func (c *Config) EngineOptions() engine.Options {
	ec := c.Engine
	return engine.Options{
		PollInterval:      time.Duration(ec.PollIntervalMs) * time.Millisecond,
		SeekTolerance:     time.Duration(ec.SeekToleranceMs) * time.Millisecond,
		SeekConfirmWindow: time.Duration(ec.SeekConfirmWindowMs) * time.Millisecond,
		RetryMaxAttempts:  ec.RetryMaxAttempts,
		RetryBackoff:      time.Duration(ec.RetryBackoffMs) * time.Millisecond,
		TransientRetry:    ec.TransientRetry,
		FormatFallback:    ec.FormatFallback,
		InitialVolume:     ec.Volume,
	}
}
