// Package config defines the service configuration and how it is loaded.
package config

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects "text" or "json" log lines.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory snapshot queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of evaluation workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize bounds the snapshot id cache; <= 0 means unbounded.
	DedupeSize int `koanf:"dedupe_size"`

	// MaxLeaderboardLimit caps GET /leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// TopCacheSize is how many leaders the periodic ranking summary keeps.
	TopCacheSize int `koanf:"top_cache_size"`

	// SnapshotIntervalMS is how often the ranking summary is rebuilt.
	SnapshotIntervalMS int `koanf:"snapshot_interval_ms"`

	// IngestRatePerSec and IngestBurst throttle POST /snapshots per client.
	// A non-positive rate disables throttling.
	IngestRatePerSec float64 `koanf:"ingest_rate_per_sec"`
	IngestBurst      int     `koanf:"ingest_burst"`

	// HistoryDSN is the SQLite database for snapshot history; empty disables it.
	HistoryDSN string `koanf:"history_dsn"`

	// MaxHistoryLimit caps GET /djs/{id}/history?limit.
	MaxHistoryLimit int `koanf:"max_history_limit"`
}

// New returns a Config holding the defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		LogFormat:           "text",
		Addr:                ":9080",
		QueueSize:           100_000,
		WorkerCount:         runtime.NumCPU() * 4,
		DedupeSize:          500_000,
		MaxLeaderboardLimit: 100,
		TopCacheSize:        500,
		SnapshotIntervalMS:  1000,
		IngestRatePerSec:    0,
		IngestBurst:         100,
		HistoryDSN:          "",
		MaxHistoryLimit:     500,
	}
}

// SnapshotInterval returns SnapshotIntervalMS as a duration.
func (c *Config) SnapshotInterval() time.Duration {
	return time.Duration(c.SnapshotIntervalMS) * time.Millisecond
}

// Validate reports the first invalid setting.
func (c *Config) Validate(_ context.Context) error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.LogFormat != "text" && c.LogFormat != "json":
		return fmt.Errorf("%w: log_format %q must be text or json", ErrInvalidConfig, c.LogFormat)
	case c.MaxLeaderboardLimit < 1:
		return fmt.Errorf("%w: max_leaderboard_limit must be positive", ErrInvalidConfig)
	case c.MaxHistoryLimit < 1:
		return fmt.Errorf("%w: max_history_limit must be positive", ErrInvalidConfig)
	case c.QueueSize < 1:
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	case c.SnapshotIntervalMS < 1:
		return fmt.Errorf("%w: snapshot_interval_ms must be positive", ErrInvalidConfig)
	}
	return nil
}
