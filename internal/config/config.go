// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Defaults live in New; Load layers a YAML file and the environment on top.
// - Validate is run by Load and reports ErrInvalidConfig.
package config

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"
)

// Store drivers understood by the repository layer.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory submission queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of extraction workers.
	WorkerCount int `koanf:"worker_count"`

	// YearConcurrency caps concurrent season fetches per athlete on the pull path.
	YearConcurrency int `koanf:"year_concurrency"`

	// DedupeSize sets the size of the submission deduplication cache.
	DedupeSize int `koanf:"dedupe_size"`

	// StoreDriver is memory or sqlite.
	StoreDriver string `koanf:"store_driver"`

	// StoreDSN is the SQLite database path; required for the sqlite driver.
	StoreDSN string `koanf:"store_dsn"`

	// CacheTTLSeconds bounds how long computed timelines are served from cache.
	CacheTTLSeconds int `koanf:"cache_ttl_seconds"`

	// CurrentYear pins the season-best year. Zero follows the wall clock.
	CurrentYear int `koanf:"current_year"`

	// MaxPagesPerSubmission caps the pages accepted in one push.
	MaxPagesPerSubmission int `koanf:"max_pages_per_submission"`

	// SeedDir, when set, is ingested through the pull path at start-up.
	SeedDir string `koanf:"seed_dir"`
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention and is currently unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:              "info",
		LogFormat:             "text",
		Addr:                  ":9080",
		QueueSize:             1024,
		WorkerCount:           runtime.NumCPU(),
		YearConcurrency:       4,
		DedupeSize:            50_000,
		StoreDriver:           DriverMemory,
		CacheTTLSeconds:       60,
		MaxPagesPerSubmission: 64,
	}
}

// CacheTTL returns CacheTTLSeconds as a duration.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// Validate checks the values Load cannot coerce.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	switch c.StoreDriver {
	case DriverMemory:
	case DriverSQLite:
		if strings.TrimSpace(c.StoreDSN) == "" {
			return fmt.Errorf("%w: store_dsn is required for the sqlite driver", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown store_driver %q", ErrInvalidConfig, c.StoreDriver)
	}
	if c.QueueSize < 1 || c.WorkerCount < 1 || c.YearConcurrency < 1 {
		return fmt.Errorf("%w: queue_size, worker_count and year_concurrency must be positive", ErrInvalidConfig)
	}
	if c.MaxPagesPerSubmission < 1 {
		return fmt.Errorf("%w: max_pages_per_submission must be positive", ErrInvalidConfig)
	}
	if c.CacheTTLSeconds < 0 || c.CurrentYear < 0 {
		return fmt.Errorf("%w: cache_ttl_seconds and current_year must not be negative", ErrInvalidConfig)
	}
	return nil
}
