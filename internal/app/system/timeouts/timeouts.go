// Package timeouts provides the deadlines applied to request-scoped work.
//
// Handlers wrap each service call with context.WithTimeout using one of
// these classes:
//   - Ping: health checks
//   - Short: single-document lookups and writes (check, get, exists, vote)
//   - Medium: list queries and counts
//   - Long: operations that also wait on SMTP (sending credentials)
//   - Batch: CSV imports
//
// Values come from the votehub config at startup via Configure.
package timeouts

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Default timeout values (used if Configure is not called).
const (
	DefaultPing   = 2 * time.Second
	DefaultShort  = 5 * time.Second
	DefaultMedium = 10 * time.Second
	DefaultLong   = 30 * time.Second
	DefaultBatch  = 60 * time.Second
)

// Config holds timeout configuration values.
// Zero values are ignored (defaults are kept).
type Config struct {
	Ping   time.Duration
	Short  time.Duration
	Medium time.Duration
	Long   time.Duration
	Batch  time.Duration
}

func defaults() *Config {
	return &Config{
		Ping:   DefaultPing,
		Short:  DefaultShort,
		Medium: DefaultMedium,
		Long:   DefaultLong,
		Batch:  DefaultBatch,
	}
}

var current atomic.Pointer[Config]

func init() {
	current.Store(defaults())
}

func Ping() time.Duration   { return current.Load().Ping }
func Short() time.Duration  { return current.Load().Short }
func Medium() time.Duration { return current.Load().Medium }
func Long() time.Duration   { return current.Load().Long }
func Batch() time.Duration  { return current.Load().Batch }

// Configure overrides the non-zero values in cfg. Call it during startup
// before handlers are registered.
func Configure(cfg Config) {
	next := *current.Load()
	if cfg.Ping > 0 {
		next.Ping = cfg.Ping
	}
	if cfg.Short > 0 {
		next.Short = cfg.Short
	}
	if cfg.Medium > 0 {
		next.Medium = cfg.Medium
	}
	if cfg.Long > 0 {
		next.Long = cfg.Long
	}
	if cfg.Batch > 0 {
		next.Batch = cfg.Batch
	}
	current.Store(&next)
}

// Reset restores all timeouts to their default values.
func Reset() {
	current.Store(defaults())
}

// Current returns the active configuration, for logging.
func Current() Config {
	return *current.Load()
}

// WithTimeout creates a context with timeout and returns a cancel function that
// logs a warning if the context was canceled due to deadline exceeded.
//
//	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Batch(), h.Log, "voter csv import")
//	defer cancel()
func WithTimeout(parent context.Context, timeout time.Duration, log *zap.Logger, operation string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parent, timeout)
	return ctx, func() {
		if ctx.Err() == context.DeadlineExceeded && log != nil {
			log.Warn("operation timed out",
				zap.String("operation", operation),
				zap.Duration("timeout", timeout),
			)
		}
		cancel()
	}
}
