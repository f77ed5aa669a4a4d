// Package retry provides a deterministic exponential backoff wrapper for
// transient provider failures.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Config controls the retry schedule.
type Config struct {
	// MaxAttempts is the total number of attempts, including the first.
	// Default: 3.
	MaxAttempts int `yaml:"max_attempts"`

	// BaseDelay is the delay before the first retry. Each subsequent retry
	// doubles it (base, 2*base, 4*base, ...). Default: 1 second.
	BaseDelay time.Duration `yaml:"base_delay"`
}

// DefaultConfig returns the default retry schedule.
func DefaultConfig() Config {
	return Config{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
	}
}

// Validate checks the configuration for invalid values.
func (c Config) Validate() error {
	if c.MaxAttempts < 1 {
		return fmt.Errorf("max_attempts must be at least 1, got %d", c.MaxAttempts)
	}
	if c.BaseDelay < 0 {
		return fmt.Errorf("base_delay cannot be negative, got %v", c.BaseDelay)
	}
	return nil
}

// permanentError marks an error that should not be retried.
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent wraps err so Do stops retrying and returns it immediately.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Do runs op until it succeeds, the attempts are exhausted, ctx is
// cancelled, or op returns a Permanent error. The delay before retry n
// (1-based) is BaseDelay * 2^(n-1), with no jitter so the schedule is
// predictable in tests and logs.
//
// The last error from op is returned, unwrapped from any Permanent marker.
func Do[T any](ctx context.Context, cfg Config, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	if err := cfg.Validate(); err != nil {
		return zero, err
	}

	var lastErr error
	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		if attempt > 0 {
			delay := cfg.BaseDelay << (attempt - 1)
			slog.Debug("retrying operation",
				"attempt", attempt+1,
				"max_attempts", cfg.MaxAttempts,
				"delay", delay,
			)
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(delay):
			}
		}

		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		var perm *permanentError
		if errors.As(err, &perm) {
			return zero, perm.err
		}
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}

		slog.Warn("operation failed",
			"attempt", attempt+1,
			"max_attempts", cfg.MaxAttempts,
			"error", err,
		)
	}

	return zero, lastErr
}
