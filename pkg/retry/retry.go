// Package retry provides retry with exponential backoff and jitter for
// external service and database calls.
// No external dependencies - uses only standard library.
package retry

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"
)

// PermanentError marks an error that must not be retried.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }

func (e *PermanentError) Unwrap() error { return e.Err }

// Permanent wraps an error so Do stops immediately.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// IsPermanent reports whether err was wrapped with Permanent.
func IsPermanent(err error) bool {
	var p *PermanentError
	return errors.As(err, &p)
}

// Config holds retry configuration.
type Config struct {
	// MaxAttempts is the total number of attempts including the first.
	MaxAttempts int

	// InitialDelay is the delay before the first retry.
	InitialDelay time.Duration

	// MaxDelay caps the backoff.
	MaxDelay time.Duration

	// Multiplier grows the delay after each attempt.
	Multiplier float64

	// JitterFactor randomizes delays (0 = none, 1 = full jitter).
	JitterFactor float64

	// RetryIf decides whether an error is worth retrying. When nil, every
	// non-permanent error is retried.
	RetryIf func(error) bool

	// OnRetry is called before each retry, useful for logging.
	OnRetry func(attempt int, err error, delay time.Duration)
}

// DefaultConfig returns sensible defaults: 3 attempts, 500ms initial delay,
// doubling with 10% jitter, capped at 30s.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:  3,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.1,
	}
}

// Delay returns the backoff delay before the given retry attempt (1-based).
func (c Config) Delay(attempt int) time.Duration {
	d := float64(c.InitialDelay) * math.Pow(c.Multiplier, float64(attempt-1))
	if c.JitterFactor > 0 {
		jitter := d * c.JitterFactor
		d = d - jitter + rand.Float64()*2*jitter
	}
	if max := float64(c.MaxDelay); c.MaxDelay > 0 && d > max {
		d = max
	}
	return time.Duration(d)
}

// Do runs fn until it succeeds, the attempts are exhausted, the error is
// permanent, or the context is cancelled. Returns the last error.
func Do(ctx context.Context, cfg Config, fn func(ctx context.Context) error) error {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if attempt > 1 {
			delay := cfg.Delay(attempt - 1)
			if cfg.OnRetry != nil {
				cfg.OnRetry(attempt-1, lastErr, delay)
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if IsPermanent(err) {
			var p *PermanentError
			errors.As(err, &p)
			return p.Err
		}
		if cfg.RetryIf != nil && !cfg.RetryIf(err) {
			return err
		}
	}

	return lastErr
}
