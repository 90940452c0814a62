package letta

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"
)

// RetryConfig controls how transient request failures are retried. It is an
// immutable value; derive variants by copying.
type RetryConfig struct {
	// MaxAttempts is the total invocation budget, including the first try.
	MaxAttempts int
	// InitialBackoff is the delay after the first failed attempt.
	InitialBackoff time.Duration
	// MaxBackoff caps the exponentially growing delay.
	MaxBackoff time.Duration
	// Multiplier is the growth factor applied per attempt.
	Multiplier float64
	// Jitter scales each delay by a random factor in [0.75, 1.25) to avoid
	// synchronized retries.
	Jitter bool
}

// DefaultRetryConfig returns the standard policy: 3 attempts, 500ms initial
// backoff doubling up to 30s, with jitter.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:    DefaultMaxAttempts,
		InitialBackoff: DefaultInitialBackoff,
		MaxBackoff:     DefaultMaxBackoff,
		Multiplier:     DefaultBackoffMultiplier,
		Jitter:         true,
	}
}

// Backoff returns the delay inserted after the given zero-based attempt:
// InitialBackoff×Multiplier^attempt, capped at MaxBackoff, then scaled by
// the jitter factor when enabled.
func (c RetryConfig) Backoff(attempt int) time.Duration {
	backoff := float64(c.InitialBackoff) * math.Pow(c.Multiplier, float64(attempt))
	if ceiling := float64(c.MaxBackoff); backoff > ceiling {
		backoff = ceiling
	}
	if c.Jitter {
		backoff *= 0.75 + rand.Float64()*0.5
	}
	return time.Duration(backoff)
}

// RetryableError is implemented by errors that report whether retrying the
// failed operation may succeed. Every typed error in this package implements
// it; Retry consults the first implementation found in the error chain.
type RetryableError interface {
	error
	Retryable() bool
}

// IsRetryable reports whether err carries a retryable verdict of true.
func IsRetryable(err error) bool {
	var r RetryableError
	return errors.As(err, &r) && r.Retryable()
}

// retryDelay returns a server-directed delay from the error chain, if any
// (rate-limit responses carry one).
func retryDelay(err error) (time.Duration, bool) {
	var d interface{ RetryDelay() (time.Duration, bool) }
	if errors.As(err, &d) {
		return d.RetryDelay()
	}
	return 0, false
}

// Retry invokes op until it succeeds, fails with a non-retryable error, or
// the attempt budget is exhausted. Attempts are strictly sequential. The
// delay between attempts is the error's server-directed retry delay when it
// supplies one, else cfg.Backoff for the attempt just failed. The terminal
// error is always the last one op returned; ctx cancellation during a
// backoff wait returns ctx.Err().
func Retry[T any](ctx context.Context, cfg RetryConfig, op func(context.Context) (T, error)) (T, error) {
	var zero T
	attempts := cfg.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		if !IsRetryable(err) || attempt == attempts-1 {
			return zero, err
		}

		delay, ok := retryDelay(err)
		if !ok {
			delay = cfg.Backoff(attempt)
		}
		lastErr = err
		if err := sleepContext(ctx, delay); err != nil {
			return zero, err
		}
	}
	return zero, lastErr
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
