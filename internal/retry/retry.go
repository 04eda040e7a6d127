// Package retry provides retry with exponential backoff and jitter for
// calls to the extraction and weather upstreams.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"
)

// Config holds retry configuration.
type Config struct {
	MaxAttempts     int              // maximum number of attempts (0 = unlimited)
	InitialDelay    time.Duration    // delay before the second attempt
	MaxDelay        time.Duration    // cap on the backoff delay
	Multiplier      float64          // backoff multiplier
	RandomizeFactor float64          // jitter factor (0-1)
	RetryIf         func(error) bool // predicate deciding if an error is retryable
}

// DefaultConfig returns a default retry configuration.
func DefaultConfig() *Config {
	return &Config{
		MaxAttempts:     3,
		InitialDelay:    100 * time.Millisecond,
		MaxDelay:        30 * time.Second,
		Multiplier:      2.0,
		RandomizeFactor: 0.1,
		RetryIf:         DefaultRetryIf,
	}
}

// Operation is a retryable operation.
type Operation func(ctx context.Context) error

// Result describes how a retried operation finished.
type Result struct {
	Attempts int
	Duration time.Duration
	Err      error // nil on success
}

// Retrier executes operations with backoff.
type Retrier struct {
	config *Config
}

// New creates a retrier, normalizing out-of-range config values.
func New(config *Config) *Retrier {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Multiplier < 1 {
		config.Multiplier = 1
	}
	if config.RandomizeFactor < 0 {
		config.RandomizeFactor = 0
	} else if config.RandomizeFactor > 1 {
		config.RandomizeFactor = 1
	}
	if config.RetryIf == nil {
		config.RetryIf = DefaultRetryIf
	}
	return &Retrier{config: config}
}

// Do executes the operation until it succeeds, exhausts its attempts, hits a
// non-retryable error, or the context is cancelled.
func (r *Retrier) Do(ctx context.Context, op Operation) *Result {
	start := time.Now()
	result := &Result{}

	var lastErr error
	delay := r.config.InitialDelay

loop:
	for attempt := 1; r.config.MaxAttempts == 0 || attempt <= r.config.MaxAttempts; attempt++ {
		result.Attempts = attempt

		if err := ctx.Err(); err != nil {
			lastErr = fmt.Errorf("context cancelled: %w", err)
			break
		}

		err := op(ctx)
		if err == nil {
			result.Duration = time.Since(start)
			return result
		}
		lastErr = err

		if !r.config.RetryIf(err) {
			break
		}
		if r.config.MaxAttempts > 0 && attempt >= r.config.MaxAttempts {
			break
		}

		select {
		case <-time.After(jitter(delay, r.config.RandomizeFactor)):
			delay = r.backoff(delay)
		case <-ctx.Done():
			lastErr = fmt.Errorf("context cancelled during retry delay: %w", ctx.Err())
			break loop
		}
	}

	result.Duration = time.Since(start)
	result.Err = lastErr
	return result
}

// jitter spreads a delay by the randomize factor in both directions.
func jitter(delay time.Duration, factor float64) time.Duration {
	if factor == 0 {
		return delay
	}
	delta := float64(delay) * factor
	return time.Duration(float64(delay) - delta + rand.Float64()*2*delta)
}

func (r *Retrier) backoff(current time.Duration) time.Duration {
	next := time.Duration(float64(current) * r.config.Multiplier)
	if next > r.config.MaxDelay {
		return r.config.MaxDelay
	}
	return next
}

// TemporaryError marks an error as retryable.
type TemporaryError struct {
	Err error
}

func (e *TemporaryError) Error() string {
	return fmt.Sprintf("temporary error: %v", e.Err)
}

func (e *TemporaryError) Unwrap() error {
	return e.Err
}

func (e *TemporaryError) Temporary() bool {
	return true
}

// PermanentError marks an error as not worth retrying.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string {
	return fmt.Sprintf("permanent error: %v", e.Err)
}

func (e *PermanentError) Unwrap() error {
	return e.Err
}

// DefaultRetryIf retries temporary errors, refuses permanent ones, and
// retries anything unclassified.
func DefaultRetryIf(err error) bool {
	if err == nil {
		return false
	}

	type temporary interface {
		Temporary() bool
	}
	var te temporary
	if errors.As(err, &te) {
		return te.Temporary()
	}

	var permErr *PermanentError
	if errors.As(err, &permErr) {
		return false
	}

	return true
}

// Retry executes the operation with the default configuration.
func Retry(ctx context.Context, op Operation) error {
	return New(DefaultConfig()).Do(ctx, op).Err
}

// RetryWithConfig executes the operation with a custom configuration.
func RetryWithConfig(ctx context.Context, config *Config, op Operation) error {
	return New(config).Do(ctx, op).Err
}

// ExponentialBackoff creates a config with exponential backoff and the
// given attempt budget.
func ExponentialBackoff(maxAttempts int) *Config {
	return &Config{
		MaxAttempts:     maxAttempts,
		InitialDelay:    100 * time.Millisecond,
		MaxDelay:        time.Minute,
		Multiplier:      2.0,
		RandomizeFactor: 0.1,
		RetryIf:         DefaultRetryIf,
	}
}
