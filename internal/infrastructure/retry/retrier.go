// Package retry wraps cenkalti/backoff with an attempt cap.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

// Retrier runs an operation with exponential backoff.
type Retrier struct {
	maxAttempts     int
	initialInterval time.Duration
	maxInterval     time.Duration
	maxElapsedTime  time.Duration
	retryable       func(error) bool
	logger          zerolog.Logger
}

// Option configures a Retrier.
type Option func(*Retrier)

// WithMaxAttempts caps the number of calls, the first one included.
func WithMaxAttempts(n int) Option {
	return func(r *Retrier) {
		r.maxAttempts = max(n, 1)
	}
}

// WithInitialInterval sets the delay before the first retry.
func WithInitialInterval(d time.Duration) Option {
	return func(r *Retrier) {
		r.initialInterval = d
	}
}

// WithMaxInterval caps the delay between retries.
func WithMaxInterval(d time.Duration) Option {
	return func(r *Retrier) {
		r.maxInterval = d
	}
}

// WithRetryable limits retries to errors accepted by fn.
func WithRetryable(fn func(error) bool) Option {
	return func(r *Retrier) {
		r.retryable = fn
	}
}

// WithLogger logs each failed attempt.
func WithLogger(logger zerolog.Logger) Option {
	return func(r *Retrier) {
		r.logger = logger
	}
}

// New creates a Retrier with three attempts starting two seconds apart.
func New(opts ...Option) *Retrier {
	r := &Retrier{
		maxAttempts:     3,
		initialInterval: 2 * time.Second,
		maxInterval:     10 * time.Second,
		maxElapsedTime:  time.Minute,
		retryable:       func(error) bool { return true },
		logger:          zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Retry executes operation until it succeeds, returns a non-retryable
// error, runs out of attempts or ctx is done.
func (r *Retrier) Retry(ctx context.Context, operation func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.initialInterval
	b.MaxInterval = r.maxInterval
	b.MaxElapsedTime = r.maxElapsedTime

	attempt := 0

	return backoff.Retry(func() error {
		attempt++
		err := operation()
		if err == nil {
			return nil
		}

		if !r.retryable(err) || attempt >= r.maxAttempts {
			return backoff.Permanent(err)
		}

		r.logger.Warn().
			Err(err).
			Int("attempt", attempt).
			Int("max_attempts", r.maxAttempts).
			Msg("operation failed, retrying")

		return err
	}, backoff.WithContext(b, ctx))
}
