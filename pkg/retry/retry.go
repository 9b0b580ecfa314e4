// Package retry implements bounded retries with exponential backoff and jitter.
// Its main consumer is the optimistic-concurrency loop around store
// compare-and-swap writes: on a version conflict the whole read-modify-write
// is re-run with fresh state. No external dependencies - uses only standard library.
package retry

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// Config holds retry behavior.
type Config struct {
	// MaxAttempts counts the first try as attempt one. Default 3.
	MaxAttempts int

	// BaseDelay is the delay before the first retry. Default 20ms.
	BaseDelay time.Duration

	// MaxDelay caps the backoff. Default 2s.
	MaxDelay time.Duration

	// Multiplier grows the delay between attempts. Default 2.0.
	Multiplier float64

	// Jitter randomizes each delay by +-Jitter fraction. Default 0.2.
	Jitter float64

	// RetryIf decides whether an error is worth another attempt.
	// A nil RetryIf retries every error.
	RetryIf func(error) bool

	// OnRetry is called before sleeping, once per failed attempt.
	OnRetry func(attempt int, err error, delay time.Duration)
}

// DefaultConfig returns defaults tuned for in-process CAS conflicts,
// which resolve quickly or not at all.
func DefaultConfig() Config {
	return Config{
		MaxAttempts: 3,
		BaseDelay:   20 * time.Millisecond,
		MaxDelay:    2 * time.Second,
		Multiplier:  2.0,
		Jitter:      0.2,
	}
}

// Option mutates a Config.
type Option func(*Config)

// WithMaxAttempts sets the attempt budget.
func WithMaxAttempts(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.MaxAttempts = n
		}
	}
}

// WithBaseDelay sets the first retry delay.
func WithBaseDelay(d time.Duration) Option {
	return func(c *Config) {
		if d > 0 {
			c.BaseDelay = d
		}
	}
}

// WithMaxDelay caps the backoff delay.
func WithMaxDelay(d time.Duration) Option {
	return func(c *Config) {
		if d > 0 {
			c.MaxDelay = d
		}
	}
}

// WithRetryIf restricts which errors are retried.
func WithRetryIf(fn func(error) bool) Option {
	return func(c *Config) {
		c.RetryIf = fn
	}
}

// WithOnRetry registers a per-retry callback, e.g. for logging.
func WithOnRetry(fn func(attempt int, err error, delay time.Duration)) Option {
	return func(c *Config) {
		c.OnRetry = fn
	}
}

// Retrier runs operations under a retry Config.
type Retrier struct {
	cfg Config
}

// New builds a Retrier from DefaultConfig plus options.
func New(opts ...Option) *Retrier {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Retrier{cfg: cfg}
}

// Do runs op until it succeeds, exhausts the attempt budget, fails with a
// non-retryable error, or the context is canceled. The last error is returned.
func (r *Retrier) Do(ctx context.Context, op func(ctx context.Context) error) error {
	var lastErr error

	for attempt := 1; attempt <= r.cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return lastErr
			}
			return err
		}

		err := op(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if r.cfg.RetryIf != nil && !r.cfg.RetryIf(err) {
			return err
		}
		if attempt == r.cfg.MaxAttempts {
			return err
		}

		delay := r.delay(attempt)
		if r.cfg.OnRetry != nil {
			r.cfg.OnRetry(attempt, err, delay)
		}

		select {
		case <-ctx.Done():
			return lastErr
		case <-time.After(delay):
		}
	}

	return lastErr
}

// delay computes the backoff for the given attempt with jitter applied.
func (r *Retrier) delay(attempt int) time.Duration {
	backoff := float64(r.cfg.BaseDelay) * math.Pow(r.cfg.Multiplier, float64(attempt-1))
	if max := float64(r.cfg.MaxDelay); backoff > max {
		backoff = max
	}
	if r.cfg.Jitter > 0 {
		span := backoff * r.cfg.Jitter
		backoff = backoff - span + rand.Float64()*2*span
	}
	if backoff < 0 {
		backoff = 0
	}
	return time.Duration(backoff)
}
