// Package circuitbreaker implements the circuit breaker pattern. It guards the
// best-effort leaderboard projection: when Redis is down, XP writes must keep
// succeeding without paying a timeout on every call.
// No external dependencies - uses only standard library.
package circuitbreaker

import (
	"context"
	"errors"
	"sync"
	"time"
)

// State is the breaker state.
type State int

const (
	// StateClosed lets requests through.
	StateClosed State = iota
	// StateOpen rejects requests until the cooldown passes.
	StateOpen
	// StateHalfOpen lets a single probe through to test recovery.
	StateHalfOpen
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrOpen is returned without running the operation while the breaker is open.
var ErrOpen = errors.New("circuit breaker is open")

// Config holds breaker behavior.
type Config struct {
	// Name identifies the breaker in logs.
	Name string

	// FailureThreshold is the consecutive-failure count that opens the breaker. Default 5.
	FailureThreshold int

	// SuccessThreshold is the consecutive-success count in half-open that closes it. Default 1.
	SuccessThreshold int

	// Cooldown is how long the breaker stays open before probing. Default 30s.
	Cooldown time.Duration

	// OnStateChange is called on every transition.
	OnStateChange func(name string, from, to State)
}

// DefaultConfig returns defaults suited to a cache-type dependency.
func DefaultConfig(name string) Config {
	return Config{
		Name:             name,
		FailureThreshold: 5,
		SuccessThreshold: 1,
		Cooldown:         30 * time.Second,
	}
}

// Option mutates a Config.
type Option func(*Config)

// WithFailureThreshold sets how many consecutive failures open the breaker.
func WithFailureThreshold(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.FailureThreshold = n
		}
	}
}

// WithSuccessThreshold sets how many half-open successes close the breaker.
func WithSuccessThreshold(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.SuccessThreshold = n
		}
	}
}

// WithCooldown sets the open-state cooldown.
func WithCooldown(d time.Duration) Option {
	return func(c *Config) {
		if d > 0 {
			c.Cooldown = d
		}
	}
}

// WithOnStateChange registers a transition callback.
func WithOnStateChange(fn func(name string, from, to State)) Option {
	return func(c *Config) {
		c.OnStateChange = fn
	}
}

// Breaker is a concurrency-safe circuit breaker.
type Breaker struct {
	cfg Config
	now func() time.Time

	mu            sync.Mutex
	state         State
	failures      int
	successes     int
	openedAt      time.Time
	probeInFlight bool
}

// New builds a Breaker from DefaultConfig plus options.
func New(name string, opts ...Option) *Breaker {
	cfg := DefaultConfig(name)
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Breaker{cfg: cfg, now: time.Now, state: StateClosed}
}

// NewWithNow builds a Breaker with an injected time source, for tests.
func NewWithNow(name string, now func() time.Time, opts ...Option) *Breaker {
	b := New(name, opts...)
	b.now = now
	return b
}

// Execute runs op if the breaker allows it and records the outcome.
// While open it returns ErrOpen without calling op.
func (b *Breaker) Execute(ctx context.Context, op func(context.Context) error) error {
	if err := b.allow(); err != nil {
		return err
	}

	err := op(ctx)
	b.record(err)
	return err
}

// allow decides whether a request may proceed, transitioning open -> half-open
// after the cooldown.
func (b *Breaker) allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return nil
	case StateOpen:
		if b.now().Sub(b.openedAt) < b.cfg.Cooldown {
			return ErrOpen
		}
		b.transition(StateHalfOpen)
		b.probeInFlight = true
		return nil
	case StateHalfOpen:
		if b.probeInFlight {
			return ErrOpen
		}
		b.probeInFlight = true
		return nil
	default:
		return ErrOpen
	}
}

// record updates counters and state from an operation result.
func (b *Breaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.probeInFlight = false

	if err != nil {
		b.failures++
		b.successes = 0
		switch b.state {
		case StateClosed:
			if b.failures >= b.cfg.FailureThreshold {
				b.open()
			}
		case StateHalfOpen:
			b.open()
		}
		return
	}

	b.successes++
	b.failures = 0
	if b.state == StateHalfOpen && b.successes >= b.cfg.SuccessThreshold {
		b.transition(StateClosed)
	}
}

// open moves to StateOpen and stamps the cooldown start.
func (b *Breaker) open() {
	b.openedAt = b.now()
	b.transition(StateOpen)
}

// transition changes state and fires the callback. Callers hold b.mu.
func (b *Breaker) transition(next State) {
	if b.state == next {
		return
	}
	prev := b.state
	b.state = next
	b.failures = 0
	b.successes = 0
	if b.cfg.OnStateChange != nil {
		b.cfg.OnStateChange(b.cfg.Name, prev, next)
	}
}

// State returns the current state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Name returns the breaker name.
func (b *Breaker) Name() string {
	return b.cfg.Name
}

// ProjectionBreaker returns a breaker tuned for the Redis leaderboard
// projection: trip fast, probe again after a short cooldown.
func ProjectionBreaker(onStateChange func(name string, from, to State)) *Breaker {
	return New(
		"leaderboard-projection",
		WithFailureThreshold(3),
		WithSuccessThreshold(1),
		WithCooldown(15*time.Second),
		WithOnStateChange(onStateChange),
	)
}
