package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var errDown = errors.New("connection refused")

func failing(context.Context) error { return errDown }
func healthy(context.Context) error { return nil }

func TestBreakerOpensAfterThreshold(t *testing.T) {
	b := New("test", WithFailureThreshold(3))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, b.Execute(ctx, failing), errDown)
	}
	assert.Equal(t, StateOpen, b.State())

	// Open breaker rejects without running the operation.
	calls := 0
	err := b.Execute(ctx, func(context.Context) error {
		calls++
		return nil
	})
	assert.ErrorIs(t, err, ErrOpen)
	assert.Equal(t, 0, calls)
}

func TestBreakerRecoversThroughHalfOpen(t *testing.T) {
	now := time.Date(2026, time.March, 14, 10, 0, 0, 0, time.UTC)
	b := NewWithNow("test", func() time.Time { return now },
		WithFailureThreshold(1),
		WithCooldown(10*time.Second),
	)
	ctx := context.Background()

	assert.ErrorIs(t, b.Execute(ctx, failing), errDown)
	assert.Equal(t, StateOpen, b.State())

	// Still inside the cooldown.
	now = now.Add(5 * time.Second)
	assert.ErrorIs(t, b.Execute(ctx, healthy), ErrOpen)

	// After the cooldown one probe goes through and closes the breaker.
	now = now.Add(6 * time.Second)
	assert.NoError(t, b.Execute(ctx, healthy))
	assert.Equal(t, StateClosed, b.State())
}

func TestHalfOpenFailureReopens(t *testing.T) {
	now := time.Date(2026, time.March, 14, 10, 0, 0, 0, time.UTC)
	b := NewWithNow("test", func() time.Time { return now },
		WithFailureThreshold(1),
		WithCooldown(time.Second),
	)
	ctx := context.Background()

	assert.ErrorIs(t, b.Execute(ctx, failing), errDown)

	now = now.Add(2 * time.Second)
	assert.ErrorIs(t, b.Execute(ctx, failing), errDown)
	assert.Equal(t, StateOpen, b.State())
}

func TestSuccessResetsFailureCount(t *testing.T) {
	b := New("test", WithFailureThreshold(2))
	ctx := context.Background()

	assert.ErrorIs(t, b.Execute(ctx, failing), errDown)
	assert.NoError(t, b.Execute(ctx, healthy))
	assert.ErrorIs(t, b.Execute(ctx, failing), errDown)

	// Two failures never accumulated consecutively.
	assert.Equal(t, StateClosed, b.State())
}

func TestOnStateChangeCallback(t *testing.T) {
	var transitions []string
	b := New("lb", WithFailureThreshold(1), WithOnStateChange(func(name string, from, to State) {
		transitions = append(transitions, from.String()+"->"+to.String())
	}))

	_ = b.Execute(context.Background(), failing)
	assert.Equal(t, []string{"closed->open"}, transitions)
}
