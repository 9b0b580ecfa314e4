package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var errTransient = errors.New("transient")

func fastRetrier(opts ...Option) *Retrier {
	base := []Option{WithBaseDelay(time.Microsecond), WithMaxDelay(time.Millisecond)}
	return New(append(base, opts...)...)
}

func TestDoSucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := fastRetrier().Do(context.Background(), func(context.Context) error {
		calls++
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoRetriesUntilSuccess(t *testing.T) {
	calls := 0
	err := fastRetrier(WithMaxAttempts(5)).Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return errTransient
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoExhaustsAttempts(t *testing.T) {
	calls := 0
	err := fastRetrier(WithMaxAttempts(4)).Do(context.Background(), func(context.Context) error {
		calls++
		return errTransient
	})

	assert.ErrorIs(t, err, errTransient)
	assert.Equal(t, 4, calls)
}

func TestDoStopsOnNonRetryableError(t *testing.T) {
	fatal := errors.New("fatal")
	calls := 0
	r := fastRetrier(
		WithMaxAttempts(5),
		WithRetryIf(func(err error) bool { return errors.Is(err, errTransient) }),
	)

	err := r.Do(context.Background(), func(context.Context) error {
		calls++
		return fatal
	})

	assert.ErrorIs(t, err, fatal)
	assert.Equal(t, 1, calls)
}

func TestDoHonorsCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := fastRetrier().Do(ctx, func(context.Context) error {
		calls++
		return errTransient
	})

	assert.Error(t, err)
	assert.Equal(t, 0, calls)
}

func TestOnRetryCallbackSeesEachFailure(t *testing.T) {
	var attempts []int
	r := fastRetrier(
		WithMaxAttempts(3),
		WithOnRetry(func(attempt int, err error, delay time.Duration) {
			attempts = append(attempts, attempt)
		}),
	)

	_ = r.Do(context.Background(), func(context.Context) error {
		return errTransient
	})

	// The final attempt returns without a retry callback.
	assert.Equal(t, []int{1, 2}, attempts)
}
