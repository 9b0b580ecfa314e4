package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduquest-hub/eduquest-core/internal/domain/leaderboard"
)

var errRedisDown = errors.New("connection refused")

// flakyProjection fails every call while down, and counts calls that
// reach it.
type flakyProjection struct {
	down  bool
	calls int
}

func (p *flakyProjection) hit() error {
	p.calls++
	if p.down {
		return errRedisDown
	}
	return nil
}

func (p *flakyProjection) Upsert(context.Context, leaderboard.Entry) error {
	return p.hit()
}

func (p *flakyProjection) Top(context.Context, int) ([]leaderboard.Entry, error) {
	if err := p.hit(); err != nil {
		return nil, err
	}
	return []leaderboard.Entry{{Position: 1, UserID: "u1", Username: "aigerim", TotalXP: 100}}, nil
}

func (p *flakyProjection) PositionOf(context.Context, string) (leaderboard.Position, error) {
	if err := p.hit(); err != nil {
		return 0, err
	}
	return 0, leaderboard.ErrNotRanked
}

func (p *flakyProjection) EntryOf(context.Context, string) (leaderboard.Entry, error) {
	if err := p.hit(); err != nil {
		return leaderboard.Entry{}, err
	}
	return leaderboard.Entry{}, leaderboard.ErrNotRanked
}

func (p *flakyProjection) Total(context.Context) (int, error) {
	if err := p.hit(); err != nil {
		return 0, err
	}
	return 1, nil
}

func (p *flakyProjection) Rebuild(context.Context, []leaderboard.Entry) error {
	return p.hit()
}

func newGuarded(inner leaderboard.Projection) *GuardedProjection {
	return NewGuardedProjection(inner, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestUpsertSwallowsFailures(t *testing.T) {
	inner := &flakyProjection{down: true}
	g := newGuarded(inner)

	entry := leaderboard.Entry{UserID: "u1", Username: "aigerim", TotalXP: 100}
	assert.NoError(t, g.Upsert(context.Background(), entry))
	assert.Equal(t, 1, inner.calls)
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	inner := &flakyProjection{down: true}
	g := newGuarded(inner)

	entry := leaderboard.Entry{UserID: "u1", Username: "aigerim", TotalXP: 100}
	for i := 0; i < 10; i++ {
		require.NoError(t, g.Upsert(context.Background(), entry))
	}

	// After the failure threshold the inner projection stops being called.
	assert.Equal(t, 5, inner.calls)

	// Reads fail fast while the breaker is open.
	_, err := g.Top(context.Background(), 10)
	assert.Error(t, err)
	assert.Equal(t, 5, inner.calls)
}

func TestReadsPropagateErrors(t *testing.T) {
	inner := &flakyProjection{down: true}
	g := newGuarded(inner)

	_, err := g.Top(context.Background(), 10)
	assert.ErrorIs(t, err, errRedisDown)

	_, err = g.Total(context.Background())
	assert.ErrorIs(t, err, errRedisDown)
}

func TestRebuildPropagatesErrors(t *testing.T) {
	inner := &flakyProjection{down: true}
	g := newGuarded(inner)

	err := g.Rebuild(context.Background(), nil)
	assert.ErrorIs(t, err, errRedisDown)

	inner.down = false
	assert.NoError(t, g.Rebuild(context.Background(), nil))
}

func TestNotRankedIsNotAFailure(t *testing.T) {
	inner := &flakyProjection{}
	g := newGuarded(inner)

	// Many not-ranked answers must not trip the breaker.
	for i := 0; i < 10; i++ {
		_, err := g.PositionOf(context.Background(), "ghost")
		assert.ErrorIs(t, err, leaderboard.ErrNotRanked)

		_, err = g.EntryOf(context.Background(), "ghost")
		assert.ErrorIs(t, err, leaderboard.ErrNotRanked)
	}

	entries, err := g.Top(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestHealthyPassThrough(t *testing.T) {
	inner := &flakyProjection{}
	g := newGuarded(inner)

	entry := leaderboard.Entry{UserID: "u1", Username: "aigerim", TotalXP: 100}
	require.NoError(t, g.Upsert(context.Background(), entry))

	total, err := g.Total(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}
