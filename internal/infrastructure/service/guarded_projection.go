// Package service contains infrastructure-level decorators around domain
// interfaces.
package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/eduquest-hub/eduquest-core/internal/domain/leaderboard"
	"github.com/eduquest-hub/eduquest-core/pkg/circuitbreaker"
)

// GuardedProjection wraps a leaderboard projection with a circuit breaker.
// Writes are best-effort: when Redis is down the breaker opens and Upsert
// becomes a logged no-op, so XP-awarding flows never stall on a cache.
// Reads propagate errors and let callers fall back to Postgres.
type GuardedProjection struct {
	inner   leaderboard.Projection
	breaker *circuitbreaker.Breaker
	logger  *slog.Logger
}

// NewGuardedProjection creates a GuardedProjection around inner.
func NewGuardedProjection(inner leaderboard.Projection, logger *slog.Logger) *GuardedProjection {
	breaker := circuitbreaker.New("leaderboard-projection",
		circuitbreaker.WithOnStateChange(func(name string, from, to circuitbreaker.State) {
			logger.Warn("circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		}),
	)

	return &GuardedProjection{
		inner:   inner,
		breaker: breaker,
		logger:  logger.With("component", "guarded_projection"),
	}
}

// Upsert writes the entry through the breaker. Failures are logged and
// swallowed: the projection is rebuildable and must never fail a write path.
func (g *GuardedProjection) Upsert(ctx context.Context, entry leaderboard.Entry) error {
	err := g.breaker.Execute(ctx, func(ctx context.Context) error {
		return g.inner.Upsert(ctx, entry)
	})
	if err != nil && !errors.Is(err, circuitbreaker.ErrOpen) {
		g.logger.Error("projection upsert failed",
			"user_id", entry.UserID,
			"error", err,
		)
	}
	return nil
}

// Rebuild replaces the projection through the breaker. Unlike Upsert the
// error propagates: the rebuild job reschedules on failure.
func (g *GuardedProjection) Rebuild(ctx context.Context, entries []leaderboard.Entry) error {
	return g.breaker.Execute(ctx, func(ctx context.Context) error {
		return g.inner.Rebuild(ctx, entries)
	})
}

// Top reads the first limit entries through the breaker.
func (g *GuardedProjection) Top(ctx context.Context, limit int) ([]leaderboard.Entry, error) {
	var entries []leaderboard.Entry
	err := g.breaker.Execute(ctx, func(ctx context.Context) error {
		var innerErr error
		entries, innerErr = g.inner.Top(ctx, limit)
		return innerErr
	})
	return entries, err
}

// PositionOf reads a learner's position through the breaker.
// ErrNotRanked is a valid answer and does not count as a failure.
func (g *GuardedProjection) PositionOf(ctx context.Context, userID string) (leaderboard.Position, error) {
	var position leaderboard.Position
	err := g.breaker.Execute(ctx, func(ctx context.Context) error {
		var innerErr error
		position, innerErr = g.inner.PositionOf(ctx, userID)
		if errors.Is(innerErr, leaderboard.ErrNotRanked) {
			return nil
		}
		return innerErr
	})
	if err != nil {
		return 0, err
	}
	if !position.IsValid() {
		return 0, leaderboard.ErrNotRanked
	}
	return position, nil
}

// EntryOf reads a learner's entry through the breaker.
// ErrNotRanked is a valid answer and does not count as a failure.
func (g *GuardedProjection) EntryOf(ctx context.Context, userID string) (leaderboard.Entry, error) {
	var entry leaderboard.Entry
	var notRanked bool
	err := g.breaker.Execute(ctx, func(ctx context.Context) error {
		var innerErr error
		entry, innerErr = g.inner.EntryOf(ctx, userID)
		if errors.Is(innerErr, leaderboard.ErrNotRanked) {
			notRanked = true
			return nil
		}
		return innerErr
	})
	if err != nil {
		return leaderboard.Entry{}, err
	}
	if notRanked {
		return leaderboard.Entry{}, leaderboard.ErrNotRanked
	}
	return entry, nil
}

// Total reads the participant count through the breaker.
func (g *GuardedProjection) Total(ctx context.Context) (int, error) {
	var total int
	err := g.breaker.Execute(ctx, func(ctx context.Context) error {
		var innerErr error
		total, innerErr = g.inner.Total(ctx)
		return innerErr
	})
	return total, err
}
