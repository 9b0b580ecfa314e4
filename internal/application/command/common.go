// Package command contains write operations (CQRS - Commands).
//
// Every handler follows the same shape: a Command with Validate, a Result
// carrying the generated domain events, and a Handler whose Handle runs the
// read-modify-write under an optimistic-concurrency retry loop. Events are
// published only after the store write commits.
package command

import (
	"context"
	"log/slog"
	"time"

	"github.com/eduquest-hub/eduquest-core/internal/domain/leaderboard"
	"github.com/eduquest-hub/eduquest-core/internal/domain/learner"
	"github.com/eduquest-hub/eduquest-core/internal/domain/shared"
	"github.com/eduquest-hub/eduquest-core/pkg/retry"
)

// newCASRetrier builds the retry policy for version-conflict loops: only
// conflicts are retried, everything else surfaces immediately.
func newCASRetrier(logger *slog.Logger, op string) *retry.Retrier {
	return retry.New(
		retry.WithRetryIf(shared.IsConflict),
		retry.WithOnRetry(func(attempt int, err error, delay time.Duration) {
			logger.Debug("version conflict, retrying",
				"op", op,
				"attempt", attempt,
				"delay", delay,
				"error", err,
			)
		}),
	)
}

// projectionEntry maps a learner to its leaderboard projection payload.
func projectionEntry(l *learner.Learner) leaderboard.Entry {
	return leaderboard.Entry{
		UserID:      l.ID,
		Username:    l.Username.String(),
		DisplayName: l.DisplayName,
		AvatarURL:   l.AvatarURL,
		TotalXP:     l.XP,
		Rank:        l.Rank.String(),
		Goal:        l.Goal,
		UpdatedAt:   l.UpdatedAt,
	}
}

// refreshProjection pushes the learner's fresh totals into the leaderboard
// projection. Best effort: the projection decorator owns error swallowing,
// a nil projection is a no-op.
func refreshProjection(ctx context.Context, projection leaderboard.Projection, l *learner.Learner) {
	if projection == nil {
		return
	}
	_ = projection.Upsert(ctx, projectionEntry(l))
}
