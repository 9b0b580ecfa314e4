// Package jobs contains implementations of scheduled jobs for EduQuest.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/eduquest-hub/eduquest-core/internal/domain/leaderboard"
	"github.com/eduquest-hub/eduquest-core/internal/domain/learner"
)

// ══════════════════════════════════════════════════════════════════════════════
// REBUILD LEADERBOARD JOB
// ══════════════════════════════════════════════════════════════════════════════

// RebuildLeaderboardJob replaces the Redis leaderboard projection with a
// fresh snapshot of the learners table. Event-driven upserts keep the
// projection roughly current between runs; the periodic rebuild repairs
// whatever they missed (Redis restarts, dropped events, open breaker).
type RebuildLeaderboardJob struct {
	learnerRepo learner.Repository
	projection  leaderboard.Projection
	logger      *slog.Logger

	config RebuildLeaderboardConfig

	lastStats atomic.Value // *RebuildStats
}

// RebuildLeaderboardConfig contains configuration for the rebuild job.
type RebuildLeaderboardConfig struct {
	// BatchSize is how many learners to load per page.
	BatchSize int

	// Timeout is the maximum duration for the rebuild operation.
	Timeout time.Duration
}

// DefaultRebuildLeaderboardConfig returns sensible defaults.
func DefaultRebuildLeaderboardConfig() RebuildLeaderboardConfig {
	return RebuildLeaderboardConfig{
		BatchSize: 500,
		Timeout:   5 * time.Minute,
	}
}

// RebuildStats contains statistics from a rebuild run.
type RebuildStats struct {
	StartedAt     time.Time
	CompletedAt   time.Time
	Duration      time.Duration
	TotalLearners int
}

// NewRebuildLeaderboardJob creates a new rebuild leaderboard job.
func NewRebuildLeaderboardJob(
	learnerRepo learner.Repository,
	projection leaderboard.Projection,
	logger *slog.Logger,
	config RebuildLeaderboardConfig,
) *RebuildLeaderboardJob {
	if logger == nil {
		logger = slog.Default()
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 500
	}

	return &RebuildLeaderboardJob{
		learnerRepo: learnerRepo,
		projection:  projection,
		logger:      logger,
		config:      config,
	}
}

// Name returns the job name.
func (j *RebuildLeaderboardJob) Name() string {
	return "rebuild_leaderboard"
}

// Description returns a human-readable description.
func (j *RebuildLeaderboardJob) Description() string {
	return "Rebuilds the Redis leaderboard projection from the learners table"
}

// Run executes the rebuild job.
func (j *RebuildLeaderboardJob) Run(ctx context.Context) error {
	startedAt := time.Now()

	if j.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.config.Timeout)
		defer cancel()
	}

	entries, err := j.loadEntries(ctx)
	if err != nil {
		return fmt.Errorf("failed to load learners: %w", err)
	}

	if err := j.projection.Rebuild(ctx, entries); err != nil {
		return fmt.Errorf("failed to rebuild projection: %w", err)
	}

	completedAt := time.Now()
	stats := &RebuildStats{
		StartedAt:     startedAt,
		CompletedAt:   completedAt,
		Duration:      completedAt.Sub(startedAt),
		TotalLearners: len(entries),
	}
	j.lastStats.Store(stats)

	j.logger.Info("leaderboard projection rebuilt",
		"learners", stats.TotalLearners,
		"duration", stats.Duration.String(),
	)

	return nil
}

// LastStats returns statistics from the most recent run, or nil.
func (j *RebuildLeaderboardJob) LastStats() *RebuildStats {
	stats, _ := j.lastStats.Load().(*RebuildStats)
	return stats
}

// loadEntries pages through the learners table and converts rows to
// projection entries.
func (j *RebuildLeaderboardJob) loadEntries(ctx context.Context) ([]leaderboard.Entry, error) {
	var entries []leaderboard.Entry

	opts := learner.DefaultListOptions().WithLimit(j.config.BatchSize)
	for offset := 0; ; offset += j.config.BatchSize {
		page, err := j.learnerRepo.List(ctx, opts.WithOffset(offset))
		if err != nil {
			return nil, err
		}

		now := time.Now()
		for _, lrn := range page {
			entries = append(entries, leaderboard.Entry{
				UserID:      lrn.ID,
				Username:    lrn.Username.String(),
				DisplayName: lrn.DisplayName,
				AvatarURL:   lrn.AvatarURL,
				TotalXP:     lrn.XP,
				Rank:        string(lrn.Rank),
				Goal:        lrn.Goal,
				UpdatedAt:   now,
			})
		}

		if len(page) < j.config.BatchSize {
			return entries, nil
		}
	}
}
