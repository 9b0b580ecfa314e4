package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/eduquest-hub/eduquest-core/internal/domain/leaderboard"
	"github.com/eduquest-hub/eduquest-core/internal/domain/learner"
	"github.com/eduquest-hub/eduquest-core/internal/domain/shared"
	"github.com/eduquest-hub/eduquest-core/pkg/retry"
	"github.com/eduquest-hub/eduquest-core/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// AWARD XP COMMAND
// Standalone XP grant for sources outside the quiz path, today the quest
// boards. Goes through the same ledger: single writer, audit row, rank
// recalculation, best-effort projection refresh.
// ══════════════════════════════════════════════════════════════════════════════

// AwardXPCommand contains a single XP grant.
type AwardXPCommand struct {
	// LearnerID is the internal ID of the learner.
	LearnerID string

	// Amount is the XP to grant. Must be non-negative.
	Amount int

	// Source names the origin for the XP history.
	Source learner.XPSource

	// Reference identifies the origin instance, e.g. a quest ID.
	Reference string
}

// Validate validates the command.
func (c AwardXPCommand) Validate() error {
	if c.LearnerID == "" {
		return errors.New("award_xp: learner_id is required")
	}
	if c.Amount < 0 {
		return errors.New("award_xp: amount must be non-negative")
	}
	if c.Source == "" {
		return errors.New("award_xp: source is required")
	}
	return nil
}

// AwardXPResult contains the result of the grant.
type AwardXPResult struct {
	// Applied is the ledger outcome.
	Applied learner.XPApplication

	// Events contains domain events generated.
	Events []shared.Event
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// AwardXPHandler handles the AwardXPCommand.
type AwardXPHandler struct {
	learnerRepo learner.Repository
	projection  leaderboard.Projection
	events      shared.EventPublisher
	clock       timeutil.Clock
	logger      *slog.Logger
	retrier     *retry.Retrier
}

// NewAwardXPHandler creates a new AwardXPHandler.
func NewAwardXPHandler(
	learnerRepo learner.Repository,
	projection leaderboard.Projection,
	events shared.EventPublisher,
	clock timeutil.Clock,
	logger *slog.Logger,
) *AwardXPHandler {
	return &AwardXPHandler{
		learnerRepo: learnerRepo,
		projection:  projection,
		events:      events,
		clock:       clock,
		logger:      logger,
		retrier:     newCASRetrier(logger, "award_xp"),
	}
}

// Handle executes the XP grant.
func (h *AwardXPHandler) Handle(ctx context.Context, cmd AwardXPCommand) (*AwardXPResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("award_xp: validation failed: %w", err)
	}

	var (
		result *AwardXPResult
		lrn    *learner.Learner
	)

	err := h.retrier.Do(ctx, func(ctx context.Context) error {
		fresh, err := h.learnerRepo.GetByID(ctx, cmd.LearnerID)
		if err != nil {
			return fmt.Errorf("award_xp: load learner: %w", err)
		}

		now := h.clock.Now()
		oldRank := fresh.Rank

		applied, err := fresh.ApplyXP(cmd.Amount, now)
		if err != nil {
			return fmt.Errorf("award_xp: apply: %w", err)
		}

		history := []learner.XPHistoryEntry{{
			LearnerID: fresh.ID,
			Timestamp: now,
			OldXP:     applied.OldXP,
			NewXP:     applied.NewXP,
			Delta:     applied.Amount,
			Source:    cmd.Source,
			Reference: cmd.Reference,
		}}

		if err := h.learnerRepo.UpdateWithHistory(ctx, fresh, history); err != nil {
			return fmt.Errorf("award_xp: save learner: %w", err)
		}

		events := []shared.Event{
			learner.NewXPAwardedEvent(fresh, applied, cmd.Source, cmd.Reference),
		}
		if applied.RankedUp {
			events = append(events, learner.NewRankChangedEvent(fresh, oldRank, fresh.Rank))
		}

		result = &AwardXPResult{Applied: applied, Events: events}
		lrn = fresh
		return nil
	})
	if err != nil {
		return nil, err
	}

	refreshProjection(ctx, h.projection, lrn)

	for _, event := range result.Events {
		_ = h.events.Publish(event)
	}

	return result, nil
}
