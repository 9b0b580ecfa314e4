package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/eduquest-hub/eduquest-core/internal/domain/learner"
	"github.com/eduquest-hub/eduquest-core/internal/domain/shared"
	"github.com/eduquest-hub/eduquest-core/pkg/retry"
	"github.com/eduquest-hub/eduquest-core/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// USE STREAK FREEZE COMMAND
// Spends one freeze token and arms 24 hours of streak protection.
// ══════════════════════════════════════════════════════════════════════════════

// UseStreakFreezeCommand contains the activation request.
type UseStreakFreezeCommand struct {
	// LearnerID is the internal ID of the learner.
	LearnerID string
}

// Validate validates the command.
func (c UseStreakFreezeCommand) Validate() error {
	if c.LearnerID == "" {
		return errors.New("use_streak_freeze: learner_id is required")
	}
	return nil
}

// UseStreakFreezeResult contains the activation outcome.
type UseStreakFreezeResult struct {
	// TokensLeft is the remaining token count.
	TokensLeft int

	// ExpiresAt is when the protection lapses.
	ExpiresAt time.Time

	// Events contains domain events generated.
	Events []shared.Event
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// UseStreakFreezeHandler handles the UseStreakFreezeCommand.
type UseStreakFreezeHandler struct {
	learnerRepo learner.Repository
	events      shared.EventPublisher
	clock       timeutil.Clock
	logger      *slog.Logger
	retrier     *retry.Retrier
}

// NewUseStreakFreezeHandler creates a new UseStreakFreezeHandler.
func NewUseStreakFreezeHandler(
	learnerRepo learner.Repository,
	events shared.EventPublisher,
	clock timeutil.Clock,
	logger *slog.Logger,
) *UseStreakFreezeHandler {
	return &UseStreakFreezeHandler{
		learnerRepo: learnerRepo,
		events:      events,
		clock:       clock,
		logger:      logger,
		retrier:     newCASRetrier(logger, "use_streak_freeze"),
	}
}

// Handle executes the activation.
func (h *UseStreakFreezeHandler) Handle(ctx context.Context, cmd UseStreakFreezeCommand) (*UseStreakFreezeResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("use_streak_freeze: validation failed: %w", err)
	}

	var result *UseStreakFreezeResult

	err := h.retrier.Do(ctx, func(ctx context.Context) error {
		fresh, err := h.learnerRepo.GetByID(ctx, cmd.LearnerID)
		if err != nil {
			return fmt.Errorf("use_streak_freeze: load learner: %w", err)
		}

		now := h.clock.Now()
		if err := fresh.UseStreakFreeze(now); err != nil {
			if errors.Is(err, learner.ErrNoFreezeTokens) {
				return shared.ErrNoFreezeTokens
			}
			return fmt.Errorf("use_streak_freeze: %w", err)
		}

		if err := h.learnerRepo.Update(ctx, fresh); err != nil {
			return fmt.Errorf("use_streak_freeze: save learner: %w", err)
		}

		result = &UseStreakFreezeResult{
			TokensLeft: fresh.FreezeTokens,
			ExpiresAt:  fresh.FreezeExpiresAt,
			Events:     []shared.Event{learner.NewStreakFreezeUsedEvent(fresh)},
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, event := range result.Events {
		_ = h.events.Publish(event)
	}

	h.logger.Info("streak freeze armed",
		"learner_id", cmd.LearnerID,
		"tokens_left", result.TokensLeft,
		"expires_at", result.ExpiresAt,
	)

	return result, nil
}
