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
// CLAIM LOGIN BONUS COMMAND
// Once per UTC calendar day. A repeat claim fails with AlreadyClaimed and
// changes nothing; the login streak is independent of the study streak.
// ══════════════════════════════════════════════════════════════════════════════

// ClaimLoginBonusCommand contains the claim request.
type ClaimLoginBonusCommand struct {
	// LearnerID is the internal ID of the learner.
	LearnerID string
}

// Validate validates the command.
func (c ClaimLoginBonusCommand) Validate() error {
	if c.LearnerID == "" {
		return errors.New("claim_login_bonus: learner_id is required")
	}
	return nil
}

// ClaimLoginBonusResult contains the claim outcome.
type ClaimLoginBonusResult struct {
	// Claim is the domain claim outcome (day, reward, badge).
	Claim learner.LoginBonusClaim

	// Applied is the XP ledger outcome for the reward.
	Applied learner.XPApplication

	// NextMilestone previews the closest special day ahead.
	NextMilestone learner.LoginReward

	// Events contains domain events generated.
	Events []shared.Event
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// ClaimLoginBonusHandler handles the ClaimLoginBonusCommand.
type ClaimLoginBonusHandler struct {
	learnerRepo learner.Repository
	projection  leaderboard.Projection
	events      shared.EventPublisher
	clock       timeutil.Clock
	logger      *slog.Logger
	retrier     *retry.Retrier
}

// NewClaimLoginBonusHandler creates a new ClaimLoginBonusHandler.
func NewClaimLoginBonusHandler(
	learnerRepo learner.Repository,
	projection leaderboard.Projection,
	events shared.EventPublisher,
	clock timeutil.Clock,
	logger *slog.Logger,
) *ClaimLoginBonusHandler {
	return &ClaimLoginBonusHandler{
		learnerRepo: learnerRepo,
		projection:  projection,
		events:      events,
		clock:       clock,
		logger:      logger,
		retrier:     newCASRetrier(logger, "claim_login_bonus"),
	}
}

// Handle executes the claim.
func (h *ClaimLoginBonusHandler) Handle(ctx context.Context, cmd ClaimLoginBonusCommand) (*ClaimLoginBonusResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("claim_login_bonus: validation failed: %w", err)
	}

	var (
		result *ClaimLoginBonusResult
		lrn    *learner.Learner
	)

	err := h.retrier.Do(ctx, func(ctx context.Context) error {
		fresh, err := h.learnerRepo.GetByID(ctx, cmd.LearnerID)
		if err != nil {
			return fmt.Errorf("claim_login_bonus: load learner: %w", err)
		}

		now := h.clock.Now()
		oldRank := fresh.Rank

		claim, err := fresh.ClaimLoginBonus(now)
		if err != nil {
			if errors.Is(err, learner.ErrBonusAlreadyClaimed) {
				return shared.ErrBonusAlreadyClaimed
			}
			return fmt.Errorf("claim_login_bonus: %w", err)
		}

		applied, err := fresh.ApplyXP(claim.Reward.XP, now)
		if err != nil {
			return fmt.Errorf("claim_login_bonus: apply xp: %w", err)
		}

		history := []learner.XPHistoryEntry{{
			LearnerID: fresh.ID,
			Timestamp: now,
			OldXP:     applied.OldXP,
			NewXP:     applied.NewXP,
			Delta:     applied.Amount,
			Source:    learner.XPSourceLoginBonus,
			Reference: claim.Reference(),
		}}

		if err := h.learnerRepo.UpdateWithHistory(ctx, fresh, history); err != nil {
			return fmt.Errorf("claim_login_bonus: save learner: %w", err)
		}

		events := []shared.Event{
			learner.NewLoginBonusClaimedEvent(fresh, claim),
			learner.NewXPAwardedEvent(fresh, applied, learner.XPSourceLoginBonus, claim.Reference()),
		}
		if applied.RankedUp {
			events = append(events, learner.NewRankChangedEvent(fresh, oldRank, fresh.Rank))
		}

		result = &ClaimLoginBonusResult{
			Claim:         claim,
			Applied:       applied,
			NextMilestone: fresh.CheckLoginBonus(now).NextMilestone,
			Events:        events,
		}
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

	h.logger.Info("login bonus claimed",
		"learner_id", lrn.ID,
		"day", result.Claim.Day,
		"xp", result.Claim.Reward.XP,
		"freeze_tokens", result.Claim.Reward.FreezeTokens,
	)

	return result, nil
}
