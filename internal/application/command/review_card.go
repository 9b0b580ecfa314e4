package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/eduquest-hub/eduquest-core/internal/domain/flashcard"
	"github.com/eduquest-hub/eduquest-core/internal/domain/shared"
	"github.com/eduquest-hub/eduquest-core/pkg/retry"
	"github.com/eduquest-hub/eduquest-core/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// REVIEW CARD COMMAND
// One SM-2 review: validates the rating, recomputes interval/ease factor/
// status and appends an immutable history record, all in a single
// versioned row update.
// ══════════════════════════════════════════════════════════════════════════════

// ReviewCardCommand contains one review.
type ReviewCardCommand struct {
	// CardID is the ID of the card being reviewed.
	CardID string

	// OwnerID is the internal ID of the learner reviewing. The card must
	// belong to this learner.
	OwnerID string

	// Rating is the answer assessment (again, hard, good, easy).
	Rating flashcard.Rating
}

// Validate validates the command.
func (c ReviewCardCommand) Validate() error {
	if c.CardID == "" {
		return errors.New("review_card: card_id is required")
	}
	if c.OwnerID == "" {
		return errors.New("review_card: owner_id is required")
	}
	if !c.Rating.IsValid() {
		return shared.ErrInvalidRating
	}
	return nil
}

// ReviewCardResult contains the review outcome.
type ReviewCardResult struct {
	// Card is the card after the review.
	Card *flashcard.Card

	// Outcome is the scheduler transition detail.
	Outcome flashcard.ReviewOutcome

	// Events contains domain events generated.
	Events []shared.Event
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// ReviewCardHandler handles the ReviewCardCommand.
type ReviewCardHandler struct {
	cardRepo flashcard.Repository
	events   shared.EventPublisher
	clock    timeutil.Clock
	logger   *slog.Logger
	retrier  *retry.Retrier
}

// NewReviewCardHandler creates a new ReviewCardHandler.
func NewReviewCardHandler(
	cardRepo flashcard.Repository,
	events shared.EventPublisher,
	clock timeutil.Clock,
	logger *slog.Logger,
) *ReviewCardHandler {
	return &ReviewCardHandler{
		cardRepo: cardRepo,
		events:   events,
		clock:    clock,
		logger:   logger,
		retrier:  newCASRetrier(logger, "review_card"),
	}
}

// Handle executes the review.
func (h *ReviewCardHandler) Handle(ctx context.Context, cmd ReviewCardCommand) (*ReviewCardResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("review_card: validation failed: %w", err)
	}

	var result *ReviewCardResult

	err := h.retrier.Do(ctx, func(ctx context.Context) error {
		card, err := h.cardRepo.GetByID(ctx, cmd.CardID)
		if err != nil {
			return fmt.Errorf("review_card: load card: %w", err)
		}
		if card.OwnerID != cmd.OwnerID {
			return shared.ErrCardNotFound
		}

		outcome, err := card.Review(cmd.Rating, h.clock.Now())
		if err != nil {
			return fmt.Errorf("review_card: %w", err)
		}

		if err := h.cardRepo.Update(ctx, card); err != nil {
			return fmt.Errorf("review_card: save card: %w", err)
		}

		result = &ReviewCardResult{
			Card:    card,
			Outcome: outcome,
			Events:  []shared.Event{flashcard.NewReviewedEvent(card, cmd.Rating, outcome)},
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, event := range result.Events {
		_ = h.events.Publish(event)
	}

	h.logger.Debug("card reviewed",
		"card_id", cmd.CardID,
		"owner_id", cmd.OwnerID,
		"rating", string(cmd.Rating),
		"interval", result.Outcome.Interval,
		"status", string(result.Outcome.Status),
	)

	return result, nil
}
