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
// TOGGLE BOOKMARK COMMAND
// Flips the bookmark flag. Does not touch the SM-2 scheduler state.
// ══════════════════════════════════════════════════════════════════════════════

// ToggleBookmarkCommand contains the toggle request.
type ToggleBookmarkCommand struct {
	// CardID is the ID of the card.
	CardID string

	// OwnerID is the internal ID of the owning learner.
	OwnerID string
}

// Validate validates the command.
func (c ToggleBookmarkCommand) Validate() error {
	if c.CardID == "" {
		return errors.New("toggle_bookmark: card_id is required")
	}
	if c.OwnerID == "" {
		return errors.New("toggle_bookmark: owner_id is required")
	}
	return nil
}

// ToggleBookmarkResult contains the new flag value.
type ToggleBookmarkResult struct {
	// Bookmarked is the flag after the toggle.
	Bookmarked bool
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// ToggleBookmarkHandler handles the ToggleBookmarkCommand.
type ToggleBookmarkHandler struct {
	cardRepo flashcard.Repository
	clock    timeutil.Clock
	logger   *slog.Logger
	retrier  *retry.Retrier
}

// NewToggleBookmarkHandler creates a new ToggleBookmarkHandler.
func NewToggleBookmarkHandler(
	cardRepo flashcard.Repository,
	clock timeutil.Clock,
	logger *slog.Logger,
) *ToggleBookmarkHandler {
	return &ToggleBookmarkHandler{
		cardRepo: cardRepo,
		clock:    clock,
		logger:   logger,
		retrier:  newCASRetrier(logger, "toggle_bookmark"),
	}
}

// Handle executes the toggle.
func (h *ToggleBookmarkHandler) Handle(ctx context.Context, cmd ToggleBookmarkCommand) (*ToggleBookmarkResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("toggle_bookmark: validation failed: %w", err)
	}

	var result *ToggleBookmarkResult

	err := h.retrier.Do(ctx, func(ctx context.Context) error {
		card, err := h.cardRepo.GetByID(ctx, cmd.CardID)
		if err != nil {
			return fmt.Errorf("toggle_bookmark: load card: %w", err)
		}
		if card.OwnerID != cmd.OwnerID {
			return shared.ErrCardNotFound
		}

		bookmarked := card.ToggleBookmark(h.clock.Now())

		if err := h.cardRepo.Update(ctx, card); err != nil {
			return fmt.Errorf("toggle_bookmark: save card: %w", err)
		}

		result = &ToggleBookmarkResult{Bookmarked: bookmarked}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}
