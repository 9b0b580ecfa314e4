package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/eduquest-hub/eduquest-core/internal/domain/flashcard"
)

// ══════════════════════════════════════════════════════════════════════════════
// DELETE CARD COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// DeleteCardCommand contains the deletion request.
type DeleteCardCommand struct {
	// CardID is the ID of the card to delete.
	CardID string

	// OwnerID is the internal ID of the owning learner. Deletion is
	// scoped to the owner.
	OwnerID string
}

// Validate validates the command.
func (c DeleteCardCommand) Validate() error {
	if c.CardID == "" {
		return errors.New("delete_card: card_id is required")
	}
	if c.OwnerID == "" {
		return errors.New("delete_card: owner_id is required")
	}
	return nil
}

// DeleteCardHandler handles the DeleteCardCommand.
type DeleteCardHandler struct {
	cardRepo flashcard.Repository
	logger   *slog.Logger
}

// NewDeleteCardHandler creates a new DeleteCardHandler.
func NewDeleteCardHandler(cardRepo flashcard.Repository, logger *slog.Logger) *DeleteCardHandler {
	return &DeleteCardHandler{cardRepo: cardRepo, logger: logger}
}

// Handle executes the deletion.
func (h *DeleteCardHandler) Handle(ctx context.Context, cmd DeleteCardCommand) error {
	if err := cmd.Validate(); err != nil {
		return fmt.Errorf("delete_card: validation failed: %w", err)
	}

	if err := h.cardRepo.Delete(ctx, cmd.CardID, cmd.OwnerID); err != nil {
		return fmt.Errorf("delete_card: %w", err)
	}

	h.logger.Debug("card deleted", "card_id", cmd.CardID, "owner_id", cmd.OwnerID)
	return nil
}
