package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/eduquest-hub/eduquest-core/internal/domain/flashcard"
	"github.com/eduquest-hub/eduquest-core/internal/domain/shared"
	"github.com/eduquest-hub/eduquest-core/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// CREATE CARDS COMMAND
// Persists a batch of cards as one review session. Card content comes from
// an external generator (out of scope here); this command only owns the
// scheduler bootstrap: every card starts due immediately with EF 2.5.
// ══════════════════════════════════════════════════════════════════════════════

// CardDraft is one card's content within a batch.
type CardDraft struct {
	Front      string
	Back       string
	Hint       string
	Difficulty string
	Tags       []string
}

// CreateCardsCommand contains a batch of cards to create.
type CreateCardsCommand struct {
	// OwnerID is the internal ID of the owning learner.
	OwnerID string

	// SessionName labels the batch. Optional.
	SessionName string

	// Cards is the batch content. Must not be empty.
	Cards []CardDraft
}

// Validate validates the command.
func (c CreateCardsCommand) Validate() error {
	if c.OwnerID == "" {
		return errors.New("create_cards: owner_id is required")
	}
	if len(c.Cards) == 0 {
		return errors.New("create_cards: at least one card is required")
	}
	return nil
}

// CreateCardsResult contains the created cards.
type CreateCardsResult struct {
	// SessionID is the generated batch identifier.
	SessionID string

	// Cards are the persisted cards in input order.
	Cards []*flashcard.Card

	// Events contains domain events generated.
	Events []shared.Event
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// CreateCardsHandler handles the CreateCardsCommand.
type CreateCardsHandler struct {
	cardRepo flashcard.Repository
	events   shared.EventPublisher
	clock    timeutil.Clock
	logger   *slog.Logger
}

// NewCreateCardsHandler creates a new CreateCardsHandler.
func NewCreateCardsHandler(
	cardRepo flashcard.Repository,
	events shared.EventPublisher,
	clock timeutil.Clock,
	logger *slog.Logger,
) *CreateCardsHandler {
	return &CreateCardsHandler{
		cardRepo: cardRepo,
		events:   events,
		clock:    clock,
		logger:   logger,
	}
}

// Handle executes the batch creation.
func (h *CreateCardsHandler) Handle(ctx context.Context, cmd CreateCardsCommand) (*CreateCardsResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("create_cards: validation failed: %w", err)
	}

	now := h.clock.Now()
	sessionID := uuid.NewString()
	sessionName := cmd.SessionName
	if sessionName == "" {
		sessionName = "Session " + now.UTC().Format("2006-01-02 15:04")
	}

	result := &CreateCardsResult{
		SessionID: sessionID,
		Cards:     make([]*flashcard.Card, 0, len(cmd.Cards)),
	}

	for _, draft := range cmd.Cards {
		card, err := flashcard.NewCard(flashcard.NewCardParams{
			ID:          uuid.NewString(),
			OwnerID:     cmd.OwnerID,
			Front:       draft.Front,
			Back:        draft.Back,
			Hint:        draft.Hint,
			Difficulty:  draft.Difficulty,
			SessionID:   sessionID,
			SessionName: sessionName,
			Tags:        draft.Tags,
		}, now)
		if err != nil {
			return nil, fmt.Errorf("create_cards: %w", err)
		}

		if err := h.cardRepo.Create(ctx, card); err != nil {
			return nil, fmt.Errorf("create_cards: save card: %w", err)
		}

		result.Cards = append(result.Cards, card)
		result.Events = append(result.Events, flashcard.NewCreatedEvent(card))
	}

	for _, event := range result.Events {
		_ = h.events.Publish(event)
	}

	h.logger.Info("cards created",
		"owner_id", cmd.OwnerID,
		"session_id", sessionID,
		"count", len(result.Cards),
	)

	return result, nil
}
