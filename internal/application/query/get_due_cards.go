package query

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/eduquest-hub/eduquest-core/internal/domain/flashcard"
	"github.com/eduquest-hub/eduquest-core/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET DUE CARDS QUERY
// Возвращает карточки, подошедшие к повторению, вместе со сводкой колоды:
// сколько карточек на каждой стадии и сколько всего ждёт повторения.
// Карточки отдаются в порядке срочности (самые просроченные первыми).
// ══════════════════════════════════════════════════════════════════════════════

// GetDueCardsQuery содержит параметры запроса.
type GetDueCardsQuery struct {
	// OwnerID - идентификатор владельца карточек.
	OwnerID string

	// Limit - максимум карточек в ответе (по умолчанию 20, максимум 100).
	Limit int
}

// Validate проверяет корректность параметров запроса.
func (q *GetDueCardsQuery) Validate() error {
	if q.OwnerID == "" {
		return errors.New("owner_id is required")
	}
	if q.Limit < 0 {
		return errors.New("limit cannot be negative")
	}
	if q.Limit > 100 {
		q.Limit = 100
	}
	if q.Limit == 0 {
		q.Limit = 20
	}
	return nil
}

// DueCardDTO - карточка, готовая к повторению.
type DueCardDTO struct {
	// ID - идентификатор карточки.
	ID string `json:"id"`

	// Front - лицевая сторона (вопрос).
	Front string `json:"front"`

	// Back - оборотная сторона (ответ).
	Back string `json:"back"`

	// Hint - подсказка, если есть.
	Hint string `json:"hint,omitempty"`

	// Difficulty - сложность, заданная при создании.
	Difficulty string `json:"difficulty"`

	// SessionName - название сессии (колоды).
	SessionName string `json:"session_name,omitempty"`

	// Tags - теги карточки.
	Tags []string `json:"tags,omitempty"`

	// Bookmarked - в закладках ли карточка.
	Bookmarked bool `json:"bookmarked"`

	// Status - стадия изучения (learning, reviewing, mastered).
	Status string `json:"status"`

	// Repetitions - число успешных повторений подряд.
	Repetitions int `json:"repetitions"`

	// NextReviewAt - момент, когда карточка стала доступна.
	NextReviewAt time.Time `json:"next_review_at"`
}

// DeckSummaryDTO - сводка по колоде владельца.
type DeckSummaryDTO struct {
	// Learning - карточек на стадии изучения.
	Learning int `json:"learning"`

	// Reviewing - карточек на стадии повторения.
	Reviewing int `json:"reviewing"`

	// Mastered - освоенных карточек.
	Mastered int `json:"mastered"`

	// Total - всего карточек.
	Total int `json:"total"`

	// Due - всего карточек, ждущих повторения (может быть больше,
	// чем отдано в Cards из-за лимита).
	Due int `json:"due"`
}

// GetDueCardsResult содержит результат запроса.
type GetDueCardsResult struct {
	// Cards - карточки к повторению в порядке срочности.
	Cards []DueCardDTO `json:"cards"`

	// Summary - сводка по колоде.
	Summary DeckSummaryDTO `json:"summary"`

	// GeneratedAt - время формирования результата.
	GeneratedAt time.Time `json:"generated_at"`
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// GetDueCardsHandler обрабатывает запрос карточек к повторению.
type GetDueCardsHandler struct {
	cardRepo flashcard.Repository
	clock    timeutil.Clock
	logger   *slog.Logger
}

// NewGetDueCardsHandler создаёт новый обработчик.
func NewGetDueCardsHandler(cardRepo flashcard.Repository, clock timeutil.Clock, logger *slog.Logger) *GetDueCardsHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &GetDueCardsHandler{
		cardRepo: cardRepo,
		clock:    clock,
		logger:   logger.With("query", "get_due_cards"),
	}
}

// Handle выполняет запрос.
func (h *GetDueCardsHandler) Handle(ctx context.Context, q GetDueCardsQuery) (*GetDueCardsResult, error) {
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("get_due_cards: validation failed: %w", err)
	}

	now := h.clock.Now()

	due, err := h.cardRepo.ListDue(ctx, q.OwnerID, now, q.Limit)
	if err != nil {
		return nil, fmt.Errorf("get_due_cards: list due: %w", err)
	}

	counts, err := h.cardRepo.CountByStatus(ctx, q.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("get_due_cards: count by status: %w", err)
	}

	dueTotal, err := h.cardRepo.CountDue(ctx, q.OwnerID, now)
	if err != nil {
		return nil, fmt.Errorf("get_due_cards: count due: %w", err)
	}

	result := &GetDueCardsResult{
		Cards: make([]DueCardDTO, 0, len(due)),
		Summary: DeckSummaryDTO{
			Learning:  counts.Learning,
			Reviewing: counts.Reviewing,
			Mastered:  counts.Mastered,
			Total:     counts.Total(),
			Due:       dueTotal,
		},
		GeneratedAt: now,
	}
	for _, c := range due {
		result.Cards = append(result.Cards, DueCardDTO{
			ID:           c.ID,
			Front:        c.Front,
			Back:         c.Back,
			Hint:         c.Hint,
			Difficulty:   c.Difficulty,
			SessionName:  c.SessionName,
			Tags:         append([]string(nil), c.Tags...),
			Bookmarked:   c.Bookmarked,
			Status:       string(c.Status),
			Repetitions:  c.Repetitions,
			NextReviewAt: c.NextReviewAt,
		})
	}

	return result, nil
}
