package query

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/eduquest-hub/eduquest-core/internal/domain/learner"
	"github.com/eduquest-hub/eduquest-core/internal/domain/shared"
	"github.com/eduquest-hub/eduquest-core/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET XP HISTORY QUERY
// Возвращает журнал начислений опыта за период. Журнал пишется в той же
// транзакции, что и сам опыт, поэтому сумма дельт за всю историю всегда
// совпадает с текущим XP учащегося.
// ══════════════════════════════════════════════════════════════════════════════

// GetXPHistoryQuery содержит параметры запроса журнала.
type GetXPHistoryQuery struct {
	// LearnerID - идентификатор учащегося.
	LearnerID string

	// Days - глубина периода в днях от текущего момента
	// (по умолчанию 7, максимум 90).
	Days int

	// RecentLimit - сколько последних записей вернуть отдельным
	// списком (0 - не возвращать).
	RecentLimit int
}

// Validate проверяет корректность параметров запроса.
func (q *GetXPHistoryQuery) Validate() error {
	if q.LearnerID == "" {
		return errors.New("learner_id is required")
	}
	if q.Days < 0 {
		return errors.New("days cannot be negative")
	}
	if q.Days == 0 {
		q.Days = 7
	}
	if q.Days > 90 {
		q.Days = 90
	}
	if q.RecentLimit < 0 {
		return errors.New("recent_limit cannot be negative")
	}
	if q.RecentLimit > 100 {
		q.RecentLimit = 100
	}
	return nil
}

// XPChangeDTO - одна запись журнала опыта.
type XPChangeDTO struct {
	// Timestamp - время начисления.
	Timestamp time.Time `json:"timestamp"`

	// OldXP - опыт до начисления.
	OldXP int `json:"old_xp"`

	// NewXP - опыт после начисления.
	NewXP int `json:"new_xp"`

	// Delta - величина начисления.
	Delta int `json:"delta"`

	// Source - источник (quiz, login_bonus, achievement, ...).
	Source string `json:"source"`

	// Reference - идентификатор источника, если есть.
	Reference string `json:"reference,omitempty"`
}

// GetXPHistoryResult содержит журнал за период.
type GetXPHistoryResult struct {
	// Entries - записи за период, от старых к новым.
	Entries []XPChangeDTO `json:"entries"`

	// Recent - последние записи, от новых к старым.
	// Пустой список, если RecentLimit не задан.
	Recent []XPChangeDTO `json:"recent,omitempty"`

	// TotalGained - суммарный опыт, набранный за период.
	TotalGained int `json:"total_gained"`

	// From - начало периода.
	From time.Time `json:"from"`

	// To - конец периода.
	To time.Time `json:"to"`

	// GeneratedAt - время формирования результата.
	GeneratedAt time.Time `json:"generated_at"`
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// GetXPHistoryHandler обрабатывает запрос журнала опыта.
type GetXPHistoryHandler struct {
	historyRepo learner.HistoryRepository
	clock       timeutil.Clock
	logger      *slog.Logger
}

// NewGetXPHistoryHandler создаёт новый обработчик.
func NewGetXPHistoryHandler(historyRepo learner.HistoryRepository, clock timeutil.Clock, logger *slog.Logger) *GetXPHistoryHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &GetXPHistoryHandler{
		historyRepo: historyRepo,
		clock:       clock,
		logger:      logger.With("query", "get_xp_history"),
	}
}

// Handle выполняет запрос журнала.
func (h *GetXPHistoryHandler) Handle(ctx context.Context, q GetXPHistoryQuery) (*GetXPHistoryResult, error) {
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("get_xp_history: validation failed: %w", err)
	}

	now := h.clock.Now()
	from := now.AddDate(0, 0, -q.Days)

	rng, err := shared.NewTimeRange(from, now)
	if err != nil {
		return nil, fmt.Errorf("get_xp_history: %w", err)
	}

	entries, err := h.historyRepo.GetXPHistory(ctx, q.LearnerID, rng)
	if err != nil {
		return nil, fmt.Errorf("get_xp_history: load: %w", err)
	}

	result := &GetXPHistoryResult{
		Entries:     make([]XPChangeDTO, 0, len(entries)),
		From:        from,
		To:          now,
		GeneratedAt: now,
	}
	for _, e := range entries {
		result.Entries = append(result.Entries, toXPChangeDTO(e))
		result.TotalGained += e.Delta
	}

	if q.RecentLimit > 0 {
		recent, err := h.historyRepo.GetRecentXPChanges(ctx, q.LearnerID, q.RecentLimit)
		if err != nil {
			return nil, fmt.Errorf("get_xp_history: recent: %w", err)
		}
		result.Recent = make([]XPChangeDTO, 0, len(recent))
		for _, e := range recent {
			result.Recent = append(result.Recent, toXPChangeDTO(e))
		}
	}

	return result, nil
}

// toXPChangeDTO преобразует запись журнала в DTO.
func toXPChangeDTO(e learner.XPHistoryEntry) XPChangeDTO {
	return XPChangeDTO{
		Timestamp: e.Timestamp,
		OldXP:     e.OldXP,
		NewXP:     e.NewXP,
		Delta:     e.Delta,
		Source:    string(e.Source),
		Reference: e.Reference,
	}
}
