package eventhandler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/eduquest-hub/eduquest-core/internal/domain/leaderboard"
	"github.com/eduquest-hub/eduquest-core/internal/domain/learner"
	"github.com/eduquest-hub/eduquest-core/internal/domain/shared"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON RANK CHANGED HANDLER
// Освежает запись учащегося в проекции рейтинга после смены ранга. Команды
// уже обновляют проекцию по результату записи, этот обработчик закрывает
// случай, когда обновление из команды не дошло (проекция была недоступна).
// ═══════════════════════════════════════════════════════════════════════════

// OnRankChangedHandler обрабатывает событие смены ранга.
type OnRankChangedHandler struct {
	learnerRepo learner.Repository
	projection  leaderboard.Projection
	logger      *slog.Logger
}

// NewOnRankChangedHandler создаёт новый обработчик.
func NewOnRankChangedHandler(
	learnerRepo learner.Repository,
	projection leaderboard.Projection,
	logger *slog.Logger,
) *OnRankChangedHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &OnRankChangedHandler{
		learnerRepo: learnerRepo,
		projection:  projection,
		logger:      logger.With("handler", "on_rank_changed"),
	}
}

// Handle обрабатывает событие смены ранга.
// Сигнатура совместима с shared.EventHandler.
func (h *OnRankChangedHandler) Handle(event shared.Event) error {
	ctx := context.Background()

	rankEvent, ok := event.(learner.RankChangedEvent)
	if !ok {
		h.logger.Warn("received non-RankChangedEvent",
			"event_type", event.EventType(),
		)
		return nil
	}

	h.logger.Info("rank changed",
		"learner_id", rankEvent.AggregateID(),
		"old_rank", string(rankEvent.OldRank),
		"new_rank", string(rankEvent.NewRank),
		"total_xp", rankEvent.TotalXP,
	)

	if h.projection == nil {
		return nil
	}

	lrn, err := h.learnerRepo.GetByID(ctx, rankEvent.AggregateID())
	if err != nil {
		return fmt.Errorf("on_rank_changed: load learner: %w", err)
	}

	if err := h.projection.Upsert(ctx, leaderboard.Entry{
		UserID:      lrn.ID,
		Username:    lrn.Username.String(),
		DisplayName: lrn.DisplayName,
		AvatarURL:   lrn.AvatarURL,
		TotalXP:     lrn.XP,
		Rank:        string(lrn.Rank),
		Goal:        lrn.Goal,
		UpdatedAt:   lrn.UpdatedAt,
	}); err != nil {
		h.logger.Error("failed to refresh leaderboard entry",
			"learner_id", lrn.ID,
			"error", err,
		)
	}

	return nil
}

// EventType возвращает тип события, который обрабатывает этот handler.
func (h *OnRankChangedHandler) EventType() shared.EventType {
	return shared.EventRankChanged
}
