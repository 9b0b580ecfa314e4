// Package eventhandler содержит обработчики доменных событий.
package eventhandler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/eduquest-hub/eduquest-core/internal/application/command"
	"github.com/eduquest-hub/eduquest-core/internal/domain/learner"
	"github.com/eduquest-hub/eduquest-core/internal/domain/shared"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON QUIZ SUBMITTED HANDLER
// Переносит результат квиза на доски квестов. Квесты подписаны на событие,
// а не вызываются из обработчика команды: отправка квиза фиксируется даже
// если обновление досок упало, прогресс досок доедет при следующем квизе.
// ═══════════════════════════════════════════════════════════════════════════

// OnQuizSubmittedHandler обрабатывает событие завершения квиза.
type OnQuizSubmittedHandler struct {
	trackQuests *command.TrackQuestProgressHandler
	logger      *slog.Logger
}

// NewOnQuizSubmittedHandler создаёт новый обработчик.
func NewOnQuizSubmittedHandler(
	trackQuests *command.TrackQuestProgressHandler,
	logger *slog.Logger,
) *OnQuizSubmittedHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &OnQuizSubmittedHandler{
		trackQuests: trackQuests,
		logger:      logger.With("handler", "on_quiz_submitted"),
	}
}

// Handle обрабатывает событие завершения квиза.
// Сигнатура совместима с shared.EventHandler.
func (h *OnQuizSubmittedHandler) Handle(event shared.Event) error {
	ctx := context.Background()

	quizEvent, ok := event.(learner.QuizSubmittedEvent)
	if !ok {
		h.logger.Warn("received non-QuizSubmittedEvent",
			"event_type", event.EventType(),
		)
		return nil
	}

	result, err := h.trackQuests.Handle(ctx, command.TrackQuestProgressCommand{
		LearnerID:      quizEvent.AggregateID(),
		Score:          quizEvent.Score,
		CorrectAnswers: quizEvent.CorrectAnswers,
		Perfect:        quizEvent.Perfect,
	})
	if err != nil {
		h.logger.Error("failed to track quest progress",
			"learner_id", quizEvent.AggregateID(),
			"quiz_id", quizEvent.QuizID,
			"error", err,
		)
		return fmt.Errorf("on_quiz_submitted: %w", err)
	}

	if len(result.Daily.Completed) > 0 || len(result.Weekly.Completed) > 0 {
		h.logger.Info("quests completed",
			"learner_id", quizEvent.AggregateID(),
			"daily_completed", len(result.Daily.Completed),
			"weekly_completed", len(result.Weekly.Completed),
			"xp_awarded", result.XPAwarded,
		)
	}

	return nil
}

// EventType возвращает тип события, который обрабатывает этот handler.
func (h *OnQuizSubmittedHandler) EventType() shared.EventType {
	return shared.EventQuizSubmitted
}
