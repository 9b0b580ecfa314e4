package quest

import (
	"github.com/eduquest-hub/eduquest-core/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN EVENTS
// ══════════════════════════════════════════════════════════════════════════════

// CompletedEvent - квест выполнен.
type CompletedEvent struct {
	shared.BaseEvent
	Board   BoardType
	QuestID string
	Title   string
	XP      int
}

// NewCompletedEvent создаёт событие выполнения квеста.
// Агрегатом выступает учащийся, владеющий доской.
func NewCompletedEvent(userID string, board BoardType, q Quest) CompletedEvent {
	return CompletedEvent{
		BaseEvent: shared.NewBaseEvent(shared.EventQuestCompleted, userID),
		Board:     board,
		QuestID:   q.ID,
		Title:     q.Title,
		XP:        q.XP,
	}
}

// Payload возвращает данные события.
func (e CompletedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"board":    string(e.Board),
		"quest_id": e.QuestID,
		"title":    e.Title,
		"xp":       e.XP,
	}
}
