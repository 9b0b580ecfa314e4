package flashcard

import (
	"github.com/eduquest-hub/eduquest-core/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN EVENTS
// ══════════════════════════════════════════════════════════════════════════════

// CreatedEvent - карточка создана.
type CreatedEvent struct {
	shared.BaseEvent
	OwnerID     string
	SessionID   string
	SessionName string
}

// NewCreatedEvent создаёт событие создания карточки.
func NewCreatedEvent(c *Card) CreatedEvent {
	return CreatedEvent{
		BaseEvent:   shared.NewBaseEvent(shared.EventCardCreated, c.ID),
		OwnerID:     c.OwnerID,
		SessionID:   c.SessionID,
		SessionName: c.SessionName,
	}
}

// Payload возвращает данные события.
func (e CreatedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"owner_id":     e.OwnerID,
		"session_id":   e.SessionID,
		"session_name": e.SessionName,
	}
}

// ReviewedEvent - карточка повторена.
type ReviewedEvent struct {
	shared.BaseEvent
	OwnerID     string
	Rating      Rating
	Quality     int
	Interval    int
	EaseFactor  float64
	Repetitions int
	Status      Status
	Lapsed      bool
}

// NewReviewedEvent создаёт событие повторения карточки.
func NewReviewedEvent(c *Card, rating Rating, outcome ReviewOutcome) ReviewedEvent {
	return ReviewedEvent{
		BaseEvent:   shared.NewBaseEvent(shared.EventCardReviewed, c.ID),
		OwnerID:     c.OwnerID,
		Rating:      rating,
		Quality:     outcome.Quality,
		Interval:    outcome.Interval,
		EaseFactor:  outcome.EaseFactor,
		Repetitions: outcome.Repetitions,
		Status:      outcome.Status,
		Lapsed:      outcome.Lapsed,
	}
}

// Payload возвращает данные события.
func (e ReviewedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"owner_id":    e.OwnerID,
		"rating":      string(e.Rating),
		"quality":     e.Quality,
		"interval":    e.Interval,
		"ease_factor": e.EaseFactor,
		"repetitions": e.Repetitions,
		"status":      string(e.Status),
		"lapsed":      e.Lapsed,
	}
}
