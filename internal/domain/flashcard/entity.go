// Package flashcard содержит доменную модель флеш-карточек EduQuest
// и планировщик повторений SM-2. Здесь нет внешних зависимостей.
package flashcard

import (
	"errors"
	"strings"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: CARD
// ══════════════════════════════════════════════════════════════════════════════

// Status - стадия изучения карточки. Производная от интервала:
// пересчитывается только внутри Review.
type Status string

const (
	// StatusLearning - карточка новая или недавно сброшена.
	StatusLearning Status = "learning"

	// StatusReviewing - карточка в регулярном повторении (интервал >= 1 дня).
	StatusReviewing Status = "reviewing"

	// StatusMastered - карточка освоена (интервал >= 21 дня).
	StatusMastered Status = "mastered"
)

// IsValid проверяет, что статус известен.
func (s Status) IsValid() bool {
	switch s {
	case StatusLearning, StatusReviewing, StatusMastered:
		return true
	}
	return false
}

// String возвращает строковое представление статуса.
func (s Status) String() string {
	return string(s)
}

// ReviewRecord - одна запись истории повторений. История только растёт.
type ReviewRecord struct {
	// Timestamp - момент повторения.
	Timestamp time.Time `json:"timestamp"`

	// Quality - оценка ответа по шкале SM-2 (0, 3, 4 или 5).
	Quality int `json:"quality"`

	// Interval - интервал в днях, назначенный этим повторением.
	Interval int `json:"interval"`

	// EaseFactor - коэффициент лёгкости после этого повторения.
	EaseFactor float64 `json:"ease_factor"`
}

// Card - флеш-карточка с состоянием планировщика SM-2.
type Card struct {
	// ID - уникальный идентификатор карточки (UUID в строковом формате).
	ID string

	// OwnerID - идентификатор учащегося-владельца.
	OwnerID string

	// Front - лицевая сторона (вопрос).
	Front string

	// Back - оборотная сторона (ответ).
	Back string

	// Hint - подсказка, может быть пустой.
	Hint string

	// Difficulty - заявленная сложность (easy, medium, hard).
	Difficulty string

	// SessionID - идентификатор партии генерации, объединяющей карточки.
	SessionID string

	// SessionName - человекочитаемое имя партии.
	SessionName string

	// Tags - произвольные метки.
	Tags []string

	// Bookmarked - закладка. Не влияет на планировщик.
	Bookmarked bool

	// EaseFactor - коэффициент лёгкости SM-2. Никогда не ниже MinEaseFactor.
	EaseFactor float64

	// Interval - текущий интервал повторения в днях.
	Interval int

	// Repetitions - счётчик успешных повторений подряд.
	Repetitions int

	// NextReviewAt - момент, когда карточка снова становится due.
	NextReviewAt time.Time

	// LastReviewedAt - момент последнего повторения. Нулевой для новой карточки.
	LastReviewedAt time.Time

	// Status - стадия изучения, производная от интервала.
	Status Status

	// ReviewHistory - история повторений в хронологическом порядке.
	ReviewHistory []ReviewRecord

	// Version - версия записи для оптимистичной блокировки.
	Version int

	// CreatedAt - время создания.
	CreatedAt time.Time

	// UpdatedAt - время последнего обновления.
	UpdatedAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrEmptyFront - пустая лицевая сторона.
	ErrEmptyFront = errors.New("card front is required")

	// ErrEmptyBack - пустая оборотная сторона.
	ErrEmptyBack = errors.New("card back is required")
)

// ══════════════════════════════════════════════════════════════════════════════
// FACTORY & VALIDATION
// ══════════════════════════════════════════════════════════════════════════════

// NewCardParams содержит параметры для создания новой карточки.
type NewCardParams struct {
	ID          string
	OwnerID     string
	Front       string
	Back        string
	Hint        string
	Difficulty  string
	SessionID   string
	SessionName string
	Tags        []string
}

// NewCard создаёт новую карточку с начальным состоянием SM-2:
// interval=0, repetitions=0, easeFactor=2.5, статус learning,
// доступна к повторению немедленно.
func NewCard(params NewCardParams, now time.Time) (*Card, error) {
	if params.ID == "" {
		return nil, errors.New("card id is required")
	}
	if params.OwnerID == "" {
		return nil, errors.New("card owner id is required")
	}
	if strings.TrimSpace(params.Front) == "" {
		return nil, ErrEmptyFront
	}
	if strings.TrimSpace(params.Back) == "" {
		return nil, ErrEmptyBack
	}

	difficulty := params.Difficulty
	if difficulty == "" {
		difficulty = "medium"
	}

	ts := now.UTC()

	return &Card{
		ID:           params.ID,
		OwnerID:      params.OwnerID,
		Front:        strings.TrimSpace(params.Front),
		Back:         strings.TrimSpace(params.Back),
		Hint:         params.Hint,
		Difficulty:   difficulty,
		SessionID:    params.SessionID,
		SessionName:  params.SessionName,
		Tags:         append([]string(nil), params.Tags...),
		EaseFactor:   DefaultEaseFactor,
		Interval:     0,
		Repetitions:  0,
		NextReviewAt: ts,
		Status:       StatusLearning,
		Version:      1,
		CreatedAt:    ts,
		UpdatedAt:    ts,
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN METHODS
// ══════════════════════════════════════════════════════════════════════════════

// IsDue сообщает, пора ли повторять карточку.
func (c *Card) IsDue(now time.Time) bool {
	return !c.NextReviewAt.After(now)
}

// ToggleBookmark переключает закладку и возвращает новое значение.
// Планировщик SM-2 не затрагивается.
func (c *Card) ToggleBookmark(now time.Time) bool {
	c.Bookmarked = !c.Bookmarked
	c.UpdatedAt = now.UTC()
	return c.Bookmarked
}

// Clone создаёт глубокую копию карточки.
func (c *Card) Clone() *Card {
	if c == nil {
		return nil
	}

	clone := *c
	clone.Tags = append([]string(nil), c.Tags...)
	clone.ReviewHistory = append([]ReviewRecord(nil), c.ReviewHistory...)
	return &clone
}
