package quest

import (
	"time"

	"github.com/eduquest-hub/eduquest-core/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// DAILY BOARD (Ежедневная доска)
// Три фиксированных квеста на календарный день UTC. Доска с устаревшей
// датой пересоздаётся при первом обращении (ленивый сброс).
// ══════════════════════════════════════════════════════════════════════════════

// Идентификаторы ежедневных квестов.
const (
	DailyFirstQuiz    = "first_steps"
	DailyCorrectTen   = "knowledge_seeker"
	DailyPerfectScore = "perfectionist"
)

// defaultDailyQuests возвращает стартовый набор ежедневных квестов.
func defaultDailyQuests() []Quest {
	return []Quest{
		{
			ID:          DailyFirstQuiz,
			Title:       "First Steps",
			Description: "Complete your first quiz today",
			Target:      1,
			XP:          20,
			Icon:        "🎯",
		},
		{
			ID:          DailyCorrectTen,
			Title:       "Knowledge Seeker",
			Description: "Answer 10 questions correctly",
			Target:      10,
			XP:          50,
			Icon:        "📖",
		},
		{
			ID:          DailyPerfectScore,
			Title:       "Perfectionist",
			Description: "Achieve a perfect score in a quiz",
			Target:      1,
			XP:          75,
			Icon:        "⭐",
		},
	}
}

// DailyBoard - ежедневная квестовая доска учащегося.
type DailyBoard struct {
	// UserID - идентификатор учащегося.
	UserID string

	// Date - календарный день доски.
	Date timeutil.CalendarDate

	// Quests - квесты дня в фиксированном порядке.
	Quests []Quest

	// Version - версия записи для оптимистичной блокировки.
	Version int

	// CreatedAt - время создания.
	CreatedAt time.Time

	// UpdatedAt - время последнего обновления.
	UpdatedAt time.Time
}

// NewDailyBoard создаёт свежую доску на указанный день.
func NewDailyBoard(userID string, date timeutil.CalendarDate, now time.Time) *DailyBoard {
	ts := now.UTC()
	return &DailyBoard{
		UserID:    userID,
		Date:      date,
		Quests:    defaultDailyQuests(),
		Version:   1,
		CreatedAt: ts,
		UpdatedAt: ts,
	}
}

// IsStale сообщает, что доска относится к прошедшему дню и подлежит сбросу.
func (b *DailyBoard) IsStale(today timeutil.CalendarDate) bool {
	return b.Date != today
}

// DailyProgress - результат применения квиза к ежедневной доске.
type DailyProgress struct {
	// Completed - квесты, выполненные именно этим применением.
	Completed []Quest

	// XPAwarded - суммарная награда за новые выполнения.
	XPAwarded int

	// Updated - изменилась ли доска.
	Updated bool
}

// ApplyQuizResult применяет результат квиза к доске: первый квиз дня,
// правильные ответы и безошибочное прохождение. XP начисляется только
// за квесты, выполненные именно сейчас.
func (b *DailyBoard) ApplyQuizResult(correctAnswers int, perfect bool, now time.Time) DailyProgress {
	var result DailyProgress

	complete := func(q *Quest, done bool) {
		if done {
			result.Completed = append(result.Completed, *q)
			result.XPAwarded += q.XP
		}
	}

	if q := questByID(b.Quests, DailyFirstQuiz); q != nil {
		before := *q
		complete(q, q.advance(1))
		result.Updated = result.Updated || before != *q
	}

	if q := questByID(b.Quests, DailyCorrectTen); q != nil && correctAnswers > 0 {
		before := *q
		complete(q, q.advance(correctAnswers))
		result.Updated = result.Updated || before != *q
	}

	if perfect {
		if q := questByID(b.Quests, DailyPerfectScore); q != nil {
			before := *q
			complete(q, q.advance(1))
			result.Updated = result.Updated || before != *q
		}
	}

	if result.Updated {
		b.UpdatedAt = now.UTC()
	}
	return result
}

// AllCompleted сообщает, выполнены ли все квесты дня.
func (b *DailyBoard) AllCompleted() bool {
	return allCompleted(b.Quests)
}

// Clone создаёт глубокую копию доски.
func (b *DailyBoard) Clone() *DailyBoard {
	if b == nil {
		return nil
	}
	clone := *b
	clone.Quests = cloneQuests(b.Quests)
	return &clone
}
