package quest

import (
	"time"

	"github.com/eduquest-hub/eduquest-core/internal/domain/shared"
	"github.com/eduquest-hub/eduquest-core/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// WEEKLY BOARD (Еженедельная доска)
// Три фиксированных квеста на неделю, привязанную к понедельнику UTC.
// Бонус за полную доску выдаётся один раз за неделю. XP начисляется
// только за квесты, выполненные именно текущим применением.
// ══════════════════════════════════════════════════════════════════════════════

// Идентификаторы еженедельных квестов.
const (
	WeeklyQuizMarathon   = "quiz_marathon"
	WeeklyPerfectScholar = "perfect_scholar"
	WeeklyStreakMaster   = "streak_master"
)

// WeeklyCompletionBonusXP - разовый бонус за выполнение всех квестов недели.
const WeeklyCompletionBonusXP = 200

// defaultWeeklyQuests возвращает стартовый набор еженедельных квестов.
func defaultWeeklyQuests() []Quest {
	return []Quest{
		{
			ID:          WeeklyQuizMarathon,
			Title:       "Quiz Marathon",
			Description: "Complete 20 quizzes this week",
			Target:      20,
			XP:          200,
		},
		{
			ID:          WeeklyPerfectScholar,
			Title:       "Perfect Scholar",
			Description: "Score 90% or higher in 10 quizzes",
			Target:      10,
			XP:          300,
		},
		{
			ID:          WeeklyStreakMaster,
			Title:       "Streak Master",
			Description: "Maintain a 7-day streak",
			Target:      7,
			XP:          500,
		},
	}
}

// WeeklyBoard - еженедельная квестовая доска учащегося.
type WeeklyBoard struct {
	// UserID - идентификатор учащегося.
	UserID string

	// WeekStart - понедельник недели доски.
	WeekStart timeutil.CalendarDate

	// Quests - квесты недели в фиксированном порядке.
	Quests []Quest

	// AllCompleted - выполнены ли все квесты недели.
	AllCompleted bool

	// BonusAwarded - выдан ли разовый бонус за полную доску.
	BonusAwarded bool

	// Version - версия записи для оптимистичной блокировки.
	Version int

	// CreatedAt - время создания.
	CreatedAt time.Time

	// UpdatedAt - время последнего обновления.
	UpdatedAt time.Time
}

// NewWeeklyBoard создаёт свежую доску на неделю указанного понедельника.
func NewWeeklyBoard(userID string, weekStart timeutil.CalendarDate, now time.Time) *WeeklyBoard {
	ts := now.UTC()
	return &WeeklyBoard{
		UserID:    userID,
		WeekStart: weekStart,
		Quests:    defaultWeeklyQuests(),
		Version:   1,
		CreatedAt: ts,
		UpdatedAt: ts,
	}
}

// IsStale сообщает, что доска относится к прошлой неделе и подлежит сбросу.
func (b *WeeklyBoard) IsStale(today timeutil.CalendarDate) bool {
	return b.WeekStart != today.WeekStart()
}

// WeeklyProgress - результат применения квиза к еженедельной доске.
type WeeklyProgress struct {
	// Completed - квесты, выполненные именно этим применением.
	Completed []Quest

	// XPAwarded - суммарная награда за новые выполнения, включая бонус.
	XPAwarded int

	// BonusAwarded - true, если разовый бонус выдан именно сейчас.
	BonusAwarded bool

	// Updated - изменилась ли доска.
	Updated bool
}

// ApplyQuizResult применяет результат квиза к доске: счётчик квизов,
// квизы с высоким результатом и уровень серии. Бонус за полную доску
// начисляется не более одного раза за неделю.
func (b *WeeklyBoard) ApplyQuizResult(score shared.Score, currentStreak int, now time.Time) WeeklyProgress {
	var result WeeklyProgress

	complete := func(q *Quest, done bool) {
		if done {
			result.Completed = append(result.Completed, *q)
			result.XPAwarded += q.XP
		}
	}

	if q := questByID(b.Quests, WeeklyQuizMarathon); q != nil {
		before := *q
		complete(q, q.advance(1))
		result.Updated = result.Updated || before != *q
	}

	if score.IsHigh() {
		if q := questByID(b.Quests, WeeklyPerfectScholar); q != nil {
			before := *q
			complete(q, q.advance(1))
			result.Updated = result.Updated || before != *q
		}
	}

	if q := questByID(b.Quests, WeeklyStreakMaster); q != nil {
		before := *q
		complete(q, q.raiseTo(currentStreak))
		result.Updated = result.Updated || before != *q
	}

	b.AllCompleted = allCompleted(b.Quests)
	if b.AllCompleted && !b.BonusAwarded {
		b.BonusAwarded = true
		result.BonusAwarded = true
		result.XPAwarded += WeeklyCompletionBonusXP
		result.Updated = true
	}

	if result.Updated {
		b.UpdatedAt = now.UTC()
	}
	return result
}

// TimeUntilReset возвращает время до следующего сброса недели
// (ближайшая полночь понедельника UTC).
func TimeUntilReset(now time.Time) time.Duration {
	today := timeutil.DateOf(now)
	nextMonday := today.WeekStart().AddDays(7)
	return nextMonday.Time().Sub(now.UTC())
}

// Clone создаёт глубокую копию доски.
func (b *WeeklyBoard) Clone() *WeeklyBoard {
	if b == nil {
		return nil
	}
	clone := *b
	clone.Quests = cloneQuests(b.Quests)
	return &clone
}
