package learner

import (
	"math"
	"time"

	"github.com/eduquest-hub/eduquest-core/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// QUIZ XP (Начисление опыта за квиз)
// Формула: base + streak_bonus + perfect_bonus + time_bonus, умноженная на
// множитель серии. Множитель берётся от серии ДО её продления за сегодня.
// ══════════════════════════════════════════════════════════════════════════════

const (
	// XPPerCorrectAnswer - очков за каждый правильный ответ.
	XPPerCorrectAnswer = 10

	// StreakBonusPerDay - очков за каждый день текущей серии.
	StreakBonusPerDay = 5

	// PerfectScoreBonus - бонус за безошибочный квиз.
	PerfectScoreBonus = 50
)

// MultiplierFor возвращает множитель XP по длине серии.
func MultiplierFor(streak int) float64 {
	switch {
	case streak >= 100:
		return 3.0
	case streak >= 30:
		return 2.0
	case streak >= 7:
		return 1.5
	default:
		return 1.0
	}
}

// QuizResult - входные данные завершённого квиза.
type QuizResult struct {
	// QuizID - идентификатор квиза (для истории).
	QuizID string

	// Score - результат в процентах (0-100).
	Score shared.Score

	// TotalQuestions - количество вопросов.
	TotalQuestions int

	// CorrectAnswers - правильных ответов.
	CorrectAnswers int

	// WrongAnswers - неправильных ответов.
	WrongAnswers int

	// PerfectScore - клиентский флаг безошибочного прохождения.
	PerfectScore bool

	// TimeBonus - бонус за скорость, посчитанный клиентом.
	TimeBonus int
}

// Validate проверяет согласованность результата квиза.
func (r QuizResult) Validate() error {
	if r.TotalQuestions <= 0 {
		return ErrInvalidQuizResult
	}
	if r.CorrectAnswers < 0 || r.WrongAnswers < 0 || r.TimeBonus < 0 {
		return ErrInvalidQuizResult
	}
	if r.CorrectAnswers+r.WrongAnswers > r.TotalQuestions {
		return ErrInvalidQuizResult
	}
	if !r.Score.IsValid() {
		return ErrInvalidQuizResult
	}
	return nil
}

// IsPerfect сообщает, был ли квиз пройден безошибочно.
func (r QuizResult) IsPerfect() bool {
	return r.PerfectScore || r.Score.IsPerfect()
}

// XPBreakdown - детализация начисленного опыта.
type XPBreakdown struct {
	Base         int
	StreakBonus  int
	PerfectBonus int
	TimeBonus    int
	Subtotal     int
	Multiplier   float64
	Total        int
}

// CalculateQuizXP считает опыт за квиз. Серия передаётся в состоянии
// ДО продления: и бонус за серию, и множитель используют вчерашнее значение.
func CalculateQuizXP(result QuizResult, currentStreak int) XPBreakdown {
	base := result.CorrectAnswers * XPPerCorrectAnswer

	streakBonus := 0
	if currentStreak > 0 {
		streakBonus = currentStreak * StreakBonusPerDay
	}

	perfectBonus := 0
	if result.IsPerfect() {
		perfectBonus = PerfectScoreBonus
	}

	subtotal := base + streakBonus + perfectBonus + result.TimeBonus
	multiplier := MultiplierFor(currentStreak)
	total := int(math.Floor(float64(subtotal) * multiplier))

	return XPBreakdown{
		Base:         base,
		StreakBonus:  streakBonus,
		PerfectBonus: perfectBonus,
		TimeBonus:    result.TimeBonus,
		Subtotal:     subtotal,
		Multiplier:   multiplier,
		Total:        total,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// XP APPLICATION (Единственная точка изменения XP и ранга)
// ══════════════════════════════════════════════════════════════════════════════

// XPApplication - результат начисления опыта.
type XPApplication struct {
	OldXP    int
	NewXP    int
	Amount   int
	RankedUp bool
	OldRank  Rank
	NewRank  Rank
}

// ApplyXP начисляет опыт и пересчитывает ранг. Это единственный метод,
// изменяющий XP и Rank учащегося.
func (l *Learner) ApplyXP(amount int, now time.Time) (XPApplication, error) {
	if amount < 0 {
		return XPApplication{}, ErrNegativeXPAmount
	}

	oldXP := l.XP
	newXP := oldXP + amount

	rankedUp, oldRank, newRank := CompareRanks(oldXP, newXP)

	l.XP = newXP
	l.Rank = newRank
	l.UpdatedAt = now.UTC()

	return XPApplication{
		OldXP:    oldXP,
		NewXP:    newXP,
		Amount:   amount,
		RankedUp: rankedUp,
		OldRank:  oldRank,
		NewRank:  newRank,
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// XP HISTORY (Журнал изменений опыта)
// ══════════════════════════════════════════════════════════════════════════════

// XPSource - источник начисления опыта.
type XPSource string

const (
	XPSourceQuiz            XPSource = "quiz"
	XPSourceStreakMilestone XPSource = "streak_milestone"
	XPSourceLoginBonus      XPSource = "login_bonus"
	XPSourceAchievement     XPSource = "achievement"
	XPSourceDailyQuest      XPSource = "daily_quest"
	XPSourceWeeklyQuest     XPSource = "weekly_quest"
)

// XPHistoryEntry - одна запись в журнале опыта.
type XPHistoryEntry struct {
	// LearnerID - идентификатор учащегося.
	LearnerID string

	// Timestamp - время начисления.
	Timestamp time.Time

	// OldXP - опыт до начисления.
	OldXP int

	// NewXP - опыт после начисления.
	NewXP int

	// Delta - величина начисления.
	Delta int

	// Source - источник (quiz, login_bonus, ...).
	Source XPSource

	// Reference - идентификатор источника, если применимо
	// (ID квиза, ID достижения, день вехи).
	Reference string
}
