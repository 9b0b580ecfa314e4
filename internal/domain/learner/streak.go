package learner

import (
	"time"

	"github.com/eduquest-hub/eduquest-core/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// STREAK (Серия учебных дней)
// Серия считается по календарным дням UTC. Один засчитанный день - один шаг.
// Пропуск дней сбрасывает серию, если её не спасла активная заморозка.
// ══════════════════════════════════════════════════════════════════════════════

// FreezeWindow - срок действия активированной заморозки.
const FreezeWindow = 24 * time.Hour

// StreakMilestone - веха серии с наградой.
type StreakMilestone struct {
	// Days - длина серии, на которой выдаётся веха.
	Days int

	// FreezeTokens - жетонов заморозки в награду.
	FreezeTokens int

	// BonusXP - бонусный опыт в награду.
	BonusXP int
}

// streakMilestones - вехи от меньшей к большей. Каждая выдаётся один раз.
var streakMilestones = []StreakMilestone{
	{Days: 7, FreezeTokens: 1, BonusXP: 100},
	{Days: 30, FreezeTokens: 2, BonusXP: 500},
	{Days: 100, FreezeTokens: 3, BonusXP: 2000},
	{Days: 365, FreezeTokens: 5, BonusXP: 10000},
}

// Milestones возвращает таблицу вех серии.
func Milestones() []StreakMilestone {
	out := make([]StreakMilestone, len(streakMilestones))
	copy(out, streakMilestones)
	return out
}

// milestoneFor возвращает веху для точной длины серии, если она ещё не выдана.
func milestoneFor(days int, granted []int) *StreakMilestone {
	for _, ms := range streakMilestones {
		if ms.Days != days {
			continue
		}
		for _, g := range granted {
			if g == days {
				return nil
			}
		}
		m := ms
		return &m
	}
	return nil
}

// StreakAdvance - результат продления серии.
type StreakAdvance struct {
	// Updated - изменилось ли состояние. false при повторной активности
	// в тот же день.
	Updated bool

	// CurrentStreak - серия после продления.
	CurrentStreak int

	// LongestStreak - рекорд после продления.
	LongestStreak int

	// FreezeConsumed - была ли потрачена заморозка на спасение серии.
	FreezeConsumed bool

	// IsNewRecord - побит ли личный рекорд.
	IsNewRecord bool

	// Milestone - достигнутая веха, если есть. Бонусный XP вехи
	// начисляет вызывающая сторона через ApplyXP.
	Milestone *StreakMilestone
}

// StreakFreezeActive сообщает, активна ли непросроченная заморозка.
func (l *Learner) StreakFreezeActive(now time.Time) bool {
	return l.FreezeActive && now.Before(l.FreezeExpiresAt)
}

// AdvanceStreak продлевает серию за учебную активность в указанный момент.
//
// Правила:
//   - повторная активность в тот же календарный день ничего не меняет;
//   - активность на следующий день продлевает серию на 1;
//   - при пропуске дней (или первой активности вообще) активная
//     непросроченная заморозка засчитывается как день без пропуска:
//     серия продлевается на 1, заморозка гасится; иначе серия
//     начинается заново с 1;
//   - просроченная, но не погашенная заморозка сбрасывается и не спасает.
//
// Жетоны вехи зачисляются сразу; бонусный XP вехи возвращается в
// StreakAdvance и начисляется вызывающей стороной.
func (l *Learner) AdvanceStreak(now time.Time) StreakAdvance {
	today := timeutil.DateOf(now)

	gap := 0
	if !l.LastStudyDate.IsZero() {
		gap = l.LastStudyDate.DaysUntil(today)
		if gap <= 0 {
			// Тот же день - идемпотентно.
			return StreakAdvance{
				Updated:       false,
				CurrentStreak: l.CurrentStreak,
				LongestStreak: l.LongestStreak,
			}
		}
	}

	freezeConsumed := false
	switch {
	case gap == 1:
		l.CurrentStreak++
	case l.StreakFreezeActive(now):
		l.CurrentStreak++
		l.FreezeActive = false
		l.FreezeExpiresAt = time.Time{}
		freezeConsumed = true
	default:
		if l.FreezeActive {
			// Заморозка была, но истекла - гасим без спасения.
			l.FreezeActive = false
			l.FreezeExpiresAt = time.Time{}
		}
		l.CurrentStreak = 1
	}

	return l.finishAdvance(today, now, freezeConsumed)
}

// finishAdvance фиксирует общие последствия продления: рекорд, дату,
// веху и время обновления.
func (l *Learner) finishAdvance(today timeutil.CalendarDate, now time.Time, freezeConsumed bool) StreakAdvance {
	isNewRecord := l.CurrentStreak > l.LongestStreak
	if isNewRecord {
		l.LongestStreak = l.CurrentStreak
	}

	l.LastStudyDate = today

	milestone := milestoneFor(l.CurrentStreak, l.StreakMilestones)
	if milestone != nil {
		l.StreakMilestones = append(l.StreakMilestones, milestone.Days)
		l.FreezeTokens += milestone.FreezeTokens
	}

	l.UpdatedAt = now.UTC()

	return StreakAdvance{
		Updated:        true,
		CurrentStreak:  l.CurrentStreak,
		LongestStreak:  l.LongestStreak,
		FreezeConsumed: freezeConsumed,
		IsNewRecord:    isNewRecord,
		Milestone:      milestone,
	}
}

// UseStreakFreeze активирует заморозку серии на FreezeWindow.
// Возвращает ErrNoFreezeTokens, если жетонов не осталось.
// Повторная активация при уже активной заморозке продлевает срок,
// но тратит ещё один жетон.
func (l *Learner) UseStreakFreeze(now time.Time) error {
	if l.FreezeTokens <= 0 {
		return ErrNoFreezeTokens
	}

	l.FreezeTokens--
	l.FreezeActive = true
	l.FreezeExpiresAt = now.Add(FreezeWindow)
	l.UpdatedAt = now.UTC()

	return nil
}
