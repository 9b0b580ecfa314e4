package learner

import (
	"strconv"
	"time"

	"github.com/eduquest-hub/eduquest-core/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// LOGIN BONUS (Ежедневный бонус за вход)
// Серия входов независима от учебной серии: её продлевает сам факт получения
// бонуса, заморозки на неё не действуют. Особые дни дают усиленные награды,
// остальные - небольшой фиксированный XP.
// ══════════════════════════════════════════════════════════════════════════════

// DailyLoginXP - опыт за обычный (не особый) день входа.
const DailyLoginXP = 5

// LoginReward - награда за день серии входов.
type LoginReward struct {
	// Day - день серии входов.
	Day int

	// XP - опыт в награду.
	XP int

	// FreezeTokens - жетонов заморозки в награду.
	FreezeTokens int

	// Badge - бейдж в награду, если предусмотрен.
	Badge string
}

// IsZero сообщает, что награды нет (используется для превью вех).
func (r LoginReward) IsZero() bool {
	return r.Day == 0
}

// loginRewardTable - особые дни серии входов.
var loginRewardTable = []LoginReward{
	{Day: 1, XP: 10},
	{Day: 3, XP: 25},
	{Day: 7, XP: 50, FreezeTokens: 1},
	{Day: 14, XP: 100, FreezeTokens: 1, Badge: "two_week_flame"},
	{Day: 30, XP: 250, FreezeTokens: 2, Badge: "monthly_devotee"},
	{Day: 50, XP: 400, FreezeTokens: 2, Badge: "fifty_club"},
	{Day: 100, XP: 1000, FreezeTokens: 3, Badge: "centurion"},
}

// LoginRewardTable возвращает таблицу особых дней.
func LoginRewardTable() []LoginReward {
	out := make([]LoginReward, len(loginRewardTable))
	copy(out, loginRewardTable)
	return out
}

// LoginRewardFor возвращает награду за указанный день серии входов.
func LoginRewardFor(day int) LoginReward {
	for _, r := range loginRewardTable {
		if r.Day == day {
			return r
		}
	}
	return LoginReward{Day: day, XP: DailyLoginXP}
}

// nextSpecialReward возвращает ближайший особый день, начиная с указанного.
// Возвращает нулевую награду, если особых дней впереди нет.
func nextSpecialReward(fromDay int) LoginReward {
	for _, r := range loginRewardTable {
		if r.Day >= fromDay {
			return r
		}
	}
	return LoginReward{}
}

// LoginBonusStatus - статус бонуса за вход на текущий момент (чистое чтение).
type LoginBonusStatus struct {
	// Claimable - можно ли получить бонус сейчас.
	Claimable bool

	// Day - день серии, который будет засчитан при получении.
	// 0, если бонус за сегодня уже получен.
	Day int

	// Reward - награда, которая будет выдана при получении.
	Reward LoginReward

	// NextMilestone - ближайший особый день серии (превью).
	// Нулевая награда, если особых дней впереди нет.
	NextMilestone LoginReward

	// LoginStreak - текущая (ещё не продлённая) серия входов.
	LoginStreak int
}

// LoginBonusClaim - результат получения бонуса за вход.
type LoginBonusClaim struct {
	// Day - засчитанный день серии входов.
	Day int

	// Reward - выданная награда. XP начисляет вызывающая сторона
	// через ApplyXP.
	Reward LoginReward

	// NewBadge - true, если бейдж награды выдан впервые.
	NewBadge bool
}

// Reference возвращает ссылку для журнала XP.
func (c LoginBonusClaim) Reference() string {
	return "day_" + strconv.Itoa(c.Day)
}

// nextLoginDay вычисляет день серии входов, который будет засчитан сегодня.
// Возвращает 0, если бонус за сегодня уже получен.
func (l *Learner) nextLoginDay(now time.Time) int {
	today := timeutil.DateOf(now)

	if !l.LastBonusClaimDate.IsZero() && l.LastBonusClaimDate.DaysUntil(today) <= 0 {
		return 0
	}

	if !l.LastLoginDate.IsZero() && l.LastLoginDate.DaysUntil(today) == 1 {
		return l.LoginStreak + 1
	}

	return 1
}

// CheckLoginBonus возвращает статус бонуса за вход, ничего не изменяя.
func (l *Learner) CheckLoginBonus(now time.Time) LoginBonusStatus {
	day := l.nextLoginDay(now)
	if day == 0 {
		return LoginBonusStatus{
			Claimable:     false,
			NextMilestone: nextSpecialReward(l.LoginStreak + 1),
			LoginStreak:   l.LoginStreak,
		}
	}

	return LoginBonusStatus{
		Claimable:     true,
		Day:           day,
		Reward:        LoginRewardFor(day),
		NextMilestone: nextSpecialReward(day),
		LoginStreak:   l.LoginStreak,
	}
}

// ClaimLoginBonus выдаёт ежедневный бонус за вход.
// Возвращает ErrBonusAlreadyClaimed при повторной попытке в тот же день.
// XP награды начисляется вызывающей стороной через ApplyXP.
func (l *Learner) ClaimLoginBonus(now time.Time) (LoginBonusClaim, error) {
	day := l.nextLoginDay(now)
	if day == 0 {
		return LoginBonusClaim{}, ErrBonusAlreadyClaimed
	}

	reward := LoginRewardFor(day)
	today := timeutil.DateOf(now)

	l.LoginStreak = day
	l.LastLoginDate = today
	l.LastBonusClaimDate = today
	l.FreezeTokens += reward.FreezeTokens
	newBadge := l.GrantBadge(reward.Badge)
	l.UpdatedAt = now.UTC()

	return LoginBonusClaim{
		Day:      day,
		Reward:   reward,
		NewBadge: newBadge,
	}, nil
}
