package learner

import (
	"time"

	"github.com/eduquest-hub/eduquest-core/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN EVENTS
// События, которые происходят в домене учащихся и на которые могут
// реагировать другие части системы (квестовые доски, лидерборд и т.д.).
// Все события совместимы с шиной: реализуют shared.Event.
// ══════════════════════════════════════════════════════════════════════════════

// RegisteredEvent - учащийся зарегистрировался в системе.
type RegisteredEvent struct {
	shared.BaseEvent
	Username string
	Email    string
}

// NewRegisteredEvent создаёт событие регистрации.
func NewRegisteredEvent(l *Learner) RegisteredEvent {
	return RegisteredEvent{
		BaseEvent: shared.NewBaseEvent(shared.EventLearnerRegistered, l.ID),
		Username:  l.Username.String(),
		Email:     l.Email.String(),
	}
}

// Payload возвращает данные события.
func (e RegisteredEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"username": e.Username,
		"email":    e.Email,
	}
}

// QuizSubmittedEvent - учащийся завершил квиз.
type QuizSubmittedEvent struct {
	shared.BaseEvent
	QuizID         string
	Score          float64
	TotalQuestions int
	CorrectAnswers int
	WrongAnswers   int
	Perfect        bool
	Passing        bool
	XPAwarded      int
}

// NewQuizSubmittedEvent создаёт событие завершения квиза.
func NewQuizSubmittedEvent(l *Learner, result QuizResult, xpAwarded int) QuizSubmittedEvent {
	return QuizSubmittedEvent{
		BaseEvent:      shared.NewBaseEvent(shared.EventQuizSubmitted, l.ID),
		QuizID:         result.QuizID,
		Score:          result.Score.Float64(),
		TotalQuestions: result.TotalQuestions,
		CorrectAnswers: result.CorrectAnswers,
		WrongAnswers:   result.WrongAnswers,
		Perfect:        result.IsPerfect(),
		Passing:        result.Score.IsPassing(),
		XPAwarded:      xpAwarded,
	}
}

// Payload возвращает данные события.
func (e QuizSubmittedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"quiz_id":         e.QuizID,
		"score":           e.Score,
		"total_questions": e.TotalQuestions,
		"correct_answers": e.CorrectAnswers,
		"wrong_answers":   e.WrongAnswers,
		"perfect":         e.Perfect,
		"passing":         e.Passing,
		"xp_awarded":      e.XPAwarded,
	}
}

// XPAwardedEvent - учащемуся начислен опыт.
type XPAwardedEvent struct {
	shared.BaseEvent
	OldXP     int
	NewXP     int
	Amount    int
	Source    XPSource
	Reference string
}

// NewXPAwardedEvent создаёт событие начисления опыта.
func NewXPAwardedEvent(l *Learner, applied XPApplication, source XPSource, reference string) XPAwardedEvent {
	return XPAwardedEvent{
		BaseEvent: shared.NewBaseEvent(shared.EventXPAwarded, l.ID),
		OldXP:     applied.OldXP,
		NewXP:     applied.NewXP,
		Amount:    applied.Amount,
		Source:    source,
		Reference: reference,
	}
}

// Payload возвращает данные события.
func (e XPAwardedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"old_xp":    e.OldXP,
		"new_xp":    e.NewXP,
		"amount":    e.Amount,
		"source":    string(e.Source),
		"reference": e.Reference,
	}
}

// RankChangedEvent - учащийся перешёл на новый ранг.
type RankChangedEvent struct {
	shared.BaseEvent
	OldRank Rank
	NewRank Rank
	TotalXP int
}

// NewRankChangedEvent создаёт событие смены ранга.
func NewRankChangedEvent(l *Learner, oldRank, newRank Rank) RankChangedEvent {
	return RankChangedEvent{
		BaseEvent: shared.NewBaseEvent(shared.EventRankChanged, l.ID),
		OldRank:   oldRank,
		NewRank:   newRank,
		TotalXP:   l.XP,
	}
}

// Payload возвращает данные события.
func (e RankChangedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"old_rank": string(e.OldRank),
		"new_rank": string(e.NewRank),
		"total_xp": e.TotalXP,
	}
}

// StreakAdvancedEvent - серия учебных дней продлена.
type StreakAdvancedEvent struct {
	shared.BaseEvent
	CurrentStreak  int
	LongestStreak  int
	FreezeConsumed bool
	IsNewRecord    bool
}

// NewStreakAdvancedEvent создаёт событие продления серии.
func NewStreakAdvancedEvent(l *Learner, advance StreakAdvance) StreakAdvancedEvent {
	return StreakAdvancedEvent{
		BaseEvent:      shared.NewBaseEvent(shared.EventStreakAdvanced, l.ID),
		CurrentStreak:  advance.CurrentStreak,
		LongestStreak:  advance.LongestStreak,
		FreezeConsumed: advance.FreezeConsumed,
		IsNewRecord:    advance.IsNewRecord,
	}
}

// Payload возвращает данные события.
func (e StreakAdvancedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"current_streak":  e.CurrentStreak,
		"longest_streak":  e.LongestStreak,
		"freeze_consumed": e.FreezeConsumed,
		"is_new_record":   e.IsNewRecord,
	}
}

// StreakMilestoneReachedEvent - достигнута веха серии.
type StreakMilestoneReachedEvent struct {
	shared.BaseEvent
	Days         int
	FreezeTokens int
	BonusXP      int
}

// NewStreakMilestoneReachedEvent создаёт событие достижения вехи.
func NewStreakMilestoneReachedEvent(l *Learner, ms StreakMilestone) StreakMilestoneReachedEvent {
	return StreakMilestoneReachedEvent{
		BaseEvent:    shared.NewBaseEvent(shared.EventStreakMilestoneReached, l.ID),
		Days:         ms.Days,
		FreezeTokens: ms.FreezeTokens,
		BonusXP:      ms.BonusXP,
	}
}

// Payload возвращает данные события.
func (e StreakMilestoneReachedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"days":          e.Days,
		"freeze_tokens": e.FreezeTokens,
		"bonus_xp":      e.BonusXP,
	}
}

// StreakFreezeUsedEvent - активирована заморозка серии.
type StreakFreezeUsedEvent struct {
	shared.BaseEvent
	TokensLeft int
	ExpiresAt  time.Time
}

// NewStreakFreezeUsedEvent создаёт событие активации заморозки.
func NewStreakFreezeUsedEvent(l *Learner) StreakFreezeUsedEvent {
	return StreakFreezeUsedEvent{
		BaseEvent:  shared.NewBaseEvent(shared.EventStreakFreezeUsed, l.ID),
		TokensLeft: l.FreezeTokens,
		ExpiresAt:  l.FreezeExpiresAt,
	}
}

// Payload возвращает данные события.
func (e StreakFreezeUsedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"tokens_left": e.TokensLeft,
		"expires_at":  e.ExpiresAt,
	}
}

// AchievementUnlockedEvent - учащийся получил достижение.
type AchievementUnlockedEvent struct {
	shared.BaseEvent
	AchievementID string
	Name          string
	Icon          string
	XPReward      int
}

// NewAchievementUnlockedEvent создаёт событие получения достижения.
func NewAchievementUnlockedEvent(l *Learner, def AchievementDef) AchievementUnlockedEvent {
	return AchievementUnlockedEvent{
		BaseEvent:     shared.NewBaseEvent(shared.EventAchievementUnlocked, l.ID),
		AchievementID: def.ID,
		Name:          def.Name,
		Icon:          def.Icon,
		XPReward:      def.XPReward,
	}
}

// Payload возвращает данные события.
func (e AchievementUnlockedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"achievement_id": e.AchievementID,
		"name":           e.Name,
		"icon":           e.Icon,
		"xp_reward":      e.XPReward,
	}
}

// LoginBonusClaimedEvent - получен ежедневный бонус за вход.
type LoginBonusClaimedEvent struct {
	shared.BaseEvent
	Day          int
	XP           int
	FreezeTokens int
	Badge        string
}

// NewLoginBonusClaimedEvent создаёт событие получения бонуса за вход.
func NewLoginBonusClaimedEvent(l *Learner, claim LoginBonusClaim) LoginBonusClaimedEvent {
	return LoginBonusClaimedEvent{
		BaseEvent:    shared.NewBaseEvent(shared.EventLoginBonusClaimed, l.ID),
		Day:          claim.Day,
		XP:           claim.Reward.XP,
		FreezeTokens: claim.Reward.FreezeTokens,
		Badge:        claim.Reward.Badge,
	}
}

// Payload возвращает данные события.
func (e LoginBonusClaimedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"day":           e.Day,
		"xp":            e.XP,
		"freeze_tokens": e.FreezeTokens,
		"badge":         e.Badge,
	}
}
