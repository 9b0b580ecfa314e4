package query

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/eduquest-hub/eduquest-core/internal/domain/learner"
	"github.com/eduquest-hub/eduquest-core/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET PROGRESS QUERY
// Собирает полный срез прогресса учащегося: опыт и путь до следующего ранга,
// серии, статус бонуса за вход и каталог достижений с отметками о получении.
// Это главный экран профиля, поэтому всё собирается одним запросом.
// ══════════════════════════════════════════════════════════════════════════════

// GetProgressQuery содержит параметры запроса прогресса.
type GetProgressQuery struct {
	// LearnerID - идентификатор учащегося.
	LearnerID string
}

// Validate проверяет корректность параметров запроса.
func (q GetProgressQuery) Validate() error {
	if q.LearnerID == "" {
		return errors.New("learner_id is required")
	}
	return nil
}

// RankProgressDTO - положение учащегося на лестнице рангов.
type RankProgressDTO struct {
	// Current - текущий ранг.
	Current string `json:"current"`

	// Next - следующий ранг. Пустая строка на последнем ранге.
	Next string `json:"next,omitempty"`

	// XPToNext - сколько опыта осталось до следующего ранга.
	// 0 на последнем ранге.
	XPToNext int `json:"xp_to_next"`
}

// StreakDTO - состояние учебной серии.
type StreakDTO struct {
	// Current - текущая серия.
	Current int `json:"current"`

	// Longest - рекордная серия.
	Longest int `json:"longest"`

	// StudiedToday - засчитан ли сегодняшний день.
	StudiedToday bool `json:"studied_today"`

	// AtRisk - сгорит ли серия, если сегодня не позаниматься.
	AtRisk bool `json:"at_risk"`

	// FreezeTokens - запас жетонов заморозки.
	FreezeTokens int `json:"freeze_tokens"`

	// FreezeActive - активирована ли заморозка.
	FreezeActive bool `json:"freeze_active"`

	// Multiplier - текущий множитель опыта за квизы.
	Multiplier float64 `json:"multiplier"`
}

// LoginBonusDTO - статус ежедневного бонуса за вход.
type LoginBonusDTO struct {
	// Claimable - можно ли получить бонус сейчас.
	Claimable bool `json:"claimable"`

	// Day - день серии, который будет засчитан при получении.
	Day int `json:"day,omitempty"`

	// XP - опыт, который будет выдан.
	XP int `json:"xp,omitempty"`

	// LoginStreak - текущая серия входов.
	LoginStreak int `json:"login_streak"`

	// NextMilestoneDay - ближайший особый день серии.
	NextMilestoneDay int `json:"next_milestone_day,omitempty"`
}

// AchievementDTO - достижение с отметкой получения.
type AchievementDTO struct {
	// ID - идентификатор достижения.
	ID string `json:"id"`

	// Name - название.
	Name string `json:"name"`

	// Description - описание.
	Description string `json:"description"`

	// Icon - эмодзи-иконка.
	Icon string `json:"icon"`

	// XPReward - награда за получение.
	XPReward int `json:"xp_reward"`

	// Earned - получено ли достижение.
	Earned bool `json:"earned"`
}

// GetProgressResult содержит собранный прогресс.
type GetProgressResult struct {
	// LearnerID - идентификатор учащегося.
	LearnerID string `json:"learner_id"`

	// Username - имя входа.
	Username string `json:"username"`

	// DisplayName - отображаемое имя.
	DisplayName string `json:"display_name"`

	// TotalXP - суммарный опыт.
	TotalXP int `json:"total_xp"`

	// Rank - положение на лестнице рангов.
	Rank RankProgressDTO `json:"rank"`

	// Streak - состояние учебной серии.
	Streak StreakDTO `json:"streak"`

	// LoginBonus - статус бонуса за вход.
	LoginBonus LoginBonusDTO `json:"login_bonus"`

	// QuestsCompleted - всего завершено квизов.
	QuestsCompleted int `json:"quests_completed"`

	// CorrectAnswers - всего правильных ответов.
	CorrectAnswers int `json:"correct_answers"`

	// WrongAnswers - всего неправильных ответов.
	WrongAnswers int `json:"wrong_answers"`

	// Accuracy - доля правильных ответов в процентах.
	Accuracy float64 `json:"accuracy"`

	// Achievements - каталог достижений с отметками.
	Achievements []AchievementDTO `json:"achievements"`

	// Badges - полученные бейджи.
	Badges []string `json:"badges"`

	// GeneratedAt - время формирования результата.
	GeneratedAt time.Time `json:"generated_at"`
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// GetProgressHandler обрабатывает запрос прогресса.
type GetProgressHandler struct {
	learnerRepo learner.Repository
	clock       timeutil.Clock
	logger      *slog.Logger
}

// NewGetProgressHandler создаёт новый обработчик.
func NewGetProgressHandler(learnerRepo learner.Repository, clock timeutil.Clock, logger *slog.Logger) *GetProgressHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &GetProgressHandler{
		learnerRepo: learnerRepo,
		clock:       clock,
		logger:      logger.With("query", "get_progress"),
	}
}

// Handle выполняет запрос прогресса.
func (h *GetProgressHandler) Handle(ctx context.Context, q GetProgressQuery) (*GetProgressResult, error) {
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("get_progress: validation failed: %w", err)
	}

	lrn, err := h.learnerRepo.GetByID(ctx, q.LearnerID)
	if err != nil {
		return nil, fmt.Errorf("get_progress: %w", err)
	}

	now := h.clock.Now()
	bonus := lrn.CheckLoginBonus(now)

	result := &GetProgressResult{
		LearnerID:       lrn.ID,
		Username:        lrn.Username.String(),
		DisplayName:     lrn.DisplayName,
		TotalXP:         lrn.XP,
		Rank:            rankProgress(lrn),
		QuestsCompleted: lrn.QuestsCompleted,
		CorrectAnswers:  lrn.CorrectAnswers,
		WrongAnswers:    lrn.WrongAnswers,
		Accuracy:        lrn.Accuracy(),
		Achievements:    achievementList(lrn),
		Badges:          append([]string(nil), lrn.Badges...),
		GeneratedAt:     now,
		Streak: StreakDTO{
			Current:      lrn.CurrentStreak,
			Longest:      lrn.LongestStreak,
			StudiedToday: lrn.StudiedToday(now),
			AtRisk:       lrn.StreakAtRisk(now),
			FreezeTokens: lrn.FreezeTokens,
			FreezeActive: lrn.StreakFreezeActive(now),
			Multiplier:   learner.MultiplierFor(lrn.CurrentStreak),
		},
		LoginBonus: LoginBonusDTO{
			Claimable:        bonus.Claimable,
			Day:              bonus.Day,
			XP:               bonus.Reward.XP,
			LoginStreak:      bonus.LoginStreak,
			NextMilestoneDay: bonus.NextMilestone.Day,
		},
	}

	return result, nil
}

// rankProgress собирает положение учащегося на лестнице рангов.
func rankProgress(lrn *learner.Learner) RankProgressDTO {
	dto := RankProgressDTO{Current: string(lrn.Rank)}
	if next, remaining, ok := learner.XPToNextRank(lrn.XP); ok {
		dto.Next = string(next)
		dto.XPToNext = remaining
	}
	return dto
}

// achievementList накладывает полученные достижения на каталог.
func achievementList(lrn *learner.Learner) []AchievementDTO {
	catalog := learner.AchievementCatalog()
	list := make([]AchievementDTO, 0, len(catalog))
	for _, def := range catalog {
		list = append(list, AchievementDTO{
			ID:          def.ID,
			Name:        def.Name,
			Description: def.Description,
			Icon:        def.Icon,
			XPReward:    def.XPReward,
			Earned:      lrn.HasAchievement(def.ID),
		})
	}
	return list
}
