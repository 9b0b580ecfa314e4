// Package learner содержит доменную модель учащегося EduQuest.
// Это ядро бизнес-логики - здесь нет внешних зависимостей.
package learner

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/eduquest-hub/eduquest-core/internal/domain/shared"
	"github.com/eduquest-hub/eduquest-core/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: LEARNER
// ══════════════════════════════════════════════════════════════════════════════

// Learner - центральная сущность системы, представляющая учащегося EduQuest.
// Агрегат хранит всё состояние геймификации: опыт, ранг, серии, жетоны
// заморозки, бейджи и достижения.
type Learner struct {
	// ID - внутренний уникальный идентификатор (UUID в строковом формате).
	ID string

	// Username - уникальное имя для входа.
	Username shared.Username

	// Email - адрес электронной почты.
	Email shared.Email

	// PasswordHash - bcrypt-хеш пароля. Никогда не покидает backend.
	PasswordHash string

	// DisplayName - отображаемое имя (может отличаться от логина).
	DisplayName string

	// AvatarURL - ссылка на аватар.
	AvatarURL string

	// Goal - учебная цель, выбранная учащимся. Может быть пустой.
	Goal string

	// XP - суммарные очки опыта. Только растут.
	XP int

	// Rank - текущий ранг, производный от XP. Пересчитывается
	// исключительно внутри ApplyXP.
	Rank Rank

	// CurrentStreak - текущая серия учебных дней.
	CurrentStreak int

	// LongestStreak - рекордная серия учебных дней. Монотонно растёт.
	LongestStreak int

	// LastStudyDate - календарный день последней засчитанной активности.
	LastStudyDate timeutil.CalendarDate

	// FreezeTokens - запас жетонов заморозки серии.
	FreezeTokens int

	// FreezeActive - активирована ли заморозка.
	FreezeActive bool

	// FreezeExpiresAt - момент, когда активная заморозка истекает.
	FreezeExpiresAt time.Time

	// StreakMilestones - дни вех, которые уже были выданы (7, 30, ...).
	// Каждая веха выдаётся не более одного раза за всё время.
	StreakMilestones []int

	// LoginStreak - серия ежедневных входов. Независима от учебной серии.
	LoginStreak int

	// LastLoginDate - календарный день последнего засчитанного входа.
	LastLoginDate timeutil.CalendarDate

	// LastBonusClaimDate - календарный день последнего полученного бонуса
	// за вход. Сравнивается с сегодняшним днём при проверке доступности.
	LastBonusClaimDate timeutil.CalendarDate

	// Badges - полученные бейджи (за бонусы входа и события).
	Badges []string

	// QuestsCompleted - всего завершено квизов.
	QuestsCompleted int

	// CorrectAnswers - всего правильных ответов.
	CorrectAnswers int

	// WrongAnswers - всего неправильных ответов.
	WrongAnswers int

	// Achievements - ID полученных достижений в порядке получения.
	Achievements []string

	// Version - версия записи для оптимистичной блокировки.
	Version int

	// CreatedAt - время регистрации.
	CreatedAt time.Time

	// UpdatedAt - время последнего обновления.
	UpdatedAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrInvalidDisplayName - невалидное отображаемое имя.
	ErrInvalidDisplayName = errors.New("invalid display name: must be 1-100 chars")

	// ErrEmptyPasswordHash - пустой хеш пароля.
	ErrEmptyPasswordHash = errors.New("password hash is required")

	// ErrInvalidQuizResult - некорректные данные результата квиза.
	ErrInvalidQuizResult = errors.New("invalid quiz result")

	// ErrNegativeXPAmount - попытка начислить отрицательный XP.
	ErrNegativeXPAmount = errors.New("xp amount must be non-negative")

	// ErrNoFreezeTokens - нет жетонов заморозки.
	ErrNoFreezeTokens = errors.New("no freeze tokens available")

	// ErrBonusAlreadyClaimed - бонус за вход уже получен сегодня.
	ErrBonusAlreadyClaimed = errors.New("login bonus already claimed today")
)

// ══════════════════════════════════════════════════════════════════════════════
// FACTORY & VALIDATION
// ══════════════════════════════════════════════════════════════════════════════

// DefaultAvatarURL возвращает URL сгенерированного аватара для имени.
func DefaultAvatarURL(username shared.Username) string {
	return "https://api.dicebear.com/7.x/avataaars/svg?seed=" + username.String()
}

// NewLearnerParams содержит параметры для создания нового учащегося.
type NewLearnerParams struct {
	ID           string
	Username     shared.Username
	Email        shared.Email
	PasswordHash string
	DisplayName  string
	AvatarURL    string
	Goal         string
}

// NewLearner создаёт нового учащегося с валидацией всех полей.
// Вся геймификация стартует с нуля: 0 XP, ранг Bronze, пустые серии.
func NewLearner(params NewLearnerParams, now time.Time) (*Learner, error) {
	if params.ID == "" {
		return nil, errors.New("learner id is required")
	}

	if !params.Username.IsValid() {
		return nil, shared.NewDomainError("learner", "NewLearner", shared.ErrValidation, "invalid username")
	}

	if !params.Email.IsValid() {
		return nil, shared.NewDomainError("learner", "NewLearner", shared.ErrValidation, "invalid email")
	}

	if params.PasswordHash == "" {
		return nil, ErrEmptyPasswordHash
	}

	displayName := strings.TrimSpace(params.DisplayName)
	if displayName == "" {
		displayName = params.Username.String()
	}
	if len(displayName) > 100 {
		return nil, ErrInvalidDisplayName
	}

	avatarURL := params.AvatarURL
	if avatarURL == "" {
		avatarURL = DefaultAvatarURL(params.Username)
	}

	ts := now.UTC()

	return &Learner{
		ID:           params.ID,
		Username:     params.Username,
		Email:        params.Email,
		PasswordHash: params.PasswordHash,
		DisplayName:  displayName,
		AvatarURL:    avatarURL,
		Goal:         strings.TrimSpace(params.Goal),
		XP:           0,
		Rank:         RankBronze,
		Version:      1,
		CreatedAt:    ts,
		UpdatedAt:    ts,
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN METHODS (Business Logic)
// ══════════════════════════════════════════════════════════════════════════════

// RecordQuizTaken увеличивает счётчики ответов после завершения квиза.
func (l *Learner) RecordQuizTaken(correct, wrong int, now time.Time) {
	l.QuestsCompleted++
	l.CorrectAnswers += correct
	l.WrongAnswers += wrong
	l.UpdatedAt = now.UTC()
}

// Accuracy возвращает точность ответов в процентах (округлена до 0.1).
// Возвращает 0, если учащийся ещё не отвечал.
func (l *Learner) Accuracy() float64 {
	total := l.CorrectAnswers + l.WrongAnswers
	if total == 0 {
		return 0
	}
	return roundToTenth(float64(l.CorrectAnswers) / float64(total) * 100)
}

// HasAchievement проверяет, получено ли достижение.
func (l *Learner) HasAchievement(id string) bool {
	for _, a := range l.Achievements {
		if a == id {
			return true
		}
	}
	return false
}

// GrantAchievement добавляет достижение, если его ещё нет.
// Возвращает true, если достижение действительно добавлено.
func (l *Learner) GrantAchievement(id string) bool {
	if l.HasAchievement(id) {
		return false
	}
	l.Achievements = append(l.Achievements, id)
	return true
}

// HasBadge проверяет, есть ли у учащегося бейдж.
func (l *Learner) HasBadge(badge string) bool {
	for _, b := range l.Badges {
		if b == badge {
			return true
		}
	}
	return false
}

// GrantBadge добавляет бейдж, если его ещё нет.
// Возвращает true, если бейдж действительно добавлен.
func (l *Learner) GrantBadge(badge string) bool {
	if badge == "" || l.HasBadge(badge) {
		return false
	}
	l.Badges = append(l.Badges, badge)
	return true
}

// StudiedToday сообщает, была ли уже учебная активность сегодня.
func (l *Learner) StudiedToday(now time.Time) bool {
	return !l.LastStudyDate.IsZero() && l.LastStudyDate == timeutil.DateOf(now)
}

// StreakAtRisk сообщает, что серия сгорит, если сегодня не позаниматься.
func (l *Learner) StreakAtRisk(now time.Time) bool {
	if l.CurrentStreak == 0 || l.LastStudyDate.IsZero() {
		return false
	}
	return l.LastStudyDate != timeutil.DateOf(now)
}

// Snapshot возвращает срез прогресса для проверки достижений.
func (l *Learner) Snapshot() ProgressSnapshot {
	return ProgressSnapshot{
		TotalXP:         l.XP,
		QuestsCompleted: l.QuestsCompleted,
		CorrectAnswers:  l.CorrectAnswers,
		CurrentStreak:   l.CurrentStreak,
		Rank:            l.Rank,
	}
}

// String возвращает строковое представление учащегося для логирования.
func (l *Learner) String() string {
	return fmt.Sprintf(
		"Learner{ID: %s, Username: %s, XP: %d, Rank: %s, Streak: %d}",
		l.ID, l.Username, l.XP, l.Rank, l.CurrentStreak,
	)
}

// Clone создаёт глубокую копию учащегося.
func (l *Learner) Clone() *Learner {
	if l == nil {
		return nil
	}

	clone := *l
	clone.StreakMilestones = append([]int(nil), l.StreakMilestones...)
	clone.Badges = append([]string(nil), l.Badges...)
	clone.Achievements = append([]string(nil), l.Achievements...)
	return &clone
}

// roundToTenth округляет до одного знака после запятой.
func roundToTenth(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}
