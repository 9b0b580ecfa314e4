package learner

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduquest-hub/eduquest-core/internal/domain/shared"
)

var baseTime = time.Date(2026, time.March, 14, 10, 0, 0, 0, time.UTC)

func validParams() NewLearnerParams {
	return NewLearnerParams{
		ID:           "6a9cdb2e-41f1-4c83-9f3a-8f2d1f9f0c11",
		Username:     shared.Username("aigerim"),
		Email:        shared.Email("aigerim@example.com"),
		PasswordHash: "$2a$12$abcdefghijklmnopqrstuv",
	}
}

func newTestLearner(t *testing.T) *Learner {
	t.Helper()
	l, err := NewLearner(validParams(), baseTime)
	require.NoError(t, err)
	return l
}

func TestNewLearnerDefaults(t *testing.T) {
	l := newTestLearner(t)

	assert.Equal(t, 0, l.XP)
	assert.Equal(t, RankBronze, l.Rank)
	assert.Equal(t, 0, l.CurrentStreak)
	assert.True(t, l.LastStudyDate.IsZero())
	assert.Equal(t, 1, l.Version)

	// DisplayName по умолчанию совпадает с логином, аватар генерируется.
	assert.Equal(t, "aigerim", l.DisplayName)
	assert.Contains(t, l.AvatarURL, "aigerim")
}

func TestNewLearnerValidation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*NewLearnerParams)
	}{
		{"empty id", func(p *NewLearnerParams) { p.ID = "" }},
		{"invalid username", func(p *NewLearnerParams) { p.Username = "8starts-with-digit" }},
		{"invalid email", func(p *NewLearnerParams) { p.Email = "not-an-email" }},
		{"empty password hash", func(p *NewLearnerParams) { p.PasswordHash = "" }},
		{"too long display name", func(p *NewLearnerParams) { p.DisplayName = strings.Repeat("x", 101) }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			params := validParams()
			tc.mutate(&params)

			_, err := NewLearner(params, baseTime)
			assert.Error(t, err)
		})
	}
}

func TestAccuracy(t *testing.T) {
	l := newTestLearner(t)
	assert.Equal(t, 0.0, l.Accuracy())

	l.RecordQuizTaken(2, 1, baseTime)
	assert.Equal(t, 66.7, l.Accuracy())
	assert.Equal(t, 1, l.QuestsCompleted)
	assert.Equal(t, 2, l.CorrectAnswers)
	assert.Equal(t, 1, l.WrongAnswers)
}

func TestGrantAchievementIdempotent(t *testing.T) {
	l := newTestLearner(t)

	assert.True(t, l.GrantAchievement("first_quest"))
	assert.False(t, l.GrantAchievement("first_quest"))
	assert.Equal(t, []string{"first_quest"}, l.Achievements)
	assert.True(t, l.HasAchievement("first_quest"))
}

func TestGrantBadgeIdempotent(t *testing.T) {
	l := newTestLearner(t)

	assert.False(t, l.GrantBadge(""))
	assert.True(t, l.GrantBadge("centurion"))
	assert.False(t, l.GrantBadge("centurion"))
	assert.Equal(t, []string{"centurion"}, l.Badges)
}

func TestStudiedTodayAndStreakAtRisk(t *testing.T) {
	l := newTestLearner(t)
	assert.False(t, l.StudiedToday(baseTime))
	assert.False(t, l.StreakAtRisk(baseTime))

	l.AdvanceStreak(baseTime)
	assert.True(t, l.StudiedToday(baseTime))
	assert.False(t, l.StreakAtRisk(baseTime))

	nextDay := baseTime.AddDate(0, 0, 1)
	assert.False(t, l.StudiedToday(nextDay))
	assert.True(t, l.StreakAtRisk(nextDay))
}

func TestCloneIsDeepCopy(t *testing.T) {
	l := newTestLearner(t)
	l.GrantAchievement("first_quest")
	l.GrantBadge("centurion")
	l.StreakMilestones = []int{7}

	clone := l.Clone()
	clone.GrantAchievement("streak_3")
	clone.Badges[0] = "changed"
	clone.StreakMilestones[0] = 30

	assert.Equal(t, []string{"first_quest"}, l.Achievements)
	assert.Equal(t, []string{"centurion"}, l.Badges)
	assert.Equal(t, []int{7}, l.StreakMilestones)
}
