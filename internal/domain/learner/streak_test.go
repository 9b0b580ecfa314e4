package learner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduquest-hub/eduquest-core/pkg/timeutil"
)

func TestAdvanceStreakFirstActivity(t *testing.T) {
	l := newTestLearner(t)

	adv := l.AdvanceStreak(baseTime)

	assert.True(t, adv.Updated)
	assert.Equal(t, 1, adv.CurrentStreak)
	assert.Equal(t, 1, adv.LongestStreak)
	assert.True(t, adv.IsNewRecord)
	assert.Nil(t, adv.Milestone)
}

func TestAdvanceStreakSameDayIdempotent(t *testing.T) {
	l := newTestLearner(t)
	l.AdvanceStreak(baseTime)

	// Вечером того же дня серия не меняется.
	adv := l.AdvanceStreak(baseTime.Add(8 * time.Hour))

	assert.False(t, adv.Updated)
	assert.Equal(t, 1, adv.CurrentStreak)
	assert.Equal(t, 1, l.CurrentStreak)
}

func TestAdvanceStreakConsecutiveDays(t *testing.T) {
	l := newTestLearner(t)

	for day := 0; day < 5; day++ {
		l.AdvanceStreak(baseTime.AddDate(0, 0, day))
	}

	assert.Equal(t, 5, l.CurrentStreak)
	assert.Equal(t, 5, l.LongestStreak)
}

func TestAdvanceStreakResetAfterGap(t *testing.T) {
	l := newTestLearner(t)
	l.AdvanceStreak(baseTime)
	l.AdvanceStreak(baseTime.AddDate(0, 0, 1))

	adv := l.AdvanceStreak(baseTime.AddDate(0, 0, 3))

	assert.True(t, adv.Updated)
	assert.Equal(t, 1, adv.CurrentStreak)
	assert.Equal(t, 2, adv.LongestStreak)
	assert.False(t, adv.IsNewRecord)
}

func TestAdvanceStreakFreezeSavesGap(t *testing.T) {
	l := newTestLearner(t)
	l.FreezeTokens = 1
	l.AdvanceStreak(baseTime)
	l.AdvanceStreak(baseTime.AddDate(0, 0, 1))

	// Пропущен день, но заморозка активирована до истечения окна.
	freezeAt := baseTime.AddDate(0, 0, 2)
	require.NoError(t, l.UseStreakFreeze(freezeAt))

	adv := l.AdvanceStreak(freezeAt.Add(12 * time.Hour))

	assert.True(t, adv.FreezeConsumed)
	assert.Equal(t, 3, adv.CurrentStreak)
	assert.False(t, l.FreezeActive)
	assert.Equal(t, 0, l.FreezeTokens)
}

func TestAdvanceStreakExpiredFreezeDoesNotSave(t *testing.T) {
	l := newTestLearner(t)
	l.FreezeTokens = 1
	l.AdvanceStreak(baseTime)
	l.AdvanceStreak(baseTime.AddDate(0, 0, 1))

	require.NoError(t, l.UseStreakFreeze(baseTime.AddDate(0, 0, 2)))

	// Окно заморозки 24 часа уже прошло.
	adv := l.AdvanceStreak(baseTime.AddDate(0, 0, 4))

	assert.False(t, adv.FreezeConsumed)
	assert.Equal(t, 1, adv.CurrentStreak)
	assert.False(t, l.FreezeActive)
	assert.True(t, l.FreezeExpiresAt.IsZero())
}

func TestAdvanceStreakMilestoneGrantedOnce(t *testing.T) {
	l := newTestLearner(t)
	l.CurrentStreak = 6
	l.LongestStreak = 10
	l.LastStudyDate = timeutil.DateOf(baseTime)

	adv := l.AdvanceStreak(baseTime.AddDate(0, 0, 1))

	require.NotNil(t, adv.Milestone)
	assert.Equal(t, 7, adv.Milestone.Days)
	assert.Equal(t, 100, adv.Milestone.BonusXP)
	assert.Equal(t, 1, l.FreezeTokens)
	assert.Equal(t, []int{7}, l.StreakMilestones)

	// Серия снова доходит до 7 после сброса - веха повторно не выдаётся.
	l.CurrentStreak = 6
	l.LastStudyDate = timeutil.DateOf(baseTime.AddDate(0, 0, 10))

	adv = l.AdvanceStreak(baseTime.AddDate(0, 0, 11))
	assert.Nil(t, adv.Milestone)
	assert.Equal(t, 1, l.FreezeTokens)
}

func TestUseStreakFreeze(t *testing.T) {
	l := newTestLearner(t)
	l.FreezeTokens = 2

	require.NoError(t, l.UseStreakFreeze(baseTime))
	assert.True(t, l.FreezeActive)
	assert.Equal(t, baseTime.Add(FreezeWindow), l.FreezeExpiresAt)
	assert.Equal(t, 1, l.FreezeTokens)

	// Повторная активация продлевает окно, но тратит ещё жетон.
	later := baseTime.Add(6 * time.Hour)
	require.NoError(t, l.UseStreakFreeze(later))
	assert.Equal(t, later.Add(FreezeWindow), l.FreezeExpiresAt)
	assert.Equal(t, 0, l.FreezeTokens)

	assert.ErrorIs(t, l.UseStreakFreeze(later), ErrNoFreezeTokens)
}

func TestMilestonesTable(t *testing.T) {
	ms := Milestones()
	require.Len(t, ms, 4)
	assert.Equal(t, 7, ms[0].Days)
	assert.Equal(t, 365, ms[3].Days)
	assert.Equal(t, 10000, ms[3].BonusXP)
}
