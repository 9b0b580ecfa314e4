package learner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduquest-hub/eduquest-core/pkg/timeutil"
)

func TestClaimLoginBonusFirstDay(t *testing.T) {
	l := newTestLearner(t)

	claim, err := l.ClaimLoginBonus(baseTime)
	require.NoError(t, err)

	assert.Equal(t, 1, claim.Day)
	assert.Equal(t, 10, claim.Reward.XP)
	assert.Equal(t, "day_1", claim.Reference())
	assert.Equal(t, 1, l.LoginStreak)
}

func TestClaimLoginBonusTwiceSameDay(t *testing.T) {
	l := newTestLearner(t)

	_, err := l.ClaimLoginBonus(baseTime)
	require.NoError(t, err)

	_, err = l.ClaimLoginBonus(baseTime.Add(5 * time.Hour))
	assert.ErrorIs(t, err, ErrBonusAlreadyClaimed)
}

func TestClaimLoginBonusConsecutiveDays(t *testing.T) {
	l := newTestLearner(t)

	_, err := l.ClaimLoginBonus(baseTime)
	require.NoError(t, err)

	claim, err := l.ClaimLoginBonus(baseTime.AddDate(0, 0, 1))
	require.NoError(t, err)

	// Обычный день без особой награды.
	assert.Equal(t, 2, claim.Day)
	assert.Equal(t, DailyLoginXP, claim.Reward.XP)
	assert.Equal(t, 2, l.LoginStreak)
}

func TestClaimLoginBonusResetAfterGap(t *testing.T) {
	l := newTestLearner(t)
	l.LoginStreak = 6
	l.LastLoginDate = timeutil.DateOf(baseTime)
	l.LastBonusClaimDate = timeutil.DateOf(baseTime)

	claim, err := l.ClaimLoginBonus(baseTime.AddDate(0, 0, 3))
	require.NoError(t, err)

	assert.Equal(t, 1, claim.Day)
	assert.Equal(t, 1, l.LoginStreak)
}

func TestClaimLoginBonusSpecialDays(t *testing.T) {
	l := newTestLearner(t)
	l.LoginStreak = 6
	l.LastLoginDate = timeutil.DateOf(baseTime)
	l.LastBonusClaimDate = timeutil.DateOf(baseTime)

	claim, err := l.ClaimLoginBonus(baseTime.AddDate(0, 0, 1))
	require.NoError(t, err)

	assert.Equal(t, 7, claim.Day)
	assert.Equal(t, 50, claim.Reward.XP)
	assert.Equal(t, 1, l.FreezeTokens)
	assert.False(t, claim.NewBadge)
}

func TestClaimLoginBonusGrantsBadge(t *testing.T) {
	l := newTestLearner(t)
	l.LoginStreak = 13
	l.LastLoginDate = timeutil.DateOf(baseTime)
	l.LastBonusClaimDate = timeutil.DateOf(baseTime)

	claim, err := l.ClaimLoginBonus(baseTime.AddDate(0, 0, 1))
	require.NoError(t, err)

	assert.Equal(t, 14, claim.Day)
	assert.Equal(t, "two_week_flame", claim.Reward.Badge)
	assert.True(t, claim.NewBadge)
	assert.True(t, l.HasBadge("two_week_flame"))
}

func TestCheckLoginBonusDoesNotMutate(t *testing.T) {
	l := newTestLearner(t)

	status := l.CheckLoginBonus(baseTime)

	assert.True(t, status.Claimable)
	assert.Equal(t, 1, status.Day)
	assert.Equal(t, 10, status.Reward.XP)
	assert.Equal(t, 1, status.NextMilestone.Day)
	assert.Equal(t, 0, l.LoginStreak)
	assert.True(t, l.LastBonusClaimDate.IsZero())
}

func TestCheckLoginBonusAfterClaim(t *testing.T) {
	l := newTestLearner(t)
	_, err := l.ClaimLoginBonus(baseTime)
	require.NoError(t, err)

	status := l.CheckLoginBonus(baseTime.Add(2 * time.Hour))

	assert.False(t, status.Claimable)
	assert.Equal(t, 0, status.Day)
	assert.Equal(t, 3, status.NextMilestone.Day)
	assert.Equal(t, 1, status.LoginStreak)
}

func TestLoginRewardFor(t *testing.T) {
	assert.Equal(t, 250, LoginRewardFor(30).XP)
	assert.Equal(t, "monthly_devotee", LoginRewardFor(30).Badge)
	assert.Equal(t, DailyLoginXP, LoginRewardFor(12).XP)

	// После сотого дня особых наград больше нет.
	l := newTestLearner(t)
	l.LoginStreak = 120
	assert.True(t, l.CheckLoginBonus(baseTime).NextMilestone.IsZero())
}
