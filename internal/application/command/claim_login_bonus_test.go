package command

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduquest-hub/eduquest-core/internal/domain/learner"
	"github.com/eduquest-hub/eduquest-core/internal/domain/shared"
	"github.com/eduquest-hub/eduquest-core/pkg/timeutil"
)

func newLoginBonusFixture(t *testing.T) (*ClaimLoginBonusHandler, *memLearnerRepo, *memBus, *timeutil.FixedClock) {
	t.Helper()
	repo := newMemLearnerRepo(seedLearner(t))
	bus := &memBus{}
	clock := timeutil.NewFixedClock(testTime)
	h := NewClaimLoginBonusHandler(repo, newMemProjection(), bus, clock, testLogger())
	return h, repo, bus, clock
}

const loginLearnerID = "6a9cdb2e-41f1-4c83-9f3a-8f2d1f9f0c11"

func TestClaimLoginBonusFirstDay(t *testing.T) {
	h, repo, bus, _ := newLoginBonusFixture(t)

	result, err := h.Handle(context.Background(), ClaimLoginBonusCommand{LearnerID: loginLearnerID})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Claim.Day)
	assert.Equal(t, 10, result.Applied.Amount)
	assert.Equal(t, 3, result.NextMilestone.Day)

	stored, err := repo.GetByID(context.Background(), loginLearnerID)
	require.NoError(t, err)
	assert.Equal(t, 10, stored.XP)
	assert.Equal(t, 1, stored.LoginStreak)

	require.Len(t, repo.history, 1)
	assert.Equal(t, learner.XPSourceLoginBonus, repo.history[0].Source)
	assert.Equal(t, "day_1", repo.history[0].Reference)

	assert.Contains(t, bus.types(), shared.EventLoginBonusClaimed)
}

func TestClaimLoginBonusRepeatSameDay(t *testing.T) {
	h, repo, _, clock := newLoginBonusFixture(t)

	_, err := h.Handle(context.Background(), ClaimLoginBonusCommand{LearnerID: loginLearnerID})
	require.NoError(t, err)

	clock.Advance(3 * time.Hour)

	_, err = h.Handle(context.Background(), ClaimLoginBonusCommand{LearnerID: loginLearnerID})
	assert.ErrorIs(t, err, shared.ErrBonusAlreadyClaimed)

	stored, err := repo.GetByID(context.Background(), loginLearnerID)
	require.NoError(t, err)
	assert.Equal(t, 10, stored.XP)
	assert.Len(t, repo.history, 1)
}

func TestClaimLoginBonusSpecialDayGrantsTokens(t *testing.T) {
	h, repo, _, clock := newLoginBonusFixture(t)

	for day := 0; day < 7; day++ {
		_, err := h.Handle(context.Background(), ClaimLoginBonusCommand{LearnerID: loginLearnerID})
		require.NoError(t, err)
		clock.AdvanceDays(1)
	}

	stored, err := repo.GetByID(context.Background(), loginLearnerID)
	require.NoError(t, err)
	assert.Equal(t, 7, stored.LoginStreak)
	assert.Equal(t, 1, stored.FreezeTokens)
	// day1 10 + days 2,4,5,6 at 5 each + day3 25 + day7 50
	assert.Equal(t, 10+4*5+25+50, stored.XP)
}

func TestClaimLoginBonusValidation(t *testing.T) {
	h, _, _, _ := newLoginBonusFixture(t)

	_, err := h.Handle(context.Background(), ClaimLoginBonusCommand{})
	assert.Error(t, err)
}
