package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduquest-hub/eduquest-core/internal/domain/learner"
	"github.com/eduquest-hub/eduquest-core/internal/domain/shared"
	"github.com/eduquest-hub/eduquest-core/pkg/timeutil"
)

func TestUseStreakFreeze(t *testing.T) {
	seed := seedLearner(t)
	seed.FreezeTokens = 2
	repo := newMemLearnerRepo(seed)
	bus := &memBus{}
	h := NewUseStreakFreezeHandler(repo, bus, timeutil.NewFixedClock(testTime), testLogger())

	result, err := h.Handle(context.Background(), UseStreakFreezeCommand{LearnerID: seed.ID})
	require.NoError(t, err)

	assert.Equal(t, 1, result.TokensLeft)
	assert.Equal(t, testTime.Add(learner.FreezeWindow), result.ExpiresAt)
	assert.Equal(t, []shared.EventType{shared.EventStreakFreezeUsed}, bus.types())

	stored, err := repo.GetByID(context.Background(), seed.ID)
	require.NoError(t, err)
	assert.True(t, stored.FreezeActive)
	assert.Equal(t, 1, stored.FreezeTokens)
}

func TestUseStreakFreezeNoTokens(t *testing.T) {
	seed := seedLearner(t)
	repo := newMemLearnerRepo(seed)
	h := NewUseStreakFreezeHandler(repo, &memBus{}, timeutil.NewFixedClock(testTime), testLogger())

	_, err := h.Handle(context.Background(), UseStreakFreezeCommand{LearnerID: seed.ID})
	assert.ErrorIs(t, err, shared.ErrNoFreezeTokens)

	stored, err := repo.GetByID(context.Background(), seed.ID)
	require.NoError(t, err)
	assert.False(t, stored.FreezeActive)
}

func TestUseStreakFreezeValidation(t *testing.T) {
	h := NewUseStreakFreezeHandler(newMemLearnerRepo(), &memBus{}, timeutil.NewFixedClock(testTime), testLogger())

	_, err := h.Handle(context.Background(), UseStreakFreezeCommand{})
	assert.Error(t, err)
}
