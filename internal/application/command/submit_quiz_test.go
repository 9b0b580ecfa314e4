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

func newSubmitQuizFixture(t *testing.T) (*SubmitQuizHandler, *memLearnerRepo, *memProjection, *memBus, *timeutil.FixedClock) {
	t.Helper()
	repo := newMemLearnerRepo(seedLearner(t))
	projection := newMemProjection()
	bus := &memBus{}
	clock := timeutil.NewFixedClock(testTime)
	h := NewSubmitQuizHandler(repo, projection, bus, clock, testLogger())
	return h, repo, projection, bus, clock
}

func passingQuiz() SubmitQuizCommand {
	return SubmitQuizCommand{
		LearnerID:      "6a9cdb2e-41f1-4c83-9f3a-8f2d1f9f0c11",
		QuizID:         "go-basics",
		Score:          80,
		TotalQuestions: 5,
		CorrectAnswers: 4,
		WrongAnswers:   1,
	}
}

func TestSubmitQuizAwardsXPAndStreak(t *testing.T) {
	h, repo, _, _, _ := newSubmitQuizFixture(t)

	result, err := h.Handle(context.Background(), passingQuiz())
	require.NoError(t, err)

	assert.Equal(t, 40, result.Breakdown.Total)
	assert.True(t, result.Streak.Updated)
	assert.Equal(t, 1, result.Streak.CurrentStreak)

	// first_quest (10 XP) plus bronze_rank (25 XP) on the first submission.
	assert.Equal(t, []string{"first_quest", "bronze_rank"}, achievementIDs(result.Unlocked))
	assert.Equal(t, 40+10+25, result.TotalXP)

	stored, err := repo.GetByID(context.Background(), passingQuiz().LearnerID)
	require.NoError(t, err)
	assert.Equal(t, 75, stored.XP)
	assert.Equal(t, 1, stored.CurrentStreak)
	assert.Equal(t, 1, stored.QuestsCompleted)
	assert.Equal(t, 2, stored.Version)

	// Timestamps come from the injected clock, never from the wall clock.
	assert.Equal(t, testTime, stored.UpdatedAt)
}

func TestSubmitQuizWritesHistoryPerAward(t *testing.T) {
	h, repo, _, _, _ := newSubmitQuizFixture(t)

	_, err := h.Handle(context.Background(), passingQuiz())
	require.NoError(t, err)

	// One ledger row per XP source: quiz + two achievements.
	require.Len(t, repo.history, 3)
	assert.Equal(t, learner.XPSourceQuiz, repo.history[0].Source)
	assert.Equal(t, "go-basics", repo.history[0].Reference)
	assert.Equal(t, learner.XPSourceAchievement, repo.history[1].Source)
	assert.Equal(t, 0, repo.history[0].OldXP)
	assert.Equal(t, 40, repo.history[0].NewXP)
	assert.Equal(t, 40, repo.history[1].OldXP)
}

func TestSubmitQuizFailingScoreSkipsStreak(t *testing.T) {
	h, repo, _, _, _ := newSubmitQuizFixture(t)

	cmd := passingQuiz()
	cmd.Score = 40
	cmd.CorrectAnswers = 2
	cmd.WrongAnswers = 3

	result, err := h.Handle(context.Background(), cmd)
	require.NoError(t, err)

	assert.False(t, result.Streak.Updated)

	stored, err := repo.GetByID(context.Background(), cmd.LearnerID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.CurrentStreak)
	assert.True(t, stored.LastStudyDate.IsZero())
	// Counters and XP still move on failed quizzes.
	assert.Equal(t, 1, stored.QuestsCompleted)
	assert.Equal(t, 20+10+25, stored.XP)
}

func TestSubmitQuizPublishesEvents(t *testing.T) {
	h, _, _, bus, _ := newSubmitQuizFixture(t)

	_, err := h.Handle(context.Background(), passingQuiz())
	require.NoError(t, err)

	types := bus.types()
	assert.Contains(t, types, shared.EventXPAwarded)
	assert.Contains(t, types, shared.EventQuizSubmitted)
	assert.Contains(t, types, shared.EventStreakAdvanced)
	assert.Contains(t, types, shared.EventAchievementUnlocked)
	assert.NotContains(t, types, shared.EventRankChanged)
}

func TestSubmitQuizRankChange(t *testing.T) {
	h, repo, _, bus, _ := newSubmitQuizFixture(t)
	seeded := repo.learners[passingQuiz().LearnerID]
	seeded.XP = 480
	seeded.Rank = learner.RankBronze

	result, err := h.Handle(context.Background(), passingQuiz())
	require.NoError(t, err)

	assert.True(t, result.RankedUp)
	assert.Equal(t, learner.RankBronze, result.OldRank)
	assert.Equal(t, learner.RankSilver, result.NewRank)
	assert.Contains(t, bus.types(), shared.EventRankChanged)
}

func TestSubmitQuizRefreshesProjection(t *testing.T) {
	h, _, projection, _, _ := newSubmitQuizFixture(t)

	_, err := h.Handle(context.Background(), passingQuiz())
	require.NoError(t, err)

	assert.Equal(t, 1, projection.upserts)
	entry, err := projection.EntryOf(context.Background(), passingQuiz().LearnerID)
	require.NoError(t, err)
	assert.Equal(t, 75, entry.TotalXP)
	assert.Equal(t, "aigerim", entry.Username)
}

func TestSubmitQuizRetriesOnVersionConflict(t *testing.T) {
	h, repo, _, _, _ := newSubmitQuizFixture(t)
	repo.conflicts = 1

	result, err := h.Handle(context.Background(), passingQuiz())
	require.NoError(t, err)
	assert.Equal(t, 75, result.TotalXP)

	// The ledger holds only the rows of the committed attempt.
	assert.Len(t, repo.history, 3)
}

func TestSubmitQuizSameDayDoesNotExtendStreak(t *testing.T) {
	h, repo, _, _, clock := newSubmitQuizFixture(t)

	_, err := h.Handle(context.Background(), passingQuiz())
	require.NoError(t, err)

	clock.Advance(2 * time.Hour)

	result, err := h.Handle(context.Background(), passingQuiz())
	require.NoError(t, err)

	assert.False(t, result.Streak.Updated)
	stored, err := repo.GetByID(context.Background(), passingQuiz().LearnerID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.CurrentStreak)
}

func TestSubmitQuizNextDayStreakBonus(t *testing.T) {
	h, _, _, _, clock := newSubmitQuizFixture(t)

	_, err := h.Handle(context.Background(), passingQuiz())
	require.NoError(t, err)

	clock.AdvanceDays(1)

	result, err := h.Handle(context.Background(), passingQuiz())
	require.NoError(t, err)

	// Second day: streak bonus uses yesterday's streak of 1.
	assert.Equal(t, 5, result.Breakdown.StreakBonus)
	assert.Equal(t, 2, result.Streak.CurrentStreak)
}

func TestSubmitQuizGuestMode(t *testing.T) {
	h, repo, projection, bus, _ := newSubmitQuizFixture(t)

	cmd := SubmitQuizCommand{
		Guest:          true,
		GuestStreak:    7,
		Score:          100,
		TotalQuestions: 5,
		CorrectAnswers: 5,
		PerfectScore:   true,
	}

	result, err := h.Handle(context.Background(), cmd)
	require.NoError(t, err)

	assert.True(t, result.Guest)
	// (50 + 35 + 50) * 1.5 = 202
	assert.Equal(t, 202, result.TotalXP)
	assert.Empty(t, result.Unlocked)

	// Guests leave no trace.
	assert.Empty(t, repo.history, "no history for guests")
	assert.Equal(t, 0, projection.upserts)
	assert.Empty(t, bus.events)
}

func TestSubmitQuizValidation(t *testing.T) {
	h, _, _, _, _ := newSubmitQuizFixture(t)

	cmd := passingQuiz()
	cmd.LearnerID = ""
	_, err := h.Handle(context.Background(), cmd)
	assert.Error(t, err)

	cmd = passingQuiz()
	cmd.TotalQuestions = 0
	_, err = h.Handle(context.Background(), cmd)
	assert.Error(t, err)

	cmd = passingQuiz()
	cmd.Score = 140
	_, err = h.Handle(context.Background(), cmd)
	assert.Error(t, err)
}

func TestSubmitQuizUnknownLearner(t *testing.T) {
	h, _, _, _, _ := newSubmitQuizFixture(t)

	cmd := passingQuiz()
	cmd.LearnerID = "00000000-0000-0000-0000-000000000000"
	_, err := h.Handle(context.Background(), cmd)
	assert.ErrorIs(t, err, shared.ErrLearnerNotFound)
}

func achievementIDs(defs []learner.AchievementDef) []string {
	ids := make([]string, len(defs))
	for i, d := range defs {
		ids[i] = d.ID
	}
	return ids
}
