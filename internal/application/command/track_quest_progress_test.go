package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduquest-hub/eduquest-core/internal/domain/learner"
	"github.com/eduquest-hub/eduquest-core/internal/domain/quest"
	"github.com/eduquest-hub/eduquest-core/internal/domain/shared"
	"github.com/eduquest-hub/eduquest-core/pkg/timeutil"
)

// memQuestRepo is an in-memory quest.Repository keyed by learner.
type memQuestRepo struct {
	daily  map[string]*quest.DailyBoard
	weekly map[string]*quest.WeeklyBoard
}

func newMemQuestRepo() *memQuestRepo {
	return &memQuestRepo{
		daily:  make(map[string]*quest.DailyBoard),
		weekly: make(map[string]*quest.WeeklyBoard),
	}
}

func (r *memQuestRepo) GetDaily(_ context.Context, userID string) (*quest.DailyBoard, error) {
	b, ok := r.daily[userID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return b.Clone(), nil
}

func (r *memQuestRepo) SaveDaily(_ context.Context, b *quest.DailyBoard) error {
	r.daily[b.UserID] = b.Clone()
	return nil
}

func (r *memQuestRepo) UpdateDaily(_ context.Context, b *quest.DailyBoard) error {
	stored, ok := r.daily[b.UserID]
	if !ok {
		return shared.ErrNotFound
	}
	if stored.Version != b.Version || stored.Date != b.Date {
		return shared.ErrConflict
	}
	b.Version++
	r.daily[b.UserID] = b.Clone()
	return nil
}

func (r *memQuestRepo) GetWeekly(_ context.Context, userID string) (*quest.WeeklyBoard, error) {
	b, ok := r.weekly[userID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return b.Clone(), nil
}

func (r *memQuestRepo) SaveWeekly(_ context.Context, b *quest.WeeklyBoard) error {
	r.weekly[b.UserID] = b.Clone()
	return nil
}

func (r *memQuestRepo) UpdateWeekly(_ context.Context, b *quest.WeeklyBoard) error {
	stored, ok := r.weekly[b.UserID]
	if !ok {
		return shared.ErrNotFound
	}
	if stored.Version != b.Version || stored.WeekStart != b.WeekStart {
		return shared.ErrConflict
	}
	b.Version++
	r.weekly[b.UserID] = b.Clone()
	return nil
}

func newTrackQuestFixture(t *testing.T) (*TrackQuestProgressHandler, *memQuestRepo, *memLearnerRepo, *memBus, *timeutil.FixedClock) {
	t.Helper()
	learnerRepo := newMemLearnerRepo(seedLearner(t))
	questRepo := newMemQuestRepo()
	bus := &memBus{}
	clock := timeutil.NewFixedClock(testTime)
	awardXP := NewAwardXPHandler(learnerRepo, newMemProjection(), bus, clock, testLogger())
	h := NewTrackQuestProgressHandler(questRepo, learnerRepo, awardXP, bus, clock, testLogger())
	return h, questRepo, learnerRepo, bus, clock
}

func trackCmd() TrackQuestProgressCommand {
	return TrackQuestProgressCommand{
		LearnerID:      "6a9cdb2e-41f1-4c83-9f3a-8f2d1f9f0c11",
		Score:          80,
		CorrectAnswers: 4,
	}
}

func TestTrackQuestProgressMaterializesBoards(t *testing.T) {
	h, questRepo, _, _, _ := newTrackQuestFixture(t)

	result, err := h.Handle(context.Background(), trackCmd())
	require.NoError(t, err)

	// first_steps completes on the first quiz of the day.
	require.Len(t, result.Daily.Completed, 1)
	assert.Equal(t, quest.DailyFirstQuiz, result.Daily.Completed[0].ID)
	assert.Equal(t, 20, result.XPAwarded)

	daily, err := questRepo.GetDaily(context.Background(), trackCmd().LearnerID)
	require.NoError(t, err)
	assert.Equal(t, timeutil.DateOf(testTime), daily.Date)
	assert.Equal(t, 4, daily.Quests[1].Progress)

	weekly, err := questRepo.GetWeekly(context.Background(), trackCmd().LearnerID)
	require.NoError(t, err)
	assert.Equal(t, timeutil.DateOf(testTime).WeekStart(), weekly.WeekStart)
	assert.Equal(t, 1, weekly.Quests[0].Progress)
}

func TestTrackQuestProgressPaysOutThroughLedger(t *testing.T) {
	h, _, learnerRepo, bus, _ := newTrackQuestFixture(t)

	_, err := h.Handle(context.Background(), trackCmd())
	require.NoError(t, err)

	stored, err := learnerRepo.GetByID(context.Background(), trackCmd().LearnerID)
	require.NoError(t, err)
	assert.Equal(t, 20, stored.XP)

	require.Len(t, learnerRepo.history, 1)
	assert.Equal(t, learner.XPSourceDailyQuest, learnerRepo.history[0].Source)
	assert.Equal(t, quest.DailyFirstQuiz, learnerRepo.history[0].Reference)

	assert.Contains(t, bus.types(), shared.EventQuestCompleted)
	assert.Contains(t, bus.types(), shared.EventXPAwarded)
}

func TestTrackQuestProgressStaleBoardResets(t *testing.T) {
	h, questRepo, _, _, clock := newTrackQuestFixture(t)

	_, err := h.Handle(context.Background(), trackCmd())
	require.NoError(t, err)

	clock.AdvanceDays(1)

	result, err := h.Handle(context.Background(), trackCmd())
	require.NoError(t, err)

	// A fresh daily board, so first_steps completes again.
	require.Len(t, result.Daily.Completed, 1)
	assert.Equal(t, quest.DailyFirstQuiz, result.Daily.Completed[0].ID)

	daily, err := questRepo.GetDaily(context.Background(), trackCmd().LearnerID)
	require.NoError(t, err)
	assert.Equal(t, timeutil.DateOf(clock.Now()), daily.Date)
}

func TestTrackQuestProgressSecondQuizSameDay(t *testing.T) {
	h, _, _, _, _ := newTrackQuestFixture(t)

	_, err := h.Handle(context.Background(), trackCmd())
	require.NoError(t, err)

	cmd := trackCmd()
	cmd.CorrectAnswers = 6
	result, err := h.Handle(context.Background(), cmd)
	require.NoError(t, err)

	// 4 + 6 correct answers completes knowledge_seeker; first_steps is done.
	require.Len(t, result.Daily.Completed, 1)
	assert.Equal(t, quest.DailyCorrectTen, result.Daily.Completed[0].ID)
	assert.Equal(t, 50, result.XPAwarded)
}

func TestTrackQuestProgressWeeklyStreakLevel(t *testing.T) {
	h, questRepo, learnerRepo, _, _ := newTrackQuestFixture(t)
	seeded := learnerRepo.learners[trackCmd().LearnerID]
	seeded.CurrentStreak = 5

	_, err := h.Handle(context.Background(), trackCmd())
	require.NoError(t, err)

	weekly, err := questRepo.GetWeekly(context.Background(), trackCmd().LearnerID)
	require.NoError(t, err)
	assert.Equal(t, 5, weekly.Quests[2].Progress)
}

func TestTrackQuestProgressValidation(t *testing.T) {
	h, _, _, _, _ := newTrackQuestFixture(t)

	_, err := h.Handle(context.Background(), TrackQuestProgressCommand{})
	assert.Error(t, err)

	cmd := trackCmd()
	cmd.Score = 130
	_, err = h.Handle(context.Background(), cmd)
	assert.Error(t, err)
}
