package query

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduquest-hub/eduquest-core/internal/domain/quest"
	"github.com/eduquest-hub/eduquest-core/internal/domain/shared"
	"github.com/eduquest-hub/eduquest-core/pkg/timeutil"
)

const boardLearnerID = "6a9cdb2e-41f1-4c83-9f3a-8f2d1f9f0c11"

// stubQuestRepo хранит по одной доске каждого вида в памяти.
type stubQuestRepo struct {
	daily  *quest.DailyBoard
	weekly *quest.WeeklyBoard

	dailySaves  int
	weeklySaves int
}

func (s *stubQuestRepo) GetDaily(_ context.Context, _ string) (*quest.DailyBoard, error) {
	if s.daily == nil {
		return nil, shared.ErrNotFound
	}
	return s.daily.Clone(), nil
}

func (s *stubQuestRepo) SaveDaily(_ context.Context, b *quest.DailyBoard) error {
	s.daily = b.Clone()
	s.dailySaves++
	return nil
}

func (s *stubQuestRepo) UpdateDaily(_ context.Context, b *quest.DailyBoard) error {
	s.daily = b.Clone()
	return nil
}

func (s *stubQuestRepo) GetWeekly(_ context.Context, _ string) (*quest.WeeklyBoard, error) {
	if s.weekly == nil {
		return nil, shared.ErrNotFound
	}
	return s.weekly.Clone(), nil
}

func (s *stubQuestRepo) SaveWeekly(_ context.Context, b *quest.WeeklyBoard) error {
	s.weekly = b.Clone()
	s.weeklySaves++
	return nil
}

func (s *stubQuestRepo) UpdateWeekly(_ context.Context, b *quest.WeeklyBoard) error {
	s.weekly = b.Clone()
	return nil
}

func newQuestBoardsFixture() (*GetQuestBoardsHandler, *stubQuestRepo, *timeutil.FixedClock) {
	repo := &stubQuestRepo{}
	clock := timeutil.NewFixedClock(queryTime)
	return NewGetQuestBoardsHandler(repo, clock, queryLogger()), repo, clock
}

func TestGetQuestBoardsMaterializesFreshBoards(t *testing.T) {
	h, repo, _ := newQuestBoardsFixture()

	result, err := h.Handle(context.Background(), GetQuestBoardsQuery{LearnerID: boardLearnerID})
	require.NoError(t, err)

	assert.Equal(t, timeutil.DateOf(queryTime).String(), result.Daily.Date)
	assert.Len(t, result.Daily.Quests, 3)
	assert.False(t, result.Daily.AllCompleted)

	assert.Equal(t, timeutil.DateOf(queryTime).WeekStart().String(), result.Weekly.WeekStart)
	assert.Len(t, result.Weekly.Quests, 3)
	assert.False(t, result.Weekly.BonusAwarded)

	assert.Equal(t, 1, repo.dailySaves)
	assert.Equal(t, 1, repo.weeklySaves)
	assert.Equal(t, queryTime, result.GeneratedAt)
}

func TestGetQuestBoardsCountdownToNextWeek(t *testing.T) {
	h, _, _ := newQuestBoardsFixture()

	result, err := h.Handle(context.Background(), GetQuestBoardsQuery{LearnerID: boardLearnerID})
	require.NoError(t, err)

	// Суббота 10:00 UTC, сброс в полночь понедельника: 38 часов.
	expected := int64((38 * time.Hour).Seconds())
	assert.Equal(t, expected, result.Weekly.SecondsUntilReset)
	assert.Equal(t, expected, int64(quest.TimeUntilReset(queryTime).Seconds()))
}

func TestGetQuestBoardsReturnsFreshBoardsAsIs(t *testing.T) {
	h, repo, _ := newQuestBoardsFixture()

	today := timeutil.DateOf(queryTime)
	daily := quest.NewDailyBoard(boardLearnerID, today, queryTime)
	daily.ApplyQuizResult(4, false, queryTime)
	repo.daily = daily
	repo.weekly = quest.NewWeeklyBoard(boardLearnerID, today.WeekStart(), queryTime)

	result, err := h.Handle(context.Background(), GetQuestBoardsQuery{LearnerID: boardLearnerID})
	require.NoError(t, err)

	// Актуальные доски отдаются без пересоздания, прогресс сохранён.
	assert.Equal(t, 0, repo.dailySaves)
	assert.Equal(t, 0, repo.weeklySaves)
	assert.True(t, result.Daily.Quests[0].Completed)
}

func TestGetQuestBoardsResetsStaleBoards(t *testing.T) {
	h, repo, clock := newQuestBoardsFixture()

	today := timeutil.DateOf(queryTime)
	daily := quest.NewDailyBoard(boardLearnerID, today, queryTime)
	daily.ApplyQuizResult(10, true, queryTime)
	repo.daily = daily
	repo.weekly = quest.NewWeeklyBoard(boardLearnerID, today.WeekStart(), queryTime)

	// Следующий понедельник: устаревают и день, и неделя.
	clock.AdvanceDays(2)

	result, err := h.Handle(context.Background(), GetQuestBoardsQuery{LearnerID: boardLearnerID})
	require.NoError(t, err)

	assert.Equal(t, timeutil.DateOf(clock.Now()).String(), result.Daily.Date)
	assert.False(t, result.Daily.AllCompleted)
	assert.Equal(t, timeutil.DateOf(clock.Now()).WeekStart().String(), result.Weekly.WeekStart)
	assert.Equal(t, 1, repo.dailySaves)
	assert.Equal(t, 1, repo.weeklySaves)
}

func TestGetQuestBoardsValidation(t *testing.T) {
	h, _, _ := newQuestBoardsFixture()

	_, err := h.Handle(context.Background(), GetQuestBoardsQuery{})
	assert.Error(t, err)
}
