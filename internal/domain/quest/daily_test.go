package quest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduquest-hub/eduquest-core/pkg/timeutil"
)

var boardTime = time.Date(2026, time.March, 14, 10, 0, 0, 0, time.UTC)

func newDailyBoard() *DailyBoard {
	return NewDailyBoard("learner-1", timeutil.DateOf(boardTime), boardTime)
}

func TestNewDailyBoardHasThreeQuests(t *testing.T) {
	b := newDailyBoard()

	require.Len(t, b.Quests, 3)
	assert.Equal(t, DailyFirstQuiz, b.Quests[0].ID)
	assert.Equal(t, DailyCorrectTen, b.Quests[1].ID)
	assert.Equal(t, DailyPerfectScore, b.Quests[2].ID)
	assert.False(t, b.AllCompleted())
}

func TestDailyBoardIsStale(t *testing.T) {
	b := newDailyBoard()

	assert.False(t, b.IsStale(timeutil.DateOf(boardTime)))
	assert.True(t, b.IsStale(timeutil.DateOf(boardTime.AddDate(0, 0, 1))))
}

func TestDailyApplyQuizResultFirstQuiz(t *testing.T) {
	b := newDailyBoard()

	progress := b.ApplyQuizResult(4, false, boardTime)

	assert.True(t, progress.Updated)
	require.Len(t, progress.Completed, 1)
	assert.Equal(t, DailyFirstQuiz, progress.Completed[0].ID)
	assert.Equal(t, 20, progress.XPAwarded)

	// Счётчик правильных ответов продвинулся, но квест ещё не выполнен.
	assert.Equal(t, 4, b.Quests[1].Progress)
	assert.False(t, b.Quests[1].Completed)
}

func TestDailyApplyQuizResultAwardsOnlyNewCompletions(t *testing.T) {
	b := newDailyBoard()
	b.ApplyQuizResult(6, false, boardTime)

	// Второй квиз: first_steps уже выполнен, добивается knowledge_seeker.
	progress := b.ApplyQuizResult(6, false, boardTime)

	require.Len(t, progress.Completed, 1)
	assert.Equal(t, DailyCorrectTen, progress.Completed[0].ID)
	assert.Equal(t, 50, progress.XPAwarded)
	assert.Equal(t, 10, b.Quests[1].Progress)
}

func TestDailyApplyQuizResultPerfect(t *testing.T) {
	b := newDailyBoard()

	progress := b.ApplyQuizResult(10, true, boardTime)

	assert.Equal(t, []string{DailyFirstQuiz, DailyCorrectTen, DailyPerfectScore}, completedIDs(progress.Completed))
	assert.Equal(t, 20+50+75, progress.XPAwarded)
	assert.True(t, b.AllCompleted())
}

func TestDailyApplyQuizResultIdempotentWhenDone(t *testing.T) {
	b := newDailyBoard()
	b.ApplyQuizResult(10, true, boardTime)

	progress := b.ApplyQuizResult(5, true, boardTime)

	assert.False(t, progress.Updated)
	assert.Empty(t, progress.Completed)
	assert.Equal(t, 0, progress.XPAwarded)
}

func completedIDs(quests []Quest) []string {
	ids := make([]string, len(quests))
	for i, q := range quests {
		ids[i] = q.ID
	}
	return ids
}
