package flashcard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduquest-hub/eduquest-core/internal/domain/shared"
)

var reviewTime = time.Date(2026, time.March, 14, 10, 0, 0, 0, time.UTC)

func newTestCard(t *testing.T) *Card {
	t.Helper()
	card, err := NewCard(NewCardParams{
		ID:      "0d4c7e1a-7a26-4f0b-9d35-60b5a1c2ce90",
		OwnerID: "6a9cdb2e-41f1-4c83-9f3a-8f2d1f9f0c11",
		Front:   "What does SM-2 stand for?",
		Back:    "SuperMemo 2",
	}, reviewTime)
	require.NoError(t, err)
	return card
}

func TestNewCardInitialState(t *testing.T) {
	card := newTestCard(t)

	assert.Equal(t, DefaultEaseFactor, card.EaseFactor)
	assert.Equal(t, 0, card.Interval)
	assert.Equal(t, 0, card.Repetitions)
	assert.Equal(t, StatusLearning, card.Status)
	assert.Equal(t, "medium", card.Difficulty)
	assert.True(t, card.IsDue(reviewTime))
}

func TestNewCardValidation(t *testing.T) {
	params := NewCardParams{ID: "id", OwnerID: "owner", Front: "q", Back: "a"}

	p := params
	p.Front = "   "
	_, err := NewCard(p, reviewTime)
	assert.ErrorIs(t, err, ErrEmptyFront)

	p = params
	p.Back = ""
	_, err = NewCard(p, reviewTime)
	assert.ErrorIs(t, err, ErrEmptyBack)

	p = params
	p.OwnerID = ""
	_, err = NewCard(p, reviewTime)
	assert.Error(t, err)
}

func TestReviewIntervalLadder(t *testing.T) {
	card := newTestCard(t)

	// Первый успех: 1 день.
	out, err := card.Review(RatingGood, reviewTime)
	require.NoError(t, err)
	assert.Equal(t, 1, out.Interval)
	assert.Equal(t, 1, out.Repetitions)
	assert.Equal(t, StatusReviewing, out.Status)
	assert.Equal(t, reviewTime.AddDate(0, 0, 1), out.NextReviewAt)

	// Второй успех: 6 дней.
	out, err = card.Review(RatingGood, reviewTime.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, 6, out.Interval)
	assert.Equal(t, 2, out.Repetitions)

	// Третий и далее: round(interval * easeFactor) от значений до пересчёта.
	efBefore := card.EaseFactor
	out, err = card.Review(RatingGood, reviewTime.AddDate(0, 0, 7))
	require.NoError(t, err)
	assert.Equal(t, int(efBefore*6+0.5), out.Interval)
	assert.Equal(t, 3, out.Repetitions)
}

func TestReviewLapseResetsProgress(t *testing.T) {
	card := newTestCard(t)
	_, err := card.Review(RatingGood, reviewTime)
	require.NoError(t, err)
	_, err = card.Review(RatingGood, reviewTime.AddDate(0, 0, 1))
	require.NoError(t, err)

	efBefore := card.EaseFactor
	out, err := card.Review(RatingAgain, reviewTime.AddDate(0, 0, 7))
	require.NoError(t, err)

	assert.True(t, out.Lapsed)
	assert.Equal(t, 0, out.Interval)
	assert.Equal(t, 0, out.Repetitions)
	assert.Equal(t, StatusLearning, out.Status)

	// Провал не трогает коэффициент лёгкости.
	assert.Equal(t, efBefore, card.EaseFactor)

	// Карточка снова due немедленно.
	assert.True(t, card.IsDue(reviewTime.AddDate(0, 0, 7)))
}

func TestReviewEaseFactorClamp(t *testing.T) {
	card := newTestCard(t)
	card.EaseFactor = MinEaseFactor

	// "hard" снижает коэффициент, но не ниже MinEaseFactor.
	out, err := card.Review(RatingHard, reviewTime)
	require.NoError(t, err)
	assert.Equal(t, MinEaseFactor, out.EaseFactor)
}

func TestReviewEasyRaisesEaseFactor(t *testing.T) {
	card := newTestCard(t)

	out, err := card.Review(RatingEasy, reviewTime)
	require.NoError(t, err)

	assert.InDelta(t, 2.6, out.EaseFactor, 1e-9)
}

func TestReviewMasteredStatus(t *testing.T) {
	card := newTestCard(t)
	card.Repetitions = 2
	card.Interval = 10
	card.EaseFactor = 2.5

	out, err := card.Review(RatingGood, reviewTime)
	require.NoError(t, err)

	assert.Equal(t, 25, out.Interval)
	assert.Equal(t, StatusMastered, out.Status)
}

func TestReviewInvalidRating(t *testing.T) {
	card := newTestCard(t)
	before := card.Clone()

	_, err := card.Review(Rating("brilliant"), reviewTime)

	assert.ErrorIs(t, err, shared.ErrInvalidRating)
	assert.Equal(t, before, card)
}

func TestReviewAppendsHistory(t *testing.T) {
	card := newTestCard(t)

	_, err := card.Review(RatingGood, reviewTime)
	require.NoError(t, err)
	_, err = card.Review(RatingAgain, reviewTime.AddDate(0, 0, 1))
	require.NoError(t, err)

	require.Len(t, card.ReviewHistory, 2)
	assert.Equal(t, 4, card.ReviewHistory[0].Quality)
	assert.Equal(t, 0, card.ReviewHistory[1].Quality)
}

func TestStatusForInterval(t *testing.T) {
	assert.Equal(t, StatusLearning, StatusForInterval(0))
	assert.Equal(t, StatusReviewing, StatusForInterval(1))
	assert.Equal(t, StatusReviewing, StatusForInterval(20))
	assert.Equal(t, StatusMastered, StatusForInterval(21))
}

func TestToggleBookmark(t *testing.T) {
	card := newTestCard(t)

	assert.True(t, card.ToggleBookmark(reviewTime))
	assert.False(t, card.ToggleBookmark(reviewTime))
}
