package leaderboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntryValidate(t *testing.T) {
	valid := Entry{UserID: "u1", Username: "aigerim", TotalXP: 100}
	assert.NoError(t, valid.Validate())

	noID := valid
	noID.UserID = ""
	assert.ErrorIs(t, noID.Validate(), ErrInvalidUserID)

	negative := valid
	negative.TotalXP = -1
	assert.ErrorIs(t, negative.Validate(), ErrInvalidXP)
}

func TestPosition(t *testing.T) {
	assert.False(t, Position(0).IsValid())
	assert.True(t, Position(1).IsValid())
	assert.True(t, Position(10).IsTop10())
	assert.False(t, Position(11).IsTop10())
	assert.Equal(t, "#3", Position(3).String())
}

func TestPercentile(t *testing.T) {
	// Единственный участник - верхние 100%.
	assert.Equal(t, 100.0, Percentile(1, 1))

	assert.Equal(t, 100.0, Percentile(1, 200))
	assert.Equal(t, 99.5, Percentile(2, 200))
	assert.Equal(t, 50.5, Percentile(100, 200))

	// Округление до одной десятой.
	assert.Equal(t, 66.7, Percentile(2, 3))

	assert.Equal(t, 0.0, Percentile(0, 10))
	assert.Equal(t, 0.0, Percentile(5, 0))
}

func TestBuildRanking(t *testing.T) {
	entries := []Entry{
		{UserID: "u1", Username: "bella", TotalXP: 300},
		{UserID: "u2", Username: "askar", TotalXP: 900},
		{UserID: "u3", Username: "aigerim", TotalXP: 300},
	}

	ranked := BuildRanking(entries)

	require.Len(t, ranked, 3)
	assert.Equal(t, "askar", ranked[0].Username)
	assert.Equal(t, Position(1), ranked[0].Position)

	// Равный XP упорядочивается по имени входа.
	assert.Equal(t, "aigerim", ranked[1].Username)
	assert.Equal(t, "bella", ranked[2].Username)
	assert.Equal(t, Position(3), ranked[2].Position)

	// Исходный срез не переупорядочивается.
	assert.Equal(t, "bella", entries[0].Username)
	assert.Equal(t, Position(0), entries[0].Position)
}

func TestBuildRankingEmpty(t *testing.T) {
	assert.Empty(t, BuildRanking(nil))
}
