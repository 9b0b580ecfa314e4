package learner

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRankForThresholds(t *testing.T) {
	cases := []struct {
		xp   int
		want Rank
	}{
		{0, RankBronze},
		{500, RankBronze},
		{501, RankSilver},
		{1500, RankSilver},
		{1501, RankGold},
		{3000, RankGold},
		{3001, RankPlatinum},
		{7500, RankPlatinum},
		{7501, RankDiamond},
		{100000, RankDiamond},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, RankFor(tc.xp), "xp=%d", tc.xp)
	}
}

func TestNextRank(t *testing.T) {
	next, ok := NextRank(RankBronze)
	assert.True(t, ok)
	assert.Equal(t, RankSilver, next)

	_, ok = NextRank(RankDiamond)
	assert.False(t, ok)

	_, ok = NextRank(Rank("Unknown"))
	assert.False(t, ok)
}

func TestXPToNextRank(t *testing.T) {
	next, remaining, ok := XPToNextRank(400)
	assert.True(t, ok)
	assert.Equal(t, RankSilver, next)
	assert.Equal(t, 101, remaining)

	next, remaining, ok = XPToNextRank(1501)
	assert.True(t, ok)
	assert.Equal(t, RankPlatinum, next)
	assert.Equal(t, 1500, remaining)

	_, _, ok = XPToNextRank(9000)
	assert.False(t, ok)
}

func TestCompareRanks(t *testing.T) {
	rankedUp, oldRank, newRank := CompareRanks(400, 600)
	assert.True(t, rankedUp)
	assert.Equal(t, RankBronze, oldRank)
	assert.Equal(t, RankSilver, newRank)

	rankedUp, _, _ = CompareRanks(100, 400)
	assert.False(t, rankedUp)
}

func TestRankIndexAndValidity(t *testing.T) {
	assert.Equal(t, 0, RankBronze.Index())
	assert.Equal(t, 4, RankDiamond.Index())
	assert.Equal(t, -1, Rank("Unknown").Index())

	assert.True(t, RankGold.IsValid())
	assert.False(t, Rank("Mithril").IsValid())
}
