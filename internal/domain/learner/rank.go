package learner

// ══════════════════════════════════════════════════════════════════════════════
// RANK (Ранговая лестница)
// Ранг - производная величина от суммарного XP. Пороговая таблица фиксирована;
// ранг определяется как старший порог, не превышающий текущий XP.
// ══════════════════════════════════════════════════════════════════════════════

// Rank представляет ранг учащегося.
type Rank string

const (
	RankBronze   Rank = "Bronze"
	RankSilver   Rank = "Silver"
	RankGold     Rank = "Gold"
	RankPlatinum Rank = "Platinum"
	RankDiamond  Rank = "Diamond"
)

// rankOrder - ранги от младшего к старшему.
var rankOrder = []Rank{RankBronze, RankSilver, RankGold, RankPlatinum, RankDiamond}

// rankThresholds - минимальный XP для каждого ранга.
var rankThresholds = map[Rank]int{
	RankBronze:   0,
	RankSilver:   501,
	RankGold:     1501,
	RankPlatinum: 3001,
	RankDiamond:  7501,
}

// IsValid проверяет, что ранг известен.
func (r Rank) IsValid() bool {
	_, ok := rankThresholds[r]
	return ok
}

// String возвращает строковое представление ранга.
func (r Rank) String() string {
	return string(r)
}

// MinXP возвращает минимальный XP для этого ранга.
func (r Rank) MinXP() int {
	return rankThresholds[r]
}

// Index возвращает порядковый номер ранга (0 = Bronze).
// Для неизвестного ранга возвращает -1.
func (r Rank) Index() int {
	for i, rank := range rankOrder {
		if rank == r {
			return i
		}
	}
	return -1
}

// RankFor определяет ранг по суммарному XP.
func RankFor(xp int) Rank {
	for i := len(rankOrder) - 1; i >= 0; i-- {
		if xp >= rankThresholds[rankOrder[i]] {
			return rankOrder[i]
		}
	}
	return RankBronze
}

// NextRank возвращает следующий ранг и false, если текущий ранг последний.
func NextRank(r Rank) (Rank, bool) {
	idx := r.Index()
	if idx < 0 || idx >= len(rankOrder)-1 {
		return r, false
	}
	return rankOrder[idx+1], true
}

// XPToNextRank возвращает следующий ранг и сколько XP до него осталось.
// Возвращает false, если учащийся уже на высшем ранге.
func XPToNextRank(xp int) (Rank, int, bool) {
	next, ok := NextRank(RankFor(xp))
	if !ok {
		return "", 0, false
	}
	return next, rankThresholds[next] - xp, true
}

// CompareRanks сравнивает ранги до и после изменения XP.
func CompareRanks(oldXP, newXP int) (rankedUp bool, oldRank, newRank Rank) {
	oldRank = RankFor(oldXP)
	newRank = RankFor(newXP)
	return oldRank != newRank, oldRank, newRank
}
