package learner

// ══════════════════════════════════════════════════════════════════════════════
// ACHIEVEMENTS (Достижения)
// Каталог фиксирован. Проверка чистая: по срезу прогресса и списку уже
// полученных достижений возвращает новые. На каждой оси (серия, квизы,
// правильные ответы, XP) за одну проверку выдаётся только старшая новая
// ступень; младшие добираются при последующих проверках.
// ══════════════════════════════════════════════════════════════════════════════

// AchievementDef описывает достижение.
type AchievementDef struct {
	ID          string
	Name        string
	Description string
	Icon        string
	XPReward    int
}

// achievementCatalog - все достижения в каноническом порядке.
//
// "perfectionist" присутствует в каталоге, но не имеет правила выдачи:
// исторически бейдж анонсирован, механика не включена.
var achievementCatalog = []AchievementDef{
	{ID: "first_quest", Name: "First Steps", Description: "Complete your first quiz", Icon: "🎯", XPReward: 10},
	{ID: "perfectionist", Name: "Perfectionist", Description: "Get 100% on a quiz", Icon: "💯", XPReward: 50},
	{ID: "bronze_rank", Name: "Bronze Warrior", Description: "Reach Bronze rank", Icon: "🥉", XPReward: 25},
	{ID: "silver_rank", Name: "Silver Knight", Description: "Reach Silver rank", Icon: "🥈", XPReward: 50},
	{ID: "gold_rank", Name: "Gold Champion", Description: "Reach Gold rank", Icon: "🥇", XPReward: 100},
	{ID: "platinum_rank", Name: "Platinum Legend", Description: "Reach Platinum rank", Icon: "💎", XPReward: 200},
	{ID: "diamond_rank", Name: "Diamond Master", Description: "Reach Diamond rank", Icon: "👑", XPReward: 500},
	{ID: "streak_3", Name: "On Fire", Description: "Maintain a 3-day streak", Icon: "🔥", XPReward: 30},
	{ID: "streak_7", Name: "Week Warrior", Description: "Maintain a 7-day streak", Icon: "⚡", XPReward: 75},
	{ID: "streak_30", Name: "Dedication", Description: "Maintain a 30-day streak", Icon: "🌟", XPReward: 300},
	{ID: "quest_10", Name: "Adventurer", Description: "Complete 10 quests", Icon: "🗺️", XPReward: 50},
	{ID: "quest_50", Name: "Explorer", Description: "Complete 50 quests", Icon: "🧭", XPReward: 150},
	{ID: "quest_100", Name: "Conqueror", Description: "Complete 100 quests", Icon: "🏆", XPReward: 500},
	{ID: "correct_100", Name: "Smarty Pants", Description: "Answer 100 questions correctly", Icon: "🧠", XPReward: 100},
	{ID: "correct_500", Name: "Genius", Description: "Answer 500 questions correctly", Icon: "🎓", XPReward: 300},
	{ID: "xp_1000", Name: "Rising Star", Description: "Earn 1,000 total XP", Icon: "⭐", XPReward: 100},
	{ID: "xp_5000", Name: "Power User", Description: "Earn 5,000 total XP", Icon: "💪", XPReward: 250},
	{ID: "xp_10000", Name: "Legendary", Description: "Earn 10,000 total XP", Icon: "🌠", XPReward: 1000},
}

// rankAchievements - соответствие текущего ранга достижению.
var rankAchievements = map[Rank]string{
	RankBronze:   "bronze_rank",
	RankSilver:   "silver_rank",
	RankGold:     "gold_rank",
	RankPlatinum: "platinum_rank",
	RankDiamond:  "diamond_rank",
}

// AchievementCatalog возвращает все достижения в каноническом порядке.
func AchievementCatalog() []AchievementDef {
	out := make([]AchievementDef, len(achievementCatalog))
	copy(out, achievementCatalog)
	return out
}

// AchievementByID возвращает определение достижения по ID.
func AchievementByID(id string) (AchievementDef, bool) {
	for _, def := range achievementCatalog {
		if def.ID == id {
			return def, true
		}
	}
	return AchievementDef{}, false
}

// ProgressSnapshot - срез прогресса для проверки достижений.
type ProgressSnapshot struct {
	TotalXP         int
	QuestsCompleted int
	CorrectAnswers  int
	CurrentStreak   int
	Rank            Rank
}

// ladderStep - одна ступень пороговой оси.
type ladderStep struct {
	id        string
	threshold int
}

// Оси с порогами от старшей ступени к младшей.
var (
	streakLadder = []ladderStep{
		{"streak_30", 30},
		{"streak_7", 7},
		{"streak_3", 3},
	}
	questLadder = []ladderStep{
		{"quest_100", 100},
		{"quest_50", 50},
		{"quest_10", 10},
	}
	correctLadder = []ladderStep{
		{"correct_500", 500},
		{"correct_100", 100},
	}
	xpLadder = []ladderStep{
		{"xp_10000", 10000},
		{"xp_5000", 5000},
		{"xp_1000", 1000},
	}
)

// EvaluateAchievements возвращает новые достижения для среза прогресса.
// Порядок результата стабилен: первый квиз, ранг, серия, квизы,
// правильные ответы, XP.
func EvaluateAchievements(snap ProgressSnapshot, earned []string) []AchievementDef {
	has := make(map[string]bool, len(earned))
	for _, id := range earned {
		has[id] = true
	}

	var unlocked []AchievementDef

	grant := func(id string) {
		if def, ok := AchievementByID(id); ok && !has[id] {
			unlocked = append(unlocked, def)
			has[id] = true
		}
	}

	// Первый квиз.
	if snap.QuestsCompleted >= 1 && !has["first_quest"] {
		grant("first_quest")
	}

	// Достижение текущего ранга.
	if id, ok := rankAchievements[snap.Rank]; ok && !has[id] {
		grant(id)
	}

	// Пороговые оси: одна старшая новая ступень за проверку.
	grantLadder := func(ladder []ladderStep, value int) {
		for _, step := range ladder {
			if !has[step.id] && value >= step.threshold {
				grant(step.id)
				return
			}
		}
	}

	grantLadder(streakLadder, snap.CurrentStreak)
	grantLadder(questLadder, snap.QuestsCompleted)
	grantLadder(correctLadder, snap.CorrectAnswers)
	grantLadder(xpLadder, snap.TotalXP)

	return unlocked
}
