// Package learner содержит доменную модель учащегося EduQuest.
//
// Это ядро бизнес-логики системы "EduQuest Core". Пакет определяет:
//
//   - Сущности (Entities): Learner
//   - Value Objects: Rank, QuizResult, XPBreakdown, StreakMilestone, LoginReward
//   - Доменные события (Events): QuizSubmitted, XPAwarded, RankChanged и др.
//   - Интерфейсы репозиториев: Repository, HistoryRepository
//
// # Архитектурные принципы
//
// Пакет следует принципам Clean Architecture и DDD:
//
//  1. Никаких внешних зависимостей - вся геймификация считается в памяти
//  2. Dependency Inversion - определяет интерфейсы, которые реализуются в infrastructure
//  3. Rich Domain Model - бизнес-логика инкапсулирована в сущностях
//
// # Философия проекта
//
// "Учёба как приключение" - каждая активность учащегося (квиз, повторение
// карточек, ежедневный вход) конвертируется в опыт, ранги и достижения.
// Серия активных дней (streak) поощряет регулярность, а заморозки (freeze
// tokens) прощают редкие пропуски.
//
// # Основные операции
//
// Начисление XP за квиз:
//
//	breakdown := CalculateQuizXP(result, lrn.CurrentStreak)
//	applied, err := lrn.ApplyXP(breakdown.Total, now)
//	if applied.RankedUp {
//	    event := NewRankChangedEvent(lrn, applied.OldRank, applied.NewRank)
//	    eventBus.Publish(event)
//	}
//
// Продление серии (только при результате >= 50%):
//
//	if result.Score.IsPassing() {
//	    advance := lrn.AdvanceStreak(now)
//	    if advance.Milestone != nil {
//	        // бонусный XP вехи начисляется через ApplyXP
//	    }
//	}
//
// Проверка достижений:
//
//	unlocked := EvaluateAchievements(lrn.Snapshot(), lrn.Achievements)
//	for _, def := range unlocked {
//	    lrn.GrantAchievement(def.ID)
//	}
//
// # Инварианты
//
// Все переходы состояния детерминированы и идемпотентны по календарному дню:
// повторный квиз в тот же день не продлевает серию, повторный ежедневный
// бонус не выдаётся. XP монотонно растёт; ранг пересчитывается только
// внутри ApplyXP.
package learner
