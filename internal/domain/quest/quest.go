// Package quest содержит доменную модель квестовых досок EduQuest:
// ежедневной и еженедельной. Доски ленивые: запись пересоздаётся при
// первом обращении в новом периоде. Здесь нет внешних зависимостей.
package quest

// ══════════════════════════════════════════════════════════════════════════════
// QUEST (Одиночный квест на доске)
// ══════════════════════════════════════════════════════════════════════════════

// BoardType - тип квестовой доски.
type BoardType string

const (
	// BoardDaily - ежедневная доска, сбрасывается каждый календарный день.
	BoardDaily BoardType = "daily"

	// BoardWeekly - еженедельная доска, сбрасывается каждый понедельник.
	BoardWeekly BoardType = "weekly"
)

// Quest - один квест с прогрессом.
type Quest struct {
	// ID - стабильный идентификатор квеста внутри доски.
	ID string `json:"id"`

	// Title - название.
	Title string `json:"title"`

	// Description - описание условия.
	Description string `json:"description"`

	// Progress - текущий прогресс. Не превышает Target.
	Progress int `json:"progress"`

	// Target - цель.
	Target int `json:"target"`

	// XP - награда за выполнение.
	XP int `json:"xp"`

	// Icon - иконка для витрины.
	Icon string `json:"icon,omitempty"`

	// Completed - выполнен ли квест. Выставляется один раз.
	Completed bool `json:"completed"`
}

// advance увеличивает прогресс на delta (не выше цели) и возвращает true,
// если квест выполнен именно этим продвижением. Выполненный квест
// не изменяется.
func (q *Quest) advance(delta int) bool {
	if q.Completed || delta <= 0 {
		return false
	}

	q.Progress += delta
	if q.Progress > q.Target {
		q.Progress = q.Target
	}

	if q.Progress >= q.Target {
		q.Completed = true
		return true
	}
	return false
}

// raiseTo поднимает прогресс до value (не выше цели), если value больше
// текущего. Возвращает true, если квест выполнен именно этим продвижением.
// Используется для квестов-уровней вроде длины серии.
func (q *Quest) raiseTo(value int) bool {
	if q.Completed {
		return false
	}

	if value > q.Target {
		value = q.Target
	}
	if value <= q.Progress {
		return false
	}

	q.Progress = value
	if q.Progress >= q.Target {
		q.Completed = true
		return true
	}
	return false
}

// questByID возвращает указатель на квест с данным ID.
func questByID(quests []Quest, id string) *Quest {
	for i := range quests {
		if quests[i].ID == id {
			return &quests[i]
		}
	}
	return nil
}

// allCompleted сообщает, выполнены ли все квесты.
func allCompleted(quests []Quest) bool {
	for i := range quests {
		if !quests[i].Completed {
			return false
		}
	}
	return len(quests) > 0
}

// cloneQuests копирует срез квестов.
func cloneQuests(quests []Quest) []Quest {
	return append([]Quest(nil), quests...)
}
