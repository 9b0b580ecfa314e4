// Package leaderboard содержит read-модель рейтинга EduQuest.
// Рейтинг - это проекция, производная от таблицы учащихся: её можно
// потерять и перестроить. Источник истины для XP всегда Postgres.
package leaderboard

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD ENTRY
// ══════════════════════════════════════════════════════════════════════════════

// Position представляет место в рейтинге. Начинается с 1.
type Position int

// IsValid проверяет, что место положительное.
func (p Position) IsValid() bool {
	return p > 0
}

// IsTop10 возвращает true, если учащийся в топ-10.
func (p Position) IsTop10() bool {
	return p >= 1 && p <= 10
}

// Int возвращает место как число.
func (p Position) Int() int {
	return int(p)
}

// String возвращает строковое представление места.
func (p Position) String() string {
	return fmt.Sprintf("#%d", p)
}

// Entry представляет одну запись в рейтинге.
// Содержит всё для отображения учащегося без похода в основную таблицу.
type Entry struct {
	// Position - текущее место. 0 до присвоения.
	Position Position

	// UserID - внутренний идентификатор учащегося.
	UserID string

	// Username - имя входа.
	Username string

	// DisplayName - отображаемое имя.
	DisplayName string

	// AvatarURL - ссылка на аватар.
	AvatarURL string

	// TotalXP - суммарный опыт на момент проекции.
	TotalXP int

	// Rank - геймификационный ранг (Bronze..Diamond) на момент проекции.
	Rank string

	// Goal - учебная цель учащегося, если указана.
	Goal string

	// UpdatedAt - время последнего обновления записи.
	UpdatedAt time.Time
}

// Validate проверяет запись перед записью в проекцию.
func (e Entry) Validate() error {
	if e.UserID == "" {
		return ErrInvalidUserID
	}
	if e.TotalXP < 0 {
		return ErrInvalidXP
	}
	return nil
}

// Clone создаёт копию записи.
func (e *Entry) Clone() *Entry {
	if e == nil {
		return nil
	}
	clone := *e
	return &clone
}

// String возвращает строковое представление для логирования.
func (e *Entry) String() string {
	return fmt.Sprintf(
		"Entry{Position: %d, Username: %s, XP: %d, Rank: %s}",
		e.Position, e.Username, e.TotalXP, e.Rank,
	)
}

// ══════════════════════════════════════════════════════════════════════════════
// PAGE & STANDING
// ══════════════════════════════════════════════════════════════════════════════

// Page - страница рейтинга.
type Page struct {
	// Entries - записи страницы с присвоенными местами.
	Entries []Entry

	// Total - общее количество участников.
	Total int
}

// Standing - положение конкретного учащегося в рейтинге.
type Standing struct {
	// Entry - запись учащегося с местом.
	Entry Entry

	// Total - общее количество участников.
	Total int

	// Percentile - верхний перцентиль (100 = лучше всех, стремится к 0
	// внизу рейтинга).
	Percentile float64
}

// Percentile вычисляет верхний перцентиль места: сто минус доля участников
// строго выше, округлённая до одной десятой. Единственный участник
// получает 100.0.
func Percentile(position Position, total int) float64 {
	if total <= 0 || !position.IsValid() {
		return 0
	}

	above := float64(int(position) - 1)
	p := 100 - above/float64(total)*100
	return math.Round(p*10) / 10
}

// ══════════════════════════════════════════════════════════════════════════════
// RANKING (Построение проекции из снимка таблицы учащихся)
// ══════════════════════════════════════════════════════════════════════════════

// BuildRanking сортирует записи по XP (по убыванию, при равенстве - по имени
// входа) и присваивает места с 1. Используется при перестроении проекции
// и как фолбэк при недоступном Redis.
func BuildRanking(entries []Entry) []Entry {
	ranked := append([]Entry(nil), entries...)

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].TotalXP != ranked[j].TotalXP {
			return ranked[i].TotalXP > ranked[j].TotalXP
		}
		return ranked[i].Username < ranked[j].Username
	})

	for i := range ranked {
		ranked[i].Position = Position(i + 1)
	}
	return ranked
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrInvalidUserID - пустой идентификатор учащегося.
	ErrInvalidUserID = errors.New("invalid user id: cannot be empty")

	// ErrInvalidXP - отрицательный XP.
	ErrInvalidXP = errors.New("invalid xp: must be non-negative")

	// ErrNotRanked - учащегося нет в проекции.
	ErrNotRanked = errors.New("user is not in the leaderboard projection")

	// ErrEmptyLeaderboard - рейтинг пуст.
	ErrEmptyLeaderboard = errors.New("leaderboard is empty")
)
