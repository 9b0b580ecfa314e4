package leaderboard

import (
	"context"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROJECTION INTERFACE
// Контракт проекции рейтинга. Реализация - Redis в infrastructure слое.
// Все операции записи best-effort: вызывающая сторона логирует ошибку
// и продолжает, источником истины остаётся Postgres.
// ══════════════════════════════════════════════════════════════════════════════

// Projection определяет операции проекции рейтинга.
type Projection interface {
	// Upsert записывает или обновляет запись учащегося в проекции.
	Upsert(ctx context.Context, entry Entry) error

	// Top возвращает первые limit записей с присвоенными местами.
	Top(ctx context.Context, limit int) ([]Entry, error)

	// PositionOf возвращает место учащегося (с 1).
	// Возвращает ErrNotRanked, если учащегося нет в проекции.
	PositionOf(ctx context.Context, userID string) (Position, error)

	// EntryOf возвращает запись учащегося с присвоенным местом.
	// Возвращает ErrNotRanked, если учащегося нет в проекции.
	EntryOf(ctx context.Context, userID string) (Entry, error)

	// Total возвращает количество участников проекции.
	Total(ctx context.Context) (int, error)

	// Rebuild атомарно замещает проекцию свежим снимком таблицы учащихся.
	Rebuild(ctx context.Context, entries []Entry) error
}
