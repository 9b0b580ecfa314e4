package flashcard

import (
	"context"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACE
// Контракт хранилища карточек. Реализация - в infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// StatusCounts - количество карточек по стадиям изучения.
type StatusCounts struct {
	Learning  int
	Reviewing int
	Mastered  int
}

// Total возвращает суммарное количество карточек.
func (s StatusCounts) Total() int {
	return s.Learning + s.Reviewing + s.Mastered
}

// Repository определяет операции хранения карточек.
type Repository interface {
	// Create создаёт новую карточку.
	Create(ctx context.Context, c *Card) error

	// GetByID возвращает карточку по ID.
	// Возвращает shared.ErrCardNotFound, если карточка не найдена.
	GetByID(ctx context.Context, id string) (*Card, error)

	// Update сохраняет карточку с оптимистичной блокировкой: запись
	// обновляется только при совпадении Version, после чего Version
	// инкрементируется. Возвращает shared.ErrConflict при несовпадении
	// версии и shared.ErrCardNotFound, если записи нет.
	Update(ctx context.Context, c *Card) error

	// ListDue возвращает карточки владельца, у которых NextReviewAt <= now,
	// от самых просроченных к свежим. limit <= 0 означает без лимита.
	ListDue(ctx context.Context, ownerID string, now time.Time, limit int) ([]*Card, error)

	// ListByOwner возвращает карточки владельца от новых к старым.
	// Непустой status фильтрует по стадии изучения.
	ListByOwner(ctx context.Context, ownerID string, status Status) ([]*Card, error)

	// ListBySession возвращает карточки партии в порядке создания.
	ListBySession(ctx context.Context, sessionID string) ([]*Card, error)

	// CountByStatus возвращает количество карточек владельца по стадиям.
	CountByStatus(ctx context.Context, ownerID string) (StatusCounts, error)

	// CountDue возвращает количество карточек владельца, доступных
	// к повторению на момент now.
	CountDue(ctx context.Context, ownerID string, now time.Time) (int, error)

	// Delete удаляет карточку владельца.
	// Возвращает shared.ErrCardNotFound, если записи нет.
	Delete(ctx context.Context, id, ownerID string) error
}
