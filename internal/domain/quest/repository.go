package quest

import (
	"context"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACE
// Доски хранятся по одной записи на учащегося: запись прошедшего периода
// перезаписывается свежей доской. Реализация - в infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Repository определяет операции хранения квестовых досок.
type Repository interface {
	// GetDaily возвращает ежедневную доску учащегося.
	// Возвращает shared.ErrNotFound, если записи нет.
	GetDaily(ctx context.Context, userID string) (*DailyBoard, error)

	// SaveDaily создаёт запись доски или перезаписывает доску прошедшего
	// дня свежей (сброс периода обнуляет Version заново).
	SaveDaily(ctx context.Context, b *DailyBoard) error

	// UpdateDaily сохраняет доску с оптимистичной блокировкой: запись
	// обновляется только при совпадении Version и даты, после чего
	// Version инкрементируется. Возвращает shared.ErrConflict при
	// несовпадении и shared.ErrNotFound, если записи нет.
	UpdateDaily(ctx context.Context, b *DailyBoard) error

	// GetWeekly возвращает еженедельную доску учащегося.
	// Возвращает shared.ErrNotFound, если записи нет.
	GetWeekly(ctx context.Context, userID string) (*WeeklyBoard, error)

	// SaveWeekly создаёт запись доски или перезаписывает доску прошлой
	// недели свежей.
	SaveWeekly(ctx context.Context, b *WeeklyBoard) error

	// UpdateWeekly сохраняет доску с оптимистичной блокировкой,
	// аналогично UpdateDaily.
	UpdateWeekly(ctx context.Context, b *WeeklyBoard) error
}
