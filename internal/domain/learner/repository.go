package learner

import (
	"context"

	"github.com/eduquest-hub/eduquest-core/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Эти интерфейсы определяют контракт для работы с хранилищем данных.
// Реализации находятся в infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Repository определяет операции хранения учащихся.
type Repository interface {
	// Create создаёт нового учащегося.
	// Возвращает shared.ErrLearnerAlreadyExists при конфликте
	// имени или email.
	Create(ctx context.Context, l *Learner) error

	// GetByID возвращает учащегося по внутреннему ID.
	// Возвращает shared.ErrLearnerNotFound, если учащийся не найден.
	GetByID(ctx context.Context, id string) (*Learner, error)

	// GetByUsername возвращает учащегося по имени входа.
	// Возвращает shared.ErrLearnerNotFound, если учащийся не найден.
	GetByUsername(ctx context.Context, username shared.Username) (*Learner, error)

	// GetByEmail возвращает учащегося по email.
	// Возвращает shared.ErrLearnerNotFound, если учащийся не найден.
	GetByEmail(ctx context.Context, email shared.Email) (*Learner, error)

	// Update сохраняет учащегося с оптимистичной блокировкой: запись
	// обновляется только при совпадении Version, после чего Version
	// инкрементируется (и в базе, и в переданной сущности).
	// Возвращает shared.ErrConflict при несовпадении версии и
	// shared.ErrLearnerNotFound, если записи нет.
	Update(ctx context.Context, l *Learner) error

	// UpdateWithHistory сохраняет учащегося (семантика Update) и записи
	// журнала опыта в одной транзакции: либо фиксируется всё, либо ничего.
	UpdateWithHistory(ctx context.Context, l *Learner, entries []XPHistoryEntry) error

	// List возвращает учащихся с пагинацией и сортировкой.
	List(ctx context.Context, opts ListOptions) ([]*Learner, error)

	// Count возвращает общее количество учащихся.
	Count(ctx context.Context) (int, error)

	// ExistsByUsername проверяет занятость имени входа.
	ExistsByUsername(ctx context.Context, username shared.Username) (bool, error)

	// ExistsByEmail проверяет занятость email.
	ExistsByEmail(ctx context.Context, email shared.Email) (bool, error)
}

// HistoryRepository определяет операции журнала опыта.
type HistoryRepository interface {
	// SaveXPChange сохраняет запись о начислении опыта.
	SaveXPChange(ctx context.Context, entry XPHistoryEntry) error

	// GetXPHistory возвращает записи журнала за период (от старых к новым).
	GetXPHistory(ctx context.Context, learnerID string, rng shared.TimeRange) ([]XPHistoryEntry, error)

	// GetRecentXPChanges возвращает последние N записей (от новых к старым).
	GetRecentXPChanges(ctx context.Context, learnerID string, limit int) ([]XPHistoryEntry, error)
}

// ListOptions содержит параметры для пагинации и сортировки.
type ListOptions struct {
	// Offset - смещение (для пагинации).
	Offset int

	// Limit - максимальное количество записей. 0 - без ограничения.
	Limit int

	// SortBy - поле для сортировки.
	SortBy string

	// SortDesc - сортировка по убыванию.
	SortDesc bool
}

// DefaultListOptions возвращает параметры по умолчанию.
func DefaultListOptions() ListOptions {
	return ListOptions{
		Offset:   0,
		Limit:    50,
		SortBy:   "xp",
		SortDesc: true,
	}
}

// WithOffset устанавливает смещение.
func (o ListOptions) WithOffset(offset int) ListOptions {
	o.Offset = offset
	return o
}

// WithLimit устанавливает лимит.
func (o ListOptions) WithLimit(limit int) ListOptions {
	o.Limit = limit
	return o
}

// WithSort устанавливает сортировку.
func (o ListOptions) WithSort(field string, desc bool) ListOptions {
	o.SortBy = field
	o.SortDesc = desc
	return o
}
