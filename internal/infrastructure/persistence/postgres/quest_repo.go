package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/eduquest-hub/eduquest-core/internal/domain/quest"
	"github.com/eduquest-hub/eduquest-core/internal/domain/shared"
	"github.com/eduquest-hub/eduquest-core/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// QUEST BOARD REPOSITORY IMPLEMENTATION
// One row per learner per board kind. A period reset replaces the row in
// place; SaveDaily/SaveWeekly only win when the incoming period is newer,
// so concurrent resets cannot roll a board backwards.
// ══════════════════════════════════════════════════════════════════════════════

// QuestRepository implements quest.Repository for PostgreSQL.
type QuestRepository struct {
	conn *Connection
}

// NewQuestRepository creates a new QuestRepository.
func NewQuestRepository(conn *Connection) *QuestRepository {
	return &QuestRepository{conn: conn}
}

// ─────────────────────────────────────────────────────────────────────────────
// Daily Board
// ─────────────────────────────────────────────────────────────────────────────

// GetDaily returns the learner's daily board.
func (r *QuestRepository) GetDaily(ctx context.Context, userID string) (*quest.DailyBoard, error) {
	query := `
		SELECT user_id, date, quests, version, created_at, updated_at
		FROM daily_quest_boards
		WHERE user_id = $1
	`

	var (
		b          quest.DailyBoard
		date       time.Time
		questsJSON []byte
	)
	err := r.conn.QueryRow(ctx, query, userID).Scan(
		&b.UserID, &date, &questsJSON, &b.Version, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get daily board: %w", err)
	}

	b.Date = timeutil.DateOf(date)
	if err := json.Unmarshal(questsJSON, &b.Quests); err != nil {
		return nil, fmt.Errorf("failed to unmarshal daily quests: %w", err)
	}

	return &b, nil
}

// SaveDaily inserts the board or replaces a past-day board with a fresh
// one. A period reset starts the version over from 1. Returns
// shared.ErrConflict when another writer already holds a board for the
// same or a newer day.
func (r *QuestRepository) SaveDaily(ctx context.Context, b *quest.DailyBoard) error {
	query := `
		INSERT INTO daily_quest_boards (user_id, date, quests, version, created_at, updated_at)
		VALUES ($1, $2, $3, 1, $4, $5)
		ON CONFLICT (user_id) DO UPDATE SET
			date = EXCLUDED.date,
			quests = EXCLUDED.quests,
			version = 1,
			updated_at = EXCLUDED.updated_at
		WHERE daily_quest_boards.date < EXCLUDED.date
	`

	questsJSON, err := json.Marshal(b.Quests)
	if err != nil {
		return fmt.Errorf("failed to marshal daily quests: %w", err)
	}

	result, err := r.conn.Exec(ctx, query,
		b.UserID, b.Date.Time(), questsJSON, b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save daily board: %w", err)
	}

	if result.RowsAffected() == 0 {
		return shared.ErrConflict
	}

	b.Version = 1
	return nil
}

// UpdateDaily saves board progress with optimistic locking. The date
// guard makes sure progress never lands on a board of another day.
func (r *QuestRepository) UpdateDaily(ctx context.Context, b *quest.DailyBoard) error {
	query := `
		UPDATE daily_quest_boards SET
			quests = $1,
			version = version + 1,
			updated_at = $2
		WHERE user_id = $3 AND version = $4 AND date = $5
	`

	questsJSON, err := json.Marshal(b.Quests)
	if err != nil {
		return fmt.Errorf("failed to marshal daily quests: %w", err)
	}

	result, err := r.conn.Exec(ctx, query,
		questsJSON, b.UpdatedAt.UTC(), b.UserID, b.Version, b.Date.Time(),
	)
	if err != nil {
		return fmt.Errorf("failed to update daily board: %w", err)
	}

	if result.RowsAffected() == 0 {
		exists, err := r.boardExists(ctx, "daily_quest_boards", b.UserID)
		if err != nil {
			return err
		}
		if !exists {
			return shared.ErrNotFound
		}
		return shared.ErrConflict
	}

	b.Version++
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Weekly Board
// ─────────────────────────────────────────────────────────────────────────────

// GetWeekly returns the learner's weekly board.
func (r *QuestRepository) GetWeekly(ctx context.Context, userID string) (*quest.WeeklyBoard, error) {
	query := `
		SELECT user_id, week_start, quests, all_completed, bonus_awarded,
		       version, created_at, updated_at
		FROM weekly_quest_boards
		WHERE user_id = $1
	`

	var (
		b          quest.WeeklyBoard
		weekStart  time.Time
		questsJSON []byte
	)
	err := r.conn.QueryRow(ctx, query, userID).Scan(
		&b.UserID, &weekStart, &questsJSON, &b.AllCompleted, &b.BonusAwarded,
		&b.Version, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get weekly board: %w", err)
	}

	b.WeekStart = timeutil.DateOf(weekStart)
	if err := json.Unmarshal(questsJSON, &b.Quests); err != nil {
		return nil, fmt.Errorf("failed to unmarshal weekly quests: %w", err)
	}

	return &b, nil
}

// SaveWeekly inserts the board or replaces a past-week board with a
// fresh one, mirroring SaveDaily.
func (r *QuestRepository) SaveWeekly(ctx context.Context, b *quest.WeeklyBoard) error {
	query := `
		INSERT INTO weekly_quest_boards (
			user_id, week_start, quests, all_completed, bonus_awarded,
			version, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, 1, $6, $7)
		ON CONFLICT (user_id) DO UPDATE SET
			week_start = EXCLUDED.week_start,
			quests = EXCLUDED.quests,
			all_completed = EXCLUDED.all_completed,
			bonus_awarded = EXCLUDED.bonus_awarded,
			version = 1,
			updated_at = EXCLUDED.updated_at
		WHERE weekly_quest_boards.week_start < EXCLUDED.week_start
	`

	questsJSON, err := json.Marshal(b.Quests)
	if err != nil {
		return fmt.Errorf("failed to marshal weekly quests: %w", err)
	}

	result, err := r.conn.Exec(ctx, query,
		b.UserID, b.WeekStart.Time(), questsJSON, b.AllCompleted, b.BonusAwarded,
		b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save weekly board: %w", err)
	}

	if result.RowsAffected() == 0 {
		return shared.ErrConflict
	}

	b.Version = 1
	return nil
}

// UpdateWeekly saves board progress with optimistic locking.
func (r *QuestRepository) UpdateWeekly(ctx context.Context, b *quest.WeeklyBoard) error {
	query := `
		UPDATE weekly_quest_boards SET
			quests = $1,
			all_completed = $2,
			bonus_awarded = $3,
			version = version + 1,
			updated_at = $4
		WHERE user_id = $5 AND version = $6 AND week_start = $7
	`

	questsJSON, err := json.Marshal(b.Quests)
	if err != nil {
		return fmt.Errorf("failed to marshal weekly quests: %w", err)
	}

	result, err := r.conn.Exec(ctx, query,
		questsJSON, b.AllCompleted, b.BonusAwarded, b.UpdatedAt.UTC(),
		b.UserID, b.Version, b.WeekStart.Time(),
	)
	if err != nil {
		return fmt.Errorf("failed to update weekly board: %w", err)
	}

	if result.RowsAffected() == 0 {
		exists, err := r.boardExists(ctx, "weekly_quest_boards", b.UserID)
		if err != nil {
			return err
		}
		if !exists {
			return shared.ErrNotFound
		}
		return shared.ErrConflict
	}

	b.Version++
	return nil
}

func (r *QuestRepository) boardExists(ctx context.Context, table, userID string) (bool, error) {
	var exists bool
	err := r.conn.QueryRow(ctx,
		fmt.Sprintf(`SELECT EXISTS(SELECT 1 FROM %s WHERE user_id = $1)`, table),
		userID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check board: %w", err)
	}
	return exists, nil
}
