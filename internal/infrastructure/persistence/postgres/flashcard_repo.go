package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/eduquest-hub/eduquest-core/internal/domain/flashcard"
	"github.com/eduquest-hub/eduquest-core/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// FLASHCARD REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

const flashcardColumns = `
	id, owner_id, front, back, hint, difficulty, session_id, session_name,
	tags, bookmarked, ease_factor, interval_days, repetitions,
	next_review_at, last_reviewed_at, status, review_history,
	version, created_at, updated_at
`

// FlashcardRepository implements flashcard.Repository for PostgreSQL.
type FlashcardRepository struct {
	conn *Connection
}

// NewFlashcardRepository creates a new FlashcardRepository.
func NewFlashcardRepository(conn *Connection) *FlashcardRepository {
	return &FlashcardRepository{conn: conn}
}

// Create inserts a new card.
func (r *FlashcardRepository) Create(ctx context.Context, c *flashcard.Card) error {
	query := `
		INSERT INTO flashcards (
			id, owner_id, front, back, hint, difficulty, session_id, session_name,
			tags, bookmarked, ease_factor, interval_days, repetitions,
			next_review_at, last_reviewed_at, status, review_history,
			version, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16, $17, $18, $19, $20
		)
	`

	historyJSON, err := json.Marshal(c.ReviewHistory)
	if err != nil {
		return fmt.Errorf("failed to marshal review history: %w", err)
	}

	_, err = r.conn.Exec(ctx, query,
		c.ID,
		c.OwnerID,
		c.Front,
		c.Back,
		c.Hint,
		c.Difficulty,
		c.SessionID,
		c.SessionName,
		stringSlice(c.Tags),
		c.Bookmarked,
		c.EaseFactor,
		c.Interval,
		c.Repetitions,
		c.NextReviewAt,
		timeOrNil(c.LastReviewedAt),
		string(c.Status),
		historyJSON,
		c.Version,
		c.CreatedAt,
		c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create flashcard: %w", err)
	}

	return nil
}

// GetByID returns a card by ID.
func (r *FlashcardRepository) GetByID(ctx context.Context, id string) (*flashcard.Card, error) {
	query := `SELECT` + flashcardColumns + `FROM flashcards WHERE id = $1`

	row := r.conn.QueryRow(ctx, query, id)
	return scanFlashcard(row)
}

// Update saves a card using optimistic locking on the version column.
func (r *FlashcardRepository) Update(ctx context.Context, c *flashcard.Card) error {
	query := `
		UPDATE flashcards SET
			front = $1,
			back = $2,
			hint = $3,
			tags = $4,
			bookmarked = $5,
			ease_factor = $6,
			interval_days = $7,
			repetitions = $8,
			next_review_at = $9,
			last_reviewed_at = $10,
			status = $11,
			review_history = $12,
			version = version + 1,
			updated_at = $13
		WHERE id = $14 AND version = $15
	`

	historyJSON, err := json.Marshal(c.ReviewHistory)
	if err != nil {
		return fmt.Errorf("failed to marshal review history: %w", err)
	}

	result, err := r.conn.Exec(ctx, query,
		c.Front,
		c.Back,
		c.Hint,
		stringSlice(c.Tags),
		c.Bookmarked,
		c.EaseFactor,
		c.Interval,
		c.Repetitions,
		c.NextReviewAt,
		timeOrNil(c.LastReviewedAt),
		string(c.Status),
		historyJSON,
		c.UpdatedAt.UTC(),
		c.ID,
		c.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update flashcard: %w", err)
	}

	if result.RowsAffected() == 0 {
		var exists bool
		if err := r.conn.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM flashcards WHERE id = $1)`, c.ID,
		).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check flashcard: %w", err)
		}
		if !exists {
			return shared.ErrCardNotFound
		}
		return shared.ErrConflict
	}

	c.Version++
	return nil
}

// ListDue returns cards due for review, most overdue first.
func (r *FlashcardRepository) ListDue(ctx context.Context, ownerID string, now time.Time, limit int) ([]*flashcard.Card, error) {
	query := `SELECT` + flashcardColumns + `
		FROM flashcards
		WHERE owner_id = $1 AND next_review_at <= $2
		ORDER BY next_review_at ASC
		LIMIT $3
	`

	rows, err := r.conn.Query(ctx, query, ownerID, now, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list due flashcards: %w", err)
	}
	defer rows.Close()

	return scanFlashcards(rows)
}

// ListByOwner returns the owner's cards, optionally filtered by status.
func (r *FlashcardRepository) ListByOwner(ctx context.Context, ownerID string, status flashcard.Status) ([]*flashcard.Card, error) {
	query := `SELECT` + flashcardColumns + `FROM flashcards WHERE owner_id = $1`
	args := []interface{}{ownerID}
	if status != "" {
		query += ` AND status = $2`
		args = append(args, string(status))
	}
	query += ` ORDER BY created_at ASC`

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list flashcards: %w", err)
	}
	defer rows.Close()

	return scanFlashcards(rows)
}

// ListBySession returns all cards of a session.
func (r *FlashcardRepository) ListBySession(ctx context.Context, sessionID string) ([]*flashcard.Card, error) {
	query := `SELECT` + flashcardColumns + `
		FROM flashcards
		WHERE session_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.conn.Query(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list session flashcards: %w", err)
	}
	defer rows.Close()

	return scanFlashcards(rows)
}

// CountByStatus returns per-status card counts for an owner.
func (r *FlashcardRepository) CountByStatus(ctx context.Context, ownerID string) (flashcard.StatusCounts, error) {
	query := `
		SELECT
			COUNT(*) FILTER (WHERE status = 'learning'),
			COUNT(*) FILTER (WHERE status = 'reviewing'),
			COUNT(*) FILTER (WHERE status = 'mastered')
		FROM flashcards
		WHERE owner_id = $1
	`

	var counts flashcard.StatusCounts
	err := r.conn.QueryRow(ctx, query, ownerID).Scan(
		&counts.Learning,
		&counts.Reviewing,
		&counts.Mastered,
	)
	if err != nil {
		return flashcard.StatusCounts{}, fmt.Errorf("failed to count flashcards: %w", err)
	}

	return counts, nil
}

// CountDue returns how many cards are waiting for review.
func (r *FlashcardRepository) CountDue(ctx context.Context, ownerID string, now time.Time) (int, error) {
	var count int
	err := r.conn.QueryRow(ctx,
		`SELECT COUNT(*) FROM flashcards WHERE owner_id = $1 AND next_review_at <= $2`,
		ownerID, now,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count due flashcards: %w", err)
	}
	return count, nil
}

// Delete removes a card. The owner check guards against deleting
// someone else's card by guessing IDs.
func (r *FlashcardRepository) Delete(ctx context.Context, id, ownerID string) error {
	result, err := r.conn.Exec(ctx,
		`DELETE FROM flashcards WHERE id = $1 AND owner_id = $2`,
		id, ownerID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete flashcard: %w", err)
	}

	if result.RowsAffected() == 0 {
		return shared.ErrCardNotFound
	}

	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Scanning Helpers
// ─────────────────────────────────────────────────────────────────────────────

func scanFlashcard(row rowScanner) (*flashcard.Card, error) {
	var (
		c            flashcard.Card
		status       string
		lastReviewed *time.Time
		historyJSON  []byte
	)

	err := row.Scan(
		&c.ID,
		&c.OwnerID,
		&c.Front,
		&c.Back,
		&c.Hint,
		&c.Difficulty,
		&c.SessionID,
		&c.SessionName,
		&c.Tags,
		&c.Bookmarked,
		&c.EaseFactor,
		&c.Interval,
		&c.Repetitions,
		&c.NextReviewAt,
		&lastReviewed,
		&status,
		&historyJSON,
		&c.Version,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrCardNotFound
		}
		return nil, fmt.Errorf("failed to scan flashcard: %w", err)
	}

	c.Status = flashcard.Status(status)
	if lastReviewed != nil {
		c.LastReviewedAt = *lastReviewed
	}
	if err := json.Unmarshal(historyJSON, &c.ReviewHistory); err != nil {
		return nil, fmt.Errorf("failed to unmarshal review history: %w", err)
	}

	return &c, nil
}

func scanFlashcards(rows rowsScanner) ([]*flashcard.Card, error) {
	var cards []*flashcard.Card
	for rows.Next() {
		c, err := scanFlashcard(rows)
		if err != nil {
			return nil, err
		}
		cards = append(cards, c)
	}

	return cards, rows.Err()
}
