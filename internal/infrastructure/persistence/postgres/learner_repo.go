package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/eduquest-hub/eduquest-core/internal/domain/learner"
	"github.com/eduquest-hub/eduquest-core/internal/domain/shared"
	"github.com/eduquest-hub/eduquest-core/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEARNER REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// learnerColumns is the canonical column list shared by all SELECTs.
const learnerColumns = `
	id, username, email, password_hash, display_name, avatar_url, goal,
	xp, rank, current_streak, longest_streak, last_study_date,
	freeze_tokens, freeze_active, freeze_expires_at, streak_milestones,
	login_streak, last_login_date, last_bonus_claim_date, badges,
	quests_completed, correct_answers, wrong_answers, achievements,
	version, created_at, updated_at
`

// LearnerRepository implements learner.Repository for PostgreSQL.
type LearnerRepository struct {
	conn *Connection
}

// NewLearnerRepository creates a new LearnerRepository.
func NewLearnerRepository(conn *Connection) *LearnerRepository {
	return &LearnerRepository{conn: conn}
}

// ─────────────────────────────────────────────────────────────────────────────
// CRUD Operations
// ─────────────────────────────────────────────────────────────────────────────

// Create creates a new learner.
func (r *LearnerRepository) Create(ctx context.Context, l *learner.Learner) error {
	query := `
		INSERT INTO learners (
			id, username, email, password_hash, display_name, avatar_url, goal,
			xp, rank, current_streak, longest_streak, last_study_date,
			freeze_tokens, freeze_active, freeze_expires_at, streak_milestones,
			login_streak, last_login_date, last_bonus_claim_date, badges,
			quests_completed, correct_answers, wrong_answers, achievements,
			version, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27
		)
	`

	_, err := r.conn.Exec(ctx, query,
		l.ID,
		l.Username.String(),
		l.Email.String(),
		l.PasswordHash,
		l.DisplayName,
		l.AvatarURL,
		l.Goal,
		l.XP,
		string(l.Rank),
		l.CurrentStreak,
		l.LongestStreak,
		dateOrNil(l.LastStudyDate),
		l.FreezeTokens,
		l.FreezeActive,
		timeOrNil(l.FreezeExpiresAt),
		intSlice(l.StreakMilestones),
		l.LoginStreak,
		dateOrNil(l.LastLoginDate),
		dateOrNil(l.LastBonusClaimDate),
		stringSlice(l.Badges),
		l.QuestsCompleted,
		l.CorrectAnswers,
		l.WrongAnswers,
		stringSlice(l.Achievements),
		l.Version,
		l.CreatedAt,
		l.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrLearnerAlreadyExists
		}
		return fmt.Errorf("failed to create learner: %w", err)
	}

	return nil
}

// GetByID returns a learner by internal ID.
func (r *LearnerRepository) GetByID(ctx context.Context, id string) (*learner.Learner, error) {
	query := `SELECT` + learnerColumns + `FROM learners WHERE id = $1`

	row := r.conn.QueryRow(ctx, query, id)
	return scanLearner(row)
}

// GetByUsername returns a learner by login name.
func (r *LearnerRepository) GetByUsername(ctx context.Context, username shared.Username) (*learner.Learner, error) {
	query := `SELECT` + learnerColumns + `FROM learners WHERE username = $1`

	row := r.conn.QueryRow(ctx, query, username.String())
	return scanLearner(row)
}

// GetByEmail returns a learner by email.
func (r *LearnerRepository) GetByEmail(ctx context.Context, email shared.Email) (*learner.Learner, error) {
	query := `SELECT` + learnerColumns + `FROM learners WHERE email = $1`

	row := r.conn.QueryRow(ctx, query, email.String())
	return scanLearner(row)
}

// Update saves a learner using optimistic locking on the version column.
// The in-memory Version is incremented only after the write succeeds.
func (r *LearnerRepository) Update(ctx context.Context, l *learner.Learner) error {
	return r.update(ctx, r.conn, l)
}

// UpdateWithHistory saves the learner and the XP audit rows in one
// transaction. Either everything commits or nothing does, so the
// history's sum of deltas always matches the stored XP.
func (r *LearnerRepository) UpdateWithHistory(ctx context.Context, l *learner.Learner, entries []learner.XPHistoryEntry) error {
	if len(entries) == 0 {
		return r.Update(ctx, l)
	}

	return r.conn.WithTx(ctx, func(tx pgx.Tx) error {
		if err := r.update(ctx, tx, l); err != nil {
			return err
		}
		for _, entry := range entries {
			if err := insertXPHistory(ctx, tx, entry); err != nil {
				return err
			}
		}
		return nil
	})
}

// update runs the CAS write against the given querier (pool or tx).
func (r *LearnerRepository) update(ctx context.Context, q Querier, l *learner.Learner) error {
	query := `
		UPDATE learners SET
			display_name = $1,
			avatar_url = $2,
			goal = $3,
			xp = $4,
			rank = $5,
			current_streak = $6,
			longest_streak = $7,
			last_study_date = $8,
			freeze_tokens = $9,
			freeze_active = $10,
			freeze_expires_at = $11,
			streak_milestones = $12,
			login_streak = $13,
			last_login_date = $14,
			last_bonus_claim_date = $15,
			badges = $16,
			quests_completed = $17,
			correct_answers = $18,
			wrong_answers = $19,
			achievements = $20,
			version = version + 1,
			updated_at = $21
		WHERE id = $22 AND version = $23
	`

	result, err := q.Exec(ctx, query,
		l.DisplayName,
		l.AvatarURL,
		l.Goal,
		l.XP,
		string(l.Rank),
		l.CurrentStreak,
		l.LongestStreak,
		dateOrNil(l.LastStudyDate),
		l.FreezeTokens,
		l.FreezeActive,
		timeOrNil(l.FreezeExpiresAt),
		intSlice(l.StreakMilestones),
		l.LoginStreak,
		dateOrNil(l.LastLoginDate),
		dateOrNil(l.LastBonusClaimDate),
		stringSlice(l.Badges),
		l.QuestsCompleted,
		l.CorrectAnswers,
		l.WrongAnswers,
		stringSlice(l.Achievements),
		l.UpdatedAt.UTC(),
		l.ID,
		l.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update learner: %w", err)
	}

	if result.RowsAffected() == 0 {
		exists, err := r.existsByID(ctx, q, l.ID)
		if err != nil {
			return err
		}
		if !exists {
			return shared.ErrLearnerNotFound
		}
		return shared.ErrConflict
	}

	l.Version++
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Listing & Counting
// ─────────────────────────────────────────────────────────────────────────────

// List returns learners with pagination and sorting.
func (r *LearnerRepository) List(ctx context.Context, opts learner.ListOptions) ([]*learner.Learner, error) {
	var order string
	switch opts.SortBy {
	case "", "xp":
		// Ties break on username so the ordering is deterministic.
		order = "xp DESC, username ASC"
		if !opts.SortDesc && opts.SortBy == "xp" {
			order = "xp ASC, username ASC"
		}
	case "username", "created_at", "current_streak":
		order = opts.SortBy + " ASC"
		if opts.SortDesc {
			order = opts.SortBy + " DESC"
		}
	default:
		return nil, fmt.Errorf("unsupported sort field: %q", opts.SortBy)
	}

	query := `SELECT` + learnerColumns + `FROM learners ORDER BY ` + order
	args := []interface{}{}
	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
		args = append(args, opts.Limit, opts.Offset)
	} else if opts.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", len(args)+1)
		args = append(args, opts.Offset)
	}

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list learners: %w", err)
	}
	defer rows.Close()

	var learners []*learner.Learner
	for rows.Next() {
		l, err := scanLearner(rows)
		if err != nil {
			return nil, err
		}
		learners = append(learners, l)
	}

	return learners, rows.Err()
}

// Count returns the total number of learners.
func (r *LearnerRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.conn.QueryRow(ctx, `SELECT COUNT(*) FROM learners`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count learners: %w", err)
	}
	return count, nil
}

// ExistsByUsername checks if a username is taken.
func (r *LearnerRepository) ExistsByUsername(ctx context.Context, username shared.Username) (bool, error) {
	var exists bool
	err := r.conn.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM learners WHERE username = $1)`,
		username.String(),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check username: %w", err)
	}
	return exists, nil
}

// ExistsByEmail checks if an email is taken.
func (r *LearnerRepository) ExistsByEmail(ctx context.Context, email shared.Email) (bool, error) {
	var exists bool
	err := r.conn.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM learners WHERE email = $1)`,
		email.String(),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check email: %w", err)
	}
	return exists, nil
}

func (r *LearnerRepository) existsByID(ctx context.Context, q Querier, id string) (bool, error) {
	var exists bool
	err := q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM learners WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check learner: %w", err)
	}
	return exists, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Scanning & Conversion Helpers
// ─────────────────────────────────────────────────────────────────────────────

// rowScanner is satisfied by both pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// rowsScanner is the subset of pgx.Rows the scan loops need.
type rowsScanner interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

func scanLearner(row rowScanner) (*learner.Learner, error) {
	var (
		l              learner.Learner
		username       string
		email          string
		rank           string
		lastStudy      *time.Time
		freezeExpires  *time.Time
		lastLogin      *time.Time
		lastBonusClaim *time.Time
		milestones     []int32
		badges         []string
		achievements   []string
	)

	err := row.Scan(
		&l.ID,
		&username,
		&email,
		&l.PasswordHash,
		&l.DisplayName,
		&l.AvatarURL,
		&l.Goal,
		&l.XP,
		&rank,
		&l.CurrentStreak,
		&l.LongestStreak,
		&lastStudy,
		&l.FreezeTokens,
		&l.FreezeActive,
		&freezeExpires,
		&milestones,
		&l.LoginStreak,
		&lastLogin,
		&lastBonusClaim,
		&badges,
		&l.QuestsCompleted,
		&l.CorrectAnswers,
		&l.WrongAnswers,
		&achievements,
		&l.Version,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrLearnerNotFound
		}
		return nil, fmt.Errorf("failed to scan learner: %w", err)
	}

	l.Username, err = shared.NewUsername(username)
	if err != nil {
		return nil, fmt.Errorf("stored username invalid: %w", err)
	}
	l.Email, err = shared.NewEmail(email)
	if err != nil {
		return nil, fmt.Errorf("stored email invalid: %w", err)
	}

	l.Rank = learner.Rank(rank)
	l.LastStudyDate = dateFrom(lastStudy)
	l.LastLoginDate = dateFrom(lastLogin)
	l.LastBonusClaimDate = dateFrom(lastBonusClaim)
	if freezeExpires != nil {
		l.FreezeExpiresAt = *freezeExpires
	}
	l.StreakMilestones = make([]int, 0, len(milestones))
	for _, m := range milestones {
		l.StreakMilestones = append(l.StreakMilestones, int(m))
	}
	l.Badges = badges
	l.Achievements = achievements

	return &l, nil
}

// dateOrNil converts a CalendarDate to a nullable DATE value.
func dateOrNil(d timeutil.CalendarDate) *time.Time {
	if d.IsZero() {
		return nil
	}
	t := d.Time()
	return &t
}

// dateFrom converts a nullable DATE value back to a CalendarDate.
func dateFrom(t *time.Time) timeutil.CalendarDate {
	if t == nil {
		return timeutil.CalendarDate{}
	}
	return timeutil.DateOf(*t)
}

// timeOrNil converts a zero time to NULL.
func timeOrNil(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

// intSlice normalizes a nil slice to an empty one for array columns.
func intSlice(values []int) []int32 {
	out := make([]int32, 0, len(values))
	for _, v := range values {
		out = append(out, int32(v))
	}
	return out
}

// stringSlice normalizes a nil slice to an empty one for array columns.
func stringSlice(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

// ══════════════════════════════════════════════════════════════════════════════
// XP HISTORY REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// HistoryRepository implements learner.HistoryRepository for PostgreSQL.
type HistoryRepository struct {
	conn *Connection
}

// NewHistoryRepository creates a new HistoryRepository.
func NewHistoryRepository(conn *Connection) *HistoryRepository {
	return &HistoryRepository{conn: conn}
}

// SaveXPChange appends a single audit row.
func (r *HistoryRepository) SaveXPChange(ctx context.Context, entry learner.XPHistoryEntry) error {
	return insertXPHistory(ctx, r.conn, entry)
}

// GetXPHistory returns audit rows within the range, oldest first.
func (r *HistoryRepository) GetXPHistory(ctx context.Context, learnerID string, rng shared.TimeRange) ([]learner.XPHistoryEntry, error) {
	query := `
		SELECT learner_id, recorded_at, old_xp, new_xp, delta, source, reference
		FROM xp_history
		WHERE learner_id = $1 AND recorded_at >= $2 AND recorded_at <= $3
		ORDER BY recorded_at ASC, id ASC
	`

	rows, err := r.conn.Query(ctx, query, learnerID, rng.From, rng.To)
	if err != nil {
		return nil, fmt.Errorf("failed to get xp history: %w", err)
	}
	defer rows.Close()

	return scanXPHistory(rows)
}

// GetRecentXPChanges returns the latest N audit rows, newest first.
func (r *HistoryRepository) GetRecentXPChanges(ctx context.Context, learnerID string, limit int) ([]learner.XPHistoryEntry, error) {
	query := `
		SELECT learner_id, recorded_at, old_xp, new_xp, delta, source, reference
		FROM xp_history
		WHERE learner_id = $1
		ORDER BY recorded_at DESC, id DESC
		LIMIT $2
	`

	rows, err := r.conn.Query(ctx, query, learnerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent xp changes: %w", err)
	}
	defer rows.Close()

	return scanXPHistory(rows)
}

func insertXPHistory(ctx context.Context, q Querier, entry learner.XPHistoryEntry) error {
	query := `
		INSERT INTO xp_history (learner_id, recorded_at, old_xp, new_xp, delta, source, reference)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := q.Exec(ctx, query,
		entry.LearnerID,
		entry.Timestamp,
		entry.OldXP,
		entry.NewXP,
		entry.Delta,
		string(entry.Source),
		entry.Reference,
	)
	if err != nil {
		return fmt.Errorf("failed to insert xp history: %w", err)
	}

	return nil
}

func scanXPHistory(rows rowsScanner) ([]learner.XPHistoryEntry, error) {
	var entries []learner.XPHistoryEntry
	for rows.Next() {
		var (
			entry  learner.XPHistoryEntry
			source string
		)
		if err := rows.Scan(
			&entry.LearnerID,
			&entry.Timestamp,
			&entry.OldXP,
			&entry.NewXP,
			&entry.Delta,
			&source,
			&entry.Reference,
		); err != nil {
			return nil, fmt.Errorf("failed to scan xp history: %w", err)
		}
		entry.Source = learner.XPSource(source)
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}
