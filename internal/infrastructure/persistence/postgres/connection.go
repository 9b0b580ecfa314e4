// Package postgres implements the PostgreSQL persistence layer for EduQuest.
// Postgres is the source of truth: learner aggregates, the XP audit log,
// flashcards and quest boards all live here. Redis only carries the
// leaderboard projection, which can always be rebuilt from these tables.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrConnectionClosed indicates the connection pool is closed.
	ErrConnectionClosed = errors.New("postgres: connection pool is closed")

	// ErrMigrationFailed indicates a migration failure.
	ErrMigrationFailed = errors.New("postgres: migration failed")
)

// ══════════════════════════════════════════════════════════════════════════════
// CONNECTION POOL
// ══════════════════════════════════════════════════════════════════════════════

// PoolSettings tunes the pgx pool. The connection itself (host, credentials,
// sslmode) always comes from a database URL; only sizing lives here.
type PoolSettings struct {
	// MaxConns is the maximum number of pooled connections.
	MaxConns int

	// MinConns is the number of connections kept warm.
	MinConns int

	// ConnMaxLifetime bounds the total lifetime of a connection.
	ConnMaxLifetime time.Duration

	// ConnMaxIdleTime bounds how long an idle connection is kept.
	ConnMaxIdleTime time.Duration
}

// DefaultPoolSettings returns the sizing used when the config leaves
// a field at zero.
func DefaultPoolSettings() PoolSettings {
	return PoolSettings{
		MaxConns:        10,
		MinConns:        2,
		ConnMaxLifetime: time.Hour,
		ConnMaxIdleTime: 30 * time.Minute,
	}
}

// parsePoolConfig builds the pgxpool config from a database URL,
// overlaying the pool sizing. Zero-valued settings fall back to defaults.
func parsePoolConfig(databaseURL string, s PoolSettings) (*pgxpool.Config, error) {
	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to parse database URL: %w", err)
	}

	defaults := DefaultPoolSettings()
	if s.MaxConns <= 0 {
		s.MaxConns = defaults.MaxConns
	}
	if s.MinConns <= 0 {
		s.MinConns = defaults.MinConns
	}
	if s.ConnMaxLifetime <= 0 {
		s.ConnMaxLifetime = defaults.ConnMaxLifetime
	}
	if s.ConnMaxIdleTime <= 0 {
		s.ConnMaxIdleTime = defaults.ConnMaxIdleTime
	}

	poolConfig.MaxConns = int32(s.MaxConns)
	poolConfig.MinConns = int32(s.MinConns)
	poolConfig.MaxConnLifetime = s.ConnMaxLifetime
	poolConfig.MaxConnIdleTime = s.ConnMaxIdleTime

	return poolConfig, nil
}

// Connection wraps the pgx pool used by every repository in this package.
type Connection struct {
	pool   *pgxpool.Pool
	closed bool
	mu     sync.RWMutex
}

// NewConnectionFromURL opens a pooled connection from a database URL
// and verifies it with a ping.
func NewConnectionFromURL(ctx context.Context, databaseURL string, settings PoolSettings) (*Connection, error) {
	poolConfig, err := parsePoolConfig(databaseURL, settings)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: failed to ping database: %w", err)
	}

	return &Connection{pool: pool}, nil
}

// Close closes the connection pool. Safe to call more than once.
func (c *Connection) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	c.closed = true
	c.pool.Close()
}

// Ping checks if the database connection is alive.
func (c *Connection) Ping(ctx context.Context) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return ErrConnectionClosed
	}

	return c.pool.Ping(ctx)
}

// ══════════════════════════════════════════════════════════════════════════════
// QUERY HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// Querier is satisfied by both the pool-backed Connection and pgx.Tx, so
// repository helpers can run inside or outside a transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// Exec executes a query that doesn't return rows.
func (c *Connection) Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return pgconn.CommandTag{}, ErrConnectionClosed
	}

	return c.pool.Exec(ctx, sql, args...)
}

// Query executes a query that returns rows.
func (c *Connection) Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return nil, ErrConnectionClosed
	}

	return c.pool.Query(ctx, sql, args...)
}

// QueryRow executes a query that returns a single row.
func (c *Connection) QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.pool.QueryRow(ctx, sql, args...)
}

// WithTx runs fn inside a read-committed read-write transaction, committing
// on nil and rolling back otherwise. Multi-table writes (learner row plus
// its XP history) go through here so they land atomically.
func (c *Connection) WithTx(ctx context.Context, fn func(pgx.Tx) error) error {
	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		return ErrConnectionClosed
	}

	tx, err := c.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.ReadCommitted,
		AccessMode: pgx.ReadWrite,
	})
	c.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("postgres: failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("tx error: %v, rollback error: %w", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit error: %w", err)
	}

	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATIONS
// ══════════════════════════════════════════════════════════════════════════════

// Migration is one forward-only schema step. The worker never rolls the
// schema back; recovering a bad migration is a restore-from-backup event.
type Migration struct {
	Version int
	Name    string
	UpSQL   string
}

// Migrator applies embedded migrations at worker startup.
type Migrator struct {
	conn      *Connection
	tableName string
}

// NewMigrator creates a migrator over the embedded migration list.
func NewMigrator(conn *Connection) *Migrator {
	return &Migrator{
		conn:      conn,
		tableName: "schema_migrations",
	}
}

// Migrate applies all pending migrations in version order, each in its
// own transaction together with its tracking row.
func (m *Migrator) Migrate(ctx context.Context) error {
	if err := m.ensureMigrationTable(ctx); err != nil {
		return err
	}

	applied, err := m.appliedVersions(ctx)
	if err != nil {
		return err
	}

	for _, mig := range GetMigrations() {
		if applied[mig.Version] {
			continue
		}

		if mig.UpSQL == "" {
			return fmt.Errorf("%w: missing up SQL for migration %d", ErrMigrationFailed, mig.Version)
		}

		err := m.conn.WithTx(ctx, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, mig.UpSQL); err != nil {
				return fmt.Errorf("failed to execute migration %d: %w", mig.Version, err)
			}

			insertQuery := fmt.Sprintf(
				"INSERT INTO %s (version, name) VALUES ($1, $2)",
				m.tableName,
			)
			_, err := tx.Exec(ctx, insertQuery, mig.Version, mig.Name)
			return err
		})
		if err != nil {
			return fmt.Errorf("%w: version %d: %v", ErrMigrationFailed, mig.Version, err)
		}
	}

	return nil
}

// ensureMigrationTable creates the tracking table if it doesn't exist.
func (m *Migrator) ensureMigrationTable(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		)
	`, m.tableName)

	_, err := m.conn.Exec(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	return nil
}

// appliedVersions returns the set of already-applied migration versions.
func (m *Migrator) appliedVersions(ctx context.Context) (map[int]bool, error) {
	query := fmt.Sprintf("SELECT version FROM %s", m.tableName)

	rows, err := m.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query applied migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, fmt.Errorf("failed to scan migration row: %w", err)
		}
		applied[version] = true
	}

	return applied, rows.Err()
}

// ══════════════════════════════════════════════════════════════════════════════
// ERROR HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// IsUniqueViolation checks if the error is a unique constraint violation.
// Repositories map it to shared.ErrLearnerAlreadyExists and friends.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return false
}

// IsNoRows checks if the error is a "no rows" error.
func IsNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
