// Package postgres implements the PostgreSQL persistence layer for EduQuest.
package postgres

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: CREATE LEARNERS
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
-- Migration: Create learners and XP history tables
-- Version: 001

-- Main learners table. One row holds the whole gamification aggregate:
-- XP, rank, streaks, freeze tokens, login bonus state, badges and
-- achievements. The version column drives optimistic locking.
CREATE TABLE IF NOT EXISTS learners (
    id UUID PRIMARY KEY,
    username VARCHAR(30) NOT NULL UNIQUE,
    email VARCHAR(255) NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    display_name VARCHAR(100) NOT NULL,
    avatar_url TEXT NOT NULL DEFAULT '',
    goal VARCHAR(100) NOT NULL DEFAULT '',
    xp INTEGER NOT NULL DEFAULT 0,
    rank VARCHAR(20) NOT NULL DEFAULT 'Bronze',
    current_streak INTEGER NOT NULL DEFAULT 0,
    longest_streak INTEGER NOT NULL DEFAULT 0,
    last_study_date DATE,
    freeze_tokens INTEGER NOT NULL DEFAULT 0,
    freeze_active BOOLEAN NOT NULL DEFAULT FALSE,
    freeze_expires_at TIMESTAMP WITH TIME ZONE,
    streak_milestones INTEGER[] NOT NULL DEFAULT '{}',
    login_streak INTEGER NOT NULL DEFAULT 0,
    last_login_date DATE,
    last_bonus_claim_date DATE,
    badges TEXT[] NOT NULL DEFAULT '{}',
    quests_completed INTEGER NOT NULL DEFAULT 0,
    correct_answers INTEGER NOT NULL DEFAULT 0,
    wrong_answers INTEGER NOT NULL DEFAULT 0,
    achievements TEXT[] NOT NULL DEFAULT '{}',
    version INTEGER NOT NULL DEFAULT 1,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_rank CHECK (rank IN ('Bronze', 'Silver', 'Gold', 'Platinum', 'Diamond')),
    CONSTRAINT valid_xp CHECK (xp >= 0),
    CONSTRAINT valid_streaks CHECK (current_streak >= 0 AND longest_streak >= current_streak),
    CONSTRAINT valid_tokens CHECK (freeze_tokens >= 0),
    CONSTRAINT valid_counters CHECK (quests_completed >= 0 AND correct_answers >= 0 AND wrong_answers >= 0)
);

CREATE INDEX IF NOT EXISTS idx_learners_username ON learners(username);
CREATE INDEX IF NOT EXISTS idx_learners_email ON learners(email);

-- Leaderboard fallback path sorts straight off this index.
CREATE INDEX IF NOT EXISTS idx_learners_xp ON learners(xp DESC, username ASC);

-- Append-only XP audit log. Written in the same transaction as the
-- learner row, so SUM(delta) always equals learners.xp.
CREATE TABLE IF NOT EXISTS xp_history (
    id BIGSERIAL PRIMARY KEY,
    learner_id UUID NOT NULL REFERENCES learners(id) ON DELETE CASCADE,
    recorded_at TIMESTAMP WITH TIME ZONE NOT NULL,
    old_xp INTEGER NOT NULL,
    new_xp INTEGER NOT NULL,
    delta INTEGER NOT NULL,
    source VARCHAR(30) NOT NULL,
    reference VARCHAR(100) NOT NULL DEFAULT '',

    CONSTRAINT valid_delta CHECK (new_xp = old_xp + delta),
    CONSTRAINT valid_source CHECK (source IN (
        'quiz', 'streak_milestone', 'login_bonus',
        'achievement', 'daily_quest', 'weekly_quest'
    ))
);

CREATE INDEX IF NOT EXISTS idx_xp_history_learner_time ON xp_history(learner_id, recorded_at DESC);
`


// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: CREATE FLASHCARDS
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
-- Migration: Create flashcards table
-- Version: 002

-- Spaced-repetition cards. Scheduling state (ease factor, interval,
-- repetitions) lives next to the content; review_history keeps the
-- full audit trail as JSONB.
CREATE TABLE IF NOT EXISTS flashcards (
    id UUID PRIMARY KEY,
    owner_id UUID NOT NULL REFERENCES learners(id) ON DELETE CASCADE,
    front TEXT NOT NULL,
    back TEXT NOT NULL,
    hint TEXT NOT NULL DEFAULT '',
    difficulty VARCHAR(10) NOT NULL DEFAULT 'medium',
    session_id UUID NOT NULL,
    session_name VARCHAR(120) NOT NULL DEFAULT '',
    tags TEXT[] NOT NULL DEFAULT '{}',
    bookmarked BOOLEAN NOT NULL DEFAULT FALSE,
    ease_factor DOUBLE PRECISION NOT NULL DEFAULT 2.5,
    interval_days INTEGER NOT NULL DEFAULT 0,
    repetitions INTEGER NOT NULL DEFAULT 0,
    next_review_at TIMESTAMP WITH TIME ZONE NOT NULL,
    last_reviewed_at TIMESTAMP WITH TIME ZONE,
    status VARCHAR(10) NOT NULL DEFAULT 'learning',
    review_history JSONB NOT NULL DEFAULT '[]'::jsonb,
    version INTEGER NOT NULL DEFAULT 1,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_status CHECK (status IN ('learning', 'reviewing', 'mastered')),
    CONSTRAINT valid_difficulty CHECK (difficulty IN ('easy', 'medium', 'hard')),
    CONSTRAINT valid_ease_factor CHECK (ease_factor >= 1.3),
    CONSTRAINT valid_scheduling CHECK (interval_days >= 0 AND repetitions >= 0)
);

-- Due-card queries filter by owner and review moment.
CREATE INDEX IF NOT EXISTS idx_flashcards_owner_due ON flashcards(owner_id, next_review_at ASC);
CREATE INDEX IF NOT EXISTS idx_flashcards_owner_status ON flashcards(owner_id, status);
CREATE INDEX IF NOT EXISTS idx_flashcards_session ON flashcards(session_id);
`


// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 003: CREATE QUEST BOARDS
// ══════════════════════════════════════════════════════════════════════════════

const migration003Up = `
-- Migration: Create quest board tables
-- Version: 003

-- One daily board per learner. A stale board is replaced in place when
-- a new day starts, so the table never grows beyond one row per user.
CREATE TABLE IF NOT EXISTS daily_quest_boards (
    user_id UUID PRIMARY KEY REFERENCES learners(id) ON DELETE CASCADE,
    date DATE NOT NULL,
    quests JSONB NOT NULL,
    version INTEGER NOT NULL DEFAULT 1,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

-- One weekly board per learner, keyed by the Monday of its week.
CREATE TABLE IF NOT EXISTS weekly_quest_boards (
    user_id UUID PRIMARY KEY REFERENCES learners(id) ON DELETE CASCADE,
    week_start DATE NOT NULL,
    quests JSONB NOT NULL,
    all_completed BOOLEAN NOT NULL DEFAULT FALSE,
    bonus_awarded BOOLEAN NOT NULL DEFAULT FALSE,
    version INTEGER NOT NULL DEFAULT 1,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);
`


// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION LIST
// ══════════════════════════════════════════════════════════════════════════════

// GetMigrations returns the embedded migrations in version order.
func GetMigrations() []Migration {
	return []Migration{
		{Version: 1, Name: "create_learners", UpSQL: migration001Up},
		{Version: 2, Name: "create_flashcards", UpSQL: migration002Up},
		{Version: 3, Name: "create_quest_boards", UpSQL: migration003Up},
	}
}
