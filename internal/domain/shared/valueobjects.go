// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"regexp"
	"strings"
	"time"
)

// ═══════════════════════════════════════════════════════════════════════════
// ID Value Objects
// ═══════════════════════════════════════════════════════════════════════════

// UUID validation regex (simple version).
var uuidRegex = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// LearnerID represents a unique learner identifier (UUID format).
type LearnerID string

// IsValid checks if the learner ID is a valid UUID.
func (l LearnerID) IsValid() bool {
	return uuidRegex.MatchString(string(l))
}

// String returns the string representation.
func (l LearnerID) String() string {
	return string(l)
}

// IsEmpty checks if the ID is empty.
func (l LearnerID) IsEmpty() bool {
	return l == ""
}

// NewLearnerID creates a new LearnerID with validation.
func NewLearnerID(id string) (LearnerID, error) {
	lid := LearnerID(strings.ToLower(strings.TrimSpace(id)))
	if !lid.IsValid() {
		return "", NewDomainError("shared", "NewLearnerID", ErrInvalidID, "invalid learner ID format")
	}
	return lid, nil
}

// CardID represents a unique flashcard identifier (UUID format).
type CardID string

// IsValid checks if the card ID is a valid UUID.
func (c CardID) IsValid() bool {
	return uuidRegex.MatchString(string(c))
}

// String returns the string representation.
func (c CardID) String() string {
	return string(c)
}

// IsEmpty checks if the ID is empty.
func (c CardID) IsEmpty() bool {
	return c == ""
}

// NewCardID creates a new CardID with validation.
func NewCardID(id string) (CardID, error) {
	cid := CardID(strings.ToLower(strings.TrimSpace(id)))
	if !cid.IsValid() {
		return "", NewDomainError("shared", "NewCardID", ErrInvalidID, "invalid card ID format")
	}
	return cid, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Username Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Username represents a unique learner login name.
type Username string

// Regular expression for valid username format.
var usernameRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_-]{2,29}$`)

// IsValid checks if the username is valid.
func (u Username) IsValid() bool {
	return usernameRegex.MatchString(string(u))
}

// String returns the string representation.
func (u Username) String() string {
	return string(u)
}

// Normalize returns a normalized (lowercase) version of the username.
func (u Username) Normalize() Username {
	return Username(strings.ToLower(string(u)))
}

// NewUsername creates a new Username with validation.
func NewUsername(login string) (Username, error) {
	u := Username(strings.TrimSpace(login))
	if !u.IsValid() {
		return "", NewDomainError("shared", "NewUsername", ErrValidation,
			"username must start with a letter and contain 3-30 letters, digits, '_' or '-'")
	}
	return u.Normalize(), nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Email Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Email represents a learner's email address.
type Email string

// Deliberately loose: full RFC 5322 validation is the mail server's job.
var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// IsValid checks if the email has a plausible format.
func (e Email) IsValid() bool {
	return emailRegex.MatchString(string(e))
}

// String returns the string representation.
func (e Email) String() string {
	return string(e)
}

// NewEmail creates a new Email with validation.
func NewEmail(address string) (Email, error) {
	e := Email(strings.ToLower(strings.TrimSpace(address)))
	if !e.IsValid() {
		return "", NewDomainError("shared", "NewEmail", ErrValidation, "invalid email address")
	}
	return e, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Score Value Object (quiz result percentage)
// ═══════════════════════════════════════════════════════════════════════════

// Score represents a quiz score as a percentage (0-100).
type Score float64

const (
	MinScore Score = 0
	MaxScore Score = 100

	// PassingScore is the minimum score that counts as real study
	// activity for streak purposes.
	PassingScore Score = 50

	// HighScore marks a strong result for weekly quest tracking.
	HighScore Score = 90
)

// IsValid checks if the score is within valid range.
func (s Score) IsValid() bool {
	return s >= MinScore && s <= MaxScore
}

// Float64 returns the underlying float64 value.
func (s Score) Float64() float64 {
	return float64(s)
}

// IsPerfect reports whether the quiz was answered flawlessly.
func (s Score) IsPerfect() bool {
	return s >= MaxScore
}

// IsPassing reports whether the score counts toward the daily streak.
func (s Score) IsPassing() bool {
	return s >= PassingScore
}

// IsHigh reports whether the score qualifies as a high result.
func (s Score) IsHigh() bool {
	return s >= HighScore
}

// NewScore creates a new Score with validation.
func NewScore(value float64) (Score, error) {
	s := Score(value)
	if !s.IsValid() {
		return 0, NewDomainError("shared", "NewScore", ErrInvalidInput, "score must be between 0 and 100")
	}
	return s, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// TimeRange Value Object
// ═══════════════════════════════════════════════════════════════════════════

// TimeRange represents a time period.
type TimeRange struct {
	From time.Time
	To   time.Time
}

// IsValid checks if the time range is valid.
func (t TimeRange) IsValid() bool {
	return !t.From.IsZero() && !t.To.IsZero() && !t.From.After(t.To)
}

// Duration returns the duration of the time range.
func (t TimeRange) Duration() time.Duration {
	return t.To.Sub(t.From)
}

// Contains checks if a time is within the range.
func (t TimeRange) Contains(tm time.Time) bool {
	return (tm.Equal(t.From) || tm.After(t.From)) && (tm.Equal(t.To) || tm.Before(t.To))
}

// NewTimeRange creates a new TimeRange with validation.
func NewTimeRange(from, to time.Time) (TimeRange, error) {
	tr := TimeRange{From: from, To: to}
	if !tr.IsValid() {
		return TimeRange{}, NewDomainError("shared", "NewTimeRange", ErrInvalidInput, "'from' must be before 'to'")
	}
	return tr, nil
}

// LastNDays returns a TimeRange covering the last N days up to now.
func LastNDays(n int) TimeRange {
	now := time.Now().UTC()
	return TimeRange{
		From: now.AddDate(0, 0, -n),
		To:   now,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Pagination Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Pagination represents pagination parameters.
type Pagination struct {
	Page     int
	PageSize int
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Offset returns the offset for database queries.
func (p Pagination) Offset() int {
	if p.Page <= 0 {
		return 0
	}
	return (p.Page - 1) * p.Limit()
}

// Limit returns the limit for database queries.
func (p Pagination) Limit() int {
	if p.PageSize <= 0 {
		return DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		return MaxPageSize
	}
	return p.PageSize
}

// NewPagination creates a new Pagination with defaults.
func NewPagination(page, pageSize int) Pagination {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return Pagination{Page: page, PageSize: pageSize}
}

// DefaultPagination returns default pagination.
func DefaultPagination() Pagination {
	return NewPagination(1, DefaultPageSize)
}
