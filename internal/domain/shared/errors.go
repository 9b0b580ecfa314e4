// Package shared contains common domain types, errors, and event contracts
// used across all domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")
	ErrInvalidEntity = errors.New("invalid entity")

	// Validation errors
	ErrValidation    = errors.New("validation error")
	ErrInvalidID     = errors.New("invalid ID")
	ErrInvalidInput  = errors.New("invalid input")
	ErrEmptyValue    = errors.New("value cannot be empty")
	ErrNegativeValue = errors.New("value cannot be negative")

	// Reward-state errors
	ErrAlreadyClaimed    = errors.New("already claimed today")
	ErrNoTokensAvailable = errors.New("no tokens available")
	ErrExpired           = errors.New("expired")

	// Concurrency errors
	ErrConflict = errors.New("concurrent modification detected")

	// External service errors
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrTimeout            = errors.New("operation timeout")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "learner", "flashcard", "quest"
	Op      string // Operation that failed, e.g., "Claim", "Review"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Learner domain errors
var (
	ErrLearnerNotFound      = NewDomainError("learner", "Find", ErrNotFound, "learner not found")
	ErrLearnerAlreadyExists = NewDomainError("learner", "Create", ErrAlreadyExists, "username or email already registered")
	ErrNoFreezeTokens       = NewDomainError("learner", "UseFreeze", ErrNoTokensAvailable, "no streak freeze tokens available")
	ErrBonusAlreadyClaimed  = NewDomainError("learner", "ClaimBonus", ErrAlreadyClaimed, "daily login bonus already claimed")
	ErrInvalidCredentials   = NewDomainError("learner", "Authenticate", ErrInvalidInput, "invalid username/email or password")
	ErrGuestHasNoRecord     = NewDomainError("learner", "Load", ErrInvalidInput, "guest sessions have no stored record")
)

// Flashcard domain errors
var (
	ErrCardNotFound  = NewDomainError("flashcard", "Find", ErrNotFound, "flashcard not found")
	ErrInvalidRating = NewDomainError("flashcard", "Review", ErrInvalidInput, "unrecognized review rating")
)

// Quest domain errors
var (
	ErrQuestNotFound = NewDomainError("quest", "Find", ErrNotFound, "quest not found on board")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if the error is an "already exists" error.
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsConflict checks if the error is an optimistic-concurrency conflict.
// Conflicts are resolved by re-running the read-modify-write with fresh state.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsAlreadyClaimed checks if the error means today's bonus was already taken.
func IsAlreadyClaimed(err error) bool {
	return errors.Is(err, ErrAlreadyClaimed)
}

// IsNoTokens checks if the error means the learner has no freeze tokens.
func IsNoTokens(err error) bool {
	return errors.Is(err, ErrNoTokensAvailable)
}

// IsInvalidRating checks if the error is an unrecognized SM-2 rating.
func IsInvalidRating(err error) bool {
	return errors.Is(err, ErrInvalidRating)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyValue) ||
		errors.Is(err, ErrNegativeValue)
}

// IsRetryable checks if the operation can be retried as-is.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrConflict)
}
