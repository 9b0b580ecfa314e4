package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/eduquest-hub/eduquest-core/internal/domain/leaderboard"
	"github.com/eduquest-hub/eduquest-core/internal/domain/learner"
	"github.com/eduquest-hub/eduquest-core/internal/domain/shared"
	"github.com/eduquest-hub/eduquest-core/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// REGISTER LEARNER COMMAND
// Creates the account and the zeroed gamification record in one step:
// 0 XP, Bronze rank, empty streaks. Registration is the only place the
// password is seen in plaintext; only the bcrypt hash is stored.
// ══════════════════════════════════════════════════════════════════════════════

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 8

// RegisterLearnerCommand contains the data to register a learner.
type RegisterLearnerCommand struct {
	// Username is the desired login name.
	Username string

	// Email is the learner's email address.
	Email string

	// Password is the plaintext password. Never stored.
	Password string

	// DisplayName is optional; defaults to the username.
	DisplayName string

	// AvatarURL is optional; defaults to a generated avatar.
	AvatarURL string

	// Goal is the optional learning goal shown on the leaderboard.
	Goal string
}

// Validate validates the command.
func (c RegisterLearnerCommand) Validate() error {
	if c.Username == "" {
		return errors.New("register_learner: username is required")
	}
	if c.Email == "" {
		return errors.New("register_learner: email is required")
	}
	if len(c.Password) < MinPasswordLength {
		return fmt.Errorf("register_learner: password must be at least %d characters", MinPasswordLength)
	}
	return nil
}

// RegisterLearnerResult contains the result of a registration.
type RegisterLearnerResult struct {
	// LearnerID is the generated internal ID.
	LearnerID string

	// Username is the normalized login name.
	Username string

	// Rank is the starting rank (always Bronze).
	Rank learner.Rank

	// Events contains domain events generated.
	Events []shared.Event
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// RegisterLearnerHandler handles the RegisterLearnerCommand.
type RegisterLearnerHandler struct {
	learnerRepo learner.Repository
	projection  leaderboard.Projection
	events      shared.EventPublisher
	clock       timeutil.Clock
	logger      *slog.Logger
	bcryptCost  int
}

// NewRegisterLearnerHandler creates a new RegisterLearnerHandler.
func NewRegisterLearnerHandler(
	learnerRepo learner.Repository,
	projection leaderboard.Projection,
	events shared.EventPublisher,
	clock timeutil.Clock,
	logger *slog.Logger,
) *RegisterLearnerHandler {
	return &RegisterLearnerHandler{
		learnerRepo: learnerRepo,
		projection:  projection,
		events:      events,
		clock:       clock,
		logger:      logger,
		bcryptCost:  bcrypt.DefaultCost,
	}
}

// WithBcryptCost overrides the bcrypt work factor. Values outside the
// bcrypt range are ignored.
func (h *RegisterLearnerHandler) WithBcryptCost(cost int) *RegisterLearnerHandler {
	if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
		h.bcryptCost = cost
	}
	return h
}

// Handle executes the registration.
func (h *RegisterLearnerHandler) Handle(ctx context.Context, cmd RegisterLearnerCommand) (*RegisterLearnerResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("register_learner: validation failed: %w", err)
	}

	username, err := shared.NewUsername(cmd.Username)
	if err != nil {
		return nil, fmt.Errorf("register_learner: %w", err)
	}
	email, err := shared.NewEmail(cmd.Email)
	if err != nil {
		return nil, fmt.Errorf("register_learner: %w", err)
	}

	// Fast-path uniqueness checks. The unique constraints in the store
	// remain the real guarantee under concurrency.
	if taken, err := h.learnerRepo.ExistsByUsername(ctx, username); err != nil {
		return nil, fmt.Errorf("register_learner: username check: %w", err)
	} else if taken {
		return nil, shared.ErrLearnerAlreadyExists
	}
	if taken, err := h.learnerRepo.ExistsByEmail(ctx, email); err != nil {
		return nil, fmt.Errorf("register_learner: email check: %w", err)
	} else if taken {
		return nil, shared.ErrLearnerAlreadyExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cmd.Password), h.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("register_learner: hash password: %w", err)
	}

	now := h.clock.Now()
	lrn, err := learner.NewLearner(learner.NewLearnerParams{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		DisplayName:  cmd.DisplayName,
		AvatarURL:    cmd.AvatarURL,
		Goal:         cmd.Goal,
	}, now)
	if err != nil {
		return nil, fmt.Errorf("register_learner: %w", err)
	}

	if err := h.learnerRepo.Create(ctx, lrn); err != nil {
		return nil, fmt.Errorf("register_learner: create: %w", err)
	}

	refreshProjection(ctx, h.projection, lrn)

	event := learner.NewRegisteredEvent(lrn)
	_ = h.events.Publish(event)

	h.logger.Info("learner registered",
		"learner_id", lrn.ID,
		"username", lrn.Username.String(),
	)

	return &RegisterLearnerResult{
		LearnerID: lrn.ID,
		Username:  lrn.Username.String(),
		Rank:      lrn.Rank,
		Events:    []shared.Event{event},
	}, nil
}
