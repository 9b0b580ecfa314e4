package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/eduquest-hub/eduquest-core/internal/domain/learner"
	"github.com/eduquest-hub/eduquest-core/internal/domain/shared"
	"github.com/eduquest-hub/eduquest-core/pkg/timeutil"
)

func newRegisterFixture(t *testing.T) (*RegisterLearnerHandler, *memLearnerRepo, *memProjection, *memBus) {
	t.Helper()
	repo := newMemLearnerRepo()
	projection := newMemProjection()
	bus := &memBus{}
	h := NewRegisterLearnerHandler(repo, projection, bus, timeutil.NewFixedClock(testTime), testLogger()).
		WithBcryptCost(bcrypt.MinCost)
	return h, repo, projection, bus
}

func registration() RegisterLearnerCommand {
	return RegisterLearnerCommand{
		Username: "Dastan",
		Email:    "Dastan@Example.com",
		Password: "correct-horse",
	}
}

func TestRegisterLearner(t *testing.T) {
	h, repo, projection, bus := newRegisterFixture(t)

	result, err := h.Handle(context.Background(), registration())
	require.NoError(t, err)

	assert.NotEmpty(t, result.LearnerID)
	assert.Equal(t, "dastan", result.Username)
	assert.Equal(t, learner.RankBronze, result.Rank)

	stored, err := repo.GetByID(context.Background(), result.LearnerID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.XP)
	assert.NotEqual(t, "correct-horse", stored.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("correct-horse")))

	// The fresh learner lands in the projection with zero XP.
	entry, err := projection.EntryOf(context.Background(), result.LearnerID)
	require.NoError(t, err)
	assert.Equal(t, 0, entry.TotalXP)

	assert.Equal(t, []shared.EventType{shared.EventLearnerRegistered}, bus.types())
}

func TestRegisterLearnerDuplicateUsername(t *testing.T) {
	h, _, _, _ := newRegisterFixture(t)

	_, err := h.Handle(context.Background(), registration())
	require.NoError(t, err)

	dup := registration()
	dup.Email = "other@example.com"
	_, err = h.Handle(context.Background(), dup)
	assert.ErrorIs(t, err, shared.ErrLearnerAlreadyExists)
}

func TestRegisterLearnerDuplicateEmail(t *testing.T) {
	h, _, _, _ := newRegisterFixture(t)

	_, err := h.Handle(context.Background(), registration())
	require.NoError(t, err)

	dup := registration()
	dup.Username = "other-name"
	_, err = h.Handle(context.Background(), dup)
	assert.ErrorIs(t, err, shared.ErrLearnerAlreadyExists)
}

func TestRegisterLearnerValidation(t *testing.T) {
	h, _, _, bus := newRegisterFixture(t)

	cases := []struct {
		name   string
		mutate func(*RegisterLearnerCommand)
	}{
		{"empty username", func(c *RegisterLearnerCommand) { c.Username = "" }},
		{"invalid username", func(c *RegisterLearnerCommand) { c.Username = "1digit" }},
		{"empty email", func(c *RegisterLearnerCommand) { c.Email = "" }},
		{"invalid email", func(c *RegisterLearnerCommand) { c.Email = "not-an-email" }},
		{"short password", func(c *RegisterLearnerCommand) { c.Password = "short" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cmd := registration()
			tc.mutate(&cmd)

			_, err := h.Handle(context.Background(), cmd)
			assert.Error(t, err)
		})
	}

	assert.Empty(t, bus.events)
}
