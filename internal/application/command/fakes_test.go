package command

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/eduquest-hub/eduquest-core/internal/domain/leaderboard"
	"github.com/eduquest-hub/eduquest-core/internal/domain/learner"
	"github.com/eduquest-hub/eduquest-core/internal/domain/shared"
)

var testTime = time.Date(2026, time.March, 14, 10, 0, 0, 0, time.UTC)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func seedLearner(t *testing.T) *learner.Learner {
	t.Helper()
	l, err := learner.NewLearner(learner.NewLearnerParams{
		ID:           "6a9cdb2e-41f1-4c83-9f3a-8f2d1f9f0c11",
		Username:     shared.Username("aigerim"),
		Email:        shared.Email("aigerim@example.com"),
		PasswordHash: "$2a$12$abcdefghijklmnopqrstuv",
	}, testTime)
	require.NoError(t, err)
	return l
}

// memLearnerRepo is an in-memory learner.Repository with real version checks.
// conflicts forces that many leading writes to fail with shared.ErrConflict,
// to exercise the CAS retry loop.
type memLearnerRepo struct {
	learners  map[string]*learner.Learner
	history   []learner.XPHistoryEntry
	conflicts int
}

func newMemLearnerRepo(seed ...*learner.Learner) *memLearnerRepo {
	r := &memLearnerRepo{learners: make(map[string]*learner.Learner)}
	for _, l := range seed {
		r.learners[l.ID] = l.Clone()
	}
	return r
}

func (r *memLearnerRepo) Create(_ context.Context, l *learner.Learner) error {
	for _, existing := range r.learners {
		if existing.Username == l.Username || existing.Email == l.Email {
			return shared.ErrLearnerAlreadyExists
		}
	}
	r.learners[l.ID] = l.Clone()
	return nil
}

func (r *memLearnerRepo) GetByID(_ context.Context, id string) (*learner.Learner, error) {
	l, ok := r.learners[id]
	if !ok {
		return nil, shared.ErrLearnerNotFound
	}
	return l.Clone(), nil
}

func (r *memLearnerRepo) GetByUsername(_ context.Context, username shared.Username) (*learner.Learner, error) {
	for _, l := range r.learners {
		if l.Username == username {
			return l.Clone(), nil
		}
	}
	return nil, shared.ErrLearnerNotFound
}

func (r *memLearnerRepo) GetByEmail(_ context.Context, email shared.Email) (*learner.Learner, error) {
	for _, l := range r.learners {
		if l.Email == email {
			return l.Clone(), nil
		}
	}
	return nil, shared.ErrLearnerNotFound
}

func (r *memLearnerRepo) Update(_ context.Context, l *learner.Learner) error {
	if r.conflicts > 0 {
		r.conflicts--
		return shared.ErrConflict
	}
	stored, ok := r.learners[l.ID]
	if !ok {
		return shared.ErrLearnerNotFound
	}
	if stored.Version != l.Version {
		return shared.ErrConflict
	}
	l.Version++
	r.learners[l.ID] = l.Clone()
	return nil
}

func (r *memLearnerRepo) UpdateWithHistory(ctx context.Context, l *learner.Learner, entries []learner.XPHistoryEntry) error {
	if err := r.Update(ctx, l); err != nil {
		return err
	}
	r.history = append(r.history, entries...)
	return nil
}

func (r *memLearnerRepo) List(_ context.Context, opts learner.ListOptions) ([]*learner.Learner, error) {
	all := make([]*learner.Learner, 0, len(r.learners))
	for _, l := range r.learners {
		all = append(all, l.Clone())
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].XP != all[j].XP {
			return all[i].XP > all[j].XP
		}
		return all[i].Username < all[j].Username
	})
	if opts.Offset >= len(all) {
		return nil, nil
	}
	all = all[opts.Offset:]
	if opts.Limit > 0 && len(all) > opts.Limit {
		all = all[:opts.Limit]
	}
	return all, nil
}

func (r *memLearnerRepo) Count(_ context.Context) (int, error) {
	return len(r.learners), nil
}

func (r *memLearnerRepo) ExistsByUsername(_ context.Context, username shared.Username) (bool, error) {
	_, err := r.GetByUsername(context.Background(), username)
	if err != nil {
		return false, nil
	}
	return true, nil
}

func (r *memLearnerRepo) ExistsByEmail(_ context.Context, email shared.Email) (bool, error) {
	_, err := r.GetByEmail(context.Background(), email)
	if err != nil {
		return false, nil
	}
	return true, nil
}

// memProjection records upserts for assertions.
type memProjection struct {
	entries  map[string]leaderboard.Entry
	upserts  int
	rebuilds int
}

func newMemProjection() *memProjection {
	return &memProjection{entries: make(map[string]leaderboard.Entry)}
}

func (p *memProjection) Upsert(_ context.Context, entry leaderboard.Entry) error {
	if err := entry.Validate(); err != nil {
		return err
	}
	p.entries[entry.UserID] = entry
	p.upserts++
	return nil
}

func (p *memProjection) ranked() []leaderboard.Entry {
	all := make([]leaderboard.Entry, 0, len(p.entries))
	for _, e := range p.entries {
		all = append(all, e)
	}
	return leaderboard.BuildRanking(all)
}

func (p *memProjection) Top(_ context.Context, limit int) ([]leaderboard.Entry, error) {
	ranked := p.ranked()
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

func (p *memProjection) PositionOf(_ context.Context, userID string) (leaderboard.Position, error) {
	for _, e := range p.ranked() {
		if e.UserID == userID {
			return e.Position, nil
		}
	}
	return 0, leaderboard.ErrNotRanked
}

func (p *memProjection) EntryOf(_ context.Context, userID string) (leaderboard.Entry, error) {
	for _, e := range p.ranked() {
		if e.UserID == userID {
			return e, nil
		}
	}
	return leaderboard.Entry{}, leaderboard.ErrNotRanked
}

func (p *memProjection) Total(_ context.Context) (int, error) {
	return len(p.entries), nil
}

func (p *memProjection) Rebuild(_ context.Context, entries []leaderboard.Entry) error {
	p.entries = make(map[string]leaderboard.Entry, len(entries))
	for _, e := range entries {
		p.entries[e.UserID] = e
	}
	p.rebuilds++
	return nil
}

// memBus collects published events.
type memBus struct {
	events []shared.Event
}

func (b *memBus) Publish(event shared.Event) error {
	b.events = append(b.events, event)
	return nil
}

func (b *memBus) types() []shared.EventType {
	types := make([]shared.EventType, len(b.events))
	for i, e := range b.events {
		types[i] = e.EventType()
	}
	return types
}
