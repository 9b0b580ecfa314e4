package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/eduquest-hub/eduquest-core/internal/domain/leaderboard"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD PROJECTION
// Sorted set keyed by XP plus a hash with display details. Single-entry
// updates are O(log N); a full Rebuild atomically swaps the projection
// for a fresh snapshot of the learners table.
//
// Within the sorted set, equal scores order by member ID, which may
// differ from the canonical username tie-break. The periodic Rebuild
// does not fix that either, so positions of exact-XP ties can swap
// between the projection and the Postgres fallback.
// ══════════════════════════════════════════════════════════════════════════════

// Key patterns for the leaderboard projection.
const (
	// keyLeaderboardXP is the sorted set for XP rankings.
	keyLeaderboardXP = "leaderboard:xp"

	// keyLeaderboardInfo is the hash for entry details.
	keyLeaderboardInfo = "leaderboard:info"
)

// ErrEntryMissing indicates the sorted set and info hash disagree.
var ErrEntryMissing = errors.New("leaderboard projection: entry details missing")

// entryRecord is the JSON shape stored in the info hash.
type entryRecord struct {
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	TotalXP     int       `json:"total_xp"`
	Rank        string    `json:"rank"`
	Goal        string    `json:"goal,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// LeaderboardProjection implements leaderboard.Projection on Redis.
type LeaderboardProjection struct {
	cache *Cache
}

// NewLeaderboardProjection creates a new LeaderboardProjection.
func NewLeaderboardProjection(cache *Cache) *LeaderboardProjection {
	return &LeaderboardProjection{cache: cache}
}

// ══════════════════════════════════════════════════════════════════════════════
// WRITE OPERATIONS
// ══════════════════════════════════════════════════════════════════════════════

// Upsert adds or refreshes a single learner in the projection.
func (p *LeaderboardProjection) Upsert(ctx context.Context, entry leaderboard.Entry) error {
	if err := entry.Validate(); err != nil {
		return err
	}

	data, err := json.Marshal(recordFrom(entry))
	if err != nil {
		return fmt.Errorf("failed to marshal leaderboard entry: %w", err)
	}

	pipe := p.cache.Client().Pipeline()
	pipe.ZAdd(ctx, keyLeaderboardXP, redis.Z{
		Score:  float64(entry.TotalXP),
		Member: entry.UserID,
	})
	pipe.HSet(ctx, keyLeaderboardInfo, entry.UserID, data)

	_, err = pipe.Exec(ctx)
	return err
}

// Rebuild atomically replaces the projection with a fresh snapshot.
func (p *LeaderboardProjection) Rebuild(ctx context.Context, entries []leaderboard.Entry) error {
	zMembers := make([]redis.Z, 0, len(entries))
	infoFields := make(map[string]interface{}, len(entries))
	for _, entry := range entries {
		data, err := json.Marshal(recordFrom(entry))
		if err != nil {
			return fmt.Errorf("failed to marshal leaderboard entry: %w", err)
		}
		zMembers = append(zMembers, redis.Z{
			Score:  float64(entry.TotalXP),
			Member: entry.UserID,
		})
		infoFields[entry.UserID] = data
	}

	// TxPipeline keeps the swap atomic: readers never observe the
	// projection half-built.
	pipe := p.cache.Client().TxPipeline()
	pipe.Del(ctx, keyLeaderboardXP, keyLeaderboardInfo)
	if len(zMembers) > 0 {
		pipe.ZAdd(ctx, keyLeaderboardXP, zMembers...)
		pipe.HSet(ctx, keyLeaderboardInfo, infoFields)
	}

	_, err := pipe.Exec(ctx)
	return err
}

// ══════════════════════════════════════════════════════════════════════════════
// READ OPERATIONS
// ══════════════════════════════════════════════════════════════════════════════

// Top returns the first limit entries with positions assigned.
func (p *LeaderboardProjection) Top(ctx context.Context, limit int) ([]leaderboard.Entry, error) {
	if limit <= 0 {
		return nil, nil
	}

	ids, err := p.cache.Client().ZRevRange(ctx, keyLeaderboardXP, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read leaderboard top: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	raw, err := p.cache.Client().HMGet(ctx, keyLeaderboardInfo, ids...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read leaderboard details: %w", err)
	}

	entries := make([]leaderboard.Entry, 0, len(ids))
	for i, id := range ids {
		entry, err := entryFromRaw(id, raw[i])
		if err != nil {
			return nil, err
		}
		entry.Position = leaderboard.Position(i + 1)
		entries = append(entries, entry)
	}

	return entries, nil
}

// PositionOf returns the learner's 1-based position.
func (p *LeaderboardProjection) PositionOf(ctx context.Context, userID string) (leaderboard.Position, error) {
	// ZRevRank returns 0-based rank (0 = highest score)
	rank, err := p.cache.Client().ZRevRank(ctx, keyLeaderboardXP, userID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, leaderboard.ErrNotRanked
		}
		return 0, fmt.Errorf("failed to read leaderboard rank: %w", err)
	}

	return leaderboard.Position(rank + 1), nil
}

// EntryOf returns the learner's entry with its position assigned.
func (p *LeaderboardProjection) EntryOf(ctx context.Context, userID string) (leaderboard.Entry, error) {
	position, err := p.PositionOf(ctx, userID)
	if err != nil {
		return leaderboard.Entry{}, err
	}

	data, err := p.cache.Client().HGet(ctx, keyLeaderboardInfo, userID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return leaderboard.Entry{}, leaderboard.ErrNotRanked
		}
		return leaderboard.Entry{}, fmt.Errorf("failed to read leaderboard entry: %w", err)
	}

	entry, err := entryFromRaw(userID, data)
	if err != nil {
		return leaderboard.Entry{}, err
	}
	entry.Position = position

	return entry, nil
}

// Total returns the number of ranked learners.
func (p *LeaderboardProjection) Total(ctx context.Context) (int, error) {
	total, err := p.cache.Client().ZCard(ctx, keyLeaderboardXP).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count leaderboard entries: %w", err)
	}
	return int(total), nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Conversion Helpers
// ─────────────────────────────────────────────────────────────────────────────

func recordFrom(entry leaderboard.Entry) entryRecord {
	return entryRecord{
		Username:    entry.Username,
		DisplayName: entry.DisplayName,
		AvatarURL:   entry.AvatarURL,
		TotalXP:     entry.TotalXP,
		Rank:        entry.Rank,
		Goal:        entry.Goal,
		UpdatedAt:   entry.UpdatedAt,
	}
}

// entryFromRaw decodes one HMGET result slot. HMGET yields nil for
// members that have a score but no details row.
func entryFromRaw(userID string, raw interface{}) (leaderboard.Entry, error) {
	text, ok := raw.(string)
	if !ok || text == "" {
		return leaderboard.Entry{}, fmt.Errorf("%w: %s", ErrEntryMissing, userID)
	}

	var record entryRecord
	if err := json.Unmarshal([]byte(text), &record); err != nil {
		return leaderboard.Entry{}, fmt.Errorf("failed to unmarshal leaderboard entry: %w", err)
	}

	return leaderboard.Entry{
		UserID:      userID,
		Username:    record.Username,
		DisplayName: record.DisplayName,
		AvatarURL:   record.AvatarURL,
		TotalXP:     record.TotalXP,
		Rank:        record.Rank,
		Goal:        record.Goal,
		UpdatedAt:   record.UpdatedAt,
	}, nil
}
