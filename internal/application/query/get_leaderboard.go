// Package query contains read operations following CQRS pattern.
// Queries never modify state - they only read and return data.
// Each query is a self-contained use case with its own request/response types.
package query

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/eduquest-hub/eduquest-core/internal/domain/leaderboard"
	"github.com/eduquest-hub/eduquest-core/internal/domain/learner"
	"github.com/eduquest-hub/eduquest-core/internal/domain/shared"
	"github.com/eduquest-hub/eduquest-core/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET LEADERBOARD QUERY
// Получает топ-N рейтинга. Основной источник - Redis-проекция; если она
// недоступна, рейтинг собирается напрямую из Postgres через BuildRanking.
// Для запрашивающего учащегося дополнительно считается позиция и перцентиль.
// ══════════════════════════════════════════════════════════════════════════════

// GetLeaderboardQuery содержит параметры запроса рейтинга.
type GetLeaderboardQuery struct {
	// Limit - количество записей (по умолчанию 20, максимум 100).
	Limit int

	// ViewerID - ID запрашивающего учащегося. Пустая строка для гостей:
	// тогда личная позиция не считается.
	ViewerID string
}

// Validate проверяет корректность параметров запроса.
func (q *GetLeaderboardQuery) Validate() error {
	if q.Limit < 0 {
		return errors.New("limit cannot be negative")
	}
	if q.Limit > 100 {
		q.Limit = 100
	}
	if q.Limit == 0 {
		q.Limit = 20
	}
	return nil
}

// LeaderboardEntryDTO - запись рейтинга для отдачи наружу.
type LeaderboardEntryDTO struct {
	// Position - позиция в рейтинге (начиная с 1).
	Position int `json:"position"`

	// UserID - идентификатор учащегося.
	UserID string `json:"user_id"`

	// Username - имя входа.
	Username string `json:"username"`

	// DisplayName - отображаемое имя.
	DisplayName string `json:"display_name"`

	// AvatarURL - ссылка на аватар.
	AvatarURL string `json:"avatar_url,omitempty"`

	// TotalXP - суммарный опыт.
	TotalXP int `json:"total_xp"`

	// Rank - текущий ранг.
	Rank string `json:"rank"`

	// Goal - учебная цель, если указана.
	Goal string `json:"goal,omitempty"`

	// IsTop10 - входит ли запись в первую десятку.
	IsTop10 bool `json:"is_top10"`
}

// StandingDTO - личная позиция запрашивающего учащегося.
type StandingDTO struct {
	// Position - позиция в рейтинге.
	Position int `json:"position"`

	// TotalUsers - всего участников рейтинга.
	TotalUsers int `json:"total_users"`

	// Percentile - перцентиль (100 = первое место), один знак после запятой.
	Percentile float64 `json:"percentile"`
}

// GetLeaderboardResult содержит результат запроса.
type GetLeaderboardResult struct {
	// Entries - записи рейтинга.
	Entries []LeaderboardEntryDTO `json:"entries"`

	// TotalUsers - всего участников рейтинга.
	TotalUsers int `json:"total_users"`

	// Viewer - личная позиция запрашивающего (nil для гостей
	// и учащихся вне рейтинга).
	Viewer *StandingDTO `json:"viewer,omitempty"`

	// FromProjection - true, если данные пришли из проекции,
	// false при fallback на Postgres.
	FromProjection bool `json:"-"`

	// GeneratedAt - время формирования результата.
	GeneratedAt time.Time `json:"generated_at"`
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// GetLeaderboardHandler обрабатывает запрос рейтинга.
type GetLeaderboardHandler struct {
	projection  leaderboard.Projection
	learnerRepo learner.Repository
	clock       timeutil.Clock
	logger      *slog.Logger
}

// NewGetLeaderboardHandler создаёт новый обработчик.
func NewGetLeaderboardHandler(
	projection leaderboard.Projection,
	learnerRepo learner.Repository,
	clock timeutil.Clock,
	logger *slog.Logger,
) *GetLeaderboardHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &GetLeaderboardHandler{
		projection:  projection,
		learnerRepo: learnerRepo,
		clock:       clock,
		logger:      logger.With("query", "get_leaderboard"),
	}
}

// Handle выполняет запрос рейтинга.
func (h *GetLeaderboardHandler) Handle(ctx context.Context, q GetLeaderboardQuery) (*GetLeaderboardResult, error) {
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("get_leaderboard: validation failed: %w", err)
	}

	result, err := h.fromProjection(ctx, q)
	if err != nil {
		h.logger.Warn("projection unavailable, falling back to postgres", "error", err)
		result, err = h.fromPostgres(ctx, q)
		if err != nil {
			return nil, fmt.Errorf("get_leaderboard: %w", err)
		}
	}

	result.GeneratedAt = h.clock.Now()
	return result, nil
}

// fromProjection собирает результат из Redis-проекции.
func (h *GetLeaderboardHandler) fromProjection(ctx context.Context, q GetLeaderboardQuery) (*GetLeaderboardResult, error) {
	if h.projection == nil {
		return nil, shared.ErrServiceUnavailable
	}

	top, err := h.projection.Top(ctx, q.Limit)
	if err != nil {
		return nil, err
	}

	total, err := h.projection.Total(ctx)
	if err != nil {
		return nil, err
	}

	result := &GetLeaderboardResult{
		Entries:        make([]LeaderboardEntryDTO, 0, len(top)),
		TotalUsers:     total,
		FromProjection: true,
	}
	for _, e := range top {
		result.Entries = append(result.Entries, toEntryDTO(e))
	}

	if q.ViewerID != "" {
		pos, err := h.projection.PositionOf(ctx, q.ViewerID)
		switch {
		case errors.Is(err, leaderboard.ErrNotRanked):
			// Гость или ещё не попал в проекцию, позицию не показываем.
		case err != nil:
			return nil, err
		default:
			result.Viewer = &StandingDTO{
				Position:   pos.Int(),
				TotalUsers: total,
				Percentile: leaderboard.Percentile(pos, total),
			}
		}
	}

	return result, nil
}

// fromPostgres собирает рейтинг напрямую из основного хранилища.
func (h *GetLeaderboardHandler) fromPostgres(ctx context.Context, q GetLeaderboardQuery) (*GetLeaderboardResult, error) {
	learners, err := h.learnerRepo.List(ctx, learner.DefaultListOptions().WithLimit(0))
	if err != nil {
		return nil, fmt.Errorf("list learners: %w", err)
	}

	entries := make([]leaderboard.Entry, 0, len(learners))
	for _, l := range learners {
		entries = append(entries, leaderboard.Entry{
			UserID:      l.ID,
			Username:    l.Username.String(),
			DisplayName: l.DisplayName,
			AvatarURL:   l.AvatarURL,
			TotalXP:     l.XP,
			Rank:        string(l.Rank),
			Goal:        l.Goal,
			UpdatedAt:   l.UpdatedAt,
		})
	}
	ranked := leaderboard.BuildRanking(entries)

	result := &GetLeaderboardResult{
		Entries:    make([]LeaderboardEntryDTO, 0, min(q.Limit, len(ranked))),
		TotalUsers: len(ranked),
	}
	for i, e := range ranked {
		if i >= q.Limit {
			break
		}
		result.Entries = append(result.Entries, toEntryDTO(e))
	}

	if q.ViewerID != "" {
		for _, e := range ranked {
			if e.UserID == q.ViewerID {
				result.Viewer = &StandingDTO{
					Position:   e.Position.Int(),
					TotalUsers: len(ranked),
					Percentile: leaderboard.Percentile(e.Position, len(ranked)),
				}
				break
			}
		}
	}

	return result, nil
}

// toEntryDTO преобразует доменную запись в DTO.
func toEntryDTO(e leaderboard.Entry) LeaderboardEntryDTO {
	return LeaderboardEntryDTO{
		Position:    e.Position.Int(),
		UserID:      e.UserID,
		Username:    e.Username,
		DisplayName: e.DisplayName,
		AvatarURL:   e.AvatarURL,
		TotalXP:     e.TotalXP,
		Rank:        e.Rank,
		Goal:        e.Goal,
		IsTop10:     e.Position.IsTop10(),
	}
}
