package query

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/eduquest-hub/eduquest-core/internal/domain/quest"
	"github.com/eduquest-hub/eduquest-core/internal/domain/shared"
	"github.com/eduquest-hub/eduquest-core/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET QUEST BOARDS QUERY
// Возвращает ежедневную и еженедельную доски квестов. Доски материализуются
// лениво: устаревшая или отсутствующая доска заменяется свежей прямо при
// чтении, поэтому ночного сброса по расписанию не существует. Это
// единственный запрос, которому разрешена запись (upsert свежей доски).
// ══════════════════════════════════════════════════════════════════════════════

// GetQuestBoardsQuery содержит параметры запроса досок.
type GetQuestBoardsQuery struct {
	// LearnerID - идентификатор учащегося.
	LearnerID string
}

// Validate проверяет корректность параметров запроса.
func (q GetQuestBoardsQuery) Validate() error {
	if q.LearnerID == "" {
		return errors.New("learner_id is required")
	}
	return nil
}

// DailyBoardDTO - ежедневная доска.
type DailyBoardDTO struct {
	// Date - день, за который собрана доска (ISO-формат).
	Date string `json:"date"`

	// Quests - квесты доски с прогрессом.
	Quests []quest.Quest `json:"quests"`

	// AllCompleted - выполнены ли все квесты дня.
	AllCompleted bool `json:"all_completed"`
}

// WeeklyBoardDTO - еженедельная доска.
type WeeklyBoardDTO struct {
	// WeekStart - понедельник недели доски (ISO-формат).
	WeekStart string `json:"week_start"`

	// Quests - квесты доски с прогрессом.
	Quests []quest.Quest `json:"quests"`

	// AllCompleted - выполнены ли все квесты недели.
	AllCompleted bool `json:"all_completed"`

	// BonusAwarded - выдан ли разовый бонус за полную доску.
	BonusAwarded bool `json:"bonus_awarded"`

	// SecondsUntilReset - сколько секунд осталось до начала новой недели.
	SecondsUntilReset int64 `json:"seconds_until_reset"`
}

// GetQuestBoardsResult содержит обе доски.
type GetQuestBoardsResult struct {
	// Daily - ежедневная доска.
	Daily DailyBoardDTO `json:"daily"`

	// Weekly - еженедельная доска.
	Weekly WeeklyBoardDTO `json:"weekly"`

	// GeneratedAt - время формирования результата.
	GeneratedAt time.Time `json:"generated_at"`
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// GetQuestBoardsHandler обрабатывает запрос досок квестов.
type GetQuestBoardsHandler struct {
	questRepo quest.Repository
	clock     timeutil.Clock
	logger    *slog.Logger
}

// NewGetQuestBoardsHandler создаёт новый обработчик.
func NewGetQuestBoardsHandler(questRepo quest.Repository, clock timeutil.Clock, logger *slog.Logger) *GetQuestBoardsHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &GetQuestBoardsHandler{
		questRepo: questRepo,
		clock:     clock,
		logger:    logger.With("query", "get_quest_boards"),
	}
}

// Handle выполняет запрос досок.
func (h *GetQuestBoardsHandler) Handle(ctx context.Context, q GetQuestBoardsQuery) (*GetQuestBoardsResult, error) {
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("get_quest_boards: validation failed: %w", err)
	}

	now := h.clock.Now()
	today := timeutil.DateOf(now)

	daily, err := h.materializeDaily(ctx, q.LearnerID, today, now)
	if err != nil {
		return nil, fmt.Errorf("get_quest_boards: daily: %w", err)
	}

	weekly, err := h.materializeWeekly(ctx, q.LearnerID, today, now)
	if err != nil {
		return nil, fmt.Errorf("get_quest_boards: weekly: %w", err)
	}

	return &GetQuestBoardsResult{
		Daily: DailyBoardDTO{
			Date:         daily.Date.String(),
			Quests:       daily.Clone().Quests,
			AllCompleted: daily.AllCompleted(),
		},
		Weekly: WeeklyBoardDTO{
			WeekStart:         weekly.WeekStart.String(),
			Quests:            weekly.Clone().Quests,
			AllCompleted:      weekly.AllCompleted,
			BonusAwarded:      weekly.BonusAwarded,
			SecondsUntilReset: int64(quest.TimeUntilReset(now).Seconds()),
		},
		GeneratedAt: now,
	}, nil
}

// materializeDaily возвращает актуальную ежедневную доску, создавая
// или сбрасывая её при необходимости.
func (h *GetQuestBoardsHandler) materializeDaily(ctx context.Context, learnerID string, today timeutil.CalendarDate, now time.Time) (*quest.DailyBoard, error) {
	board, err := h.questRepo.GetDaily(ctx, learnerID)
	switch {
	case err != nil && shared.IsNotFound(err):
	case err != nil:
		return nil, err
	case board.IsStale(today):
		h.logger.Debug("resetting stale daily board", "learner_id", learnerID, "old_date", board.Date.String())
	default:
		return board, nil
	}

	board = quest.NewDailyBoard(learnerID, today, now)
	if err := h.questRepo.SaveDaily(ctx, board); err != nil {
		// Гонка сброса проиграна: параллельный запрос уже собрал
		// доску на сегодня. Читаем её.
		if shared.IsConflict(err) {
			return h.questRepo.GetDaily(ctx, learnerID)
		}
		return nil, err
	}
	return board, nil
}

// materializeWeekly возвращает актуальную еженедельную доску, создавая
// или сбрасывая её при необходимости.
func (h *GetQuestBoardsHandler) materializeWeekly(ctx context.Context, learnerID string, today timeutil.CalendarDate, now time.Time) (*quest.WeeklyBoard, error) {
	board, err := h.questRepo.GetWeekly(ctx, learnerID)
	switch {
	case err != nil && shared.IsNotFound(err):
	case err != nil:
		return nil, err
	case board.IsStale(today):
		h.logger.Debug("resetting stale weekly board", "learner_id", learnerID, "old_week", board.WeekStart.String())
	default:
		return board, nil
	}

	board = quest.NewWeeklyBoard(learnerID, today.WeekStart(), now)
	if err := h.questRepo.SaveWeekly(ctx, board); err != nil {
		if shared.IsConflict(err) {
			return h.questRepo.GetWeekly(ctx, learnerID)
		}
		return nil, err
	}
	return board, nil
}
