package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/eduquest-hub/eduquest-core/internal/domain/learner"
	"github.com/eduquest-hub/eduquest-core/internal/domain/quest"
	"github.com/eduquest-hub/eduquest-core/internal/domain/shared"
	"github.com/eduquest-hub/eduquest-core/pkg/retry"
	"github.com/eduquest-hub/eduquest-core/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// TRACK QUEST PROGRESS COMMAND
// Applies a finished quiz to both quest boards. Boards are materialized
// lazily: a missing or stale board is replaced with a fresh one for the
// current period before the progress lands. Completion XP goes through the
// ledger via AwardXP, so quest rewards get the same audit rows and rank
// handling as everything else.
// ══════════════════════════════════════════════════════════════════════════════

// TrackQuestProgressCommand contains the quiz facts the boards care about.
type TrackQuestProgressCommand struct {
	// LearnerID is the internal ID of the learner.
	LearnerID string

	// Score is the quiz result percentage (0-100).
	Score float64

	// CorrectAnswers is the number of correct answers.
	CorrectAnswers int

	// Perfect marks a flawless run.
	Perfect bool
}

// Validate validates the command.
func (c TrackQuestProgressCommand) Validate() error {
	if c.LearnerID == "" {
		return errors.New("track_quest_progress: learner_id is required")
	}
	return nil
}

// TrackQuestProgressResult contains the board outcomes.
type TrackQuestProgressResult struct {
	// Daily is the daily board outcome.
	Daily quest.DailyProgress

	// Weekly is the weekly board outcome.
	Weekly quest.WeeklyProgress

	// XPAwarded is the total quest XP granted through the ledger.
	XPAwarded int

	// Events contains domain events generated.
	Events []shared.Event
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// TrackQuestProgressHandler handles the TrackQuestProgressCommand.
type TrackQuestProgressHandler struct {
	questRepo   quest.Repository
	learnerRepo learner.Repository
	awardXP     *AwardXPHandler
	events      shared.EventPublisher
	clock       timeutil.Clock
	logger      *slog.Logger
	retrier     *retry.Retrier
}

// NewTrackQuestProgressHandler creates a new TrackQuestProgressHandler.
func NewTrackQuestProgressHandler(
	questRepo quest.Repository,
	learnerRepo learner.Repository,
	awardXP *AwardXPHandler,
	events shared.EventPublisher,
	clock timeutil.Clock,
	logger *slog.Logger,
) *TrackQuestProgressHandler {
	return &TrackQuestProgressHandler{
		questRepo:   questRepo,
		learnerRepo: learnerRepo,
		awardXP:     awardXP,
		events:      events,
		clock:       clock,
		logger:      logger,
		retrier:     newCASRetrier(logger, "track_quest_progress"),
	}
}

// Handle applies the quiz to both boards and pays out completions.
func (h *TrackQuestProgressHandler) Handle(ctx context.Context, cmd TrackQuestProgressCommand) (*TrackQuestProgressResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("track_quest_progress: validation failed: %w", err)
	}

	score, err := shared.NewScore(cmd.Score)
	if err != nil {
		return nil, fmt.Errorf("track_quest_progress: %w", err)
	}

	// The streak-level quest on the weekly board tracks the post-advance
	// streak, so the learner is read after the quiz submission committed.
	lrn, err := h.learnerRepo.GetByID(ctx, cmd.LearnerID)
	if err != nil {
		return nil, fmt.Errorf("track_quest_progress: load learner: %w", err)
	}

	result := &TrackQuestProgressResult{}

	if err := h.trackDaily(ctx, cmd, result); err != nil {
		return nil, err
	}
	if err := h.trackWeekly(ctx, cmd, score, lrn.CurrentStreak, result); err != nil {
		return nil, err
	}

	// Completion events for the boards; award events are published by the
	// AwardXP handler itself.
	for _, q := range result.Daily.Completed {
		result.Events = append(result.Events, quest.NewCompletedEvent(cmd.LearnerID, quest.BoardDaily, q))
	}
	for _, q := range result.Weekly.Completed {
		result.Events = append(result.Events, quest.NewCompletedEvent(cmd.LearnerID, quest.BoardWeekly, q))
	}
	for _, event := range result.Events {
		_ = h.events.Publish(event)
	}

	// Pay out newly completed quests through the ledger.
	for _, q := range result.Daily.Completed {
		if err := h.payout(ctx, cmd.LearnerID, learner.XPSourceDailyQuest, q.ID, q.XP, result); err != nil {
			return nil, err
		}
	}
	for _, q := range result.Weekly.Completed {
		if err := h.payout(ctx, cmd.LearnerID, learner.XPSourceWeeklyQuest, q.ID, q.XP, result); err != nil {
			return nil, err
		}
	}
	if result.Weekly.BonusAwarded {
		if err := h.payout(ctx, cmd.LearnerID, learner.XPSourceWeeklyQuest, "weekly_bonus", quest.WeeklyCompletionBonusXP, result); err != nil {
			return nil, err
		}
	}

	return result, nil
}

// trackDaily materializes and advances the daily board under the CAS loop.
func (h *TrackQuestProgressHandler) trackDaily(ctx context.Context, cmd TrackQuestProgressCommand, result *TrackQuestProgressResult) error {
	return h.retrier.Do(ctx, func(ctx context.Context) error {
		now := h.clock.Now()
		today := timeutil.DateOf(now)

		board, err := h.questRepo.GetDaily(ctx, cmd.LearnerID)
		switch {
		case err != nil && shared.IsNotFound(err):
			board = quest.NewDailyBoard(cmd.LearnerID, today, now)
			if err := h.questRepo.SaveDaily(ctx, board); err != nil {
				return fmt.Errorf("track_quest_progress: create daily board: %w", err)
			}
		case err != nil:
			return fmt.Errorf("track_quest_progress: load daily board: %w", err)
		case board.IsStale(today):
			board = quest.NewDailyBoard(cmd.LearnerID, today, now)
			if err := h.questRepo.SaveDaily(ctx, board); err != nil {
				return fmt.Errorf("track_quest_progress: reset daily board: %w", err)
			}
		}

		progress := board.ApplyQuizResult(cmd.CorrectAnswers, cmd.Perfect, now)
		if progress.Updated {
			if err := h.questRepo.UpdateDaily(ctx, board); err != nil {
				return fmt.Errorf("track_quest_progress: save daily board: %w", err)
			}
		}

		result.Daily = progress
		return nil
	})
}

// trackWeekly materializes and advances the weekly board under the CAS loop.
func (h *TrackQuestProgressHandler) trackWeekly(ctx context.Context, cmd TrackQuestProgressCommand, score shared.Score, currentStreak int, result *TrackQuestProgressResult) error {
	return h.retrier.Do(ctx, func(ctx context.Context) error {
		now := h.clock.Now()
		today := timeutil.DateOf(now)

		board, err := h.questRepo.GetWeekly(ctx, cmd.LearnerID)
		switch {
		case err != nil && shared.IsNotFound(err):
			board = quest.NewWeeklyBoard(cmd.LearnerID, today.WeekStart(), now)
			if err := h.questRepo.SaveWeekly(ctx, board); err != nil {
				return fmt.Errorf("track_quest_progress: create weekly board: %w", err)
			}
		case err != nil:
			return fmt.Errorf("track_quest_progress: load weekly board: %w", err)
		case board.IsStale(today):
			board = quest.NewWeeklyBoard(cmd.LearnerID, today.WeekStart(), now)
			if err := h.questRepo.SaveWeekly(ctx, board); err != nil {
				return fmt.Errorf("track_quest_progress: reset weekly board: %w", err)
			}
		}

		progress := board.ApplyQuizResult(score, currentStreak, now)
		if progress.Updated {
			if err := h.questRepo.UpdateWeekly(ctx, board); err != nil {
				return fmt.Errorf("track_quest_progress: save weekly board: %w", err)
			}
		}

		result.Weekly = progress
		return nil
	})
}

// payout grants quest XP through the ledger and folds the events in.
func (h *TrackQuestProgressHandler) payout(ctx context.Context, learnerID string, source learner.XPSource, reference string, amount int, result *TrackQuestProgressResult) error {
	award, err := h.awardXP.Handle(ctx, AwardXPCommand{
		LearnerID: learnerID,
		Amount:    amount,
		Source:    source,
		Reference: reference,
	})
	if err != nil {
		return fmt.Errorf("track_quest_progress: quest payout: %w", err)
	}

	result.XPAwarded += award.Applied.Amount
	result.Events = append(result.Events, award.Events...)
	return nil
}
