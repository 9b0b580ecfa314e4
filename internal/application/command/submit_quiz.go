package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/eduquest-hub/eduquest-core/internal/domain/leaderboard"
	"github.com/eduquest-hub/eduquest-core/internal/domain/learner"
	"github.com/eduquest-hub/eduquest-core/internal/domain/shared"
	"github.com/eduquest-hub/eduquest-core/pkg/retry"
	"github.com/eduquest-hub/eduquest-core/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// SUBMIT QUIZ COMMAND
// The central write path: one quiz submission feeds the XP ledger, the
// streak engine and the achievement evaluator, all committed as a single
// versioned row update. XP order matters: the quiz multiplier uses the
// streak as it was BEFORE today's advance.
// ══════════════════════════════════════════════════════════════════════════════

// SubmitQuizCommand contains a finished quiz result.
type SubmitQuizCommand struct {
	// LearnerID is the internal ID of the learner. Empty for guests.
	LearnerID string

	// Guest marks a sessionless submission: XP is calculated and returned
	// but nothing is stored and no events fire.
	Guest bool

	// GuestStreak is the client-kept streak of a guest session, used only
	// for the XP calculation.
	GuestStreak int

	// QuizID identifies the quiz, for the XP history reference.
	QuizID string

	// Score is the result percentage (0-100).
	Score float64

	// TotalQuestions is the number of questions.
	TotalQuestions int

	// CorrectAnswers is the number of correct answers.
	CorrectAnswers int

	// WrongAnswers is the number of wrong answers.
	WrongAnswers int

	// PerfectScore is the client flag for a flawless run.
	PerfectScore bool

	// TimeBonus is the speed bonus calculated by the client.
	TimeBonus int
}

// Validate validates the command.
func (c SubmitQuizCommand) Validate() error {
	if !c.Guest && c.LearnerID == "" {
		return errors.New("submit_quiz: learner_id is required")
	}
	if c.TotalQuestions <= 0 {
		return errors.New("submit_quiz: total_questions must be positive")
	}
	if c.GuestStreak < 0 {
		return errors.New("submit_quiz: guest_streak must be non-negative")
	}
	return nil
}

// quizResult converts the command into the domain value object.
func (c SubmitQuizCommand) quizResult() (learner.QuizResult, error) {
	score, err := shared.NewScore(c.Score)
	if err != nil {
		return learner.QuizResult{}, err
	}

	result := learner.QuizResult{
		QuizID:         c.QuizID,
		Score:          score,
		TotalQuestions: c.TotalQuestions,
		CorrectAnswers: c.CorrectAnswers,
		WrongAnswers:   c.WrongAnswers,
		PerfectScore:   c.PerfectScore,
		TimeBonus:      c.TimeBonus,
	}
	if err := result.Validate(); err != nil {
		return learner.QuizResult{}, err
	}
	return result, nil
}

// SubmitQuizResult contains everything the caller needs to render the
// post-quiz screen.
type SubmitQuizResult struct {
	// Guest is true for sessionless submissions.
	Guest bool

	// Breakdown is the quiz XP detail.
	Breakdown learner.XPBreakdown

	// TotalXP is the learner's XP after all awards (for guests: just the
	// quiz total).
	TotalXP int

	// Rank is the rank after all awards.
	Rank learner.Rank

	// RankedUp is true if any award in this submission changed the rank.
	RankedUp bool

	// OldRank is the rank before the submission.
	OldRank learner.Rank

	// NewRank is the rank after the submission.
	NewRank learner.Rank

	// Streak is the streak advance outcome. Zero for guests and failed
	// quizzes.
	Streak learner.StreakAdvance

	// Unlocked lists achievements earned by this submission.
	Unlocked []learner.AchievementDef

	// Events contains domain events generated.
	Events []shared.Event
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// SubmitQuizHandler handles the SubmitQuizCommand.
type SubmitQuizHandler struct {
	learnerRepo learner.Repository
	projection  leaderboard.Projection
	events      shared.EventPublisher
	clock       timeutil.Clock
	logger      *slog.Logger
	retrier     *retry.Retrier
}

// NewSubmitQuizHandler creates a new SubmitQuizHandler.
func NewSubmitQuizHandler(
	learnerRepo learner.Repository,
	projection leaderboard.Projection,
	events shared.EventPublisher,
	clock timeutil.Clock,
	logger *slog.Logger,
) *SubmitQuizHandler {
	return &SubmitQuizHandler{
		learnerRepo: learnerRepo,
		projection:  projection,
		events:      events,
		clock:       clock,
		logger:      logger,
		retrier:     newCASRetrier(logger, "submit_quiz"),
	}
}

// Handle executes the quiz submission.
func (h *SubmitQuizHandler) Handle(ctx context.Context, cmd SubmitQuizCommand) (*SubmitQuizResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("submit_quiz: validation failed: %w", err)
	}

	quizResult, err := cmd.quizResult()
	if err != nil {
		return nil, fmt.Errorf("submit_quiz: %w", err)
	}

	if cmd.Guest {
		return h.handleGuest(cmd, quizResult), nil
	}

	var (
		result *SubmitQuizResult
		lrn    *learner.Learner
	)

	// The whole read-modify-write re-runs with fresh state on a version
	// conflict, so every attempt starts from a clean slate.
	err = h.retrier.Do(ctx, func(ctx context.Context) error {
		fresh, err := h.learnerRepo.GetByID(ctx, cmd.LearnerID)
		if err != nil {
			return fmt.Errorf("submit_quiz: load learner: %w", err)
		}

		res, history, err := h.apply(fresh, quizResult)
		if err != nil {
			return err
		}

		if err := h.learnerRepo.UpdateWithHistory(ctx, fresh, history); err != nil {
			return fmt.Errorf("submit_quiz: save learner: %w", err)
		}

		result = res
		lrn = fresh
		return nil
	})
	if err != nil {
		return nil, err
	}

	refreshProjection(ctx, h.projection, lrn)

	for _, event := range result.Events {
		_ = h.events.Publish(event)
	}

	h.logger.Info("quiz submitted",
		"learner_id", lrn.ID,
		"quiz_id", cmd.QuizID,
		"xp_awarded", result.Breakdown.Total,
		"total_xp", result.TotalXP,
		"streak", lrn.CurrentStreak,
		"new_achievements", len(result.Unlocked),
	)

	return result, nil
}

// apply runs the in-memory transition for one attempt.
func (h *SubmitQuizHandler) apply(lrn *learner.Learner, quizResult learner.QuizResult) (*SubmitQuizResult, []learner.XPHistoryEntry, error) {
	now := h.clock.Now()
	oldRank := lrn.Rank

	var (
		events  []shared.Event
		history []learner.XPHistoryEntry
	)

	record := func(applied learner.XPApplication, source learner.XPSource, reference string) {
		history = append(history, learner.XPHistoryEntry{
			LearnerID: lrn.ID,
			Timestamp: now,
			OldXP:     applied.OldXP,
			NewXP:     applied.NewXP,
			Delta:     applied.Amount,
			Source:    source,
			Reference: reference,
		})
		events = append(events, learner.NewXPAwardedEvent(lrn, applied, source, reference))
	}

	// Quiz XP first, with the pre-advance streak.
	breakdown := learner.CalculateQuizXP(quizResult, lrn.CurrentStreak)
	lrn.RecordQuizTaken(quizResult.CorrectAnswers, quizResult.WrongAnswers, now)

	applied, err := lrn.ApplyXP(breakdown.Total, now)
	if err != nil {
		return nil, nil, fmt.Errorf("submit_quiz: apply xp: %w", err)
	}
	record(applied, learner.XPSourceQuiz, quizResult.QuizID)
	events = append(events, learner.NewQuizSubmittedEvent(lrn, quizResult, breakdown.Total))

	// Streak advances only for passing scores.
	var advance learner.StreakAdvance
	if quizResult.Score.IsPassing() {
		advance = lrn.AdvanceStreak(now)
		if advance.Updated {
			events = append(events, learner.NewStreakAdvancedEvent(lrn, advance))
		}
		if advance.Milestone != nil {
			msApplied, err := lrn.ApplyXP(advance.Milestone.BonusXP, now)
			if err != nil {
				return nil, nil, fmt.Errorf("submit_quiz: milestone xp: %w", err)
			}
			record(msApplied, learner.XPSourceStreakMilestone, "day_"+strconv.Itoa(advance.Milestone.Days))
			events = append(events, learner.NewStreakMilestoneReachedEvent(lrn, *advance.Milestone))
		}
	}

	// Achievements see the post-award snapshot.
	unlocked := learner.EvaluateAchievements(lrn.Snapshot(), lrn.Achievements)
	for _, def := range unlocked {
		lrn.GrantAchievement(def.ID)
		achApplied, err := lrn.ApplyXP(def.XPReward, now)
		if err != nil {
			return nil, nil, fmt.Errorf("submit_quiz: achievement xp: %w", err)
		}
		record(achApplied, learner.XPSourceAchievement, def.ID)
		events = append(events, learner.NewAchievementUnlockedEvent(lrn, def))
	}

	if lrn.Rank != oldRank {
		events = append(events, learner.NewRankChangedEvent(lrn, oldRank, lrn.Rank))
	}

	return &SubmitQuizResult{
		Breakdown: breakdown,
		TotalXP:   lrn.XP,
		Rank:      lrn.Rank,
		RankedUp:  lrn.Rank != oldRank,
		OldRank:   oldRank,
		NewRank:   lrn.Rank,
		Streak:    advance,
		Unlocked:  unlocked,
		Events:    events,
	}, history, nil
}

// handleGuest computes the XP breakdown without touching any store.
func (h *SubmitQuizHandler) handleGuest(cmd SubmitQuizCommand, quizResult learner.QuizResult) *SubmitQuizResult {
	breakdown := learner.CalculateQuizXP(quizResult, cmd.GuestStreak)
	rank := learner.RankFor(breakdown.Total)

	return &SubmitQuizResult{
		Guest:     true,
		Breakdown: breakdown,
		TotalXP:   breakdown.Total,
		Rank:      rank,
		OldRank:   rank,
		NewRank:   rank,
	}
}
