package command

import (
	"context"
	"fmt"
	"time"

	"github.com/skillpath/progress-engine/internal/domain/content"
	"github.com/skillpath/progress-engine/internal/domain/grading"
	"github.com/skillpath/progress-engine/internal/domain/learner"
	"github.com/skillpath/progress-engine/internal/domain/shared"
	"github.com/skillpath/progress-engine/pkg/logger"
	"github.com/skillpath/progress-engine/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// SUBMIT ANSWER COMMAND
// Grades a submitted answer and awards the question's base XP exactly once
// per (learner, question) pair - on the transition to first correct answer.
// ══════════════════════════════════════════════════════════════════════════════

// SubmitAnswerCommand contains the data to submit an answer.
type SubmitAnswerCommand struct {
	// LearnerID is the already-authenticated learner identifier.
	LearnerID learner.LearnerID

	// QuestionID is the question being answered.
	QuestionID content.QuestionID

	// Answer is the submitted answer text.
	Answer string

	// TimeSpentSeconds is the elapsed time reported by the client.
	// Recorded as-is; fraud detection is out of scope here.
	TimeSpentSeconds int

	// Timestamp is when the submission occurred (defaults to now if zero).
	Timestamp time.Time
}

// Validate validates the command.
func (c SubmitAnswerCommand) Validate() error {
	if !c.LearnerID.IsValid() {
		return shared.ErrInvalidLearnerID
	}
	if !c.QuestionID.IsValid() {
		return shared.NewDomainError("learner", "SubmitAnswer", shared.ErrInvalidID, "question ID is required")
	}
	if grading.Normalize(c.Answer) == "" {
		return shared.ErrEmptyAnswer
	}
	if c.TimeSpentSeconds < 0 {
		return shared.ErrNegativeTimeSpent
	}
	return nil
}

// SubmitAnswerResult contains the result of submitting an answer.
type SubmitAnswerResult struct {
	// IsCorrect reports the grading verdict.
	IsCorrect bool

	// XPAwarded is the question's base XP on the first correct answer,
	// 0 on incorrect or repeat-correct submissions.
	XPAwarded int

	// AchievementXPBonus is additional XP granted by unlocked achievements.
	AchievementXPBonus int

	// TotalXP is the learner's total XP after the operation.
	TotalXP int

	// Attempts is the attempt count after this submission.
	Attempts int

	// LeveledUp indicates whether the level increased.
	LeveledUp bool

	// NewLevel is the level after the operation, set when LeveledUp.
	NewLevel *content.Level

	// UnlockedAchievements lists achievements newly unlocked by this
	// submission, ascending by achievement ID.
	UnlockedAchievements []content.Achievement

	// StreakCount is the learner's streak after the operation.
	StreakCount int
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// SubmitAnswerHandler handles the SubmitAnswerCommand.
type SubmitAnswerHandler struct {
	uow            learner.UnitOfWork
	contentRepo    content.Repository
	evaluator      *learner.Evaluator
	eventPublisher shared.EventPublisher
	retrier        *retry.Retrier
	log            *logger.Logger
}

// NewSubmitAnswerHandler creates a new SubmitAnswerHandler.
func NewSubmitAnswerHandler(
	uow learner.UnitOfWork,
	contentRepo content.Repository,
	eventPublisher shared.EventPublisher,
	log *logger.Logger,
) *SubmitAnswerHandler {
	if log == nil {
		log = logger.Default()
	}

	return &SubmitAnswerHandler{
		uow:            uow,
		contentRepo:    contentRepo,
		evaluator:      learner.NewEvaluator(),
		eventPublisher: eventPublisher,
		retrier:        retry.ConflictRetrier(),
		log:            log.With(logger.Component("submit_answer")),
	}
}

// Handle executes the submit answer command. The read-modify-write for one
// (learner, question) pair is atomic: two concurrent first-correct
// submissions cannot both award XP. Conflicts are retried a bounded number
// of times; the losing attempt then observes BestCorrect already set and
// returns the zero-award result.
func (h *SubmitAnswerHandler) Handle(ctx context.Context, cmd SubmitAnswerCommand) (*SubmitAnswerResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	now := cmd.Timestamp
	if now.IsZero() {
		now = time.Now().UTC()
	}

	question, err := h.contentRepo.GetQuestion(ctx, cmd.QuestionID)
	if err != nil {
		return nil, err
	}

	// Grading is pure: no side effects, attempt history is recorded below.
	verdict, err := grading.Grade(question, cmd.Answer)
	if err != nil {
		return nil, err
	}

	table, err := h.contentRepo.LevelTable(ctx)
	if err != nil {
		return nil, fmt.Errorf("submit_answer: failed to load level table: %w", err)
	}
	defs, err := h.contentRepo.ListAchievements(ctx)
	if err != nil {
		return nil, fmt.Errorf("submit_answer: failed to load achievements: %w", err)
	}

	var result *SubmitAnswerResult
	var events []shared.Event

	op := func(ctx context.Context) error {
		result = nil
		events = nil
		return h.uow.Execute(ctx, cmd.LearnerID, func(ctx context.Context, store learner.Store) error {
			progress, err := store.GetOrCreateProgress(ctx, cmd.LearnerID)
			if err != nil {
				return err
			}

			qp, err := store.GetOrCreateQuestionProgress(ctx, cmd.LearnerID, cmd.QuestionID)
			if err != nil {
				return err
			}

			firstCorrect := qp.RecordAttempt(verdict.IsCorrect, cmd.TimeSpentSeconds)
			if err := store.SaveQuestionProgress(ctx, qp); err != nil {
				return err
			}

			result = &SubmitAnswerResult{
				IsCorrect:   verdict.IsCorrect,
				Attempts:    qp.Attempts,
				TotalXP:     int(progress.TotalXP),
				StreakCount: progress.StreakCount,
			}

			if !firstCorrect {
				// Incorrect, or already answered correctly before:
				// attempt history recorded, XP untouched.
				events = append(events, shared.NewAnswerGradedEvent(
					cmd.LearnerID.String(), cmd.QuestionID.String(), verdict.IsCorrect, 0, qp.Attempts))
				return nil
			}

			oldStreak := progress.StreakCount
			oldLevel := progress.LevelNumber
			progress.AddXP(learner.XP(verdict.AwardedXP))
			progress.QuestionsCorrect++
			streakChanged := progress.TouchStreak(now)
			progress.RecomputeLevel(table)

			unlocks, bonus, err := applyAchievements(ctx, store, h.evaluator, defs, progress, table, now)
			if err != nil {
				return err
			}
			leveledUp := progress.LevelNumber > oldLevel

			progress.UpdatedAt = now
			if err := store.SaveProgress(ctx, progress); err != nil {
				return err
			}

			result.XPAwarded = verdict.AwardedXP
			result.AchievementXPBonus = bonus
			result.TotalXP = int(progress.TotalXP)
			result.LeveledUp = leveledUp
			result.UnlockedAchievements = achievementsOf(unlocks)
			result.StreakCount = progress.StreakCount
			if leveledUp {
				lvl := table.LevelFor(int(progress.TotalXP))
				result.NewLevel = &lvl
			}

			events = append(events, shared.NewAnswerGradedEvent(
				cmd.LearnerID.String(), cmd.QuestionID.String(), true, verdict.AwardedXP, qp.Attempts))
			events = append(events, shared.NewXPGainedEvent(
				cmd.LearnerID.String(), verdict.AwardedXP+bonus, int(progress.TotalXP),
				"first_correct_answer", cmd.QuestionID.String()))
			if leveledUp {
				events = append(events, shared.NewLevelUpEvent(
					cmd.LearnerID.String(), oldLevel, progress.LevelNumber, int(progress.TotalXP)))
			}
			if streakChanged {
				events = append(events, shared.NewStreakUpdatedEvent(
					cmd.LearnerID.String(), oldStreak, progress.StreakCount))
			}
			for _, u := range unlocks {
				events = append(events, shared.NewAchievementUnlockedEvent(
					cmd.LearnerID.String(), u.Achievement.ID.String(), u.Achievement.XPBonus))
			}

			return nil
		})
	}

	if err := h.retrier.Do(ctx, wrapConflicts(op)); err != nil {
		return nil, err
	}

	// Events are published only after the transaction has committed.
	// A failed publish never fails the already-committed command.
	for _, event := range events {
		if err := h.eventPublisher.Publish(event); err != nil {
			h.log.Warn("failed to publish domain event",
				logger.String("event_type", string(event.EventType())),
				logger.Err(err),
			)
		}
	}

	return result, nil
}
