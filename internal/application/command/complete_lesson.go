// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/skillpath/progress-engine/internal/domain/content"
	"github.com/skillpath/progress-engine/internal/domain/learner"
	"github.com/skillpath/progress-engine/internal/domain/shared"
	"github.com/skillpath/progress-engine/pkg/logger"
	"github.com/skillpath/progress-engine/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// COMPLETE LESSON COMMAND
// First completion of a lesson awards its XP reward once, recomputes the
// level, and evaluates achievements. Replays are idempotent no-ops.
// ══════════════════════════════════════════════════════════════════════════════

// CompleteLessonCommand contains the data to complete a lesson.
type CompleteLessonCommand struct {
	// LearnerID is the already-authenticated learner identifier.
	LearnerID learner.LearnerID

	// LessonID is the lesson being completed.
	LessonID content.LessonID

	// Timestamp is when the completion occurred (defaults to now if zero).
	Timestamp time.Time
}

// Validate validates the command.
func (c CompleteLessonCommand) Validate() error {
	if !c.LearnerID.IsValid() {
		return shared.ErrInvalidLearnerID
	}
	if !c.LessonID.IsValid() {
		return shared.NewDomainError("learner", "CompleteLesson", shared.ErrInvalidID, "lesson ID is required")
	}
	return nil
}

// CompleteLessonResult contains the result of completing a lesson.
type CompleteLessonResult struct {
	// XPAwarded is the lesson's XP reward, 0 on idempotent replay.
	XPAwarded int

	// AchievementXPBonus is additional XP granted by unlocked achievements.
	AchievementXPBonus int

	// TotalXP is the learner's total XP after the operation.
	TotalXP int

	// LeveledUp indicates whether the level increased.
	LeveledUp bool

	// NewLevel is the level after the operation, set when LeveledUp.
	NewLevel *content.Level

	// UnlockedAchievements lists achievements newly unlocked by this
	// completion, ascending by achievement ID.
	UnlockedAchievements []content.Achievement

	// AlreadyCompleted indicates an idempotent replay.
	AlreadyCompleted bool

	// StreakCount is the learner's streak after the operation.
	StreakCount int
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// CompleteLessonHandler handles the CompleteLessonCommand.
type CompleteLessonHandler struct {
	uow            learner.UnitOfWork
	contentRepo    content.Repository
	evaluator      *learner.Evaluator
	eventPublisher shared.EventPublisher
	retrier        *retry.Retrier
	log            *logger.Logger
}

// NewCompleteLessonHandler creates a new CompleteLessonHandler.
func NewCompleteLessonHandler(
	uow learner.UnitOfWork,
	contentRepo content.Repository,
	eventPublisher shared.EventPublisher,
	log *logger.Logger,
) *CompleteLessonHandler {
	if log == nil {
		log = logger.Default()
	}

	return &CompleteLessonHandler{
		uow:            uow,
		contentRepo:    contentRepo,
		evaluator:      learner.NewEvaluator(),
		eventPublisher: eventPublisher,
		retrier:        retry.ConflictRetrier(),
		log:            log.With(logger.Component("complete_lesson")),
	}
}

// Handle executes the complete lesson command. The whole read-modify-write
// sequence runs in one transaction; serialization conflicts are retried a
// bounded number of times, after which the retry observes the applied
// state and returns the idempotent result.
func (h *CompleteLessonHandler) Handle(ctx context.Context, cmd CompleteLessonCommand) (*CompleteLessonResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	now := cmd.Timestamp
	if now.IsZero() {
		now = time.Now().UTC()
	}

	lesson, err := h.contentRepo.GetLesson(ctx, cmd.LessonID)
	if err != nil {
		return nil, err
	}

	// Content is immutable, so the level table and achievement
	// definitions can be read outside the transaction.
	table, err := h.contentRepo.LevelTable(ctx)
	if err != nil {
		return nil, fmt.Errorf("complete_lesson: failed to load level table: %w", err)
	}
	defs, err := h.contentRepo.ListAchievements(ctx)
	if err != nil {
		return nil, fmt.Errorf("complete_lesson: failed to load achievements: %w", err)
	}

	var result *CompleteLessonResult
	var events []shared.Event

	op := func(ctx context.Context) error {
		result = nil
		events = nil
		return h.uow.Execute(ctx, cmd.LearnerID, func(ctx context.Context, store learner.Store) error {
			progress, err := store.GetOrCreateProgress(ctx, cmd.LearnerID)
			if err != nil {
				return err
			}

			lp, err := store.GetOrCreateLessonProgress(ctx, cmd.LearnerID, cmd.LessonID)
			if err != nil {
				return err
			}

			if !lp.MarkCompleted(now) {
				// Idempotent replay: no XP, no level change, no achievements.
				result = &CompleteLessonResult{
					AlreadyCompleted: true,
					TotalXP:          int(progress.TotalXP),
					StreakCount:      progress.StreakCount,
				}
				return nil
			}

			if err := store.SaveLessonProgress(ctx, lp); err != nil {
				return err
			}

			oldStreak := progress.StreakCount
			oldLevel := progress.LevelNumber
			progress.AddXP(learner.XP(lesson.XPReward))
			progress.LessonsCompleted++
			streakChanged := progress.TouchStreak(now)
			progress.RecomputeLevel(table)

			// Achievement bonuses can push the level further; the
			// evaluator recomputes it after every bonus.
			unlocks, bonus, err := applyAchievements(ctx, store, h.evaluator, defs, progress, table, now)
			if err != nil {
				return err
			}
			leveledUp := progress.LevelNumber > oldLevel

			progress.UpdatedAt = now
			if err := store.SaveProgress(ctx, progress); err != nil {
				return err
			}

			result = &CompleteLessonResult{
				XPAwarded:            lesson.XPReward,
				AchievementXPBonus:   bonus,
				TotalXP:              int(progress.TotalXP),
				LeveledUp:            leveledUp,
				UnlockedAchievements: achievementsOf(unlocks),
				StreakCount:          progress.StreakCount,
			}
			if leveledUp {
				lvl := table.LevelFor(int(progress.TotalXP))
				result.NewLevel = &lvl
			}

			events = append(events, shared.NewLessonCompletedEvent(
				cmd.LearnerID.String(), cmd.LessonID.String(), lesson.ModuleID.String(), lesson.XPReward))
			events = append(events, shared.NewXPGainedEvent(
				cmd.LearnerID.String(), lesson.XPReward+bonus, int(progress.TotalXP),
				"lesson_completed", cmd.LessonID.String()))
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

// applyAchievements runs the evaluator and records every new unlock.
// A concurrent unlock of the same pair is tolerated: the row is unique
// per (learner, achievement) and unlocking is monotone.
func applyAchievements(
	ctx context.Context,
	store learner.Store,
	evaluator *learner.Evaluator,
	defs []content.Achievement,
	progress *learner.LearnerProgress,
	table *content.LevelTable,
	now time.Time,
) ([]learner.Unlock, int, error) {
	existing, err := store.ListUnlockedAchievements(ctx, progress.LearnerID)
	if err != nil {
		return nil, 0, err
	}
	already := make(map[content.AchievementID]bool, len(existing))
	for _, ua := range existing {
		already[ua.AchievementID] = true
	}

	unlocks := evaluator.Evaluate(defs, progress, table, already, now)

	bonus := 0
	for _, u := range unlocks {
		ua := &learner.UnlockedAchievement{
			LearnerID:     progress.LearnerID,
			AchievementID: u.Achievement.ID,
			UnlockedAt:    u.UnlockedAt,
		}
		if err := store.SaveUnlockedAchievement(ctx, ua); err != nil && !errors.Is(err, shared.ErrAlreadyExists) {
			return nil, 0, err
		}
		// The evaluator already added the bonus XP to the in-memory
		// progress, so it counts even when the row existed already.
		bonus += u.Achievement.XPBonus
	}

	return unlocks, bonus, nil
}

// achievementsOf extracts the achievement definitions from unlocks.
func achievementsOf(unlocks []learner.Unlock) []content.Achievement {
	if len(unlocks) == 0 {
		return nil
	}
	out := make([]content.Achievement, len(unlocks))
	for i, u := range unlocks {
		out[i] = u.Achievement
	}
	return out
}

// wrapConflicts marks serialization conflicts as retryable so the whole
// unit of work is replayed.
func wrapConflicts(op func(ctx context.Context) error) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		err := op(ctx)
		if err != nil && errors.Is(err, shared.ErrConflict) {
			return retry.Retryable(err)
		}
		return err
	}
}
