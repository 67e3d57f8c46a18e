package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/skillpath/progress-engine/internal/domain/content"
	"github.com/skillpath/progress-engine/internal/domain/learner"
	"github.com/skillpath/progress-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESS STORE IMPLEMENTATION
// Implements learner.Store over either the pool (reads) or a transaction
// (mutations inside the unit of work). The learner_progress row is locked
// FOR UPDATE inside transactions, which serializes all mutations of one
// learner's aggregate while leaving distinct learners fully parallel.
// ══════════════════════════════════════════════════════════════════════════════

// ProgressStore implements learner.Store for PostgreSQL.
type ProgressStore struct {
	q Querier
}

// NewProgressStore creates a pool-backed store for read paths.
func NewProgressStore(conn *Connection) *ProgressStore {
	return &ProgressStore{q: conn.Pool()}
}

// newTxProgressStore creates a transaction-backed store.
func newTxProgressStore(tx pgx.Tx) *ProgressStore {
	return &ProgressStore{q: tx}
}

// GetOrCreateProgress returns the learner's aggregate, lazily creating the
// empty row on first access. The row is locked for the remainder of the
// transaction.
func (s *ProgressStore) GetOrCreateProgress(ctx context.Context, id learner.LearnerID) (*learner.LearnerProgress, error) {
	now := time.Now().UTC()
	insert := `
		INSERT INTO learner_progress (learner_id, created_at, updated_at)
		VALUES ($1, $2, $2)
		ON CONFLICT (learner_id) DO NOTHING
	`
	if _, err := s.q.Exec(ctx, insert, string(id), now); err != nil {
		return nil, fmt.Errorf("failed to create learner progress: %w", err)
	}

	query := `
		SELECT learner_id, total_xp, current_level, streak_count,
		       lessons_completed, questions_correct, last_activity_at,
		       created_at, updated_at
		FROM learner_progress
		WHERE learner_id = $1
		FOR UPDATE
	`
	return s.scanProgress(s.q.QueryRow(ctx, query, string(id)))
}

// GetProgress returns the learner's aggregate without locking.
func (s *ProgressStore) GetProgress(ctx context.Context, id learner.LearnerID) (*learner.LearnerProgress, error) {
	query := `
		SELECT learner_id, total_xp, current_level, streak_count,
		       lessons_completed, questions_correct, last_activity_at,
		       created_at, updated_at
		FROM learner_progress
		WHERE learner_id = $1
	`
	p, err := s.scanProgress(s.q.QueryRow(ctx, query, string(id)))
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrProgressNotFound
		}
		return nil, err
	}
	return p, nil
}

// SaveProgress persists the aggregate.
func (s *ProgressStore) SaveProgress(ctx context.Context, p *learner.LearnerProgress) error {
	query := `
		UPDATE learner_progress SET
			total_xp = $1,
			current_level = $2,
			streak_count = $3,
			lessons_completed = $4,
			questions_correct = $5,
			last_activity_at = $6,
			updated_at = $7
		WHERE learner_id = $8
	`
	var lastActivity *time.Time
	if !p.LastActivityAt.IsZero() {
		lastActivity = &p.LastActivityAt
	}
	tag, err := s.q.Exec(ctx, query,
		int(p.TotalXP),
		p.LevelNumber,
		p.StreakCount,
		p.LessonsCompleted,
		p.QuestionsCorrect,
		lastActivity,
		p.UpdatedAt,
		string(p.LearnerID),
	)
	if err != nil {
		return fmt.Errorf("failed to save learner progress: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrProgressNotFound
	}
	return nil
}

// scanProgress scans a learner_progress row.
func (s *ProgressStore) scanProgress(row pgx.Row) (*learner.LearnerProgress, error) {
	var p learner.LearnerProgress
	var id string
	var totalXP int
	var lastActivity *time.Time

	err := row.Scan(&id, &totalXP, &p.LevelNumber, &p.StreakCount,
		&p.LessonsCompleted, &p.QuestionsCorrect, &lastActivity,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}

	p.LearnerID = learner.LearnerID(id)
	p.TotalXP = learner.XP(totalXP)
	if lastActivity != nil {
		p.LastActivityAt = *lastActivity
	}
	return &p, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Lesson progress
// ─────────────────────────────────────────────────────────────────────────────

// GetOrCreateLessonProgress returns the per-lesson record, lazily creating it.
func (s *ProgressStore) GetOrCreateLessonProgress(ctx context.Context, id learner.LearnerID, lessonID content.LessonID) (*learner.LessonProgress, error) {
	insert := `
		INSERT INTO learner_lesson_progress (learner_id, lesson_id)
		VALUES ($1, $2)
		ON CONFLICT (learner_id, lesson_id) DO NOTHING
	`
	if _, err := s.q.Exec(ctx, insert, string(id), string(lessonID)); err != nil {
		return nil, fmt.Errorf("failed to create lesson progress: %w", err)
	}

	query := `
		SELECT learner_id, lesson_id, completed, completed_at
		FROM learner_lesson_progress
		WHERE learner_id = $1 AND lesson_id = $2
	`
	var lp learner.LessonProgress
	var learnerID, lesson string
	err := s.q.QueryRow(ctx, query, string(id), string(lessonID)).
		Scan(&learnerID, &lesson, &lp.Completed, &lp.CompletedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to load lesson progress: %w", err)
	}
	lp.LearnerID = learner.LearnerID(learnerID)
	lp.LessonID = content.LessonID(lesson)
	return &lp, nil
}

// SaveLessonProgress persists the per-lesson record.
func (s *ProgressStore) SaveLessonProgress(ctx context.Context, lp *learner.LessonProgress) error {
	query := `
		UPDATE learner_lesson_progress SET
			completed = $1,
			completed_at = $2
		WHERE learner_id = $3 AND lesson_id = $4
	`
	_, err := s.q.Exec(ctx, query, lp.Completed, lp.CompletedAt, string(lp.LearnerID), string(lp.LessonID))
	if err != nil {
		return fmt.Errorf("failed to save lesson progress: %w", err)
	}
	return nil
}

// CountCompletedLessons counts a learner's completed lessons in a module.
func (s *ProgressStore) CountCompletedLessons(ctx context.Context, id learner.LearnerID, moduleID content.ModuleID) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM learner_lesson_progress llp
		JOIN lessons l ON l.id = llp.lesson_id
		WHERE llp.learner_id = $1 AND l.module_id = $2 AND llp.completed
	`
	var count int
	if err := s.q.QueryRow(ctx, query, string(id), string(moduleID)).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count completed lessons: %w", err)
	}
	return count, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Question progress
// ─────────────────────────────────────────────────────────────────────────────

// GetOrCreateQuestionProgress returns the per-question record, lazily creating it.
func (s *ProgressStore) GetOrCreateQuestionProgress(ctx context.Context, id learner.LearnerID, questionID content.QuestionID) (*learner.QuestionProgress, error) {
	insert := `
		INSERT INTO learner_question_progress (learner_id, question_id)
		VALUES ($1, $2)
		ON CONFLICT (learner_id, question_id) DO NOTHING
	`
	if _, err := s.q.Exec(ctx, insert, string(id), string(questionID)); err != nil {
		return nil, fmt.Errorf("failed to create question progress: %w", err)
	}

	query := `
		SELECT learner_id, question_id, best_correct, attempts, last_time_spent_seconds
		FROM learner_question_progress
		WHERE learner_id = $1 AND question_id = $2
	`
	var qp learner.QuestionProgress
	var learnerID, question string
	err := s.q.QueryRow(ctx, query, string(id), string(questionID)).
		Scan(&learnerID, &question, &qp.BestCorrect, &qp.Attempts, &qp.LastTimeSpentSeconds)
	if err != nil {
		return nil, fmt.Errorf("failed to load question progress: %w", err)
	}
	qp.LearnerID = learner.LearnerID(learnerID)
	qp.QuestionID = content.QuestionID(question)
	return &qp, nil
}

// SaveQuestionProgress persists the per-question record.
func (s *ProgressStore) SaveQuestionProgress(ctx context.Context, qp *learner.QuestionProgress) error {
	query := `
		UPDATE learner_question_progress SET
			best_correct = $1,
			attempts = $2,
			last_time_spent_seconds = $3
		WHERE learner_id = $4 AND question_id = $5
	`
	_, err := s.q.Exec(ctx, query, qp.BestCorrect, qp.Attempts, qp.LastTimeSpentSeconds,
		string(qp.LearnerID), string(qp.QuestionID))
	if err != nil {
		return fmt.Errorf("failed to save question progress: %w", err)
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Unlocked achievements
// ─────────────────────────────────────────────────────────────────────────────

// ListUnlockedAchievements returns the learner's unlocked achievements,
// ascending by achievement ID.
func (s *ProgressStore) ListUnlockedAchievements(ctx context.Context, id learner.LearnerID) ([]learner.UnlockedAchievement, error) {
	query := `
		SELECT learner_id, achievement_id, unlocked_at
		FROM learner_achievements
		WHERE learner_id = $1
		ORDER BY achievement_id ASC
	`
	rows, err := s.q.Query(ctx, query, string(id))
	if err != nil {
		return nil, fmt.Errorf("failed to list unlocked achievements: %w", err)
	}
	defer rows.Close()

	var out []learner.UnlockedAchievement
	for rows.Next() {
		var ua learner.UnlockedAchievement
		var learnerID, achievementID string
		if err := rows.Scan(&learnerID, &achievementID, &ua.UnlockedAt); err != nil {
			return nil, fmt.Errorf("failed to scan unlocked achievement: %w", err)
		}
		ua.LearnerID = learner.LearnerID(learnerID)
		ua.AchievementID = content.AchievementID(achievementID)
		out = append(out, ua)
	}
	return out, rows.Err()
}

// SaveUnlockedAchievement records an unlock. The primary key on
// (learner_id, achievement_id) keeps unlocking at-most-once per pair.
func (s *ProgressStore) SaveUnlockedAchievement(ctx context.Context, ua *learner.UnlockedAchievement) error {
	query := `
		INSERT INTO learner_achievements (learner_id, achievement_id, unlocked_at)
		VALUES ($1, $2, $3)
	`
	_, err := s.q.Exec(ctx, query, string(ua.LearnerID), string(ua.AchievementID), ua.UnlockedAt)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrAchievementUnlocked
		}
		return fmt.Errorf("failed to save unlocked achievement: %w", err)
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Streak maintenance
// ─────────────────────────────────────────────────────────────────────────────

// SweepStaleStreaks zeroes streaks for learners whose last activity was
// before the cutoff. Implements learner.StaleStreakSweeper.
func (s *ProgressStore) SweepStaleStreaks(ctx context.Context, cutoff time.Time) (int, error) {
	query := `
		UPDATE learner_progress SET
			streak_count = 0,
			updated_at = NOW()
		WHERE streak_count > 0
		  AND (last_activity_at IS NULL OR last_activity_at < $1)
	`
	tag, err := s.q.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to sweep stale streaks: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// ══════════════════════════════════════════════════════════════════════════════
// UNIT OF WORK
// ══════════════════════════════════════════════════════════════════════════════

// ProgressUnitOfWork implements learner.UnitOfWork over pgx transactions.
type ProgressUnitOfWork struct {
	conn *Connection
}

// NewProgressUnitOfWork creates a new unit of work.
func NewProgressUnitOfWork(conn *Connection) *ProgressUnitOfWork {
	return &ProgressUnitOfWork{conn: conn}
}

// Execute runs fn inside one transaction. Serialization failures and
// deadlocks surface as shared.ErrConflict so the caller can replay the
// whole operation.
func (u *ProgressUnitOfWork) Execute(ctx context.Context, id learner.LearnerID, fn func(ctx context.Context, store learner.Store) error) error {
	err := u.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		return fn(ctx, newTxProgressStore(tx))
	})
	if err != nil {
		if IsSerializationFailure(err) {
			return shared.WrapError("learner", "Execute", shared.ErrConflict, "transaction lost the race", err)
		}
		return err
	}
	return nil
}
