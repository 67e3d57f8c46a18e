package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/skillpath/progress-engine/internal/domain/content"
	"github.com/skillpath/progress-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONTENT REPOSITORY IMPLEMENTATION
// Read-only access to the course catalog. Content does not change while
// the engine is running, so every method is a plain query and the hot
// paths sit behind the Redis cache.
// ══════════════════════════════════════════════════════════════════════════════

// ContentRepository implements content.Repository for PostgreSQL.
type ContentRepository struct {
	conn *Connection
}

// NewContentRepository creates a new content repository.
func NewContentRepository(conn *Connection) *ContentRepository {
	return &ContentRepository{conn: conn}
}

// GetModule returns a module with its lessons ordered by position.
func (r *ContentRepository) GetModule(ctx context.Context, id content.ModuleID) (*content.Module, error) {
	query := `
		SELECT id, title, position
		FROM modules
		WHERE id = $1
	`
	var m content.Module
	var moduleID string
	err := r.conn.QueryRow(ctx, query, string(id)).Scan(&moduleID, &m.Title, &m.Order)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrModuleNotFound
		}
		return nil, fmt.Errorf("failed to get module: %w", err)
	}
	m.ID = content.ModuleID(moduleID)

	lessons, err := r.listLessons(ctx, m.ID)
	if err != nil {
		return nil, err
	}
	m.Lessons = lessons
	return &m, nil
}

// ListModules returns all modules ordered by position, without lessons.
func (r *ContentRepository) ListModules(ctx context.Context) ([]content.Module, error) {
	query := `
		SELECT id, title, position
		FROM modules
		ORDER BY position ASC, id ASC
	`
	rows, err := r.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list modules: %w", err)
	}
	defer rows.Close()

	var out []content.Module
	for rows.Next() {
		var m content.Module
		var id string
		if err := rows.Scan(&id, &m.Title, &m.Order); err != nil {
			return nil, fmt.Errorf("failed to scan module: %w", err)
		}
		m.ID = content.ModuleID(id)
		out = append(out, m)
	}
	return out, rows.Err()
}

// listLessons returns a module's lessons ordered by position.
func (r *ContentRepository) listLessons(ctx context.Context, moduleID content.ModuleID) ([]content.Lesson, error) {
	query := `
		SELECT id, module_id, title, position, xp_reward
		FROM lessons
		WHERE module_id = $1
		ORDER BY position ASC, id ASC
	`
	rows, err := r.conn.Query(ctx, query, string(moduleID))
	if err != nil {
		return nil, fmt.Errorf("failed to list lessons: %w", err)
	}
	defer rows.Close()

	var out []content.Lesson
	for rows.Next() {
		l, err := scanLesson(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *l)
	}
	return out, rows.Err()
}

// GetLesson returns a lesson by ID, without its questions.
func (r *ContentRepository) GetLesson(ctx context.Context, id content.LessonID) (*content.Lesson, error) {
	query := `
		SELECT id, module_id, title, position, xp_reward
		FROM lessons
		WHERE id = $1
	`
	l, err := scanLesson(r.conn.QueryRow(ctx, query, string(id)))
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrLessonNotFound
		}
		return nil, fmt.Errorf("failed to get lesson: %w", err)
	}
	return l, nil
}

// GetQuestion returns a question by ID.
func (r *ContentRepository) GetQuestion(ctx context.Context, id content.QuestionID) (*content.Question, error) {
	query := `
		SELECT id, lesson_id, position, prompt, correct_answer, difficulty, base_xp
		FROM questions
		WHERE id = $1
	`
	var q content.Question
	var questionID, lessonID, difficulty string
	err := r.conn.QueryRow(ctx, query, string(id)).
		Scan(&questionID, &lessonID, &q.Order, &q.Prompt, &q.CorrectAnswer, &difficulty, &q.BaseXP)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrQuestionNotFound
		}
		return nil, fmt.Errorf("failed to get question: %w", err)
	}
	q.ID = content.QuestionID(questionID)
	q.LessonID = content.LessonID(lessonID)
	q.Difficulty = content.Difficulty(difficulty)
	return &q, nil
}

// LevelTable loads and validates the level ladder.
func (r *ContentRepository) LevelTable(ctx context.Context) (*content.LevelTable, error) {
	query := `
		SELECT number, title, min_xp
		FROM levels
		ORDER BY number ASC
	`
	rows, err := r.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to load levels: %w", err)
	}
	defer rows.Close()

	var levels []content.Level
	for rows.Next() {
		var lvl content.Level
		if err := rows.Scan(&lvl.Number, &lvl.Title, &lvl.MinXP); err != nil {
			return nil, fmt.Errorf("failed to scan level: %w", err)
		}
		levels = append(levels, lvl)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return content.NewLevelTable(levels)
}

// ListAchievements returns all achievement definitions ascending by ID.
func (r *ContentRepository) ListAchievements(ctx context.Context) ([]content.Achievement, error) {
	query := `
		SELECT id, name, description, emoji, condition_type, condition_threshold, xp_bonus
		FROM achievements
		ORDER BY id ASC
	`
	rows, err := r.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list achievements: %w", err)
	}
	defer rows.Close()

	var out []content.Achievement
	for rows.Next() {
		var a content.Achievement
		var id, condType string
		if err := rows.Scan(&id, &a.Name, &a.Description, &a.Emoji,
			&condType, &a.Condition.Threshold, &a.XPBonus); err != nil {
			return nil, fmt.Errorf("failed to scan achievement: %w", err)
		}
		a.ID = content.AchievementID(id)
		a.Condition.Type = content.ConditionType(condType)
		out = append(out, a)
	}
	return out, rows.Err()
}

// scanLesson scans a lessons row.
func scanLesson(row pgx.Row) (*content.Lesson, error) {
	var l content.Lesson
	var id, moduleID string
	if err := row.Scan(&id, &moduleID, &l.Title, &l.Order, &l.XPReward); err != nil {
		return nil, err
	}
	l.ID = content.LessonID(id)
	l.ModuleID = content.ModuleID(moduleID)
	return &l, nil
}
