package content

import (
	"context"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACE
// Контракт для чтения учебного контента. Контент неизменяем во время
// работы движка, поэтому интерфейс содержит только операции чтения.
// Реализации находятся в infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Repository определяет операции чтения контента.
type Repository interface {
	// GetModule возвращает модуль вместе с его уроками.
	// Возвращает shared.ErrModuleNotFound, если модуль не найден.
	GetModule(ctx context.Context, id ModuleID) (*Module, error)

	// ListModules возвращает все модули, отсортированные по Order.
	ListModules(ctx context.Context) ([]Module, error)

	// GetLesson возвращает урок по идентификатору.
	// Возвращает shared.ErrLessonNotFound, если урок не найден.
	GetLesson(ctx context.Context, id LessonID) (*Lesson, error)

	// GetQuestion возвращает вопрос по идентификатору.
	// Возвращает shared.ErrQuestionNotFound, если вопрос не найден.
	GetQuestion(ctx context.Context, id QuestionID) (*Question, error)

	// LevelTable возвращает валидированную лестницу уровней.
	LevelTable(ctx context.Context) (*LevelTable, error)

	// ListAchievements возвращает все определения достижений,
	// отсортированные по возрастанию идентификатора.
	ListAchievements(ctx context.Context) ([]Achievement, error)
}
