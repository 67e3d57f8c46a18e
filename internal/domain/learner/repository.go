package learner

import (
	"context"
	"time"

	"github.com/skillpath/progress-engine/internal/domain/content"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Эти интерфейсы определяют контракт для работы с хранилищем прогресса.
// Реализации находятся в infrastructure/persistence. Конкурентная
// безопасность обеспечивается транзакцией хранилища, а не блокировками
// на уровне языка.
// ══════════════════════════════════════════════════════════════════════════════

// Store определяет операции над агрегатом прогресса одного ученика.
// Внутри UnitOfWork.Execute все операции выполняются в одной транзакции.
type Store interface {
	// GetOrCreateProgress возвращает прогресс ученика, лениво создавая
	// пустую запись при первом обращении.
	GetOrCreateProgress(ctx context.Context, id LearnerID) (*LearnerProgress, error)

	// GetProgress возвращает прогресс ученика.
	// Возвращает shared.ErrProgressNotFound, если записи ещё нет.
	GetProgress(ctx context.Context, id LearnerID) (*LearnerProgress, error)

	// SaveProgress сохраняет агрегат прогресса.
	SaveProgress(ctx context.Context, p *LearnerProgress) error

	// GetOrCreateLessonProgress возвращает прогресс по уроку, лениво
	// создавая запись при первом обращении.
	GetOrCreateLessonProgress(ctx context.Context, id LearnerID, lessonID content.LessonID) (*LessonProgress, error)

	// SaveLessonProgress сохраняет прогресс по уроку.
	SaveLessonProgress(ctx context.Context, lp *LessonProgress) error

	// CountCompletedLessons возвращает число завершённых уроков ученика
	// в указанном модуле.
	CountCompletedLessons(ctx context.Context, id LearnerID, moduleID content.ModuleID) (int, error)

	// GetOrCreateQuestionProgress возвращает историю ответов на вопрос,
	// лениво создавая запись при первом обращении.
	GetOrCreateQuestionProgress(ctx context.Context, id LearnerID, questionID content.QuestionID) (*QuestionProgress, error)

	// SaveQuestionProgress сохраняет историю ответов на вопрос.
	SaveQuestionProgress(ctx context.Context, qp *QuestionProgress) error

	// ListUnlockedAchievements возвращает разблокированные достижения
	// ученика, отсортированные по возрастанию идентификатора.
	ListUnlockedAchievements(ctx context.Context, id LearnerID) ([]UnlockedAchievement, error)

	// SaveUnlockedAchievement записывает разблокировку достижения.
	// Возвращает shared.ErrAchievementUnlocked при повторной записи пары.
	SaveUnlockedAchievement(ctx context.Context, ua *UnlockedAchievement) error
}

// UnitOfWork сериализует все мутации агрегата одного ученика.
// Execute выполняет fn в одной транзакции: либо применяются все мутации,
// либо ни одна. Конкурентные вызовы для одного ученика выполняются
// последовательно; для разных учеников - параллельно.
// При конфликте сериализации возвращается shared.ErrConflict - вызывающий
// повторяет всю операцию целиком.
type UnitOfWork interface {
	Execute(ctx context.Context, id LearnerID, fn func(ctx context.Context, store Store) error) error
}

// StaleStreakSweeper сбрасывает серии учеников, пропустивших больше
// одного полного дня. Используется фоновым воркером.
type StaleStreakSweeper interface {
	// SweepStaleStreaks обнуляет StreakCount у всех учеников, чья
	// последняя активность была раньше cutoff. Возвращает число
	// затронутых записей.
	SweepStaleStreaks(ctx context.Context, cutoff time.Time) (int, error)
}
