// Package learner содержит доменную модель прогресса ученика: агрегат
// LearnerProgress, записи прогресса по урокам и вопросам и оценку
// достижений. Это ядро бизнес-логики движка - здесь нет внешних
// зависимостей кроме пакета content.
package learner

import (
	"strings"
	"time"

	"github.com/skillpath/progress-engine/internal/domain/content"
	"github.com/skillpath/progress-engine/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// LearnerID представляет уже аутентифицированный идентификатор ученика.
// Движок никогда не выполняет аутентификацию сам.
type LearnerID string

// IsValid проверяет, что LearnerID непустой.
func (id LearnerID) IsValid() bool {
	return strings.TrimSpace(string(id)) != ""
}

// String возвращает строковое представление идентификатора.
func (id LearnerID) String() string {
	return string(id)
}

// XP представляет очки опыта ученика.
type XP int

// IsValid проверяет, что XP неотрицательный.
func (x XP) IsValid() bool {
	return x >= 0
}

// Add складывает XP.
func (x XP) Add(delta XP) XP {
	return x + delta
}

// ══════════════════════════════════════════════════════════════════════════════
// LEARNER PROGRESS AGGREGATE
// Один агрегат на ученика. Создаётся лениво при первом обращении и
// мутируется только движком прогресса внутри одной транзакции.
// ══════════════════════════════════════════════════════════════════════════════

// LearnerProgress представляет агрегированный прогресс одного ученика.
type LearnerProgress struct {
	// LearnerID - идентификатор ученика.
	LearnerID LearnerID

	// TotalXP - суммарный XP. Монотонно неубывающий.
	TotalXP XP

	// LevelNumber - текущий уровень, производный от TotalXP.
	// Никогда не хранится рассинхронизированным с TotalXP.
	LevelNumber int

	// StreakCount - текущая серия дней активности.
	StreakCount int

	// LessonsCompleted - количество завершённых уроков.
	LessonsCompleted int

	// QuestionsCorrect - количество вопросов с правильным ответом.
	QuestionsCorrect int

	// LastActivityAt - время последней активности.
	LastActivityAt time.Time

	// CreatedAt - время создания записи.
	CreatedAt time.Time

	// UpdatedAt - время последнего обновления.
	UpdatedAt time.Time
}

// NewLearnerProgress создаёт пустой прогресс для нового ученика.
func NewLearnerProgress(id LearnerID, now time.Time) *LearnerProgress {
	return &LearnerProgress{
		LearnerID:   id,
		TotalXP:     0,
		LevelNumber: 1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// AddXP добавляет XP к суммарному. Отрицательные дельты игнорируются:
// XP монотонно неубывающий.
func (p *LearnerProgress) AddXP(delta XP) {
	if delta <= 0 {
		return
	}
	p.TotalXP = p.TotalXP.Add(delta)
}

// RecomputeLevel пересчитывает уровень по лестнице уровней.
// Возвращает true, если уровень повысился.
func (p *LearnerProgress) RecomputeLevel(table *content.LevelTable) bool {
	newLevel := table.LevelFor(int(p.TotalXP)).Number
	if newLevel > p.LevelNumber {
		p.LevelNumber = newLevel
		return true
	}
	return false
}

// TouchStreak обновляет серию дней по времени активности:
// тот же день по UTC - без изменений, предыдущий день - серия +1,
// иначе серия начинается заново с 1.
// Возвращает true, если значение серии изменилось.
func (p *LearnerProgress) TouchStreak(now time.Time) bool {
	old := p.StreakCount
	switch {
	case p.LastActivityAt.IsZero():
		p.StreakCount = 1
	case timeutil.SameDay(p.LastActivityAt, now):
		// Активность в тот же день серию не меняет.
	case timeutil.IsPreviousDay(p.LastActivityAt, now):
		p.StreakCount++
	default:
		p.StreakCount = 1
	}
	p.LastActivityAt = now
	return p.StreakCount != old
}

// Stats возвращает снимок прогресса для оценки условий достижений.
func (p *LearnerProgress) Stats() content.ProgressStats {
	return content.ProgressStats{
		TotalXP:          int(p.TotalXP),
		LevelNumber:      p.LevelNumber,
		LessonsCompleted: p.LessonsCompleted,
		QuestionsCorrect: p.QuestionsCorrect,
		StreakDays:       p.StreakCount,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// LESSON PROGRESS
// ══════════════════════════════════════════════════════════════════════════════

// LessonProgress представляет прогресс ученика по одному уроку.
// Пара (LearnerID, LessonID) уникальна.
type LessonProgress struct {
	// LearnerID - идентификатор ученика.
	LearnerID LearnerID

	// LessonID - идентификатор урока.
	LessonID content.LessonID

	// Completed - завершён ли урок. Переход только false -> true.
	Completed bool

	// CompletedAt - когда урок был завершён.
	CompletedAt *time.Time
}

// NewLessonProgress создаёт незавершённый прогресс по уроку.
func NewLessonProgress(learnerID LearnerID, lessonID content.LessonID) *LessonProgress {
	return &LessonProgress{
		LearnerID: learnerID,
		LessonID:  lessonID,
	}
}

// MarkCompleted отмечает урок завершённым. Возвращает false, если урок
// уже был завершён - повторное завершение идемпотентно.
func (lp *LessonProgress) MarkCompleted(now time.Time) bool {
	if lp.Completed {
		return false
	}
	lp.Completed = true
	lp.CompletedAt = &now
	return true
}

// ══════════════════════════════════════════════════════════════════════════════
// QUESTION PROGRESS
// ══════════════════════════════════════════════════════════════════════════════

// QuestionProgress представляет историю ответов ученика на один вопрос.
// Пара (LearnerID, QuestionID) уникальна.
type QuestionProgress struct {
	// LearnerID - идентификатор ученика.
	LearnerID LearnerID

	// QuestionID - идентификатор вопроса.
	QuestionID content.QuestionID

	// BestCorrect - отвечал ли ученик когда-либо правильно.
	BestCorrect bool

	// Attempts - количество попыток.
	Attempts int

	// LastTimeSpentSeconds - время последней попытки в секундах.
	LastTimeSpentSeconds int
}

// NewQuestionProgress создаёт пустую историю ответов на вопрос.
func NewQuestionProgress(learnerID LearnerID, questionID content.QuestionID) *QuestionProgress {
	return &QuestionProgress{
		LearnerID:  learnerID,
		QuestionID: questionID,
	}
}

// RecordAttempt фиксирует попытку ответа. Возвращает true только при
// переходе BestCorrect false -> true: XP за вопрос начисляется не более
// одного раза на пару (ученик, вопрос).
func (qp *QuestionProgress) RecordAttempt(correct bool, timeSpentSeconds int) bool {
	qp.Attempts++
	if timeSpentSeconds >= 0 {
		qp.LastTimeSpentSeconds = timeSpentSeconds
	}
	if correct && !qp.BestCorrect {
		qp.BestCorrect = true
		return true
	}
	return false
}

// ══════════════════════════════════════════════════════════════════════════════
// UNLOCKED ACHIEVEMENTS
// ══════════════════════════════════════════════════════════════════════════════

// UnlockedAchievement представляет разблокированное достижение ученика.
// Пара (LearnerID, AchievementID) уникальна; разблокировка монотонна
// и никогда не отзывается.
type UnlockedAchievement struct {
	// LearnerID - идентификатор ученика.
	LearnerID LearnerID

	// AchievementID - идентификатор достижения.
	AchievementID content.AchievementID

	// UnlockedAt - когда достижение разблокировано.
	UnlockedAt time.Time
}
