package content

import (
	"strings"
)

// ══════════════════════════════════════════════════════════════════════════════
// ACHIEVEMENTS
// Определения достижений с закрытым набором типов условий. Условия
// вычисляются через таблицу диспетчеризации, а не произвольные предикаты,
// чтобы оценку можно было аудировать и тестировать.
// ══════════════════════════════════════════════════════════════════════════════

// AchievementID представляет уникальный идентификатор достижения.
type AchievementID string

// IsValid проверяет, что идентификатор непустой.
func (id AchievementID) IsValid() bool {
	return strings.TrimSpace(string(id)) != ""
}

// String возвращает строковое представление идентификатора.
func (id AchievementID) String() string {
	return string(id)
}

// ConditionType представляет тип условия разблокировки.
type ConditionType string

const (
	// ConditionXPThreshold - суммарный XP достиг порога.
	ConditionXPThreshold ConditionType = "xp_threshold"
	// ConditionLessonsCompleted - завершено N уроков.
	ConditionLessonsCompleted ConditionType = "lessons_completed"
	// ConditionQuestionsCorrect - правильно отвечено N вопросов.
	ConditionQuestionsCorrect ConditionType = "questions_correct"
	// ConditionStreakDays - серия активности достигла N дней.
	ConditionStreakDays ConditionType = "streak_days"
	// ConditionLevelReached - достигнут уровень N.
	ConditionLevelReached ConditionType = "level_reached"
)

// IsValid проверяет, что тип условия известен.
func (t ConditionType) IsValid() bool {
	_, ok := conditionPredicates[t]
	return ok
}

// Condition представляет условие разблокировки достижения.
type Condition struct {
	// Type - тип условия из закрытого набора.
	Type ConditionType

	// Threshold - порог, при достижении которого условие выполняется.
	Threshold int
}

// ProgressStats - снимок агрегированного прогресса ученика, по которому
// вычисляются условия. Заполняется слоем learner после каждой мутации.
type ProgressStats struct {
	TotalXP          int
	LevelNumber      int
	LessonsCompleted int
	QuestionsCorrect int
	StreakDays       int
}

// conditionPredicates - таблица диспетчеризации условий.
var conditionPredicates = map[ConditionType]func(stats ProgressStats, threshold int) bool{
	ConditionXPThreshold: func(s ProgressStats, n int) bool {
		return s.TotalXP >= n
	},
	ConditionLessonsCompleted: func(s ProgressStats, n int) bool {
		return s.LessonsCompleted >= n
	},
	ConditionQuestionsCorrect: func(s ProgressStats, n int) bool {
		return s.QuestionsCorrect >= n
	},
	ConditionStreakDays: func(s ProgressStats, n int) bool {
		return s.StreakDays >= n
	},
	ConditionLevelReached: func(s ProgressStats, n int) bool {
		return s.LevelNumber >= n
	},
}

// Satisfied вычисляет условие по снимку прогресса.
// Неизвестный тип условия никогда не выполняется.
func (c Condition) Satisfied(stats ProgressStats) bool {
	predicate, ok := conditionPredicates[c.Type]
	if !ok {
		return false
	}
	return predicate(stats, c.Threshold)
}

// Achievement представляет определение достижения.
type Achievement struct {
	// ID - идентификатор достижения.
	ID AchievementID

	// Name - название достижения.
	Name string

	// Description - описание для ученика.
	Description string

	// Emoji - эмодзи достижения.
	Emoji string

	// Condition - условие разблокировки.
	Condition Condition

	// XPBonus - дополнительные XP при разблокировке (0 - без бонуса).
	XPBonus int
}
