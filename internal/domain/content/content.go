// Package content содержит доменную модель учебного контента: модули,
// уроки, вопросы, уровни и определения достижений. Контент создаётся
// внешними инструментами и внутри движка только читается.
package content

import (
	"strings"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// ModuleID представляет уникальный идентификатор модуля.
type ModuleID string

// IsValid проверяет, что идентификатор непустой.
func (id ModuleID) IsValid() bool {
	return strings.TrimSpace(string(id)) != ""
}

// String возвращает строковое представление идентификатора.
func (id ModuleID) String() string {
	return string(id)
}

// LessonID представляет уникальный идентификатор урока.
type LessonID string

// IsValid проверяет, что идентификатор непустой.
func (id LessonID) IsValid() bool {
	return strings.TrimSpace(string(id)) != ""
}

// String возвращает строковое представление идентификатора.
func (id LessonID) String() string {
	return string(id)
}

// QuestionID представляет уникальный идентификатор вопроса.
type QuestionID string

// IsValid проверяет, что идентификатор непустой.
func (id QuestionID) IsValid() bool {
	return strings.TrimSpace(string(id)) != ""
}

// String возвращает строковое представление идентификатора.
func (id QuestionID) String() string {
	return string(id)
}

// Difficulty представляет сложность вопроса.
type Difficulty string

const (
	// DifficultyEasy - лёгкий вопрос.
	DifficultyEasy Difficulty = "easy"
	// DifficultyMedium - вопрос средней сложности.
	DifficultyMedium Difficulty = "medium"
	// DifficultyHard - сложный вопрос.
	DifficultyHard Difficulty = "hard"
)

// IsValid проверяет корректность значения сложности.
func (d Difficulty) IsValid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// DefaultBaseXP возвращает базовое количество XP для сложности.
func (d Difficulty) DefaultBaseXP() int {
	switch d {
	case DifficultyEasy:
		return 10
	case DifficultyMedium:
		return 20
	case DifficultyHard:
		return 40
	default:
		return 0
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// ENTITIES
// ══════════════════════════════════════════════════════════════════════════════

// Module представляет учебный модуль - упорядоченный набор уроков.
type Module struct {
	// ID - идентификатор модуля.
	ID ModuleID

	// Title - название модуля.
	Title string

	// Order - позиция модуля в курсе.
	Order int

	// Lessons - уроки модуля, отсортированные по Order.
	Lessons []Lesson
}

// LessonCount возвращает количество уроков в модуле.
func (m *Module) LessonCount() int {
	return len(m.Lessons)
}

// Lesson представляет урок внутри модуля.
type Lesson struct {
	// ID - идентификатор урока.
	ID LessonID

	// ModuleID - модуль, которому принадлежит урок.
	ModuleID ModuleID

	// Title - название урока.
	Title string

	// Order - позиция урока внутри модуля.
	Order int

	// XPReward - XP, начисляемые один раз при первом завершении урока.
	XPReward int

	// Questions - вопросы урока, отсортированные по Order.
	Questions []Question
}

// Question представляет вопрос внутри урока.
type Question struct {
	// ID - идентификатор вопроса.
	ID QuestionID

	// LessonID - урок, которому принадлежит вопрос.
	LessonID LessonID

	// Order - позиция вопроса внутри урока.
	Order int

	// Prompt - текст вопроса.
	Prompt string

	// CorrectAnswer - эталонный ответ.
	CorrectAnswer string

	// Difficulty - сложность вопроса.
	Difficulty Difficulty

	// BaseXP - XP за первый правильный ответ. Если при авторинге
	// не задано, берётся Difficulty.DefaultBaseXP().
	BaseXP int
}

// RewardXP возвращает XP, начисляемые за первый правильный ответ.
func (q *Question) RewardXP() int {
	if q.BaseXP > 0 {
		return q.BaseXP
	}
	return q.Difficulty.DefaultBaseXP()
}
