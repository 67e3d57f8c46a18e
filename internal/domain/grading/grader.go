// Package grading contains the answer grading logic. Grading is a pure
// function over a question and a submitted answer: it has no side effects,
// and the caller is responsible for recording attempt history and
// applying XP.
package grading

import (
	"strings"

	"github.com/skillpath/progress-engine/internal/domain/content"
	"github.com/skillpath/progress-engine/internal/domain/shared"
)

// Result is the outcome of grading a single submission.
type Result struct {
	// IsCorrect reports whether the submitted answer matches the
	// question's correct answer.
	IsCorrect bool

	// AwardedXP is the XP the question is worth when this is the
	// learner's first-ever correct answer. The caller zeroes it for
	// repeat-correct submissions.
	AwardedXP int
}

// Normalize prepares an answer for comparison: trims surrounding
// whitespace and lowercases. There is no partial-credit scoring.
func Normalize(answer string) string {
	return strings.ToLower(strings.TrimSpace(answer))
}

// Grade compares a submitted answer against the question's stored correct
// answer. Comparison is case-insensitive and whitespace-trimmed exact
// match. An answer that is empty after trimming is rejected with
// shared.ErrEmptyAnswer before any comparison.
func Grade(question *content.Question, submittedAnswer string) (Result, error) {
	normalized := Normalize(submittedAnswer)
	if normalized == "" {
		return Result{}, shared.ErrEmptyAnswer
	}

	if normalized != Normalize(question.CorrectAnswer) {
		return Result{IsCorrect: false, AwardedXP: 0}, nil
	}

	return Result{
		IsCorrect: true,
		AwardedXP: question.RewardXP(),
	}, nil
}
