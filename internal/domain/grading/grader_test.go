package grading

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillpath/progress-engine/internal/domain/content"
	"github.com/skillpath/progress-engine/internal/domain/shared"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "goroutine", Normalize("  Goroutine  "))
	assert.Equal(t, "42", Normalize("42"))
	assert.Equal(t, "", Normalize("   "))
}

func TestGrade_CorrectAnswer(t *testing.T) {
	question := &content.Question{
		ID:            "q1",
		CorrectAnswer: "Goroutine",
		Difficulty:    content.DifficultyEasy,
		BaseXP:        25,
	}

	result, err := Grade(question, "goroutine")
	require.NoError(t, err)
	assert.True(t, result.IsCorrect)
	assert.Equal(t, 25, result.AwardedXP)
}

func TestGrade_CaseAndWhitespaceInsensitive(t *testing.T) {
	question := &content.Question{
		ID:            "q1",
		CorrectAnswer: "channel",
		Difficulty:    content.DifficultyMedium,
	}

	for _, answer := range []string{"channel", "CHANNEL", "  Channel  ", "ChAnNeL"} {
		result, err := Grade(question, answer)
		require.NoError(t, err)
		assert.True(t, result.IsCorrect, "answer=%q", answer)
	}
}

func TestGrade_IncorrectAnswer(t *testing.T) {
	question := &content.Question{
		ID:            "q1",
		CorrectAnswer: "channel",
		Difficulty:    content.DifficultyMedium,
	}

	result, err := Grade(question, "mutex")
	require.NoError(t, err)
	assert.False(t, result.IsCorrect)
	assert.Equal(t, 0, result.AwardedXP)
}

func TestGrade_EmptyAnswerRejected(t *testing.T) {
	question := &content.Question{ID: "q1", CorrectAnswer: "channel"}

	for _, answer := range []string{"", "   ", "\t\n"} {
		_, err := Grade(question, answer)
		assert.ErrorIs(t, err, shared.ErrEmptyAnswer, "answer=%q", answer)
	}
}

func TestGrade_DefaultXPByDifficulty(t *testing.T) {
	tests := []struct {
		difficulty content.Difficulty
		wantXP     int
	}{
		{content.DifficultyEasy, 10},
		{content.DifficultyMedium, 20},
		{content.DifficultyHard, 40},
	}

	for _, tt := range tests {
		question := &content.Question{
			ID:            "q1",
			CorrectAnswer: "yes",
			Difficulty:    tt.difficulty,
		}
		result, err := Grade(question, "yes")
		require.NoError(t, err)
		assert.Equal(t, tt.wantXP, result.AwardedXP, "difficulty=%s", tt.difficulty)
	}
}
