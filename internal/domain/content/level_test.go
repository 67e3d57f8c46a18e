package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLevels() []Level {
	return []Level{
		{Number: 1, Title: "Новичок", MinXP: 0},
		{Number: 2, Title: "Ученик", MinXP: 100},
		{Number: 3, Title: "Практик", MinXP: 250},
		{Number: 4, Title: "Мастер", MinXP: 500},
	}
}

func TestNewLevelTable_Valid(t *testing.T) {
	table, err := NewLevelTable(testLevels())
	require.NoError(t, err)
	assert.Equal(t, 4, table.Len())
}

func TestNewLevelTable_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		levels []Level
	}{
		{"empty", nil},
		{"first level not 1", []Level{{Number: 2, MinXP: 0}}},
		{"first level min XP not 0", []Level{{Number: 1, MinXP: 50}}},
		{"gap in numbers", []Level{
			{Number: 1, MinXP: 0},
			{Number: 3, MinXP: 100},
		}},
		{"min XP not increasing", []Level{
			{Number: 1, MinXP: 0},
			{Number: 2, MinXP: 100},
			{Number: 3, MinXP: 100},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLevelTable(tt.levels)
			assert.Error(t, err)
		})
	}
}

func TestLevelTable_LevelFor(t *testing.T) {
	table, err := NewLevelTable(testLevels())
	require.NoError(t, err)

	tests := []struct {
		totalXP int
		want    int
	}{
		{0, 1},
		{99, 1},
		{100, 2}, // граница включительно
		{105, 2},
		{249, 2},
		{250, 3},
		{500, 4},
		{10000, 4},
		{-5, 1},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, table.LevelFor(tt.totalXP).Number, "totalXP=%d", tt.totalXP)
	}
}

func TestLevelTable_NextLevel(t *testing.T) {
	table, err := NewLevelTable(testLevels())
	require.NoError(t, err)

	next, ok := table.NextLevel(table.LevelFor(0))
	require.True(t, ok)
	assert.Equal(t, 2, next.Number)

	_, ok = table.NextLevel(table.LevelFor(500))
	assert.False(t, ok)
}

func TestLevelTable_ProgressPercent(t *testing.T) {
	table, err := NewLevelTable(testLevels())
	require.NoError(t, err)

	tests := []struct {
		totalXP int
		want    int
	}{
		{0, 0},
		{50, 50},   // 50/100
		{99, 99},   // 99/100
		{100, 0},   // только что достигнут уровень 2
		{175, 50},  // (175-100)/(250-100)
		{101, 1},   // 0.67% округляется вверх до 1
		{500, 100}, // последний уровень всегда 100
		{9999, 100},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, table.ProgressPercent(tt.totalXP), "totalXP=%d", tt.totalXP)
	}
}

func TestLevelTable_ProgressPercent_RoundHalfUp(t *testing.T) {
	// Шаг 0->200: 1 XP = 0.5%, round-half-up даёт 1%.
	table, err := NewLevelTable([]Level{
		{Number: 1, MinXP: 0},
		{Number: 2, MinXP: 200},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, table.ProgressPercent(1))
	assert.Equal(t, 2, table.ProgressPercent(3))
}

func TestLevelTable_LevelsReturnsCopy(t *testing.T) {
	table, err := NewLevelTable(testLevels())
	require.NoError(t, err)

	levels := table.Levels()
	levels[0].MinXP = 999

	assert.Equal(t, 0, table.Levels()[0].MinXP)
}
