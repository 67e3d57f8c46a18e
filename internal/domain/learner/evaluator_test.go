package learner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillpath/progress-engine/internal/domain/content"
)

func TestEvaluator_Evaluate_NoConditionsMet(t *testing.T) {
	table := mustLevelTable(t)
	now := time.Now().UTC()
	p := NewLearnerProgress("learner-1", now)
	p.AddXP(50)

	defs := []content.Achievement{
		{ID: "century", Condition: content.Condition{Type: content.ConditionXPThreshold, Threshold: 100}},
	}

	unlocks := NewEvaluator().Evaluate(defs, p, table, nil, now)
	assert.Empty(t, unlocks)
}

func TestEvaluator_Evaluate_SortedByID(t *testing.T) {
	table := mustLevelTable(t)
	now := time.Now().UTC()
	p := NewLearnerProgress("learner-1", now)
	p.AddXP(150)
	p.LessonsCompleted = 3

	// Определения нарочно не по порядку.
	defs := []content.Achievement{
		{ID: "zeal", Condition: content.Condition{Type: content.ConditionLessonsCompleted, Threshold: 1}},
		{ID: "century", Condition: content.Condition{Type: content.ConditionXPThreshold, Threshold: 100}},
		{ID: "first-lesson", Condition: content.Condition{Type: content.ConditionLessonsCompleted, Threshold: 1}},
	}

	unlocks := NewEvaluator().Evaluate(defs, p, table, nil, now)
	require.Len(t, unlocks, 3)
	assert.Equal(t, content.AchievementID("century"), unlocks[0].Achievement.ID)
	assert.Equal(t, content.AchievementID("first-lesson"), unlocks[1].Achievement.ID)
	assert.Equal(t, content.AchievementID("zeal"), unlocks[2].Achievement.ID)
}

func TestEvaluator_Evaluate_AlreadyUnlockedSkipped(t *testing.T) {
	table := mustLevelTable(t)
	now := time.Now().UTC()
	p := NewLearnerProgress("learner-1", now)
	p.AddXP(150)

	defs := []content.Achievement{
		{ID: "century", Condition: content.Condition{Type: content.ConditionXPThreshold, Threshold: 100}},
	}
	already := map[content.AchievementID]bool{"century": true}

	unlocks := NewEvaluator().Evaluate(defs, p, table, already, now)
	assert.Empty(t, unlocks)
}

func TestEvaluator_Evaluate_BonusXPCascades(t *testing.T) {
	table := mustLevelTable(t)
	now := time.Now().UTC()
	p := NewLearnerProgress("learner-1", now)
	p.AddXP(90)
	p.RecomputeLevel(table)

	// "starter" выполняется сразу и даёт бонус 15 XP; итоговые 105 XP
	// выполняют условие "century" на втором проходе.
	defs := []content.Achievement{
		{ID: "starter", Condition: content.Condition{Type: content.ConditionXPThreshold, Threshold: 50}, XPBonus: 15},
		{ID: "century", Condition: content.Condition{Type: content.ConditionXPThreshold, Threshold: 100}},
	}

	unlocks := NewEvaluator().Evaluate(defs, p, table, nil, now)
	require.Len(t, unlocks, 2)
	assert.Equal(t, content.AchievementID("century"), unlocks[0].Achievement.ID)
	assert.Equal(t, content.AchievementID("starter"), unlocks[1].Achievement.ID)

	// Бонус применён и уровень пересчитан.
	assert.Equal(t, XP(105), p.TotalXP)
	assert.Equal(t, 2, p.LevelNumber)
}

func TestEvaluator_Evaluate_BoundedPasses(t *testing.T) {
	table := mustLevelTable(t)
	now := time.Now().UTC()
	p := NewLearnerProgress("learner-1", now)
	p.AddXP(40)

	// Цепочка бонусов длиннее двух проходов не каскадирует: "third"
	// стал бы достижим только на третьем проходе.
	defs := []content.Achievement{
		{ID: "a-first", Condition: content.Condition{Type: content.ConditionXPThreshold, Threshold: 40}, XPBonus: 10},
		{ID: "b-second", Condition: content.Condition{Type: content.ConditionXPThreshold, Threshold: 50}, XPBonus: 10},
		{ID: "c-third", Condition: content.Condition{Type: content.ConditionXPThreshold, Threshold: 70}, XPBonus: 10},
	}

	unlocks := NewEvaluator().Evaluate(defs, p, table, nil, now)
	require.Len(t, unlocks, 2)
	assert.Equal(t, content.AchievementID("a-first"), unlocks[0].Achievement.ID)
	assert.Equal(t, content.AchievementID("b-second"), unlocks[1].Achievement.ID)
	assert.Equal(t, XP(60), p.TotalXP)
}

func TestEvaluator_Evaluate_DoesNotMutateInput(t *testing.T) {
	table := mustLevelTable(t)
	now := time.Now().UTC()
	p := NewLearnerProgress("learner-1", now)
	p.AddXP(150)

	already := map[content.AchievementID]bool{}
	defs := []content.Achievement{
		{ID: "century", Condition: content.Condition{Type: content.ConditionXPThreshold, Threshold: 100}},
	}

	NewEvaluator().Evaluate(defs, p, table, already, now)
	assert.Empty(t, already)
}
