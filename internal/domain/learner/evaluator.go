package learner

import (
	"sort"
	"time"

	"github.com/skillpath/progress-engine/internal/domain/content"
)

// ══════════════════════════════════════════════════════════════════════════════
// ACHIEVEMENT EVALUATOR
// Проверяет условия достижений после каждой мутации прогресса.
// Бонусный XP от разблокировки может сам выполнить условие xp_threshold,
// поэтому оценка выполняется циклом до неподвижной точки, ограниченным
// двумя проходами: бонусы не каскадируют глубже одного дополнительного
// прохода, что гарантирует завершение и детерминированный порядок.
// ══════════════════════════════════════════════════════════════════════════════

// maxEvaluationPasses ограничивает цикл оценки достижений.
const maxEvaluationPasses = 2

// Unlock представляет только что разблокированное достижение.
type Unlock struct {
	// Achievement - определение разблокированного достижения.
	Achievement content.Achievement

	// UnlockedAt - когда разблокировано.
	UnlockedAt time.Time
}

// Evaluator оценивает условия достижений по снимку прогресса.
type Evaluator struct{}

// NewEvaluator создаёт оценщик достижений.
func NewEvaluator() *Evaluator {
	return &Evaluator{}
}

// Evaluate проверяет все ещё не разблокированные достижения против
// текущего состояния прогресса и возвращает новые разблокировки,
// отсортированные по возрастанию идентификатора достижения.
//
// Бонусный XP применяется к прогрессу сразу, с пересчётом уровня,
// поэтому вызывающий обязан выполнять Evaluate внутри той же транзакции,
// что и породившую мутацию.
func (e *Evaluator) Evaluate(
	defs []content.Achievement,
	progress *LearnerProgress,
	table *content.LevelTable,
	alreadyUnlocked map[content.AchievementID]bool,
	now time.Time,
) []Unlock {
	unlocked := make(map[content.AchievementID]bool, len(alreadyUnlocked))
	for id := range alreadyUnlocked {
		unlocked[id] = true
	}

	ordered := make([]content.Achievement, len(defs))
	copy(ordered, defs)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].ID < ordered[j].ID
	})

	var unlocks []Unlock
	for pass := 0; pass < maxEvaluationPasses; pass++ {
		bonusGranted := false

		for _, def := range ordered {
			if unlocked[def.ID] {
				continue
			}
			if !def.Condition.Satisfied(progress.Stats()) {
				continue
			}

			unlocked[def.ID] = true
			unlocks = append(unlocks, Unlock{
				Achievement: def,
				UnlockedAt:  now,
			})

			if def.XPBonus > 0 {
				progress.AddXP(XP(def.XPBonus))
				progress.RecomputeLevel(table)
				bonusGranted = true
			}
		}

		// Без новых бонусов второй проход ничего не изменит.
		if !bonusGranted {
			break
		}
	}

	sort.Slice(unlocks, func(i, j int) bool {
		return unlocks[i].Achievement.ID < unlocks[j].Achievement.ID
	})

	return unlocks
}
