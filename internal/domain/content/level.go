package content

import (
	"fmt"
	"math"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEVEL TABLE
// Статичная лестница уровней. Загружается из хранилища контента один раз
// и дальше только читается, поэтому блокировки не нужны.
// ══════════════════════════════════════════════════════════════════════════════

// Level представляет один уровень лестницы.
type Level struct {
	// Number - номер уровня, начиная с 1.
	Number int

	// Title - название уровня (опционально).
	Title string

	// MinXP - минимальное количество XP для достижения уровня.
	// Для первого уровня всегда 0.
	MinXP int
}

// LevelTable представляет упорядоченную лестницу уровней.
type LevelTable struct {
	levels []Level
}

// NewLevelTable создаёт и валидирует лестницу уровней.
// Инварианты: номера идут подряд начиная с 1, MinXP строго возрастает,
// MinXP первого уровня равен 0.
func NewLevelTable(levels []Level) (*LevelTable, error) {
	if len(levels) == 0 {
		return nil, fmt.Errorf("level table: at least one level is required")
	}
	if levels[0].Number != 1 || levels[0].MinXP != 0 {
		return nil, fmt.Errorf("level table: level 1 must start at 0 XP")
	}
	for i := 1; i < len(levels); i++ {
		if levels[i].Number != levels[i-1].Number+1 {
			return nil, fmt.Errorf("level table: level numbers must be contiguous, got %d after %d",
				levels[i].Number, levels[i-1].Number)
		}
		if levels[i].MinXP <= levels[i-1].MinXP {
			return nil, fmt.Errorf("level table: min XP must strictly increase, got %d after %d",
				levels[i].MinXP, levels[i-1].MinXP)
		}
	}
	table := make([]Level, len(levels))
	copy(table, levels)
	return &LevelTable{levels: table}, nil
}

// Len возвращает количество уровней.
func (t *LevelTable) Len() int {
	return len(t.levels)
}

// Levels возвращает копию всех уровней.
func (t *LevelTable) Levels() []Level {
	out := make([]Level, len(t.levels))
	copy(out, t.levels)
	return out
}

// LevelFor возвращает наивысший уровень, чей MinXP <= totalXP.
// Функция детерминирована и монотонна по totalXP.
func (t *LevelTable) LevelFor(totalXP int) Level {
	if totalXP < 0 {
		totalXP = 0
	}
	current := t.levels[0]
	for _, lvl := range t.levels[1:] {
		if lvl.MinXP > totalXP {
			break
		}
		current = lvl
	}
	return current
}

// NextLevel возвращает следующий уровень после текущего.
// Для последнего уровня возвращает false.
func (t *LevelTable) NextLevel(current Level) (Level, bool) {
	idx := current.Number // Number 1-based, следующий уровень по индексу Number
	if idx >= len(t.levels) {
		return Level{}, false
	}
	return t.levels[idx], true
}

// ProgressPercent возвращает процент прогресса к следующему уровню,
// округлённый до целого по правилу round-half-up. Для последнего
// уровня всегда 100. Деление на ноль исключено инвариантом строгого
// возрастания MinXP.
func (t *LevelTable) ProgressPercent(totalXP int) int {
	current := t.LevelFor(totalXP)
	next, ok := t.NextLevel(current)
	if !ok {
		return 100
	}
	pct := float64(totalXP-current.MinXP) / float64(next.MinXP-current.MinXP) * 100
	rounded := int(math.Floor(pct + 0.5))
	if rounded < 0 {
		return 0
	}
	if rounded > 100 {
		return 100
	}
	return rounded
}
