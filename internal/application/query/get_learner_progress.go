// Package query contains read operations (CQRS - Queries).
package query

import (
	"context"
	"errors"
	"time"

	"github.com/skillpath/progress-engine/internal/domain/content"
	"github.com/skillpath/progress-engine/internal/domain/learner"
	"github.com/skillpath/progress-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET LEARNER PROGRESS QUERY
// Returns the learner's aggregate standing: total XP, current level,
// percent to the next level, streak, and unlocked achievements.
// ══════════════════════════════════════════════════════════════════════════════

// progressCacheTTL bounds staleness if an invalidation is ever missed.
const progressCacheTTL = 5 * time.Minute

// GetLearnerProgressQuery contains the query parameters.
type GetLearnerProgressQuery struct {
	// LearnerID is the learner to look up.
	LearnerID learner.LearnerID

	// IncludeAchievements includes unlocked achievement details.
	IncludeAchievements bool
}

// Validate checks the query parameters.
func (q *GetLearnerProgressQuery) Validate() error {
	if !q.LearnerID.IsValid() {
		return shared.ErrInvalidLearnerID
	}
	return nil
}

// AchievementDTO describes one unlocked achievement.
type AchievementDTO struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Emoji       string    `json:"emoji"`
	XPBonus     int       `json:"xp_bonus"`
	UnlockedAt  time.Time `json:"unlocked_at"`
}

// LearnerProgressDTO is the aggregate progress view.
type LearnerProgressDTO struct {
	LearnerID        string    `json:"learner_id"`
	TotalXP          int       `json:"total_xp"`
	LevelNumber      int       `json:"level_number"`
	LevelTitle       string    `json:"level_title,omitempty"`
	NextLevelMinXP   int       `json:"next_level_min_xp,omitempty"`
	PercentToNext    int       `json:"percent_to_next_level"`
	StreakCount      int       `json:"streak_count"`
	LessonsCompleted int       `json:"lessons_completed"`
	QuestionsCorrect int       `json:"questions_correct"`
	LastActivityAt   time.Time `json:"last_activity_at"`

	Achievements []AchievementDTO `json:"achievements,omitempty"`
}

// GetLearnerProgressHandler handles the GetLearnerProgressQuery.
type GetLearnerProgressHandler struct {
	store       learner.Store
	contentRepo content.Repository
	cache       learner.ProgressCache
}

// NewGetLearnerProgressHandler creates a new handler.
// The cache is optional; pass nil to read straight from the store.
func NewGetLearnerProgressHandler(store learner.Store, contentRepo content.Repository, cache learner.ProgressCache) *GetLearnerProgressHandler {
	return &GetLearnerProgressHandler{
		store:       store,
		contentRepo: contentRepo,
		cache:       cache,
	}
}

// Handle executes the query. A learner who has never interacted yet gets
// the lazily-created zero state rather than an error.
func (h *GetLearnerProgressHandler) Handle(ctx context.Context, q GetLearnerProgressQuery) (*LearnerProgressDTO, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	progress, err := h.loadProgress(ctx, q.LearnerID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			progress = learner.NewLearnerProgress(q.LearnerID, time.Now().UTC())
		} else {
			return nil, err
		}
	}

	table, err := h.contentRepo.LevelTable(ctx)
	if err != nil {
		return nil, err
	}

	current := table.LevelFor(int(progress.TotalXP))
	dto := &LearnerProgressDTO{
		LearnerID:        progress.LearnerID.String(),
		TotalXP:          int(progress.TotalXP),
		LevelNumber:      current.Number,
		LevelTitle:       current.Title,
		PercentToNext:    table.ProgressPercent(int(progress.TotalXP)),
		StreakCount:      progress.StreakCount,
		LessonsCompleted: progress.LessonsCompleted,
		QuestionsCorrect: progress.QuestionsCorrect,
		LastActivityAt:   progress.LastActivityAt,
	}
	if next, ok := table.NextLevel(current); ok {
		dto.NextLevelMinXP = next.MinXP
	}

	if q.IncludeAchievements {
		unlocked, err := h.store.ListUnlockedAchievements(ctx, q.LearnerID)
		if err != nil {
			return nil, err
		}
		defs, err := h.contentRepo.ListAchievements(ctx)
		if err != nil {
			return nil, err
		}
		byID := make(map[content.AchievementID]content.Achievement, len(defs))
		for _, def := range defs {
			byID[def.ID] = def
		}
		for _, ua := range unlocked {
			def, ok := byID[ua.AchievementID]
			if !ok {
				// Definition removed from content; keep the unlock visible.
				def = content.Achievement{ID: ua.AchievementID}
			}
			dto.Achievements = append(dto.Achievements, AchievementDTO{
				ID:          def.ID.String(),
				Name:        def.Name,
				Description: def.Description,
				Emoji:       def.Emoji,
				XPBonus:     def.XPBonus,
				UnlockedAt:  ua.UnlockedAt,
			})
		}
	}

	return dto, nil
}

// loadProgress reads the aggregate through the cache when one is wired.
// A cache failure is treated as a miss, not an error: the store is the
// source of truth.
func (h *GetLearnerProgressHandler) loadProgress(ctx context.Context, id learner.LearnerID) (*learner.LearnerProgress, error) {
	if h.cache != nil {
		if cached, err := h.cache.GetProgress(ctx, id); err == nil {
			return cached, nil
		}
	}

	progress, err := h.store.GetProgress(ctx, id)
	if err != nil {
		return nil, err
	}

	if h.cache != nil {
		_ = h.cache.SetProgress(ctx, progress, progressCacheTTL)
	}
	return progress, nil
}
