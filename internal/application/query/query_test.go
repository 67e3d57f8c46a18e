package query

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillpath/progress-engine/internal/domain/content"
	"github.com/skillpath/progress-engine/internal/domain/learner"
	"github.com/skillpath/progress-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// FAKES
// ══════════════════════════════════════════════════════════════════════════════

type stubStore struct {
	progress     map[learner.LearnerID]*learner.LearnerProgress
	unlocked     map[learner.LearnerID][]learner.UnlockedAchievement
	completed    map[learner.LearnerID]int
	getCalls     int
	listAchCalls int
}

func newStubStore() *stubStore {
	return &stubStore{
		progress:  make(map[learner.LearnerID]*learner.LearnerProgress),
		unlocked:  make(map[learner.LearnerID][]learner.UnlockedAchievement),
		completed: make(map[learner.LearnerID]int),
	}
}

func (s *stubStore) GetOrCreateProgress(ctx context.Context, id learner.LearnerID) (*learner.LearnerProgress, error) {
	return s.GetProgress(ctx, id)
}

func (s *stubStore) GetProgress(_ context.Context, id learner.LearnerID) (*learner.LearnerProgress, error) {
	s.getCalls++
	p, ok := s.progress[id]
	if !ok {
		return nil, shared.ErrProgressNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *stubStore) SaveProgress(_ context.Context, _ *learner.LearnerProgress) error { return nil }

func (s *stubStore) GetOrCreateLessonProgress(_ context.Context, id learner.LearnerID, lessonID content.LessonID) (*learner.LessonProgress, error) {
	return learner.NewLessonProgress(id, lessonID), nil
}

func (s *stubStore) SaveLessonProgress(_ context.Context, _ *learner.LessonProgress) error {
	return nil
}

func (s *stubStore) CountCompletedLessons(_ context.Context, id learner.LearnerID, _ content.ModuleID) (int, error) {
	return s.completed[id], nil
}

func (s *stubStore) GetOrCreateQuestionProgress(_ context.Context, id learner.LearnerID, questionID content.QuestionID) (*learner.QuestionProgress, error) {
	return learner.NewQuestionProgress(id, questionID), nil
}

func (s *stubStore) SaveQuestionProgress(_ context.Context, _ *learner.QuestionProgress) error {
	return nil
}

func (s *stubStore) ListUnlockedAchievements(_ context.Context, id learner.LearnerID) ([]learner.UnlockedAchievement, error) {
	s.listAchCalls++
	return s.unlocked[id], nil
}

func (s *stubStore) SaveUnlockedAchievement(_ context.Context, _ *learner.UnlockedAchievement) error {
	return nil
}

type stubContentRepo struct {
	modules      map[content.ModuleID]*content.Module
	levels       []content.Level
	achievements []content.Achievement
}

func newStubContentRepo() *stubContentRepo {
	return &stubContentRepo{
		modules: make(map[content.ModuleID]*content.Module),
		levels: []content.Level{
			{Number: 1, Title: "Новичок", MinXP: 0},
			{Number: 2, Title: "Ученик", MinXP: 100},
			{Number: 3, Title: "Практик", MinXP: 250},
		},
	}
}

func (r *stubContentRepo) GetModule(_ context.Context, id content.ModuleID) (*content.Module, error) {
	m, ok := r.modules[id]
	if !ok {
		return nil, shared.ErrModuleNotFound
	}
	return m, nil
}

func (r *stubContentRepo) ListModules(_ context.Context) ([]content.Module, error) {
	return nil, nil
}

func (r *stubContentRepo) GetLesson(_ context.Context, _ content.LessonID) (*content.Lesson, error) {
	return nil, shared.ErrLessonNotFound
}

func (r *stubContentRepo) GetQuestion(_ context.Context, _ content.QuestionID) (*content.Question, error) {
	return nil, shared.ErrQuestionNotFound
}

func (r *stubContentRepo) LevelTable(_ context.Context) (*content.LevelTable, error) {
	return content.NewLevelTable(r.levels)
}

func (r *stubContentRepo) ListAchievements(_ context.Context) ([]content.Achievement, error) {
	return r.achievements, nil
}

// memoryCache is a map-backed learner.ProgressCache.
type memoryCache struct {
	entries map[learner.LearnerID]*learner.LearnerProgress
	hits    int
	sets    int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[learner.LearnerID]*learner.LearnerProgress)}
}

func (c *memoryCache) GetProgress(_ context.Context, id learner.LearnerID) (*learner.LearnerProgress, error) {
	p, ok := c.entries[id]
	if !ok {
		return nil, shared.ErrProgressNotFound
	}
	c.hits++
	cp := *p
	return &cp, nil
}

func (c *memoryCache) SetProgress(_ context.Context, p *learner.LearnerProgress, _ time.Duration) error {
	c.sets++
	cp := *p
	c.entries[p.LearnerID] = &cp
	return nil
}

func (c *memoryCache) Invalidate(_ context.Context, id learner.LearnerID) error {
	delete(c.entries, id)
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// GET LEARNER PROGRESS
// ══════════════════════════════════════════════════════════════════════════════

func TestGetLearnerProgressHandler_ExistingLearner(t *testing.T) {
	store := newStubStore()
	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	p := learner.NewLearnerProgress("learner-1", now)
	p.AddXP(175)
	p.LevelNumber = 2
	p.StreakCount = 3
	p.LessonsCompleted = 4
	p.QuestionsCorrect = 9
	p.LastActivityAt = now
	store.progress["learner-1"] = p

	handler := NewGetLearnerProgressHandler(store, newStubContentRepo(), nil)

	dto, err := handler.Handle(context.Background(), GetLearnerProgressQuery{LearnerID: "learner-1"})
	require.NoError(t, err)

	assert.Equal(t, "learner-1", dto.LearnerID)
	assert.Equal(t, 175, dto.TotalXP)
	assert.Equal(t, 2, dto.LevelNumber)
	assert.Equal(t, "Ученик", dto.LevelTitle)
	assert.Equal(t, 250, dto.NextLevelMinXP)
	assert.Equal(t, 50, dto.PercentToNext) // (175-100)/(250-100)
	assert.Equal(t, 3, dto.StreakCount)
	assert.Equal(t, 4, dto.LessonsCompleted)
	assert.Empty(t, dto.Achievements)
}

func TestGetLearnerProgressHandler_UnknownLearnerGetsZeroState(t *testing.T) {
	handler := NewGetLearnerProgressHandler(newStubStore(), newStubContentRepo(), nil)

	dto, err := handler.Handle(context.Background(), GetLearnerProgressQuery{LearnerID: "stranger"})
	require.NoError(t, err)

	assert.Equal(t, 0, dto.TotalXP)
	assert.Equal(t, 1, dto.LevelNumber)
	assert.Equal(t, 0, dto.PercentToNext)
	assert.Equal(t, 0, dto.StreakCount)
}

func TestGetLearnerProgressHandler_IncludeAchievements(t *testing.T) {
	store := newStubStore()
	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	store.progress["learner-1"] = learner.NewLearnerProgress("learner-1", now)
	store.unlocked["learner-1"] = []learner.UnlockedAchievement{
		{LearnerID: "learner-1", AchievementID: "century", UnlockedAt: now},
	}

	repo := newStubContentRepo()
	repo.achievements = []content.Achievement{
		{ID: "century", Name: "Первая сотня", Emoji: "💯", XPBonus: 10},
	}

	handler := NewGetLearnerProgressHandler(store, repo, nil)

	dto, err := handler.Handle(context.Background(), GetLearnerProgressQuery{
		LearnerID:           "learner-1",
		IncludeAchievements: true,
	})
	require.NoError(t, err)

	require.Len(t, dto.Achievements, 1)
	assert.Equal(t, "century", dto.Achievements[0].ID)
	assert.Equal(t, "Первая сотня", dto.Achievements[0].Name)
	assert.Equal(t, 10, dto.Achievements[0].XPBonus)
	assert.Equal(t, now, dto.Achievements[0].UnlockedAt)
}

func TestGetLearnerProgressHandler_OrphanUnlockKeptVisible(t *testing.T) {
	store := newStubStore()
	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	store.progress["learner-1"] = learner.NewLearnerProgress("learner-1", now)
	store.unlocked["learner-1"] = []learner.UnlockedAchievement{
		{LearnerID: "learner-1", AchievementID: "retired-badge", UnlockedAt: now},
	}

	handler := NewGetLearnerProgressHandler(store, newStubContentRepo(), nil)

	dto, err := handler.Handle(context.Background(), GetLearnerProgressQuery{
		LearnerID:           "learner-1",
		IncludeAchievements: true,
	})
	require.NoError(t, err)

	require.Len(t, dto.Achievements, 1)
	assert.Equal(t, "retired-badge", dto.Achievements[0].ID)
	assert.Empty(t, dto.Achievements[0].Name)
}

func TestGetLearnerProgressHandler_CacheReadThrough(t *testing.T) {
	store := newStubStore()
	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	p := learner.NewLearnerProgress("learner-1", now)
	p.AddXP(50)
	store.progress["learner-1"] = p

	cache := newMemoryCache()
	handler := NewGetLearnerProgressHandler(store, newStubContentRepo(), cache)
	q := GetLearnerProgressQuery{LearnerID: "learner-1"}

	// First read misses the cache and back-fills it.
	_, err := handler.Handle(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, 1, store.getCalls)
	assert.Equal(t, 1, cache.sets)

	// Second read is served from the cache.
	dto, err := handler.Handle(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, 1, store.getCalls)
	assert.Equal(t, 1, cache.hits)
	assert.Equal(t, 50, dto.TotalXP)
}

func TestGetLearnerProgressHandler_InvalidID(t *testing.T) {
	handler := NewGetLearnerProgressHandler(newStubStore(), newStubContentRepo(), nil)

	_, err := handler.Handle(context.Background(), GetLearnerProgressQuery{LearnerID: "  "})
	assert.ErrorIs(t, err, shared.ErrInvalidLearnerID)
}

// ══════════════════════════════════════════════════════════════════════════════
// GET MODULE PROGRESS
// ══════════════════════════════════════════════════════════════════════════════

func TestGetModuleProgressHandler_Percentage(t *testing.T) {
	store := newStubStore()
	store.completed["learner-1"] = 2

	repo := newStubContentRepo()
	repo.modules["module-1"] = &content.Module{
		ID:    "module-1",
		Title: "Основы Go",
		Lessons: []content.Lesson{
			{ID: "l1"}, {ID: "l2"}, {ID: "l3"},
		},
	}

	handler := NewGetModuleProgressHandler(store, repo)

	dto, err := handler.Handle(context.Background(), GetModuleProgressQuery{
		LearnerID: "learner-1",
		ModuleID:  "module-1",
	})
	require.NoError(t, err)

	assert.Equal(t, "module-1", dto.ModuleID)
	assert.Equal(t, 3, dto.TotalLessons)
	assert.Equal(t, 2, dto.CompletedLessons)
	assert.Equal(t, 67, dto.PercentComplete) // 66.67 округляется вверх
}

func TestGetModuleProgressHandler_EmptyModule(t *testing.T) {
	repo := newStubContentRepo()
	repo.modules["module-1"] = &content.Module{ID: "module-1", Title: "Пустой"}

	handler := NewGetModuleProgressHandler(newStubStore(), repo)

	dto, err := handler.Handle(context.Background(), GetModuleProgressQuery{
		LearnerID: "learner-1",
		ModuleID:  "module-1",
	})
	require.NoError(t, err)

	assert.Equal(t, 0, dto.TotalLessons)
	assert.Equal(t, 0, dto.PercentComplete)
}

func TestGetModuleProgressHandler_UnknownModule(t *testing.T) {
	handler := NewGetModuleProgressHandler(newStubStore(), newStubContentRepo())

	_, err := handler.Handle(context.Background(), GetModuleProgressQuery{
		LearnerID: "learner-1",
		ModuleID:  "missing",
	})
	assert.ErrorIs(t, err, shared.ErrModuleNotFound)
}
