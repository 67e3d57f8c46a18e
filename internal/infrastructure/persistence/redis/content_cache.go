package redis

import (
	"context"
	"errors"

	"github.com/skillpath/progress-engine/internal/domain/content"
)

// CachedContentRepository is a read-through cache over content.Repository.
// The catalog only changes on deploys, so entries live long and there is
// no invalidation path beyond TTL expiry and WarmUp.
type CachedContentRepository struct {
	inner content.Repository
	cache *Cache
}

// NewCachedContentRepository wraps a content repository with caching.
func NewCachedContentRepository(inner content.Repository, cache *Cache) *CachedContentRepository {
	return &CachedContentRepository{
		inner: inner,
		cache: cache,
	}
}

// GetModule returns a module, preferring the cache.
func (r *CachedContentRepository) GetModule(ctx context.Context, id content.ModuleID) (*content.Module, error) {
	key := ModuleKey(string(id))

	var cached content.Module
	if err := r.cache.Get(ctx, key, &cached); err == nil {
		return &cached, nil
	}

	m, err := r.inner.GetModule(ctx, id)
	if err != nil {
		return nil, err
	}
	// Cache write failures are not fatal for reads.
	_ = r.cache.Set(ctx, key, m, TTLContent)
	return m, nil
}

// ListModules returns all modules, preferring the cache.
func (r *CachedContentRepository) ListModules(ctx context.Context) ([]content.Module, error) {
	key := ModuleListKey()

	var cached []content.Module
	if err := r.cache.Get(ctx, key, &cached); err == nil {
		return cached, nil
	}

	modules, err := r.inner.ListModules(ctx)
	if err != nil {
		return nil, err
	}
	_ = r.cache.Set(ctx, key, modules, TTLContent)
	return modules, nil
}

// GetLesson returns a lesson, preferring the cache.
func (r *CachedContentRepository) GetLesson(ctx context.Context, id content.LessonID) (*content.Lesson, error) {
	key := LessonKey(string(id))

	var cached content.Lesson
	if err := r.cache.Get(ctx, key, &cached); err == nil {
		return &cached, nil
	}

	l, err := r.inner.GetLesson(ctx, id)
	if err != nil {
		return nil, err
	}
	_ = r.cache.Set(ctx, key, l, TTLContent)
	return l, nil
}

// GetQuestion returns a question, preferring the cache.
func (r *CachedContentRepository) GetQuestion(ctx context.Context, id content.QuestionID) (*content.Question, error) {
	key := QuestionKey(string(id))

	var cached content.Question
	if err := r.cache.Get(ctx, key, &cached); err == nil {
		return &cached, nil
	}

	q, err := r.inner.GetQuestion(ctx, id)
	if err != nil {
		return nil, err
	}
	_ = r.cache.Set(ctx, key, q, TTLContent)
	return q, nil
}

// LevelTable returns the validated level ladder, preferring the cache.
// Only the raw levels are cached; the table is re-validated on every
// rebuild so a corrupt cache entry cannot bypass validation.
func (r *CachedContentRepository) LevelTable(ctx context.Context) (*content.LevelTable, error) {
	key := LevelTableKey()

	var cached []content.Level
	if err := r.cache.Get(ctx, key, &cached); err == nil {
		if table, err := content.NewLevelTable(cached); err == nil {
			return table, nil
		}
		// Corrupt entry: drop it and fall through to the source.
		_ = r.cache.Delete(ctx, key)
	}

	table, err := r.inner.LevelTable(ctx)
	if err != nil {
		return nil, err
	}
	_ = r.cache.Set(ctx, key, table.Levels(), TTLLevelTable)
	return table, nil
}

// ListAchievements returns achievement definitions, preferring the cache.
func (r *CachedContentRepository) ListAchievements(ctx context.Context) ([]content.Achievement, error) {
	key := AchievementsKey()

	var cached []content.Achievement
	if err := r.cache.Get(ctx, key, &cached); err == nil {
		return cached, nil
	}

	defs, err := r.inner.ListAchievements(ctx)
	if err != nil {
		return nil, err
	}
	_ = r.cache.Set(ctx, key, defs, TTLAchievements)
	return defs, nil
}

// WarmUp pre-populates the catalog-wide entries. Called by the worker's
// warm-up job on startup and on a fixed interval.
func (r *CachedContentRepository) WarmUp(ctx context.Context) error {
	var errs []error

	if _, err := r.LevelTable(ctx); err != nil {
		errs = append(errs, err)
	}
	if _, err := r.ListAchievements(ctx); err != nil {
		errs = append(errs, err)
	}
	if _, err := r.ListModules(ctx); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}
