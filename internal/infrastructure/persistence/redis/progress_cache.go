package redis

import (
	"context"
	"errors"
	"time"

	"github.com/skillpath/progress-engine/internal/domain/learner"
	"github.com/skillpath/progress-engine/internal/domain/shared"
)

// ProgressCache implements learner.ProgressCache using the generic Cache.
// Event handlers invalidate entries after every mutation, so a hit is
// always consistent with the last committed write on this instance.
type ProgressCache struct {
	cache *Cache
}

// NewProgressCache creates a new ProgressCache.
func NewProgressCache(cache *Cache) *ProgressCache {
	return &ProgressCache{
		cache: cache,
	}
}

// GetProgress gets a learner aggregate from cache.
// Returns shared.ErrProgressNotFound on a miss.
func (c *ProgressCache) GetProgress(ctx context.Context, id learner.LearnerID) (*learner.LearnerProgress, error) {
	var p learner.LearnerProgress
	err := c.cache.Get(ctx, LearnerKey(string(id)), &p)
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, shared.ErrProgressNotFound
		}
		return nil, err
	}
	return &p, nil
}

// SetProgress puts a learner aggregate into cache.
func (c *ProgressCache) SetProgress(ctx context.Context, p *learner.LearnerProgress, ttl time.Duration) error {
	if p == nil {
		return nil
	}
	return c.cache.Set(ctx, LearnerKey(string(p.LearnerID)), p, ttl)
}

// Invalidate removes a learner aggregate from cache.
func (c *ProgressCache) Invalidate(ctx context.Context, id learner.LearnerID) error {
	return c.cache.Delete(ctx, LearnerKey(string(id)))
}

// InvalidateAll clears all learner progress cache entries.
func (c *ProgressCache) InvalidateAll(ctx context.Context) error {
	return c.cache.DeleteByPattern(ctx, PrefixLearner+"*")
}
