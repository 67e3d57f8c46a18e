package jobs

import (
	"context"
	"fmt"

	"github.com/skillpath/progress-engine/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// WARM CONTENT CACHE JOB
// Re-populates the catalog-wide cache entries (level ladder, achievement
// definitions, module list) ahead of TTL expiry so command handlers
// never pay the cold-read cost on the hot path.
// ══════════════════════════════════════════════════════════════════════════════

// ContentWarmer is the part of the content cache this job drives.
type ContentWarmer interface {
	WarmUp(ctx context.Context) error
}

// WarmContentCacheJob keeps catalog cache entries warm.
type WarmContentCacheJob struct {
	warmer ContentWarmer
	log    *logger.Logger
}

// NewWarmContentCacheJob creates a new warm-up job.
func NewWarmContentCacheJob(warmer ContentWarmer, log *logger.Logger) *WarmContentCacheJob {
	if log == nil {
		log = logger.Default()
	}

	return &WarmContentCacheJob{
		warmer: warmer,
		log:    log.With(logger.Component("warm_content_cache")),
	}
}

// Name implements scheduler.Job.
func (j *WarmContentCacheJob) Name() string {
	return "warm_content_cache"
}

// Description implements scheduler.Job.
func (j *WarmContentCacheJob) Description() string {
	return "Pre-populates catalog cache entries before their TTL expires"
}

// Run implements scheduler.Job.
func (j *WarmContentCacheJob) Run(ctx context.Context) error {
	if err := j.warmer.WarmUp(ctx); err != nil {
		return fmt.Errorf("warm content cache: %w", err)
	}

	j.log.Debug("content cache warmed")
	return nil
}
