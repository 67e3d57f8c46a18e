// Package jobs contains implementations of scheduled jobs for the
// progress engine.
package jobs

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/skillpath/progress-engine/internal/domain/learner"
	"github.com/skillpath/progress-engine/internal/domain/shared"
	"github.com/skillpath/progress-engine/pkg/logger"
	"github.com/skillpath/progress-engine/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// SWEEP STALE STREAKS JOB
// Runs shortly after UTC midnight. A learner who had no activity
// yesterday no longer holds a live streak, and the read model should
// show zero without waiting for their next interaction.
//
// The sweep is a single UPDATE over the progress table, so it never
// races with per-learner transactions beyond ordinary row locking.
// ══════════════════════════════════════════════════════════════════════════════

// SweepStaleStreaksJob resets streaks for learners who missed a UTC day.
type SweepStaleStreaksJob struct {
	sweeper        learner.StaleStreakSweeper
	eventPublisher shared.EventPublisher
	log            *logger.Logger

	lastSweptCount atomic.Int64
}

// NewSweepStaleStreaksJob creates a new sweep job.
func NewSweepStaleStreaksJob(
	sweeper learner.StaleStreakSweeper,
	eventPublisher shared.EventPublisher,
	log *logger.Logger,
) *SweepStaleStreaksJob {
	if log == nil {
		log = logger.Default()
	}

	return &SweepStaleStreaksJob{
		sweeper:        sweeper,
		eventPublisher: eventPublisher,
		log:            log.With(logger.Component("sweep_stale_streaks")),
	}
}

// Name implements scheduler.Job.
func (j *SweepStaleStreaksJob) Name() string {
	return "sweep_stale_streaks"
}

// Description implements scheduler.Job.
func (j *SweepStaleStreaksJob) Description() string {
	return "Resets daily streaks for learners with no activity yesterday (UTC)"
}

// Run implements scheduler.Job.
func (j *SweepStaleStreaksJob) Run(ctx context.Context) error {
	now := time.Now().UTC()
	cutoff := timeutil.StreakCutoff(now)

	swept, err := j.sweeper.SweepStaleStreaks(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("sweep stale streaks: %w", err)
	}

	j.lastSweptCount.Store(int64(swept))

	j.log.Info("stale streaks swept",
		logger.Int("swept_count", swept),
		logger.Time("cutoff", cutoff),
	)

	if j.eventPublisher != nil && swept > 0 {
		event := shared.NewStaleStreaksSweptEvent(swept, cutoff)
		if err := j.eventPublisher.Publish(event); err != nil {
			j.log.Warn("failed to publish sweep event", logger.Err(err))
		}
	}

	return nil
}

// LastSweptCount returns how many streaks the previous run reset.
func (j *SweepStaleStreaksJob) LastSweptCount() int {
	return int(j.lastSweptCount.Load())
}
