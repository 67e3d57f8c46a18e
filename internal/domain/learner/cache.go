package learner

import (
	"context"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESS CACHE INTERFACE
// Контракт кэша агрегата прогресса. Реализация находится в
// infrastructure/persistence/redis. Кэш - только ускорение чтения:
// источником истины всегда остаётся Store.
// ══════════════════════════════════════════════════════════════════════════════

// ProgressCache определяет операции кэширования прогресса ученика.
type ProgressCache interface {
	// GetProgress возвращает закэшированный агрегат.
	// Возвращает shared.ErrProgressNotFound при промахе кэша.
	GetProgress(ctx context.Context, id LearnerID) (*LearnerProgress, error)

	// SetProgress кладёт агрегат в кэш с заданным TTL.
	SetProgress(ctx context.Context, p *LearnerProgress, ttl time.Duration) error

	// Invalidate удаляет агрегат из кэша. Вызывается обработчиками
	// событий после каждой мутации прогресса.
	Invalidate(ctx context.Context, id LearnerID) error
}
