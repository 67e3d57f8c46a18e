// Package eventhandler содержит обработчики доменных событий.
package eventhandler

import (
	"context"
	"time"

	"github.com/skillpath/progress-engine/internal/domain/learner"
	"github.com/skillpath/progress-engine/internal/domain/shared"
	"github.com/skillpath/progress-engine/pkg/logger"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON PROGRESS CHANGED HANDLER
// Инвалидирует кэш агрегата прогресса после каждой мутации.
//
// Команды публикуют события только после коммита транзакции, поэтому
// инвалидация здесь всегда видит уже зафиксированное состояние: следующее
// чтение наполнит кэш свежими данными из хранилища.
// ═══════════════════════════════════════════════════════════════════════════

// OnProgressChangedHandler invalidates the progress cache on mutation events.
type OnProgressChangedHandler struct {
	cache learner.ProgressCache
	log   *logger.Logger

	// InvalidateTimeout bounds the cache call; events are handled
	// asynchronously and must not hang the worker pool.
	invalidateTimeout time.Duration
}

// NewOnProgressChangedHandler creates a new handler.
func NewOnProgressChangedHandler(cache learner.ProgressCache, log *logger.Logger) *OnProgressChangedHandler {
	if log == nil {
		log = logger.Default()
	}

	return &OnProgressChangedHandler{
		cache:             cache,
		log:               log.With(logger.Component("on_progress_changed")),
		invalidateTimeout: 3 * time.Second,
	}
}

// Handle реализует shared.EventHandler.
func (h *OnProgressChangedHandler) Handle(event shared.Event) error {
	if h.cache == nil {
		return nil
	}

	learnerID := learner.LearnerID(event.AggregateID())
	if !learnerID.IsValid() {
		h.log.Warn("event without learner aggregate id",
			logger.String("event_type", string(event.EventType())),
		)
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.invalidateTimeout)
	defer cancel()

	if err := h.cache.Invalidate(ctx, learnerID); err != nil {
		// Некритично: TTL кэша ограничивает устаревание.
		h.log.Warn("failed to invalidate progress cache",
			logger.LearnerID(string(learnerID)),
			logger.Err(err),
		)
		return nil
	}

	h.log.Debug("progress cache invalidated",
		logger.LearnerID(string(learnerID)),
		logger.String("event_type", string(event.EventType())),
	)
	return nil
}

// EventTypes возвращает список событий, меняющих агрегат прогресса.
func (h *OnProgressChangedHandler) EventTypes() []shared.EventType {
	return []shared.EventType{
		shared.EventXPGained,
		shared.EventLevelUp,
		shared.EventLessonCompleted,
		shared.EventAnswerGraded,
		shared.EventStreakUpdated,
		shared.EventAchievementUnlocked,
	}
}
