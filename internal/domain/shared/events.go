// Package shared contains common domain types, errors, and events that are
// used across all domain packages.
package shared

import (
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types. Each event represents something significant that
// happened in the learning-progress domain.
const (
	// Progress events
	EventXPGained        EventType = "progress.xp_gained"
	EventLevelUp         EventType = "progress.level_up"
	EventLessonCompleted EventType = "progress.lesson_completed"
	EventAnswerGraded    EventType = "progress.answer_graded"
	EventStreakUpdated   EventType = "progress.streak_updated"
	EventStreakBroken    EventType = "progress.streak_broken"

	// Achievement events
	EventAchievementUnlocked EventType = "achievement.unlocked"

	// System events
	EventStaleStreaksSwept EventType = "system.stale_streaks_swept"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type        EventType `json:"type"`
	Timestamp   time.Time `json:"timestamp"`
	AggregateId string    `json:"aggregate_id"`
	Version     int       `json:"version"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now().UTC(),
		AggregateId: aggregateID,
		Version:     1,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Progress Events
// ═══════════════════════════════════════════════════════════════════════════

// XPGainedEvent is emitted when a learner earns XP.
type XPGainedEvent struct {
	BaseEvent
	LearnerID string `json:"learner_id"`
	Delta     int    `json:"delta"`
	TotalXP   int    `json:"total_xp"`
	Reason    string `json:"reason"` // "lesson_completed", "first_correct_answer", "achievement_bonus"
	SourceID  string `json:"source_id,omitempty"`
}

// Payload implements Event interface.
func (e XPGainedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"learner_id": e.LearnerID,
		"delta":      e.Delta,
		"total_xp":   e.TotalXP,
		"reason":     e.Reason,
		"source_id":  e.SourceID,
	}
}

// NewXPGainedEvent creates a new XPGainedEvent.
func NewXPGainedEvent(learnerID string, delta, totalXP int, reason, sourceID string) XPGainedEvent {
	return XPGainedEvent{
		BaseEvent: NewBaseEvent(EventXPGained, learnerID),
		LearnerID: learnerID,
		Delta:     delta,
		TotalXP:   totalXP,
		Reason:    reason,
		SourceID:  sourceID,
	}
}

// LevelUpEvent is emitted when a learner reaches a new level.
type LevelUpEvent struct {
	BaseEvent
	LearnerID string `json:"learner_id"`
	OldLevel  int    `json:"old_level"`
	NewLevel  int    `json:"new_level"`
	TotalXP   int    `json:"total_xp"`
}

// Payload implements Event interface.
func (e LevelUpEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"learner_id": e.LearnerID,
		"old_level":  e.OldLevel,
		"new_level":  e.NewLevel,
		"total_xp":   e.TotalXP,
	}
}

// NewLevelUpEvent creates a new LevelUpEvent.
func NewLevelUpEvent(learnerID string, oldLevel, newLevel, totalXP int) LevelUpEvent {
	return LevelUpEvent{
		BaseEvent: NewBaseEvent(EventLevelUp, learnerID),
		LearnerID: learnerID,
		OldLevel:  oldLevel,
		NewLevel:  newLevel,
		TotalXP:   totalXP,
	}
}

// LessonCompletedEvent is emitted on a learner's first completion of a lesson.
type LessonCompletedEvent struct {
	BaseEvent
	LearnerID string `json:"learner_id"`
	LessonID  string `json:"lesson_id"`
	ModuleID  string `json:"module_id"`
	XPAwarded int    `json:"xp_awarded"`
}

// Payload implements Event interface.
func (e LessonCompletedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"learner_id": e.LearnerID,
		"lesson_id":  e.LessonID,
		"module_id":  e.ModuleID,
		"xp_awarded": e.XPAwarded,
	}
}

// NewLessonCompletedEvent creates a new LessonCompletedEvent.
func NewLessonCompletedEvent(learnerID, lessonID, moduleID string, xpAwarded int) LessonCompletedEvent {
	return LessonCompletedEvent{
		BaseEvent: NewBaseEvent(EventLessonCompleted, learnerID),
		LearnerID: learnerID,
		LessonID:  lessonID,
		ModuleID:  moduleID,
		XPAwarded: xpAwarded,
	}
}

// AnswerGradedEvent is emitted when a submitted answer has been graded.
type AnswerGradedEvent struct {
	BaseEvent
	LearnerID  string `json:"learner_id"`
	QuestionID string `json:"question_id"`
	IsCorrect  bool   `json:"is_correct"`
	XPAwarded  int    `json:"xp_awarded"`
	Attempts   int    `json:"attempts"`
}

// Payload implements Event interface.
func (e AnswerGradedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"learner_id":  e.LearnerID,
		"question_id": e.QuestionID,
		"is_correct":  e.IsCorrect,
		"xp_awarded":  e.XPAwarded,
		"attempts":    e.Attempts,
	}
}

// NewAnswerGradedEvent creates a new AnswerGradedEvent.
func NewAnswerGradedEvent(learnerID, questionID string, isCorrect bool, xpAwarded, attempts int) AnswerGradedEvent {
	return AnswerGradedEvent{
		BaseEvent:  NewBaseEvent(EventAnswerGraded, learnerID),
		LearnerID:  learnerID,
		QuestionID: questionID,
		IsCorrect:  isCorrect,
		XPAwarded:  xpAwarded,
		Attempts:   attempts,
	}
}

// StreakUpdatedEvent is emitted when a learner's daily streak changes.
type StreakUpdatedEvent struct {
	BaseEvent
	LearnerID string `json:"learner_id"`
	OldStreak int    `json:"old_streak"`
	NewStreak int    `json:"new_streak"`
}

// Payload implements Event interface.
func (e StreakUpdatedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"learner_id": e.LearnerID,
		"old_streak": e.OldStreak,
		"new_streak": e.NewStreak,
	}
}

// NewStreakUpdatedEvent creates a new StreakUpdatedEvent.
func NewStreakUpdatedEvent(learnerID string, oldStreak, newStreak int) StreakUpdatedEvent {
	return StreakUpdatedEvent{
		BaseEvent: NewBaseEvent(EventStreakUpdated, learnerID),
		LearnerID: learnerID,
		OldStreak: oldStreak,
		NewStreak: newStreak,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Achievement Events
// ═══════════════════════════════════════════════════════════════════════════

// AchievementUnlockedEvent is emitted when a learner unlocks an achievement.
type AchievementUnlockedEvent struct {
	BaseEvent
	LearnerID     string `json:"learner_id"`
	AchievementID string `json:"achievement_id"`
	XPBonus       int    `json:"xp_bonus"`
}

// Payload implements Event interface.
func (e AchievementUnlockedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"learner_id":     e.LearnerID,
		"achievement_id": e.AchievementID,
		"xp_bonus":       e.XPBonus,
	}
}

// NewAchievementUnlockedEvent creates a new AchievementUnlockedEvent.
func NewAchievementUnlockedEvent(learnerID, achievementID string, xpBonus int) AchievementUnlockedEvent {
	return AchievementUnlockedEvent{
		BaseEvent:     NewBaseEvent(EventAchievementUnlocked, learnerID),
		LearnerID:     learnerID,
		AchievementID: achievementID,
		XPBonus:       xpBonus,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// System Events
// ═══════════════════════════════════════════════════════════════════════════

// StaleStreaksSweptEvent is emitted after the daily sweep resets streaks
// for learners who missed a UTC day.
type StaleStreaksSweptEvent struct {
	BaseEvent
	SweptCount int       `json:"swept_count"`
	Cutoff     time.Time `json:"cutoff"`
}

// Payload implements Event interface.
func (e StaleStreaksSweptEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"swept_count": e.SweptCount,
		"cutoff":      e.Cutoff,
	}
}

// NewStaleStreaksSweptEvent creates a new StaleStreaksSweptEvent.
func NewStaleStreaksSweptEvent(sweptCount int, cutoff time.Time) StaleStreaksSweptEvent {
	return StaleStreaksSweptEvent{
		BaseEvent:  NewBaseEvent(EventStaleStreaksSwept, "system"),
		SweptCount: sweptCount,
		Cutoff:     cutoff,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Event Bus Contracts
// ═══════════════════════════════════════════════════════════════════════════

// EventHandler is a function that handles an event.
type EventHandler func(event Event) error

// EventPublisher defines the interface for publishing events.
type EventPublisher interface {
	// Publish sends an event to subscribers.
	Publish(event Event) error
}

// EventSubscriber defines the interface for subscribing to events.
type EventSubscriber interface {
	// Subscribe registers a handler for an event type.
	Subscribe(eventType EventType, handler EventHandler) error

	// SubscribeAll registers a handler for all events.
	SubscribeAll(handler EventHandler) error
}

// EventBus combines publishing and subscribing.
type EventBus interface {
	EventPublisher
	EventSubscriber
}
