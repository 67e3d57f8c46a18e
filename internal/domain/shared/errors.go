// Package shared contains common domain types, errors, and events that are
// used across all domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")

	// Validation errors
	ErrInvalidInput  = errors.New("invalid input")
	ErrInvalidID     = errors.New("invalid ID")
	ErrEmptyValue    = errors.New("value cannot be empty")
	ErrNegativeValue = errors.New("value cannot be negative")

	// State errors
	ErrInvalidState     = errors.New("invalid state")
	ErrAlreadyProcessed = errors.New("already processed")

	// Concurrency errors
	ErrConflict = errors.New("concurrent modification detected")

	// Persistence errors
	ErrInternal = errors.New("internal error")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "learner", "content", "grading"
	Op      string // Operation that failed, e.g., "CompleteLesson"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Content domain errors
var (
	ErrModuleNotFound      = NewDomainError("content", "FindModule", ErrNotFound, "module not found")
	ErrLessonNotFound      = NewDomainError("content", "FindLesson", ErrNotFound, "lesson not found")
	ErrQuestionNotFound    = NewDomainError("content", "FindQuestion", ErrNotFound, "question not found")
	ErrAchievementNotFound = NewDomainError("content", "FindAchievement", ErrNotFound, "achievement not found")
	ErrLevelTableInvalid   = NewDomainError("content", "LoadLevels", ErrInvalidState, "level table is invalid")
)

// Learner domain errors
var (
	ErrProgressNotFound    = NewDomainError("learner", "FindProgress", ErrNotFound, "learner progress not found")
	ErrAchievementUnlocked = NewDomainError("learner", "Unlock", ErrAlreadyExists, "achievement already unlocked")
	ErrProgressConflict    = NewDomainError("learner", "Save", ErrConflict, "progress modified concurrently")
	ErrInvalidLearnerID    = NewDomainError("learner", "Validate", ErrInvalidID, "invalid learner ID")
	ErrNegativeTimeSpent   = NewDomainError("learner", "Validate", ErrNegativeValue, "time spent cannot be negative")
)

// Grading domain errors
var (
	ErrEmptyAnswer = NewDomainError("grading", "Grade", ErrInvalidInput, "submitted answer is empty")
)
