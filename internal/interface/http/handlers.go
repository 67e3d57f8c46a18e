package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/skillpath/progress-engine/internal/application/command"
	"github.com/skillpath/progress-engine/internal/application/query"
	"github.com/skillpath/progress-engine/internal/domain/content"
	"github.com/skillpath/progress-engine/internal/domain/learner"
	"github.com/skillpath/progress-engine/internal/domain/shared"
	"github.com/skillpath/progress-engine/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & STATUS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleRoot returns basic service information.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeJSONError(w, http.StatusNotFound, "not_found", "Endpoint not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"service": "progress-engine",
		"status":  "running",
	})
}

// handleLive is the liveness probe: answers as long as the process is up.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// handleReady is the readiness probe: checks backing dependencies.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	checks := make(map[string]string, len(s.deps.HealthCheckers))
	healthy := true
	for name, checker := range s.deps.HealthCheckers {
		if err := checker.Ping(ctx); err != nil {
			checks[name] = "unavailable"
			healthy = false
		} else {
			checks[name] = "ok"
		}
	}

	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]interface{}{
		"ready":  healthy,
		"checks": checks,
	})
}

// handleHealth combines liveness and dependency state.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.handleReady(w, r)
}

// ══════════════════════════════════════════════════════════════════════════════
// WRITE SIDE HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// completeLessonRequest is the body for lesson completion.
// The path already names the learner and the lesson, so the body is
// optional metadata.
type completeLessonRequest struct {
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// handleCompleteLesson records a lesson completion.
// POST /api/v1/learners/{id}/lessons/{lesson_id}/complete
func (s *Server) handleCompleteLesson(w http.ResponseWriter, r *http.Request) {
	learnerID := r.PathValue("id")
	lessonID := r.PathValue("lesson_id")

	var req completeLessonRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid_body", "Request body must be valid JSON")
			return
		}
	}

	cmd := command.CompleteLessonCommand{
		LearnerID: learner.LearnerID(learnerID),
		LessonID:  content.LessonID(lessonID),
		Timestamp: req.Timestamp,
	}

	result, err := s.deps.CompleteLessonHandler.Handle(r.Context(), cmd)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	status := http.StatusOK
	if !result.AlreadyCompleted {
		status = http.StatusCreated
	}
	writeJSON(w, status, result)
}

// submitAnswerRequest is the body for answer submission.
type submitAnswerRequest struct {
	QuestionID       string    `json:"question_id"`
	Answer           string    `json:"answer"`
	TimeSpentSeconds int       `json:"time_spent_seconds,omitempty"`
	Timestamp        time.Time `json:"timestamp,omitempty"`
}

// handleSubmitAnswer grades a submitted answer.
// POST /api/v1/learners/{id}/answers
func (s *Server) handleSubmitAnswer(w http.ResponseWriter, r *http.Request) {
	learnerID := r.PathValue("id")

	var req submitAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_body", "Request body must be valid JSON")
		return
	}

	cmd := command.SubmitAnswerCommand{
		LearnerID:        learner.LearnerID(learnerID),
		QuestionID:       content.QuestionID(req.QuestionID),
		Answer:           req.Answer,
		TimeSpentSeconds: req.TimeSpentSeconds,
		Timestamp:        req.Timestamp,
	}

	result, err := s.deps.SubmitAnswerHandler.Handle(r.Context(), cmd)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// READ SIDE HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleGetLearnerProgress returns the learner's aggregate standing.
// GET /api/v1/learners/{id}/progress?include_achievements=true
func (s *Server) handleGetLearnerProgress(w http.ResponseWriter, r *http.Request) {
	q := query.GetLearnerProgressQuery{
		LearnerID:           learner.LearnerID(r.PathValue("id")),
		IncludeAchievements: getQueryParamBool(r, "include_achievements"),
	}

	dto, err := s.deps.GetLearnerProgressHandler.Handle(r.Context(), q)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto)
}

// handleGetModuleProgress returns per-module completion.
// GET /api/v1/learners/{id}/modules/{module_id}/progress
func (s *Server) handleGetModuleProgress(w http.ResponseWriter, r *http.Request) {
	q := query.GetModuleProgressQuery{
		LearnerID: learner.LearnerID(r.PathValue("id")),
		ModuleID:  content.ModuleID(r.PathValue("module_id")),
	}

	dto, err := s.deps.GetModuleProgressHandler.Handle(r.Context(), q)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto)
}

// handleListModules returns the course catalog outline.
// GET /api/v1/modules
func (s *Server) handleListModules(w http.ResponseWriter, r *http.Request) {
	modules, err := s.deps.ContentRepo.ListModules(r.Context())
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"modules": modules,
		"count":   len(modules),
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// ERROR MAPPING
// ══════════════════════════════════════════════════════════════════════════════

// writeDomainError translates domain errors to HTTP status codes.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		writeJSONError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, shared.ErrInvalidInput),
		errors.Is(err, shared.ErrInvalidID),
		errors.Is(err, shared.ErrEmptyValue),
		errors.Is(err, shared.ErrNegativeValue):
		writeJSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, shared.ErrConflict):
		// The command layer already retried; the learner can simply resubmit.
		writeJSONError(w, http.StatusConflict, "conflict", "The operation conflicted with a concurrent update, please retry")
	case errors.Is(err, shared.ErrAlreadyExists):
		writeJSONError(w, http.StatusConflict, "already_exists", err.Error())
	default:
		s.log.Error("internal error",
			logger.String("path", r.URL.Path),
			logger.String("request_id", getRequestID(r.Context())),
			logger.Err(err),
		)
		writeJSONError(w, http.StatusInternalServerError, "internal_server_error", "An unexpected error occurred")
	}
}
