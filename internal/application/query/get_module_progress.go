package query

import (
	"context"
	"math"

	"github.com/skillpath/progress-engine/internal/domain/content"
	"github.com/skillpath/progress-engine/internal/domain/learner"
	"github.com/skillpath/progress-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET MODULE PROGRESS QUERY
// Per-module completion view: completed lessons out of total, as a
// round-half-up percentage.
// ══════════════════════════════════════════════════════════════════════════════

// GetModuleProgressQuery contains the query parameters.
type GetModuleProgressQuery struct {
	// LearnerID is the learner to look up.
	LearnerID learner.LearnerID

	// ModuleID is the module to compute progress for.
	ModuleID content.ModuleID
}

// Validate checks the query parameters.
func (q *GetModuleProgressQuery) Validate() error {
	if !q.LearnerID.IsValid() {
		return shared.ErrInvalidLearnerID
	}
	if !q.ModuleID.IsValid() {
		return shared.NewDomainError("learner", "GetModuleProgress", shared.ErrInvalidID, "module ID is required")
	}
	return nil
}

// ModuleProgressDTO is the per-module completion view.
type ModuleProgressDTO struct {
	ModuleID         string `json:"module_id"`
	Title            string `json:"title"`
	TotalLessons     int    `json:"total_lessons"`
	CompletedLessons int    `json:"completed_lessons"`
	PercentComplete  int    `json:"percent_complete"`
}

// GetModuleProgressHandler handles the GetModuleProgressQuery.
type GetModuleProgressHandler struct {
	store       learner.Store
	contentRepo content.Repository
}

// NewGetModuleProgressHandler creates a new handler.
func NewGetModuleProgressHandler(store learner.Store, contentRepo content.Repository) *GetModuleProgressHandler {
	return &GetModuleProgressHandler{
		store:       store,
		contentRepo: contentRepo,
	}
}

// Handle executes the query.
func (h *GetModuleProgressHandler) Handle(ctx context.Context, q GetModuleProgressQuery) (*ModuleProgressDTO, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	module, err := h.contentRepo.GetModule(ctx, q.ModuleID)
	if err != nil {
		return nil, err
	}

	completed, err := h.store.CountCompletedLessons(ctx, q.LearnerID, q.ModuleID)
	if err != nil {
		return nil, err
	}

	dto := &ModuleProgressDTO{
		ModuleID:         module.ID.String(),
		Title:            module.Title,
		TotalLessons:     module.LessonCount(),
		CompletedLessons: completed,
	}
	if dto.TotalLessons > 0 {
		pct := float64(completed) / float64(dto.TotalLessons) * 100
		dto.PercentComplete = int(math.Floor(pct + 0.5))
	}

	return dto, nil
}
