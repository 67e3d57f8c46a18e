package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillpath/progress-engine/internal/domain/content"
	"github.com/skillpath/progress-engine/internal/domain/shared"
)

// catalogStub serves a fixed module list; everything else is absent.
type catalogStub struct {
	modules []content.Module
	err     error
}

func (c *catalogStub) GetModule(_ context.Context, _ content.ModuleID) (*content.Module, error) {
	return nil, shared.ErrModuleNotFound
}

func (c *catalogStub) ListModules(_ context.Context) ([]content.Module, error) {
	return c.modules, c.err
}

func (c *catalogStub) GetLesson(_ context.Context, _ content.LessonID) (*content.Lesson, error) {
	return nil, shared.ErrLessonNotFound
}

func (c *catalogStub) GetQuestion(_ context.Context, _ content.QuestionID) (*content.Question, error) {
	return nil, shared.ErrQuestionNotFound
}

func (c *catalogStub) LevelTable(_ context.Context) (*content.LevelTable, error) {
	return content.NewLevelTable([]content.Level{{Number: 1, MinXP: 0}})
}

func (c *catalogStub) ListAchievements(_ context.Context) ([]content.Achievement, error) {
	return nil, nil
}

type pingStub struct{ err error }

func (p *pingStub) Ping(_ context.Context) error { return p.err }

func newTestServer(t *testing.T, deps Dependencies) *Server {
	t.Helper()
	cfg := DefaultConfig()
	cfg.RateLimitPerMinute = 0 // off unless a test turns it on
	return NewServer(cfg, deps)
}

func doRequest(s *Server, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) JSONResponse {
	t.Helper()
	var resp JSONResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestServer_RootAndUnknownPath(t *testing.T) {
	s := newTestServer(t, Dependencies{})

	rec := doRequest(s, http.MethodGet, "/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodeResponse(t, rec).Success)

	rec = doRequest(s, http.MethodGet, "/no/such/endpoint")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	resp := decodeResponse(t, rec)
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "not_found", resp.Error.Code)
}

func TestServer_LivenessProbe(t *testing.T) {
	s := newTestServer(t, Dependencies{})

	rec := doRequest(s, http.MethodGet, "/live")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_ReadinessProbe(t *testing.T) {
	healthy := newTestServer(t, Dependencies{
		HealthCheckers: map[string]HealthChecker{
			"postgres": &pingStub{},
			"redis":    &pingStub{},
		},
	})
	rec := doRequest(healthy, http.MethodGet, "/ready")
	assert.Equal(t, http.StatusOK, rec.Code)

	degraded := newTestServer(t, Dependencies{
		HealthCheckers: map[string]HealthChecker{
			"postgres": &pingStub{},
			"redis":    &pingStub{err: errors.New("connection refused")},
		},
	})
	rec = doRequest(degraded, http.MethodGet, "/ready")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.False(t, decodeResponse(t, rec).Success)
}

func TestServer_RequestIDHeader(t *testing.T) {
	s := newTestServer(t, Dependencies{})

	rec := doRequest(s, http.MethodGet, "/live")
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	// A caller-supplied request ID is echoed back.
	req := httptest.NewRequest(http.MethodGet, "/live", nil)
	req.Header.Set("X-Request-ID", "req-123")
	echo := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(echo, req)
	assert.Equal(t, "req-123", echo.Header().Get("X-Request-ID"))
}

func TestServer_ListModules(t *testing.T) {
	s := newTestServer(t, Dependencies{
		ContentRepo: &catalogStub{
			modules: []content.Module{
				{ID: "module-1", Title: "Основы Go", Order: 1},
				{ID: "module-2", Title: "Конкурентность", Order: 2},
			},
		},
	})

	rec := doRequest(s, http.MethodGet, "/api/v1/modules")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeResponse(t, rec)
	assert.True(t, resp.Success)

	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.EqualValues(t, 2, data["count"])
}

func TestServer_WriteDomainErrorMapping(t *testing.T) {
	s := newTestServer(t, Dependencies{})

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not found", shared.ErrLessonNotFound, http.StatusNotFound, "not_found"},
		{"invalid input", shared.ErrEmptyAnswer, http.StatusBadRequest, "invalid_request"},
		{"invalid id", shared.ErrInvalidLearnerID, http.StatusBadRequest, "invalid_request"},
		{"conflict", shared.ErrConflict, http.StatusConflict, "conflict"},
		{"already exists", shared.ErrAchievementUnlocked, http.StatusConflict, "already_exists"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "internal_server_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/api/v1/whatever", nil)
			s.writeDomainError(rec, req, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			resp := decodeResponse(t, rec)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
		})
	}
}

func TestServer_RateLimiting(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RateLimitPerMinute = 2
	s := NewServer(cfg, Dependencies{})

	first := doRequest(s, http.MethodGet, "/live")
	second := doRequest(s, http.MethodGet, "/live")
	third := doRequest(s, http.MethodGet, "/live")

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, http.StatusTooManyRequests, third.Code)
}
