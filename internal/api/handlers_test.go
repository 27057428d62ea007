package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/maltedev/outreach-bot/internal/models"
	"github.com/maltedev/outreach-bot/internal/progress"
)

type staticStatus models.RunStatus

func (s staticStatus) Snapshot() models.RunStatus { return models.RunStatus(s) }

type MockAttemptLister struct {
	mock.Mock
}

func (m *MockAttemptLister) ListByRun(ctx context.Context, runID uuid.UUID, limit int) ([]*models.Attempt, error) {
	args := m.Called(ctx, runID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Attempt), args.Error(1)
}

func (m *MockAttemptLister) Totals(ctx context.Context) (int, int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Int(1), args.Error(2)
}

func newTestRouter(t *testing.T, status models.RunStatus, attempts AttemptLister) (http.Handler, progress.Store) {
	t.Helper()
	logger := slog.Default()
	store := progress.NewFileStore(filepath.Join(t.TempDir(), ".progress.json"), 1, logger)
	h := NewHandlers(staticStatus(status), attempts, map[string]progress.Store{"paged": store}, logger)
	return NewRouter(h, []string{"*"}, logger), store
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	t.Run("running", func(t *testing.T) {
		router, _ := newTestRouter(t, models.RunStatus{State: models.RunRunning}, nil)

		rec := get(t, router, "/health")
		require.Equal(t, http.StatusOK, rec.Code)

		var resp HealthResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, "ok", resp.Status)
		assert.Equal(t, models.RunRunning, resp.RunState)
		assert.False(t, resp.Journal)
	})

	t.Run("failed run", func(t *testing.T) {
		router, _ := newTestRouter(t, models.RunStatus{State: models.RunFailed}, nil)

		rec := get(t, router, "/health")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestGetRun(t *testing.T) {
	runID := uuid.New()
	router, _ := newTestRouter(t, models.RunStatus{
		RunID:        runID,
		State:        models.RunRunning,
		Mode:         "paged",
		Page:         4,
		MessagesSent: 12,
	}, nil)

	rec := get(t, router, "/api/v1/run")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var status models.RunStatus
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&status))
	assert.Equal(t, runID, status.RunID)
	assert.Equal(t, 4, status.Page)
	assert.Equal(t, 12, status.MessagesSent)
}

func TestListRunAttempts(t *testing.T) {
	runID := uuid.New()
	status := models.RunStatus{RunID: runID, State: models.RunRunning}

	t.Run("without journal", func(t *testing.T) {
		router, _ := newTestRouter(t, status, nil)
		rec := get(t, router, "/api/v1/run/attempts")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("lists current run", func(t *testing.T) {
		lister := new(MockAttemptLister)
		lister.On("ListByRun", mock.Anything, runID, 5).Return([]*models.Attempt{
			{RunID: runID, ProfileKey: "/chefs/a", Page: 1, Sent: true},
		}, nil)
		router, _ := newTestRouter(t, status, lister)

		rec := get(t, router, "/api/v1/run/attempts?limit=5")
		require.Equal(t, http.StatusOK, rec.Code)

		var body struct {
			Attempts []models.Attempt `json:"attempts"`
			Count    int              `json:"count"`
		}
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		assert.Equal(t, 1, body.Count)
		assert.Equal(t, "/chefs/a", body.Attempts[0].ProfileKey)
		lister.AssertExpectations(t)
	})

	t.Run("bad limit", func(t *testing.T) {
		router, _ := newTestRouter(t, status, new(MockAttemptLister))
		rec := get(t, router, "/api/v1/run/attempts?limit=0")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("journal failure", func(t *testing.T) {
		lister := new(MockAttemptLister)
		lister.On("ListByRun", mock.Anything, runID, 100).Return(nil, errors.New("connection reset"))
		router, _ := newTestRouter(t, status, lister)

		rec := get(t, router, "/api/v1/run/attempts")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestGetJournalTotals(t *testing.T) {
	t.Run("no journal", func(t *testing.T) {
		router, _ := newTestRouter(t, models.RunStatus{}, nil)

		rec := get(t, router, "/api/v1/journal/totals")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("counts", func(t *testing.T) {
		lister := new(MockAttemptLister)
		lister.On("Totals", mock.Anything).Return(12, 3, nil)
		router, _ := newTestRouter(t, models.RunStatus{}, lister)

		rec := get(t, router, "/api/v1/journal/totals")
		require.Equal(t, http.StatusOK, rec.Code)

		var resp TotalsResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, TotalsResponse{Sent: 12, Skipped: 3}, resp)
		lister.AssertExpectations(t)
	})

	t.Run("query error", func(t *testing.T) {
		lister := new(MockAttemptLister)
		lister.On("Totals", mock.Anything).Return(0, 0, errors.New("connection refused"))
		router, _ := newTestRouter(t, models.RunStatus{}, lister)

		rec := get(t, router, "/api/v1/journal/totals")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestGetCursor(t *testing.T) {
	router, store := newTestRouter(t, models.RunStatus{}, nil)

	rec := get(t, router, "/api/v1/progress/paged")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp CursorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, CursorResponse{Mode: "paged", NextPage: 1}, resp)

	require.NoError(t, store.Save(context.Background(), 6))
	rec = get(t, router, "/api/v1/progress/paged")
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 6, resp.NextPage)

	rec = get(t, router, "/api/v1/progress/cities")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCORS(t *testing.T) {
	router, _ := newTestRouter(t, models.RunStatus{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
