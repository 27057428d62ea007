package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/maltedev/outreach-bot/internal/models"
	"github.com/maltedev/outreach-bot/internal/progress"
)

// StatusProvider exposes the live run status.
type StatusProvider interface {
	Snapshot() models.RunStatus
}

// AttemptLister reads journaled attempts.
type AttemptLister interface {
	ListByRun(ctx context.Context, runID uuid.UUID, limit int) ([]*models.Attempt, error)
	Totals(ctx context.Context) (sent, skipped int, err error)
}

type Handlers struct {
	status   StatusProvider
	attempts AttemptLister
	cursors  map[string]progress.Store
	logger   *slog.Logger
}

// NewHandlers wires the status endpoints. attempts may be nil when no journal
// is configured.
func NewHandlers(status StatusProvider, attempts AttemptLister, cursors map[string]progress.Store, logger *slog.Logger) *Handlers {
	return &Handlers{
		status:   status,
		attempts: attempts,
		cursors:  cursors,
		logger:   logger.With("component", "api"),
	}
}

type HealthResponse struct {
	Status   string          `json:"status"`
	RunState models.RunState `json:"run_state"`
	Journal  bool            `json:"journal"`
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	s := h.status.Snapshot()

	resp := HealthResponse{Status: "ok", RunState: s.State, Journal: h.attempts != nil}
	code := http.StatusOK
	if s.State == models.RunFailed {
		resp.Status = "error"
		code = http.StatusServiceUnavailable
	}
	h.respondJSON(w, code, resp)
}

func (h *Handlers) GetRun(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, h.status.Snapshot())
}

// ListRunAttempts returns the current run's journal entries.
func (h *Handlers) ListRunAttempts(w http.ResponseWriter, r *http.Request) {
	if h.attempts == nil {
		h.respondError(w, http.StatusServiceUnavailable, "journal is not configured")
		return
	}

	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 1000 {
			h.respondError(w, http.StatusBadRequest, "limit must be between 1 and 1000")
			return
		}
		limit = n
	}

	attempts, err := h.attempts.ListByRun(r.Context(), h.status.Snapshot().RunID, limit)
	if err != nil {
		h.logger.Error("failed to list attempts", "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to list attempts")
		return
	}
	if attempts == nil {
		attempts = []*models.Attempt{}
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"attempts": attempts,
		"count":    len(attempts),
	})
}

type TotalsResponse struct {
	Sent    int `json:"sent"`
	Skipped int `json:"skipped"`
}

// GetJournalTotals counts journaled attempts across every run.
func (h *Handlers) GetJournalTotals(w http.ResponseWriter, r *http.Request) {
	if h.attempts == nil {
		h.respondError(w, http.StatusServiceUnavailable, "journal is not configured")
		return
	}

	sent, skipped, err := h.attempts.Totals(r.Context())
	if err != nil {
		h.logger.Error("failed to count attempts", "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to count attempts")
		return
	}
	h.respondJSON(w, http.StatusOK, TotalsResponse{Sent: sent, Skipped: skipped})
}

type CursorResponse struct {
	Mode     string `json:"mode"`
	NextPage int    `json:"next_page"`
}

// GetCursor reports the page a mode would resume from.
func (h *Handlers) GetCursor(w http.ResponseWriter, r *http.Request) {
	mode := chi.URLParam(r, "mode")
	store, ok := h.cursors[mode]
	if !ok {
		h.respondError(w, http.StatusNotFound, "unknown mode")
		return
	}

	page, err := store.Load(r.Context())
	if err != nil {
		h.logger.Error("failed to load cursor", "mode", mode, "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to load cursor")
		return
	}
	h.respondJSON(w, http.StatusOK, CursorResponse{Mode: mode, NextPage: page})
}

func (h *Handlers) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handlers) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
