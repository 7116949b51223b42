package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/venator/internal/interfaces"
)

// RunHandler serves run history from local storage.
type RunHandler struct {
	runStorage interfaces.RunStorage
	logger     arbor.ILogger
}

// NewRunHandler creates a new RunHandler
func NewRunHandler(runStorage interfaces.RunStorage, logger arbor.ILogger) *RunHandler {
	return &RunHandler{
		runStorage: runStorage,
		logger:     logger,
	}
}

// ListHandler handles GET /api/runs?limit=N
func (h *RunHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	runs, err := h.runStorage.ListRuns(r.Context(), limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list runs")
		WriteError(w, http.StatusInternalServerError, "Failed to list runs")
		return
	}

	count, err := h.runStorage.CountRuns(r.Context())
	if err != nil {
		h.logger.Warn().Err(err).Msg("Failed to count runs")
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"runs":  runs,
		"total": count,
	})
}

// GetHandler handles GET /api/runs/{id}
func (h *RunHandler) GetHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	runID := strings.TrimPrefix(r.URL.Path, "/api/runs/")
	if runID == "" {
		WriteError(w, http.StatusBadRequest, "Run ID is required")
		return
	}

	run, err := h.runStorage.GetRun(r.Context(), runID)
	if err != nil {
		WriteError(w, http.StatusNotFound, err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, run)
}
