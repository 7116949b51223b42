package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/venator/internal/interfaces"
)

// ScrapeHandler handles HTTP requests that trigger orchestrator runs.
type ScrapeHandler struct {
	orchestrator interfaces.OrchestratorService
	scheduler    interfaces.SchedulerService
	logger       arbor.ILogger
}

// NewScrapeHandler creates a new ScrapeHandler
func NewScrapeHandler(orchestrator interfaces.OrchestratorService, scheduler interfaces.SchedulerService, logger arbor.ILogger) *ScrapeHandler {
	return &ScrapeHandler{
		orchestrator: orchestrator,
		scheduler:    scheduler,
		logger:       logger,
	}
}

// TriggerHandler handles POST /api/scrape/trigger. The run executes in the
// background behind the scheduler's re-entrancy guard; a trigger while a run
// is in flight is skipped.
func (h *ScrapeHandler) TriggerHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	if !h.scheduler.TriggerNow() {
		WriteError(w, http.StatusConflict, "A scrape run is already in flight")
		return
	}

	WriteStarted(w, "Scrape run triggered")
}

// RunHandler handles POST /api/scrape/run: a synchronous run that returns
// the full RunResult. Intended for operators and integration tests.
func (h *ScrapeHandler) RunHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	result := h.orchestrator.Run(r.Context())
	WriteJSON(w, http.StatusOK, result)
}
