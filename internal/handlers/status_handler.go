package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/venator/internal/common"
	"github.com/ternarybob/venator/internal/interfaces"
)

// StatusHandler handles HTTP requests for application status
type StatusHandler struct {
	scheduler interfaces.SchedulerService
	creds     interfaces.CredentialService
	registry  interfaces.ScraperRegistry
	logger    arbor.ILogger
}

// NewStatusHandler creates a new StatusHandler
func NewStatusHandler(scheduler interfaces.SchedulerService, creds interfaces.CredentialService, registry interfaces.ScraperRegistry, logger arbor.ILogger) *StatusHandler {
	return &StatusHandler{
		scheduler: scheduler,
		creds:     creds,
		registry:  registry,
		logger:    logger,
	}
}

// GetStatusHandler handles GET /api/status
func (h *StatusHandler) GetStatusHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	platforms := h.registry.Platforms()
	holding := make([]string, 0, len(platforms))
	for _, platform := range platforms {
		if h.creds.Holding(platform) {
			holding = append(holding, platform)
		}
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"version":     common.GetVersion(),
		"build":       common.GetBuild(),
		"git_commit":  common.GetGitCommit(),
		"scheduler":   h.scheduler.Status(),
		"platforms":   platforms,
		"held_leases": holding,
	})
}
