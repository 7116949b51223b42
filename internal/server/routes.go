package server

import (
	"net/http"
	"strings"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// API routes - Scraping
	mux.HandleFunc("/api/scrape/trigger", s.app.ScrapeHandler.TriggerHandler) // POST - async trigger
	mux.HandleFunc("/api/scrape/run", s.app.ScrapeHandler.RunHandler)         // POST - synchronous run

	// API routes - Run history
	mux.HandleFunc("/api/runs", s.app.RunHandler.ListHandler) // GET - list runs
	mux.HandleFunc("/api/runs/", s.handleRunRoutes)           // GET /{id}

	// API routes - Status
	mux.HandleFunc("/api/status", s.app.StatusHandler.GetStatusHandler) // GET - application status

	return mux
}

// handleRunRoutes dispatches /api/runs/{id}
func (s *Server) handleRunRoutes(w http.ResponseWriter, r *http.Request) {
	if strings.TrimPrefix(r.URL.Path, "/api/runs/") == "" {
		s.app.RunHandler.ListHandler(w, r)
		return
	}
	s.app.RunHandler.GetHandler(w, r)
}
