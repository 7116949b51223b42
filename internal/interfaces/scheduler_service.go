package interfaces

import "time"

// SchedulerStatus describes the auto-poll scheduler state.
type SchedulerStatus struct {
	Running      bool       `json:"running"`
	Processing   bool       `json:"processing"`
	Interval     string     `json:"interval"`
	LastRun      *time.Time `json:"last_run,omitempty"`
	LastRunID    string     `json:"last_run_id,omitempty"`
	LastRunError string     `json:"last_run_error,omitempty"`
	SkippedRuns  int        `json:"skipped_runs"`
}

// SchedulerService triggers orchestrator runs on a fixed interval with one
// delayed startup run. A single re-entrancy guard ensures at most one run is
// in flight; overlapping triggers are silently skipped, never queued.
type SchedulerService interface {
	// Start begins the interval timer and schedules the delayed startup run.
	Start() error

	// Stop cancels future triggers. An in-flight run finishes naturally.
	Stop() error

	// TriggerNow fires a run immediately, subject to the re-entrancy guard.
	// Returns false if a run was already in flight and the trigger was skipped.
	TriggerNow() bool

	// IsRunning reports whether the scheduler is active.
	IsRunning() bool

	// Status returns the current scheduler status.
	Status() SchedulerStatus
}
