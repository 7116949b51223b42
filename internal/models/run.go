package models

import "time"

// PlatformOutcome records the result of processing one platform within a run.
// Outcomes are append-only: once a platform completes its entry is never
// mutated.
type PlatformOutcome struct {
	Platform  string `json:"platform"`
	Success   bool   `json:"success"`
	JobsFound int    `json:"jobs_found"`
	Error     string `json:"error,omitempty"`
}

// RunResult is the structured result of one orchestrator run. Exactly one of
// Error, Message, or SessionID+Outcomes is the meaningful payload:
//   - Error set: the run aborted before dispatch (active-session conflict,
//     fetch failure)
//   - Message set: nothing to do (queue empty)
//   - SessionID set: a queue item was processed; Outcomes holds per-platform
//     results and CompletionError any failure of the final completion call
type RunResult struct {
	RunID           string            `json:"run_id" badgerhold:"key"`
	SessionID       string            `json:"session_id,omitempty"`
	Role            string            `json:"role,omitempty"`
	Location        string            `json:"location,omitempty"`
	Error           string            `json:"error,omitempty"`
	Message         string            `json:"message,omitempty"`
	Outcomes        []PlatformOutcome `json:"outcomes,omitempty"`
	CompletionError string            `json:"completion_error,omitempty"`
	StartedAt       time.Time         `json:"started_at"`
	FinishedAt      time.Time         `json:"finished_at"`
}

// Succeeded reports whether every platform in the run completed successfully
// and the session was completed without error.
func (r *RunResult) Succeeded() bool {
	if r.Error != "" || r.CompletionError != "" {
		return false
	}
	for _, o := range r.Outcomes {
		if !o.Success {
			return false
		}
	}
	return true
}

// TotalJobs returns the number of jobs found across all platforms.
func (r *RunResult) TotalJobs() int {
	total := 0
	for _, o := range r.Outcomes {
		total += o.JobsFound
	}
	return total
}
