package models

// ActiveSession is the backend's answer to a current-session query. The
// backend is the source of truth for session state; the orchestrator always
// re-queries instead of assuming a session survived a restart.
type ActiveSession struct {
	HasActiveSession bool         `json:"has_active_session"`
	Session          *SessionInfo `json:"session,omitempty"`
}

// SessionInfo describes the backend's view of an in-progress session.
type SessionInfo struct {
	SessionID      string `json:"session_id"`
	Role           string `json:"role,omitempty"`
	Location       string `json:"location,omitempty"`
	PlatformsTotal int    `json:"platforms_total,omitempty"`
	PlatformsDone  int    `json:"platforms_done,omitempty"`
}

// SubmitStatus marks a platform submission as a success or failure record.
type SubmitStatus string

const (
	SubmitStatusSuccess SubmitStatus = "success"
	SubmitStatusFailed  SubmitStatus = "failed"
)

// JobSubmission is the wire payload for submitting one platform's jobs.
type JobSubmission struct {
	SessionID    string       `json:"session_id"`
	Platform     string       `json:"platform"`
	Jobs         []JobRecord  `json:"jobs"`
	Status       SubmitStatus `json:"status,omitempty"`
	ErrorMessage string       `json:"error_message,omitempty"`
}

// NewJobSubmission builds the submission payload for a platform outcome.
// Pure transform: a failed scrape submits an empty job list with the error
// message attached.
func NewJobSubmission(sessionID, platform string, jobs []JobRecord, scrapeErr error) JobSubmission {
	sub := JobSubmission{
		SessionID: sessionID,
		Platform:  platform,
		Jobs:      jobs,
	}
	if scrapeErr != nil {
		sub.Jobs = []JobRecord{}
		sub.Status = SubmitStatusFailed
		sub.ErrorMessage = scrapeErr.Error()
	} else {
		if sub.Jobs == nil {
			sub.Jobs = []JobRecord{}
		}
		sub.Status = SubmitStatusSuccess
	}
	return sub
}

// SubmitAck is the backend's 202 response to a job submission.
type SubmitAck struct {
	Status   string `json:"status"`
	Progress string `json:"progress,omitempty"`
}

// SessionSummary is the backend's response to a session completion call.
type SessionSummary struct {
	Summary           map[string]interface{} `json:"summary,omitempty"`
	TotalJobs         int                    `json:"jobs"`
	MatchingTriggered bool                   `json:"matching_triggered"`
}
