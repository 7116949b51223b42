package interfaces

import (
	"context"

	"github.com/ternarybob/venator/internal/models"
)

// BlacklightClient is the resilient API client for the Blacklight backend.
// Transport errors and 429/5xx responses are retried internally; protocol
// statuses (204, 409, other 4xx) surface as typed errors for the caller to
// branch on.
type BlacklightClient interface {
	// NextQueueItem fetches the next role+location unit of work.
	// Returns blacklight.ErrNoContent when the queue is empty and
	// blacklight.ErrConflict when a session is already active.
	NextQueueItem(ctx context.Context) (*models.QueueItem, error)

	// CurrentSession queries the backend for an existing active session.
	CurrentSession(ctx context.Context) (*models.ActiveSession, error)

	// SubmitJobs submits one platform's jobs (or failure record) for a session.
	SubmitJobs(ctx context.Context, sub models.JobSubmission) (*models.SubmitAck, error)

	// CompleteSession marks the session complete once all platforms are processed.
	CompleteSession(ctx context.Context, sessionID string) (*models.SessionSummary, error)

	// FailSession marks the whole session failed.
	FailSession(ctx context.Context, sessionID, errorMessage string) error

	// NextCredential leases the next available credential for a platform.
	// Returns blacklight.ErrNoContent when none are available.
	NextCredential(ctx context.Context, platform, sessionID string) (*models.CredentialLease, error)

	// ReportCredentialSuccess returns a credential to the pool unpenalized
	// after a successful scrape.
	ReportCredentialSuccess(ctx context.Context, credentialID string) error

	// ReportCredentialFailure reports a credential failure. cooldownMinutes 0
	// permanently disables the credential; >0 puts it on timed cooldown.
	ReportCredentialFailure(ctx context.Context, credentialID, errorMessage string, cooldownMinutes int) error

	// ReleaseCredential returns a credential without penalizing it, for
	// failures unrelated to the credential itself.
	ReleaseCredential(ctx context.Context, credentialID string) error
}
