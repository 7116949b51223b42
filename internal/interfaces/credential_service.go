package interfaces

import (
	"context"

	"github.com/ternarybob/venator/internal/models"
)

// CredentialService tracks at most one active credential lease per platform
// and maps scrape-attempt outcomes to lease-disposition calls on the backend.
type CredentialService interface {
	// Acquire leases the next available credential for a platform, polling
	// the backend while credentials may free up from cooldown. Returns
	// credentials.ErrNoneAvailable once polling is exhausted. Acquiring a
	// second lease for a platform already held is a programming error and
	// panics.
	Acquire(ctx context.Context, platform, sessionID string) (*models.CredentialLease, error)

	// ReleaseSuccess marks the held lease available again and clears the
	// local holding entry.
	ReleaseSuccess(ctx context.Context, platform, message string) error

	// ReleaseFailure reports a credential failure. cooldownMinutes 0 signals
	// permanent disablement; >0 a timed cooldown. Clears the holding entry
	// regardless.
	ReleaseFailure(ctx context.Context, platform, message string, cooldownMinutes int) error

	// ReleaseWithoutReport returns the lease unpenalized, for failures
	// clearly unrelated to the credential.
	ReleaseWithoutReport(ctx context.Context, platform string) error

	// ScrapeWithCredentials runs a credentialed scrape, rotating through up
	// to the configured number of distinct credentials before giving up.
	ScrapeWithCredentials(ctx context.Context, platform, sessionID, role, location string, scraper Scraper) ([]models.JobRecord, error)

	// Holding reports whether a lease is currently held for a platform.
	Holding(platform string) bool
}
