package interfaces

import (
	"context"

	"github.com/ternarybob/venator/internal/models"
)

// Scraper is the opaque platform-specific collaborator that performs the
// actual data extraction. cred is nil for platforms that do not require a
// credential. Implementations should return a *scrapers.ScrapeError so the
// credential retry loop can classify failures without string matching.
type Scraper interface {
	// Platform returns the platform name this scraper handles.
	Platform() string

	// Scrape extracts job records for a role and location.
	Scrape(ctx context.Context, role, location string, cred *models.CredentialPayload) ([]models.JobRecord, error)
}

// ScraperRegistry maps platform names to registered scrapers.
type ScraperRegistry interface {
	// Register adds a scraper for its platform. Registering a second scraper
	// for the same platform replaces the first.
	Register(scraper Scraper)

	// Get returns the scraper for a platform, or nil if none is registered.
	Get(platform string) Scraper

	// Platforms returns the registered platform names.
	Platforms() []string
}
