// Package scrapers holds the platform scraper contract and registry. The
// scrapers themselves are opaque collaborators registered at startup; this
// package never parses HTML or drives a browser.
package scrapers

import (
	"sort"
	"sync"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/venator/internal/interfaces"
)

// Registry implements interfaces.ScraperRegistry.
type Registry struct {
	mu       sync.RWMutex
	scrapers map[string]interfaces.Scraper
	logger   arbor.ILogger
}

// NewRegistry creates an empty scraper registry.
func NewRegistry(logger arbor.ILogger) interfaces.ScraperRegistry {
	return &Registry{
		scrapers: make(map[string]interfaces.Scraper),
		logger:   logger,
	}
}

// Register adds a scraper for its platform, replacing any previous one.
func (r *Registry) Register(scraper interfaces.Scraper) {
	r.mu.Lock()
	defer r.mu.Unlock()

	platform := scraper.Platform()
	if _, exists := r.scrapers[platform]; exists {
		r.logger.Warn().
			Str("platform", platform).
			Msg("Replacing previously registered scraper")
	}
	r.scrapers[platform] = scraper

	r.logger.Info().
		Str("platform", platform).
		Msg("Scraper registered")
}

// Get returns the scraper for a platform, or nil if none is registered.
func (r *Registry) Get(platform string) interfaces.Scraper {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.scrapers[platform]
}

// Platforms returns the registered platform names, sorted.
func (r *Registry) Platforms() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.scrapers))
	for name := range r.scrapers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
