package scrapers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/venator/internal/models"
)

type stubScraper struct {
	name string
}

func (s *stubScraper) Platform() string { return s.name }

func (s *stubScraper) Scrape(ctx context.Context, role, location string, cred *models.CredentialPayload) ([]models.JobRecord, error) {
	return nil, nil
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry(arbor.NewLogger())

	assert.Nil(t, reg.Get(models.PlatformDice))
	assert.Empty(t, reg.Platforms())

	dice := &stubScraper{name: models.PlatformDice}
	monster := &stubScraper{name: models.PlatformMonster}
	reg.Register(monster)
	reg.Register(dice)

	assert.Same(t, dice, reg.Get(models.PlatformDice).(*stubScraper))
	assert.Equal(t, []string{models.PlatformDice, models.PlatformMonster}, reg.Platforms(),
		"platform list is sorted")

	// Re-registering replaces the previous scraper.
	replacement := &stubScraper{name: models.PlatformDice}
	reg.Register(replacement)
	assert.Same(t, replacement, reg.Get(models.PlatformDice).(*stubScraper))
}
