package credentials

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/venator/internal/models"
	"github.com/ternarybob/venator/internal/services/scrapers"
)

// scriptedScraper fails with the scripted errors in order, then succeeds.
type scriptedScraper struct {
	errs  []error
	calls int
	jobs  []models.JobRecord
	creds []string
}

func (s *scriptedScraper) Platform() string { return "dice" }

func (s *scriptedScraper) Scrape(ctx context.Context, role, location string, cred *models.CredentialPayload) ([]models.JobRecord, error) {
	if cred != nil {
		s.creds = append(s.creds, cred.Email)
	}
	call := s.calls
	s.calls++
	if call < len(s.errs) {
		return nil, s.errs[call]
	}
	return s.jobs, nil
}

func TestScrapeWithCredentials_FirstCredentialSucceeds(t *testing.T) {
	client := &fakeClient{leases: []*models.CredentialLease{lease("cred-1")}}
	svc, _ := newTestService(client)
	scraper := &scriptedScraper{jobs: []models.JobRecord{{Title: "DevOps Engineer"}}}

	jobs, err := svc.ScrapeWithCredentials(context.Background(), "dice", "sess-1", "DevOps Engineer", "New York", scraper)
	require.NoError(t, err)
	assert.Len(t, jobs, 1)
	assert.Equal(t, []string{"cred-1"}, client.successIDs)
	assert.False(t, svc.Holding("dice"))
}

func TestScrapeWithCredentials_RotatesAfterLoginFailure(t *testing.T) {
	client := &fakeClient{leases: []*models.CredentialLease{lease("cred-1"), lease("cred-2")}}
	svc, _ := newTestService(client)
	scraper := &scriptedScraper{
		errs: []error{errors.New("Login failed: invalid password")},
		jobs: []models.JobRecord{{Title: "SRE"}, {Title: "Platform Engineer"}},
	}

	jobs, err := svc.ScrapeWithCredentials(context.Background(), "dice", "sess-1", "SRE", "Remote", scraper)
	require.NoError(t, err)
	assert.Len(t, jobs, 2)

	// First credential is permanently disabled, second one succeeds.
	require.Len(t, client.failures, 1)
	assert.Equal(t, "cred-1", client.failures[0].CredentialID)
	assert.Equal(t, 0, client.failures[0].CooldownMinutes)
	assert.Equal(t, []string{"cred-2"}, client.successIDs)
	assert.Equal(t, []string{"cred-1@example.com", "cred-2@example.com"}, scraper.creds)
}

func TestScrapeWithCredentials_ExhaustsAttemptsAndReturnsLastError(t *testing.T) {
	client := &fakeClient{leases: []*models.CredentialLease{
		lease("cred-1"), lease("cred-2"), lease("cred-3"), lease("cred-4"),
	}}
	svc, _ := newTestService(client)
	lastErr := errors.New("captcha challenge")
	scraper := &scriptedScraper{errs: []error{
		errors.New("invalid credentials"),
		errors.New("rate limit exceeded"),
		lastErr,
	}}

	jobs, err := svc.ScrapeWithCredentials(context.Background(), "dice", "sess-1", "SRE", "Remote", scraper)
	assert.Nil(t, jobs)
	assert.Equal(t, lastErr, err)

	// Exactly three distinct credentials tried, fourth lease never requested.
	assert.Equal(t, 3, scraper.calls)
	require.Len(t, client.failures, 3)
	assert.Equal(t, 0, client.failures[0].CooldownMinutes)
	assert.Equal(t, 60, client.failures[1].CooldownMinutes)
	assert.Equal(t, 0, client.failures[2].CooldownMinutes)
}

func TestScrapeWithCredentials_PoolExhaustionReturnsPriorError(t *testing.T) {
	// One credential, then the pool runs dry.
	client := &fakeClient{leases: []*models.CredentialLease{lease("cred-1")}}
	svc, _ := newTestService(client, WithMaxPollAttempts(1))
	scrapeErr := errors.New("invalid credentials")
	scraper := &scriptedScraper{errs: []error{scrapeErr, scrapeErr, scrapeErr}}

	_, err := svc.ScrapeWithCredentials(context.Background(), "dice", "sess-1", "SRE", "Remote", scraper)
	assert.Equal(t, scrapeErr, err, "pool exhaustion should surface the prior scrape error")
}

func TestScrapeWithCredentials_PoolExhaustionWithoutPriorError(t *testing.T) {
	client := &fakeClient{}
	svc, _ := newTestService(client, WithMaxPollAttempts(1))
	scraper := &scriptedScraper{}

	_, err := svc.ScrapeWithCredentials(context.Background(), "dice", "sess-1", "SRE", "Remote", scraper)
	assert.ErrorIs(t, err, ErrNoneAvailable)
}

// panickingDiceScraper panics on every attempt.
type panickingDiceScraper struct{}

func (p *panickingDiceScraper) Platform() string { return "dice" }

func (p *panickingDiceScraper) Scrape(ctx context.Context, role, location string, cred *models.CredentialPayload) ([]models.JobRecord, error) {
	panic("selector engine crashed")
}

func TestScrapeWithCredentials_PanickingScraperReleasesLease(t *testing.T) {
	client := &fakeClient{leases: []*models.CredentialLease{lease("cred-1"), lease("cred-2")}}
	svc, _ := newTestService(client)

	_, err := svc.ScrapeWithCredentials(context.Background(), "dice", "sess-1", "SRE", "Remote", &panickingDiceScraper{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scraper panicked")

	// The lease is returned unpenalized and the rotation stops: a code bug
	// would just panic again with the next credential.
	assert.False(t, svc.Holding("dice"))
	assert.Equal(t, []string{"cred-1"}, client.releasedIDs)
	assert.Empty(t, client.failures)
	assert.Empty(t, client.successIDs)

	// The platform is not wedged: a fresh acquire still works.
	got, acquireErr := svc.Acquire(context.Background(), "dice", "sess-1")
	require.NoError(t, acquireErr)
	assert.Equal(t, "cred-2", got.CredentialID)
}

func TestClassifyScrapeError(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		wantKind     scrapers.ErrorKind
		wantLoggedIn bool
		wantCooldown int
	}{
		{
			name:         "structured invalid credentials",
			err:          scrapers.NewLoginError(scrapers.KindInvalidCredentials, "bad password"),
			wantKind:     scrapers.KindInvalidCredentials,
			wantCooldown: 0,
		},
		{
			name:         "structured rate limited before login",
			err:          &scrapers.ScrapeError{Kind: scrapers.KindRateLimited, Message: "slow down"},
			wantKind:     scrapers.KindRateLimited,
			wantCooldown: 60,
		},
		{
			name:         "structured failure after login",
			err:          &scrapers.ScrapeError{Kind: scrapers.KindOther, LoggedIn: true, Message: "layout changed"},
			wantKind:     scrapers.KindOther,
			wantLoggedIn: true,
			wantCooldown: 30,
		},
		{
			name:         "plain error with rate limit text",
			err:          errors.New("HTTP 429: too many requests"),
			wantKind:     scrapers.KindRateLimited,
			wantCooldown: 60,
		},
		{
			name:         "plain error with login failure text",
			err:          errors.New("Login failed: invalid password"),
			wantKind:     scrapers.KindInvalidCredentials,
			wantCooldown: 0,
		},
		{
			name:         "plain unclassifiable error",
			err:          errors.New("selector not found"),
			wantKind:     scrapers.KindOther,
			wantCooldown: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, loggedIn, cooldown := classifyScrapeError(tt.err)
			assert.Equal(t, tt.wantKind, kind)
			assert.Equal(t, tt.wantLoggedIn, loggedIn)
			assert.Equal(t, tt.wantCooldown, cooldown)
		})
	}
}
