package credentials

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ternarybob/venator/internal/interfaces"
	"github.com/ternarybob/venator/internal/models"
	"github.com/ternarybob/venator/internal/services/scrapers"
)

// ScrapeWithCredentials wraps a credentialed scrape attempt. It rotates
// through up to maxAttempts distinct credentials, classifying each failure to
// decide the lease disposition, and returns the job list from the first
// credential that succeeds. When every credential is exhausted the last
// observed error is returned for the platform's failure record.
func (s *Service) ScrapeWithCredentials(ctx context.Context, platform, sessionID, role, location string, scraper interfaces.Scraper) ([]models.JobRecord, error) {
	var lastErr error

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		lease, err := s.Acquire(ctx, platform, sessionID)
		if err != nil {
			if errors.Is(err, ErrNoneAvailable) && lastErr != nil {
				return nil, lastErr
			}
			return nil, err
		}

		s.logger.Info().
			Str("platform", platform).
			Str("credential_id", lease.CredentialID).
			Int("attempt", attempt).
			Int("max_attempts", s.maxAttempts).
			Msg("Starting credentialed scrape attempt")

		jobs, panicked, err := s.attemptScrape(ctx, scraper, role, location, &lease.Payload)
		if panicked {
			// A panicking scraper is a code bug, not a credential problem:
			// return the lease unpenalized and stop rotating.
			s.logger.Error().
				Str("platform", platform).
				Str("credential_id", lease.CredentialID).
				Err(err).
				Msg("Scraper panicked during credentialed scrape")
			if relErr := s.ReleaseWithoutReport(ctx, platform); relErr != nil {
				s.logger.Warn().Err(relErr).
					Str("platform", platform).
					Msg("Failed to release credential after scraper panic")
			}
			return nil, err
		}
		if err == nil {
			if relErr := s.ReleaseSuccess(ctx, platform, "scrape completed"); relErr != nil {
				s.logger.Warn().Err(relErr).
					Str("platform", platform).
					Msg("Failed to report credential success")
			}
			return jobs, nil
		}

		lastErr = err
		kind, loggedIn, cooldown := classifyScrapeError(err)

		s.logger.Warn().
			Str("platform", platform).
			Str("credential_id", lease.CredentialID).
			Str("kind", string(kind)).
			Bool("logged_in", loggedIn).
			Int("cooldown_minutes", cooldown).
			Err(err).
			Msg("Scrape attempt failed, rotating credential")

		if relErr := s.ReleaseFailure(ctx, platform, err.Error(), cooldown); relErr != nil {
			s.logger.Warn().Err(relErr).
				Str("platform", platform).
				Msg("Failed to report credential failure")
		}
	}

	return nil, lastErr
}

// attemptScrape runs one scrape attempt, confining scraper panics so the
// held lease can be released before the failure propagates.
func (s *Service) attemptScrape(ctx context.Context, scraper interfaces.Scraper, role, location string, cred *models.CredentialPayload) (jobs []models.JobRecord, panicked bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			jobs = nil
			panicked = true
			err = fmt.Errorf("scraper panicked: %v", r)
		}
	}()

	jobs, err = scraper.Scrape(ctx, role, location, cred)
	return jobs, false, err
}

// classifyScrapeError maps a scrape failure to a credential disposition.
// Structured *scrapers.ScrapeError values are authoritative. Plain errors
// fall back to the legacy message-text heuristic, kept for compatibility
// with collaborators that only signal failure through human-readable text.
//
// A failure after successful login always gets the 30-minute cooldown even
// though the credential may not be at fault.
func classifyScrapeError(err error) (kind scrapers.ErrorKind, loggedIn bool, cooldownMinutes int) {
	var se *scrapers.ScrapeError
	if errors.As(err, &se) {
		if se.LoggedIn {
			return se.Kind, true, cooldownPostLogin
		}
		switch se.Kind {
		case scrapers.KindRateLimited:
			return se.Kind, false, cooldownRateLimited
		default:
			return se.Kind, false, cooldownDisable
		}
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "rate limit") || strings.Contains(msg, "too many requests"):
		return scrapers.KindRateLimited, false, cooldownRateLimited
	case strings.Contains(msg, "invalid password") ||
		strings.Contains(msg, "invalid credentials") ||
		strings.Contains(msg, "login failed"):
		return scrapers.KindInvalidCredentials, false, cooldownDisable
	default:
		return scrapers.KindOther, false, cooldownDisable
	}
}
