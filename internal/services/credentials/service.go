// Package credentials implements the credential lease manager: it tracks at
// most one active lease per platform, polls the backend while credentials may
// free up from cooldown, and maps scrape-attempt outcomes to lease-disposition
// calls.
package credentials

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/venator/internal/blacklight"
	"github.com/ternarybob/venator/internal/interfaces"
	"github.com/ternarybob/venator/internal/models"
)

const (
	// DefaultMaxPollAttempts is how many times Acquire polls the backend for
	// a credential before giving up.
	DefaultMaxPollAttempts = 10

	// DefaultPollInterval is the fixed delay between credential polls. This
	// is a domain-level wait for a scarce resource, distinct from the API
	// client's transport retry.
	DefaultPollInterval = 60 * time.Second

	// DefaultMaxCredentialAttempts is how many distinct credentials a
	// credentialed scrape will rotate through before the platform is marked
	// failed.
	DefaultMaxCredentialAttempts = 3
)

// Cooldown dispositions reported to the backend, in minutes. Zero signals
// permanent disablement.
const (
	cooldownDisable     = 0
	cooldownRateLimited = 60
	cooldownPostLogin   = 30
)

// ErrNoneAvailable is returned when polling is exhausted without the backend
// yielding a credential.
var ErrNoneAvailable = errors.New("credentials: none available")

// SleepFunc waits between credential polls. Tests substitute a no-op.
type SleepFunc func(ctx context.Context, d time.Duration) error

func defaultSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Service implements interfaces.CredentialService.
type Service struct {
	client interfaces.BlacklightClient
	logger arbor.ILogger

	mu      sync.Mutex
	holding map[string]*models.CredentialLease

	maxPollAttempts int
	pollInterval    time.Duration
	maxAttempts     int
	sleep           SleepFunc
}

// Option configures the Service.
type Option func(*Service)

// WithPollInterval sets the delay between credential polls.
func WithPollInterval(d time.Duration) Option {
	return func(s *Service) {
		s.pollInterval = d
	}
}

// WithMaxPollAttempts sets how many polls Acquire performs before giving up.
func WithMaxPollAttempts(n int) Option {
	return func(s *Service) {
		s.maxPollAttempts = n
	}
}

// WithMaxCredentialAttempts sets how many distinct credentials a scrape
// rotates through.
func WithMaxCredentialAttempts(n int) Option {
	return func(s *Service) {
		s.maxAttempts = n
	}
}

// WithSleepFunc overrides the poll sleep, letting tests run without real
// delays.
func WithSleepFunc(sleep SleepFunc) Option {
	return func(s *Service) {
		s.sleep = sleep
	}
}

// NewService creates a credential lease manager.
func NewService(client interfaces.BlacklightClient, logger arbor.ILogger, opts ...Option) interfaces.CredentialService {
	s := &Service{
		client:          client,
		logger:          logger,
		holding:         make(map[string]*models.CredentialLease),
		maxPollAttempts: DefaultMaxPollAttempts,
		pollInterval:    DefaultPollInterval,
		maxAttempts:     DefaultMaxCredentialAttempts,
		sleep:           defaultSleep,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Acquire leases the next available credential for a platform. When none is
// available it polls, because credentials may free up from cooldown during
// the wait. Acquiring while already holding a lease for the platform is a
// programming error.
func (s *Service) Acquire(ctx context.Context, platform, sessionID string) (*models.CredentialLease, error) {
	s.mu.Lock()
	if s.holding[platform] != nil {
		s.mu.Unlock()
		panic(fmt.Sprintf("credentials: lease already held for platform %q", platform))
	}
	s.mu.Unlock()

	for attempt := 1; attempt <= s.maxPollAttempts; attempt++ {
		lease, err := s.client.NextCredential(ctx, platform, sessionID)
		if err == nil {
			s.mu.Lock()
			s.holding[platform] = lease
			s.mu.Unlock()

			s.logger.Info().
				Str("platform", platform).
				Str("credential_id", lease.CredentialID).
				Msg("Credential lease acquired")
			return lease, nil
		}

		if !errors.Is(err, blacklight.ErrNoContent) {
			return nil, err
		}

		if attempt < s.maxPollAttempts {
			s.logger.Debug().
				Str("platform", platform).
				Int("attempt", attempt).
				Int("max_attempts", s.maxPollAttempts).
				Msg("No credential available, waiting for cooldowns to expire")
			if err := s.sleep(ctx, s.pollInterval); err != nil {
				return nil, err
			}
		}
	}

	s.logger.Warn().
		Str("platform", platform).
		Int("attempts", s.maxPollAttempts).
		Msg("Credential polling exhausted")
	return nil, ErrNoneAvailable
}

// take removes and returns the held lease for a platform.
func (s *Service) take(platform string) *models.CredentialLease {
	s.mu.Lock()
	defer s.mu.Unlock()
	lease := s.holding[platform]
	delete(s.holding, platform)
	return lease
}

// ReleaseSuccess marks the held lease available again.
func (s *Service) ReleaseSuccess(ctx context.Context, platform, message string) error {
	lease := s.take(platform)
	if lease == nil {
		return fmt.Errorf("no credential lease held for platform %q", platform)
	}

	s.logger.Info().
		Str("platform", platform).
		Str("credential_id", lease.CredentialID).
		Str("message", message).
		Msg("Releasing credential after success")

	return s.client.ReportCredentialSuccess(ctx, lease.CredentialID)
}

// ReleaseFailure reports a credential failure with the given cooldown.
func (s *Service) ReleaseFailure(ctx context.Context, platform, message string, cooldownMinutes int) error {
	lease := s.take(platform)
	if lease == nil {
		return fmt.Errorf("no credential lease held for platform %q", platform)
	}

	s.logger.Warn().
		Str("platform", platform).
		Str("credential_id", lease.CredentialID).
		Int("cooldown_minutes", cooldownMinutes).
		Str("message", message).
		Msg("Releasing credential after failure")

	return s.client.ReportCredentialFailure(ctx, lease.CredentialID, message, cooldownMinutes)
}

// ReleaseWithoutReport returns the lease unpenalized.
func (s *Service) ReleaseWithoutReport(ctx context.Context, platform string) error {
	lease := s.take(platform)
	if lease == nil {
		return fmt.Errorf("no credential lease held for platform %q", platform)
	}

	s.logger.Info().
		Str("platform", platform).
		Str("credential_id", lease.CredentialID).
		Msg("Releasing credential without report")

	return s.client.ReleaseCredential(ctx, lease.CredentialID)
}

// Holding reports whether a lease is currently held for a platform.
func (s *Service) Holding(platform string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.holding[platform] != nil
}
