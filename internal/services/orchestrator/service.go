// Package orchestrator drives one queue item through credential acquisition,
// scrape dispatch, submission, and completion. One run processes exactly one
// queue item; the scheduler's re-entrancy guard ensures at most one run is in
// flight process-wide.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/venator/internal/blacklight"
	"github.com/ternarybob/venator/internal/interfaces"
	"github.com/ternarybob/venator/internal/models"
)

// Service implements interfaces.OrchestratorService. All state is owned by
// the instance; there are no package-level globals.
type Service struct {
	client     interfaces.BlacklightClient
	creds      interfaces.CredentialService
	scrapers   interfaces.ScraperRegistry
	runStorage interfaces.RunStorage
	notifier   interfaces.Notifier
	logger     arbor.ILogger
}

// Option configures the Service.
type Option func(*Service)

// WithRunStorage persists every run result to local storage.
func WithRunStorage(storage interfaces.RunStorage) Option {
	return func(s *Service) {
		s.runStorage = storage
	}
}

// WithNotifier delivers run summaries to an external channel.
func WithNotifier(notifier interfaces.Notifier) Option {
	return func(s *Service) {
		s.notifier = notifier
	}
}

// NewService creates a session/queue orchestrator.
func NewService(
	client interfaces.BlacklightClient,
	creds interfaces.CredentialService,
	registry interfaces.ScraperRegistry,
	logger arbor.ILogger,
	opts ...Option,
) interfaces.OrchestratorService {
	s := &Service{
		client:   client,
		creds:    creds,
		scrapers: registry,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run executes one orchestration cycle: check for an active session, fetch
// the next queue item, process its platforms strictly in order, and complete
// the session. Run never returns an error and never panics past its own
// boundary; every outcome is reported through the RunResult. The return
// value is named so the recovery path still hands the caller the populated
// result.
func (s *Service) Run(ctx context.Context) (result *models.RunResult) {
	result = &models.RunResult{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
	}
	runLogger := s.logger.WithCorrelationId(result.RunID)

	defer func() {
		if r := recover(); r != nil {
			runLogger.Error().
				Str("panic", fmt.Sprintf("%v", r)).
				Msg("PANIC RECOVERED in orchestrator run")
			result.Error = fmt.Sprintf("internal error: %v", r)
			// The session was fetched but dispatch aborted; fail it so the
			// backend does not hold the active session open forever.
			if result.SessionID != "" {
				if failErr := s.client.FailSession(ctx, result.SessionID, result.Error); failErr != nil {
					runLogger.Error().Err(failErr).
						Str("session_id", result.SessionID).
						Msg("Failed to fail aborted session")
				}
			}
		}
		result.FinishedAt = time.Now()
		s.persist(ctx, runLogger, result)
		s.notify(runLogger, result)
	}()

	// Check for an existing active session before touching the queue. The
	// backend is the source of truth; never assume session state survived a
	// restart.
	active, err := s.client.CurrentSession(ctx)
	if err != nil {
		runLogger.Error().Err(err).Msg("Failed to query current session")
		result.Error = fmt.Sprintf("failed to check active session: %v", err)
		return result
	}
	if active.HasActiveSession {
		runLogger.Warn().Msg("Active session already exists, skipping cycle")
		result.Error = "Active session already exists, skipping scrape cycle"
		return result
	}

	item, err := s.client.NextQueueItem(ctx)
	if err != nil {
		switch {
		case errors.Is(err, blacklight.ErrNoContent):
			runLogger.Info().Msg("Queue is empty")
			result.Message = "Queue is empty"
		case errors.Is(err, blacklight.ErrConflict):
			runLogger.Warn().Msg("Queue fetch reported active session conflict")
			result.Error = "Active session already exists, skipping scrape cycle"
		default:
			runLogger.Error().Err(err).Msg("Failed to fetch next queue item")
			result.Error = fmt.Sprintf("failed to fetch queue item: %v", err)
		}
		return result
	}

	result.SessionID = item.SessionID
	result.Role = item.Role.Name
	result.Location = item.Location

	runLogger.Info().
		Str("session_id", item.SessionID).
		Str("role", item.Role.Name).
		Str("location", item.Location).
		Int("platforms", len(item.Platforms)).
		Msg("Queue item fetched, dispatching platforms")

	// Platforms run strictly sequential in backend order. A platform failure
	// never aborts the loop: partial failure tolerance is a core contract.
	for _, spec := range item.Platforms {
		outcome := s.processPlatform(ctx, runLogger, item, spec)
		result.Outcomes = append(result.Outcomes, outcome)
	}

	// Completion is always attempted once, regardless of how many platforms
	// failed. A completion failure is recorded, never thrown.
	summary, err := s.client.CompleteSession(ctx, item.SessionID)
	if err != nil {
		runLogger.Error().Err(err).
			Str("session_id", item.SessionID).
			Msg("Session completion call failed")
		result.CompletionError = err.Error()
	} else {
		runLogger.Info().
			Str("session_id", item.SessionID).
			Int("total_jobs", summary.TotalJobs).
			Bool("matching_triggered", summary.MatchingTriggered).
			Msg("Session completed")
	}

	return result
}

// processPlatform runs one platform task and submits its outcome. Scrape and
// submit failures are confined to this platform; nothing propagates to the
// dispatch loop.
func (s *Service) processPlatform(ctx context.Context, logger arbor.ILogger, item *models.QueueItem, spec models.PlatformSpec) models.PlatformOutcome {
	outcome := models.PlatformOutcome{Platform: spec.Name}

	logger.Info().
		Str("platform", spec.Name).
		Bool("requires_credential", spec.RequiresCredential).
		Msg("Processing platform")

	jobs, scrapeErr := s.scrapePlatform(ctx, item, spec)

	if scrapeErr != nil {
		outcome.Error = scrapeErr.Error()
		logger.Warn().
			Str("platform", spec.Name).
			Err(scrapeErr).
			Msg("Platform scrape failed, submitting failure record")
	} else {
		outcome.Success = true
		outcome.JobsFound = len(jobs)
		logger.Info().
			Str("platform", spec.Name).
			Int("jobs_found", len(jobs)).
			Msg("Platform scrape succeeded")
	}

	sub := models.NewJobSubmission(item.SessionID, spec.Name, jobs, scrapeErr)
	if _, err := s.client.SubmitJobs(ctx, sub); err != nil {
		// Submission failures are caught and logged; they never abort the
		// platform loop.
		logger.Error().Err(err).
			Str("platform", spec.Name).
			Str("session_id", item.SessionID).
			Msg("Failed to submit platform jobs")
	}

	return outcome
}

// scrapePlatform dispatches the scrape for one platform. A panicking scraper
// collaborator is confined here and surfaces as an ordinary scrape error, so
// the dispatch loop and the completion call still run.
func (s *Service) scrapePlatform(ctx context.Context, item *models.QueueItem, spec models.PlatformSpec) (jobs []models.JobRecord, err error) {
	defer func() {
		if r := recover(); r != nil {
			jobs = nil
			err = fmt.Errorf("scraper panicked: %v", r)
		}
	}()

	scraper := s.scrapers.Get(spec.Name)
	switch {
	case scraper == nil:
		return nil, fmt.Errorf("no scraper registered for platform %q", spec.Name)
	case spec.RequiresCredential:
		return s.creds.ScrapeWithCredentials(ctx, spec.Name, item.SessionID, item.Role.Name, item.Location, scraper)
	default:
		return scraper.Scrape(ctx, item.Role.Name, item.Location, nil)
	}
}

func (s *Service) persist(ctx context.Context, logger arbor.ILogger, result *models.RunResult) {
	if s.runStorage == nil {
		return
	}
	if err := s.runStorage.SaveRun(ctx, result); err != nil {
		logger.Warn().Err(err).
			Str("run_id", result.RunID).
			Msg("Failed to persist run result")
	}
}

func (s *Service) notify(logger arbor.ILogger, result *models.RunResult) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.RunCompleted(result); err != nil {
		logger.Warn().Err(err).
			Str("run_id", result.RunID).
			Msg("Failed to send run notification")
	}
}
