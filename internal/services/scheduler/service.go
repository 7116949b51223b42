// Package scheduler triggers orchestrator runs on a fixed interval, with one
// delayed startup run after boot. A boolean re-entrancy guard makes
// overlapping triggers silent no-ops: missed cycles are lost, never queued.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/venator/internal/interfaces"
)

const (
	// DefaultInterval between scheduled orchestrator runs.
	DefaultInterval = 30 * time.Minute

	// DefaultStartupDelay is the grace period before the first run after
	// boot.
	DefaultStartupDelay = 10 * time.Second
)

// Service implements interfaces.SchedulerService.
type Service struct {
	orchestrator interfaces.OrchestratorService
	logger       arbor.ILogger
	cron         *cron.Cron
	interval     time.Duration
	startupDelay time.Duration

	mu           sync.Mutex // Protects isProcessing and run bookkeeping
	isProcessing bool
	running      bool
	startupTimer *time.Timer
	lastRun      *time.Time
	lastRunID    string
	lastRunError string
	skippedRuns  int
}

// Option configures the Service.
type Option func(*Service)

// WithInterval sets the fixed polling interval.
func WithInterval(d time.Duration) Option {
	return func(s *Service) {
		s.interval = d
	}
}

// WithStartupDelay sets the grace period before the first run.
func WithStartupDelay(d time.Duration) Option {
	return func(s *Service) {
		s.startupDelay = d
	}
}

// NewService creates an auto-poll scheduler for the orchestrator.
func NewService(orchestrator interfaces.OrchestratorService, logger arbor.ILogger, opts ...Option) interfaces.SchedulerService {
	s := &Service{
		orchestrator: orchestrator,
		logger:       logger,
		cron:         cron.New(),
		interval:     DefaultInterval,
		startupDelay: DefaultStartupDelay,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start begins the interval timer and schedules the delayed startup run.
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler already running")
	}

	if _, err := s.cron.AddFunc(fmt.Sprintf("@every %s", s.interval), s.runCycle); err != nil {
		return fmt.Errorf("failed to add interval entry: %w", err)
	}

	s.cron.Start()
	s.running = true

	// One delayed startup run, then the interval takes over.
	s.startupTimer = time.AfterFunc(s.startupDelay, s.runCycle)

	s.logger.Info().
		Str("interval", s.interval.String()).
		Str("startup_delay", s.startupDelay.String()).
		Msg("Auto-poll scheduler started")

	return nil
}

// Stop cancels future triggers only. An in-flight run finishes or fails
// naturally; there is no mid-run cancellation primitive.
func (s *Service) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	if s.startupTimer != nil {
		s.startupTimer.Stop()
		s.startupTimer = nil
	}
	s.cron.Stop()
	s.running = false

	s.logger.Info().Msg("Auto-poll scheduler stopped")
	return nil
}

// TriggerNow fires a run immediately, subject to the re-entrancy guard.
func (s *Service) TriggerNow() bool {
	s.mu.Lock()
	if s.isProcessing {
		s.skippedRuns++
		s.mu.Unlock()
		s.logger.Debug().Msg("Manual trigger skipped, run already in flight")
		return false
	}
	s.mu.Unlock()

	go s.runCycle()
	return true
}

// IsRunning reports whether the scheduler is active.
func (s *Service) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Status returns the current scheduler status.
func (s *Service) Status() interfaces.SchedulerStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return interfaces.SchedulerStatus{
		Running:      s.running,
		Processing:   s.isProcessing,
		Interval:     s.interval.String(),
		LastRun:      s.lastRun,
		LastRunID:    s.lastRunID,
		LastRunError: s.lastRunError,
		SkippedRuns:  s.skippedRuns,
	}
}

// runCycle executes one orchestrator run behind the re-entrancy guard. A
// trigger that fires while a run is in flight is skipped, not queued.
func (s *Service) runCycle() {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().
				Str("panic", fmt.Sprintf("%v", r)).
				Msg("PANIC RECOVERED in scheduled run")
			s.mu.Lock()
			s.isProcessing = false
			s.mu.Unlock()
		}
	}()

	s.mu.Lock()
	if s.isProcessing {
		s.skippedRuns++
		s.mu.Unlock()
		s.logger.Debug().Msg("Scheduler cycle skipped, run already in flight")
		return
	}
	s.isProcessing = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.isProcessing = false
		s.mu.Unlock()
	}()

	s.logger.Info().Msg("Scheduler cycle starting")
	start := time.Now()

	result := s.orchestrator.Run(context.Background())

	s.mu.Lock()
	now := time.Now()
	s.lastRun = &now
	s.lastRunID = result.RunID
	s.lastRunError = result.Error
	s.mu.Unlock()

	logEvent := s.logger.Info()
	if result.Error != "" {
		logEvent = s.logger.Warn().Str("error", result.Error)
	}
	logEvent.
		Str("run_id", result.RunID).
		Str("session_id", result.SessionID).
		Int("platforms", len(result.Outcomes)).
		Dur("duration", time.Since(start)).
		Msg("Scheduler cycle finished")
}
