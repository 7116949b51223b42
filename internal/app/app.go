// Package app wires the application services together with an explicit
// lifecycle: constructed at process start, torn down at shutdown. No service
// holds package-level state.
package app

import (
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/venator/internal/blacklight"
	"github.com/ternarybob/venator/internal/common"
	"github.com/ternarybob/venator/internal/handlers"
	"github.com/ternarybob/venator/internal/interfaces"
	"github.com/ternarybob/venator/internal/services/credentials"
	"github.com/ternarybob/venator/internal/services/notify"
	"github.com/ternarybob/venator/internal/services/orchestrator"
	"github.com/ternarybob/venator/internal/services/scheduler"
	"github.com/ternarybob/venator/internal/services/scrapers"
	"github.com/ternarybob/venator/internal/storage/badger"
)

// App holds all application services and handlers
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	// Storage
	BadgerDB   *badger.BadgerDB
	RunStorage interfaces.RunStorage

	// Services
	Client       interfaces.BlacklightClient
	Registry     interfaces.ScraperRegistry
	Credentials  interfaces.CredentialService
	Orchestrator interfaces.OrchestratorService
	Scheduler    interfaces.SchedulerService
	Notifier     interfaces.Notifier

	// Handlers
	ScrapeHandler *handlers.ScrapeHandler
	RunHandler    *handlers.RunHandler
	StatusHandler *handlers.StatusHandler
}

// New creates the application with all services wired
func New(config *common.Config, logger arbor.ILogger) (*App, error) {
	a := &App{
		Config: config,
		Logger: logger,
	}

	// Storage
	db, err := badger.NewBadgerDB(logger, &config.Storage.Badger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize badger storage: %w", err)
	}
	a.BadgerDB = db
	a.RunStorage = badger.NewRunStorage(db, logger)

	// Backend API client
	a.Client = blacklight.NewClient(
		config.Blacklight.BaseURL,
		config.Blacklight.APIKey,
		blacklight.WithLogger(logger),
		blacklight.WithTimeout(config.Blacklight.Timeout),
		blacklight.WithRateLimit(config.Blacklight.RateLimit),
	)

	// Scraper registry: platform scrapers are registered by the caller via
	// RegisterScraper before the scheduler starts.
	a.Registry = scrapers.NewRegistry(logger)

	// Credential lease manager
	a.Credentials = credentials.NewService(a.Client, logger,
		credentials.WithMaxCredentialAttempts(config.Credentials.MaxAttempts),
		credentials.WithMaxPollAttempts(config.Credentials.MaxPolls),
		credentials.WithPollInterval(config.Credentials.PollInterval),
	)

	// Optional Telegram run-summary notifier
	orchestratorOpts := []orchestrator.Option{
		orchestrator.WithRunStorage(a.RunStorage),
	}
	if config.Telegram.Enabled {
		notifier, err := notify.NewTelegramNotifier(config.Telegram.BotToken, config.Telegram.ChatID, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("Telegram notifier disabled")
		} else {
			a.Notifier = notifier
			orchestratorOpts = append(orchestratorOpts, orchestrator.WithNotifier(notifier))
		}
	}

	// Orchestrator and scheduler
	a.Orchestrator = orchestrator.NewService(a.Client, a.Credentials, a.Registry, logger, orchestratorOpts...)
	a.Scheduler = scheduler.NewService(a.Orchestrator, logger,
		scheduler.WithInterval(config.Scheduler.Interval),
		scheduler.WithStartupDelay(config.Scheduler.StartupDelay),
	)

	// Handlers
	a.ScrapeHandler = handlers.NewScrapeHandler(a.Orchestrator, a.Scheduler, logger)
	a.RunHandler = handlers.NewRunHandler(a.RunStorage, logger)
	a.StatusHandler = handlers.NewStatusHandler(a.Scheduler, a.Credentials, a.Registry, logger)

	if config.Scheduler.Enabled {
		if err := a.Scheduler.Start(); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to start scheduler: %w", err)
		}
	} else {
		logger.Info().Msg("Auto-poll scheduler disabled by configuration")
	}

	logger.Info().Msg("Application initialized")
	return a, nil
}

// RegisterScraper adds a platform scraper collaborator to the registry.
func (a *App) RegisterScraper(scraper interfaces.Scraper) {
	a.Registry.Register(scraper)
}

// Close tears the application down. The scheduler stops issuing triggers; an
// in-flight run finishes naturally before storage is closed.
func (a *App) Close() {
	if a.Scheduler != nil && a.Scheduler.IsRunning() {
		if err := a.Scheduler.Stop(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to stop scheduler")
		}
	}
	if a.BadgerDB != nil {
		if err := a.BadgerDB.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close badger storage")
		}
	}
	a.Logger.Info().Msg("Application closed")
}
