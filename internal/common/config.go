// Package common provides shared configuration, logging, and version
// utilities across the application.
package common

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string            `toml:"environment"` // "development" or "production"
	Server      ServerConfig      `toml:"server"`
	Blacklight  BlacklightConfig  `toml:"blacklight"`
	Scheduler   SchedulerConfig   `toml:"scheduler"`
	Credentials CredentialsConfig `toml:"credentials"`
	Storage     StorageConfig     `toml:"storage"`
	Logging     LoggingConfig     `toml:"logging"`
	Telegram    TelegramConfig    `toml:"telegram"`
}

type ServerConfig struct {
	Port int    `toml:"port" validate:"min=1,max=65535"`
	Host string `toml:"host" validate:"required"`
}

// BlacklightConfig configures the backend API client.
type BlacklightConfig struct {
	BaseURL   string        `toml:"base_url" validate:"required,url"`
	APIKey    string        `toml:"api_key" validate:"required"`
	Timeout   time.Duration `toml:"timeout"`    // Per-call HTTP timeout
	RateLimit int           `toml:"rate_limit"` // Requests per second
}

// SchedulerConfig configures the auto-poll scheduler.
type SchedulerConfig struct {
	Enabled      bool          `toml:"enabled"`
	Interval     time.Duration `toml:"interval"`      // Fixed delay between cycles
	StartupDelay time.Duration `toml:"startup_delay"` // Grace period before first run
}

// CredentialsConfig configures the credential lease manager.
type CredentialsConfig struct {
	MaxAttempts  int           `toml:"max_attempts"`  // Distinct credentials per platform scrape
	MaxPolls     int           `toml:"max_polls"`     // Polls while waiting for an available credential
	PollInterval time.Duration `toml:"poll_interval"` // Delay between credential polls
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

type LoggingConfig struct {
	Level      string   `toml:"level"`       // "debug", "info", "warn", "error"
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // Time format for logs (default: "15:04:05")
}

// TelegramConfig configures the optional run-summary notifier.
type TelegramConfig struct {
	Enabled  bool   `toml:"enabled"`
	BotToken string `toml:"bot_token"`
	ChatID   int64  `toml:"chat_id"`
}

// NewDefaultConfig returns the built-in defaults. File, env, and CLI
// overrides are layered on top.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8085,
			Host: "localhost",
		},
		Blacklight: BlacklightConfig{
			BaseURL:   "http://localhost:3000",
			APIKey:    "",
			Timeout:   30 * time.Second,
			RateLimit: 10,
		},
		Scheduler: SchedulerConfig{
			Enabled:      true,
			Interval:     30 * time.Minute,
			StartupDelay: 10 * time.Second,
		},
		Credentials: CredentialsConfig{
			MaxAttempts:  3,
			MaxPolls:     10,
			PollInterval: 60 * time.Second,
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data/venator",
			},
		},
		Logging: LoggingConfig{
			Level:      "info",
			Output:     []string{"stdout"},
			TimeFormat: "15:04:05",
		},
	}
}

// LoadFromFiles loads configuration by layering defaults, the given TOML
// files in order (later files override earlier ones), then environment
// overrides. The merged configuration is validated before being returned.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks the merged configuration.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.Telegram.Enabled && c.Telegram.BotToken == "" {
		return fmt.Errorf("invalid configuration: telegram enabled without bot_token")
	}
	return nil
}

// applyEnvOverrides applies VENATOR_* environment variable overrides.
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("VENATOR_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	if port := os.Getenv("VENATOR_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("VENATOR_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	if baseURL := os.Getenv("VENATOR_BLACKLIGHT_URL"); baseURL != "" {
		config.Blacklight.BaseURL = baseURL
	}
	if apiKey := os.Getenv("VENATOR_BLACKLIGHT_API_KEY"); apiKey != "" {
		config.Blacklight.APIKey = apiKey
	}
	if timeout := os.Getenv("VENATOR_BLACKLIGHT_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			config.Blacklight.Timeout = d
		}
	}

	if enabled := os.Getenv("VENATOR_SCHEDULER_ENABLED"); enabled != "" {
		if b, err := strconv.ParseBool(enabled); err == nil {
			config.Scheduler.Enabled = b
		}
	}
	if interval := os.Getenv("VENATOR_SCHEDULER_INTERVAL"); interval != "" {
		if d, err := time.ParseDuration(interval); err == nil {
			config.Scheduler.Interval = d
		}
	}

	if pollInterval := os.Getenv("VENATOR_CREDENTIALS_POLL_INTERVAL"); pollInterval != "" {
		if d, err := time.ParseDuration(pollInterval); err == nil {
			config.Credentials.PollInterval = d
		}
	}

	if badgerPath := os.Getenv("VENATOR_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}

	if level := os.Getenv("VENATOR_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if token := os.Getenv("VENATOR_TELEGRAM_BOT_TOKEN"); token != "" {
		config.Telegram.BotToken = token
	}
	if chatID := os.Getenv("VENATOR_TELEGRAM_CHAT_ID"); chatID != "" {
		if id, err := strconv.ParseInt(chatID, 10, 64); err == nil {
			config.Telegram.ChatID = id
		}
	}
}

// ApplyFlagOverrides applies command-line flag overrides (highest priority).
// Zero values leave the config untouched.
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port != 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}
