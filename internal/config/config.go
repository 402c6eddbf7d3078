package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration
type Config struct {
	// Fixtures API
	TennisAPIKey  string        `envconfig:"TENNIS_API_KEY" required:"true"`
	TennisBaseURL string        `envconfig:"TENNIS_BASE_URL" default:"https://api.api-tennis.com/tennis/"`
	TennisTimeout time.Duration `envconfig:"TENNIS_TIMEOUT" default:"40s"`

	// Default timezone used by the worker and as the CLI fallback
	DefaultTimezone string `envconfig:"DEFAULT_TIMEZONE" default:"America/Monterrey"`

	// Database
	DatabaseHost     string `envconfig:"DATABASE_HOST" default:"localhost"`
	DatabasePort     int    `envconfig:"DATABASE_PORT" default:"5432"`
	DatabaseName     string `envconfig:"DATABASE_NAME" default:"tennis"`
	DatabaseUser     string `envconfig:"DATABASE_USER" default:"tennis_user"`
	DatabasePassword string `envconfig:"DATABASE_PASSWORD" required:"true"`
	DatabaseSSLMode  string `envconfig:"DATABASE_SSL_MODE" default:"disable"`

	// Destination table (validated against an identifier allow-list before use)
	FixturesTable string `envconfig:"FIXTURES_TABLE" default:"raw_tennis_fixtures"`

	// Redis envelope cache
	RedisHost     string        `envconfig:"REDIS_HOST" default:"localhost"`
	RedisPort     int           `envconfig:"REDIS_PORT" default:"6379"`
	RedisPassword string        `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int           `envconfig:"REDIS_DB" default:"0"`
	CacheEnabled  bool          `envconfig:"CACHE_ENABLED" default:"true"`
	CacheTTL      time.Duration `envconfig:"CACHE_TTL" default:"10m"`

	// Application
	AppEnv   string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// Worker
	EnableScheduler  bool   `envconfig:"ENABLE_SCHEDULER" default:"true"`
	DailyRefreshCron string `envconfig:"DAILY_REFRESH_CRON" default:"0 6 * * *"`
	InitialSync      bool   `envconfig:"INITIAL_SYNC" default:"true"`

	// Monitoring
	EnableMetrics bool `envconfig:"ENABLE_METRICS" default:"true"`
	MetricsPort   int  `envconfig:"METRICS_PORT" default:"9090"`
}

// Load loads configuration from environment variables
// It first attempts to load from .env file if present
func Load() (*Config, error) {
	// Try to load .env file (ignore error if doesn't exist)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.TennisAPIKey == "" {
		return fmt.Errorf("TENNIS_API_KEY is required")
	}

	if c.DatabasePassword == "" {
		return fmt.Errorf("DATABASE_PASSWORD is required")
	}

	if c.FixturesTable == "" {
		return fmt.Errorf("FIXTURES_TABLE is required")
	}

	if _, err := time.LoadLocation(c.DefaultTimezone); err != nil {
		return fmt.Errorf("DEFAULT_TIMEZONE is not a valid IANA timezone: %w", err)
	}

	return nil
}

// RedisAddr returns the Redis address
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// MustLoad loads configuration or exits on error
// Use this in main() where we want to fail fast
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	return cfg
}
