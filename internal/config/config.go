package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Environment string
	Server      ServerConfig
	Database    DatabaseConfig
	Provider    ProviderConfig
	Scheduler   SchedulerConfig
	Sync        SyncConfig
}

type ServerConfig struct {
	Port string
	Host string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// ProviderConfig configures the fetch gateway that scrapes the upstream
// competition data provider.
type ProviderConfig struct {
	BaseURL string
	APIKey  string
	Timeout int
	// Pause is the minimum delay between two provider calls within one
	// session. The provider rate-limits aggressive clients.
	Pause time.Duration
}

// SchedulerConfig configures the external scheduling backend that fires
// timed triggers back into the system.
type SchedulerConfig struct {
	BaseURL      string
	APIKey       string
	TargetHandle string
	Timeout      int
}

// SyncConfig holds the polling knobs of the match refresh pipeline.
type SyncConfig struct {
	// StartBuffer is the minimum elapsed time after kickoff before a match
	// is worth checking.
	StartBuffer time.Duration
	// Cooldown is the minimum time between two freshness checks of the
	// same match.
	Cooldown time.Duration
	// BatchSize caps how many due matches one pass processes.
	BatchSize int
	// PlanHorizon is how far ahead the schedule planner looks for matches
	// that need an end-of-match trigger.
	PlanHorizon time.Duration
}

func Load() *Config {
	return &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
			Host: getEnv("HOST", "localhost"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "matchpulse"),
			Password: getEnv("DB_PASSWORD", "matchpulse123"),
			DBName:   getEnv("DB_NAME", "matchpulse_core"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Provider: ProviderConfig{
			BaseURL: getEnv("PROVIDER_BASE_URL", ""),
			APIKey:  getEnv("PROVIDER_API_KEY", ""),
			Timeout: getEnvAsInt("PROVIDER_TIMEOUT", 30),
			Pause:   getEnvAsDuration("PROVIDER_PAUSE", 2500*time.Millisecond),
		},
		Scheduler: SchedulerConfig{
			BaseURL:      getEnv("SCHEDULER_BASE_URL", ""),
			APIKey:       getEnv("SCHEDULER_API_KEY", ""),
			TargetHandle: getEnv("SCHEDULER_TARGET_HANDLE", ""),
			Timeout:      getEnvAsInt("SCHEDULER_TIMEOUT", 15),
		},
		Sync: SyncConfig{
			StartBuffer: getEnvAsDuration("START_BUFFER", 2*time.Hour),
			Cooldown:    getEnvAsDuration("CHECK_COOLDOWN", 10*time.Minute),
			BatchSize:   getEnvAsInt("POLL_BATCH_SIZE", 50),
			PlanHorizon: getEnvAsDuration("PLAN_HORIZON", 36*time.Hour),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func (c *Config) DatabaseURL() string {
	// If DATABASE_URL is set, use it directly
	if databaseURL := os.Getenv("DATABASE_URL"); databaseURL != "" {
		return databaseURL
	}

	// Otherwise, construct from individual components
	return "postgres://" + c.Database.User + ":" + c.Database.Password +
		"@" + c.Database.Host + ":" + c.Database.Port +
		"/" + c.Database.DBName + "?sslmode=" + c.Database.SSLMode
}
