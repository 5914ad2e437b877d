package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings" // For LogLevel normalization
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the application
type AppConfig struct {
	TelegramToken       string
	DatabaseURL         string
	LogLevel            string
	Environment         string
	IsTest              bool
	CronSpecDaily       string // Daily greeting delivery time
	CronSpecLogCleanup  string // Purge of old rows from the logs table
	Location            *time.Location
	TestFireInterval    time.Duration // Replaces the daily schedule in test mode
	SchedulerCooldown   time.Duration // Pause after a failed trigger iteration
	DeliveryConcurrency int           // Holidays delivered in parallel, 1 = sequential
	SendTimeout         time.Duration // 0 disables the per-send timeout
	SessionsDir         string
	LogRetentionDays    int
	CredentialsSecret   string
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &AppConfig{}
	var err error

	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	if cfg.TelegramToken == "" {
		return nil, fmt.Errorf("TELEGRAM_TOKEN is not set")
	}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = databaseURLFromParts()
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set (nor DB_HOST/DB_USER/DB_DATABASE)")
	}

	cfg.LogLevel = strings.ToLower(os.Getenv("LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	cfg.Environment = strings.ToLower(os.Getenv("ENVIRONMENT"))
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	if v := os.Getenv("IS_TEST"); v != "" {
		cfg.IsTest, err = strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid IS_TEST: %w", err)
		}
	}

	cfg.CronSpecDaily = os.Getenv("CRON_SPEC_DAILY_GREETING")
	if cfg.CronSpecDaily == "" {
		cfg.CronSpecDaily = "0 10 * * *" // Default: 10:00 AM daily
	}

	cfg.CronSpecLogCleanup = os.Getenv("CRON_SPEC_LOG_CLEANUP")
	if cfg.CronSpecLogCleanup == "" {
		cfg.CronSpecLogCleanup = "0 3 * * *"
	}

	cfg.Location = time.Local
	if tz := os.Getenv("TIMEZONE"); tz != "" {
		cfg.Location, err = time.LoadLocation(tz)
		if err != nil {
			return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
		}
	}

	if cfg.TestFireInterval, err = durationEnv("TEST_FIRE_INTERVAL", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.SchedulerCooldown, err = durationEnv("SCHEDULER_COOLDOWN", time.Minute); err != nil {
		return nil, err
	}
	if cfg.SendTimeout, err = durationEnv("SEND_TIMEOUT", 0); err != nil {
		return nil, err
	}

	if cfg.DeliveryConcurrency, err = intEnv("DELIVERY_CONCURRENCY", 1); err != nil {
		return nil, err
	}
	if cfg.DeliveryConcurrency < 1 {
		return nil, fmt.Errorf("DELIVERY_CONCURRENCY must be at least 1")
	}

	if cfg.LogRetentionDays, err = intEnv("LOG_RETENTION_DAYS", 30); err != nil {
		return nil, err
	}

	cfg.SessionsDir = os.Getenv("SESSIONS_DIR")
	if cfg.SessionsDir == "" {
		cfg.SessionsDir = "sessions"
	}

	cfg.CredentialsSecret = os.Getenv("CREDENTIALS_SECRET")

	return cfg, nil
}

// databaseURLFromParts builds a DSN from the DB_* variables used by older deployments.
func databaseURLFromParts() string {
	host := os.Getenv("DB_HOST")
	user := os.Getenv("DB_USER")
	name := os.Getenv("DB_DATABASE")
	if host == "" || user == "" || name == "" {
		return ""
	}
	if port := os.Getenv("DB_PORT"); port != "" {
		host = host + ":" + port
	}
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(user, os.Getenv("DB_PASSWORD")),
		Host:     host,
		Path:     "/" + name,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func intEnv(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
