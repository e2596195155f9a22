package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"tradlyst/internal/adapters/logger" // Import the logger package for LogLevel
)

// Store drivers understood by STORE_DRIVER.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds all application configuration.
type Config struct {
	// Session
	UserID string // Empty means imports are owned by the anonymous user

	// Trade Store
	StoreDriver string // sqlite or postgres
	DBPath      string // SQLite file path
	DatabaseURL string // Postgres connection string (e.g., Supabase)
	DBMaxConns  int32
	DBMinConns  int32

	// Import Behaviour
	DuplicateWindow time.Duration // How long a processed file's fingerprint is remembered
	RowDelay        time.Duration // Pause between rows, 0 disables pacing
	TradeCacheTTL   time.Duration

	// Notifications
	KafkaBrokers []string // Empty disables import events
	KafkaTopic   string

	// Display
	Currency string // ISO 4217 code used when printing money

	// Logging
	LogLevel  logger.LogLevel // Use the LogLevel type from the logger adapter
	LogFormat string          // console or json
}

// LoadConfig loads configuration from environment variables (.env file).
func LoadConfig() (*Config, error) {
	// Load .env file, but don't fail if it doesn't exist (allow pure env vars)
	_ = godotenv.Load()

	cfg := &Config{}
	var err error
	var errs []string // Collect validation errors

	cfg.UserID = strings.TrimSpace(getEnv("USER_ID", ""))

	// Trade Store
	cfg.StoreDriver = strings.ToLower(getEnv("STORE_DRIVER", DriverSQLite))
	cfg.DBPath = getEnv("DB_PATH", "./data/tradlyst.db")
	cfg.DatabaseURL = getEnv("DATABASE_URL", "")
	switch cfg.StoreDriver {
	case DriverSQLite:
		if cfg.DBPath == "" {
			errs = append(errs, "DB_PATH must be set")
		}
	case DriverPostgres:
		if cfg.DatabaseURL == "" {
			errs = append(errs, "DATABASE_URL must be set when STORE_DRIVER=postgres")
		}
	default:
		errs = append(errs, fmt.Sprintf("unsupported STORE_DRIVER '%s' (want sqlite or postgres)", cfg.StoreDriver))
	}

	maxConns, err := getEnvAsIntRequired("DB_MAX_CONNS", 4)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid DB_MAX_CONNS: %v", err))
	} else if maxConns <= 0 {
		errs = append(errs, "DB_MAX_CONNS must be positive")
	}
	minConns, err := getEnvAsIntRequired("DB_MIN_CONNS", 0)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid DB_MIN_CONNS: %v", err))
	} else if minConns < 0 || minConns > maxConns {
		errs = append(errs, "DB_MIN_CONNS must be between 0 and DB_MAX_CONNS")
	}
	cfg.DBMaxConns = int32(maxConns)
	cfg.DBMinConns = int32(minConns)

	// Import Behaviour
	windowSeconds, err := getEnvAsIntRequired("IMPORT_DUPLICATE_WINDOW_SECONDS", 5)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid IMPORT_DUPLICATE_WINDOW_SECONDS: %v", err))
	} else if windowSeconds < 0 {
		errs = append(errs, "IMPORT_DUPLICATE_WINDOW_SECONDS cannot be negative")
	}
	cfg.DuplicateWindow = time.Duration(windowSeconds) * time.Second

	rowDelayMs, err := getEnvAsIntRequired("IMPORT_ROW_DELAY_MS", 0)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid IMPORT_ROW_DELAY_MS: %v", err))
	} else if rowDelayMs < 0 {
		errs = append(errs, "IMPORT_ROW_DELAY_MS cannot be negative")
	}
	cfg.RowDelay = time.Duration(rowDelayMs) * time.Millisecond

	cacheMinutes := getEnvAsInt("TRADE_CACHE_TTL_MINUTES", 15)
	if cacheMinutes <= 0 {
		errs = append(errs, "TRADE_CACHE_TTL_MINUTES must be positive")
	}
	cfg.TradeCacheTTL = time.Duration(cacheMinutes) * time.Minute

	// Notifications
	cfg.KafkaBrokers = getEnvAsList("KAFKA_BROKERS")
	cfg.KafkaTopic = getEnv("KAFKA_TOPIC", "tradlyst.imports")
	if len(cfg.KafkaBrokers) > 0 && cfg.KafkaTopic == "" {
		errs = append(errs, "KAFKA_TOPIC must be set when KAFKA_BROKERS is set")
	}

	// Display
	cfg.Currency = strings.ToUpper(getEnv("CURRENCY", "INR"))

	// Logging
	logLevelStr := getEnv("LOG_LEVEL", "INFO")
	cfg.LogLevel = logger.ParseLevel(logLevelStr) // Use the parser from the logger package
	cfg.LogFormat = strings.ToLower(getEnv("LOG_FORMAT", logger.FormatConsole))
	if cfg.LogFormat != logger.FormatConsole && cfg.LogFormat != logger.FormatJSON {
		errs = append(errs, "LOG_FORMAT must be console or json")
	}

	// Combine validation errors
	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}

	return cfg, nil
}

// --- Env Var Helpers ---

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsIntRequired(key string, defaultValue int) (int, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		// Use default if env var is not set at all
		return defaultValue, nil
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		// Return error if env var is set but invalid
		return 0, fmt.Errorf("invalid integer value '%s' for key %s: %w", valueStr, key, err)
	}
	return value, nil
}

func getEnvAsList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
