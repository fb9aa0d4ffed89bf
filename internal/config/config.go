package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"notary/internal/logger"
)

// Store drivers
const (
	DriverSQLite    = "sqlite"
	DriverPostgres  = "postgres"
	DriverFirestore = "firestore"
	DriverMemory    = "memory"
)

type Config struct {
	// Store Configuration
	StoreDriver string
	DatabaseDSN string
	SQLitePath  string
	DBDebug     bool

	// Firestore Configuration
	FirestoreProject            string
	FirestoreInvoicesCollection string
	FirestoreDeedsCollection    string

	// Google Sheets Configuration
	GoogleSheetURL       string
	GoogleSheetWorksheet string
	GoogleBankWorksheet  string

	// HTTP API Configuration
	HTTPAddr string

	// Logging Configuration
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

func Load() (*Config, error) {
	config := &Config{
		StoreDriver:                 strings.ToLower(getEnv("STORE_DRIVER", DriverSQLite)),
		DatabaseDSN:                 getEnv("DATABASE_DSN", ""),
		SQLitePath:                  getEnv("SQLITE_PATH", "notary.db"),
		DBDebug:                     getEnvBool("DB_DEBUG", false),
		FirestoreProject:            getEnv("FIRESTORE_PROJECT", getEnv("GOOGLE_CLOUD_PROJECT", "")),
		FirestoreInvoicesCollection: getEnv("FIRESTORE_INVOICES_COLLECTION", "invoices"),
		FirestoreDeedsCollection:    getEnv("FIRESTORE_DEEDS_COLLECTION", "deeds"),
		GoogleSheetURL:              getEnv("GOOGLE_SHEET_URL", ""),
		GoogleSheetWorksheet:        getEnv("GOOGLE_SHEET_WORKSHEET", "Receivables"),
		GoogleBankWorksheet:         getEnv("GOOGLE_BANK_WORKSHEET", "Bank"),
		HTTPAddr:                    getEnv("HTTP_ADDR", ":8080"),
		LogLevel:                    getEnv("LOG_LEVEL", "info"),
		LogFormat:                   getEnv("LOG_FORMAT", "console"),
		LogTimeFormat:               getEnv("LOG_TIME_FORMAT", "2006-01-02T15:04:05Z07:00"),
		LogOutput:                   getEnv("LOG_OUTPUT", "stderr"),
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) validate() error {
	switch c.StoreDriver {
	case DriverSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required for the sqlite store")
		}
	case DriverPostgres:
		if c.DatabaseDSN == "" {
			return fmt.Errorf("DATABASE_DSN is required for the postgres store")
		}
	case DriverFirestore:
		if c.FirestoreProject == "" {
			return fmt.Errorf("FIRESTORE_PROJECT is required for the firestore store")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q (want sqlite, postgres, firestore or memory)", c.StoreDriver)
	}
	return nil
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

type contextKey struct{}

// NewContext returns a copy of ctx carrying cfg.
func NewContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, contextKey{}, cfg)
}

// FromContext returns the config carried by ctx, if any.
func FromContext(ctx context.Context) (*Config, bool) {
	cfg, ok := ctx.Value(contextKey{}).(*Config)
	return cfg, ok && cfg != nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return value == "yes"
	}
	return b
}
