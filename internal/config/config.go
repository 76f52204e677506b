// Package config loads process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Backend names.
const (
	SheetsGoogle = "google"
	SheetsMemory = "memory"

	DocumentSQLite = "sqlite"
	DocumentDrive  = "drive"
	DocumentMemory = "memory"
)

var (
	sheetsBackends   = []string{SheetsGoogle, SheetsMemory}
	documentBackends = []string{DocumentSQLite, DocumentDrive, DocumentMemory}
)

type Config struct {
	// HTTP API
	Port              string
	RateLimitRequests int

	// Database
	SQLiteDBPath string

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google
	GoogleSpreadsheetID      string
	GoogleSheetTitle         string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string
	GoogleOAuthClientFile    string
	GoogleOAuthTokenFile     string
	GoogleOAuthClientJSON    string
	GoogleOAuthTokenJSON     string

	// Backend selection
	SheetsBackend   string
	DocumentBackend string

	// Sync
	SyncConcurrency int
	SyncAutoApply   bool
	SyncInterval    time.Duration

	LogLevel string
}

func Load() *Config {
	return &Config{
		Port:              getEnv("PORT", "8080"),
		RateLimitRequests: getEnvInt("RATE_LIMIT_REQUESTS", 30),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/budgethub.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "budgethub"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "sync_budgets"),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetTitle:         getEnv("GOOGLE_SHEET_TITLE", "Budget"),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),
		GoogleOAuthClientFile:    getEnv("GOOGLE_OAUTH_CLIENT_FILE", ""),
		GoogleOAuthTokenFile:     getEnv("GOOGLE_OAUTH_TOKEN_FILE", ""),
		GoogleOAuthClientJSON:    getEnv("GOOGLE_OAUTH_CLIENT_JSON", ""),
		GoogleOAuthTokenJSON:     getEnv("GOOGLE_OAUTH_TOKEN_JSON", ""),

		SheetsBackend:   getEnv("SHEETS_BACKEND", SheetsMemory),
		DocumentBackend: getEnv("DOCUMENT_BACKEND", DocumentSQLite),

		SyncConcurrency: getEnvInt("SYNC_CONCURRENCY", 4),
		SyncAutoApply:   getEnvBool("SYNC_AUTO_APPLY", false),
		SyncInterval:    getEnvDuration("SYNC_INTERVAL", 0),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// UsesGoogle reports whether any backend talks to Google APIs.
func (c *Config) UsesGoogle() bool {
	return c.SheetsBackend == SheetsGoogle || c.DocumentBackend == DocumentDrive
}

// HasServiceAccount reports whether service account credentials are set.
func (c *Config) HasServiceAccount() bool {
	return c.GoogleServiceAccountJSON != "" || c.GoogleServiceAccountFile != ""
}

// Validate checks the configuration and returns all problems at once.
func (c *Config) Validate() error {
	var errs []error

	if p, err := strconv.Atoi(c.Port); err != nil || p < 1 || p > 65535 {
		errs = append(errs, fmt.Errorf("invalid port '%s': must be a number between 1 and 65535", c.Port))
	}
	if c.RateLimitRequests < 1 {
		errs = append(errs, fmt.Errorf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimitRequests))
	}

	if !slices.Contains(sheetsBackends, c.SheetsBackend) {
		errs = append(errs, fmt.Errorf("invalid sheets backend '%s': must be one of %v", c.SheetsBackend, sheetsBackends))
	}
	if !slices.Contains(documentBackends, c.DocumentBackend) {
		errs = append(errs, fmt.Errorf("invalid document backend '%s': must be one of %v", c.DocumentBackend, documentBackends))
	}

	if c.DocumentBackend == DocumentSQLite {
		if c.SQLiteDBPath == "" {
			errs = append(errs, errors.New("SQLite database path cannot be empty when using sqlite backend"))
		} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				errs = append(errs, fmt.Errorf("cannot create SQLite database directory '%s': %w", dir, err))
			}
		}
	}

	if c.AMQPURL != "" {
		if u, err := url.Parse(c.AMQPURL); err != nil {
			errs = append(errs, fmt.Errorf("invalid AMQP URL '%s': %w", c.AMQPURL, err))
		} else if u.Scheme != "amqp" && u.Scheme != "amqps" {
			errs = append(errs, fmt.Errorf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", u.Scheme))
		}
		if c.AMQPExchange == "" {
			errs = append(errs, errors.New("AMQP exchange name cannot be empty when AMQP URL is provided"))
		}
		if c.AMQPQueue == "" {
			errs = append(errs, errors.New("AMQP queue name cannot be empty when AMQP URL is provided"))
		}
	}

	if c.SheetsBackend == SheetsGoogle && c.GoogleSpreadsheetID == "" {
		errs = append(errs, errors.New("GOOGLE_SPREADSHEET_ID is required when using the google sheets backend"))
	}
	if c.GoogleSheetTitle == "" {
		errs = append(errs, errors.New("sheet title cannot be empty"))
	}
	if c.UsesGoogle() {
		errs = append(errs, c.validateGoogleCredentials()...)
	}

	if c.SyncConcurrency < 1 || c.SyncConcurrency > 64 {
		errs = append(errs, fmt.Errorf("invalid sync concurrency %d: must be between 1 and 64", c.SyncConcurrency))
	}
	if c.SyncInterval != 0 && (c.SyncInterval < time.Second || c.SyncInterval > 24*time.Hour) {
		errs = append(errs, fmt.Errorf("invalid sync interval %v: must be between 1 second and 24 hours", c.SyncInterval))
	}
	if _, err := c.SlogLevel(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %w", errors.Join(errs...))
	}
	return nil
}

func (c *Config) validateGoogleCredentials() []error {
	var errs []error
	if c.HasServiceAccount() {
		if c.GoogleServiceAccountFile != "" && c.GoogleServiceAccountJSON == "" {
			if _, err := os.Stat(c.GoogleServiceAccountFile); err != nil {
				errs = append(errs, fmt.Errorf("service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
		return errs
	}

	hasClient := c.GoogleOAuthClientFile != "" || c.GoogleOAuthClientJSON != ""
	hasToken := c.GoogleOAuthTokenFile != "" || c.GoogleOAuthTokenJSON != ""
	if !hasClient {
		errs = append(errs, errors.New("either a service account or GOOGLE_OAUTH_CLIENT_FILE/GOOGLE_OAUTH_CLIENT_JSON must be provided for Google backends"))
	}
	if !hasToken {
		errs = append(errs, errors.New("either a service account or GOOGLE_OAUTH_TOKEN_FILE/GOOGLE_OAUTH_TOKEN_JSON must be provided for Google backends"))
	}
	if c.GoogleOAuthClientFile != "" && c.GoogleOAuthClientJSON == "" {
		if _, err := os.Stat(c.GoogleOAuthClientFile); os.IsNotExist(err) {
			errs = append(errs, fmt.Errorf("Google OAuth client file does not exist: %s", c.GoogleOAuthClientFile))
		}
	}
	if c.GoogleOAuthTokenFile != "" && c.GoogleOAuthTokenJSON == "" {
		if _, err := os.Stat(c.GoogleOAuthTokenFile); os.IsNotExist(err) {
			errs = append(errs, fmt.Errorf("Google OAuth token file does not exist: %s", c.GoogleOAuthTokenFile))
		}
	}
	return errs
}

// SlogLevel parses LOG_LEVEL.
func (c *Config) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level '%s': %w", c.LogLevel, err)
	}
	return lvl, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
