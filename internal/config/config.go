package config

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

type ctxKey string

const configContextKey ctxKey = "aura.config"

// WithContext stores cfg in ctx for code paths that do not receive it directly.
func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configContextKey, cfg)
}

// FromContext returns the config stored by WithContext, or nil.
func FromContext(ctx context.Context) *Config {
	cfg, ok := ctx.Value(configContextKey).(*Config)
	if !ok {
		return nil
	}
	return cfg
}

// Backends accepted by DATA_BACKEND.
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

var validBackends = []string{BackendMemory, BackendPostgres, BackendSQLite}

type Config struct {
	// HTTP Server
	Port            string        `yaml:"port"            envconfig:"PORT"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout" envconfig:"SHUTDOWN_TIMEOUT"`

	// Backend selection
	DataBackend    string `yaml:"dataBackend"    envconfig:"DATA_BACKEND"`
	SQLiteDBPath   string `yaml:"sqliteDbPath"   envconfig:"SQLITE_DB_PATH"`
	PostgresDSN    string `yaml:"postgresDsn"    envconfig:"POSTGRES_DSN"`
	MemorySeedFile string `yaml:"memorySeedFile" envconfig:"MEMORY_SEED_FILE"`

	// Ledger
	Timezone            string `yaml:"timezone"            envconfig:"AURA_TIMEZONE"`
	RecentEventsLimit   int    `yaml:"recentEventsLimit"   envconfig:"RECENT_EVENTS_LIMIT"`
	OverviewDefaultDays int    `yaml:"overviewDefaultDays" envconfig:"OVERVIEW_DEFAULT_DAYS"`

	// AMQP change notifications; disabled when AMQPURL is empty
	AMQPURL      string `yaml:"amqpUrl"      envconfig:"AMQP_URL"`
	AMQPExchange string `yaml:"amqpExchange" envconfig:"AMQP_EXCHANGE"`
	AMQPQueue    string `yaml:"amqpQueue"    envconfig:"AMQP_QUEUE"`

	// Google Sheets export
	GoogleSpreadsheetID   string `yaml:"googleSpreadsheetId"   envconfig:"GOOGLE_SPREADSHEET_ID"`
	GoogleSheetName       string `yaml:"googleSheetName"       envconfig:"GOOGLE_SHEET_NAME"`
	GoogleCredentialsFile string `yaml:"googleCredentialsFile" envconfig:"GOOGLE_APPLICATION_CREDENTIALS"`
	GoogleCredentialsJSON string `yaml:"-"                     envconfig:"GOOGLE_CREDENTIALS_JSON"`
	ExportPrefetch        int    `yaml:"exportPrefetch"        envconfig:"EXPORT_PREFETCH"`

	// HTTP hardening
	IdempotencyDBPath  string `yaml:"idempotencyDbPath"  envconfig:"IDEMPOTENCY_DB_PATH"`
	RateLimitPerMinute int    `yaml:"rateLimitPerMinute" envconfig:"RATE_LIMIT_PER_MINUTE"`

	// Logging
	LogLevel  string `yaml:"logLevel"  envconfig:"LOG_LEVEL"`
	LogFormat string `yaml:"logFormat" envconfig:"LOG_FORMAT"`
}

// Default returns the configuration used when neither file nor environment
// say otherwise.
func Default() *Config {
	return &Config{
		Port:            "8081",
		ShutdownTimeout: 30 * time.Second,

		DataBackend:  BackendSQLite,
		SQLiteDBPath: "./data/aura.db",

		Timezone:            "UTC",
		RecentEventsLimit:   20,
		OverviewDefaultDays: 14,

		AMQPExchange: "aura",
		AMQPQueue:    "aura_export",

		GoogleSheetName: "Aura",
		ExportPrefetch:  10,

		IdempotencyDBPath:  "./data/idempotency.db",
		RateLimitPerMinute: 60,

		LogLevel:  "info",
		LogFormat: "text",
	}
}

// Load builds the configuration from defaults, then the YAML file at path
// (skipped when path is empty), then the environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		buf, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		if err := yaml.Unmarshal(buf, cfg); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	}

	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("error processing environment: %w", err)
	}

	return cfg, nil
}

// Location resolves the configured time zone. Validate reports a bad name,
// so callers that validated first can ignore the error.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.Timezone)
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if !slices.Contains(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	switch c.DataBackend {
	case BackendSQLite:
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else if err := ensureDir(c.SQLiteDBPath); err != nil {
			errors = append(errors, fmt.Sprintf("cannot create SQLite database directory: %v", err))
		}
	case BackendPostgres:
		if c.PostgresDSN == "" {
			errors = append(errors, "Postgres DSN cannot be empty when using postgres backend")
		}
	case BackendMemory:
		if c.MemorySeedFile != "" {
			if _, err := os.Stat(c.MemorySeedFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("memory seed file does not exist: %s", c.MemorySeedFile))
			}
		}
	}

	if _, err := c.Location(); err != nil {
		errors = append(errors, fmt.Sprintf("invalid timezone '%s': %v", c.Timezone, err))
	}
	if c.RecentEventsLimit < 1 || c.RecentEventsLimit > 500 {
		errors = append(errors, fmt.Sprintf("invalid recent events limit %d: must be between 1 and 500", c.RecentEventsLimit))
	}
	if c.OverviewDefaultDays < 0 || c.OverviewDefaultDays > 366 {
		errors = append(errors, fmt.Sprintf("invalid overview default days %d: must be between 0 and 366", c.OverviewDefaultDays))
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.RateLimitPerMinute < 0 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must not be negative", c.RateLimitPerMinute))
	}
	if c.ShutdownTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid shutdown timeout %v: must be at least 1 second", c.ShutdownTimeout))
	}

	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be 'text' or 'json'", c.LogFormat))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// ValidateExport checks the settings the export worker needs on top of Validate.
func (c *Config) ValidateExport() error {
	var errors []string
	if c.AMQPURL == "" {
		errors = append(errors, "AMQP URL is required by the exporter")
	}
	if c.GoogleSpreadsheetID == "" {
		errors = append(errors, "Google Spreadsheet ID is required by the exporter")
	}
	if c.GoogleSheetName == "" {
		errors = append(errors, "Google Sheet name is required by the exporter")
	}
	if c.GoogleCredentialsFile == "" && c.GoogleCredentialsJSON == "" {
		errors = append(errors, "either GOOGLE_APPLICATION_CREDENTIALS or GOOGLE_CREDENTIALS_JSON must be provided")
	} else if c.GoogleCredentialsFile != "" {
		if _, err := os.Stat(c.GoogleCredentialsFile); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("Google credentials file does not exist: %s", c.GoogleCredentialsFile))
		}
	}
	if c.ExportPrefetch < 1 || c.ExportPrefetch > 1000 {
		errors = append(errors, fmt.Sprintf("invalid export prefetch %d: must be between 1 and 1000", c.ExportPrefetch))
	}
	if len(errors) > 0 {
		return fmt.Errorf("exporter configuration invalid:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return os.MkdirAll(dir, 0o755)
	}
	return nil
}
