package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultPath is the static configuration file read at startup
const DefaultPath = "config/bot.env"

// Spreadsheet backends
const (
	BackendGoogle = "google"
	BackendXLSX   = "xlsx"
)

// Config holds all application configuration
type Config struct {
	BotToken   string
	AdminEmail string
	Database   DatabaseConfig
	Sheets     SheetsConfig

	RolloverSchedule string
	Location         *time.Location
	MetricsAddr      string
	LogLevel         string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
}

// SheetsConfig selects and configures the attendance spreadsheet backend
type SheetsConfig struct {
	Backend         string
	CredentialsFile string
	XLSXDir         string
}

// Load reads the configuration file at path into the environment and builds
// the configuration from it. Variables already present in the environment take
// precedence over the file. A missing file is not an error.
func Load(path string) (*Config, error) {
	if path != "" {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	cfg := &Config{
		BotToken:   os.Getenv("BOT_TOKEN"),
		AdminEmail: os.Getenv("ADMIN_EMAIL"),
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			Name:     getEnv("DB_NAME", "attendance"),
			User:     getEnv("DB_USER", "attendance"),
			Password: os.Getenv("DB_PASSWORD"),
		},
		Sheets: SheetsConfig{
			Backend:         strings.ToLower(getEnv("SHEETS_BACKEND", BackendGoogle)),
			CredentialsFile: getEnv("GOOGLE_CREDENTIALS_FILE", "config/gg_creds.json"),
			XLSXDir:         getEnv("XLSX_DIR", "attendance"),
		},
		RolloverSchedule: getEnv("ROLLOVER_SCHEDULE", "0 4 * * *"),
		MetricsAddr:      os.Getenv("METRICS_ADDR"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
	}

	loc, err := time.LoadLocation(getEnv("TIMEZONE", "Local"))
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}
	cfg.Location = loc

	// Validate required fields
	if cfg.BotToken == "" {
		return nil, fmt.Errorf("BOT_TOKEN is required")
	}
	if cfg.Database.Password == "" {
		return nil, fmt.Errorf("DB_PASSWORD is required")
	}
	switch cfg.Sheets.Backend {
	case BackendGoogle:
		if cfg.AdminEmail == "" {
			return nil, fmt.Errorf("ADMIN_EMAIL is required for the google backend")
		}
	case BackendXLSX:
	default:
		return nil, fmt.Errorf("unknown SHEETS_BACKEND %q", cfg.Sheets.Backend)
	}

	return cfg, nil
}

// DSN returns PostgreSQL connection string
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
