package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Sheets   SheetsConfig
}

// ServerConfig holds the HTTP server settings
type ServerConfig struct {
	Port string
}

// DatabaseConfig holds the PostgreSQL connection settings
type DatabaseConfig struct {
	URL string
}

// SheetsConfig holds the remote spreadsheet API settings
type SheetsConfig struct {
	BaseURL       string
	SpreadsheetID string
	APIKey        string
	Timeout       time.Duration
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
		},
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		Sheets: SheetsConfig{
			BaseURL:       os.Getenv("SHEETS_BASE_URL"),
			SpreadsheetID: os.Getenv("SHEETS_SPREADSHEET_ID"),
			APIKey:        os.Getenv("SHEETS_API_KEY"),
			Timeout:       time.Duration(getEnvInt("SHEETS_TIMEOUT_SECONDS", 30)) * time.Second,
		},
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that required settings are present
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Sheets.BaseURL == "" {
		return fmt.Errorf("SHEETS_BASE_URL is required")
	}
	if c.Sheets.SpreadsheetID == "" {
		return fmt.Errorf("SHEETS_SPREADSHEET_ID is required")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
