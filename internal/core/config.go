package core

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents the main configuration for the CTI feed platform
type Config struct {
	Server   ServerConfig   `json:"server"`
	Database DatabaseConfig `json:"database"`
	Intel    IntelConfig    `json:"intel"`
}

// ServerConfig contains server-related configuration
type ServerConfig struct {
	Port int    `json:"port"`
	Host string `json:"host"`
}

// DatabaseConfig contains database-related configuration
type DatabaseConfig struct {
	Path string `json:"path"`
}

// IntelConfig contains configuration for the threat-intel ingestion feature
type IntelConfig struct {
	Enabled              bool            `json:"enabled"`
	FetchInterval        int             `json:"fetch_interval"` // seconds
	MaxArticlesPerSource int             `json:"max_articles_per_source"`
	UserAgent            string          `json:"user_agent"`
	SourcesFile          string          `json:"sources_file"`
	UpdateToken          string          `json:"-"`
	Translate            TranslateConfig `json:"translate"`
}

// TranslateConfig contains the enrichment (translation) service configuration.
// An empty URL disables enrichment entirely.
type TranslateConfig struct {
	URL            string        `json:"url"`
	APIKey         string        `json:"-"`
	TargetLanguage string        `json:"target_language"`
	Pause          time.Duration `json:"pause"`
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	config := &Config{
		Server: ServerConfig{
			Port: getEnvAsInt("CTI_PORT", 4000),
			Host: getEnvOrDefault("CTI_HOST", "0.0.0.0"),
		},
		Database: DatabaseConfig{
			Path: getEnvOrDefault("CTI_DB_PATH", "./cti_platform.db"),
		},
		Intel: IntelConfig{
			Enabled:              getEnvAsBool("CTI_ENABLE_INGEST", true),
			FetchInterval:        getEnvAsInt("CTI_FETCH_INTERVAL", 3600),
			MaxArticlesPerSource: getEnvAsInt("CTI_MAX_ARTICLES_PER_SOURCE", 50),
			UserAgent:            getEnvOrDefault("CTI_USER_AGENT", "CTIFeed/1.0"),
			SourcesFile:          getEnvOrDefault("CTI_SOURCES_FILE", "./sources.yaml"),
			UpdateToken:          getEnvOrDefault("CTI_UPDATE_TOKEN", ""),
			Translate: TranslateConfig{
				URL:            getEnvOrDefault("CTI_TRANSLATE_URL", ""),
				APIKey:         getEnvOrDefault("CTI_TRANSLATE_API_KEY", ""),
				TargetLanguage: getEnvOrDefault("CTI_TRANSLATE_TARGET", "es"),
				Pause:          time.Duration(getEnvAsInt("CTI_TRANSLATE_PAUSE_MS", 300)) * time.Millisecond,
			},
		},
	}

	// Validate required configuration
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database path is required")
	}

	if c.Intel.UpdateToken == "" {
		return fmt.Errorf("update token is required (set CTI_UPDATE_TOKEN)")
	}

	if c.Intel.FetchInterval < 300 || c.Intel.FetchInterval > 86400 {
		return fmt.Errorf("fetch interval must be between 300 and 86400 seconds")
	}

	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
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

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		switch strings.ToLower(value) {
		case "true", "1", "yes", "on":
			return true
		case "false", "0", "no", "off":
			return false
		}
	}
	return defaultValue
}
