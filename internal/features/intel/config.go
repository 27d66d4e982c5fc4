package intel

import (
	"fmt"
	"time"

	"ctifeed/internal/core"
)

// Config represents intel feature configuration
type Config struct {
	Enabled              bool
	FetchInterval        int // seconds
	MaxArticlesPerSource int
	UserAgent            string
	SourcesFile          string
	UpdateToken          string
	TranslateURL         string
	TranslateAPIKey      string
	TargetLanguage       string
	TranslatePause       time.Duration
}

// NewConfig creates intel config from core config
func NewConfig(coreConfig *core.Config) *Config {
	return &Config{
		Enabled:              coreConfig.Intel.Enabled,
		FetchInterval:        coreConfig.Intel.FetchInterval,
		MaxArticlesPerSource: coreConfig.Intel.MaxArticlesPerSource,
		UserAgent:            coreConfig.Intel.UserAgent,
		SourcesFile:          coreConfig.Intel.SourcesFile,
		UpdateToken:          coreConfig.Intel.UpdateToken,
		TranslateURL:         coreConfig.Intel.Translate.URL,
		TranslateAPIKey:      coreConfig.Intel.Translate.APIKey,
		TargetLanguage:       coreConfig.Intel.Translate.TargetLanguage,
		TranslatePause:       coreConfig.Intel.Translate.Pause,
	}
}

// Validate validates the intel configuration
func (c *Config) Validate() error {
	if c.FetchInterval < 300 || c.FetchInterval > 86400 {
		return fmt.Errorf("fetch interval must be between 300 and 86400 seconds")
	}

	if c.MaxArticlesPerSource < 1 || c.MaxArticlesPerSource > 1000 {
		return fmt.Errorf("max articles per source must be between 1 and 1000")
	}

	if c.UpdateToken == "" {
		return fmt.Errorf("update token is required")
	}

	return nil
}
