package intel

import (
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		Enabled:              true,
		FetchInterval:        3600,
		MaxArticlesPerSource: 50,
		UserAgent:            "ctifeed-test/1.0",
		SourcesFile:          "./sources.yaml",
		UpdateToken:          "secret",
		TargetLanguage:       "es",
		TranslatePause:       300 * time.Millisecond,
	}
}

func TestConfigValidate(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Errorf("Expected valid config to pass, got %v", err)
	}
}

func TestConfigRequiresUpdateToken(t *testing.T) {
	config := validConfig()
	config.UpdateToken = ""
	if err := config.Validate(); err == nil {
		t.Error("Expected missing update token to be rejected")
	}
}

func TestConfigFetchIntervalBounds(t *testing.T) {
	config := validConfig()

	config.FetchInterval = 299
	if err := config.Validate(); err == nil {
		t.Error("Expected too-short interval to be rejected")
	}

	config.FetchInterval = 86401
	if err := config.Validate(); err == nil {
		t.Error("Expected too-long interval to be rejected")
	}

	config.FetchInterval = 300
	if err := config.Validate(); err != nil {
		t.Errorf("Expected boundary interval accepted, got %v", err)
	}
}

func TestConfigArticleLimitBounds(t *testing.T) {
	config := validConfig()

	config.MaxArticlesPerSource = 0
	if err := config.Validate(); err == nil {
		t.Error("Expected zero article limit to be rejected")
	}

	config.MaxArticlesPerSource = 1001
	if err := config.Validate(); err == nil {
		t.Error("Expected oversized article limit to be rejected")
	}
}
