package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Translator is the enrichment service boundary: text in, text out. Callers
// must treat any failure as non-fatal and keep the original text.
type Translator interface {
	Translate(ctx context.Context, text string) (string, error)
	TargetLanguage() string
}

// NoopTranslator is used when no enrichment service is configured.
type NoopTranslator struct{}

func (NoopTranslator) Translate(_ context.Context, text string) (string, error) {
	return text, nil
}

func (NoopTranslator) TargetLanguage() string { return "" }

// translateRequest is the LibreTranslate-compatible request body
type translateRequest struct {
	Query  string `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
	APIKey string `json:"api_key,omitempty"`
}

// translateResponse is the LibreTranslate-compatible response body
type translateResponse struct {
	TranslatedText string `json:"translatedText"`
}

// HTTPTranslator talks to a LibreTranslate-style endpoint
type HTTPTranslator struct {
	endpoint string
	apiKey   string
	target   string
	client   *http.Client
}

// NewHTTPTranslator creates a translator client for the given endpoint
func NewHTTPTranslator(endpoint, apiKey, target string) *HTTPTranslator {
	return &HTTPTranslator{
		endpoint: endpoint,
		apiKey:   apiKey,
		target:   target,
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// Translate sends text to the enrichment service and returns the translated
// form. Any transport or decode failure is returned to the caller, which is
// expected to fall back to the original text.
func (t *HTTPTranslator) Translate(ctx context.Context, text string) (string, error) {
	if text == "" {
		return text, nil
	}

	body, err := json.Marshal(translateRequest{
		Query:  text,
		Source: "auto",
		Target: t.target,
		APIKey: t.apiKey,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewBuffer(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to reach translation service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("translation service returned status %d", resp.StatusCode)
	}

	var result translateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if result.TranslatedText == "" {
		return "", fmt.Errorf("translation service returned empty text")
	}
	return result.TranslatedText, nil
}

// TargetLanguage returns the configured display language
func (t *HTTPTranslator) TargetLanguage() string { return t.target }
