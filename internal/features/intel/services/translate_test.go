package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNoopTranslator(t *testing.T) {
	tr := NoopTranslator{}

	got, err := tr.Translate(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got != "hello" {
		t.Errorf("Expected text passed through, got %q", got)
	}
	if tr.TargetLanguage() != "" {
		t.Error("Expected empty target language")
	}
}

func TestHTTPTranslator(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req translateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("Failed to decode request: %v", err)
		}
		if req.Target != "es" {
			t.Errorf("Expected target es, got %q", req.Target)
		}
		if req.Source != "auto" {
			t.Errorf("Expected auto source detection, got %q", req.Source)
		}

		json.NewEncoder(w).Encode(translateResponse{TranslatedText: "hola mundo"})
	}))
	defer server.Close()

	tr := NewHTTPTranslator(server.URL, "", "es")
	got, err := tr.Translate(context.Background(), "hello world")
	if err != nil {
		t.Fatalf("Translation failed: %v", err)
	}
	if got != "hola mundo" {
		t.Errorf("Expected translated text, got %q", got)
	}
}

func TestHTTPTranslatorServiceError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	tr := NewHTTPTranslator(server.URL, "", "es")
	if _, err := tr.Translate(context.Background(), "hello"); err == nil {
		t.Error("Expected an error on a non-200 response")
	}
}

func TestHTTPTranslatorEmptyResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(translateResponse{})
	}))
	defer server.Close()

	tr := NewHTTPTranslator(server.URL, "", "es")
	if _, err := tr.Translate(context.Background(), "hello"); err == nil {
		t.Error("Expected an error on empty translated text")
	}
}

func TestHTTPTranslatorSkipsEmptyInput(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	tr := NewHTTPTranslator(server.URL, "", "es")
	got, err := tr.Translate(context.Background(), "")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got != "" {
		t.Errorf("Expected empty text returned, got %q", got)
	}
	if called {
		t.Error("Expected no request for empty input")
	}
}
