package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"ctifeed/internal/core"
	"ctifeed/internal/features/intel/migrations"
	"ctifeed/internal/features/intel/models"
	"ctifeed/internal/features/intel/services"
)

const testToken = "test-update-token"

func newTestHandlers(t *testing.T) (*Handlers, *services.SourceService, *services.ArticleService) {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	logger := core.NewLogger()
	coreDB := core.NewDatabase(db, logger)

	if err := migrations.NewManager(coreDB, logger).Migrate(context.Background()); err != nil {
		t.Fatalf("Failed to apply migrations: %v", err)
	}

	index := services.NewSearchIndex(coreDB, logger)
	if err := index.Setup(context.Background()); err != nil {
		t.Fatalf("Failed to set up search index: %v", err)
	}

	articleService := services.NewArticleService(coreDB, logger)
	sourceService := services.NewSourceService(coreDB, logger)
	queryService := services.NewQueryService(coreDB, index, logger)
	fetcher := services.NewFetcherService(logger, &services.FetcherConfig{UserAgent: "ctifeed-test/1.0", Timeout: 5 * time.Second})

	ingest := services.NewIngestService(fetcher, articleService, sourceService, services.NoopTranslator{}, logger, &services.IngestConfig{
		MaxArticlesPerSource: 50,
	})

	return New(logger, queryService, sourceService, ingest, testToken), sourceService, articleService
}

func seedHandlerArticles(t *testing.T, sources *services.SourceService, articles *services.ArticleService, n int) *models.Source {
	t.Helper()

	source, err := sources.CreateSource(context.Background(), &models.SourceCreate{
		Name: "Handler Feed",
		URL:  "https://example.com/handler/feed",
	})
	if err != nil {
		t.Fatalf("Failed to create source: %v", err)
	}

	now := time.Now().Truncate(time.Second)
	for i := 0; i < n; i++ {
		title := fmt.Sprintf("Malware report %d", i)
		url := fmt.Sprintf("https://example.com/handler/%d", i)
		_, err := articles.CreateArticle(context.Background(), &models.ArticleCreate{
			SourceID:    source.ID,
			Title:       title,
			Summary:     "summary",
			Content:     "content",
			URL:         url,
			Published:   now.Add(-time.Duration(i) * time.Hour),
			Fingerprint: services.Fingerprint(title, url),
			Tags:        []string{"threat_intel"},
			Severity:    "high",
			ThreatType:  "Malware",
		})
		if err != nil {
			t.Fatalf("Failed to seed article %d: %v", i, err)
		}
	}
	return source
}

func TestListArticlesPagination(t *testing.T) {
	h, sources, articles := newTestHandlers(t)
	seedHandlerArticles(t, sources, articles, 30)

	router := h.Routes()

	req := httptest.NewRequest(http.MethodGet, "/articles?page=2&page_size=25", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Articles []models.Article `json:"articles"`
		Total    int              `json:"total"`
		Page     int              `json:"page"`
		PageSize int              `json:"page_size"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if body.Total != 30 {
		t.Errorf("Expected total 30, got %d", body.Total)
	}
	if body.Page != 2 {
		t.Errorf("Expected page 2, got %d", body.Page)
	}
	if len(body.Articles) != 5 {
		t.Errorf("Expected 5 articles on page 2, got %d", len(body.Articles))
	}
}

func TestListArticlesClampsPageIntoRange(t *testing.T) {
	h, sources, articles := newTestHandlers(t)
	seedHandlerArticles(t, sources, articles, 30)

	router := h.Routes()

	req := httptest.NewRequest(http.MethodGet, "/articles?page=99&page_size=25", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var body struct {
		Articles []models.Article `json:"articles"`
		Page     int              `json:"page"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if body.Page != 2 {
		t.Errorf("Expected page clamped to 2, got %d", body.Page)
	}
	if len(body.Articles) != 5 {
		t.Errorf("Expected the last page's 5 articles, got %d", len(body.Articles))
	}
}

func TestListArticlesRejectsBadParams(t *testing.T) {
	h, _, _ := newTestHandlers(t)
	router := h.Routes()

	for _, target := range []string{"/articles?source_id=abc", "/articles?days=-1", "/articles?days=zero"} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("Expected 400 for %s, got %d", target, rec.Code)
		}
	}
}

func TestListSources(t *testing.T) {
	h, sources, articles := newTestHandlers(t)
	seedHandlerArticles(t, sources, articles, 1)

	router := h.Routes()

	req := httptest.NewRequest(http.MethodGet, "/sources", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var body struct {
		Sources []models.Source `json:"sources"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(body.Sources) != 1 {
		t.Errorf("Expected 1 source, got %d", len(body.Sources))
	}
}

func TestGetStats(t *testing.T) {
	h, sources, articles := newTestHandlers(t)
	seedHandlerArticles(t, sources, articles, 3)

	router := h.Routes()

	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var stats models.Stats
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if stats.TotalArticles != 3 {
		t.Errorf("Expected 3 total articles, got %d", stats.TotalArticles)
	}
	if stats.TotalSources != 1 {
		t.Errorf("Expected 1 source, got %d", stats.TotalSources)
	}
}

func TestRefreshRejectsBadToken(t *testing.T) {
	h, _, _ := newTestHandlers(t)
	router := h.Routes()

	for _, token := range []string{"", "wrong-token"} {
		req := httptest.NewRequest(http.MethodPost, "/refresh", nil)
		if token != "" {
			req.Header.Set("X-Update-Token", token)
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("Expected 401 for token %q, got %d", token, rec.Code)
		}
	}
}

func TestRefreshWithValidToken(t *testing.T) {
	h, _, _ := newTestHandlers(t)
	router := h.Routes()

	// No enabled sources registered, so the scan is a no-op summary
	req := httptest.NewRequest(http.MethodPost, "/refresh", nil)
	req.Header.Set("X-Update-Token", testToken)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var summary services.Summary
	if err := json.Unmarshal(rec.Body.Bytes(), &summary); err != nil {
		t.Fatalf("Failed to decode summary: %v", err)
	}
	if summary.SourcesProcessed != 0 {
		t.Errorf("Expected no sources processed, got %d", summary.SourcesProcessed)
	}
}
