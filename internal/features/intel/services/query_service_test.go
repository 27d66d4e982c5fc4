package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"ctifeed/internal/core"
	"ctifeed/internal/features/intel/models"
)

// seedQueryFixture fills a migrated database with a known article set:
// 57 articles on the first source (every third one about ransomware, the
// rest about phishing) and 3 on the second. The two most recent articles
// are published now; everything else is days old.
func seedQueryFixture(t *testing.T, db *core.Database) (*QueryService, *models.Source, *models.Source) {
	t.Helper()

	logger := core.NewLogger()
	articles := NewArticleService(db, logger)
	sources := NewSourceService(db, logger)

	index := NewSearchIndex(db, logger)
	if err := index.Setup(context.Background()); err != nil {
		t.Fatalf("Failed to set up search index: %v", err)
	}
	if !index.Available() {
		t.Fatal("Expected the full-text index to be available")
	}

	query := NewQueryService(db, index, logger)

	sourceA := createTestSource(t, sources, "query-a")
	sourceB := createTestSource(t, sources, "query-b")

	now := time.Now().In(reportZone).Truncate(time.Second)

	for i := 0; i < 57; i++ {
		topic := "Phishing campaign"
		if i%3 == 0 {
			topic = "Ransomware outbreak"
		}

		published := now.Add(-time.Duration(72+i) * time.Hour)
		if i < 2 {
			published = now
		}

		article := &models.ArticleCreate{
			SourceID:    sourceA.ID,
			Title:       fmt.Sprintf("%s number %d", topic, i),
			Summary:     "Security incident summary",
			Content:     "Detailed analysis of the incident and its impact on affected systems",
			URL:         fmt.Sprintf("https://example.com/q/a/%d", i),
			Published:   published,
			Fingerprint: Fingerprint(fmt.Sprintf("%s number %d", topic, i), fmt.Sprintf("https://example.com/q/a/%d", i)),
			Tags:        []string{"threat_intel"},
			Severity:    "medium",
			ThreatType:  "Phishing",
		}
		if i < 5 {
			article.IOCs = []string{fmt.Sprintf("CVE-2024-%04d", 1000+i)}
		}

		if _, err := articles.CreateArticle(context.Background(), article); err != nil {
			t.Fatalf("Failed to seed article %d: %v", i, err)
		}
	}

	for i := 0; i < 3; i++ {
		article := &models.ArticleCreate{
			SourceID:    sourceB.ID,
			Title:       fmt.Sprintf("Botnet takedown report %d", i),
			Summary:     "Joint operation summary",
			Content:     "Law enforcement disrupted command and control infrastructure",
			URL:         fmt.Sprintf("https://example.com/q/b/%d", i),
			Published:   now.Add(-time.Duration(100+i) * time.Hour),
			Fingerprint: Fingerprint(fmt.Sprintf("Botnet takedown report %d", i), fmt.Sprintf("https://example.com/q/b/%d", i)),
			Tags:        []string{"threat_intel"},
			Severity:    "medium",
			ThreatType:  "Botnet",
		}
		if _, err := articles.CreateArticle(context.Background(), article); err != nil {
			t.Fatalf("Failed to seed article: %v", err)
		}
	}

	return query, sourceA, sourceB
}

func TestSearchPagination(t *testing.T) {
	db := newTestDB(t)
	query, sourceA, _ := seedQueryFixture(t, db)

	total, err := query.Count(context.Background(), &models.SearchParams{})
	if err != nil {
		t.Fatalf("Failed to count articles: %v", err)
	}
	if total != 60 {
		t.Fatalf("Expected 60 articles, got %d", total)
	}

	// 57 matches under the source filter: a 25-item page 1 is full, page 3
	// holds the remaining 7, and the count is the same on every page
	params := &models.SearchParams{SourceID: &sourceA.ID, Limit: 25}

	filtered, err := query.Count(context.Background(), params)
	if err != nil {
		t.Fatalf("Failed to count filtered articles: %v", err)
	}
	if filtered != 57 {
		t.Fatalf("Expected 57 filtered articles, got %d", filtered)
	}

	page1, err := query.Search(context.Background(), params)
	if err != nil {
		t.Fatalf("Failed to fetch page 1: %v", err)
	}
	if len(page1) != 25 {
		t.Errorf("Expected 25 articles on page 1, got %d", len(page1))
	}

	page3Params := *params
	page3Params.Offset = 50
	page3, err := query.Search(context.Background(), &page3Params)
	if err != nil {
		t.Fatalf("Failed to fetch page 3: %v", err)
	}
	if len(page3) != 7 {
		t.Errorf("Expected 7 articles on page 3, got %d", len(page3))
	}

	again, err := query.Count(context.Background(), params)
	if err != nil {
		t.Fatalf("Failed to re-count: %v", err)
	}
	if again != 57 {
		t.Errorf("Expected count unchanged by paging, got %d", again)
	}
}

func TestSearchOrderedByRecency(t *testing.T) {
	db := newTestDB(t)
	query, _, _ := seedQueryFixture(t, db)

	articles, err := query.Search(context.Background(), &models.SearchParams{Limit: 60})
	if err != nil {
		t.Fatalf("Failed to search: %v", err)
	}

	for i := 1; i < len(articles); i++ {
		if articles[i].Published.After(articles[i-1].Published) {
			t.Fatalf("Articles out of recency order at index %d", i)
		}
	}
}

func TestSearchFullText(t *testing.T) {
	db := newTestDB(t)
	query, _, _ := seedQueryFixture(t, db)

	articles, err := query.Search(context.Background(), &models.SearchParams{Query: "ransomware", Limit: 60})
	if err != nil {
		t.Fatalf("Failed to search: %v", err)
	}

	// Every third of the 57 sourceA articles: indexes 0,3,...,54
	if len(articles) != 19 {
		t.Fatalf("Expected 19 ransomware articles, got %d", len(articles))
	}
	for _, article := range articles {
		if article.SourceName == "" {
			t.Error("Expected source name to be joined into results")
		}
	}

	count, err := query.Count(context.Background(), &models.SearchParams{Query: "ransomware"})
	if err != nil {
		t.Fatalf("Failed to count: %v", err)
	}
	if count != 19 {
		t.Errorf("Expected count 19, got %d", count)
	}
}

func TestSearchPrefixMatching(t *testing.T) {
	db := newTestDB(t)
	query, _, _ := seedQueryFixture(t, db)

	// Bare terms are rewritten to prefix form, so a partial word matches
	articles, err := query.Search(context.Background(), &models.SearchParams{Query: "ransom", Limit: 60})
	if err != nil {
		t.Fatalf("Failed to search: %v", err)
	}
	if len(articles) != 19 {
		t.Errorf("Expected prefix query to match 19 articles, got %d", len(articles))
	}
}

func TestSearchFallbackWithoutIndex(t *testing.T) {
	db := newTestDB(t)
	query, _, _ := seedQueryFixture(t, db)

	query.index.Disable()

	articles, err := query.Search(context.Background(), &models.SearchParams{Query: "Ransomware", Limit: 60})
	if err != nil {
		t.Fatalf("Failed to search without index: %v", err)
	}
	if len(articles) != 19 {
		t.Fatalf("Expected 19 substring matches, got %d", len(articles))
	}

	// Fallback results are ordered purely by recency
	for i := 1; i < len(articles); i++ {
		if articles[i].Published.After(articles[i-1].Published) {
			t.Fatalf("Fallback results out of recency order at index %d", i)
		}
	}

	count, err := query.Count(context.Background(), &models.SearchParams{Query: "Ransomware"})
	if err != nil {
		t.Fatalf("Failed to count without index: %v", err)
	}
	if count != 19 {
		t.Errorf("Expected fallback count 19, got %d", count)
	}
}

func TestSearchSourceFilter(t *testing.T) {
	db := newTestDB(t)
	query, _, sourceB := seedQueryFixture(t, db)

	params := &models.SearchParams{SourceID: &sourceB.ID, Limit: 60}
	articles, err := query.Search(context.Background(), params)
	if err != nil {
		t.Fatalf("Failed to search: %v", err)
	}
	if len(articles) != 3 {
		t.Errorf("Expected 3 articles from the second source, got %d", len(articles))
	}
}

func TestSearchMaxAgeFilter(t *testing.T) {
	db := newTestDB(t)
	query, _, _ := seedQueryFixture(t, db)

	days := 1
	articles, err := query.Search(context.Background(), &models.SearchParams{MaxAgeDays: &days, Limit: 60})
	if err != nil {
		t.Fatalf("Failed to search: %v", err)
	}

	// Only the two articles published right now fall within one day
	if len(articles) != 2 {
		t.Errorf("Expected 2 recent articles, got %d", len(articles))
	}
}

func TestStats(t *testing.T) {
	db := newTestDB(t)
	query, _, _ := seedQueryFixture(t, db)

	stats, err := query.Stats(context.Background())
	if err != nil {
		t.Fatalf("Failed to compute stats: %v", err)
	}

	if stats.TotalArticles != 60 {
		t.Errorf("Expected 60 total articles, got %d", stats.TotalArticles)
	}
	if stats.TotalSources != 2 {
		t.Errorf("Expected 2 enabled sources, got %d", stats.TotalSources)
	}
	if stats.ArticlesToday != 2 {
		t.Errorf("Expected 2 articles today, got %d", stats.ArticlesToday)
	}
	if stats.ArticlesWithIOCs != 5 {
		t.Errorf("Expected 5 articles with indicators, got %d", stats.ArticlesWithIOCs)
	}
}

func TestBuildMatchQuery(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"ransomware", "ransomware*"},
		{"supply chain", "supply* chain*"},
		{`"exact phrase"`, `"exact phrase"`},
		{"cats AND dogs", "cats AND dogs"},
		{"prefix*", "prefix*"},
	}

	for _, tc := range cases {
		if got := buildMatchQuery(tc.in); got != tc.want {
			t.Errorf("buildMatchQuery(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
