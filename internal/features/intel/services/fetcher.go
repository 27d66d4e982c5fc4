package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"ctifeed/internal/core"
	"ctifeed/internal/features/intel/models"
)

const (
	maxSummaryLength = 500
	maxContentLength = 2000
)

// FetcherConfig holds configuration for the fetcher
type FetcherConfig struct {
	UserAgent string
	Timeout   time.Duration
}

// FetcherService retrieves and normalizes feed documents
type FetcherService struct {
	parser *gofeed.Parser
	logger *core.Logger
	config *FetcherConfig
}

// NewFetcherService creates a new fetcher service
func NewFetcherService(logger *core.Logger, config *FetcherConfig) *FetcherService {
	parser := gofeed.NewParser()
	parser.UserAgent = config.UserAgent

	return &FetcherService{
		parser: parser,
		logger: logger,
		config: config,
	}
}

// Fetch retrieves a feed and returns up to maxItems normalized entries. Any
// network or parse failure comes back as an empty slice plus a descriptive
// error; nothing propagates past this boundary.
func (f *FetcherService) Fetch(ctx context.Context, feedURL string, maxItems int) ([]models.Entry, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, f.config.Timeout)
	defer cancel()

	feed, err := f.parser.ParseURLWithContext(feedURL, fetchCtx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed %s: %w", feedURL, err)
	}

	items := feed.Items
	if maxItems > 0 && len(items) > maxItems {
		items = items[:maxItems]
	}

	entries := make([]models.Entry, 0, len(items))
	for _, item := range items {
		entries = append(entries, normalizeItem(item))
	}

	f.logger.Info("Fetched feed", "url", feedURL, "entries", len(entries))
	return entries, nil
}

// normalizeItem maps a raw feed item to a bounded, markup-free entry.
func normalizeItem(item *gofeed.Item) models.Entry {
	title := item.Title
	if title == "" {
		title = "Sin título"
	}

	summary := stripHTML(item.Description)
	content := item.Content
	if content == "" {
		content = item.Description
	}
	content = stripHTML(content)

	entry := models.Entry{
		Title:   title,
		Link:    item.Link,
		Summary: truncate(summary, maxSummaryLength),
		Content: truncate(content, maxContentLength),
	}

	// First available timestamp wins
	switch {
	case item.PublishedParsed != nil:
		entry.Published = item.PublishedParsed
	case item.UpdatedParsed != nil:
		entry.Published = item.UpdatedParsed
	}

	return entry
}

// stripHTML reduces a markup fragment to its text content
func stripHTML(s string) string {
	if s == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(doc.Text())
}

// truncate caps s at n runes
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
