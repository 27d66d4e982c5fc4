package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/willf/bloom"

	"ctifeed/internal/core"
	"ctifeed/internal/features/intel/models"
)

// reportZone is the fixed offset all published timestamps are normalized to
// before storage and comparison.
var reportZone = time.FixedZone("UTC-5", -5*60*60)

// futureDateTolerance absorbs feed clock skew; anything published further
// ahead than this is rejected.
const futureDateTolerance = 24 * time.Hour

// Enrichment input caps, per field.
const (
	maxTitleTranslate   = 500
	maxSummaryTranslate = 500
	maxContentTranslate = 1000
)

// Outcome is the terminal classification of one (source, entry) pair.
type Outcome string

const (
	OutcomeAccepted    Outcome = "accepted"
	OutcomeFiltered    Outcome = "rejected-filtered"
	OutcomeFutureDated Outcome = "rejected-future-date"
	OutcomeDuplicate   Outcome = "rejected-duplicate"
	OutcomeError       Outcome = "error"
)

// Result is the terminal state of processing one entry
type Result struct {
	Outcome   Outcome `json:"outcome"`
	Reason    string  `json:"reason,omitempty"`
	ArticleID int     `json:"article_id,omitempty"`
}

// SourceReport aggregates the outcomes of one source's scan
type SourceReport struct {
	SourceID    int    `json:"source_id"`
	Name        string `json:"name"`
	NewArticles int    `json:"new_articles"`
	Duplicates  int    `json:"duplicates"`
	Rejected    int    `json:"rejected"`
	Errors      int    `json:"errors"`
	Error       string `json:"error,omitempty"`
}

// Summary is the only externally reported detail of a batch run
type Summary struct {
	SourcesProcessed int            `json:"sources_processed"`
	NewArticles      int            `json:"new_articles"`
	Sources          []SourceReport `json:"sources"`
}

// IngestConfig holds orchestrator configuration
type IngestConfig struct {
	MaxArticlesPerSource int
	TranslatePause       time.Duration
}

// IngestService is the ingestion orchestrator: fetch, filter, classify,
// extract IOCs, fingerprint, persist. Sources are processed sequentially,
// entries within a source sequentially; a failure in one source never aborts
// the others.
type IngestService struct {
	fetcher    *FetcherService
	articles   *ArticleService
	sources    *SourceService
	filter     ContentFilter
	classifier ThreatClassifier
	extractor  IOCExtractor
	translator Translator
	logger     *core.Logger
	config     *IngestConfig

	// seen is a probabilistic fast path over stored fingerprints. The
	// store's unique constraint stays authoritative; a bloom hit only
	// triggers an exact existence check.
	seen *bloom.BloomFilter
}

// NewIngestService creates the orchestrator
func NewIngestService(
	fetcher *FetcherService,
	articles *ArticleService,
	sources *SourceService,
	translator Translator,
	logger *core.Logger,
	config *IngestConfig,
) *IngestService {
	return &IngestService{
		fetcher:    fetcher,
		articles:   articles,
		sources:    sources,
		translator: translator,
		logger:     logger,
		config:     config,
		seen:       bloom.NewWithEstimates(100000, 0.001),
	}
}

// WarmSeen loads every stored fingerprint into the duplicate fast path
func (s *IngestService) WarmSeen(ctx context.Context) error {
	fingerprints, err := s.articles.ListFingerprints(ctx)
	if err != nil {
		return fmt.Errorf("failed to warm duplicate filter: %w", err)
	}
	for _, fp := range fingerprints {
		s.seen.Add([]byte(fp))
	}
	return nil
}

// ProcessEntry runs one entry through the pipeline to a terminal outcome
func (s *IngestService) ProcessEntry(ctx context.Context, source *models.Source, entry *models.Entry) Result {
	result := s.processEntry(ctx, source, entry)
	ingestEntries.WithLabelValues(string(result.Outcome)).Inc()
	return result
}

func (s *IngestService) processEntry(ctx context.Context, source *models.Source, entry *models.Entry) Result {
	accepted, reason := s.filter.Accept(entry.Title, entry.Summary)
	if !accepted {
		return Result{Outcome: OutcomeFiltered, Reason: reason}
	}

	published, ok := s.resolvePublished(entry.Published)
	if !ok {
		return Result{
			Outcome: OutcomeFutureDated,
			Reason:  fmt.Sprintf("future publication date rejected: %s", entry.Published.Format("2006-01-02")),
		}
	}

	// The dedup key and the IOC/classification inputs come from the
	// original text, before any enrichment touches it.
	fingerprint := Fingerprint(entry.Title, entry.Link)
	if s.seen.Test([]byte(fingerprint)) {
		exists, err := s.articles.ExistsByFingerprint(ctx, fingerprint)
		if err == nil && exists {
			return Result{Outcome: OutcomeDuplicate, Reason: "fingerprint already stored"}
		}
	}

	iocs := s.extractor.Extract(entry.Title + " " + entry.Content)
	classification := s.classifier.Classify(entry.Title, entry.Content)

	tags := []string{"threat_intel"}
	if len(iocs) > 0 {
		tags = append(tags, "iocs")
	}

	article := &models.ArticleCreate{
		SourceID:    source.ID,
		Title:       s.enrich(ctx, entry.Title, maxTitleTranslate),
		Summary:     s.enrich(ctx, entry.Summary, maxSummaryTranslate),
		Content:     s.enrich(ctx, entry.Content, maxContentTranslate),
		URL:         entry.Link,
		Published:   published,
		Fingerprint: fingerprint,
		IOCs:        iocs,
		Tags:        tags,
		Severity:    classification.Severity,
		ThreatType:  classification.Type,
	}

	id, err := s.articles.CreateArticle(ctx, article)
	if err != nil {
		if errors.Is(err, ErrDuplicateArticle) {
			s.seen.Add([]byte(fingerprint))
			return Result{Outcome: OutcomeDuplicate, Reason: "fingerprint already stored"}
		}
		return Result{Outcome: OutcomeError, Reason: err.Error()}
	}

	s.seen.Add([]byte(fingerprint))
	return Result{Outcome: OutcomeAccepted, ArticleID: id}
}

// resolvePublished normalizes the publication timestamp to the report zone.
// A missing timestamp defaults to now; a timestamp beyond the skew tolerance
// fails the check.
func (s *IngestService) resolvePublished(published *time.Time) (time.Time, bool) {
	now := time.Now().In(reportZone).Truncate(time.Second)
	if published == nil {
		return now, true
	}

	normalized := published.In(reportZone).Truncate(time.Second)
	if normalized.After(now.Add(futureDateTolerance)) {
		return time.Time{}, false
	}
	return normalized, true
}

// enrich translates text into the display language, best effort. Any
// failure, including an absent service, falls back to the original text.
// The pause between calls keeps a rate-limited service happy.
func (s *IngestService) enrich(ctx context.Context, text string, maxLen int) string {
	if s.translator.TargetLanguage() == "" || text == "" {
		return text
	}

	translated, err := s.translator.Translate(ctx, truncate(text, maxLen))
	if s.config.TranslatePause > 0 {
		time.Sleep(s.config.TranslatePause)
	}
	if err != nil {
		s.logger.Debug("Enrichment failed, keeping original text", "error", err)
		return text
	}
	return translated
}

// UpdateSource scans one source: fetch, then process every entry in order,
// then stamp the fetch time
func (s *IngestService) UpdateSource(ctx context.Context, source *models.Source) SourceReport {
	report := SourceReport{SourceID: source.ID, Name: source.Name}

	entries, err := s.fetcher.Fetch(ctx, source.URL, s.config.MaxArticlesPerSource)
	if err != nil {
		ingestSourceErrors.Inc()
		report.Error = err.Error()
		s.logger.Error("Source scan failed", "source", source.Name, "error", err)
		return report
	}

	for i := range entries {
		result := s.ProcessEntry(ctx, source, &entries[i])
		switch result.Outcome {
		case OutcomeAccepted:
			report.NewArticles++
		case OutcomeDuplicate:
			report.Duplicates++
		case OutcomeFiltered, OutcomeFutureDated:
			report.Rejected++
		case OutcomeError:
			report.Errors++
			s.logger.Error("Entry processing failed", "source", source.Name, "link", entries[i].Link, "reason", result.Reason)
		}
	}

	if err := s.sources.UpdateFetchTime(ctx, source.ID); err != nil {
		s.logger.Error("Failed to stamp source fetch time", "source_id", source.ID, "error", err)
	}

	s.logger.Info("Source scan completed",
		"source", source.Name,
		"new", report.NewArticles,
		"duplicates", report.Duplicates,
		"rejected", report.Rejected,
		"errors", report.Errors)
	return report
}

// UpdateAll scans every enabled source sequentially. Per-source failures are
// recorded in the summary and never abort the batch; partial results from
// earlier sources are retained.
func (s *IngestService) UpdateAll(ctx context.Context) (*Summary, error) {
	sources, err := s.sources.ListSources(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list sources: %w", err)
	}

	summary := &Summary{SourcesProcessed: len(sources)}
	for i := range sources {
		report := s.UpdateSource(ctx, &sources[i])
		summary.NewArticles += report.NewArticles
		summary.Sources = append(summary.Sources, report)
	}

	s.logger.Info("Scan completed", "sources", summary.SourcesProcessed, "new_articles", summary.NewArticles)
	return summary, nil
}
