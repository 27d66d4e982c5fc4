package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"ctifeed/internal/core"
	"ctifeed/internal/features/intel/models"
)

// ftsOperators are the explicit query operators that disable the bare-term
// prefix rewrite.
var ftsOperators = []string{`"`, " AND ", " OR ", " NOT ", " NEAR ", "*"}

// QueryService serves paginated, filterable article reads. Ranked full-text
// search is used when the index is available; otherwise, or when a ranked
// query fails, it degrades to substring matching ordered by recency.
type QueryService struct {
	db     *core.Database
	index  *SearchIndex
	logger *core.Logger
}

// NewQueryService creates a new query service
func NewQueryService(db *core.Database, index *SearchIndex, logger *core.Logger) *QueryService {
	return &QueryService{
		db:     db,
		index:  index,
		logger: logger,
	}
}

// buildMatchQuery rewrites bare terms into prefix-match form so naive
// keyword queries still match partial words. Queries that already carry
// explicit operators pass through untouched.
func buildMatchQuery(query string) string {
	q := strings.TrimSpace(query)
	for _, op := range ftsOperators {
		if strings.Contains(q, op) {
			return q
		}
	}

	terms := strings.Fields(q)
	for i, term := range terms {
		terms[i] = term + "*"
	}
	return strings.Join(terms, " ")
}

// Search returns one page of matching articles
func (s *QueryService) Search(ctx context.Context, params *models.SearchParams) ([]models.Article, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = 50
	}

	if params.Query != "" && s.index.Available() {
		articles, err := s.searchRanked(ctx, params, limit)
		if err == nil {
			searchQueries.WithLabelValues("fts").Inc()
			return articles, nil
		}
		s.logger.Warn("Ranked search failed, falling back to substring match", "error", err)
	}

	searchQueries.WithLabelValues("like").Inc()
	return s.searchSubstring(ctx, params, limit)
}

// searchRanked runs the FTS query ordered by relevance score ascending
// (bm25: lower is better) with recency as the tie-break
func (s *QueryService) searchRanked(ctx context.Context, params *models.SearchParams, limit int) ([]models.Article, error) {
	query := `
		SELECT a.id, a.source_id, s.name, a.title, a.summary, a.content, a.url,
		       a.published, a.fingerprint, a.iocs, a.tags, a.severity, a.threat_type, a.created_at
		FROM articles_fts
		JOIN articles a ON a.id = articles_fts.rowid
		JOIN sources s ON a.source_id = s.id
		WHERE articles_fts MATCH ?
	`
	args := []interface{}{buildMatchQuery(params.Query)}
	query, args = appendFilters(query, args, params, "a")
	query += " ORDER BY bm25(articles_fts) ASC, a.published DESC LIMIT ? OFFSET ?"
	args = append(args, limit, params.Offset)

	rows, err := s.db.QueryWithTimeout(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ranked article query failed: %w", err)
	}
	defer rows.Close()

	return scanArticles(rows)
}

// searchSubstring is the fallback path: LIKE across title, content, and
// summary, ordered purely by recency descending
func (s *QueryService) searchSubstring(ctx context.Context, params *models.SearchParams, limit int) ([]models.Article, error) {
	query := `
		SELECT a.id, a.source_id, s.name, a.title, a.summary, a.content, a.url,
		       a.published, a.fingerprint, a.iocs, a.tags, a.severity, a.threat_type, a.created_at
		FROM articles a
		JOIN sources s ON a.source_id = s.id
		WHERE 1=1
	`
	args := []interface{}{}

	if params.Query != "" {
		query += " AND (a.title LIKE ? OR a.content LIKE ? OR a.summary LIKE ?)"
		term := "%" + params.Query + "%"
		args = append(args, term, term, term)
	}

	query, args = appendFilters(query, args, params, "a")
	query += " ORDER BY a.published DESC LIMIT ? OFFSET ?"
	args = append(args, limit, params.Offset)

	rows, err := s.db.QueryWithTimeout(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query articles: %w", err)
	}
	defer rows.Close()

	return scanArticles(rows)
}

// Count reports the total number of matches for the same filters, for
// pagination math
func (s *QueryService) Count(ctx context.Context, params *models.SearchParams) (int, error) {
	if params.Query != "" && s.index.Available() {
		query := `
			SELECT COUNT(1)
			FROM articles_fts
			JOIN articles a ON a.id = articles_fts.rowid
			WHERE articles_fts MATCH ?
		`
		args := []interface{}{buildMatchQuery(params.Query)}
		query, args = appendFilters(query, args, params, "a")

		var count int
		err := s.db.QueryRowWithTimeout(ctx, query, args...).Scan(&count)
		if err == nil {
			return count, nil
		}
		s.logger.Warn("Ranked count failed, falling back to substring match", "error", err)
	}

	query := "SELECT COUNT(1) FROM articles a WHERE 1=1"
	args := []interface{}{}

	if params.Query != "" {
		query += " AND (a.title LIKE ? OR a.content LIKE ? OR a.summary LIKE ?)"
		term := "%" + params.Query + "%"
		args = append(args, term, term, term)
	}

	query, args = appendFilters(query, args, params, "a")

	var count int
	if err := s.db.QueryRowWithTimeout(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count articles: %w", err)
	}
	return count, nil
}

// Stats returns aggregate counts for the dashboard boundary
func (s *QueryService) Stats(ctx context.Context) (*models.Stats, error) {
	stats := &models.Stats{}

	err := s.db.QueryRowWithTimeout(ctx, "SELECT COUNT(*) FROM articles").Scan(&stats.TotalArticles)
	if err != nil {
		return nil, fmt.Errorf("failed to count articles: %w", err)
	}

	err = s.db.QueryRowWithTimeout(ctx, "SELECT COUNT(*) FROM sources WHERE enabled = 1").Scan(&stats.TotalSources)
	if err != nil {
		return nil, fmt.Errorf("failed to count sources: %w", err)
	}

	todayStart := startOfDay(time.Now().In(reportZone))
	err = s.db.QueryRowWithTimeout(ctx,
		"SELECT COUNT(*) FROM articles WHERE published >= ?", todayStart).Scan(&stats.ArticlesToday)
	if err != nil {
		return nil, fmt.Errorf("failed to count today's articles: %w", err)
	}

	err = s.db.QueryRowWithTimeout(ctx,
		"SELECT COUNT(*) FROM articles WHERE iocs != ''").Scan(&stats.ArticlesWithIOCs)
	if err != nil {
		return nil, fmt.Errorf("failed to count articles with IOCs: %w", err)
	}

	return stats, nil
}

// appendFilters adds the source and recency conditions shared by both search
// modes
func appendFilters(query string, args []interface{}, params *models.SearchParams, alias string) (string, []interface{}) {
	if params.SourceID != nil {
		query += fmt.Sprintf(" AND %s.source_id = ?", alias)
		args = append(args, *params.SourceID)
	}
	if params.MaxAgeDays != nil {
		cutoff := time.Now().In(reportZone).AddDate(0, 0, -*params.MaxAgeDays).Truncate(time.Second)
		query += fmt.Sprintf(" AND %s.published >= ?", alias)
		args = append(args, cutoff)
	}
	return query, args
}

// scanArticles maps result rows to article models
func scanArticles(rows *sql.Rows) ([]models.Article, error) {
	var articles []models.Article
	for rows.Next() {
		var article models.Article
		var fingerprint, iocs, tags, threatType sql.NullString
		var published sql.NullTime

		err := rows.Scan(
			&article.ID,
			&article.SourceID,
			&article.SourceName,
			&article.Title,
			&article.Summary,
			&article.Content,
			&article.URL,
			&published,
			&fingerprint,
			&iocs,
			&tags,
			&article.Severity,
			&threatType,
			&article.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan article: %w", err)
		}

		if published.Valid {
			article.Published = published.Time
		}
		article.Fingerprint = fingerprint.String
		article.ThreatType = threatType.String
		article.IOCs = splitList(iocs.String)
		article.Tags = splitList(tags.String)

		articles = append(articles, article)
	}

	return articles, rows.Err()
}

// startOfDay truncates t to midnight in its own location
func startOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}
