package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ctifeed/internal/core"
	"ctifeed/internal/features/intel/models"
)

// ErrDuplicateArticle marks an insert rejected by the fingerprint or URL
// unique constraint. Callers treat it as an idempotent no-op, not a failure.
var ErrDuplicateArticle = errors.New("article already exists")

// ArticleService owns article writes. Reads go through the QueryService.
type ArticleService struct {
	db     *core.Database
	logger *core.Logger
}

// NewArticleService creates a new article service
func NewArticleService(db *core.Database, logger *core.Logger) *ArticleService {
	return &ArticleService{
		db:     db,
		logger: logger,
	}
}

// CreateArticle persists a new article. The search index shadow row is
// maintained by triggers, so a single insert keeps both in lockstep.
func (s *ArticleService) CreateArticle(ctx context.Context, article *models.ArticleCreate) (int, error) {
	query := `
		INSERT INTO articles (source_id, title, summary, content, url, published, fingerprint, iocs, tags, severity, threat_type)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`

	var id int
	err := s.db.QueryRowWithTimeout(ctx, query,
		article.SourceID,
		article.Title,
		article.Summary,
		article.Content,
		article.URL,
		article.Published,
		article.Fingerprint,
		joinList(article.IOCs),
		joinList(article.Tags),
		article.Severity,
		article.ThreatType,
	).Scan(&id)

	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrDuplicateArticle
		}
		return 0, fmt.Errorf("failed to create article: %w", err)
	}

	s.logger.Info("Created article", "id", id, "source_id", article.SourceID, "severity", article.Severity)
	return id, nil
}

// ExistsByFingerprint reports whether an article with the given dedup key is
// already stored
func (s *ArticleService) ExistsByFingerprint(ctx context.Context, fingerprint string) (bool, error) {
	var count int
	err := s.db.QueryRowWithTimeout(ctx,
		"SELECT COUNT(*) FROM articles WHERE fingerprint = ?", fingerprint).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check fingerprint: %w", err)
	}
	return count > 0, nil
}

// ListFingerprints returns every stored dedup key, used to warm the
// in-memory duplicate filter at startup
func (s *ArticleService) ListFingerprints(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryWithTimeout(ctx, "SELECT fingerprint FROM articles WHERE fingerprint IS NOT NULL")
	if err != nil {
		return nil, fmt.Errorf("failed to query fingerprints: %w", err)
	}
	defer rows.Close()

	var fingerprints []string
	for rows.Next() {
		var fp string
		if err := rows.Scan(&fp); err != nil {
			return nil, fmt.Errorf("failed to scan fingerprint: %w", err)
		}
		fingerprints = append(fingerprints, fp)
	}

	return fingerprints, rows.Err()
}

// DeleteArticle removes an article; the index shadow row goes with it via
// the delete trigger. The pipeline never calls this, it exists for admin
// cleanup.
func (s *ArticleService) DeleteArticle(ctx context.Context, id int) error {
	result, err := s.db.ExecWithTimeout(ctx, "DELETE FROM articles WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete article: %w", err)
	}

	affected, err := result.RowsAffected()
	if err == nil && affected == 0 {
		return core.NewNotFoundError(fmt.Sprintf("article not found: %d", id), nil)
	}

	s.logger.Info("Deleted article", "id", id)
	return nil
}

// isUniqueViolation detects SQLite unique constraint failures
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// joinList serializes a list for the comma-separated storage columns
func joinList(items []string) string {
	return strings.Join(items, ",")
}

// splitList parses a comma-separated storage column
func splitList(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}
