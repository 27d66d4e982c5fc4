package services

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"ctifeed/internal/core"
	"ctifeed/internal/features/intel/models"
)

// SourceService handles feed source persistence
type SourceService struct {
	db     *core.Database
	logger *core.Logger
}

// NewSourceService creates a new source service
func NewSourceService(db *core.Database, logger *core.Logger) *SourceService {
	return &SourceService{
		db:     db,
		logger: logger,
	}
}

// LoadSourceCatalog reads the seed source list from a YAML file
func LoadSourceCatalog(path string) (*models.SourceCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read source catalog: %w", err)
	}

	var catalog models.SourceCatalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("failed to parse source catalog: %w", err)
	}

	return &catalog, nil
}

// Seed registers catalog sources that are not yet present, keyed by URL.
// Existing sources are left untouched.
func (s *SourceService) Seed(ctx context.Context, sources []models.SourceCreate) (int, error) {
	added := 0
	for _, source := range sources {
		var existing int
		err := s.db.QueryRowWithTimeout(ctx, "SELECT COUNT(*) FROM sources WHERE url = ?", source.URL).Scan(&existing)
		if err != nil {
			return added, fmt.Errorf("failed to check source %s: %w", source.URL, err)
		}
		if existing > 0 {
			continue
		}

		if _, err := s.CreateSource(ctx, &source); err != nil {
			return added, err
		}
		added++
	}

	if added > 0 {
		s.logger.Info("Seeded sources", "added", added)
	}
	return added, nil
}

// CreateSource registers a new feed source
func (s *SourceService) CreateSource(ctx context.Context, source *models.SourceCreate) (*models.Source, error) {
	sourceType := source.Type
	if sourceType == "" {
		sourceType = "threat_intel"
	}

	query := `
		INSERT INTO sources (name, url, type, region, enabled)
		VALUES (?, ?, ?, ?, 1)
		RETURNING id
	`

	var id int
	err := s.db.QueryRowWithTimeout(ctx, query, source.Name, source.URL, sourceType, source.Region).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("failed to create source: %w", err)
	}

	s.logger.Info("Created source", "id", id, "name", source.Name, "url", source.URL)
	return &models.Source{
		ID:      id,
		Name:    source.Name,
		URL:     source.URL,
		Type:    sourceType,
		Region:  source.Region,
		Enabled: true,
	}, nil
}

// GetSource retrieves a source by ID
func (s *SourceService) GetSource(ctx context.Context, id int) (*models.Source, error) {
	query := `
		SELECT id, name, url, type, region, enabled, last_fetched
		FROM sources
		WHERE id = ?
	`

	var source models.Source
	var lastFetched sql.NullTime

	err := s.db.QueryRowWithTimeout(ctx, query, id).Scan(
		&source.ID,
		&source.Name,
		&source.URL,
		&source.Type,
		&source.Region,
		&source.Enabled,
		&lastFetched,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, core.NewNotFoundError(fmt.Sprintf("source not found: %d", id), err)
		}
		return nil, fmt.Errorf("failed to get source: %w", err)
	}

	if lastFetched.Valid {
		source.LastFetched = &lastFetched.Time
	}
	return &source, nil
}

// ListSources retrieves sources, optionally only enabled ones
func (s *SourceService) ListSources(ctx context.Context, enabledOnly bool) ([]models.Source, error) {
	query := `
		SELECT id, name, url, type, region, enabled, last_fetched
		FROM sources
	`
	if enabledOnly {
		query += " WHERE enabled = 1"
	}
	query += " ORDER BY id"

	rows, err := s.db.QueryWithTimeout(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query sources: %w", err)
	}
	defer rows.Close()

	var sources []models.Source
	for rows.Next() {
		var source models.Source
		var lastFetched sql.NullTime

		err := rows.Scan(
			&source.ID,
			&source.Name,
			&source.URL,
			&source.Type,
			&source.Region,
			&source.Enabled,
			&lastFetched,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan source: %w", err)
		}

		if lastFetched.Valid {
			source.LastFetched = &lastFetched.Time
		}
		sources = append(sources, source)
	}

	return sources, rows.Err()
}

// UpdateFetchTime stamps a source with the time of its last successful scan
func (s *SourceService) UpdateFetchTime(ctx context.Context, id int) error {
	_, err := s.db.ExecWithTimeout(ctx,
		"UPDATE sources SET last_fetched = ? WHERE id = ?",
		time.Now().Truncate(time.Second), id)
	if err != nil {
		return fmt.Errorf("failed to update source fetch time: %w", err)
	}
	return nil
}

// SetEnabled soft-disables or re-enables a source. Articles are never
// cascade-deleted; a disabled source is simply skipped by scans.
func (s *SourceService) SetEnabled(ctx context.Context, id int, enabled bool) error {
	result, err := s.db.ExecWithTimeout(ctx,
		"UPDATE sources SET enabled = ? WHERE id = ?", enabled, id)
	if err != nil {
		return fmt.Errorf("failed to update source enabled flag: %w", err)
	}

	affected, err := result.RowsAffected()
	if err == nil && affected == 0 {
		return core.NewNotFoundError(fmt.Sprintf("source not found: %d", id), nil)
	}

	s.logger.Info("Updated source enabled flag", "id", id, "enabled", enabled)
	return nil
}
