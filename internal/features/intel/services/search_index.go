package services

import (
	"context"

	"ctifeed/internal/core"
)

// SearchIndex manages the FTS5 shadow table that mirrors the live article
// set. When the SQLite build lacks FTS5 the index simply reports itself
// unavailable and the query service falls back to substring matching.
type SearchIndex struct {
	db        *core.Database
	logger    *core.Logger
	available bool
}

// NewSearchIndex creates the index manager
func NewSearchIndex(db *core.Database, logger *core.Logger) *SearchIndex {
	return &SearchIndex{
		db:     db,
		logger: logger,
	}
}

// Setup recreates the FTS table, its sync triggers, and backfills it from
// the articles table. Recreating at startup guarantees the tokenizer options
// are current. Failure is not an error: the flag flips off and is logged
// once.
func (i *SearchIndex) Setup(ctx context.Context) error {
	statements := []string{
		`DROP TRIGGER IF EXISTS articles_ai`,
		`DROP TRIGGER IF EXISTS articles_ad`,
		`DROP TRIGGER IF EXISTS articles_au`,
		`DROP TABLE IF EXISTS articles_fts`,
		`CREATE VIRTUAL TABLE articles_fts
		 USING fts5(
			title, summary, content, tags,
			content='articles', content_rowid='id',
			prefix='2 3',
			tokenize = 'unicode61 remove_diacritics 2'
		 )`,
		`CREATE TRIGGER IF NOT EXISTS articles_ai AFTER INSERT ON articles BEGIN
			INSERT INTO articles_fts(rowid, title, summary, content, tags)
			VALUES (new.id, new.title, new.summary, new.content, new.tags);
		 END`,
		`CREATE TRIGGER IF NOT EXISTS articles_ad AFTER DELETE ON articles BEGIN
			INSERT INTO articles_fts(articles_fts, rowid, title, summary, content, tags)
			VALUES ('delete', old.id, old.title, old.summary, old.content, old.tags);
		 END`,
		`CREATE TRIGGER IF NOT EXISTS articles_au AFTER UPDATE ON articles BEGIN
			INSERT INTO articles_fts(articles_fts, rowid, title, summary, content, tags)
			VALUES ('delete', old.id, old.title, old.summary, old.content, old.tags);
			INSERT INTO articles_fts(rowid, title, summary, content, tags)
			VALUES (new.id, new.title, new.summary, new.content, new.tags);
		 END`,
		`INSERT INTO articles_fts(rowid, title, summary, content, tags)
		 SELECT id, title, summary, content, tags FROM articles`,
	}

	for _, stmt := range statements {
		if _, err := i.db.ExecWithTimeout(ctx, stmt); err != nil {
			i.available = false
			i.logger.Warn("Full-text index unavailable, falling back to substring search", "error", err)
			return nil
		}
	}

	i.available = true
	i.logger.Info("Full-text index ready")
	return nil
}

// Available reports whether ranked full-text search can be used
func (i *SearchIndex) Available() bool {
	return i.available
}

// Disable forces substring fallback; used when an FTS query fails at runtime
// and by tests
func (i *SearchIndex) Disable() {
	i.available = false
}
