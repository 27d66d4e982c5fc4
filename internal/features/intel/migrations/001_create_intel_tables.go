package migrations

import (
	"ctifeed/internal/core"
)

// Migration001CreateIntelTables creates the sources and articles tables
var Migration001CreateIntelTables = core.Migration{
	Version:     1,
	Name:        "create_intel_tables",
	Description: "Create threat-intel source and article tables",
	UpSQL: `
		-- Feed sources
		CREATE TABLE IF NOT EXISTS sources (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			url TEXT NOT NULL UNIQUE,
			type TEXT DEFAULT 'threat_intel',
			region TEXT,
			enabled BOOLEAN DEFAULT 1,
			last_fetched TIMESTAMP
		);

		-- Ingested articles
		CREATE TABLE IF NOT EXISTS articles (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			source_id INTEGER NOT NULL REFERENCES sources(id),
			title TEXT NOT NULL,
			summary TEXT,
			content TEXT,
			url TEXT UNIQUE,
			published TIMESTAMP,
			fingerprint TEXT UNIQUE,
			iocs TEXT,
			tags TEXT,
			severity TEXT DEFAULT 'info',
			threat_type TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);

		CREATE INDEX IF NOT EXISTS idx_sources_enabled ON sources(enabled);
		CREATE INDEX IF NOT EXISTS idx_articles_source_id ON articles(source_id);
		CREATE INDEX IF NOT EXISTS idx_articles_published ON articles(published);
		CREATE INDEX IF NOT EXISTS idx_articles_fingerprint ON articles(fingerprint);
		CREATE INDEX IF NOT EXISTS idx_articles_severity ON articles(severity);
	`,
	DownSQL: `
		DROP INDEX IF EXISTS idx_articles_severity;
		DROP INDEX IF EXISTS idx_articles_fingerprint;
		DROP INDEX IF EXISTS idx_articles_published;
		DROP INDEX IF EXISTS idx_articles_source_id;
		DROP INDEX IF EXISTS idx_sources_enabled;

		DROP TABLE IF EXISTS articles;
		DROP TABLE IF EXISTS sources;
	`,
}
