package models

import (
	"time"
)

// Source represents a security-news RSS source
type Source struct {
	ID          int        `json:"id"`
	Name        string     `json:"name"`
	URL         string     `json:"url"`
	Type        string     `json:"type"`
	Region      string     `json:"region"`
	Enabled     bool       `json:"enabled"`
	LastFetched *time.Time `json:"last_fetched"`
}

// SourceCreate represents the data needed to register a new source
type SourceCreate struct {
	Name   string `json:"name" yaml:"name"`
	URL    string `json:"url" yaml:"url"`
	Type   string `json:"type" yaml:"type"`
	Region string `json:"region" yaml:"region"`
}

// SourceCatalog is the on-disk seed file holding the initial source list
type SourceCatalog struct {
	Sources []SourceCreate `yaml:"sources"`
}
