package models

import (
	"time"
)

// Article represents a normalized, classified security-news article
type Article struct {
	ID          int       `json:"id"`
	SourceID    int       `json:"source_id"`
	SourceName  string    `json:"source_name,omitempty"`
	Title       string    `json:"title"`
	Summary     string    `json:"summary"`
	Content     string    `json:"content"`
	URL         string    `json:"url"`
	Published   time.Time `json:"published"`
	Fingerprint string    `json:"fingerprint"`
	IOCs        []string  `json:"iocs"`
	Tags        []string  `json:"tags"`
	Severity    string    `json:"severity"`
	ThreatType  string    `json:"threat_type"`
	CreatedAt   time.Time `json:"created_at"`
}

// ArticleCreate represents the data needed to persist a new article
type ArticleCreate struct {
	SourceID    int       `json:"source_id"`
	Title       string    `json:"title"`
	Summary     string    `json:"summary"`
	Content     string    `json:"content"`
	URL         string    `json:"url"`
	Published   time.Time `json:"published"`
	Fingerprint string    `json:"fingerprint"`
	IOCs        []string  `json:"iocs"`
	Tags        []string  `json:"tags"`
	Severity    string    `json:"severity"`
	ThreatType  string    `json:"threat_type"`
}
