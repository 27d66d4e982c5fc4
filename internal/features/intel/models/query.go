package models

// SearchParams represents filter parameters for article queries
type SearchParams struct {
	Query      string `json:"query"`
	SourceID   *int   `json:"source_id"`
	MaxAgeDays *int   `json:"max_age_days"`
	Limit      int    `json:"limit"`
	Offset     int    `json:"offset"`
}

// Stats represents aggregate counts for the dashboard boundary
type Stats struct {
	TotalArticles    int `json:"total_articles"`
	TotalSources     int `json:"total_sources"`
	ArticlesToday    int `json:"articles_today"`
	ArticlesWithIOCs int `json:"articles_with_iocs"`
}
