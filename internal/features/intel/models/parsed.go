package models

import (
	"time"
)

// Entry is a normalized feed entry before filtering and classification.
// Summary and Content have markup stripped and are size-capped by the
// fetcher; Published is nil when the feed carried no usable timestamp.
type Entry struct {
	Title     string
	Link      string
	Summary   string
	Content   string
	Published *time.Time
}
