package models

import "time"

// JobRecord is one normalized job posting returned by a platform scraper.
type JobRecord struct {
	Title       string    `json:"title"`
	Company     string    `json:"company"`
	Location    string    `json:"location"`
	Salary      string    `json:"salary,omitempty"`
	URL         string    `json:"url"`
	Description string    `json:"description,omitempty"`
	Platform    string    `json:"platform"`
	SourceID    string    `json:"source_id,omitempty"`
	PostedAt    time.Time `json:"posted_at,omitempty"`
}
