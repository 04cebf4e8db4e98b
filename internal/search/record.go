package search

import "time"

// Record is the canonical, schema-fixed representation of one result item.
// Every field is populated by normalization, even when the source carried no
// value for it.
type Record struct {
	Source        string     `json:"source"`
	Title         string     `json:"title"`
	Body          string     `json:"body"`
	Author        string     `json:"author"`
	Date          *time.Time `json:"date"` // UTC; nil when absent or unparseable
	URL           string     `json:"url"`
	Score         float64    `json:"score"`
	CommentsCount int        `json:"comments_count"`
	Tags          []string   `json:"tags"`
}

// ResultSet is an ordered collection of canonical records produced by one
// search invocation.
type ResultSet []Record

// SourceOutcome summarises one provider's part of a search.
type SourceOutcome struct {
	Success           bool    `json:"success"`
	Count             int     `json:"count"`
	SearchTimeSeconds float64 `json:"search_time_seconds"`
	Error             string  `json:"error,omitempty"`
	ScraperConfigured bool    `json:"scraper_configured"`
}

// Metadata describes a whole search invocation. SourceResults carries one
// outcome per source that was actually attempted; sources rejected before
// fan-out are simply absent.
type Metadata struct {
	Query             string                   `json:"query"`
	SourcesSearched   []string                 `json:"sources_searched"`
	TotalResults      int                      `json:"total_results"`
	SearchTimeSeconds float64                  `json:"search_time_seconds"`
	SearchTimestamp   time.Time                `json:"search_timestamp"`
	SourceResults     map[string]SourceOutcome `json:"source_results"`
	Error             string                   `json:"error,omitempty"`
}

// SourceStatus reports an adapter's configuration state for display.
type SourceStatus struct {
	Name       string `json:"name"`
	Configured bool   `json:"configured"`
	Available  bool   `json:"available"`
}
