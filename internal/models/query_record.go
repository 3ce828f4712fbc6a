package models

import "time"

// QueryRecord is the persisted trace of one answered turn, kept for the
// history endpoint.
type QueryRecord struct {
	ID               string     `json:"id" badgerhold:"key"`
	Query            string     `json:"query"`
	Route            Route      `json:"route"`
	Answer           string     `json:"answer"`
	SourceCount      int        `json:"source_count"`
	GradeScore       GradeScore `json:"grade_score,omitempty"`
	RelevanceTop5Avg float64    `json:"relevance_top_5_avg"`
	RewriteAttempted bool       `json:"rewrite_attempted"`
	DurationMs       int64      `json:"duration_ms"`
	CreatedAt        time.Time  `json:"created_at" badgerhold:"index"`
}
