package database

import (
	"time"
)

// Run status values
const (
	RunStatusCompleted = "completed"
	RunStatusPartial   = "partial"
	RunStatusFailed    = "failed"
)

// Run is one pipeline execution over a batch of queries
type Run struct {
	ID             string     `json:"id"`
	Status         string     `json:"status"`
	QueryCount     int        `json:"query_count"`
	SegmentCount   int        `json:"segment_count"`
	FailedSegments int        `json:"failed_segments"`
	OfferCount     int        `json:"offer_count"`
	SkippedCount   int        `json:"skipped_count"`
	StartedAt      time.Time  `json:"started_at"`
	FinishedAt     *time.Time `json:"finished_at"`
	CreatedAt      time.Time  `json:"created_at"`
}
