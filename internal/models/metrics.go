package models

import "time"

// SystemMetrics is a lightweight runtime snapshot served by the health endpoint.
type SystemMetrics struct {
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	BulkRowsTotal            uint64    `json:"bulk_rows_total"`
	BulkBatchesFailed        uint64    `json:"bulk_batches_failed"`
	SuggestionsApplied       uint64    `json:"suggestions_applied"`
	RootRepairsTotal         uint64    `json:"root_repairs_total"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
