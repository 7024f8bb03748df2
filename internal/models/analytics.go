package models

import "time"

// PipelineStageSummary aggregates deal value per pipeline stage.
type PipelineStageSummary struct {
	Stage      DealStage `db:"stage" json:"stage"`
	DealCount  int       `db:"deal_count" json:"deal_count"`
	TotalValue float64   `db:"total_value" json:"total_value"`
}

// QuoteStatusSummary counts quotes per workflow status.
type QuoteStatusSummary struct {
	Status      QuoteStatus `db:"status" json:"status"`
	QuoteCount  int         `db:"quote_count" json:"quote_count"`
	TotalAmount float64     `db:"total_amount" json:"total_amount"`
}

// SupplierCoverageSummary counts suppliers per category and region.
type SupplierCoverageSummary struct {
	CategoryID    *string `db:"category_id" json:"category_id,omitempty"`
	Region        *string `db:"region" json:"region,omitempty"`
	SupplierCount int     `db:"supplier_count" json:"supplier_count"`
}

// SystemMetrics is a lightweight aggregate snapshot exposed on the dashboard.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	DBQueryCount             uint64    `json:"db_query_count"`
	AverageDBQueryDurationMs float64   `json:"average_db_query_duration_ms"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}

// TaskWorkloadSummary counts open tasks per assignee.
type TaskWorkloadSummary struct {
	AssigneeID   *string `db:"assignee_id" json:"assignee_id,omitempty"`
	AssigneeName *string `db:"assignee_name" json:"assignee_name,omitempty"`
	OpenCount    int     `db:"open_count" json:"open_count"`
	OverdueCount int     `db:"overdue_count" json:"overdue_count"`
}
