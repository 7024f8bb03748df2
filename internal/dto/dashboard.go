package dto

import (
	"time"

	"github.com/buildlink/crm-api/internal/models"
)

// DashboardOverviewResponse aggregates the management dashboard payload.
type DashboardOverviewResponse struct {
	Pipeline    []models.PipelineStageSummary    `json:"pipeline"`
	Quotes      []models.QuoteStatusSummary      `json:"quotes"`
	Coverage    []models.SupplierCoverageSummary `json:"coverage"`
	Workload    []models.TaskWorkloadSummary     `json:"workload"`
	GeneratedAt time.Time                        `json:"generated_at"`
}
