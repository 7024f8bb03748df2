package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/buildlink/crm-api/internal/models"
)

// AnalyticsRepository runs the aggregate queries behind the dashboard.
type AnalyticsRepository struct {
	db *sqlx.DB
}

// NewAnalyticsRepository constructs the repository.
func NewAnalyticsRepository(db *sqlx.DB) *AnalyticsRepository {
	return &AnalyticsRepository{db: db}
}

// PipelineByStage aggregates deal counts and value per pipeline stage.
func (r *AnalyticsRepository) PipelineByStage(ctx context.Context) ([]models.PipelineStageSummary, error) {
	const query = `SELECT stage, COUNT(*) AS deal_count, COALESCE(SUM(value), 0) AS total_value
	FROM deals GROUP BY stage ORDER BY stage`
	var summaries []models.PipelineStageSummary
	if err := r.db.SelectContext(ctx, &summaries, query); err != nil {
		return nil, fmt.Errorf("pipeline by stage: %w", err)
	}
	return summaries, nil
}

// QuotesByStatus aggregates quote counts and amounts per workflow status.
func (r *AnalyticsRepository) QuotesByStatus(ctx context.Context) ([]models.QuoteStatusSummary, error) {
	const query = `SELECT status, COUNT(*) AS quote_count, COALESCE(SUM(amount), 0) AS total_amount
	FROM quotes GROUP BY status ORDER BY status`
	var summaries []models.QuoteStatusSummary
	if err := r.db.SelectContext(ctx, &summaries, query); err != nil {
		return nil, fmt.Errorf("quotes by status: %w", err)
	}
	return summaries, nil
}

// SupplierCoverage counts suppliers per category and region pair.
func (r *AnalyticsRepository) SupplierCoverage(ctx context.Context) ([]models.SupplierCoverageSummary, error) {
	const query = `SELECT category_id, region, COUNT(*) AS supplier_count
	FROM suppliers GROUP BY category_id, region ORDER BY supplier_count DESC`
	var summaries []models.SupplierCoverageSummary
	if err := r.db.SelectContext(ctx, &summaries, query); err != nil {
		return nil, fmt.Errorf("supplier coverage: %w", err)
	}
	return summaries, nil
}

// TaskWorkload counts open and overdue tasks per assignee.
func (r *AnalyticsRepository) TaskWorkload(ctx context.Context) ([]models.TaskWorkloadSummary, error) {
	const query = `SELECT t.assignee_id, u.full_name AS assignee_name,
	COUNT(*) FILTER (WHERE t.status != 'DONE') AS open_count,
	COUNT(*) FILTER (WHERE t.status != 'DONE' AND t.due_at < NOW()) AS overdue_count
	FROM tasks t
	LEFT JOIN users u ON u.id = t.assignee_id
	GROUP BY t.assignee_id, u.full_name
	ORDER BY open_count DESC`
	var summaries []models.TaskWorkloadSummary
	if err := r.db.SelectContext(ctx, &summaries, query); err != nil {
		return nil, fmt.Errorf("task workload: %w", err)
	}
	return summaries, nil
}
