package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildlink/crm-api/internal/models"
)

type analyticsStub struct {
	pipeline []models.PipelineStageSummary
	quotes   []models.QuoteStatusSummary
	coverage []models.SupplierCoverageSummary
	workload []models.TaskWorkloadSummary
	err      error
	calls    int
}

func (s *analyticsStub) PipelineByStage(ctx context.Context) ([]models.PipelineStageSummary, error) {
	s.calls++
	return s.pipeline, s.err
}

func (s *analyticsStub) QuotesByStatus(ctx context.Context) ([]models.QuoteStatusSummary, error) {
	return s.quotes, s.err
}

func (s *analyticsStub) SupplierCoverage(ctx context.Context) ([]models.SupplierCoverageSummary, error) {
	return s.coverage, s.err
}

func (s *analyticsStub) TaskWorkload(ctx context.Context) ([]models.TaskWorkloadSummary, error) {
	return s.workload, s.err
}

func TestDashboardOverviewComposesAggregates(t *testing.T) {
	analytics := &analyticsStub{
		pipeline: []models.PipelineStageSummary{{Stage: models.DealStageLead, DealCount: 3, TotalValue: 45000}},
		quotes:   []models.QuoteStatusSummary{{Status: models.QuoteStatusPending, QuoteCount: 2, TotalAmount: 18000}},
		coverage: []models.SupplierCoverageSummary{{SupplierCount: 5}},
		workload: []models.TaskWorkloadSummary{{OpenCount: 4, OverdueCount: 1}},
	}
	svc := NewDashboardService(analytics, nil, 0, nil)

	overview, cached, err := svc.Overview(context.Background())
	require.NoError(t, err)
	assert.False(t, cached)
	require.Len(t, overview.Pipeline, 1)
	assert.Equal(t, 3, overview.Pipeline[0].DealCount)
	require.Len(t, overview.Quotes, 1)
	assert.Equal(t, models.QuoteStatusPending, overview.Quotes[0].Status)
	assert.False(t, overview.GeneratedAt.IsZero())
}

func TestDashboardOverviewAggregateError(t *testing.T) {
	analytics := &analyticsStub{err: errors.New("db down")}
	svc := NewDashboardService(analytics, nil, 0, nil)

	_, _, err := svc.Overview(context.Background())
	require.Error(t, err)
}

func TestDashboardOverviewWithoutCacheRecomputes(t *testing.T) {
	analytics := &analyticsStub{}
	svc := NewDashboardService(analytics, nil, 0, nil)

	_, cached, err := svc.Overview(context.Background())
	require.NoError(t, err)
	assert.False(t, cached)
	_, cached, err = svc.Overview(context.Background())
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, 2, analytics.calls)
}
