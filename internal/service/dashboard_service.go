package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/buildlink/crm-api/internal/dto"
	"github.com/buildlink/crm-api/internal/models"
	appErrors "github.com/buildlink/crm-api/pkg/errors"
)

type dashboardAnalytics interface {
	PipelineByStage(ctx context.Context) ([]models.PipelineStageSummary, error)
	QuotesByStatus(ctx context.Context) ([]models.QuoteStatusSummary, error)
	SupplierCoverage(ctx context.Context) ([]models.SupplierCoverageSummary, error)
	TaskWorkload(ctx context.Context) ([]models.TaskWorkloadSummary, error)
}

// DashboardService composes the management overview from aggregate queries,
// cached as a single payload.
type DashboardService struct {
	analytics dashboardAnalytics
	cache     *CacheService
	cacheTTL  time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

// NewDashboardService constructs the dashboard service. cache may be nil.
func NewDashboardService(analytics dashboardAnalytics, cache *CacheService, cacheTTL time.Duration, logger *zap.Logger) *DashboardService {
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		analytics: analytics,
		cache:     cache,
		cacheTTL:  cacheTTL,
		logger:    logger,
		now:       time.Now,
	}
}

const dashboardCacheKey = "dash:overview"

// Overview returns the dashboard payload and whether it came from cache.
func (s *DashboardService) Overview(ctx context.Context) (*dto.DashboardOverviewResponse, bool, error) {
	if s.cache != nil {
		var cached dto.DashboardOverviewResponse
		hit, err := s.cache.Get(ctx, dashboardCacheKey, &cached)
		if err != nil {
			s.logger.Warn("dashboard cache read failed", zap.Error(err))
		} else if hit {
			return &cached, true, nil
		}
	}

	overview, err := s.compose(ctx)
	if err != nil {
		return nil, false, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, dashboardCacheKey, overview, s.cacheTTL); err != nil {
			s.logger.Warn("dashboard cache write failed", zap.Error(err))
		}
	}
	return overview, false, nil
}

// Invalidate drops the cached overview, used after bulk imports.
func (s *DashboardService) Invalidate(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Invalidate(ctx, dashboardCacheKey)
}

func (s *DashboardService) compose(ctx context.Context) (*dto.DashboardOverviewResponse, error) {
	pipeline, err := s.analytics.PipelineByStage(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate pipeline")
	}
	quotes, err := s.analytics.QuotesByStatus(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate quotes")
	}
	coverage, err := s.analytics.SupplierCoverage(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate supplier coverage")
	}
	workload, err := s.analytics.TaskWorkload(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate task workload")
	}
	return &dto.DashboardOverviewResponse{
		Pipeline:    pipeline,
		Quotes:      quotes,
		Coverage:    coverage,
		Workload:    workload,
		GeneratedAt: s.now().UTC(),
	}, nil
}
