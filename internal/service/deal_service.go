package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/buildlink/crm-api/internal/models"
	appErrors "github.com/buildlink/crm-api/pkg/errors"
)

type dealRepository interface {
	Create(ctx context.Context, deal *models.Deal) error
	GetByID(ctx context.Context, id string) (*models.Deal, error)
	List(ctx context.Context, filter models.DealFilter) ([]models.Deal, int, error)
	Update(ctx context.Context, deal *models.Deal) error
	Delete(ctx context.Context, id string) error
}

// CreateDealRequest holds payload for opening a deal.
type CreateDealRequest struct {
	Title      string     `json:"title" validate:"required"`
	SupplierID *string    `json:"supplier_id"`
	Value      *float64   `json:"value" validate:"omitempty,gte=0"`
	Currency   string     `json:"currency" validate:"omitempty,len=3"`
	ExpectedAt *time.Time `json:"expected_at"`
	Notes      *string    `json:"notes"`
}

// UpdateDealRequest holds payload for updating a deal, including its stage.
type UpdateDealRequest struct {
	Title      string           `json:"title" validate:"required"`
	Stage      models.DealStage `json:"stage" validate:"required"`
	SupplierID *string          `json:"supplier_id"`
	Value      *float64         `json:"value" validate:"omitempty,gte=0"`
	Currency   string           `json:"currency" validate:"omitempty,len=3"`
	ExpectedAt *time.Time       `json:"expected_at"`
	Notes      *string          `json:"notes"`
}

// DealService handles pipeline deals.
type DealService struct {
	repo      dealRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewDealService constructs the deal service.
func NewDealService(repo dealRepository, validate *validator.Validate, logger *zap.Logger) *DealService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DealService{repo: repo, validator: validate, logger: logger}
}

// List returns deals and pagination metadata.
func (s *DealService) List(ctx context.Context, filter models.DealFilter) ([]models.Deal, *models.Pagination, error) {
	deals, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list deals")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return deals, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns a single deal.
func (s *DealService) Get(ctx context.Context, id string) (*models.Deal, error) {
	deal, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "deal not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load deal")
	}
	return deal, nil
}

// Create opens a new deal in the lead stage.
func (s *DealService) Create(ctx context.Context, actor *models.JWTClaims, req CreateDealRequest) (*models.Deal, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid deal payload")
	}
	currency := req.Currency
	if currency == "" {
		currency = "EUR"
	}
	deal := &models.Deal{
		Title:      req.Title,
		Stage:      models.DealStageLead,
		SupplierID: req.SupplierID,
		Value:      req.Value,
		Currency:   currency,
		ExpectedAt: req.ExpectedAt,
		Notes:      req.Notes,
		OwnerID:    actor.UserID,
	}
	if err := s.repo.Create(ctx, deal); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create deal")
	}
	return deal, nil
}

// Update replaces the deal's mutable fields. Stage moves are free-form; the
// pipeline carries no approval workflow.
func (s *DealService) Update(ctx context.Context, id string, req UpdateDealRequest) (*models.Deal, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid deal payload")
	}
	if !models.ValidDealStage(req.Stage) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown deal stage %s", req.Stage))
	}
	deal, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	deal.Title = req.Title
	deal.Stage = req.Stage
	deal.SupplierID = req.SupplierID
	deal.Value = req.Value
	if req.Currency != "" {
		deal.Currency = req.Currency
	}
	deal.ExpectedAt = req.ExpectedAt
	deal.Notes = req.Notes

	switch req.Stage {
	case models.DealStageWon, models.DealStageLost:
		if deal.ClosedAt == nil {
			now := time.Now().UTC()
			deal.ClosedAt = &now
		}
	default:
		deal.ClosedAt = nil
	}

	if err := s.repo.Update(ctx, deal); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "deal not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update deal")
	}
	return deal, nil
}

// Delete removes a deal.
func (s *DealService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "deal not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete deal")
	}
	return nil
}
