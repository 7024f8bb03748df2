package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/buildlink/crm-api/internal/models"
	appErrors "github.com/buildlink/crm-api/pkg/errors"
)

type activityRepository interface {
	Create(ctx context.Context, activity *models.Activity) error
	GetByID(ctx context.Context, id string) (*models.Activity, error)
	List(ctx context.Context, filter models.ActivityFilter) ([]models.Activity, int, error)
	Delete(ctx context.Context, id string) error
}

// CreateActivityRequest holds payload for logging an interaction.
type CreateActivityRequest struct {
	Type       models.ActivityType `json:"type" validate:"required,oneof=CALL MEETING EMAIL NOTE"`
	Subject    string              `json:"subject" validate:"required"`
	Body       *string             `json:"body"`
	SupplierID *string             `json:"supplier_id"`
	DealID     *string             `json:"deal_id"`
	QuoteID    *string             `json:"quote_id"`
	OccurredAt *time.Time          `json:"occurred_at"`
}

// ActivityService handles the interaction timeline.
type ActivityService struct {
	repo      activityRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewActivityService constructs the activity service.
func NewActivityService(repo activityRepository, validate *validator.Validate, logger *zap.Logger) *ActivityService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ActivityService{repo: repo, validator: validate, logger: logger}
}

// List returns activities and pagination metadata.
func (s *ActivityService) List(ctx context.Context, filter models.ActivityFilter) ([]models.Activity, *models.Pagination, error) {
	activities, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list activities")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return activities, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Create logs a new interaction.
func (s *ActivityService) Create(ctx context.Context, actor *models.JWTClaims, req CreateActivityRequest) (*models.Activity, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid activity payload")
	}
	activity := &models.Activity{
		Type:       req.Type,
		Subject:    req.Subject,
		Body:       req.Body,
		SupplierID: req.SupplierID,
		DealID:     req.DealID,
		QuoteID:    req.QuoteID,
		CreatedBy:  actor.UserID,
	}
	if req.OccurredAt != nil {
		activity.OccurredAt = *req.OccurredAt
	}
	if err := s.repo.Create(ctx, activity); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create activity")
	}
	return activity, nil
}

// Delete removes an activity. Only its author or an admin may remove it.
func (s *ActivityService) Delete(ctx context.Context, actor *models.JWTClaims, id string) error {
	activity, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "activity not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load activity")
	}
	if activity.CreatedBy != actor.UserID && actor.Role != models.RoleAdmin {
		return appErrors.Clone(appErrors.ErrForbidden, "only the author may delete an activity")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "activity not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete activity")
	}
	return nil
}
