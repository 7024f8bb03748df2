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
	"github.com/buildlink/crm-api/internal/repository"
	appErrors "github.com/buildlink/crm-api/pkg/errors"
)

type quoteRepo interface {
	Create(ctx context.Context, quote *models.Quote) error
	GetByID(ctx context.Context, id string) (*models.Quote, error)
	List(ctx context.Context, filter models.QuoteFilter) ([]models.Quote, int, error)
	UpdateDraft(ctx context.Context, quote *models.Quote) error
	UpdateStatus(ctx context.Context, params repository.UpdateQuoteStatusParams) error
	Delete(ctx context.Context, id string) error
	NextQuoteNumber(ctx context.Context) (string, error)
}

type quoteNotifier interface {
	NotifyQuoteEvent(event models.QuoteEvent)
}

// CreateQuoteRequest holds payload for creating a draft quote.
type CreateQuoteRequest struct {
	SupplierID  string     `json:"supplier_id" validate:"required"`
	DealID      *string    `json:"deal_id"`
	Title       string     `json:"title" validate:"required"`
	Description *string    `json:"description"`
	Amount      *float64   `json:"amount" validate:"omitempty,gt=0"`
	Currency    string     `json:"currency" validate:"omitempty,len=3"`
	ValidUntil  *time.Time `json:"valid_until"`
}

// UpdateQuoteRequest holds payload for editing a draft quote.
type UpdateQuoteRequest struct {
	SupplierID  string     `json:"supplier_id" validate:"required"`
	DealID      *string    `json:"deal_id"`
	Title       string     `json:"title" validate:"required"`
	Description *string    `json:"description"`
	Amount      *float64   `json:"amount" validate:"omitempty,gt=0"`
	Currency    string     `json:"currency" validate:"omitempty,len=3"`
	ValidUntil  *time.Time `json:"valid_until"`
}

// TransitionQuoteRequest carries the optional note attached to a transition.
type TransitionQuoteRequest struct {
	Note string `json:"note"`
}

// QuoteService handles quote CRUD and workflow transitions.
type QuoteService struct {
	repo      quoteRepo
	workflow  *QuoteWorkflow
	notifier  quoteNotifier
	validator *validator.Validate
	logger    *zap.Logger
}

// NewQuoteService constructs the quote service. notifier may be nil.
func NewQuoteService(repo quoteRepo, workflow *QuoteWorkflow, notifier quoteNotifier, validate *validator.Validate, logger *zap.Logger) *QuoteService {
	if workflow == nil {
		workflow = NewQuoteWorkflow(nil)
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QuoteService{repo: repo, workflow: workflow, notifier: notifier, validator: validate, logger: logger}
}

// Create registers a new draft quote owned by the actor.
func (s *QuoteService) Create(ctx context.Context, actor *models.JWTClaims, req CreateQuoteRequest) (*models.Quote, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid quote payload")
	}
	number, err := s.repo.NextQuoteNumber(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to allocate quote number")
	}
	currency := req.Currency
	if currency == "" {
		currency = "EUR"
	}
	quote := &models.Quote{
		QuoteNumber: number,
		SupplierID:  req.SupplierID,
		DealID:      req.DealID,
		Title:       req.Title,
		Description: req.Description,
		Amount:      req.Amount,
		Currency:    currency,
		ValidUntil:  req.ValidUntil,
		Status:      models.QuoteStatusDraft,
		CreatedBy:   actor.UserID,
	}
	if err := s.repo.Create(ctx, quote); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create quote")
	}
	return quote, nil
}

// List returns quotes visible to the actor. Procurement users only see the
// quotes they own; every other role sees the full list.
func (s *QuoteService) List(ctx context.Context, actor *models.JWTClaims, filter models.QuoteFilter) ([]models.Quote, *models.Pagination, error) {
	if actor.Role == models.RoleProcurement {
		filter.CreatedBy = actor.UserID
	}
	quotes, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list quotes")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return quotes, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns a single quote.
func (s *QuoteService) Get(ctx context.Context, id string) (*models.Quote, error) {
	quote, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "quote not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load quote")
	}
	return quote, nil
}

// AllowedActions lists the workflow actions the actor may take on the quote.
func (s *QuoteService) AllowedActions(actor *models.JWTClaims, quote *models.Quote) []models.QuoteAction {
	isOwner := quote.CreatedBy == actor.UserID
	actions := make([]models.QuoteAction, 0, 2)
	for _, action := range s.workflow.AllowedActions(quote.Status) {
		if s.workflow.CanPerformAction(actor.Role, action, quote.Status, isOwner) {
			actions = append(actions, action)
		}
	}
	return actions
}

// Update edits a quote while it is still a draft.
func (s *QuoteService) Update(ctx context.Context, actor *models.JWTClaims, id string, req UpdateQuoteRequest) (*models.Quote, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid quote payload")
	}
	quote, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if quote.CreatedBy != actor.UserID && actor.Role != models.RoleAdmin {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the quote owner may edit it")
	}
	if quote.Status != models.QuoteStatusDraft {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("quote in status %s is not editable", quote.Status))
	}

	quote.SupplierID = req.SupplierID
	quote.DealID = req.DealID
	quote.Title = req.Title
	quote.Description = req.Description
	quote.Amount = req.Amount
	if req.Currency != "" {
		quote.Currency = req.Currency
	}
	quote.ValidUntil = req.ValidUntil

	if err := s.repo.UpdateDraft(ctx, quote); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "quote is no longer a draft")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update quote")
	}
	return quote, nil
}

// Delete removes a quote. Restricted to Admin; deletion sits outside the
// workflow and exists for cleanup only.
func (s *QuoteService) Delete(ctx context.Context, actor *models.JWTClaims, id string) error {
	if actor.Role != models.RoleAdmin {
		return appErrors.Clone(appErrors.ErrForbidden, "only admins may delete quotes")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "quote not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete quote")
	}
	return nil
}

// ApplyTransition performs a workflow action on a quote. The status write is
// conditional on the status the quote was loaded with, so two concurrent
// actors cannot both win; the loser gets a conflict.
func (s *QuoteService) ApplyTransition(ctx context.Context, actor *models.JWTClaims, id string, action models.QuoteAction, req TransitionQuoteRequest) (*models.Quote, error) {
	quote, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	isOwner := quote.CreatedBy == actor.UserID
	next, ok := s.workflow.NextStatus(action, quote.Status)
	if !ok || !s.workflow.CanPerformAction(actor.Role, action, quote.Status, isOwner) {
		return nil, appErrors.Clone(appErrors.ErrForbidden,
			fmt.Sprintf("action %s is not permitted on a %s quote", action, quote.Status))
	}

	now := time.Now().UTC()
	params := repository.UpdateQuoteStatusParams{
		ID:             quote.ID,
		ExpectedStatus: quote.Status,
		Status:         next,
	}
	var note *string
	if req.Note != "" {
		note = &req.Note
	}
	switch action {
	case models.QuoteActionSubmit:
		params.SubmittedAt = &now
		params.ClearRejection = true
	case models.QuoteActionApprove:
		params.ApprovedBy = &actor.UserID
		params.ApprovedAt = &now
		params.ApprovalNote = note
	case models.QuoteActionReject:
		params.RejectedBy = &actor.UserID
		params.RejectedAt = &now
		params.RejectionNote = note
	case models.QuoteActionAccept, models.QuoteActionDecline:
		params.RespondedAt = &now
	}

	if err := s.repo.UpdateStatus(ctx, params); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "quote is no longer in the expected status")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to transition quote")
	}

	s.logger.Info("quote transition",
		zap.String("quote_id", quote.ID),
		zap.String("action", string(action)),
		zap.String("from", string(quote.Status)),
		zap.String("to", string(next)),
		zap.String("actor_id", actor.UserID))

	updated, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.NotifyQuoteEvent(models.QuoteEvent{
			Type:        notificationTypeForAction(action),
			QuoteID:     updated.ID,
			QuoteNumber: updated.QuoteNumber,
			QuoteTitle:  updated.Title,
			ActorID:     actor.UserID,
			OwnerID:     updated.CreatedBy,
			Note:        req.Note,
		})
	}
	return updated, nil
}

func notificationTypeForAction(action models.QuoteAction) models.NotificationType {
	switch action {
	case models.QuoteActionSubmit:
		return models.NotificationQuoteSubmitted
	case models.QuoteActionApprove:
		return models.NotificationQuoteApproved
	case models.QuoteActionReject:
		return models.NotificationQuoteRejected
	case models.QuoteActionAccept:
		return models.NotificationQuoteAccepted
	default:
		return models.NotificationQuoteDeclined
	}
}
