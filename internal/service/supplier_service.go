package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/buildlink/crm-api/internal/models"
	appErrors "github.com/buildlink/crm-api/pkg/errors"
	"github.com/buildlink/crm-api/pkg/export"
)

type supplierRepository interface {
	Create(ctx context.Context, supplier *models.Supplier) error
	GetByID(ctx context.Context, id string) (*models.Supplier, error)
	List(ctx context.Context, filter models.SupplierFilter) ([]models.Supplier, int, error)
	ListAll(ctx context.Context, filter models.SupplierFilter) ([]models.Supplier, error)
	Update(ctx context.Context, supplier *models.Supplier) error
	Delete(ctx context.Context, id string) error
}

type accessRuleReader interface {
	ListByUser(ctx context.Context, userID string) ([]models.AccessRule, error)
}

// CreateSupplierRequest holds payload for creating a supplier.
type CreateSupplierRequest struct {
	Name         string  `json:"name" validate:"required"`
	CategoryID   *string `json:"category_id"`
	Region       *string `json:"region"`
	ContactName  *string `json:"contact_name"`
	ContactEmail *string `json:"contact_email" validate:"omitempty,email"`
	ContactPhone *string `json:"contact_phone"`
	Website      *string `json:"website"`
	Notes        *string `json:"notes"`
}

// UpdateSupplierRequest holds payload for updating a supplier.
type UpdateSupplierRequest struct {
	Name         string  `json:"name" validate:"required"`
	CategoryID   *string `json:"category_id"`
	Region       *string `json:"region"`
	ContactName  *string `json:"contact_name"`
	ContactEmail *string `json:"contact_email" validate:"omitempty,email"`
	ContactPhone *string `json:"contact_phone"`
	Website      *string `json:"website"`
	Notes        *string `json:"notes"`
}

// SupplierService handles the supplier directory. Every read path runs the
// caller's access rules over the result, so a user without matching rules
// sees an empty directory rather than an error.
type SupplierService struct {
	repo      supplierRepository
	rules     accessRuleReader
	csv       *export.CSVExporter
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSupplierService constructs the supplier service.
func NewSupplierService(repo supplierRepository, rules accessRuleReader, validate *validator.Validate, logger *zap.Logger) *SupplierService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SupplierService{
		repo:      repo,
		rules:     rules,
		csv:       export.NewCSVExporter(),
		validator: validate,
		logger:    logger,
	}
}

// List returns the suppliers visible to the actor. Admins page in the
// database; rule-scoped callers have their rules applied before pagination,
// so page boundaries and totals reflect the visible directory rather than
// the raw table.
func (s *SupplierService) List(ctx context.Context, actor *models.JWTClaims, filter models.SupplierFilter) ([]models.Supplier, *models.Pagination, error) {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}

	if actor.Role == models.RoleAdmin {
		suppliers, total, err := s.repo.List(ctx, filter)
		if err != nil {
			return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list suppliers")
		}
		return suppliers, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
	}

	visible, err := s.listVisible(ctx, actor, filter)
	if err != nil {
		return nil, nil, err
	}
	total := len(visible)
	start := (page - 1) * size
	if start > total {
		start = total
	}
	end := start + size
	if end > total {
		end = total
	}
	return visible[start:end], &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// listVisible loads every supplier matching the filter and narrows it to the
// actor's access rules. A caller with no rules sees nothing.
func (s *SupplierService) listVisible(ctx context.Context, actor *models.JWTClaims, filter models.SupplierFilter) ([]models.Supplier, error) {
	rules, err := s.rules.ListByUser(ctx, actor.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status,
			fmt.Sprintf("failed to load access rules for user %s", actor.UserID))
	}
	if len(rules) == 0 {
		return []models.Supplier{}, nil
	}
	suppliers, err := s.repo.ListAll(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list suppliers")
	}
	return FilterSuppliers(actor.Role, rules, suppliers), nil
}

// Get returns a supplier when the actor's rules allow it. A supplier hidden
// by access rules is reported as not found, not forbidden.
func (s *SupplierService) Get(ctx context.Context, actor *models.JWTClaims, id string) (*models.Supplier, error) {
	supplier, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "supplier not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load supplier")
	}
	visible, err := s.applyAccessRules(ctx, actor, []models.Supplier{*supplier})
	if err != nil {
		return nil, err
	}
	if len(visible) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "supplier not found")
	}
	return supplier, nil
}

// Create registers a new supplier.
func (s *SupplierService) Create(ctx context.Context, actor *models.JWTClaims, req CreateSupplierRequest) (*models.Supplier, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid supplier payload")
	}
	supplier := &models.Supplier{
		Name:         req.Name,
		CategoryID:   req.CategoryID,
		Region:       req.Region,
		ContactName:  req.ContactName,
		ContactEmail: req.ContactEmail,
		ContactPhone: req.ContactPhone,
		Website:      req.Website,
		Notes:        req.Notes,
		CreatedBy:    actor.UserID,
	}
	if err := s.repo.Create(ctx, supplier); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create supplier")
	}
	return supplier, nil
}

// Update replaces the supplier's mutable fields.
func (s *SupplierService) Update(ctx context.Context, actor *models.JWTClaims, id string, req UpdateSupplierRequest) (*models.Supplier, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid supplier payload")
	}
	supplier, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	supplier.Name = req.Name
	supplier.CategoryID = req.CategoryID
	supplier.Region = req.Region
	supplier.ContactName = req.ContactName
	supplier.ContactEmail = req.ContactEmail
	supplier.ContactPhone = req.ContactPhone
	supplier.Website = req.Website
	supplier.Notes = req.Notes

	if err := s.repo.Update(ctx, supplier); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "supplier not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update supplier")
	}
	return supplier, nil
}

// Delete removes a supplier.
func (s *SupplierService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "supplier not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete supplier")
	}
	return nil
}

// ExportCSV renders the actor's visible suppliers as CSV. The export is not
// paged; it covers every visible row matching the filter.
func (s *SupplierService) ExportCSV(ctx context.Context, actor *models.JWTClaims, filter models.SupplierFilter) ([]byte, error) {
	var suppliers []models.Supplier
	var err error
	if actor.Role == models.RoleAdmin {
		suppliers, err = s.repo.ListAll(ctx, filter)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list suppliers")
		}
	} else {
		suppliers, err = s.listVisible(ctx, actor, filter)
		if err != nil {
			return nil, err
		}
	}

	dataset := export.Dataset{
		Headers: []string{"Name", "Category", "Region", "Contact", "Email", "Phone"},
	}
	for _, supplier := range suppliers {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Name":     supplier.Name,
			"Category": derefString(supplier.CategoryID),
			"Region":   derefString(supplier.Region),
			"Contact":  derefString(supplier.ContactName),
			"Email":    derefString(supplier.ContactEmail),
			"Phone":    derefString(supplier.ContactPhone),
		})
	}
	data, err := s.csv.Render(dataset)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render supplier export")
	}
	return data, nil
}

func (s *SupplierService) applyAccessRules(ctx context.Context, actor *models.JWTClaims, suppliers []models.Supplier) ([]models.Supplier, error) {
	if actor.Role == models.RoleAdmin {
		return suppliers, nil
	}
	rules, err := s.rules.ListByUser(ctx, actor.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status,
			fmt.Sprintf("failed to load access rules for user %s", actor.UserID))
	}
	return FilterSuppliers(actor.Role, rules, suppliers), nil
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
