package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/buildlink/crm-api/internal/models"
	appErrors "github.com/buildlink/crm-api/pkg/errors"
)

type accessRuleRepository interface {
	Create(ctx context.Context, rule *models.AccessRule) error
	GetByID(ctx context.Context, id string) (*models.AccessRule, error)
	ListByUser(ctx context.Context, userID string) ([]models.AccessRule, error)
	ListAll(ctx context.Context) ([]models.AccessRule, error)
	ReplaceForUser(ctx context.Context, userID string, rules []models.AccessRule) error
	Delete(ctx context.Context, id string) error
}

type ruleUserReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// AccessRuleInput is one rule in a create or replace payload. Empty slices
// leave that dimension unrestricted.
type AccessRuleInput struct {
	Categories []string `json:"categories"`
	Regions    []string `json:"regions"`
	Notes      *string  `json:"notes"`
}

// CreateAccessRuleRequest grants a user a single access rule.
type CreateAccessRuleRequest struct {
	UserID string          `json:"user_id" validate:"required"`
	Rule   AccessRuleInput `json:"rule"`
}

// ReplaceAccessRulesRequest swaps a user's whole rule set.
type ReplaceAccessRulesRequest struct {
	UserID string            `json:"user_id" validate:"required"`
	Rules  []AccessRuleInput `json:"rules"`
}

// AccessRuleService manages supplier access rules. All operations are
// admin-only; the RBAC middleware enforces that before requests land here.
type AccessRuleService struct {
	repo      accessRuleRepository
	users     ruleUserReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAccessRuleService constructs the service.
func NewAccessRuleService(repo accessRuleRepository, users ruleUserReader, validate *validator.Validate, logger *zap.Logger) *AccessRuleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccessRuleService{repo: repo, users: users, validator: validate, logger: logger}
}

// Create grants a user one access rule.
func (s *AccessRuleService) Create(ctx context.Context, actor *models.JWTClaims, req CreateAccessRuleRequest) (*models.AccessRule, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid access rule payload")
	}
	if err := s.ensureUserExists(ctx, req.UserID); err != nil {
		return nil, err
	}
	rule := &models.AccessRule{
		UserID:     req.UserID,
		Categories: pq.StringArray(req.Rule.Categories),
		Regions:    pq.StringArray(req.Rule.Regions),
		Notes:      req.Rule.Notes,
		CreatedBy:  actor.UserID,
	}
	if err := s.repo.Create(ctx, rule); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create access rule")
	}
	s.logger.Info("access rule created",
		zap.String("rule_id", rule.ID),
		zap.String("user_id", rule.UserID),
		zap.String("granted_by", actor.UserID))
	return rule, nil
}

// ListForUser returns a user's rules.
func (s *AccessRuleService) ListForUser(ctx context.Context, userID string) ([]models.AccessRule, error) {
	rules, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list access rules")
	}
	return rules, nil
}

// ListAll returns every rule in the system.
func (s *AccessRuleService) ListAll(ctx context.Context) ([]models.AccessRule, error) {
	rules, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list access rules")
	}
	return rules, nil
}

// Replace swaps a user's entire rule set. An empty rule list revokes all of
// the user's supplier visibility.
func (s *AccessRuleService) Replace(ctx context.Context, actor *models.JWTClaims, req ReplaceAccessRulesRequest) ([]models.AccessRule, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid access rule payload")
	}
	if err := s.ensureUserExists(ctx, req.UserID); err != nil {
		return nil, err
	}
	rules := make([]models.AccessRule, len(req.Rules))
	for i, input := range req.Rules {
		rules[i] = models.AccessRule{
			UserID:     req.UserID,
			Categories: pq.StringArray(input.Categories),
			Regions:    pq.StringArray(input.Regions),
			Notes:      input.Notes,
			CreatedBy:  actor.UserID,
		}
	}
	if err := s.repo.ReplaceForUser(ctx, req.UserID, rules); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to replace access rules")
	}
	s.logger.Info("access rules replaced",
		zap.String("user_id", req.UserID),
		zap.Int("rule_count", len(rules)),
		zap.String("granted_by", actor.UserID))
	return rules, nil
}

// Delete revokes a single rule.
func (s *AccessRuleService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "access rule not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete access rule")
	}
	return nil
}

func (s *AccessRuleService) ensureUserExists(ctx context.Context, userID string) error {
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	return nil
}
