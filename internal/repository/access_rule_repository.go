package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/buildlink/crm-api/internal/models"
)

// AccessRuleRepository persists per-user supplier access rules.
type AccessRuleRepository struct {
	db *sqlx.DB
}

// NewAccessRuleRepository constructs the repository.
func NewAccessRuleRepository(db *sqlx.DB) *AccessRuleRepository {
	return &AccessRuleRepository{db: db}
}

const accessRuleColumns = `id, user_id, categories, regions, notes, created_by, created_at, updated_at`

// Create inserts a new access rule.
func (r *AccessRuleRepository) Create(ctx context.Context, rule *models.AccessRule) error {
	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if rule.CreatedAt.IsZero() {
		rule.CreatedAt = now
	}
	rule.UpdatedAt = now
	const query = `INSERT INTO supplier_access_rules
	(id, user_id, categories, regions, notes, created_by, created_at, updated_at)
	VALUES (:id, :user_id, :categories, :regions, :notes, :created_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, rule); err != nil {
		return fmt.Errorf("create access rule: %w", err)
	}
	return nil
}

// GetByID fetches an access rule by identifier.
func (r *AccessRuleRepository) GetByID(ctx context.Context, id string) (*models.AccessRule, error) {
	query := fmt.Sprintf(`SELECT %s FROM supplier_access_rules WHERE id = $1`, accessRuleColumns)
	var rule models.AccessRule
	if err := r.db.GetContext(ctx, &rule, query, id); err != nil {
		return nil, err
	}
	return &rule, nil
}

// ListByUser returns the rules assigned to a user, oldest first.
func (r *AccessRuleRepository) ListByUser(ctx context.Context, userID string) ([]models.AccessRule, error) {
	query := fmt.Sprintf(`SELECT %s FROM supplier_access_rules WHERE user_id = $1 ORDER BY created_at ASC`, accessRuleColumns)
	var rules []models.AccessRule
	if err := r.db.SelectContext(ctx, &rules, query, userID); err != nil {
		return nil, fmt.Errorf("list access rules for user: %w", err)
	}
	return rules, nil
}

// ListAll returns every rule, newest first. Admin-only listing.
func (r *AccessRuleRepository) ListAll(ctx context.Context) ([]models.AccessRule, error) {
	query := fmt.Sprintf(`SELECT %s FROM supplier_access_rules ORDER BY created_at DESC`, accessRuleColumns)
	var rules []models.AccessRule
	if err := r.db.SelectContext(ctx, &rules, query); err != nil {
		return nil, fmt.Errorf("list access rules: %w", err)
	}
	return rules, nil
}

// ReplaceForUser swaps a user's entire rule set in one transaction. Rules are
// immutable once created, so replacement is the only update path.
func (r *AccessRuleRepository) ReplaceForUser(ctx context.Context, userID string, rules []models.AccessRule) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin access rule replace: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM supplier_access_rules WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("clear access rules: %w", err)
	}

	const insert = `INSERT INTO supplier_access_rules
	(id, user_id, categories, regions, notes, created_by, created_at, updated_at)
	VALUES (:id, :user_id, :categories, :regions, :notes, :created_by, :created_at, :updated_at)`
	now := time.Now().UTC()
	for i := range rules {
		rules[i].UserID = userID
		if rules[i].ID == "" {
			rules[i].ID = uuid.NewString()
		}
		if rules[i].CreatedAt.IsZero() {
			rules[i].CreatedAt = now
		}
		rules[i].UpdatedAt = now
		if _, err := tx.NamedExecContext(ctx, insert, rules[i]); err != nil {
			return fmt.Errorf("insert replacement access rule: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit access rule replace: %w", err)
	}
	return nil
}

// Delete removes a single rule.
func (r *AccessRuleRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM supplier_access_rules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete access rule: %w", err)
	}
	return requireRowsAffected(result, "delete access rule")
}
