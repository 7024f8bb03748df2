package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/buildlink/crm-api/internal/models"
)

// ActivityRepository persists logged interactions with suppliers and deals.
type ActivityRepository struct {
	db *sqlx.DB
}

// NewActivityRepository constructs the repository.
func NewActivityRepository(db *sqlx.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

const activityColumns = `id, type, subject, body, supplier_id, deal_id, quote_id, created_by, occurred_at, created_at`

// Create inserts a new activity entry.
func (r *ActivityRepository) Create(ctx context.Context, activity *models.Activity) error {
	if activity.ID == "" {
		activity.ID = uuid.NewString()
	}
	if activity.OccurredAt.IsZero() {
		activity.OccurredAt = time.Now().UTC()
	}
	if activity.CreatedAt.IsZero() {
		activity.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO activities
	(id, type, subject, body, supplier_id, deal_id, quote_id, created_by, occurred_at, created_at)
	VALUES (:id, :type, :subject, :body, :supplier_id, :deal_id, :quote_id, :created_by, :occurred_at, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, activity); err != nil {
		return fmt.Errorf("create activity: %w", err)
	}
	return nil
}

// GetByID fetches an activity by identifier.
func (r *ActivityRepository) GetByID(ctx context.Context, id string) (*models.Activity, error) {
	query := fmt.Sprintf(`SELECT %s FROM activities WHERE id = $1`, activityColumns)
	var activity models.Activity
	if err := r.db.GetContext(ctx, &activity, query, id); err != nil {
		return nil, err
	}
	return &activity, nil
}

// List returns activities matching the filter, newest first.
func (r *ActivityRepository) List(ctx context.Context, filter models.ActivityFilter) ([]models.Activity, int, error) {
	baseQuery := `FROM activities WHERE 1=1`
	var conditions []string
	var args []interface{}

	if len(filter.Type) > 0 {
		placeholders := make([]string, len(filter.Type))
		for i, activityType := range filter.Type {
			args = append(args, activityType)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		conditions = append(conditions, fmt.Sprintf("type IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.SupplierID != "" {
		conditions = append(conditions, fmt.Sprintf("supplier_id = $%d", len(args)+1))
		args = append(args, filter.SupplierID)
	}
	if filter.DealID != "" {
		conditions = append(conditions, fmt.Sprintf("deal_id = $%d", len(args)+1))
		args = append(args, filter.DealID)
	}
	if filter.QuoteID != "" {
		conditions = append(conditions, fmt.Sprintf("quote_id = $%d", len(args)+1))
		args = append(args, filter.QuoteID)
	}
	if filter.CreatedBy != "" {
		conditions = append(conditions, fmt.Sprintf("created_by = $%d", len(args)+1))
		args = append(args, filter.CreatedBy)
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+baseQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count activities: %w", err)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 200 {
		pageSize = 50
	}
	offset := (page - 1) * pageSize

	query := fmt.Sprintf("SELECT %s %s ORDER BY occurred_at DESC LIMIT %d OFFSET %d",
		activityColumns, baseQuery, pageSize, offset)

	var activities []models.Activity
	if err := r.db.SelectContext(ctx, &activities, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list activities: %w", err)
	}
	return activities, total, nil
}

// Delete removes an activity row.
func (r *ActivityRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM activities WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete activity: %w", err)
	}
	return requireRowsAffected(result, "delete activity")
}
