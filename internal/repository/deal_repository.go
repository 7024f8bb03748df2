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

// DealRepository persists pipeline deals.
type DealRepository struct {
	db *sqlx.DB
}

// NewDealRepository constructs the repository.
func NewDealRepository(db *sqlx.DB) *DealRepository {
	return &DealRepository{db: db}
}

const dealColumns = `id, title, supplier_id, stage, value, currency, expected_at, owner_id, notes, closed_at, created_at, updated_at`

// Create inserts a new deal.
func (r *DealRepository) Create(ctx context.Context, deal *models.Deal) error {
	if deal.ID == "" {
		deal.ID = uuid.NewString()
	}
	if deal.Stage == "" {
		deal.Stage = models.DealStageLead
	}
	now := time.Now().UTC()
	if deal.CreatedAt.IsZero() {
		deal.CreatedAt = now
	}
	deal.UpdatedAt = now
	const query = `INSERT INTO deals
	(id, title, supplier_id, stage, value, currency, expected_at, owner_id, notes, closed_at, created_at, updated_at)
	VALUES (:id, :title, :supplier_id, :stage, :value, :currency, :expected_at, :owner_id, :notes, :closed_at, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, deal); err != nil {
		return fmt.Errorf("create deal: %w", err)
	}
	return nil
}

// GetByID fetches a deal by identifier.
func (r *DealRepository) GetByID(ctx context.Context, id string) (*models.Deal, error) {
	query := fmt.Sprintf(`SELECT %s FROM deals WHERE id = $1`, dealColumns)
	var deal models.Deal
	if err := r.db.GetContext(ctx, &deal, query, id); err != nil {
		return nil, err
	}
	return &deal, nil
}

// List returns deals matching the filter with the total count.
func (r *DealRepository) List(ctx context.Context, filter models.DealFilter) ([]models.Deal, int, error) {
	baseQuery := `FROM deals WHERE 1=1`
	var conditions []string
	var args []interface{}

	if len(filter.Stage) > 0 {
		placeholders := make([]string, len(filter.Stage))
		for i, stage := range filter.Stage {
			args = append(args, stage)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		conditions = append(conditions, fmt.Sprintf("stage IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.SupplierID != "" {
		conditions = append(conditions, fmt.Sprintf("supplier_id = $%d", len(args)+1))
		args = append(args, filter.SupplierID)
	}
	if filter.OwnerID != "" {
		conditions = append(conditions, fmt.Sprintf("owner_id = $%d", len(args)+1))
		args = append(args, filter.OwnerID)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(title) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+baseQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count deals: %w", err)
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{"created_at": true, "updated_at": true, "value": true, "expected_at": true}
	if !allowedSorts[sortBy] {
		sortBy = "created_at"
	}
	sortOrder := strings.ToUpper(filter.SortOrder)
	if sortOrder != "ASC" && sortOrder != "DESC" {
		sortOrder = "DESC"
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d",
		dealColumns, baseQuery, sortBy, sortOrder, pageSize, offset)

	var deals []models.Deal
	if err := r.db.SelectContext(ctx, &deals, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list deals: %w", err)
	}
	return deals, total, nil
}

// Update replaces the mutable deal fields.
func (r *DealRepository) Update(ctx context.Context, deal *models.Deal) error {
	deal.UpdatedAt = time.Now().UTC()
	const query = `UPDATE deals SET
	title = :title, supplier_id = :supplier_id, stage = :stage, value = :value,
	currency = :currency, expected_at = :expected_at, owner_id = :owner_id,
	notes = :notes, closed_at = :closed_at, updated_at = :updated_at
	WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, deal)
	if err != nil {
		return fmt.Errorf("update deal: %w", err)
	}
	return requireRowsAffected(result, "update deal")
}

// Delete removes a deal row.
func (r *DealRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM deals WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete deal: %w", err)
	}
	return requireRowsAffected(result, "delete deal")
}
