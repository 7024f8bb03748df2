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

// SupplierRepository persists supplier directory entries.
type SupplierRepository struct {
	db *sqlx.DB
}

// NewSupplierRepository constructs the repository.
func NewSupplierRepository(db *sqlx.DB) *SupplierRepository {
	return &SupplierRepository{db: db}
}

const supplierColumns = `id, name, category_id, region, contact_name, contact_email, contact_phone, website, notes, created_by, created_at, updated_at`

// Create inserts a new supplier row.
func (r *SupplierRepository) Create(ctx context.Context, supplier *models.Supplier) error {
	if supplier.ID == "" {
		supplier.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if supplier.CreatedAt.IsZero() {
		supplier.CreatedAt = now
	}
	supplier.UpdatedAt = now
	const query = `INSERT INTO suppliers
	(id, name, category_id, region, contact_name, contact_email, contact_phone, website, notes, created_by, created_at, updated_at)
	VALUES (:id, :name, :category_id, :region, :contact_name, :contact_email, :contact_phone, :website, :notes, :created_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, supplier); err != nil {
		return fmt.Errorf("create supplier: %w", err)
	}
	return nil
}

// GetByID fetches a supplier by identifier.
func (r *SupplierRepository) GetByID(ctx context.Context, id string) (*models.Supplier, error) {
	query := fmt.Sprintf(`SELECT %s FROM suppliers WHERE id = $1`, supplierColumns)
	var supplier models.Supplier
	if err := r.db.GetContext(ctx, &supplier, query, id); err != nil {
		return nil, err
	}
	return &supplier, nil
}

func supplierFilterQuery(filter models.SupplierFilter) (string, []interface{}) {
	baseQuery := `FROM suppliers WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(name) LIKE $%d OR LOWER(COALESCE(contact_name, '')) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	if filter.CategoryID != "" {
		conditions = append(conditions, fmt.Sprintf("category_id = $%d", len(args)+1))
		args = append(args, filter.CategoryID)
	}
	if filter.Region != "" {
		conditions = append(conditions, fmt.Sprintf("region = $%d", len(args)+1))
		args = append(args, filter.Region)
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}
	return baseQuery, args
}

func supplierOrderBy(filter models.SupplierFilter) string {
	sortBy := filter.SortBy
	allowedSorts := map[string]bool{"name": true, "created_at": true, "updated_at": true}
	if !allowedSorts[sortBy] {
		sortBy = "name"
	}
	sortOrder := strings.ToUpper(filter.SortOrder)
	if sortOrder != "ASC" && sortOrder != "DESC" {
		sortOrder = "ASC"
	}
	return sortBy + " " + sortOrder
}

// List returns suppliers matching the filter with the total count.
func (r *SupplierRepository) List(ctx context.Context, filter models.SupplierFilter) ([]models.Supplier, int, error) {
	baseQuery, args := supplierFilterQuery(filter)

	var total int
	countQuery := "SELECT COUNT(*) " + baseQuery
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count suppliers: %w", err)
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s LIMIT %d OFFSET %d",
		supplierColumns, baseQuery, supplierOrderBy(filter), pageSize, offset)

	var suppliers []models.Supplier
	if err := r.db.SelectContext(ctx, &suppliers, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list suppliers: %w", err)
	}
	return suppliers, total, nil
}

// ListAll returns every supplier matching the filter without paging, for
// callers that apply access rules in memory before slicing a page.
func (r *SupplierRepository) ListAll(ctx context.Context, filter models.SupplierFilter) ([]models.Supplier, error) {
	baseQuery, args := supplierFilterQuery(filter)
	query := fmt.Sprintf("SELECT %s %s ORDER BY %s", supplierColumns, baseQuery, supplierOrderBy(filter))

	var suppliers []models.Supplier
	if err := r.db.SelectContext(ctx, &suppliers, query, args...); err != nil {
		return nil, fmt.Errorf("list suppliers: %w", err)
	}
	return suppliers, nil
}

// Update replaces the mutable supplier fields.
func (r *SupplierRepository) Update(ctx context.Context, supplier *models.Supplier) error {
	supplier.UpdatedAt = time.Now().UTC()
	const query = `UPDATE suppliers SET
	name = :name, category_id = :category_id, region = :region,
	contact_name = :contact_name, contact_email = :contact_email, contact_phone = :contact_phone,
	website = :website, notes = :notes, updated_at = :updated_at
	WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, supplier)
	if err != nil {
		return fmt.Errorf("update supplier: %w", err)
	}
	return requireRowsAffected(result, "update supplier")
}

// Delete removes a supplier row.
func (r *SupplierRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM suppliers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete supplier: %w", err)
	}
	return requireRowsAffected(result, "delete supplier")
}
