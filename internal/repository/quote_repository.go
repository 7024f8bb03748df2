package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/buildlink/crm-api/internal/models"
)

// QuoteRepository persists quotes and their workflow metadata.
type QuoteRepository struct {
	db *sqlx.DB
}

// NewQuoteRepository constructs the repository.
func NewQuoteRepository(db *sqlx.DB) *QuoteRepository {
	return &QuoteRepository{db: db}
}

const quoteColumns = `id, quote_number, supplier_id, deal_id, title, description, amount, currency, valid_until, status,
	created_by, submitted_at, approved_by, approved_at, approval_note, rejected_by, rejected_at, rejection_note,
	responded_at, created_at, updated_at`

// Create inserts a new quote in draft status.
func (r *QuoteRepository) Create(ctx context.Context, quote *models.Quote) error {
	if quote.ID == "" {
		quote.ID = uuid.NewString()
	}
	if quote.Status == "" {
		quote.Status = models.QuoteStatusDraft
	}
	now := time.Now().UTC()
	if quote.CreatedAt.IsZero() {
		quote.CreatedAt = now
	}
	quote.UpdatedAt = now
	const query = `INSERT INTO quotes
	(id, quote_number, supplier_id, deal_id, title, description, amount, currency, valid_until, status,
	 created_by, submitted_at, approved_by, approved_at, approval_note, rejected_by, rejected_at, rejection_note,
	 responded_at, created_at, updated_at)
	VALUES (:id, :quote_number, :supplier_id, :deal_id, :title, :description, :amount, :currency, :valid_until, :status,
	 :created_by, :submitted_at, :approved_by, :approved_at, :approval_note, :rejected_by, :rejected_at, :rejection_note,
	 :responded_at, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, quote); err != nil {
		return fmt.Errorf("create quote: %w", err)
	}
	return nil
}

// GetByID fetches a quote by identifier.
func (r *QuoteRepository) GetByID(ctx context.Context, id string) (*models.Quote, error) {
	query := fmt.Sprintf(`SELECT %s FROM quotes WHERE id = $1`, quoteColumns)
	var quote models.Quote
	if err := r.db.GetContext(ctx, &quote, query, id); err != nil {
		return nil, err
	}
	return &quote, nil
}

// List returns quotes matching the filter with the total count.
func (r *QuoteRepository) List(ctx context.Context, filter models.QuoteFilter) ([]models.Quote, int, error) {
	baseQuery := `FROM quotes WHERE 1=1`
	var conditions []string
	var args []interface{}

	if len(filter.Status) > 0 {
		placeholders := make([]string, len(filter.Status))
		for i, status := range filter.Status {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		conditions = append(conditions, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.SupplierID != "" {
		conditions = append(conditions, fmt.Sprintf("supplier_id = $%d", len(args)+1))
		args = append(args, filter.SupplierID)
	}
	if filter.DealID != "" {
		conditions = append(conditions, fmt.Sprintf("deal_id = $%d", len(args)+1))
		args = append(args, filter.DealID)
	}
	if filter.CreatedBy != "" {
		conditions = append(conditions, fmt.Sprintf("created_by = $%d", len(args)+1))
		args = append(args, filter.CreatedBy)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(title) LIKE $%d OR LOWER(quote_number) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	var total int
	countQuery := "SELECT COUNT(*) " + baseQuery
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count quotes: %w", err)
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{"created_at": true, "updated_at": true, "amount": true, "quote_number": true}
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
		quoteColumns, baseQuery, sortBy, sortOrder, pageSize, offset)

	var quotes []models.Quote
	if err := r.db.SelectContext(ctx, &quotes, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list quotes: %w", err)
	}
	return quotes, total, nil
}

// UpdateDraft replaces the editable fields of a draft quote.
func (r *QuoteRepository) UpdateDraft(ctx context.Context, quote *models.Quote) error {
	quote.UpdatedAt = time.Now().UTC()
	query := fmt.Sprintf(`UPDATE quotes SET
	title = :title, description = :description, amount = :amount, currency = :currency,
	valid_until = :valid_until, supplier_id = :supplier_id, deal_id = :deal_id, updated_at = :updated_at
	WHERE id = :id AND status = '%s'`, models.QuoteStatusDraft)
	result, err := r.db.NamedExecContext(ctx, query, quote)
	if err != nil {
		return fmt.Errorf("update draft quote: %w", err)
	}
	return requireRowsAffected(result, "update draft quote")
}

// UpdateQuoteStatusParams groups the columns written by a workflow transition.
type UpdateQuoteStatusParams struct {
	ID             string
	ExpectedStatus models.QuoteStatus
	Status         models.QuoteStatus
	SubmittedAt    *time.Time
	ApprovedBy     *string
	ApprovedAt     *time.Time
	ApprovalNote   *string
	RejectedBy     *string
	RejectedAt     *time.Time
	RejectionNote  *string
	ClearRejection bool
	RespondedAt    *time.Time
}

// UpdateStatus performs the conditional transition write. The WHERE clause is
// keyed on the expected current status; zero affected rows means a concurrent
// writer moved the quote first and surfaces as sql.ErrNoRows.
func (r *QuoteRepository) UpdateStatus(ctx context.Context, params UpdateQuoteStatusParams) error {
	setParts := []string{"status = :status", "updated_at = :updated_at"}
	if params.SubmittedAt != nil {
		setParts = append(setParts, "submitted_at = :submitted_at")
	}
	if params.ApprovedBy != nil {
		setParts = append(setParts, "approved_by = :approved_by", "approved_at = :approved_at", "approval_note = :approval_note")
	}
	if params.RejectedBy != nil {
		setParts = append(setParts, "rejected_by = :rejected_by", "rejected_at = :rejected_at", "rejection_note = :rejection_note")
	}
	if params.ClearRejection {
		setParts = append(setParts, "rejected_by = NULL", "rejected_at = NULL", "rejection_note = NULL")
	}
	if params.RespondedAt != nil {
		setParts = append(setParts, "responded_at = :responded_at")
	}

	query := fmt.Sprintf("UPDATE quotes SET %s WHERE id = :id AND status = '%s'",
		strings.Join(setParts, ", "), params.ExpectedStatus)
	result, err := r.db.NamedExecContext(ctx, query, map[string]interface{}{
		"id":             params.ID,
		"status":         params.Status,
		"updated_at":     time.Now().UTC(),
		"submitted_at":   params.SubmittedAt,
		"approved_by":    params.ApprovedBy,
		"approved_at":    params.ApprovedAt,
		"approval_note":  params.ApprovalNote,
		"rejected_by":    params.RejectedBy,
		"rejected_at":    params.RejectedAt,
		"rejection_note": params.RejectionNote,
		"responded_at":   params.RespondedAt,
	})
	if err != nil {
		return fmt.Errorf("update quote status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check quote update rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a quote row. Deletion is not part of the workflow; the
// service layer restricts it to Admin.
func (r *QuoteRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM quotes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete quote: %w", err)
	}
	return requireRowsAffected(result, "delete quote")
}

// NextQuoteNumber allocates a sequential human-readable quote number.
func (r *QuoteRepository) NextQuoteNumber(ctx context.Context) (string, error) {
	var seq int64
	if err := r.db.GetContext(ctx, &seq, `SELECT nextval('quote_number_seq')`); err != nil {
		return "", fmt.Errorf("next quote number: %w", err)
	}
	return fmt.Sprintf("Q-%06d", seq), nil
}
