package models

import "time"

// QuoteStatus captures the quote approval lifecycle.
type QuoteStatus string

const (
	QuoteStatusDraft    QuoteStatus = "DRAFT"
	QuoteStatusPending  QuoteStatus = "PENDING"
	QuoteStatusApproved QuoteStatus = "APPROVED"
	QuoteStatusRejected QuoteStatus = "REJECTED"
	QuoteStatusAccepted QuoteStatus = "ACCEPTED"
	QuoteStatusDeclined QuoteStatus = "DECLINED"
)

// QuoteAction enumerates workflow actions on a quote.
type QuoteAction string

const (
	QuoteActionSubmit  QuoteAction = "SUBMIT"
	QuoteActionApprove QuoteAction = "APPROVE"
	QuoteActionReject  QuoteAction = "REJECT"
	QuoteActionAccept  QuoteAction = "ACCEPT"
	QuoteActionDecline QuoteAction = "DECLINE"
)

// Quote is a priced proposal moving through the approval workflow.
type Quote struct {
	ID            string      `db:"id" json:"id"`
	QuoteNumber   string      `db:"quote_number" json:"quote_number"`
	SupplierID    string      `db:"supplier_id" json:"supplier_id"`
	DealID        *string     `db:"deal_id" json:"deal_id,omitempty"`
	Title         string      `db:"title" json:"title"`
	Description   *string     `db:"description" json:"description,omitempty"`
	Amount        *float64    `db:"amount" json:"amount,omitempty"`
	Currency      string      `db:"currency" json:"currency"`
	ValidUntil    *time.Time  `db:"valid_until" json:"valid_until,omitempty"`
	Status        QuoteStatus `db:"status" json:"status"`
	CreatedBy     string      `db:"created_by" json:"created_by"`
	SubmittedAt   *time.Time  `db:"submitted_at" json:"submitted_at,omitempty"`
	ApprovedBy    *string     `db:"approved_by" json:"approved_by,omitempty"`
	ApprovedAt    *time.Time  `db:"approved_at" json:"approved_at,omitempty"`
	ApprovalNote  *string     `db:"approval_note" json:"approval_note,omitempty"`
	RejectedBy    *string     `db:"rejected_by" json:"rejected_by,omitempty"`
	RejectedAt    *time.Time  `db:"rejected_at" json:"rejected_at,omitempty"`
	RejectionNote *string     `db:"rejection_note" json:"rejection_note,omitempty"`
	RespondedAt   *time.Time  `db:"responded_at" json:"responded_at,omitempty"`
	CreatedAt     time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time   `db:"updated_at" json:"updated_at"`
}

// IsTerminal reports whether the status has no outgoing transitions.
func (s QuoteStatus) IsTerminal() bool {
	return s == QuoteStatusAccepted || s == QuoteStatusDeclined
}

// QuoteFilter constrains quote listing queries.
type QuoteFilter struct {
	Status     []QuoteStatus
	SupplierID string
	DealID     string
	CreatedBy  string
	Search     string
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}
