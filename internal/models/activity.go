package models

import "time"

// ActivityType classifies logged interactions.
type ActivityType string

const (
	ActivityTypeCall    ActivityType = "CALL"
	ActivityTypeMeeting ActivityType = "MEETING"
	ActivityTypeEmail   ActivityType = "EMAIL"
	ActivityTypeNote    ActivityType = "NOTE"
)

// Activity is a timeline entry attached to a supplier, deal or quote.
type Activity struct {
	ID         string       `db:"id" json:"id"`
	Type       ActivityType `db:"type" json:"type"`
	Subject    string       `db:"subject" json:"subject"`
	Body       *string      `db:"body" json:"body,omitempty"`
	SupplierID *string      `db:"supplier_id" json:"supplier_id,omitempty"`
	DealID     *string      `db:"deal_id" json:"deal_id,omitempty"`
	QuoteID    *string      `db:"quote_id" json:"quote_id,omitempty"`
	CreatedBy  string       `db:"created_by" json:"created_by"`
	OccurredAt time.Time    `db:"occurred_at" json:"occurred_at"`
	CreatedAt  time.Time    `db:"created_at" json:"created_at"`
}

// ActivityFilter constrains activity listing queries.
type ActivityFilter struct {
	Type       []ActivityType
	SupplierID string
	DealID     string
	QuoteID    string
	CreatedBy  string
	Page       int
	PageSize   int
}
