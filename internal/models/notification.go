package models

import "time"

// NotificationType identifies the workflow event behind a notification.
type NotificationType string

const (
	NotificationQuoteSubmitted NotificationType = "QUOTE_SUBMITTED"
	NotificationQuoteApproved  NotificationType = "QUOTE_APPROVED"
	NotificationQuoteRejected  NotificationType = "QUOTE_REJECTED"
	NotificationQuoteAccepted  NotificationType = "QUOTE_ACCEPTED"
	NotificationQuoteDeclined  NotificationType = "QUOTE_DECLINED"
	NotificationTaskAssigned   NotificationType = "TASK_ASSIGNED"
)

// Notification is an in-app notification row for a single recipient.
type Notification struct {
	ID          string           `db:"id" json:"id"`
	RecipientID string           `db:"recipient_id" json:"recipient_id"`
	Type        NotificationType `db:"type" json:"type"`
	Title       string           `db:"title" json:"title"`
	Body        string           `db:"body" json:"body"`
	ResourceID  *string          `db:"resource_id" json:"resource_id,omitempty"`
	ReadAt      *time.Time       `db:"read_at" json:"read_at,omitempty"`
	CreatedAt   time.Time        `db:"created_at" json:"created_at"`
}

// QuoteEvent describes a workflow transition handed to the notifier. Dispatch
// is best effort; a failed delivery never affects the transition itself.
type QuoteEvent struct {
	Type        NotificationType
	QuoteID     string
	QuoteNumber string
	QuoteTitle  string
	ActorID     string
	OwnerID     string
	Note        string
}
