package models

import "time"

// TaskStatus tracks task completion.
type TaskStatus string

const (
	TaskStatusOpen       TaskStatus = "OPEN"
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"
	TaskStatusDone       TaskStatus = "DONE"
)

// TaskPriority orders tasks by urgency.
type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "LOW"
	TaskPriorityMedium TaskPriority = "MEDIUM"
	TaskPriorityHigh   TaskPriority = "HIGH"
)

// Task represents a follow-up item assigned to a team member.
type Task struct {
	ID          string       `db:"id" json:"id"`
	Title       string       `db:"title" json:"title"`
	Description *string      `db:"description" json:"description,omitempty"`
	Status      TaskStatus   `db:"status" json:"status"`
	Priority    TaskPriority `db:"priority" json:"priority"`
	AssigneeID  *string      `db:"assignee_id" json:"assignee_id,omitempty"`
	SupplierID  *string      `db:"supplier_id" json:"supplier_id,omitempty"`
	DealID      *string      `db:"deal_id" json:"deal_id,omitempty"`
	DueAt       *time.Time   `db:"due_at" json:"due_at,omitempty"`
	CompletedAt *time.Time   `db:"completed_at" json:"completed_at,omitempty"`
	CreatedBy   string       `db:"created_by" json:"created_by"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time    `db:"updated_at" json:"updated_at"`
}

// TaskFilter constrains task listing queries.
type TaskFilter struct {
	Status     []TaskStatus
	AssigneeID string
	SupplierID string
	DealID     string
	DueBefore  *time.Time
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}
