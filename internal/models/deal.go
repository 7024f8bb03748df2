package models

import "time"

// DealStage tracks pipeline progress for a deal.
type DealStage string

const (
	DealStageLead        DealStage = "LEAD"
	DealStageQualified   DealStage = "QUALIFIED"
	DealStageProposal    DealStage = "PROPOSAL"
	DealStageNegotiation DealStage = "NEGOTIATION"
	DealStageWon         DealStage = "WON"
	DealStageLost        DealStage = "LOST"
)

// DealStages lists every pipeline stage in order.
var DealStages = []DealStage{
	DealStageLead,
	DealStageQualified,
	DealStageProposal,
	DealStageNegotiation,
	DealStageWon,
	DealStageLost,
}

// ValidDealStage reports whether the value is a known stage.
func ValidDealStage(stage DealStage) bool {
	for _, s := range DealStages {
		if s == stage {
			return true
		}
	}
	return false
}

// Deal represents a sales opportunity against a supplier.
type Deal struct {
	ID           string     `db:"id" json:"id"`
	Title        string     `db:"title" json:"title"`
	SupplierID   *string    `db:"supplier_id" json:"supplier_id,omitempty"`
	Stage        DealStage  `db:"stage" json:"stage"`
	Value        *float64   `db:"value" json:"value,omitempty"`
	Currency     string     `db:"currency" json:"currency"`
	ExpectedAt   *time.Time `db:"expected_at" json:"expected_at,omitempty"`
	OwnerID      string     `db:"owner_id" json:"owner_id"`
	Notes        *string    `db:"notes" json:"notes,omitempty"`
	ClosedAt     *time.Time `db:"closed_at" json:"closed_at,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// DealFilter constrains deal listing queries.
type DealFilter struct {
	Stage      []DealStage
	SupplierID string
	OwnerID    string
	Search     string
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}
