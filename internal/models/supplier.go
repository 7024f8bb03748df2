package models

import "time"

// Supplier represents a construction supplier directory entry.
type Supplier struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	CategoryID   *string   `db:"category_id" json:"category_id,omitempty"`
	Region       *string   `db:"region" json:"region,omitempty"`
	ContactName  *string   `db:"contact_name" json:"contact_name,omitempty"`
	ContactEmail *string   `db:"contact_email" json:"contact_email,omitempty"`
	ContactPhone *string   `db:"contact_phone" json:"contact_phone,omitempty"`
	Website      *string   `db:"website" json:"website,omitempty"`
	Notes        *string   `db:"notes" json:"notes,omitempty"`
	CreatedBy    string    `db:"created_by" json:"created_by"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// SupplierFilter captures listing criteria for suppliers.
type SupplierFilter struct {
	Search     string
	CategoryID string
	Region     string
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}

// VisibilityCandidate exposes the dimensions access rules match against.
// Suppliers and drive folders both satisfy it.
type VisibilityCandidate interface {
	CandidateID() string
	CandidateCategory() *string
	CandidateRegion() *string
}

// CandidateID implements VisibilityCandidate.
func (s Supplier) CandidateID() string { return s.ID }

// CandidateCategory implements VisibilityCandidate.
func (s Supplier) CandidateCategory() *string { return s.CategoryID }

// CandidateRegion implements VisibilityCandidate.
func (s Supplier) CandidateRegion() *string { return s.Region }
