package models

import (
	"time"

	"github.com/lib/pq"
)

// AccessRule restricts which suppliers a user may see by category and region.
// An empty dimension means the rule places no restriction on that dimension.
// Rules are immutable once created except for full replacement.
type AccessRule struct {
	ID         string         `db:"id" json:"id"`
	UserID     string         `db:"user_id" json:"user_id"`
	Categories pq.StringArray `db:"categories" json:"categories"`
	Regions    pq.StringArray `db:"regions" json:"regions"`
	Notes      *string        `db:"notes" json:"notes,omitempty"`
	CreatedBy  string         `db:"created_by" json:"created_by"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time      `db:"updated_at" json:"updated_at"`
}

// Matches reports whether the candidate satisfies this rule. Both dimensions
// must match; an unrestricted dimension matches anything.
func (r AccessRule) Matches(candidate VisibilityCandidate) bool {
	if len(r.Categories) > 0 {
		category := candidate.CandidateCategory()
		if category == nil || !containsString(r.Categories, *category) {
			return false
		}
	}
	if len(r.Regions) > 0 {
		region := candidate.CandidateRegion()
		if region == nil || !containsString(r.Regions, *region) {
			return false
		}
	}
	return true
}

func containsString(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
