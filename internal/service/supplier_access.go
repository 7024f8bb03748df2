package service

import (
	"github.com/buildlink/crm-api/internal/models"
)

// ComputeVisibleIDs returns the candidate IDs the user may see. Admins see
// everything; other roles see a candidate when at least one of their access
// rules matches it (rules OR together, the category and region dimensions of
// a single rule AND together). A user with no rules sees nothing.
func ComputeVisibleIDs(role models.UserRole, rules []models.AccessRule, candidates []models.VisibilityCandidate) map[string]struct{} {
	visible := make(map[string]struct{}, len(candidates))

	if role == models.RoleAdmin {
		for _, c := range candidates {
			visible[c.CandidateID()] = struct{}{}
		}
		return visible
	}

	if len(rules) == 0 {
		return visible
	}

	for _, c := range candidates {
		for _, rule := range rules {
			if rule.Matches(c) {
				visible[c.CandidateID()] = struct{}{}
				break
			}
		}
	}
	return visible
}

// FilterSuppliers narrows a supplier list to the entries visible to the user.
// Order is preserved.
func FilterSuppliers(role models.UserRole, rules []models.AccessRule, suppliers []models.Supplier) []models.Supplier {
	if role == models.RoleAdmin {
		return suppliers
	}
	candidates := make([]models.VisibilityCandidate, len(suppliers))
	for i, s := range suppliers {
		candidates[i] = s
	}
	visible := ComputeVisibleIDs(role, rules, candidates)

	filtered := make([]models.Supplier, 0, len(visible))
	for _, s := range suppliers {
		if _, ok := visible[s.ID]; ok {
			filtered = append(filtered, s)
		}
	}
	return filtered
}
