package service

import (
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/buildlink/crm-api/internal/models"
)

func supplierWith(id string, category, region string) models.Supplier {
	s := models.Supplier{ID: id}
	if category != "" {
		s.CategoryID = &category
	}
	if region != "" {
		s.Region = &region
	}
	return s
}

func candidatesOf(suppliers ...models.Supplier) []models.VisibilityCandidate {
	candidates := make([]models.VisibilityCandidate, len(suppliers))
	for i, s := range suppliers {
		candidates[i] = s
	}
	return candidates
}

func TestComputeVisibleIDsAdminSeesEverything(t *testing.T) {
	candidates := candidatesOf(
		supplierWith("s1", "concrete", "north"),
		supplierWith("s2", "", ""),
	)

	visible := ComputeVisibleIDs(models.RoleAdmin, nil, candidates)
	require.Len(t, visible, 2)
	require.Contains(t, visible, "s1")
	require.Contains(t, visible, "s2")
}

func TestComputeVisibleIDsNoRulesSeesNothing(t *testing.T) {
	candidates := candidatesOf(supplierWith("s1", "concrete", "north"))

	visible := ComputeVisibleIDs(models.RoleManager, nil, candidates)
	require.Empty(t, visible)
}

func TestComputeVisibleIDsDimensionsANDWithinRule(t *testing.T) {
	rules := []models.AccessRule{{
		Categories: pq.StringArray{"concrete"},
		Regions:    pq.StringArray{"north"},
	}}
	candidates := candidatesOf(
		supplierWith("match", "concrete", "north"),
		supplierWith("wrong-region", "concrete", "south"),
		supplierWith("wrong-category", "steel", "north"),
		supplierWith("missing-region", "concrete", ""),
	)

	visible := ComputeVisibleIDs(models.RoleManager, rules, candidates)
	require.Len(t, visible, 1)
	require.Contains(t, visible, "match")
}

func TestComputeVisibleIDsRulesORTogether(t *testing.T) {
	rules := []models.AccessRule{
		{Categories: pq.StringArray{"concrete"}},
		{Regions: pq.StringArray{"south"}},
	}
	candidates := candidatesOf(
		supplierWith("by-category", "concrete", "north"),
		supplierWith("by-region", "steel", "south"),
		supplierWith("neither", "steel", "north"),
	)

	visible := ComputeVisibleIDs(models.RoleProcurement, rules, candidates)
	require.Len(t, visible, 2)
	require.Contains(t, visible, "by-category")
	require.Contains(t, visible, "by-region")
}

func TestComputeVisibleIDsEmptyDimensionUnrestricted(t *testing.T) {
	rules := []models.AccessRule{{Categories: pq.StringArray{}, Regions: pq.StringArray{}}}
	candidates := candidatesOf(
		supplierWith("s1", "concrete", "north"),
		supplierWith("s2", "", ""),
	)

	visible := ComputeVisibleIDs(models.RoleViewer, rules, candidates)
	require.Len(t, visible, 2)
}

func TestFilterSuppliersPreservesOrder(t *testing.T) {
	rules := []models.AccessRule{{Categories: pq.StringArray{"concrete", "steel"}}}
	suppliers := []models.Supplier{
		supplierWith("a", "steel", ""),
		supplierWith("b", "timber", ""),
		supplierWith("c", "concrete", ""),
	}

	filtered := FilterSuppliers(models.RoleManager, rules, suppliers)
	require.Len(t, filtered, 2)
	require.Equal(t, "a", filtered[0].ID)
	require.Equal(t, "c", filtered[1].ID)
}
