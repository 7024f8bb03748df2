package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/buildlink/crm-api/internal/models"
	appErrors "github.com/buildlink/crm-api/pkg/errors"
)

type supplierRepoStub struct {
	suppliers []models.Supplier
}

func (s *supplierRepoStub) Create(ctx context.Context, supplier *models.Supplier) error {
	if supplier.ID == "" {
		supplier.ID = "supplier-new"
	}
	s.suppliers = append(s.suppliers, *supplier)
	return nil
}

func (s *supplierRepoStub) GetByID(ctx context.Context, id string) (*models.Supplier, error) {
	for i := range s.suppliers {
		if s.suppliers[i].ID == id {
			copy := s.suppliers[i]
			return &copy, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *supplierRepoStub) List(ctx context.Context, filter models.SupplierFilter) ([]models.Supplier, int, error) {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 50
	}
	start := (page - 1) * size
	if start > len(s.suppliers) {
		start = len(s.suppliers)
	}
	end := start + size
	if end > len(s.suppliers) {
		end = len(s.suppliers)
	}
	return append([]models.Supplier(nil), s.suppliers[start:end]...), len(s.suppliers), nil
}

func (s *supplierRepoStub) ListAll(ctx context.Context, filter models.SupplierFilter) ([]models.Supplier, error) {
	return append([]models.Supplier(nil), s.suppliers...), nil
}

func (s *supplierRepoStub) Update(ctx context.Context, supplier *models.Supplier) error {
	for i := range s.suppliers {
		if s.suppliers[i].ID == supplier.ID {
			s.suppliers[i] = *supplier
			return nil
		}
	}
	return sql.ErrNoRows
}

func (s *supplierRepoStub) Delete(ctx context.Context, id string) error {
	for i := range s.suppliers {
		if s.suppliers[i].ID == id {
			s.suppliers = append(s.suppliers[:i], s.suppliers[i+1:]...)
			return nil
		}
	}
	return sql.ErrNoRows
}

type accessRuleReaderStub struct {
	rules map[string][]models.AccessRule
}

func (s *accessRuleReaderStub) ListByUser(ctx context.Context, userID string) ([]models.AccessRule, error) {
	return s.rules[userID], nil
}

func newSupplierFixture() (*supplierRepoStub, *accessRuleReaderStub) {
	repo := &supplierRepoStub{suppliers: []models.Supplier{
		supplierWith("s1", "concrete", "north"),
		supplierWith("s2", "steel", "south"),
		supplierWith("s3", "timber", "north"),
	}}
	rules := &accessRuleReaderStub{rules: map[string][]models.AccessRule{
		"restricted-user": {{Categories: pq.StringArray{"concrete"}, Regions: pq.StringArray{"north"}}},
	}}
	return repo, rules
}

func TestSupplierServiceListAppliesAccessRules(t *testing.T) {
	repo, rules := newSupplierFixture()
	svc := NewSupplierService(repo, rules, nil, nil)

	visible, pagination, err := svc.List(context.Background(), actorWith("restricted-user", models.RoleManager), models.SupplierFilter{})
	require.NoError(t, err)
	require.Len(t, visible, 1)
	require.Equal(t, "s1", visible[0].ID)
	require.Equal(t, 1, pagination.TotalCount)
}

func TestSupplierServiceListAdminBypass(t *testing.T) {
	repo, rules := newSupplierFixture()
	svc := NewSupplierService(repo, rules, nil, nil)

	visible, _, err := svc.List(context.Background(), actorWith("admin-1", models.RoleAdmin), models.SupplierFilter{})
	require.NoError(t, err)
	require.Len(t, visible, 3)
}

func TestSupplierServiceListNoRulesEmpty(t *testing.T) {
	repo, rules := newSupplierFixture()
	svc := NewSupplierService(repo, rules, nil, nil)

	visible, _, err := svc.List(context.Background(), actorWith("no-rules-user", models.RoleViewer), models.SupplierFilter{})
	require.NoError(t, err)
	require.Empty(t, visible)
}

func TestSupplierServiceListPaginatesAfterAccessRules(t *testing.T) {
	repo := &supplierRepoStub{suppliers: []models.Supplier{
		supplierWith("s1", "concrete", "north"),
		supplierWith("s2", "steel", "south"),
		supplierWith("s3", "concrete", "north"),
		supplierWith("s4", "timber", "north"),
		supplierWith("s5", "concrete", "north"),
	}}
	rules := &accessRuleReaderStub{rules: map[string][]models.AccessRule{
		"restricted-user": {{Categories: pq.StringArray{"concrete"}, Regions: pq.StringArray{"north"}}},
	}}
	svc := NewSupplierService(repo, rules, nil, nil)
	actor := actorWith("restricted-user", models.RoleManager)

	first, pagination, err := svc.List(context.Background(), actor, models.SupplierFilter{Page: 1, PageSize: 2})
	require.NoError(t, err)
	require.Len(t, first, 2)
	require.Equal(t, "s1", first[0].ID)
	require.Equal(t, "s3", first[1].ID)
	require.Equal(t, 3, pagination.TotalCount)

	second, pagination, err := svc.List(context.Background(), actor, models.SupplierFilter{Page: 2, PageSize: 2})
	require.NoError(t, err)
	require.Len(t, second, 1)
	require.Equal(t, "s5", second[0].ID)
	require.Equal(t, 3, pagination.TotalCount)

	third, _, err := svc.List(context.Background(), actor, models.SupplierFilter{Page: 3, PageSize: 2})
	require.NoError(t, err)
	require.Empty(t, third)
}

func TestSupplierServiceGetHiddenIsNotFound(t *testing.T) {
	repo, rules := newSupplierFixture()
	svc := NewSupplierService(repo, rules, nil, nil)

	_, err := svc.Get(context.Background(), actorWith("restricted-user", models.RoleManager), "s2")
	require.Error(t, err)
	require.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	supplier, err := svc.Get(context.Background(), actorWith("restricted-user", models.RoleManager), "s1")
	require.NoError(t, err)
	require.Equal(t, "s1", supplier.ID)
}

func TestSupplierServiceExportCSVScopedToVisible(t *testing.T) {
	repo, rules := newSupplierFixture()
	svc := NewSupplierService(repo, rules, nil, nil)

	data, err := svc.ExportCSV(context.Background(), actorWith("restricted-user", models.RoleManager), models.SupplierFilter{})
	require.NoError(t, err)

	content := string(data)
	lines := strings.Split(strings.TrimSpace(content), "\n")
	require.Len(t, lines, 2)
	require.Contains(t, lines[0], "Name")
}

func TestSupplierServiceExportCSVCoversAllPages(t *testing.T) {
	repo := &supplierRepoStub{}
	for i := 0; i < 250; i++ {
		repo.suppliers = append(repo.suppliers, supplierWith(fmt.Sprintf("s%03d", i), "concrete", "north"))
	}
	svc := NewSupplierService(repo, &accessRuleReaderStub{}, nil, nil)

	data, err := svc.ExportCSV(context.Background(), actorWith("admin-1", models.RoleAdmin), models.SupplierFilter{})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 251)
}

func TestSupplierServiceCreateValidates(t *testing.T) {
	repo, rules := newSupplierFixture()
	svc := NewSupplierService(repo, rules, nil, nil)

	_, err := svc.Create(context.Background(), actorWith("admin-1", models.RoleAdmin), CreateSupplierRequest{})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	supplier, err := svc.Create(context.Background(), actorWith("admin-1", models.RoleAdmin), CreateSupplierRequest{Name: "Nordbeton"})
	require.NoError(t, err)
	require.Equal(t, "admin-1", supplier.CreatedBy)
}
