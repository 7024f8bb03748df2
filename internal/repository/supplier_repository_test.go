package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/buildlink/crm-api/internal/models"
)

func newSupplierRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestSupplierRepositoryCreateAndGet(t *testing.T) {
	db, mock, cleanup := newSupplierRepoMock(t)
	defer cleanup()

	repo := NewSupplierRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO suppliers")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	category := "concrete"
	region := "north"
	supplier := &models.Supplier{
		Name:       "Nordbeton GmbH",
		CategoryID: &category,
		Region:     &region,
		CreatedBy:  "user-1",
	}
	require.NoError(t, repo.Create(context.Background(), supplier))
	require.NotEmpty(t, supplier.ID)

	rows := sqlmock.NewRows([]string{"id", "name", "category_id", "region", "contact_name", "contact_email", "contact_phone", "website", "notes", "created_by", "created_at", "updated_at"}).
		AddRow(supplier.ID, "Nordbeton GmbH", "concrete", "north", nil, nil, nil, nil, nil, "user-1", time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, category_id, region")).
		WithArgs(supplier.ID).
		WillReturnRows(rows)

	found, err := repo.GetByID(context.Background(), supplier.ID)
	require.NoError(t, err)
	require.Equal(t, "Nordbeton GmbH", found.Name)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSupplierRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newSupplierRepoMock(t)
	defer cleanup()

	repo := NewSupplierRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM suppliers")).
		WithArgs("%beton%", "concrete").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	rows := sqlmock.NewRows([]string{"id", "name", "category_id", "region", "contact_name", "contact_email", "contact_phone", "website", "notes", "created_by", "created_at", "updated_at"}).
		AddRow("supplier-1", "Nordbeton GmbH", "concrete", "north", nil, nil, nil, nil, nil, "user-1", time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, category_id, region")).
		WithArgs("%beton%", "concrete").
		WillReturnRows(rows)

	list, total, err := repo.List(context.Background(), models.SupplierFilter{
		Search:     "Beton",
		CategoryID: "concrete",
	})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Len(t, list, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSupplierRepositoryListAllSkipsPaging(t *testing.T) {
	db, mock, cleanup := newSupplierRepoMock(t)
	defer cleanup()

	repo := NewSupplierRepository(db)
	rows := sqlmock.NewRows([]string{"id", "name", "category_id", "region", "contact_name", "contact_email", "contact_phone", "website", "notes", "created_by", "created_at", "updated_at"}).
		AddRow("supplier-1", "Nordbeton GmbH", "concrete", "north", nil, nil, nil, nil, nil, "user-1", time.Now(), time.Now()).
		AddRow("supplier-2", "Stahlbau Sued", "steel", "south", nil, nil, nil, nil, nil, "user-1", time.Now(), time.Now())
	mock.ExpectQuery(`SELECT id, name, category_id, region.+ORDER BY name ASC$`).
		WillReturnRows(rows)

	list, err := repo.ListAll(context.Background(), models.SupplierFilter{})
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSupplierRepositoryUpdateMissing(t *testing.T) {
	db, mock, cleanup := newSupplierRepoMock(t)
	defer cleanup()

	repo := NewSupplierRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE suppliers SET")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), &models.Supplier{ID: "supplier-404", Name: "Ghost"})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
