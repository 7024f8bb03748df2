package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildlink/crm-api/internal/models"
	appErrors "github.com/buildlink/crm-api/pkg/errors"
	"github.com/buildlink/crm-api/pkg/export"
)

type quoteReaderStub struct {
	quote *models.Quote
	err   error
}

func (s *quoteReaderStub) Get(ctx context.Context, id string) (*models.Quote, error) {
	return s.quote, s.err
}

type supplierReaderStub struct {
	supplier *models.Supplier
	err      error
}

func (s *supplierReaderStub) Get(ctx context.Context, actor *models.JWTClaims, id string) (*models.Supplier, error) {
	return s.supplier, s.err
}

type pdfRendererStub struct {
	dataset export.Dataset
	title   string
}

func (s *pdfRendererStub) Render(data export.Dataset, title string) ([]byte, error) {
	s.dataset = data
	s.title = title
	return []byte("%PDF-1.4"), nil
}

func exportQuoteFixture() *models.Quote {
	amount := 12500.0
	note := "within budget"
	return &models.Quote{
		ID:           "quote-1",
		QuoteNumber:  "Q-2026-0007",
		SupplierID:   "supplier-1",
		Title:        "Rebar delivery",
		Amount:       &amount,
		Currency:     "EUR",
		Status:       models.QuoteStatusApproved,
		ApprovalNote: &note,
	}
}

func TestExportServiceQuotePDF(t *testing.T) {
	renderer := &pdfRendererStub{}
	svc := NewExportService(
		&quoteReaderStub{quote: exportQuoteFixture()},
		&supplierReaderStub{supplier: &models.Supplier{ID: "supplier-1", Name: "Beton Nord"}},
		renderer,
		nil,
	)

	payload, filename, err := svc.QuotePDF(context.Background(), &models.JWTClaims{UserID: "admin", Role: models.RoleAdmin}, "quote-1")
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4"), payload)
	assert.Equal(t, "q-2026-0007.pdf", filename)
	assert.Equal(t, "Quote Q-2026-0007", renderer.title)

	values := map[string]string{}
	for _, row := range renderer.dataset.Rows {
		values[row["Field"]] = row["Value"]
	}
	assert.Equal(t, "Q-2026-0007", values["Quote"])
	assert.Equal(t, "Beton Nord", values["Supplier"])
	assert.Equal(t, "12500.00 EUR", values["Amount"])
	assert.Equal(t, "within budget", values["Approval note"])
}

func TestExportServiceQuotePDFSupplierHidden(t *testing.T) {
	svc := NewExportService(
		&quoteReaderStub{quote: exportQuoteFixture()},
		&supplierReaderStub{err: appErrors.Clone(appErrors.ErrNotFound, "supplier not found")},
		&pdfRendererStub{},
		nil,
	)

	_, _, err := svc.QuotePDF(context.Background(), &models.JWTClaims{UserID: "viewer", Role: models.RoleViewer}, "quote-1")
	require.Error(t, err)
	var apiErr *appErrors.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, apiErr.Code)
}

func TestExportServiceQuotePDFMissingQuote(t *testing.T) {
	svc := NewExportService(
		&quoteReaderStub{err: appErrors.Clone(appErrors.ErrNotFound, "quote not found")},
		&supplierReaderStub{},
		&pdfRendererStub{},
		nil,
	)

	_, _, err := svc.QuotePDF(context.Background(), &models.JWTClaims{UserID: "admin", Role: models.RoleAdmin}, "missing")
	require.Error(t, err)
}
