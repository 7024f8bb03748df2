package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/buildlink/crm-api/internal/models"
	appErrors "github.com/buildlink/crm-api/pkg/errors"
	"github.com/buildlink/crm-api/pkg/export"
)

type quoteReader interface {
	Get(ctx context.Context, id string) (*models.Quote, error)
}

type supplierReader interface {
	Get(ctx context.Context, actor *models.JWTClaims, id string) (*models.Supplier, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportService renders quotes as PDF documents for sending to clients.
type ExportService struct {
	quotes    quoteReader
	suppliers supplierReader
	pdf       pdfRenderer
	logger    *zap.Logger
}

// NewExportService constructs the export service.
func NewExportService(quotes quoteReader, suppliers supplierReader, pdf pdfRenderer, logger *zap.Logger) *ExportService {
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{quotes: quotes, suppliers: suppliers, pdf: pdf, logger: logger}
}

// QuotePDF renders the quote as a PDF and returns the payload with a
// download filename. Supplier visibility follows the caller's access rules.
func (s *ExportService) QuotePDF(ctx context.Context, actor *models.JWTClaims, quoteID string) ([]byte, string, error) {
	quote, err := s.quotes.Get(ctx, quoteID)
	if err != nil {
		return nil, "", err
	}
	supplier, err := s.suppliers.Get(ctx, actor, quote.SupplierID)
	if err != nil {
		return nil, "", err
	}

	dataset := export.Dataset{Headers: []string{"Field", "Value"}}
	addRow := func(field, value string) {
		dataset.Rows = append(dataset.Rows, map[string]string{"Field": field, "Value": value})
	}
	addRow("Quote", quote.QuoteNumber)
	addRow("Title", quote.Title)
	addRow("Supplier", supplier.Name)
	addRow("Status", string(quote.Status))
	if quote.Amount != nil {
		addRow("Amount", fmt.Sprintf("%.2f %s", *quote.Amount, quote.Currency))
	}
	if quote.ValidUntil != nil {
		addRow("Valid until", quote.ValidUntil.Format("2006-01-02"))
	}
	if quote.Description != nil && *quote.Description != "" {
		addRow("Description", *quote.Description)
	}
	if quote.ApprovalNote != nil && *quote.ApprovalNote != "" {
		addRow("Approval note", *quote.ApprovalNote)
	}
	if quote.RejectionNote != nil && *quote.RejectionNote != "" {
		addRow("Rejection note", *quote.RejectionNote)
	}
	addRow("Generated", time.Now().UTC().Format(time.RFC3339))

	payload, err := s.pdf.Render(dataset, fmt.Sprintf("Quote %s", quote.QuoteNumber))
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render quote pdf")
	}
	filename := fmt.Sprintf("%s.pdf", strings.ToLower(quote.QuoteNumber))
	return payload, filename, nil
}
