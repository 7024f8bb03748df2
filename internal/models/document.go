package models

import "time"

// Document stores metadata for an uploaded file; the blob lives on disk.
type Document struct {
	ID          string    `db:"id" json:"id"`
	FileName    string    `db:"file_name" json:"file_name"`
	ContentType string    `db:"content_type" json:"content_type"`
	SizeBytes   int64     `db:"size_bytes" json:"size_bytes"`
	StoragePath string    `db:"storage_path" json:"-"`
	SupplierID  *string   `db:"supplier_id" json:"supplier_id,omitempty"`
	DealID      *string   `db:"deal_id" json:"deal_id,omitempty"`
	QuoteID     *string   `db:"quote_id" json:"quote_id,omitempty"`
	UploadedBy  string    `db:"uploaded_by" json:"uploaded_by"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// DocumentFilter constrains document listing queries.
type DocumentFilter struct {
	SupplierID string
	DealID     string
	QuoteID    string
	UploadedBy string
	Page       int
	PageSize   int
}
