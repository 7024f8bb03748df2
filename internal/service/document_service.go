package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/buildlink/crm-api/internal/models"
	appErrors "github.com/buildlink/crm-api/pkg/errors"
	"github.com/buildlink/crm-api/pkg/storage"
)

type documentRepository interface {
	Create(ctx context.Context, doc *models.Document) error
	GetByID(ctx context.Context, id string) (*models.Document, error)
	List(ctx context.Context, filter models.DocumentFilter) ([]models.Document, int, error)
	Delete(ctx context.Context, id string) error
}

// UploadDocumentMeta carries the metadata accompanying an upload stream.
type UploadDocumentMeta struct {
	FileName    string
	ContentType string
	SizeBytes   int64
	SupplierID  *string
	DealID      *string
	QuoteID     *string
}

// SignedDownload is a time-limited download grant for a document.
type SignedDownload struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// DocumentService stores document blobs on disk and hands out HMAC signed
// download tokens instead of raw paths.
type DocumentService struct {
	repo    documentRepository
	storage *storage.LocalStorage
	signer  *storage.SignedURLSigner
	maxSize int64
	logger  *zap.Logger
}

// NewDocumentService constructs the document service.
func NewDocumentService(repo documentRepository, store *storage.LocalStorage, signer *storage.SignedURLSigner, maxSize int64, logger *zap.Logger) *DocumentService {
	if maxSize <= 0 {
		maxSize = 25 << 20
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocumentService{repo: repo, storage: store, signer: signer, maxSize: maxSize, logger: logger}
}

// List returns document metadata and pagination.
func (s *DocumentService) List(ctx context.Context, filter models.DocumentFilter) ([]models.Document, *models.Pagination, error) {
	docs, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list documents")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return docs, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns document metadata.
func (s *DocumentService) Get(ctx context.Context, id string) (*models.Document, error) {
	doc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "document not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load document")
	}
	return doc, nil
}

// Upload stores the payload on disk and records its metadata.
func (s *DocumentService) Upload(ctx context.Context, actor *models.JWTClaims, meta UploadDocumentMeta, body io.Reader) (*models.Document, error) {
	if meta.FileName == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "file name required")
	}
	if meta.SizeBytes > s.maxSize {
		return nil, appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("file exceeds the %d byte limit", s.maxSize))
	}

	id := uuid.NewString()
	relPath := filepath.Join(id[:2], id+filepath.Ext(meta.FileName))
	stored, err := s.storage.SaveStream(relPath, io.LimitReader(body, s.maxSize+1))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store document")
	}

	doc := &models.Document{
		ID:          id,
		FileName:    meta.FileName,
		ContentType: meta.ContentType,
		SizeBytes:   meta.SizeBytes,
		StoragePath: stored,
		SupplierID:  meta.SupplierID,
		DealID:      meta.DealID,
		QuoteID:     meta.QuoteID,
		UploadedBy:  actor.UserID,
	}
	if err := s.repo.Create(ctx, doc); err != nil {
		if cleanupErr := s.storage.Delete(stored); cleanupErr != nil {
			s.logger.Warn("orphaned document blob", zap.String("path", stored), zap.Error(cleanupErr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record document")
	}
	return doc, nil
}

// SignDownload issues a signed, expiring download token for a document.
func (s *DocumentService) SignDownload(ctx context.Context, id string) (*SignedDownload, error) {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	token, expiresAt, err := s.signer.Generate(doc.ID, doc.StoragePath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download")
	}
	return &SignedDownload{Token: token, ExpiresAt: expiresAt}, nil
}

// OpenByToken validates a download token and opens the underlying file.
func (s *DocumentService) OpenByToken(ctx context.Context, token string) (*models.Document, *os.File, error) {
	documentID, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")
	}
	doc, err := s.Get(ctx, documentID)
	if err != nil {
		return nil, nil, err
	}
	if doc.StoragePath != relPath {
		return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")
	}
	file, err := s.storage.Open(doc.StoragePath)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open document")
	}
	return doc, file, nil
}

// Delete removes the metadata row and the stored blob.
func (s *DocumentService) Delete(ctx context.Context, id string) error {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "document not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete document")
	}
	if err := s.storage.Delete(doc.StoragePath); err != nil {
		s.logger.Warn("orphaned document blob", zap.String("path", doc.StoragePath), zap.Error(err))
	}
	return nil
}
