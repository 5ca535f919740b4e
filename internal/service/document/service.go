package document

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/medjourney/portal-api/internal/model"
	"github.com/medjourney/portal-api/internal/repository"
	"github.com/medjourney/portal-api/internal/service/audit"
	"github.com/medjourney/portal-api/internal/service/event"
	apperrors "github.com/medjourney/portal-api/pkg/errors"
	"github.com/medjourney/portal-api/pkg/logger"
	"github.com/medjourney/portal-api/pkg/metrics"
)

// BlobStore is the object-storage surface the document service needs.
// Satisfied by the S3 store.
type BlobStore interface {
	UploadURL(ctx context.Context, key, contentType string) (string, error)
	DownloadURL(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}

type Service struct {
	repo    repository.DocumentRepository
	store   BlobStore
	events  *event.Service
	auditor *audit.Service
	metrics *metrics.Metrics
	logger  *logger.Logger
}

func NewService(repo repository.DocumentRepository, store BlobStore, events *event.Service,
	auditor *audit.Service, m *metrics.Metrics, logger *logger.Logger) *Service {
	return &Service{
		repo:    repo,
		store:   store,
		events:  events,
		auditor: auditor,
		metrics: m,
		logger:  logger,
	}
}

// Create registers document metadata and returns a presigned PUT URL for
// the file body. Patients may only register documents on themselves.
func (s *Service) Create(ctx context.Context, scope model.AccessScope, req *model.CreateDocumentRequest) (*model.DocumentUpload, error) {
	patientID, err := uuid.Parse(req.PatientID)
	if err != nil {
		return nil, apperrors.BadRequest("invalid patient id", err)
	}
	if !scope.CanWritePatient(patientID) {
		return nil, apperrors.NotFound("patient", nil)
	}
	if req.FileSize > model.MaxDocumentSize {
		return nil, apperrors.BadRequest(
			fmt.Sprintf("file exceeds maximum size of %d bytes", model.MaxDocumentSize), nil)
	}

	doc := &model.Document{
		Base:         model.Base{ID: uuid.New()},
		PatientID:    patientID,
		UploadedBy:   scope.UserID,
		DocumentType: req.DocumentType,
		FileName:     req.FileName,
		FileSize:     req.FileSize,
		MimeType:     req.MimeType,
	}
	doc.FileURL = objectKey(patientID, doc.ID, req.FileName)

	uploadURL, err := s.store.UploadURL(ctx, doc.FileURL, req.MimeType)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if err := s.repo.Create(ctx, doc); err != nil {
		return nil, apperrors.Internal(err)
	}

	s.metrics.DocumentUploads.Inc()
	if err := s.events.Emit(ctx, model.EventDocumentAdded, doc); err != nil {
		s.logger.Error(err, "failed to emit document added event", "document_id", doc.ID)
	}
	s.auditor.Log(ctx, scope.UserID, model.AuditActionCreate, model.AuditEntityDocument, doc.ID, &audit.LogOptions{
		Metadata: map[string]interface{}{"document_type": doc.DocumentType, "file_size": doc.FileSize},
	})

	return &model.DocumentUpload{Document: doc, UploadURL: uploadURL}, nil
}

func (s *Service) Get(ctx context.Context, scope model.AccessScope, id uuid.UUID) (*model.Document, error) {
	doc, err := s.repo.Get(ctx, scope, id)
	if err != nil {
		return nil, apperrors.NotFound("document", err)
	}
	return doc, nil
}

// DownloadURL returns a presigned GET URL for a visible document.
func (s *Service) DownloadURL(ctx context.Context, scope model.AccessScope, id uuid.UUID) (string, error) {
	doc, err := s.repo.Get(ctx, scope, id)
	if err != nil {
		return "", apperrors.NotFound("document", err)
	}

	url, err := s.store.DownloadURL(ctx, doc.FileURL)
	if err != nil {
		return "", apperrors.Internal(err)
	}

	s.auditor.Log(ctx, scope.UserID, model.AuditActionRead, model.AuditEntityDocument, doc.ID, nil)
	return url, nil
}

func (s *Service) Delete(ctx context.Context, scope model.AccessScope, id uuid.UUID) error {
	doc, err := s.repo.Get(ctx, scope, id)
	if err != nil {
		return apperrors.NotFound("document", err)
	}
	if err := s.repo.Delete(ctx, scope, id); err != nil {
		return apperrors.NotFound("document", err)
	}

	// Metadata row is authoritative; a stranded blob is cleaned up by
	// bucket lifecycle rules if this delete fails.
	if err := s.store.Delete(ctx, doc.FileURL); err != nil {
		s.logger.Error(err, "failed to delete document blob", "document_id", id, "key", doc.FileURL)
	}

	s.auditor.Log(ctx, scope.UserID, model.AuditActionDelete, model.AuditEntityDocument, id, nil)
	return nil
}

func (s *Service) List(ctx context.Context, scope model.AccessScope, filter *model.DocumentFilter) ([]*model.Document, error) {
	docs, err := s.repo.List(ctx, scope, filter)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return docs, nil
}

func objectKey(patientID, documentID uuid.UUID, name string) string {
	return fmt.Sprintf("documents/%s/%s/%s", patientID, documentID, name)
}
