package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/medjourney/portal-api/internal/model"
	"github.com/medjourney/portal-api/internal/repository"
)

type documentRepository struct {
	db *sqlx.DB
}

func NewDocumentRepository(db *sqlx.DB) repository.DocumentRepository {
	return &documentRepository{db: db}
}

func (r *documentRepository) Create(ctx context.Context, doc *model.Document) error {
	query := `
		INSERT INTO documents (
			id, patient_id, uploaded_by, document_type, file_name, file_url,
			file_size, mime_type, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	doc.CreatedAt = time.Now()
	doc.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		doc.ID,
		doc.PatientID,
		doc.UploadedBy,
		doc.DocumentType,
		doc.FileName,
		doc.FileURL,
		doc.FileSize,
		doc.MimeType,
		doc.CreatedAt,
		doc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create document: %w", err)
	}
	return nil
}

func (r *documentRepository) Get(ctx context.Context, scope model.AccessScope, id uuid.UUID) (*model.Document, error) {
	query := `SELECT * FROM documents WHERE id = $1`
	args := []interface{}{id}
	query, args = scopeClause(query, "patient_id", scope, args)

	var doc model.Document
	if err := r.db.GetContext(ctx, &doc, query, args...); err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return &doc, nil
}

func (r *documentRepository) Delete(ctx context.Context, scope model.AccessScope, id uuid.UUID) error {
	query := `DELETE FROM documents WHERE id = $1`
	args := []interface{}{id}
	query, args = scopeClause(query, "patient_id", scope, args)

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("document not found")
	}
	return nil
}

func (r *documentRepository) List(ctx context.Context, scope model.AccessScope, filter *model.DocumentFilter) ([]*model.Document, error) {
	query := `SELECT * FROM documents WHERE 1=1`
	args := []interface{}{}

	if filter != nil {
		if filter.PatientID != uuid.Nil {
			query += fmt.Sprintf(" AND patient_id = $%d", len(args)+1)
			args = append(args, filter.PatientID)
		}
		if filter.DocumentType != "" {
			query += fmt.Sprintf(" AND document_type = $%d", len(args)+1)
			args = append(args, filter.DocumentType)
		}
	}
	query, args = scopeClause(query, "patient_id", scope, args)
	query += " ORDER BY created_at DESC"

	var docs []*model.Document
	if err := r.db.SelectContext(ctx, &docs, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	return docs, nil
}

func (r *documentRepository) Count(ctx context.Context, scope model.AccessScope) (int, error) {
	query := `SELECT COUNT(*) FROM documents WHERE 1=1`
	args := []interface{}{}
	query, args = scopeClause(query, "patient_id", scope, args)

	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return count, nil
}
