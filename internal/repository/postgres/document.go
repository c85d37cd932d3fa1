package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/oculomed/glauco-api/internal/model"
	"github.com/oculomed/glauco-api/internal/repository"
)

type documentRepository struct {
	db *sqlx.DB
}

func NewDocumentRepository(db *sqlx.DB) repository.DocumentRepository {
	return &documentRepository{db: db}
}

func (r *documentRepository) Create(ctx context.Context, doc *model.MedicalDocument) error {
	query := `
		INSERT INTO medical_documents (
			id, patient_id, file_name, content_type, size_bytes, category,
			url, public_id, description, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	doc.ID = uuid.New()
	doc.CreatedAt = time.Now()
	doc.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		doc.ID,
		doc.PatientID,
		doc.FileName,
		doc.ContentType,
		doc.SizeBytes,
		doc.Category,
		doc.URL,
		doc.PublicID,
		doc.Description,
		doc.CreatedAt,
		doc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create document: %w", err)
	}
	return nil
}

func (r *documentRepository) Get(ctx context.Context, id, patientID uuid.UUID) (*model.MedicalDocument, error) {
	query := `
		SELECT id, patient_id, file_name, content_type, size_bytes, category,
			   url, public_id, description, created_at, updated_at, deleted_at
		FROM medical_documents
		WHERE id = $1 AND patient_id = $2 AND deleted_at IS NULL
	`
	var doc model.MedicalDocument
	if err := r.db.GetContext(ctx, &doc, query, id, patientID); err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return &doc, nil
}

func (r *documentRepository) List(ctx context.Context, patientID uuid.UUID) ([]*model.MedicalDocument, error) {
	query := `
		SELECT id, patient_id, file_name, content_type, size_bytes, category,
			   url, public_id, description, created_at, updated_at, deleted_at
		FROM medical_documents
		WHERE patient_id = $1 AND deleted_at IS NULL
		ORDER BY created_at DESC
	`
	var docs []*model.MedicalDocument
	if err := r.db.SelectContext(ctx, &docs, query, patientID); err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	return docs, nil
}

func (r *documentRepository) Delete(ctx context.Context, id, patientID uuid.UUID) error {
	query := `
		UPDATE medical_documents
		SET deleted_at = $1
		WHERE id = $2 AND patient_id = $3 AND deleted_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query, time.Now(), id, patientID)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("document not found")
	}
	return nil
}
