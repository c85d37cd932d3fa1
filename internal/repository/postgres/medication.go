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

type medicationRepository struct {
	db *sqlx.DB
}

func NewMedicationRepository(db *sqlx.DB) repository.MedicationRepository {
	return &medicationRepository{db: db}
}

func (r *medicationRepository) Create(ctx context.Context, med *model.PatientMedication) error {
	query := `
		INSERT INTO patient_medications (
			id, patient_id, name, dosage, eye, frequency, instructions,
			start_date, end_date, is_active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	med.ID = uuid.New()
	med.IsActive = true
	med.CreatedAt = time.Now()
	med.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		med.ID,
		med.PatientID,
		med.Name,
		med.Dosage,
		med.Eye,
		med.Frequency,
		med.Instructions,
		med.StartDate,
		med.EndDate,
		med.IsActive,
		med.CreatedAt,
		med.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create medication: %w", err)
	}
	return nil
}

func (r *medicationRepository) Get(ctx context.Context, id uuid.UUID) (*model.PatientMedication, error) {
	query := `
		SELECT id, patient_id, name, dosage, eye, frequency, instructions,
			   start_date, end_date, is_active, created_at, updated_at, deleted_at
		FROM patient_medications
		WHERE id = $1 AND deleted_at IS NULL
	`
	var med model.PatientMedication
	if err := r.db.GetContext(ctx, &med, query, id); err != nil {
		return nil, fmt.Errorf("failed to get medication: %w", err)
	}
	return &med, nil
}

func (r *medicationRepository) Update(ctx context.Context, med *model.PatientMedication) error {
	query := `
		UPDATE patient_medications
		SET name = $1, dosage = $2, eye = $3, frequency = $4,
			instructions = $5, end_date = $6, is_active = $7, updated_at = $8
		WHERE id = $9 AND deleted_at IS NULL
	`
	med.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		med.Name,
		med.Dosage,
		med.Eye,
		med.Frequency,
		med.Instructions,
		med.EndDate,
		med.IsActive,
		med.UpdatedAt,
		med.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update medication: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("medication not found")
	}
	return nil
}

func (r *medicationRepository) List(ctx context.Context, patientID uuid.UUID, activeOnly bool) ([]*model.PatientMedication, error) {
	query := `
		SELECT id, patient_id, name, dosage, eye, frequency, instructions,
			   start_date, end_date, is_active, created_at, updated_at, deleted_at
		FROM patient_medications
		WHERE patient_id = $1 AND deleted_at IS NULL
	`
	args := []interface{}{patientID}

	if activeOnly {
		query += " AND is_active = true"
	}
	query += " ORDER BY created_at ASC"

	var medications []*model.PatientMedication
	if err := r.db.SelectContext(ctx, &medications, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list medications: %w", err)
	}
	return medications, nil
}

func (r *medicationRepository) Deactivate(ctx context.Context, id, patientID uuid.UUID) error {
	query := `
		UPDATE patient_medications
		SET is_active = false, updated_at = $1
		WHERE id = $2 AND patient_id = $3 AND deleted_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query, time.Now(), id, patientID)
	if err != nil {
		return fmt.Errorf("failed to deactivate medication: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("medication not found")
	}
	return nil
}
