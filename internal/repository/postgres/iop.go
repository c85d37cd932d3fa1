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

type iopRepository struct {
	db *sqlx.DB
}

func NewIOPRepository(db *sqlx.DB) repository.IOPRepository {
	return &iopRepository{db: db}
}

func (r *iopRepository) Create(ctx context.Context, m *model.IOPMeasurement) error {
	query := `
		INSERT INTO iop_measurements (
			id, patient_id, eye, value, measured_at, method, notes,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	m.ID = uuid.New()
	m.CreatedAt = time.Now()
	m.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		m.ID,
		m.PatientID,
		m.Eye,
		m.Value,
		m.MeasuredAt,
		m.Method,
		m.Notes,
		m.CreatedAt,
		m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create IOP measurement: %w", err)
	}
	return nil
}

func (r *iopRepository) Get(ctx context.Context, id uuid.UUID) (*model.IOPMeasurement, error) {
	query := `
		SELECT id, patient_id, eye, value, measured_at, method, notes,
			   created_at, updated_at, deleted_at
		FROM iop_measurements
		WHERE id = $1 AND deleted_at IS NULL
	`
	var m model.IOPMeasurement
	if err := r.db.GetContext(ctx, &m, query, id); err != nil {
		return nil, fmt.Errorf("failed to get IOP measurement: %w", err)
	}
	return &m, nil
}

func (r *iopRepository) List(ctx context.Context, filters *model.IOPFilters) ([]*model.IOPMeasurement, error) {
	query := `
		SELECT id, patient_id, eye, value, measured_at, method, notes,
			   created_at, updated_at, deleted_at
		FROM iop_measurements
		WHERE patient_id = $1 AND deleted_at IS NULL
	`
	args := []interface{}{filters.PatientID}
	argCount := 2

	if filters.Eye != "" {
		query += fmt.Sprintf(" AND eye = $%d", argCount)
		args = append(args, filters.Eye)
		argCount++
	}
	if !filters.From.IsZero() {
		query += fmt.Sprintf(" AND measured_at >= $%d", argCount)
		args = append(args, filters.From)
		argCount++
	}
	if !filters.To.IsZero() {
		query += fmt.Sprintf(" AND measured_at < $%d", argCount)
		args = append(args, filters.To)
		argCount++
	}

	query += " ORDER BY measured_at DESC"

	var measurements []*model.IOPMeasurement
	if err := r.db.SelectContext(ctx, &measurements, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list IOP measurements: %w", err)
	}
	return measurements, nil
}

func (r *iopRepository) Delete(ctx context.Context, id, patientID uuid.UUID) error {
	query := `
		UPDATE iop_measurements
		SET deleted_at = $1
		WHERE id = $2 AND patient_id = $3 AND deleted_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query, time.Now(), id, patientID)
	if err != nil {
		return fmt.Errorf("failed to delete IOP measurement: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("IOP measurement not found")
	}
	return nil
}
