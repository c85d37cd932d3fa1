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

type reminderRepository struct {
	db *sqlx.DB
}

func NewReminderRepository(db *sqlx.DB) repository.ReminderRepository {
	return &reminderRepository{db: db}
}

func (r *reminderRepository) Create(ctx context.Context, reminder *model.MedicationReminder) error {
	query := `
		INSERT INTO medication_reminders (
			id, patient_medication_id, scheduled_time, status,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6)
	`
	reminder.ID = uuid.New()
	reminder.Status = model.ReminderStatusPending
	reminder.CreatedAt = time.Now()
	reminder.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		reminder.ID,
		reminder.PatientMedicationID,
		reminder.ScheduledTime,
		reminder.Status,
		reminder.CreatedAt,
		reminder.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create reminder: %w", err)
	}
	return nil
}

func (r *reminderRepository) Get(ctx context.Context, id uuid.UUID) (*model.MedicationReminder, error) {
	query := `
		SELECT id, patient_medication_id, scheduled_time, status,
			   responded_at, created_at, updated_at, deleted_at
		FROM medication_reminders
		WHERE id = $1 AND deleted_at IS NULL
	`
	var reminder model.MedicationReminder
	if err := r.db.GetContext(ctx, &reminder, query, id); err != nil {
		return nil, fmt.Errorf("failed to get reminder: %w", err)
	}
	return &reminder, nil
}

func (r *reminderRepository) ListForMedication(ctx context.Context, medicationID uuid.UUID) ([]*model.MedicationReminder, error) {
	query := `
		SELECT id, patient_medication_id, scheduled_time, status,
			   responded_at, created_at, updated_at, deleted_at
		FROM medication_reminders
		WHERE patient_medication_id = $1 AND deleted_at IS NULL
		ORDER BY scheduled_time ASC
	`
	var reminders []*model.MedicationReminder
	if err := r.db.SelectContext(ctx, &reminders, query, medicationID); err != nil {
		return nil, fmt.Errorf("failed to list reminders: %w", err)
	}
	return reminders, nil
}

func (r *reminderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE medication_reminders
		SET deleted_at = $1
		WHERE id = $2 AND deleted_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete reminder: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("reminder not found")
	}
	return nil
}

const reminderDueColumns = `
	r.id, r.patient_medication_id, r.scheduled_time, r.status,
	r.responded_at, r.created_at, r.updated_at, r.deleted_at,
	m.patient_id AS patient_id,
	p.user_id AS user_id,
	m.name AS medication_name,
	m.dosage AS dosage
`

func (r *reminderRepository) ListPendingAtMinute(ctx context.Context, at model.TimeOfDay) ([]*model.ReminderDue, error) {
	query := `
		SELECT ` + reminderDueColumns + `
		FROM medication_reminders r
		JOIN patient_medications m ON m.id = r.patient_medication_id AND m.deleted_at IS NULL
		JOIN patients p ON p.id = m.patient_id AND p.deleted_at IS NULL
		WHERE r.status = $1
		  AND r.deleted_at IS NULL
		  AND m.is_active = true
		  AND r.scheduled_time = $2::time
		ORDER BY r.scheduled_time ASC, r.id ASC
	`
	var due []*model.ReminderDue
	if err := r.db.SelectContext(ctx, &due, query, model.ReminderStatusPending, at); err != nil {
		return nil, fmt.Errorf("failed to list reminders due at minute: %w", err)
	}
	return due, nil
}

func (r *reminderRepository) ListPendingOlderThan(ctx context.Context, cutoff model.TimeOfDay) ([]*model.ReminderDue, error) {
	query := `
		SELECT ` + reminderDueColumns + `
		FROM medication_reminders r
		JOIN patient_medications m ON m.id = r.patient_medication_id AND m.deleted_at IS NULL
		JOIN patients p ON p.id = m.patient_id AND p.deleted_at IS NULL
		WHERE r.status = $1
		  AND r.deleted_at IS NULL
		  AND m.is_active = true
		  AND r.scheduled_time < $2::time
		ORDER BY r.scheduled_time ASC, r.id ASC
	`
	var due []*model.ReminderDue
	if err := r.db.SelectContext(ctx, &due, query, model.ReminderStatusPending, cutoff); err != nil {
		return nil, fmt.Errorf("failed to list overdue reminders: %w", err)
	}
	return due, nil
}

func (r *reminderRepository) MarkMissed(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	// Status guard makes the transition idempotent under overlapping runs.
	query := `
		UPDATE medication_reminders
		SET status = $1, responded_at = $2, updated_at = $2
		WHERE id = $3 AND status = $4 AND deleted_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query,
		model.ReminderStatusMissed, at, id, model.ReminderStatusPending)
	if err != nil {
		return false, fmt.Errorf("failed to mark reminder missed: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}

type doseRepository struct {
	db *sqlx.DB
}

func NewDoseRepository(db *sqlx.DB) repository.DoseRepository {
	return &doseRepository{db: db}
}

func (r *doseRepository) Create(ctx context.Context, dose *model.DoseRecord) error {
	query := `
		INSERT INTO dose_records (
			id, patient_medication_id, scheduled_time, actual_time, status,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	dose.ID = uuid.New()
	dose.CreatedAt = time.Now()
	dose.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		dose.ID,
		dose.PatientMedicationID,
		dose.ScheduledTime,
		dose.ActualTime,
		dose.Status,
		dose.CreatedAt,
		dose.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create dose record: %w", err)
	}
	return nil
}

func (r *doseRepository) ListForPatient(ctx context.Context, patientID uuid.UUID, from, to time.Time) ([]*model.DoseRecord, error) {
	query := `
		SELECT d.id, d.patient_medication_id, d.scheduled_time, d.actual_time,
			   d.status, d.created_at, d.updated_at, d.deleted_at
		FROM dose_records d
		JOIN patient_medications m ON m.id = d.patient_medication_id
		WHERE m.patient_id = $1
		  AND d.actual_time >= $2
		  AND d.actual_time < $3
		  AND d.deleted_at IS NULL
		ORDER BY d.actual_time DESC
	`
	var doses []*model.DoseRecord
	if err := r.db.SelectContext(ctx, &doses, query, patientID, from, to); err != nil {
		return nil, fmt.Errorf("failed to list dose records: %w", err)
	}
	return doses, nil
}

func (r *doseRepository) HasTakenDose(ctx context.Context, medicationID uuid.UUID, day time.Time) (bool, error) {
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	query := `
		SELECT EXISTS (
			SELECT 1 FROM dose_records
			WHERE patient_medication_id = $1
			  AND status = $2
			  AND actual_time >= $3
			  AND actual_time < $4
			  AND deleted_at IS NULL
		)
	`
	var taken bool
	err := r.db.GetContext(ctx, &taken, query, medicationID, model.DoseStatusTaken, dayStart, dayEnd)
	if err != nil {
		return false, fmt.Errorf("failed to check taken dose: %w", err)
	}
	return taken, nil
}
