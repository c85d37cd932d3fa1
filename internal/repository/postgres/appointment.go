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

type appointmentRepository struct {
	db *sqlx.DB
}

func NewAppointmentRepository(db *sqlx.DB) repository.AppointmentRepository {
	return &appointmentRepository{db: db}
}

func (r *appointmentRepository) Create(ctx context.Context, appointment *model.Appointment) error {
	query := `
		INSERT INTO appointments (
			id, patient_id, doctor, location, purpose, start_time,
			status, notes, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	appointment.ID = uuid.New()
	appointment.CreatedAt = time.Now()
	appointment.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		appointment.ID,
		appointment.PatientID,
		appointment.Doctor,
		appointment.Location,
		appointment.Purpose,
		appointment.StartTime,
		appointment.Status,
		appointment.Notes,
		appointment.CreatedAt,
		appointment.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create appointment: %w", err)
	}
	return nil
}

func (r *appointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	query := `
		SELECT id, patient_id, doctor, location, purpose, start_time,
			   status, notes, created_at, updated_at, deleted_at
		FROM appointments
		WHERE id = $1 AND deleted_at IS NULL
	`
	var appointment model.Appointment
	if err := r.db.GetContext(ctx, &appointment, query, id); err != nil {
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return &appointment, nil
}

func (r *appointmentRepository) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	query := `
		SELECT id, patient_id, doctor, location, purpose, start_time,
			   status, notes, created_at, updated_at, deleted_at
		FROM appointments
		WHERE patient_id = $1 AND deleted_at IS NULL
	`
	args := []interface{}{filters.PatientID}
	argCount := 2

	if filters.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argCount)
		args = append(args, filters.Status)
		argCount++
	}
	if !filters.From.IsZero() {
		query += fmt.Sprintf(" AND start_time >= $%d", argCount)
		args = append(args, filters.From)
		argCount++
	}
	if !filters.To.IsZero() {
		query += fmt.Sprintf(" AND start_time < $%d", argCount)
		args = append(args, filters.To)
		argCount++
	}

	query += " ORDER BY start_time ASC"

	var appointments []*model.Appointment
	if err := r.db.SelectContext(ctx, &appointments, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) ListScheduledBetween(ctx context.Context, from, to time.Time) ([]*model.UpcomingAppointment, error) {
	query := `
		SELECT a.id, a.patient_id, a.doctor, a.location, a.purpose,
			   a.start_time, a.status, a.notes, a.created_at, a.updated_at,
			   a.deleted_at, p.user_id AS user_id
		FROM appointments a
		JOIN patients p ON p.id = a.patient_id AND p.deleted_at IS NULL
		WHERE a.status = $1
		  AND a.start_time >= $2
		  AND a.start_time < $3
		  AND a.deleted_at IS NULL
		ORDER BY a.start_time ASC, a.id ASC
	`
	var appointments []*model.UpcomingAppointment
	err := r.db.SelectContext(ctx, &appointments, query, model.AppointmentStatusScheduled, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list scheduled appointments: %w", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) MarkMissed(ctx context.Context, id uuid.UUID) (bool, error) {
	// Status guard makes the transition idempotent under overlapping runs.
	query := `
		UPDATE appointments
		SET status = $1, updated_at = $2
		WHERE id = $3 AND status = $4 AND deleted_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query,
		model.AppointmentStatusMissed, time.Now(), id, model.AppointmentStatusScheduled)
	if err != nil {
		return false, fmt.Errorf("failed to mark appointment missed: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}

func (r *appointmentRepository) CreateRescheduleRequest(ctx context.Context, req *model.RescheduleRequest) error {
	query := `
		INSERT INTO reschedule_requests (
			id, appointment_id, patient_id, requested_time, reason,
			status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	req.ID = uuid.New()
	req.Status = model.RescheduleStatusPending
	req.CreatedAt = time.Now()
	req.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		req.ID,
		req.AppointmentID,
		req.PatientID,
		req.RequestedTime,
		req.Reason,
		req.Status,
		req.CreatedAt,
		req.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create reschedule request: %w", err)
	}
	return nil
}

func (r *appointmentRepository) ListRescheduleRequests(ctx context.Context, patientID uuid.UUID) ([]*model.RescheduleRequest, error) {
	query := `
		SELECT id, appointment_id, patient_id, requested_time, reason,
			   status, created_at, updated_at
		FROM reschedule_requests
		WHERE patient_id = $1
		ORDER BY created_at DESC
	`
	var requests []*model.RescheduleRequest
	if err := r.db.SelectContext(ctx, &requests, query, patientID); err != nil {
		return nil, fmt.Errorf("failed to list reschedule requests: %w", err)
	}
	return requests, nil
}

type reminderLogRepository struct {
	db *sqlx.DB
}

func NewReminderLogRepository(db *sqlx.DB) repository.ReminderLogRepository {
	return &reminderLogRepository{db: db}
}

// Claim relies on the unique index on (appointment_id, reminder_type,
// sent_on). ON CONFLICT DO NOTHING turns the read-then-write race into a
// single atomic statement: exactly one of any number of concurrent runs
// wins the insert.
func (r *reminderLogRepository) Claim(ctx context.Context, appointmentID uuid.UUID, reminderType model.ReminderType, day time.Time) (bool, error) {
	query := `
		INSERT INTO appointment_reminder_logs (
			id, appointment_id, reminder_type, sent_on, sent_at, status
		) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (appointment_id, reminder_type, sent_on) DO NOTHING
	`
	sentOn := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)

	result, err := r.db.ExecContext(ctx, query,
		uuid.New(),
		appointmentID,
		reminderType,
		sentOn,
		time.Now(),
		"sent",
	)
	if err != nil {
		return false, fmt.Errorf("failed to claim reminder log: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}

func (r *reminderLogRepository) ListForAppointment(ctx context.Context, appointmentID uuid.UUID) ([]*model.AppointmentReminderLog, error) {
	query := `
		SELECT id, appointment_id, reminder_type, sent_on, sent_at, status
		FROM appointment_reminder_logs
		WHERE appointment_id = $1
		ORDER BY sent_at ASC
	`
	var logs []*model.AppointmentReminderLog
	if err := r.db.SelectContext(ctx, &logs, query, appointmentID); err != nil {
		return nil, fmt.Errorf("failed to list reminder logs: %w", err)
	}
	return logs, nil
}
