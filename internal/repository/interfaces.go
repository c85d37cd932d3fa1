package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/oculomed/glauco-api/internal/model"
)

// All repository interfaces in one file
type (
	UserRepository interface {
		Create(ctx context.Context, user *model.User) error
		Get(ctx context.Context, id uuid.UUID) (*model.User, error)
		GetByEmail(ctx context.Context, email string) (*model.User, error)
		Update(ctx context.Context, user *model.User) error
	}

	PasswordResetRepository interface {
		Create(ctx context.Context, token *model.PasswordResetToken) error
		GetByToken(ctx context.Context, token string) (*model.PasswordResetToken, error)
		MarkUsed(ctx context.Context, id uuid.UUID) error
	}

	PatientRepository interface {
		Create(ctx context.Context, patient *model.Patient) error
		Get(ctx context.Context, id uuid.UUID) (*model.Patient, error)
		GetByUserID(ctx context.Context, userID uuid.UUID) (*model.Patient, error)
		Update(ctx context.Context, patient *model.Patient) error
	}

	IOPRepository interface {
		Create(ctx context.Context, m *model.IOPMeasurement) error
		Get(ctx context.Context, id uuid.UUID) (*model.IOPMeasurement, error)
		List(ctx context.Context, filters *model.IOPFilters) ([]*model.IOPMeasurement, error)
		Delete(ctx context.Context, id, patientID uuid.UUID) error
	}

	MedicationRepository interface {
		Create(ctx context.Context, med *model.PatientMedication) error
		Get(ctx context.Context, id uuid.UUID) (*model.PatientMedication, error)
		Update(ctx context.Context, med *model.PatientMedication) error
		List(ctx context.Context, patientID uuid.UUID, activeOnly bool) ([]*model.PatientMedication, error)
		Deactivate(ctx context.Context, id, patientID uuid.UUID) error
	}

	// ReminderRepository serves both the REST surface and the scheduler.
	// The scheduler-facing queries select on time-of-day; the Taken-dose
	// suppression check is applied by the scheduler, not baked into SQL.
	ReminderRepository interface {
		Create(ctx context.Context, reminder *model.MedicationReminder) error
		Get(ctx context.Context, id uuid.UUID) (*model.MedicationReminder, error)
		ListForMedication(ctx context.Context, medicationID uuid.UUID) ([]*model.MedicationReminder, error)
		Delete(ctx context.Context, id uuid.UUID) error
		// ListPendingAtMinute returns pending reminders whose time-of-day
		// matches the given minute exactly.
		ListPendingAtMinute(ctx context.Context, at model.TimeOfDay) ([]*model.ReminderDue, error)
		// ListPendingOlderThan returns pending reminders whose time-of-day
		// is strictly before the cutoff.
		ListPendingOlderThan(ctx context.Context, cutoff model.TimeOfDay) ([]*model.ReminderDue, error)
		// MarkMissed flips pending -> missed; returns false if the reminder
		// was no longer pending.
		MarkMissed(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	}

	DoseRepository interface {
		Create(ctx context.Context, dose *model.DoseRecord) error
		ListForPatient(ctx context.Context, patientID uuid.UUID, from, to time.Time) ([]*model.DoseRecord, error)
		// HasTakenDose reports whether a taken dose exists for the
		// medication on the given calendar day.
		HasTakenDose(ctx context.Context, medicationID uuid.UUID, day time.Time) (bool, error)
	}

	AppointmentRepository interface {
		Create(ctx context.Context, appointment *model.Appointment) error
		Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
		List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error)
		// ListScheduledBetween returns scheduled appointments with a start
		// time in [from, to), joined with the owning user for delivery.
		ListScheduledBetween(ctx context.Context, from, to time.Time) ([]*model.UpcomingAppointment, error)
		// MarkMissed flips scheduled -> missed; returns false if the
		// appointment was no longer scheduled.
		MarkMissed(ctx context.Context, id uuid.UUID) (bool, error)
		CreateRescheduleRequest(ctx context.Context, req *model.RescheduleRequest) error
		ListRescheduleRequests(ctx context.Context, patientID uuid.UUID) ([]*model.RescheduleRequest, error)
	}

	// ReminderLogRepository is the idempotency ledger for appointment
	// reminders.
	ReminderLogRepository interface {
		// Claim atomically inserts the (appointment, type, day) ledger row.
		// It returns false when the row already exists, meaning another run
		// already sent this reminder today.
		Claim(ctx context.Context, appointmentID uuid.UUID, reminderType model.ReminderType, day time.Time) (bool, error)
		ListForAppointment(ctx context.Context, appointmentID uuid.UUID) ([]*model.AppointmentReminderLog, error)
	}

	NotificationRepository interface {
		Create(ctx context.Context, n *model.Notification) error
		List(ctx context.Context, filters *model.NotificationFilters) ([]*model.Notification, error)
		MarkRead(ctx context.Context, id, recipientID uuid.UUID, at time.Time) error
		MarkAllRead(ctx context.Context, recipientID uuid.UUID, at time.Time) error
		CountUnread(ctx context.Context, recipientID uuid.UUID) (int, error)
	}

	PushSubscriptionRepository interface {
		// Upsert registers an endpoint, reactivating and refreshing keys if
		// it was seen before.
		Upsert(ctx context.Context, sub *model.PushSubscription) error
		GetActiveForUser(ctx context.Context, userID uuid.UUID) ([]*model.PushSubscription, error)
		Deactivate(ctx context.Context, id uuid.UUID) error
		DeactivateByEndpoint(ctx context.Context, userID uuid.UUID, endpoint string) error
		TouchLastSent(ctx context.Context, id uuid.UUID, at time.Time) error
	}

	DocumentRepository interface {
		Create(ctx context.Context, doc *model.MedicalDocument) error
		Get(ctx context.Context, id, patientID uuid.UUID) (*model.MedicalDocument, error)
		List(ctx context.Context, patientID uuid.UUID) ([]*model.MedicalDocument, error)
		Delete(ctx context.Context, id, patientID uuid.UUID) error
	}
)
