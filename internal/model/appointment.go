package model

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusScheduled AppointmentStatus = "scheduled"
	AppointmentStatusMissed    AppointmentStatus = "missed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
	AppointmentStatusCompleted AppointmentStatus = "completed"
)

type ReminderType string

const (
	ReminderTypeSameDay   ReminderType = "same_day"
	ReminderTypeNextDay   ReminderType = "next_day"
	ReminderTypeThreeDays ReminderType = "three_days"
)

// Appointment is a clinic visit pushed into the patient's timeline.
// Patients can view and request reschedules; the 6-hourly sweep moves
// overdue scheduled appointments to missed.
type Appointment struct {
	Base
	PatientID uuid.UUID         `db:"patient_id" json:"patient_id"`
	Doctor    string            `db:"doctor" json:"doctor,omitempty"`
	Location  string            `db:"location" json:"location,omitempty"`
	Purpose   string            `db:"purpose" json:"purpose,omitempty"`
	StartTime time.Time         `db:"start_time" json:"start_time"`
	Status    AppointmentStatus `db:"status" json:"status"`
	Notes     string            `db:"notes" json:"notes,omitempty"`
}

// AppointmentReminderLog is the idempotency ledger: at most one row per
// (appointment, reminder type, calendar day), enforced by a unique index
// so overlapping scheduler runs cannot double-send.
type AppointmentReminderLog struct {
	ID            uuid.UUID    `db:"id" json:"id"`
	AppointmentID uuid.UUID    `db:"appointment_id" json:"appointment_id"`
	ReminderType  ReminderType `db:"reminder_type" json:"reminder_type"`
	SentOn        time.Time    `db:"sent_on" json:"sent_on"`
	SentAt        time.Time    `db:"sent_at" json:"sent_at"`
	Status        string       `db:"status" json:"status"`
}

// UpcomingAppointment joins an appointment with the owning user so the
// scheduler can deliver without further lookups.
type UpcomingAppointment struct {
	Appointment
	UserID uuid.UUID `db:"user_id" json:"user_id"`
}

type RescheduleStatus string

const (
	RescheduleStatusPending  RescheduleStatus = "pending"
	RescheduleStatusApproved RescheduleStatus = "approved"
	RescheduleStatusRejected RescheduleStatus = "rejected"
)

// RescheduleRequest records a patient's ask to move an appointment.
// Clinic staff resolve it out of band; the appointment itself is not
// mutated until then.
type RescheduleRequest struct {
	ID            uuid.UUID        `db:"id" json:"id"`
	AppointmentID uuid.UUID        `db:"appointment_id" json:"appointment_id"`
	PatientID     uuid.UUID        `db:"patient_id" json:"patient_id"`
	RequestedTime time.Time        `db:"requested_time" json:"requested_time"`
	Reason        string           `db:"reason" json:"reason,omitempty"`
	Status        RescheduleStatus `db:"status" json:"status"`
	CreatedAt     time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time        `db:"updated_at" json:"updated_at"`
}

type CreateRescheduleRequest struct {
	RequestedTime time.Time `json:"requested_time" binding:"required"`
	Reason        string    `json:"reason" binding:"max=1000"`
}

type AppointmentFilters struct {
	PatientID uuid.UUID
	Status    AppointmentStatus
	From      time.Time
	To        time.Time
}
