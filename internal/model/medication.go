package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type ReminderStatus string

const (
	ReminderStatusPending ReminderStatus = "pending"
	ReminderStatusSent    ReminderStatus = "sent"
	ReminderStatusMissed  ReminderStatus = "missed"
)

type DoseStatus string

const (
	DoseStatusTaken  DoseStatus = "taken"
	DoseStatusMissed DoseStatus = "missed"
	DoseStatusLate   DoseStatus = "late"
)

// PatientMedication is a prescribed glaucoma medication (typically eye
// drops) the patient tracks through the app.
type PatientMedication struct {
	Base
	PatientID    uuid.UUID  `db:"patient_id" json:"patient_id"`
	Name         string     `db:"name" json:"name"`
	Dosage       string     `db:"dosage" json:"dosage"`
	Eye          string     `db:"eye" json:"eye,omitempty"`
	Frequency    string     `db:"frequency" json:"frequency,omitempty"`
	Instructions string     `db:"instructions" json:"instructions,omitempty"`
	StartDate    time.Time  `db:"start_date" json:"start_date"`
	EndDate      *time.Time `db:"end_date" json:"end_date,omitempty"`
	IsActive     bool       `db:"is_active" json:"is_active"`
}

// TimeOfDay is a wall-clock time with minute precision, stored in a
// Postgres TIME column. Reminders recur daily by matching it against
// the scheduler's current minute.
type TimeOfDay struct {
	Hour   int
	Minute int
}

func NewTimeOfDay(hour, minute int) TimeOfDay {
	return TimeOfDay{Hour: hour, Minute: minute}
}

// Minutes returns the offset from midnight in minutes.
func (t TimeOfDay) Minutes() int {
	return t.Hour*60 + t.Minute
}

// At anchors the time-of-day to the given calendar day in day's location.
func (t TimeOfDay) At(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour, t.Minute, 0, 0, day.Location())
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

func (t *TimeOfDay) Scan(src interface{}) error {
	var s string
	switch v := src.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	case time.Time:
		t.Hour, t.Minute = v.Hour(), v.Minute()
		return nil
	default:
		return fmt.Errorf("cannot scan %T into TimeOfDay", src)
	}
	parsed, err := time.Parse("15:04:05", s)
	if err != nil {
		parsed, err = time.Parse("15:04", s)
		if err != nil {
			return fmt.Errorf("invalid time of day %q: %w", s, err)
		}
	}
	t.Hour, t.Minute = parsed.Hour(), parsed.Minute()
	return nil
}

func (t TimeOfDay) Value() (driver.Value, error) {
	return fmt.Sprintf("%02d:%02d:00", t.Hour, t.Minute), nil
}

func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *TimeOfDay) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	return t.Scan(s)
}

// MedicationReminder is a daily prompt for one medication at one
// time-of-day. The scheduler moves it pending -> sent|missed; it never
// deletes reminders.
type MedicationReminder struct {
	Base
	PatientMedicationID uuid.UUID      `db:"patient_medication_id" json:"patient_medication_id"`
	ScheduledTime       TimeOfDay      `db:"scheduled_time" json:"scheduled_time"`
	Status              ReminderStatus `db:"status" json:"status"`
	RespondedAt         *time.Time     `db:"responded_at" json:"responded_at,omitempty"`
}

// DoseRecord is the patient's own "I took it" fact. Read-only to the
// scheduler: a taken dose for today suppresses that medication's reminder.
type DoseRecord struct {
	Base
	PatientMedicationID uuid.UUID  `db:"patient_medication_id" json:"patient_medication_id"`
	ScheduledTime       TimeOfDay  `db:"scheduled_time" json:"scheduled_time"`
	ActualTime          time.Time  `db:"actual_time" json:"actual_time"`
	Status              DoseStatus `db:"status" json:"status"`
}

// ReminderDue is a scheduler candidate: a reminder joined with the
// medication and owning user so the sweep can suppress, notify, and
// deliver without further lookups.
type ReminderDue struct {
	MedicationReminder
	PatientID      uuid.UUID `db:"patient_id" json:"patient_id"`
	UserID         uuid.UUID `db:"user_id" json:"user_id"`
	MedicationName string    `db:"medication_name" json:"medication_name"`
	Dosage         string    `db:"dosage" json:"dosage"`
}

type CreateMedicationRequest struct {
	Name         string     `json:"name" binding:"required"`
	Dosage       string     `json:"dosage" binding:"required"`
	Eye          string     `json:"eye" binding:"omitempty,oneof=left right both"`
	Frequency    string     `json:"frequency"`
	Instructions string     `json:"instructions"`
	StartDate    time.Time  `json:"start_date" binding:"required"`
	EndDate      *time.Time `json:"end_date"`
}

type UpdateMedicationRequest struct {
	Name         *string    `json:"name"`
	Dosage       *string    `json:"dosage"`
	Eye          *string    `json:"eye"`
	Frequency    *string    `json:"frequency"`
	Instructions *string    `json:"instructions"`
	EndDate      *time.Time `json:"end_date"`
	IsActive     *bool      `json:"is_active"`
}

type CreateReminderRequest struct {
	ScheduledTime TimeOfDay `json:"scheduled_time" binding:"required"`
}

type RecordDoseRequest struct {
	ActualTime    time.Time  `json:"actual_time" binding:"required"`
	ScheduledTime *TimeOfDay `json:"scheduled_time,omitempty"`
	Status        DoseStatus `json:"status" binding:"required,oneof=taken missed late"`
}
