package model

import (
	"time"

	"github.com/google/uuid"
)

type NotificationStatus string

const (
	NotificationStatusUnread NotificationStatus = "unread"
	NotificationStatusRead   NotificationStatus = "read"
)

type NotificationPriority string

const (
	NotificationPriorityLow    NotificationPriority = "low"
	NotificationPriorityNormal NotificationPriority = "normal"
	NotificationPriorityHigh   NotificationPriority = "high"
)

// Well-known notification types. The scheduler writes the first three;
// the rest come from direct user actions.
const (
	NotificationTypeMedicationReminder = "medication_reminder"
	NotificationTypeMissedMedication   = "missed_medication"
	NotificationTypeAppointmentRemind  = "appointment_reminder"
	NotificationTypeMissedAppointment  = "missed_appointment"
	NotificationTypeDocumentUploaded   = "document_uploaded"
	NotificationTypeRescheduleRequest  = "reschedule_requested"
)

// Notification is the durable in-app record of an alert. It exists
// whether or not any push delivery succeeded; DeliveryStatus records
// the outcome of the push attempt.
type Notification struct {
	Base
	RecipientID    uuid.UUID            `db:"recipient_id" json:"recipient_id"`
	Type           string               `db:"type" json:"type"`
	Title          string               `db:"title" json:"title"`
	Message        string               `db:"message" json:"message"`
	Priority       NotificationPriority `db:"priority" json:"priority"`
	Status         NotificationStatus   `db:"status" json:"status"`
	DeliveryStatus string               `db:"delivery_status" json:"delivery_status"`
	SentAt         time.Time            `db:"sent_at" json:"sent_at"`
	ReadAt         *time.Time           `db:"read_at" json:"read_at,omitempty"`
}

// NotificationEvent is published to the message broker so connected
// clients can surface new in-app notifications without polling.
type NotificationEvent struct {
	ID             uuid.UUID `json:"id"`
	NotificationID uuid.UUID `json:"notification_id"`
	RecipientID    uuid.UUID `json:"recipient_id"`
	Type           string    `json:"type"`
	Title          string    `json:"title"`
	Message        string    `json:"message"`
	CreatedAt      time.Time `json:"created_at"`
}

type NotificationFilters struct {
	RecipientID uuid.UUID
	UnreadOnly  bool
	Pagination
}
