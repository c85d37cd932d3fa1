package model

import (
	"time"

	"github.com/google/uuid"
)

// PushSubscription is one browser/device push endpoint for a user.
// Subscriptions are deactivated on permanent delivery failure or
// explicit unsubscribe, never deleted, to keep the audit trail.
type PushSubscription struct {
	ID         uuid.UUID  `db:"id" json:"id"`
	UserID     uuid.UUID  `db:"user_id" json:"user_id"`
	Endpoint   string     `db:"endpoint" json:"endpoint"`
	P256dhKey  string     `db:"p256dh_key" json:"-"`
	AuthKey    string     `db:"auth_key" json:"-"`
	DeviceName string     `db:"device_name" json:"device_name,omitempty"`
	IsActive   bool       `db:"is_active" json:"is_active"`
	LastSentAt *time.Time `db:"last_sent_at" json:"last_sent_at,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updated_at"`
}

type SubscribeRequest struct {
	Endpoint   string `json:"endpoint" binding:"required,url"`
	Keys       Keys   `json:"keys" binding:"required"`
	DeviceName string `json:"device_name"`
}

type Keys struct {
	P256dh string `json:"p256dh" binding:"required"`
	Auth   string `json:"auth" binding:"required"`
}

type UnsubscribeRequest struct {
	Endpoint string `json:"endpoint" binding:"required,url"`
}

// PushPayload is the structured message handed to the delivery gateway.
// Data carries a type tag and a deep-link target for the client.
type PushPayload struct {
	Title string                 `json:"title"`
	Body  string                 `json:"body"`
	Icon  string                 `json:"icon,omitempty"`
	Badge string                 `json:"badge,omitempty"`
	Data  map[string]interface{} `json:"data,omitempty"`
}
