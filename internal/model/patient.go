package model

import (
	"time"

	"github.com/google/uuid"
)

type GlaucomaType string

const (
	GlaucomaTypeOpenAngle     GlaucomaType = "open_angle"
	GlaucomaTypeAngleClosure  GlaucomaType = "angle_closure"
	GlaucomaTypeNormalTension GlaucomaType = "normal_tension"
	GlaucomaTypeSecondary     GlaucomaType = "secondary"
	GlaucomaTypeSuspect       GlaucomaType = "suspect"
)

// Patient is the clinical profile attached to a user account.
type Patient struct {
	Base
	UserID           uuid.UUID    `db:"user_id" json:"user_id"`
	DateOfBirth      *time.Time   `db:"date_of_birth" json:"date_of_birth,omitempty"`
	Gender           string       `db:"gender" json:"gender,omitempty"`
	GlaucomaType     GlaucomaType `db:"glaucoma_type" json:"glaucoma_type,omitempty"`
	DiagnosisDate    *time.Time   `db:"diagnosis_date" json:"diagnosis_date,omitempty"`
	TargetIOPLeft    *float64     `db:"target_iop_left" json:"target_iop_left,omitempty"`
	TargetIOPRight   *float64     `db:"target_iop_right" json:"target_iop_right,omitempty"`
	Allergies        string       `db:"allergies" json:"allergies,omitempty"`
	EmergencyContact string       `db:"emergency_contact" json:"emergency_contact,omitempty"`
	Notes            string       `db:"notes" json:"notes,omitempty"`
}

type UpdatePatientRequest struct {
	DateOfBirth      *time.Time    `json:"date_of_birth"`
	Gender           *string       `json:"gender"`
	GlaucomaType     *GlaucomaType `json:"glaucoma_type"`
	DiagnosisDate    *time.Time    `json:"diagnosis_date"`
	TargetIOPLeft    *float64      `json:"target_iop_left"`
	TargetIOPRight   *float64      `json:"target_iop_right"`
	Allergies        *string       `json:"allergies"`
	EmergencyContact *string       `json:"emergency_contact"`
	Notes            *string       `json:"notes"`
}
