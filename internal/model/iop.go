package model

import (
	"time"

	"github.com/google/uuid"
)

type Eye string

const (
	EyeLeft  Eye = "left"
	EyeRight Eye = "right"
)

// IOPMeasurement is a single intraocular-pressure reading logged by the
// patient, in mmHg.
type IOPMeasurement struct {
	Base
	PatientID  uuid.UUID `db:"patient_id" json:"patient_id"`
	Eye        Eye       `db:"eye" json:"eye"`
	Value      float64   `db:"value" json:"value"`
	MeasuredAt time.Time `db:"measured_at" json:"measured_at"`
	Method     string    `db:"method" json:"method,omitempty"`
	Notes      string    `db:"notes" json:"notes,omitempty"`
}

type CreateIOPMeasurementRequest struct {
	Eye        Eye       `json:"eye" binding:"required,oneof=left right"`
	Value      float64   `json:"value" binding:"required,gt=0,lte=80"`
	MeasuredAt time.Time `json:"measured_at" binding:"required"`
	Method     string    `json:"method"`
	Notes      string    `json:"notes"`
}

type IOPFilters struct {
	PatientID uuid.UUID
	Eye       Eye
	From      time.Time
	To        time.Time
}
