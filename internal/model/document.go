package model

import (
	"github.com/google/uuid"
)

type DocumentCategory string

const (
	DocumentCategoryVisualField  DocumentCategory = "visual_field"
	DocumentCategoryOCT          DocumentCategory = "oct_scan"
	DocumentCategoryPrescription DocumentCategory = "prescription"
	DocumentCategoryLabResult    DocumentCategory = "lab_result"
	DocumentCategoryOther        DocumentCategory = "other"
)

// MedicalDocument is metadata for a patient-uploaded file. The bytes
// live in Cloudinary; only the URL and public ID are stored here.
type MedicalDocument struct {
	Base
	PatientID   uuid.UUID        `db:"patient_id" json:"patient_id"`
	FileName    string           `db:"file_name" json:"file_name"`
	ContentType string           `db:"content_type" json:"content_type"`
	SizeBytes   int64            `db:"size_bytes" json:"size_bytes"`
	Category    DocumentCategory `db:"category" json:"category"`
	URL         string           `db:"url" json:"url"`
	PublicID    string           `db:"public_id" json:"-"`
	Description string           `db:"description" json:"description,omitempty"`
}
