package patient

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/oculomed/glauco-api/internal/model"
	"github.com/oculomed/glauco-api/internal/repository"
)

type Service interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*model.Patient, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, req *model.UpdatePatientRequest) (*model.Patient, error)
}

type service struct {
	repo repository.PatientRepository
}

func NewService(repo repository.PatientRepository) Service {
	return &service{repo: repo}
}

func (s *service) GetProfile(ctx context.Context, userID uuid.UUID) (*model.Patient, error) {
	return s.repo.GetByUserID(ctx, userID)
}

func (s *service) UpdateProfile(ctx context.Context, userID uuid.UUID, req *model.UpdatePatientRequest) (*model.Patient, error) {
	patient, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("patient not found: %w", err)
	}

	if req.DateOfBirth != nil {
		patient.DateOfBirth = req.DateOfBirth
	}
	if req.Gender != nil {
		patient.Gender = *req.Gender
	}
	if req.GlaucomaType != nil {
		patient.GlaucomaType = *req.GlaucomaType
	}
	if req.DiagnosisDate != nil {
		patient.DiagnosisDate = req.DiagnosisDate
	}
	if req.TargetIOPLeft != nil {
		patient.TargetIOPLeft = req.TargetIOPLeft
	}
	if req.TargetIOPRight != nil {
		patient.TargetIOPRight = req.TargetIOPRight
	}
	if req.Allergies != nil {
		patient.Allergies = *req.Allergies
	}
	if req.EmergencyContact != nil {
		patient.EmergencyContact = *req.EmergencyContact
	}
	if req.Notes != nil {
		patient.Notes = *req.Notes
	}

	if err := s.repo.Update(ctx, patient); err != nil {
		return nil, fmt.Errorf("failed to update patient: %w", err)
	}
	return patient, nil
}
