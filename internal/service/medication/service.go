package medication

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/oculomed/glauco-api/internal/model"
	"github.com/oculomed/glauco-api/internal/repository"
	apperrors "github.com/oculomed/glauco-api/pkg/errors"
)

type Service interface {
	Create(ctx context.Context, patientID uuid.UUID, req *model.CreateMedicationRequest) (*model.PatientMedication, error)
	Get(ctx context.Context, id, patientID uuid.UUID) (*model.PatientMedication, error)
	List(ctx context.Context, patientID uuid.UUID, activeOnly bool) ([]*model.PatientMedication, error)
	Update(ctx context.Context, id, patientID uuid.UUID, req *model.UpdateMedicationRequest) (*model.PatientMedication, error)
	Deactivate(ctx context.Context, id, patientID uuid.UUID) error

	AddReminder(ctx context.Context, medicationID, patientID uuid.UUID, req *model.CreateReminderRequest) (*model.MedicationReminder, error)
	ListReminders(ctx context.Context, medicationID, patientID uuid.UUID) ([]*model.MedicationReminder, error)
	DeleteReminder(ctx context.Context, reminderID, patientID uuid.UUID) error

	RecordDose(ctx context.Context, medicationID, patientID uuid.UUID, req *model.RecordDoseRequest) (*model.DoseRecord, error)
	ListDoses(ctx context.Context, patientID uuid.UUID, from, to time.Time) ([]*model.DoseRecord, error)
}

type service struct {
	medRepo  repository.MedicationRepository
	remRepo  repository.ReminderRepository
	doseRepo repository.DoseRepository
}

func NewService(
	medRepo repository.MedicationRepository,
	remRepo repository.ReminderRepository,
	doseRepo repository.DoseRepository,
) Service {
	return &service{
		medRepo:  medRepo,
		remRepo:  remRepo,
		doseRepo: doseRepo,
	}
}

func (s *service) Create(ctx context.Context, patientID uuid.UUID, req *model.CreateMedicationRequest) (*model.PatientMedication, error) {
	med := &model.PatientMedication{
		PatientID:    patientID,
		Name:         req.Name,
		Dosage:       req.Dosage,
		Eye:          req.Eye,
		Frequency:    req.Frequency,
		Instructions: req.Instructions,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
	}
	if err := s.medRepo.Create(ctx, med); err != nil {
		return nil, fmt.Errorf("failed to create medication: %w", err)
	}
	return med, nil
}

// owned fetches a medication and verifies the caller's patient owns it.
func (s *service) owned(ctx context.Context, id, patientID uuid.UUID) (*model.PatientMedication, error) {
	med, err := s.medRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if med.PatientID != patientID {
		return nil, apperrors.NotFound("medication", nil)
	}
	return med, nil
}

func (s *service) Get(ctx context.Context, id, patientID uuid.UUID) (*model.PatientMedication, error) {
	return s.owned(ctx, id, patientID)
}

func (s *service) List(ctx context.Context, patientID uuid.UUID, activeOnly bool) ([]*model.PatientMedication, error) {
	return s.medRepo.List(ctx, patientID, activeOnly)
}

func (s *service) Update(ctx context.Context, id, patientID uuid.UUID, req *model.UpdateMedicationRequest) (*model.PatientMedication, error) {
	med, err := s.owned(ctx, id, patientID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		med.Name = *req.Name
	}
	if req.Dosage != nil {
		med.Dosage = *req.Dosage
	}
	if req.Eye != nil {
		med.Eye = *req.Eye
	}
	if req.Frequency != nil {
		med.Frequency = *req.Frequency
	}
	if req.Instructions != nil {
		med.Instructions = *req.Instructions
	}
	if req.EndDate != nil {
		med.EndDate = req.EndDate
	}
	if req.IsActive != nil {
		med.IsActive = *req.IsActive
	}

	if err := s.medRepo.Update(ctx, med); err != nil {
		return nil, fmt.Errorf("failed to update medication: %w", err)
	}
	return med, nil
}

func (s *service) Deactivate(ctx context.Context, id, patientID uuid.UUID) error {
	return s.medRepo.Deactivate(ctx, id, patientID)
}

func (s *service) AddReminder(ctx context.Context, medicationID, patientID uuid.UUID, req *model.CreateReminderRequest) (*model.MedicationReminder, error) {
	if _, err := s.owned(ctx, medicationID, patientID); err != nil {
		return nil, err
	}

	reminder := &model.MedicationReminder{
		PatientMedicationID: medicationID,
		ScheduledTime:       req.ScheduledTime,
	}
	if err := s.remRepo.Create(ctx, reminder); err != nil {
		return nil, fmt.Errorf("failed to create reminder: %w", err)
	}
	return reminder, nil
}

func (s *service) ListReminders(ctx context.Context, medicationID, patientID uuid.UUID) ([]*model.MedicationReminder, error) {
	if _, err := s.owned(ctx, medicationID, patientID); err != nil {
		return nil, err
	}
	return s.remRepo.ListForMedication(ctx, medicationID)
}

func (s *service) DeleteReminder(ctx context.Context, reminderID, patientID uuid.UUID) error {
	reminder, err := s.remRepo.Get(ctx, reminderID)
	if err != nil {
		return err
	}
	if _, err := s.owned(ctx, reminder.PatientMedicationID, patientID); err != nil {
		return err
	}
	return s.remRepo.Delete(ctx, reminderID)
}

func (s *service) RecordDose(ctx context.Context, medicationID, patientID uuid.UUID, req *model.RecordDoseRequest) (*model.DoseRecord, error) {
	if _, err := s.owned(ctx, medicationID, patientID); err != nil {
		return nil, err
	}

	scheduled := model.NewTimeOfDay(req.ActualTime.Hour(), req.ActualTime.Minute())
	if req.ScheduledTime != nil {
		scheduled = *req.ScheduledTime
	}

	dose := &model.DoseRecord{
		PatientMedicationID: medicationID,
		ScheduledTime:       scheduled,
		ActualTime:          req.ActualTime,
		Status:              req.Status,
	}
	if err := s.doseRepo.Create(ctx, dose); err != nil {
		return nil, fmt.Errorf("failed to record dose: %w", err)
	}
	return dose, nil
}

func (s *service) ListDoses(ctx context.Context, patientID uuid.UUID, from, to time.Time) ([]*model.DoseRecord, error) {
	return s.doseRepo.ListForPatient(ctx, patientID, from, to)
}
