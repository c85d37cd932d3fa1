package appointment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/oculomed/glauco-api/internal/email"
	"github.com/oculomed/glauco-api/internal/model"
	"github.com/oculomed/glauco-api/internal/repository"
	apperrors "github.com/oculomed/glauco-api/pkg/errors"
	"github.com/oculomed/glauco-api/pkg/logger"
)

type Service interface {
	Get(ctx context.Context, id, patientID uuid.UUID) (*model.Appointment, error)
	List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error)
	RequestReschedule(ctx context.Context, appointmentID, patientID uuid.UUID, userEmail string, req *model.CreateRescheduleRequest) (*model.RescheduleRequest, error)
	ListRescheduleRequests(ctx context.Context, patientID uuid.UUID) ([]*model.RescheduleRequest, error)
}

type service struct {
	repo     repository.AppointmentRepository
	emailSvc email.Service
	logger   *logger.Logger
}

func NewService(repo repository.AppointmentRepository, emailSvc email.Service, logger *logger.Logger) Service {
	return &service{
		repo:     repo,
		emailSvc: emailSvc,
		logger:   logger,
	}
}

func (s *service) Get(ctx context.Context, id, patientID uuid.UUID) (*model.Appointment, error) {
	appointment, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if appointment.PatientID != patientID {
		return nil, apperrors.NotFound("appointment", nil)
	}
	return appointment, nil
}

func (s *service) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	return s.repo.List(ctx, filters)
}

func (s *service) RequestReschedule(ctx context.Context, appointmentID, patientID uuid.UUID, userEmail string, req *model.CreateRescheduleRequest) (*model.RescheduleRequest, error) {
	appointment, err := s.Get(ctx, appointmentID, patientID)
	if err != nil {
		return nil, err
	}
	if appointment.Status != model.AppointmentStatusScheduled {
		return nil, apperrors.Conflict("only scheduled appointments can be rescheduled", nil)
	}
	if !req.RequestedTime.After(time.Now()) {
		return nil, apperrors.BadRequest("requested time must be in the future", nil)
	}

	request := &model.RescheduleRequest{
		AppointmentID: appointmentID,
		PatientID:     patientID,
		RequestedTime: req.RequestedTime,
		Reason:        req.Reason,
	}
	if err := s.repo.CreateRescheduleRequest(ctx, request); err != nil {
		return nil, fmt.Errorf("failed to create reschedule request: %w", err)
	}

	if userEmail != "" {
		if err := s.emailSvc.SendRescheduleAck(ctx, userEmail, appointment.Doctor,
			req.RequestedTime.Format("Monday, 2 January 2006 15:04")); err != nil {
			s.logger.Error(err, "failed to send reschedule acknowledgement",
				"appointment_id", appointmentID.String())
		}
	}

	return request, nil
}

func (s *service) ListRescheduleRequests(ctx context.Context, patientID uuid.UUID) ([]*model.RescheduleRequest, error) {
	return s.repo.ListRescheduleRequests(ctx, patientID)
}
