package iop

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/oculomed/glauco-api/internal/model"
	"github.com/oculomed/glauco-api/internal/repository"
	apperrors "github.com/oculomed/glauco-api/pkg/errors"
)

type Service interface {
	Record(ctx context.Context, patientID uuid.UUID, req *model.CreateIOPMeasurementRequest) (*model.IOPMeasurement, error)
	Get(ctx context.Context, id, patientID uuid.UUID) (*model.IOPMeasurement, error)
	List(ctx context.Context, filters *model.IOPFilters) ([]*model.IOPMeasurement, error)
	Delete(ctx context.Context, id, patientID uuid.UUID) error
}

type service struct {
	repo repository.IOPRepository
}

func NewService(repo repository.IOPRepository) Service {
	return &service{repo: repo}
}

func (s *service) Record(ctx context.Context, patientID uuid.UUID, req *model.CreateIOPMeasurementRequest) (*model.IOPMeasurement, error) {
	m := &model.IOPMeasurement{
		PatientID:  patientID,
		Eye:        req.Eye,
		Value:      req.Value,
		MeasuredAt: req.MeasuredAt,
		Method:     req.Method,
		Notes:      req.Notes,
	}
	if err := s.repo.Create(ctx, m); err != nil {
		return nil, fmt.Errorf("failed to record measurement: %w", err)
	}
	return m, nil
}

func (s *service) Get(ctx context.Context, id, patientID uuid.UUID) (*model.IOPMeasurement, error) {
	m, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if m.PatientID != patientID {
		return nil, apperrors.NotFound("IOP measurement", nil)
	}
	return m, nil
}

func (s *service) List(ctx context.Context, filters *model.IOPFilters) ([]*model.IOPMeasurement, error) {
	return s.repo.List(ctx, filters)
}

func (s *service) Delete(ctx context.Context, id, patientID uuid.UUID) error {
	return s.repo.Delete(ctx, id, patientID)
}
