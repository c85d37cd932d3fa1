package appointment

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oculomed/glauco-api/internal/model"
	"github.com/oculomed/glauco-api/pkg/logger"
)

type fakeAppointmentRepo struct {
	appts    map[uuid.UUID]*model.Appointment
	requests []*model.RescheduleRequest
}

func newFakeAppointmentRepo() *fakeAppointmentRepo {
	return &fakeAppointmentRepo{appts: make(map[uuid.UUID]*model.Appointment)}
}

func (f *fakeAppointmentRepo) add(patientID uuid.UUID, status model.AppointmentStatus) *model.Appointment {
	a := &model.Appointment{
		PatientID: patientID,
		Doctor:    "Dr. Somsak",
		StartTime: time.Now().Add(48 * time.Hour),
		Status:    status,
	}
	a.ID = uuid.New()
	f.appts[a.ID] = a
	return a
}

func (f *fakeAppointmentRepo) Create(_ context.Context, a *model.Appointment) error {
	a.ID = uuid.New()
	f.appts[a.ID] = a
	return nil
}

func (f *fakeAppointmentRepo) Get(_ context.Context, id uuid.UUID) (*model.Appointment, error) {
	if a, ok := f.appts[id]; ok {
		return a, nil
	}
	return nil, fmt.Errorf("appointment %s not found", id)
}

func (f *fakeAppointmentRepo) List(context.Context, *model.AppointmentFilters) ([]*model.Appointment, error) {
	return nil, nil
}

func (f *fakeAppointmentRepo) ListScheduledBetween(context.Context, time.Time, time.Time) ([]*model.UpcomingAppointment, error) {
	return nil, nil
}

func (f *fakeAppointmentRepo) MarkMissed(context.Context, uuid.UUID) (bool, error) {
	return false, nil
}

func (f *fakeAppointmentRepo) CreateRescheduleRequest(_ context.Context, req *model.RescheduleRequest) error {
	req.ID = uuid.New()
	f.requests = append(f.requests, req)
	return nil
}

func (f *fakeAppointmentRepo) ListRescheduleRequests(_ context.Context, patientID uuid.UUID) ([]*model.RescheduleRequest, error) {
	var out []*model.RescheduleRequest
	for _, r := range f.requests {
		if r.PatientID == patientID {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakeEmailService struct {
	acks []string
}

func (f *fakeEmailService) SendPasswordReset(context.Context, string, string) error { return nil }

func (f *fakeEmailService) SendRescheduleAck(_ context.Context, to, _, _ string) error {
	f.acks = append(f.acks, to)
	return nil
}

func (f *fakeEmailService) SendCustom(context.Context, string, string, string) error { return nil }

func newTestService(repo *fakeAppointmentRepo, emails *fakeEmailService) Service {
	log := logger.NewLogger(&logger.Config{Level: logger.ErrorLevel})
	return NewService(repo, emails, log)
}

func TestGetEnforcesOwnership(t *testing.T) {
	repo := newFakeAppointmentRepo()
	svc := newTestService(repo, &fakeEmailService{})

	owner := uuid.New()
	appt := repo.add(owner, model.AppointmentStatusScheduled)

	got, err := svc.Get(context.Background(), appt.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, appt.ID, got.ID)

	_, err = svc.Get(context.Background(), appt.ID, uuid.New())
	assert.Error(t, err, "another patient must not see the appointment")
}

func TestRequestRescheduleHappyPath(t *testing.T) {
	repo := newFakeAppointmentRepo()
	emails := &fakeEmailService{}
	svc := newTestService(repo, emails)

	owner := uuid.New()
	appt := repo.add(owner, model.AppointmentStatusScheduled)

	req := &model.CreateRescheduleRequest{
		RequestedTime: time.Now().Add(72 * time.Hour),
		Reason:        "conflict with work",
	}
	request, err := svc.RequestReschedule(context.Background(), appt.ID, owner, "patient@example.com", req)
	require.NoError(t, err)

	assert.Equal(t, appt.ID, request.AppointmentID)
	assert.Equal(t, owner, request.PatientID)
	assert.Equal(t, []string{"patient@example.com"}, emails.acks)

	listed, err := svc.ListRescheduleRequests(context.Background(), owner)
	require.NoError(t, err)
	assert.Len(t, listed, 1)
}

func TestRequestRescheduleRejectsNonScheduled(t *testing.T) {
	repo := newFakeAppointmentRepo()
	svc := newTestService(repo, &fakeEmailService{})

	owner := uuid.New()
	for _, status := range []model.AppointmentStatus{
		model.AppointmentStatusMissed,
		model.AppointmentStatusCancelled,
		model.AppointmentStatusCompleted,
	} {
		appt := repo.add(owner, status)
		_, err := svc.RequestReschedule(context.Background(), appt.ID, owner, "", &model.CreateRescheduleRequest{
			RequestedTime: time.Now().Add(time.Hour),
		})
		assert.Error(t, err, "status %s must be rejected", status)
	}
	assert.Empty(t, repo.requests)
}

func TestRequestRescheduleRejectsPastTime(t *testing.T) {
	repo := newFakeAppointmentRepo()
	svc := newTestService(repo, &fakeEmailService{})

	owner := uuid.New()
	appt := repo.add(owner, model.AppointmentStatusScheduled)

	_, err := svc.RequestReschedule(context.Background(), appt.ID, owner, "", &model.CreateRescheduleRequest{
		RequestedTime: time.Now().Add(-time.Hour),
	})
	assert.Error(t, err)
	assert.Empty(t, repo.requests)
}
