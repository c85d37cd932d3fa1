package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oculomed/glauco-api/internal/model"
	"github.com/oculomed/glauco-api/internal/service/notification"
	"github.com/oculomed/glauco-api/pkg/logger"
	"github.com/oculomed/glauco-api/pkg/metrics"
)

// Prometheus collectors register globally, so the whole package shares
// one instance.
var testMetrics = metrics.NewMetrics("scheduler_test")

var bangkok = time.FixedZone("ICT", 7*60*60)

func testLogger() *logger.Logger {
	return logger.NewLogger(&logger.Config{Level: logger.ErrorLevel})
}

func at(hour, minute int) time.Time {
	return time.Date(2026, 3, 10, hour, minute, 0, 0, bangkok)
}

type fakeNotifier struct {
	mu         sync.Mutex
	pushes     []uuid.UUID
	dispatches []*model.Notification
}

func (f *fakeNotifier) Push(_ context.Context, userID uuid.UUID, _ *model.PushPayload) notification.Tally {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pushes = append(f.pushes, userID)
	return notification.Tally{Sent: 1}
}

func (f *fakeNotifier) Dispatch(_ context.Context, n *model.Notification, _ *model.PushPayload) notification.Tally {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dispatches = append(f.dispatches, n)
	return notification.Tally{Sent: 1}
}

type fakeReminderRepo struct {
	mu        sync.Mutex
	reminders []*model.ReminderDue
}

func (f *fakeReminderRepo) add(scheduled model.TimeOfDay) *model.ReminderDue {
	r := &model.ReminderDue{
		PatientID:      uuid.New(),
		UserID:         uuid.New(),
		MedicationName: "Latanoprost",
		Dosage:         "1 drop",
	}
	r.ID = uuid.New()
	r.PatientMedicationID = uuid.New()
	r.ScheduledTime = scheduled
	r.Status = model.ReminderStatusPending
	f.reminders = append(f.reminders, r)
	return r
}

func (f *fakeReminderRepo) Create(context.Context, *model.MedicationReminder) error { return nil }

func (f *fakeReminderRepo) Get(_ context.Context, id uuid.UUID) (*model.MedicationReminder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.reminders {
		if r.ID == id {
			rem := r.MedicationReminder
			return &rem, nil
		}
	}
	return nil, fmt.Errorf("reminder %s not found", id)
}

func (f *fakeReminderRepo) ListForMedication(context.Context, uuid.UUID) ([]*model.MedicationReminder, error) {
	return nil, nil
}

func (f *fakeReminderRepo) Delete(context.Context, uuid.UUID) error { return nil }

func (f *fakeReminderRepo) ListPendingAtMinute(_ context.Context, at model.TimeOfDay) ([]*model.ReminderDue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var due []*model.ReminderDue
	for _, r := range f.reminders {
		if r.Status == model.ReminderStatusPending && r.ScheduledTime == at {
			due = append(due, r)
		}
	}
	return due, nil
}

func (f *fakeReminderRepo) ListPendingOlderThan(_ context.Context, cutoff model.TimeOfDay) ([]*model.ReminderDue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var due []*model.ReminderDue
	for _, r := range f.reminders {
		if r.Status == model.ReminderStatusPending && r.ScheduledTime.Minutes() < cutoff.Minutes() {
			due = append(due, r)
		}
	}
	return due, nil
}

func (f *fakeReminderRepo) MarkMissed(_ context.Context, id uuid.UUID, at time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.reminders {
		if r.ID == id {
			if r.Status != model.ReminderStatusPending {
				return false, nil
			}
			r.Status = model.ReminderStatusMissed
			r.RespondedAt = &at
			return true, nil
		}
	}
	return false, fmt.Errorf("reminder %s not found", id)
}

type fakeDoseRepo struct {
	mu    sync.Mutex
	taken map[uuid.UUID]bool
}

func newFakeDoseRepo() *fakeDoseRepo {
	return &fakeDoseRepo{taken: make(map[uuid.UUID]bool)}
}

func (f *fakeDoseRepo) Create(_ context.Context, dose *model.DoseRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if dose.Status == model.DoseStatusTaken || dose.Status == model.DoseStatusLate {
		f.taken[dose.PatientMedicationID] = true
	}
	return nil
}

func (f *fakeDoseRepo) ListForPatient(context.Context, uuid.UUID, time.Time, time.Time) ([]*model.DoseRecord, error) {
	return nil, nil
}

func (f *fakeDoseRepo) HasTakenDose(_ context.Context, medicationID uuid.UUID, _ time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.taken[medicationID], nil
}

type fakeAppointmentRepo struct {
	mu    sync.Mutex
	appts []*model.UpcomingAppointment
}

func (f *fakeAppointmentRepo) add(start time.Time) *model.UpcomingAppointment {
	a := &model.UpcomingAppointment{UserID: uuid.New()}
	a.ID = uuid.New()
	a.PatientID = uuid.New()
	a.Doctor = "Dr. Somsak"
	a.StartTime = start
	a.Status = model.AppointmentStatusScheduled
	f.appts = append(f.appts, a)
	return a
}

func (f *fakeAppointmentRepo) Create(context.Context, *model.Appointment) error { return nil }

func (f *fakeAppointmentRepo) Get(_ context.Context, id uuid.UUID) (*model.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.appts {
		if a.ID == id {
			appt := a.Appointment
			return &appt, nil
		}
	}
	return nil, fmt.Errorf("appointment %s not found", id)
}

func (f *fakeAppointmentRepo) List(context.Context, *model.AppointmentFilters) ([]*model.Appointment, error) {
	return nil, nil
}

func (f *fakeAppointmentRepo) ListScheduledBetween(_ context.Context, from, to time.Time) ([]*model.UpcomingAppointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.UpcomingAppointment
	for _, a := range f.appts {
		if a.Status != model.AppointmentStatusScheduled {
			continue
		}
		if a.StartTime.Before(from) || !a.StartTime.Before(to) {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (f *fakeAppointmentRepo) MarkMissed(_ context.Context, id uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.appts {
		if a.ID == id {
			if a.Status != model.AppointmentStatusScheduled {
				return false, nil
			}
			a.Status = model.AppointmentStatusMissed
			return true, nil
		}
	}
	return false, fmt.Errorf("appointment %s not found", id)
}

func (f *fakeAppointmentRepo) CreateRescheduleRequest(context.Context, *model.RescheduleRequest) error {
	return nil
}

func (f *fakeAppointmentRepo) ListRescheduleRequests(context.Context, uuid.UUID) ([]*model.RescheduleRequest, error) {
	return nil, nil
}

type fakeReminderLogRepo struct {
	mu     sync.Mutex
	claims map[string]bool
}

func newFakeReminderLogRepo() *fakeReminderLogRepo {
	return &fakeReminderLogRepo{claims: make(map[string]bool)}
}

func (f *fakeReminderLogRepo) Claim(_ context.Context, appointmentID uuid.UUID, reminderType model.ReminderType, day time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := fmt.Sprintf("%s|%s|%s", appointmentID, reminderType, day.Format("2006-01-02"))
	if f.claims[key] {
		return false, nil
	}
	f.claims[key] = true
	return true, nil
}

func (f *fakeReminderLogRepo) ListForAppointment(context.Context, uuid.UUID) ([]*model.AppointmentReminderLog, error) {
	return nil, nil
}
