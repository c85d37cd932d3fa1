package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/oculomed/glauco-api/internal/model"
	"github.com/oculomed/glauco-api/internal/repository"
	"github.com/oculomed/glauco-api/pkg/logger"
	"github.com/oculomed/glauco-api/pkg/metrics"
)

// Firing windows: which reminder fires for an appointment N days out,
// and at which local hour. Hours are deliberately coarse; the hourly
// sweep fires at most once per hour and the ledger claim keeps it to
// once per day.
const (
	sameDayHour   = 8
	nextDayHour   = 18
	threeDaysHour = 9
)

// AppointmentTask runs the hourly reminder sweep and the 6-hourly
// overdue sweep.
type AppointmentTask struct {
	appointments  repository.AppointmentRepository
	reminderLogs  repository.ReminderLogRepository
	notifier      Notifier
	overdueWindow time.Duration
	logger        *logger.Logger
	metrics       *metrics.Metrics
}

func NewAppointmentTask(
	appointments repository.AppointmentRepository,
	reminderLogs repository.ReminderLogRepository,
	notifier Notifier,
	overdueWindow time.Duration,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) *AppointmentTask {
	if overdueWindow <= 0 {
		overdueWindow = 24 * time.Hour
	}
	return &AppointmentTask{
		appointments:  appointments,
		reminderLogs:  reminderLogs,
		notifier:      notifier,
		overdueWindow: overdueWindow,
		logger:        logger,
		metrics:       metrics,
	}
}

// reminderWindow maps days-until-appointment to a reminder type and the
// sole local hour at which it fires.
func reminderWindow(daysUntil int) (model.ReminderType, int, bool) {
	switch daysUntil {
	case 0:
		return model.ReminderTypeSameDay, sameDayHour, true
	case 1:
		return model.ReminderTypeNextDay, nextDayHour, true
	case 3:
		return model.ReminderTypeThreeDays, threeDaysHour, true
	default:
		return "", 0, false
	}
}

// RunReminders scans scheduled appointments within the next three days
// and fires the reminder whose window matches the current hour. The
// ledger claim is an atomic conditional insert, so two overlapping runs
// in the same hour produce exactly one send.
func (t *AppointmentTask) RunReminders(ctx context.Context, now time.Time) error {
	today := startOfDay(now)
	horizon := today.AddDate(0, 0, 4)

	upcoming, err := t.appointments.ListScheduledBetween(ctx, today, horizon)
	if err != nil {
		return fmt.Errorf("failed to list upcoming appointments: %w", err)
	}

	for _, appt := range upcoming {
		start := appt.StartTime.In(now.Location())
		daysUntil := int(startOfDay(start).Sub(today).Hours() / 24)

		reminderType, fireHour, ok := reminderWindow(daysUntil)
		if !ok || now.Hour() != fireHour {
			continue
		}

		claimed, err := t.reminderLogs.Claim(ctx, appt.ID, reminderType, today)
		if err != nil {
			t.metrics.SweepErrors.WithLabelValues("appointment_reminder").Inc()
			t.logger.Error(err, "failed to claim reminder ledger, skipping",
				"appointment_id", appt.ID.String(), "reminder_type", string(reminderType))
			continue
		}
		if !claimed {
			// Already sent today.
			continue
		}

		n := &model.Notification{
			RecipientID: appt.UserID,
			Type:        model.NotificationTypeAppointmentRemind,
			Title:       "Appointment reminder",
			Message:     reminderMessage(daysUntil, &appt.Appointment, start),
			Priority:    model.NotificationPriorityNormal,
		}
		t.notifier.Dispatch(ctx, n, appointmentPayload(appt, reminderType))
		t.metrics.RemindersFired.WithLabelValues("appointment_" + string(reminderType)).Inc()
	}

	return nil
}

// RunOverdueSweep moves scheduled appointments whose start time has
// passed to missed, bounded to the last day so ancient rows are never
// reprocessed. The transition is terminal for the reminder pipeline.
func (t *AppointmentTask) RunOverdueSweep(ctx context.Context, now time.Time) error {
	from := now.Add(-t.overdueWindow)

	overdue, err := t.appointments.ListScheduledBetween(ctx, from, now)
	if err != nil {
		return fmt.Errorf("failed to list overdue appointments: %w", err)
	}

	for _, appt := range overdue {
		marked, err := t.appointments.MarkMissed(ctx, appt.ID)
		if err != nil {
			t.metrics.SweepErrors.WithLabelValues("appointment_overdue").Inc()
			t.logger.Error(err, "failed to mark appointment missed",
				"appointment_id", appt.ID.String())
			continue
		}
		if !marked {
			continue
		}

		start := appt.StartTime.In(now.Location())
		n := &model.Notification{
			RecipientID: appt.UserID,
			Type:        model.NotificationTypeMissedAppointment,
			Title:       "Missed appointment",
			Message: fmt.Sprintf("You missed your appointment on %s. Please contact the clinic to rebook.",
				start.Format("Monday, 2 January 15:04")),
			Priority: model.NotificationPriorityHigh,
		}
		t.notifier.Dispatch(ctx, n, missedAppointmentPayload(appt))
		t.metrics.AppointmentsSweptMissed.Inc()
	}

	return nil
}

func reminderMessage(daysUntil int, appt *model.Appointment, start time.Time) string {
	when := start.Format("15:04")
	with := appt.Doctor
	if with == "" {
		with = "your eye clinic"
	}

	switch daysUntil {
	case 0:
		return fmt.Sprintf("Your appointment with %s is today at %s.", with, when)
	case 1:
		return fmt.Sprintf("You have an appointment with %s tomorrow at %s.", with, when)
	default:
		return fmt.Sprintf("You have an appointment with %s on %s at %s.",
			with, start.Format("Monday, 2 January"), when)
	}
}

func appointmentPayload(appt *model.UpcomingAppointment, reminderType model.ReminderType) *model.PushPayload {
	return &model.PushPayload{
		Title: "Appointment reminder",
		Body:  fmt.Sprintf("Upcoming appointment on %s.", appt.StartTime.Format("Monday, 2 January 15:04")),
		Data: map[string]interface{}{
			"type":           model.NotificationTypeAppointmentRemind,
			"appointment_id": appt.ID.String(),
			"reminder_type":  string(reminderType),
			"link":           "/appointments/" + appt.ID.String(),
		},
	}
}

func missedAppointmentPayload(appt *model.UpcomingAppointment) *model.PushPayload {
	return &model.PushPayload{
		Title: "Missed appointment",
		Body:  "You missed a scheduled appointment. Please contact the clinic to rebook.",
		Data: map[string]interface{}{
			"type":           model.NotificationTypeMissedAppointment,
			"appointment_id": appt.ID.String(),
			"link":           "/appointments/" + appt.ID.String(),
		},
	}
}
