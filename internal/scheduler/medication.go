package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/oculomed/glauco-api/internal/model"
	"github.com/oculomed/glauco-api/internal/repository"
	"github.com/oculomed/glauco-api/internal/service/notification"
	"github.com/oculomed/glauco-api/pkg/logger"
	"github.com/oculomed/glauco-api/pkg/metrics"
)

// Notifier is the slice of the notification service the scheduler needs.
type Notifier interface {
	Push(ctx context.Context, userID uuid.UUID, payload *model.PushPayload) notification.Tally
	Dispatch(ctx context.Context, n *model.Notification, payload *model.PushPayload) notification.Tally
}

// MedicationTask runs the two medication sweeps: the minute-level
// on-time check and the 15-minute missed sweep.
type MedicationTask struct {
	reminders repository.ReminderRepository
	doses     repository.DoseRepository
	notifier  Notifier
	grace     time.Duration
	logger    *logger.Logger
	metrics   *metrics.Metrics
}

func NewMedicationTask(
	reminders repository.ReminderRepository,
	doses repository.DoseRepository,
	notifier Notifier,
	grace time.Duration,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) *MedicationTask {
	if grace <= 0 {
		grace = 15 * time.Minute
	}
	return &MedicationTask{
		reminders: reminders,
		doses:     doses,
		notifier:  notifier,
		grace:     grace,
		logger:    logger,
		metrics:   metrics,
	}
}

// RunUpcoming fires a push for every pending reminder whose time-of-day
// matches the current minute and whose medication has no taken dose
// today. It deliberately leaves the reminder pending and writes no
// ledger: the on-time nudge has no idempotency guard, matching the
// behavior the missed sweep later corrects.
func (t *MedicationTask) RunUpcoming(ctx context.Context, now time.Time) error {
	minute := model.NewTimeOfDay(now.Hour(), now.Minute())

	due, err := t.reminders.ListPendingAtMinute(ctx, minute)
	if err != nil {
		return fmt.Errorf("failed to list due reminders: %w", err)
	}

	for _, reminder := range due {
		taken, err := t.doses.HasTakenDose(ctx, reminder.PatientMedicationID, now)
		if err != nil {
			t.metrics.SweepErrors.WithLabelValues("medication_upcoming").Inc()
			t.logger.Error(err, "failed to check dose, skipping reminder",
				"reminder_id", reminder.ID.String())
			continue
		}
		if taken {
			continue
		}

		t.notifier.Push(ctx, reminder.UserID, medicationPayload(reminder))
		t.metrics.RemindersFired.WithLabelValues("medication_upcoming").Inc()
	}

	return nil
}

// RunMissed marks reminders missed once their time-of-day is more than
// the grace period in the past with no taken dose, then notifies. The
// pending->missed transition is claimed first so overlapping sweeps
// cannot double-notify.
func (t *MedicationTask) RunMissed(ctx context.Context, now time.Time) error {
	cutoff := now.Add(-t.grace)
	if cutoff.Day() != now.Day() {
		// Shortly after midnight nothing scheduled today can be overdue
		// yet; yesterday's stragglers were already handled yesterday.
		return nil
	}
	cutoffMinute := model.NewTimeOfDay(cutoff.Hour(), cutoff.Minute())

	overdue, err := t.reminders.ListPendingOlderThan(ctx, cutoffMinute)
	if err != nil {
		return fmt.Errorf("failed to list overdue reminders: %w", err)
	}

	for _, reminder := range overdue {
		taken, err := t.doses.HasTakenDose(ctx, reminder.PatientMedicationID, now)
		if err != nil {
			t.metrics.SweepErrors.WithLabelValues("medication_missed").Inc()
			t.logger.Error(err, "failed to check dose, skipping reminder",
				"reminder_id", reminder.ID.String())
			continue
		}
		if taken {
			// Dose was taken; the reminder stays pending for the next day.
			continue
		}

		marked, err := t.reminders.MarkMissed(ctx, reminder.ID, now)
		if err != nil {
			t.metrics.SweepErrors.WithLabelValues("medication_missed").Inc()
			t.logger.Error(err, "failed to mark reminder missed",
				"reminder_id", reminder.ID.String())
			continue
		}
		if !marked {
			// Another run got there first.
			continue
		}

		n := &model.Notification{
			RecipientID: reminder.UserID,
			Type:        model.NotificationTypeMissedMedication,
			Title:       "Missed medication",
			Message: fmt.Sprintf("You missed your %s dose scheduled for %s. Take it as soon as possible.",
				reminder.MedicationName, reminder.ScheduledTime),
			Priority: model.NotificationPriorityHigh,
		}
		t.notifier.Dispatch(ctx, n, missedMedicationPayload(reminder))
		t.metrics.RemindersMarkedMissed.WithLabelValues("medication").Inc()
	}

	return nil
}

func medicationPayload(reminder *model.ReminderDue) *model.PushPayload {
	return &model.PushPayload{
		Title: "Time for your medication",
		Body:  fmt.Sprintf("%s (%s) is due at %s.", reminder.MedicationName, reminder.Dosage, reminder.ScheduledTime),
		Data: map[string]interface{}{
			"type":        model.NotificationTypeMedicationReminder,
			"reminder_id": reminder.ID.String(),
			"link":        "/medications",
		},
	}
}

func missedMedicationPayload(reminder *model.ReminderDue) *model.PushPayload {
	return &model.PushPayload{
		Title: "Missed medication",
		Body:  fmt.Sprintf("You missed your %s dose scheduled for %s.", reminder.MedicationName, reminder.ScheduledTime),
		Data: map[string]interface{}{
			"type":        model.NotificationTypeMissedMedication,
			"reminder_id": reminder.ID.String(),
			"link":        "/medications",
		},
	}
}
