package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oculomed/glauco-api/internal/model"
)

func newMedicationTask(reminders *fakeReminderRepo, doses *fakeDoseRepo, notifier *fakeNotifier) *MedicationTask {
	return NewMedicationTask(reminders, doses, notifier, 15*time.Minute, testLogger(), testMetrics)
}

func TestRunUpcomingFiresAtExactMinute(t *testing.T) {
	reminders := &fakeReminderRepo{}
	doses := newFakeDoseRepo()
	notifier := &fakeNotifier{}
	task := newMedicationTask(reminders, doses, notifier)

	reminder := reminders.add(model.NewTimeOfDay(8, 0))

	require.NoError(t, task.RunUpcoming(context.Background(), at(8, 0)))

	require.Len(t, notifier.pushes, 1)
	assert.Equal(t, reminder.UserID, notifier.pushes[0])
	assert.Empty(t, notifier.dispatches, "on-time check must not write notifications")
	assert.Equal(t, model.ReminderStatusPending, reminder.Status, "on-time check must not change status")
}

func TestRunUpcomingSkipsOtherMinutes(t *testing.T) {
	reminders := &fakeReminderRepo{}
	doses := newFakeDoseRepo()
	notifier := &fakeNotifier{}
	task := newMedicationTask(reminders, doses, notifier)

	reminders.add(model.NewTimeOfDay(8, 0))

	require.NoError(t, task.RunUpcoming(context.Background(), at(8, 1)))
	require.NoError(t, task.RunUpcoming(context.Background(), at(7, 59)))

	assert.Empty(t, notifier.pushes)
}

func TestRunUpcomingSuppressedByTakenDose(t *testing.T) {
	reminders := &fakeReminderRepo{}
	doses := newFakeDoseRepo()
	notifier := &fakeNotifier{}
	task := newMedicationTask(reminders, doses, notifier)

	reminder := reminders.add(model.NewTimeOfDay(8, 0))
	doses.taken[reminder.PatientMedicationID] = true

	require.NoError(t, task.RunUpcoming(context.Background(), at(8, 0)))

	assert.Empty(t, notifier.pushes)
}

func TestRunMissedMarksAndNotifiesAfterGrace(t *testing.T) {
	reminders := &fakeReminderRepo{}
	doses := newFakeDoseRepo()
	notifier := &fakeNotifier{}
	task := newMedicationTask(reminders, doses, notifier)

	reminder := reminders.add(model.NewTimeOfDay(8, 0))

	// 16 minutes past the scheduled time with a 15 minute grace.
	require.NoError(t, task.RunMissed(context.Background(), at(8, 16)))

	assert.Equal(t, model.ReminderStatusMissed, reminder.Status)
	require.Len(t, notifier.dispatches, 1)
	n := notifier.dispatches[0]
	assert.Equal(t, reminder.UserID, n.RecipientID)
	assert.Equal(t, model.NotificationTypeMissedMedication, n.Type)
	assert.Equal(t, model.NotificationPriorityHigh, n.Priority)
}

func TestRunMissedLeavesRemindersWithinGrace(t *testing.T) {
	reminders := &fakeReminderRepo{}
	doses := newFakeDoseRepo()
	notifier := &fakeNotifier{}
	task := newMedicationTask(reminders, doses, notifier)

	reminder := reminders.add(model.NewTimeOfDay(8, 0))

	require.NoError(t, task.RunMissed(context.Background(), at(8, 10)))

	assert.Equal(t, model.ReminderStatusPending, reminder.Status)
	assert.Empty(t, notifier.dispatches)
}

func TestRunMissedSuppressedByLateDose(t *testing.T) {
	reminders := &fakeReminderRepo{}
	doses := newFakeDoseRepo()
	notifier := &fakeNotifier{}
	task := newMedicationTask(reminders, doses, notifier)

	reminder := reminders.add(model.NewTimeOfDay(8, 0))
	// Dose recorded at 08:05, before the sweep runs.
	doses.taken[reminder.PatientMedicationID] = true

	require.NoError(t, task.RunMissed(context.Background(), at(8, 16)))

	assert.Equal(t, model.ReminderStatusPending, reminder.Status, "taken dose keeps the reminder pending for tomorrow")
	assert.Empty(t, notifier.dispatches)
}

func TestRunMissedIsIdempotent(t *testing.T) {
	reminders := &fakeReminderRepo{}
	doses := newFakeDoseRepo()
	notifier := &fakeNotifier{}
	task := newMedicationTask(reminders, doses, notifier)

	reminders.add(model.NewTimeOfDay(8, 0))

	require.NoError(t, task.RunMissed(context.Background(), at(8, 16)))
	require.NoError(t, task.RunMissed(context.Background(), at(8, 31)))

	assert.Len(t, notifier.dispatches, 1, "second sweep must not re-notify")
}

func TestRunMissedSkipsMidnightWrap(t *testing.T) {
	reminders := &fakeReminderRepo{}
	doses := newFakeDoseRepo()
	notifier := &fakeNotifier{}
	task := newMedicationTask(reminders, doses, notifier)

	reminders.add(model.NewTimeOfDay(23, 50))

	// 00:05 with a 15 minute grace puts the cutoff on yesterday; the
	// sweep must not treat late-evening reminders as missed today.
	require.NoError(t, task.RunMissed(context.Background(), at(0, 5).AddDate(0, 0, 1)))

	assert.Empty(t, notifier.dispatches)
}
