package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oculomed/glauco-api/internal/model"
)

func newAppointmentTask(appts *fakeAppointmentRepo, logs *fakeReminderLogRepo, notifier *fakeNotifier) *AppointmentTask {
	return NewAppointmentTask(appts, logs, notifier, 24*time.Hour, testLogger(), testMetrics)
}

func TestReminderWindowTable(t *testing.T) {
	cases := []struct {
		daysUntil int
		wantType  model.ReminderType
		wantHour  int
		wantOK    bool
	}{
		{0, model.ReminderTypeSameDay, 8, true},
		{1, model.ReminderTypeNextDay, 18, true},
		{2, "", 0, false},
		{3, model.ReminderTypeThreeDays, 9, true},
		{4, "", 0, false},
		{-1, "", 0, false},
	}

	for _, tc := range cases {
		gotType, gotHour, ok := reminderWindow(tc.daysUntil)
		assert.Equal(t, tc.wantOK, ok, "daysUntil=%d", tc.daysUntil)
		assert.Equal(t, tc.wantType, gotType, "daysUntil=%d", tc.daysUntil)
		assert.Equal(t, tc.wantHour, gotHour, "daysUntil=%d", tc.daysUntil)
	}
}

func TestSameDayReminderFiresOnlyAtEight(t *testing.T) {
	appts := &fakeAppointmentRepo{}
	logs := newFakeReminderLogRepo()
	notifier := &fakeNotifier{}
	task := newAppointmentTask(appts, logs, notifier)

	appt := appts.add(at(14, 0))

	for hour := 0; hour < 24; hour++ {
		require.NoError(t, task.RunReminders(context.Background(), at(hour, 5)))
	}

	require.Len(t, notifier.dispatches, 1, "exactly one send across the whole day")
	n := notifier.dispatches[0]
	assert.Equal(t, appt.UserID, n.RecipientID)
	assert.Equal(t, model.NotificationTypeAppointmentRemind, n.Type)
	assert.Contains(t, n.Message, "today")
}

func TestNextDayReminderExactlyOncePerDay(t *testing.T) {
	appts := &fakeAppointmentRepo{}
	logs := newFakeReminderLogRepo()
	notifier := &fakeNotifier{}
	task := newAppointmentTask(appts, logs, notifier)

	appts.add(at(10, 30).AddDate(0, 0, 1))

	for hour := 0; hour < 24; hour++ {
		require.NoError(t, task.RunReminders(context.Background(), at(hour, 0)))
	}
	// A second run within the 18:00 hour; the ledger claim must dedupe.
	require.NoError(t, task.RunReminders(context.Background(), at(18, 30)))

	require.Len(t, notifier.dispatches, 1, "exactly one send across the whole day")
	assert.Contains(t, notifier.dispatches[0].Message, "tomorrow")
}

func TestThreeDayReminderFiresAtNine(t *testing.T) {
	appts := &fakeAppointmentRepo{}
	logs := newFakeReminderLogRepo()
	notifier := &fakeNotifier{}
	task := newAppointmentTask(appts, logs, notifier)

	appts.add(at(11, 0).AddDate(0, 0, 3))

	for hour := 0; hour < 24; hour++ {
		require.NoError(t, task.RunReminders(context.Background(), at(hour, 0)))
	}
	require.Len(t, notifier.dispatches, 1, "exactly one send across the whole day")

	// A two-days-out appointment has no window at all.
	notifier.dispatches = nil
	appts.appts = nil
	appts.add(at(11, 0).AddDate(0, 0, 2))
	for hour := 0; hour < 24; hour++ {
		require.NoError(t, task.RunReminders(context.Background(), at(hour, 0)))
	}
	assert.Empty(t, notifier.dispatches)
}

func TestRemindersForDistinctAppointmentsAreIndependent(t *testing.T) {
	appts := &fakeAppointmentRepo{}
	logs := newFakeReminderLogRepo()
	notifier := &fakeNotifier{}
	task := newAppointmentTask(appts, logs, notifier)

	first := appts.add(at(13, 0))
	second := appts.add(at(16, 0))

	require.NoError(t, task.RunReminders(context.Background(), at(8, 0)))

	require.Len(t, notifier.dispatches, 2)
	recipients := []interface{}{notifier.dispatches[0].RecipientID, notifier.dispatches[1].RecipientID}
	assert.Contains(t, recipients, first.UserID)
	assert.Contains(t, recipients, second.UserID)
}

func TestOverdueSweepMarksMissedAndNotifies(t *testing.T) {
	appts := &fakeAppointmentRepo{}
	logs := newFakeReminderLogRepo()
	notifier := &fakeNotifier{}
	task := newAppointmentTask(appts, logs, notifier)

	appt := appts.add(at(9, 0))

	require.NoError(t, task.RunOverdueSweep(context.Background(), at(11, 0)))

	assert.Equal(t, model.AppointmentStatusMissed, appt.Status)
	require.Len(t, notifier.dispatches, 1)
	n := notifier.dispatches[0]
	assert.Equal(t, model.NotificationTypeMissedAppointment, n.Type)
	assert.Equal(t, model.NotificationPriorityHigh, n.Priority)
}

func TestOverdueSweepIsIdempotent(t *testing.T) {
	appts := &fakeAppointmentRepo{}
	logs := newFakeReminderLogRepo()
	notifier := &fakeNotifier{}
	task := newAppointmentTask(appts, logs, notifier)

	appts.add(at(9, 0))

	require.NoError(t, task.RunOverdueSweep(context.Background(), at(11, 0)))
	require.NoError(t, task.RunOverdueSweep(context.Background(), at(12, 0)))

	assert.Len(t, notifier.dispatches, 1)
}

func TestOverdueSweepIgnoresAncientAppointments(t *testing.T) {
	appts := &fakeAppointmentRepo{}
	logs := newFakeReminderLogRepo()
	notifier := &fakeNotifier{}
	task := newAppointmentTask(appts, logs, notifier)

	appt := appts.add(at(9, 0).AddDate(0, 0, -3))

	require.NoError(t, task.RunOverdueSweep(context.Background(), at(11, 0)))

	assert.Equal(t, model.AppointmentStatusScheduled, appt.Status, "outside the sweep window, left alone")
	assert.Empty(t, notifier.dispatches)
}

func TestOverdueSweepLeavesFutureAppointments(t *testing.T) {
	appts := &fakeAppointmentRepo{}
	logs := newFakeReminderLogRepo()
	notifier := &fakeNotifier{}
	task := newAppointmentTask(appts, logs, notifier)

	appt := appts.add(at(15, 0))

	require.NoError(t, task.RunOverdueSweep(context.Background(), at(11, 0)))

	assert.Equal(t, model.AppointmentStatusScheduled, appt.Status)
	assert.Empty(t, notifier.dispatches)
}
