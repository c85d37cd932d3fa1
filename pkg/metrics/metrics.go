package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics
type Metrics struct {
	// Scheduler metrics
	RemindersFired          *prometheus.CounterVec
	RemindersMarkedMissed   *prometheus.CounterVec
	AppointmentsSweptMissed prometheus.Counter
	SweepDuration           *prometheus.HistogramVec
	SweepErrors             *prometheus.CounterVec

	// Push delivery metrics
	PushSent                 prometheus.Counter
	PushFailed               prometheus.Counter
	SubscriptionsDeactivated prometheus.Counter
}

// NewMetrics creates and registers all application metrics
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		RemindersFired: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminders_fired_total",
			Help:      "Total reminders fired, by kind",
		}, []string{"kind"}),
		RemindersMarkedMissed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminders_marked_missed_total",
			Help:      "Total reminders transitioned to missed, by kind",
		}, []string{"kind"}),
		AppointmentsSweptMissed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "appointments_swept_missed_total",
			Help:      "Total appointments moved to missed by the overdue sweep",
		}),
		SweepDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sweep_duration_seconds",
			Help:      "Duration of scheduler sweeps, by task",
			Buckets:   prometheus.DefBuckets,
		}, []string{"task"}),
		SweepErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sweep_errors_total",
			Help:      "Per-candidate errors during scheduler sweeps, by task",
		}, []string{"task"}),
		PushSent: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "push_sent_total",
			Help:      "Total successful web push deliveries",
		}),
		PushFailed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "push_failed_total",
			Help:      "Total failed web push deliveries",
		}),
		SubscriptionsDeactivated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "push_subscriptions_deactivated_total",
			Help:      "Total subscriptions deactivated after permanent delivery failure",
		}),
	}
}
