package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/oculomed/glauco-api/pkg/logger"
	"github.com/oculomed/glauco-api/pkg/metrics"
)

// Config holds the cadences of the four periodic tasks. Zero values
// fall back to the production defaults.
type Config struct {
	Timezone         string        `yaml:"timezone" mapstructure:"timezone"`
	UpcomingInterval time.Duration `yaml:"upcoming_interval" mapstructure:"upcoming_interval"`
	MissedInterval   time.Duration `yaml:"missed_interval" mapstructure:"missed_interval"`
	ReminderInterval time.Duration `yaml:"reminder_interval" mapstructure:"reminder_interval"`
	OverdueInterval  time.Duration `yaml:"overdue_interval" mapstructure:"overdue_interval"`
	MissedGrace      time.Duration `yaml:"missed_grace" mapstructure:"missed_grace"`
	OverdueWindow    time.Duration `yaml:"overdue_window" mapstructure:"overdue_window"`
}

func (c *Config) applyDefaults() {
	if c.Timezone == "" {
		c.Timezone = "Asia/Bangkok"
	}
	if c.UpcomingInterval <= 0 {
		c.UpcomingInterval = time.Minute
	}
	if c.MissedInterval <= 0 {
		c.MissedInterval = 15 * time.Minute
	}
	if c.ReminderInterval <= 0 {
		c.ReminderInterval = time.Hour
	}
	if c.OverdueInterval <= 0 {
		c.OverdueInterval = 6 * time.Hour
	}
	if c.MissedGrace <= 0 {
		c.MissedGrace = 15 * time.Minute
	}
	if c.OverdueWindow <= 0 {
		c.OverdueWindow = 24 * time.Hour
	}
}

// Scheduler owns the background sweeps as an explicit service with a
// start/stop lifecycle. Tasks run to completion on every tick; failures
// are logged and retried implicitly on the next tick. Runs of different
// tasks are not mutually exclusive; each task's writes are individually
// guarded (status guards, ledger claims) instead.
type Scheduler struct {
	cfg         Config
	clock       Clock
	medication  *MedicationTask
	appointment *AppointmentTask
	logger      *logger.Logger
	metrics     *metrics.Metrics

	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex
}

func New(
	cfg Config,
	clock Clock,
	medication *MedicationTask,
	appointment *AppointmentTask,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) *Scheduler {
	cfg.applyDefaults()
	return &Scheduler{
		cfg:         cfg,
		clock:       clock,
		medication:  medication,
		appointment: appointment,
		logger:      logger.WithComponent("scheduler"),
		metrics:     metrics,
	}
}

// Start launches the periodic tasks. It returns immediately; sweeps run
// until Stop is called or ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}

	ctx, s.cancel = context.WithCancel(ctx)

	s.runLoop(ctx, "medication_upcoming", s.cfg.UpcomingInterval, s.medication.RunUpcoming)
	s.runLoop(ctx, "medication_missed", s.cfg.MissedInterval, s.medication.RunMissed)
	s.runLoop(ctx, "appointment_reminder", s.cfg.ReminderInterval, s.appointment.RunReminders)
	s.runLoop(ctx, "appointment_overdue", s.cfg.OverdueInterval, s.appointment.RunOverdueSweep)

	s.logger.Info("scheduler started", "timezone", s.cfg.Timezone)
}

// Stop cancels the loops and waits for in-flight sweeps to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	s.wg.Wait()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) runLoop(ctx context.Context, name string, interval time.Duration, run func(context.Context, time.Time) error) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.runOnce(ctx, name, run)
			}
		}
	}()
}

func (s *Scheduler) runOnce(ctx context.Context, name string, run func(context.Context, time.Time) error) {
	timer := prometheus.NewTimer(s.metrics.SweepDuration.WithLabelValues(name))
	defer timer.ObserveDuration()

	if err := run(ctx, s.clock.Now()); err != nil {
		s.logger.Error(err, "sweep failed", "task", name)
	}
}
