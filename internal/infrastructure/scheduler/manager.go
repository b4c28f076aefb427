// Package scheduler provides unified scheduler management using gocron v2.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/sunstrike-inc/sunstrike/internal/shared/logger"
)

// BatchJob defines the interface for a scheduled batch processing job.
// Each Execute call processes a batch and returns the number of items processed.
type BatchJob interface {
	Execute(ctx context.Context) (int, error)
}

// SchedulerManager manages all scheduled jobs using gocron v2.
type SchedulerManager struct {
	scheduler gocron.Scheduler
	logger    logger.Interface

	started   bool
	startedMu sync.RWMutex
}

// NewSchedulerManager creates a new SchedulerManager instance.
func NewSchedulerManager(log logger.Interface) (*SchedulerManager, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	return &SchedulerManager{
		scheduler: scheduler,
		logger:    log,
	}, nil
}

// RegisterReconcileJob registers the reconciliation cycle. Singleton mode
// guarantees at most one run is in flight; a tick that fires while the
// previous run is still converging is rescheduled, not queued up.
func (m *SchedulerManager) RegisterReconcileJob(job BatchJob, interval time.Duration) error {
	_, err := m.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), interval*4)
			defer cancel()
			m.runReconcile(ctx, job)
		}),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithTags("subscription", "reconcile"),
		gocron.WithName("subscription-reconciler"),
	)
	if err != nil {
		return err
	}

	m.logger.Infow("registered reconcile job", "interval", interval.String())
	return nil
}

func (m *SchedulerManager) runReconcile(ctx context.Context, job BatchJob) {
	m.logger.Debugw("reconcile cycle started")

	startTime := time.Now()

	processed, err := job.Execute(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		m.logger.Errorw("reconcile cycle failed",
			"error", err,
			"duration", time.Since(startTime),
		)
		return
	}

	if processed > 0 {
		m.logger.Infow("reconcile cycle completed",
			"processed", processed,
			"duration", time.Since(startTime),
		)
	} else {
		m.logger.Debugw("reconcile cycle completed, nothing to do",
			"duration", time.Since(startTime),
		)
	}
}

// RegisterMaintenanceJob registers the daily config hygiene pass that strips
// duplicate client entries left behind by manual edits.
func (m *SchedulerManager) RegisterMaintenanceJob(job BatchJob) error {
	_, err := m.scheduler.NewJob(
		gocron.DurationJob(24*time.Hour),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
			defer cancel()
			m.runMaintenance(ctx, job)
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithTags("proxy", "maintenance"),
		gocron.WithName("proxy-maintenance"),
	)
	if err != nil {
		return err
	}

	m.logger.Infow("registered maintenance job", "interval", "24h")
	return nil
}

func (m *SchedulerManager) runMaintenance(ctx context.Context, job BatchJob) {
	cleaned, err := job.Execute(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		m.logger.Errorw("maintenance run failed", "error", err)
		return
	}

	if cleaned > 0 {
		m.logger.Infow("maintenance run completed", "cleaned", cleaned)
	}
}

// Start starts the scheduler and all registered jobs.
func (m *SchedulerManager) Start() {
	m.startedMu.Lock()
	defer m.startedMu.Unlock()

	if m.started {
		return
	}

	m.scheduler.Start()
	m.started = true
	m.logger.Infow("scheduler manager started", "job_count", len(m.scheduler.Jobs()))
}

// Stop gracefully stops the scheduler.
// It waits for all running jobs to complete before returning.
func (m *SchedulerManager) Stop() error {
	m.startedMu.Lock()
	defer m.startedMu.Unlock()

	if !m.started {
		return nil
	}

	m.logger.Infow("stopping scheduler manager")

	err := m.scheduler.Shutdown()
	m.started = false

	if err != nil {
		m.logger.Errorw("scheduler manager shutdown with error", "error", err)
		return err
	}

	m.logger.Infow("scheduler manager stopped")
	return nil
}

// IsStarted returns whether the scheduler is running.
func (m *SchedulerManager) IsStarted() bool {
	m.startedMu.RLock()
	defer m.startedMu.RUnlock()
	return m.started
}

// Jobs returns all registered jobs for inspection.
func (m *SchedulerManager) Jobs() []gocron.Job {
	return m.scheduler.Jobs()
}
