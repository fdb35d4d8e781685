// Package scheduler provides unified scheduler management using gocron v2.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"allocmgr/internal/infrastructure/cache"
	"allocmgr/internal/shared/biztime"
	"allocmgr/internal/shared/config"
	"allocmgr/internal/shared/logger"
)

// Job is a scheduled maintenance job. Execute processes one full run.
type Job interface {
	Execute(ctx context.Context) error
}

// JobFunc adapts a function to the Job interface.
type JobFunc func(ctx context.Context) error

func (f JobFunc) Execute(ctx context.Context) error { return f(ctx) }

// SchedulerManager manages all scheduled jobs using gocron v2. Every job runs
// in singleton mode within the process, and a Redis job lock keeps multiple
// worker replicas from running the same job concurrently.
type SchedulerManager struct {
	scheduler gocron.Scheduler
	lock      *cache.JobLock
	worker    *config.WorkerConfig
	logger    logger.Interface

	// Track whether the scheduler has been started
	started   bool
	startedMu sync.RWMutex
}

// NewSchedulerManager creates a new SchedulerManager instance.
// It initializes gocron with the business timezone for cron expressions.
// lock may be nil when running a single replica without Redis.
func NewSchedulerManager(lock *cache.JobLock, worker *config.WorkerConfig, log logger.Interface) (*SchedulerManager, error) {
	scheduler, err := gocron.NewScheduler(
		gocron.WithLocation(biztime.Location()),
	)
	if err != nil {
		return nil, err
	}

	return &SchedulerManager{
		scheduler: scheduler,
		lock:      lock,
		worker:    worker,
		logger:    log,
	}, nil
}

// RegisterMaintenanceJobs registers the allocation maintenance jobs:
// - Membership reconciliation against the directory
// - Lifecycle transitions (expire, remove, delete)
// - Expiry notification emails
// - Pruning of expired membership rows
//
// Intervals come from the worker configuration, in hours.
func (m *SchedulerManager) RegisterMaintenanceJobs(
	reconcileJob Job,
	lifecycleJob Job,
	notifyJob Job,
	pruneJob Job,
) error {
	jobs := []struct {
		name     string
		interval int
		timeout  time.Duration
		job      Job
	}{
		{"membership-reconcile", m.worker.ReconcileIntervalHours, 30 * time.Minute, reconcileJob},
		{"lifecycle-transition", m.worker.LifecycleIntervalHours, 30 * time.Minute, lifecycleJob},
		{"expiry-notify", m.worker.NotifyIntervalHours, 10 * time.Minute, notifyJob},
		{"membership-prune", m.worker.PruneIntervalHours, 5 * time.Minute, pruneJob},
	}

	for _, j := range jobs {
		j := j
		if j.job == nil {
			continue
		}
		if j.interval <= 0 {
			j.interval = 24
		}

		_, err := m.scheduler.NewJob(
			gocron.DurationJob(time.Duration(j.interval)*time.Hour),
			gocron.NewTask(func() {
				ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
				defer cancel()
				m.runLocked(ctx, j.name, j.timeout, j.job)
			}),
			gocron.WithStartAt(gocron.WithStartImmediately()),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
			gocron.WithTags("allocation", j.name),
			gocron.WithName(j.name),
		)
		if err != nil {
			return err
		}

		m.logger.Infow("registered maintenance job",
			"job", j.name,
			"interval_hours", j.interval,
		)
	}

	return nil
}

// runLocked executes the job under the distributed lock. When the lock is
// held by another replica the run is skipped; the holder's run covers it.
func (m *SchedulerManager) runLocked(ctx context.Context, name string, ttl time.Duration, job Job) {
	if m.lock != nil {
		acquired, err := m.lock.TryAcquire(ctx, name, ttl)
		if err != nil {
			m.logger.Errorw("failed to acquire job lock", "job", name, "error", err)
			return
		}
		if !acquired {
			m.logger.Debugw("job lock held elsewhere, skipping run", "job", name)
			return
		}
		defer func() {
			if err := m.lock.Release(context.WithoutCancel(ctx), name); err != nil {
				m.logger.Errorw("failed to release job lock", "job", name, "error", err)
			}
		}()
	}

	m.logger.Debugw("scheduled job started", "job", name)
	startTime := biztime.NowUTC()

	if err := job.Execute(ctx); err != nil {
		// Don't log error if context was cancelled (graceful shutdown)
		if ctx.Err() != nil {
			return
		}
		m.logger.Errorw("scheduled job failed",
			"job", name,
			"error", err,
			"duration", time.Since(startTime),
		)
		return
	}

	m.logger.Infow("scheduled job completed",
		"job", name,
		"duration", time.Since(startTime),
	)
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
