package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/Hakote/Hakote/internal/config"
	"github.com/Hakote/Hakote/internal/model"
	"github.com/Hakote/Hakote/internal/queue"
)

// Processor drains the job queue
type Processor interface {
	ProcessNext(ctx context.Context) (*queue.ProcessResult, error)
}

// EnqueueFunc adds a daily send job
type EnqueueFunc func(ctx context.Context) (*model.CronJob, error)

// QueueEnqueuer enqueues into store with the configured retry budget
func QueueEnqueuer(store queue.Store, maxRetries int, onEnqueued func()) EnqueueFunc {
	return func(ctx context.Context) (*model.CronJob, error) {
		job, err := queue.Enqueue(ctx, store, maxRetries, queue.DefaultEnqueuePolicy())
		if err == nil && onEnqueued != nil {
			onEnqueued()
		}
		return job, err
	}
}

// Scheduler enqueues the daily send on a cron schedule and polls the worker
type Scheduler struct {
	cron      *cron.Cron
	enqueueID cron.EntryID
	pollID    cron.EntryID
	config    config.SchedulerConfig
	location  *time.Location
	enqueue   EnqueueFunc
	worker    Processor
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	isRunning bool
	mu        sync.RWMutex
}

// New creates a new scheduler. Schedules are evaluated in loc.
func New(cfg config.SchedulerConfig, loc *time.Location, enqueue EnqueueFunc, worker Processor) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	return &Scheduler{
		config:   cfg,
		location: loc,
		enqueue:  enqueue,
		worker:   worker,
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("scheduler is already running")
	}
	if s.config.PollIntervalMinutes <= 0 {
		return fmt.Errorf("poll interval must be greater than 0")
	}

	c := cron.New(cron.WithSeconds(), cron.WithLocation(s.location))

	enqueueID, err := c.AddFunc(s.config.EnqueueSpec, s.enqueueJob)
	if err != nil {
		return fmt.Errorf("failed to add enqueue job: %w", err)
	}
	pollSpec := fmt.Sprintf("0 */%d * * * *", s.config.PollIntervalMinutes)
	pollID, err := c.AddFunc(pollSpec, s.processJobs)
	if err != nil {
		return fmt.Errorf("failed to add worker poll: %w", err)
	}

	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.cron = c
	s.enqueueID = enqueueID
	s.pollID = pollID
	c.Start()
	s.isRunning = true

	logrus.Infof("Scheduler started: enqueue %q, worker poll every %d minutes", s.config.EnqueueSpec, s.config.PollIntervalMinutes)
	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return nil
	}

	s.cancel()

	ctx := s.cron.Stop()

	select {
	case <-ctx.Done():
		logrus.Info("Scheduler stopped gracefully")
	case <-time.After(30 * time.Second):
		logrus.Warn("Scheduler stop timeout, forcing shutdown")
	}

	s.isRunning = false
	return nil
}

// IsRunning returns whether the scheduler is running
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// RunOnce enqueues a job and processes it right away
func (s *Scheduler) RunOnce(ctx context.Context) (*queue.ProcessResult, error) {
	logrus.Info("Running daily send once")
	s.wg.Add(1)
	defer s.wg.Done()

	if _, err := s.enqueue(ctx); err != nil {
		return nil, err
	}
	return s.worker.ProcessNext(ctx)
}

// GetNextRun returns the time of the next scheduled enqueue
func (s *Scheduler) GetNextRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.isRunning {
		return time.Time{}
	}
	return s.cron.Entry(s.enqueueID).Next
}

// GetLastRun returns the time of the last scheduled enqueue
func (s *Scheduler) GetLastRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.isRunning {
		return time.Time{}
	}
	return s.cron.Entry(s.enqueueID).Prev
}

// Wait waits for in-flight runs to finish
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) runContext() (context.Context, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.isRunning {
		return nil, false
	}
	return s.ctx, true
}

func (s *Scheduler) enqueueJob() {
	s.wg.Add(1)
	defer s.wg.Done()

	ctx, ok := s.runContext()
	if !ok {
		logrus.Info("Scheduler not running, skipping enqueue")
		return
	}

	job, err := s.enqueue(ctx)
	if err != nil {
		logrus.Errorf("Failed to enqueue daily send: %v", err)
		return
	}
	logrus.WithField("job_id", job.ID).Info("Daily send enqueued")
}

func (s *Scheduler) processJobs() {
	s.wg.Add(1)
	defer s.wg.Done()

	ctx, ok := s.runContext()
	if !ok {
		return
	}

	res, err := s.worker.ProcessNext(ctx)
	switch {
	case errors.Is(err, queue.ErrRunInProgress):
		logrus.Info("Daily send already in progress, skipping poll")
	case err != nil:
		logrus.Errorf("Worker poll failed: %v", err)
	case res.Processed:
		logrus.WithField("job_id", res.JobID).Info("Worker poll processed a job")
	default:
		logrus.Debug("No pending jobs")
	}
}
