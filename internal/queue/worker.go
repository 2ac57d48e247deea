package queue

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/Hakote/Hakote/internal/engine"
	"github.com/Hakote/Hakote/internal/lock"
	"github.com/Hakote/Hakote/internal/model"
)

// ErrRunInProgress is returned when another worker holds the run lock
var ErrRunInProgress = errors.New("another daily send is in progress")

// Runner performs the daily send
type Runner interface {
	Run(ctx context.Context, opts engine.RunOptions) (*engine.Result, error)
}

// Observer is told how each processed job ended
type Observer interface {
	ObserveJob(status string)
}

// ProcessResult describes one ProcessNext call
type ProcessResult struct {
	JobID     string         `json:"jobId,omitempty"`
	Processed bool           `json:"processed"`
	Result    *engine.Result `json:"result,omitempty"`
	Retried   bool           `json:"retried,omitempty"`
}

// JobError carries the id of the job whose run failed
type JobError struct {
	JobID string
	Err   error
}

func (e *JobError) Error() string { return fmt.Sprintf("job %s failed: %v", e.JobID, e.Err) }
func (e *JobError) Unwrap() error { return e.Err }

// Worker claims pending jobs and runs the daily send for each
type Worker struct {
	store    Store
	runner   Runner
	locks    lock.Factory
	observer Observer
	override string
	logger   *logrus.Logger
}

// WorkerOption configures a Worker
type WorkerOption func(*Worker)

// WithObserver reports job outcomes to o
func WithObserver(o Observer) WorkerOption {
	return func(w *Worker) { w.observer = o }
}

// WithClockOverride pins the date each job runs for
func WithClockOverride(override string) WorkerOption {
	return func(w *Worker) { w.override = override }
}

// WithLogger sets the logger handed to each run
func WithLogger(l *logrus.Logger) WorkerOption {
	return func(w *Worker) { w.logger = l }
}

// NewWorker creates a worker. A nil factory means no locking across workers.
func NewWorker(store Store, runner Runner, locks lock.Factory, opts ...WorkerOption) *Worker {
	w := &Worker{
		store:  store,
		runner: runner,
		locks:  locks,
		logger: logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.locks == nil {
		w.locks = lock.LocalFactory()
	}
	return w
}

// ProcessNext handles the oldest pending job, if any. A failed run marks
// the job failed and re-queues it while it has retries left; the run error
// is returned as a *JobError.
func (w *Worker) ProcessNext(ctx context.Context) (*ProcessResult, error) {
	job, err := w.store.NextPending(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch pending job: %w", err)
	}
	if job == nil {
		return &ProcessResult{}, nil
	}

	l := w.locks()
	acquired, err := l.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire run lock: %w", err)
	}
	if !acquired {
		return nil, ErrRunInProgress
	}
	defer func() {
		if err := l.Release(context.WithoutCancel(ctx)); err != nil {
			logrus.WithError(err).Warn("Failed to release run lock")
		}
	}()

	claimed, err := w.store.Claim(ctx, job.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to claim job %s: %w", job.ID, err)
	}
	if !claimed {
		logrus.WithField("job_id", job.ID).Info("Job already claimed by another worker")
		return &ProcessResult{JobID: job.ID}, nil
	}

	logrus.WithField("job_id", job.ID).Info("Processing job")
	result, runErr := w.runner.Run(ctx, engine.RunOptions{
		Logger:        engine.NewProductionLogger(w.logger),
		ClockOverride: w.override,
	})
	if runErr == nil {
		if err := w.store.Complete(context.WithoutCancel(ctx), job.ID); err != nil {
			logrus.WithError(err).WithField("job_id", job.ID).Error("Failed to mark job completed")
		}
		w.observe(model.JobCompleted)
		logrus.WithField("job_id", job.ID).Info("Job completed")
		return &ProcessResult{JobID: job.ID, Processed: true, Result: result}, nil
	}

	return w.failJob(ctx, job, runErr)
}

func (w *Worker) failJob(ctx context.Context, job *model.CronJob, runErr error) (*ProcessResult, error) {
	ctx = context.WithoutCancel(ctx)
	entry := logrus.WithError(runErr).WithField("job_id", job.ID)
	entry.Error("Job failed")

	if err := w.store.Fail(ctx, job.ID, runErr.Error()); err != nil {
		entry.WithField("cause", err).Error("Failed to mark job failed")
	}
	w.observe(model.JobFailed)

	res := &ProcessResult{JobID: job.ID, Processed: true}
	if job.RetryCount < job.MaxRetries {
		retried, err := w.store.Retry(ctx, job.ID)
		if err != nil {
			entry.WithField("cause", err).Error("Failed to re-queue job")
		}
		res.Retried = retried
		if retried {
			entry.Infof("Job re-queued (retry %d/%d)", job.RetryCount+1, job.MaxRetries)
		}
	}
	return res, &JobError{JobID: job.ID, Err: runErr}
}

func (w *Worker) observe(status string) {
	if w.observer != nil {
		w.observer.ObserveJob(status)
	}
}
