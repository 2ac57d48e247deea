// Package queue holds the cron_jobs job queue and the worker that drains it.
package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"github.com/Hakote/Hakote/internal/model"
)

// DefaultMaxRetries is how often a failed job is put back to pending
const DefaultMaxRetries = 3

// Store persists jobs of type send-daily-email
type Store interface {
	// Insert adds a pending job
	Insert(ctx context.Context, job *model.CronJob) error
	// NextPending returns the oldest pending job, or nil when there is none
	NextPending(ctx context.Context) (*model.CronJob, error)
	// Claim moves a pending job to processing. False means another worker
	// got there first.
	Claim(ctx context.Context, id string) (bool, error)
	Complete(ctx context.Context, id string) error
	Fail(ctx context.Context, id, message string) error
	// Retry puts a failed job back to pending if it has attempts left
	Retry(ctx context.Context, id string) (bool, error)
}

// EnqueuePolicy bounds insert attempts; waits double from InitialInterval
type EnqueuePolicy struct {
	MaxAttempts     int
	InitialInterval time.Duration
}

// DefaultEnqueuePolicy tries three times, waiting 1s then 2s
func DefaultEnqueuePolicy() EnqueuePolicy {
	return EnqueuePolicy{MaxAttempts: 3, InitialInterval: time.Second}
}

// Enqueue adds a send-daily-email job, retrying the insert with backoff
func Enqueue(ctx context.Context, store Store, maxRetries int, policy EnqueuePolicy) (*model.CronJob, error) {
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = 1
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = policy.InitialInterval
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0

	var job *model.CronJob
	attempt := 0
	op := func() error {
		attempt++
		job = &model.CronJob{
			Type:       model.JobTypeSendDailyEmail,
			Status:     model.JobPending,
			MaxRetries: maxRetries,
		}
		return store.Insert(ctx, job)
	}
	notify := func(err error, wait time.Duration) {
		logrus.Warnf("Failed to enqueue job (attempt %d/%d), retrying in %s: %v", attempt, policy.MaxAttempts, wait, err)
	}

	err := backoff.RetryNotify(op, backoff.WithContext(backoff.WithMaxRetries(b, uint64(policy.MaxAttempts-1)), ctx), notify)
	if err != nil {
		return nil, fmt.Errorf("failed to enqueue job after %d attempts: %w", attempt, err)
	}
	return job, nil
}
