package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/Hakote/Hakote/internal/model"
	"github.com/Hakote/Hakote/internal/queue"
)

// Jobs is the cron_jobs queue
type Jobs struct {
	db  *gorm.DB
	now func() time.Time
}

func NewJobs(db *gorm.DB) *Jobs {
	return &Jobs{db: db, now: time.Now}
}

func (j *Jobs) Insert(ctx context.Context, job *model.CronJob) error {
	if err := j.db.WithContext(ctx).Create(job).Error; err != nil {
		return fmt.Errorf("failed to insert job: %w", err)
	}
	return nil
}

func (j *Jobs) NextPending(ctx context.Context) (*model.CronJob, error) {
	var job model.CronJob
	err := j.db.WithContext(ctx).
		Where("type = ? AND status = ?", model.JobTypeSendDailyEmail, model.JobPending).
		Order("created_at").
		First(&job).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get next pending job: %w", err)
	}
	return &job, nil
}

// Claim flips a pending job to processing. Only one caller can win.
func (j *Jobs) Claim(ctx context.Context, id string) (bool, error) {
	result := j.db.WithContext(ctx).
		Model(&model.CronJob{}).
		Where("id = ? AND status = ?", id, model.JobPending).
		Updates(map[string]interface{}{
			"status":     model.JobProcessing,
			"started_at": j.now(),
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to claim job %s: %w", id, result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (j *Jobs) Complete(ctx context.Context, id string) error {
	err := j.db.WithContext(ctx).
		Model(&model.CronJob{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":       model.JobCompleted,
			"completed_at": j.now(),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to complete job %s: %w", id, err)
	}
	return nil
}

func (j *Jobs) Fail(ctx context.Context, id, message string) error {
	err := j.db.WithContext(ctx).
		Model(&model.CronJob{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":        model.JobFailed,
			"completed_at":  j.now(),
			"error_message": message,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to fail job %s: %w", id, err)
	}
	return nil
}

// Retry re-queues a job while retry_count is below max_retries
func (j *Jobs) Retry(ctx context.Context, id string) (bool, error) {
	result := j.db.WithContext(ctx).
		Model(&model.CronJob{}).
		Where("id = ? AND retry_count < max_retries", id).
		Updates(map[string]interface{}{
			"status":        model.JobPending,
			"retry_count":   gorm.Expr("retry_count + 1"),
			"error_message": nil,
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to retry job %s: %w", id, result.Error)
	}
	return result.RowsAffected == 1, nil
}

var _ queue.Store = (*Jobs)(nil)
