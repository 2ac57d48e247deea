package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// JobTypeSendDailyEmail is the only job type the worker knows
const JobTypeSendDailyEmail = "send-daily-email"

// Job statuses
const (
	JobPending    = "pending"
	JobProcessing = "processing"
	JobCompleted  = "completed"
	JobFailed     = "failed"
)

// CronJob is a queued invocation of the daily send
type CronJob struct {
	ID           string     `json:"id" gorm:"type:varchar(36);primaryKey"`
	Type         string     `json:"type" gorm:"type:varchar(64);not null;index:idx_type_status"`
	Status       string     `json:"status" gorm:"type:varchar(16);not null;index:idx_type_status"`
	CreatedAt    time.Time  `json:"created_at"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	ErrorMessage *string    `json:"error_message,omitempty" gorm:"type:text"`
	RetryCount   int        `json:"retry_count" gorm:"not null;default:0"`
	MaxRetries   int        `json:"max_retries" gorm:"not null;default:3"`
}

// TableName specifies the table name for CronJob
func (CronJob) TableName() string {
	return "cron_jobs"
}

// BeforeCreate assigns the job id
func (j *CronJob) BeforeCreate(tx *gorm.DB) error {
	if j.ID == "" {
		j.ID = uuid.NewString()
	}
	return nil
}
