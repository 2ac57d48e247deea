package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Subscriber is a person receiving problems. Rows are never hard-deleted so
// resubscribe history survives.
type Subscriber struct {
	ID                 string     `json:"id" gorm:"type:varchar(36);primaryKey"`
	Email              string     `json:"email" gorm:"type:varchar(255);not null;uniqueIndex"`
	Frequency          string     `json:"frequency" gorm:"type:varchar(8);not null"`
	IsActive           bool       `json:"is_active" gorm:"not null;default:true;index"`
	UnsubscribeToken   string     `json:"-" gorm:"type:varchar(36);not null;uniqueIndex"`
	ResubscribeCount   int        `json:"resubscribe_count" gorm:"not null;default:0"`
	LastResubscribedAt *time.Time `json:"last_resubscribed_at"`
	LastUnsubscribedAt *time.Time `json:"last_unsubscribed_at"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// TableName specifies the table name for Subscriber
func (Subscriber) TableName() string {
	return "subscribers"
}

// BeforeCreate assigns identifiers that the database does not generate.
func (s *Subscriber) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.UnsubscribeToken == "" {
		s.UnsubscribeToken = uuid.NewString()
	}
	return nil
}
