package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Subscription binds a subscriber to one problem list at a weekly frequency.
// The (subscriber_id, problem_list_id) pair is unique; unsubscribing flips
// IsActive instead of deleting so progress is kept for a later resubscribe.
type Subscription struct {
	ID                 string     `json:"id" gorm:"type:varchar(36);primaryKey"`
	SubscriberID       string     `json:"subscriber_id" gorm:"type:varchar(36);not null;uniqueIndex:idx_subscriber_list"`
	ProblemListID      string     `json:"problem_list_id" gorm:"type:varchar(36);not null;uniqueIndex:idx_subscriber_list"`
	Frequency          string     `json:"frequency" gorm:"type:varchar(8);not null"`
	IsActive           bool       `json:"is_active" gorm:"not null;default:true;index"`
	ResubscribeCount   int        `json:"resubscribe_count" gorm:"not null;default:0"`
	LastResubscribedAt *time.Time `json:"last_resubscribed_at"`
	LastUnsubscribedAt *time.Time `json:"last_unsubscribed_at"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`

	// Relationships
	Subscriber  *Subscriber  `json:"subscriber,omitempty" gorm:"foreignKey:SubscriberID"`
	ProblemList *ProblemList `json:"problem_list,omitempty" gorm:"foreignKey:ProblemListID"`
}

// TableName specifies the table name for Subscription
func (Subscription) TableName() string {
	return "subscriptions"
}

// BeforeCreate assigns the subscription id
func (s *Subscription) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}
