package model

import "time"

// Delivery statuses
const (
	DeliveryQueued = "queued"
	DeliverySent   = "sent"
	DeliveryFailed = "failed"
)

// Delivery records the send attempt for one subscription on one calendar day
type Delivery struct {
	ID             uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	SubscriberID   string    `json:"subscriber_id" gorm:"type:varchar(36);not null;index"`
	SubscriptionID string    `json:"subscription_id" gorm:"type:varchar(36);not null;uniqueIndex:idx_subscription_day"`
	ProblemListID  string    `json:"problem_list_id" gorm:"type:varchar(36);not null"`
	SendDate       string    `json:"send_date" gorm:"type:char(10);not null;uniqueIndex:idx_subscription_day;index"`
	ProblemID      string    `json:"problem_id" gorm:"type:varchar(36);not null"`
	Status         string    `json:"status" gorm:"type:varchar(16);not null"` // queued, sent, failed
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TableName specifies the table name for Delivery
func (Delivery) TableName() string {
	return "deliveries"
}
