package model

import "time"

// SubscriptionProgress is the per-subscription cursor into its problem list.
// CurrentProblemIndex is the index of the next problem to send.
type SubscriptionProgress struct {
	ID                  uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	SubscriptionID      string    `json:"subscription_id" gorm:"type:varchar(36);not null;uniqueIndex"`
	CurrentProblemIndex int       `json:"current_problem_index" gorm:"not null;default:0"`
	TotalProblemsSent   int       `json:"total_problems_sent" gorm:"not null;default:0"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// TableName specifies the table name for SubscriptionProgress
func (SubscriptionProgress) TableName() string {
	return "subscription_progress"
}
