package model

import "time"

// ProblemList is a named, independently activatable collection of problems
type ProblemList struct {
	ID        string    `json:"id" gorm:"type:varchar(36);primaryKey"`
	Name      string    `json:"name" gorm:"type:varchar(255);not null"`
	IsActive  bool      `json:"is_active" gorm:"not null;default:true"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for ProblemList
func (ProblemList) TableName() string {
	return "problem_lists"
}
