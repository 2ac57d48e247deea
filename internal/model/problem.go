package model

import "time"

// Problem belongs to exactly one problem list. Week is an optional ordering
// hint; problems without one sort after those that have it.
type Problem struct {
	ID            string    `json:"id" gorm:"type:varchar(36);primaryKey"`
	ProblemListID string    `json:"problem_list_id" gorm:"type:varchar(36);not null;index"`
	Title         string    `json:"title" gorm:"type:varchar(255);not null"`
	URL           string    `json:"url" gorm:"type:varchar(512);not null"`
	Difficulty    string    `json:"difficulty" gorm:"type:varchar(32)"`
	Week          *int      `json:"week,omitempty"`
	Active        bool      `json:"active" gorm:"not null;default:true;index"`
	CreatedAt     time.Time `json:"created_at"`
}

// TableName specifies the table name for Problem
func (Problem) TableName() string {
	return "problems"
}
