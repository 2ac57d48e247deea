package handler

import (
	"time"

	"github.com/Hakote/Hakote/internal/engine"
	"github.com/Hakote/Hakote/internal/model"
	"github.com/Hakote/Hakote/internal/repository"
)

// SubscribeRequest is the body of POST /api/subscribe
type SubscribeRequest struct {
	Email          string   `json:"email" binding:"required,subscriber_email"`
	Frequency      string   `json:"frequency" binding:"required,oneof=2x 3x 5x"`
	Consent        bool     `json:"consent" binding:"required"`
	ProblemListIDs []string `json:"problem_list_ids" binding:"omitempty,max=20,dive,required"`
}

// SubscribeResponse is returned after a successful subscribe
type SubscribeResponse struct {
	OK   bool                        `json:"ok"`
	Data *repository.SubscribeResult `json:"data"`
}

// ProblemListsResponse lists the active problem lists
type ProblemListsResponse struct {
	OK           bool                `json:"ok"`
	ProblemLists []model.ProblemList `json:"problemLists"`
}

// ProblemsResponse lists the active problems
type ProblemsResponse struct {
	OK   bool            `json:"ok"`
	Data []model.Problem `json:"data"`
}

// ProblemOfTheDayResponse is the problem picked for a date
type ProblemOfTheDayResponse struct {
	OK      bool           `json:"ok"`
	Date    string         `json:"date"`
	Problem *model.Problem `json:"problem"`
}

// StatsResponse reports active subscriptions per frequency
type StatsResponse struct {
	OK        bool              `json:"ok"`
	Stats     *repository.Stats `json:"stats"`
	Timestamp time.Time         `json:"timestamp"`
}

// MessageResponse is a plain acknowledgement
type MessageResponse struct {
	OK        bool      `json:"ok"`
	Message   string    `json:"message"`
	JobID     string    `json:"jobId,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// JobResponse is returned when the worker processed a job
type JobResponse struct {
	OK        bool           `json:"ok"`
	Message   string         `json:"message"`
	JobID     string         `json:"jobId,omitempty"`
	Result    *engine.Result `json:"result,omitempty"`
	Retried   bool           `json:"retried,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Database  string            `json:"database"`
	Scheduler map[string]string `json:"scheduler,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	OK      bool   `json:"ok"`
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code"`
	JobID   string `json:"jobId,omitempty"`
}
