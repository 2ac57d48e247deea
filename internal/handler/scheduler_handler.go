package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Hakote/Hakote/internal/queue"
)

// StartScheduler starts the cron scheduler
func (h *Handlers) StartScheduler(c *gin.Context) {
	if err := h.Scheduler.Start(); err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "scheduler_error",
			Message: "Failed to start scheduler",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Scheduler started successfully",
		"status":  "running",
	})
}

// StopScheduler stops the cron scheduler
func (h *Handlers) StopScheduler(c *gin.Context) {
	if err := h.Scheduler.Stop(); err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "scheduler_error",
			Message: "Failed to stop scheduler",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Scheduler stopped successfully",
		"status":  "stopped",
	})
}

// RunOnce enqueues the daily send and processes it immediately
func (h *Handlers) RunOnce(c *gin.Context) {
	res, err := h.Scheduler.RunOnce(c.Request.Context())
	if err != nil {
		resp := ErrorResponse{
			Error:   "scheduler_error",
			Message: "Failed to run daily send",
			Code:    http.StatusInternalServerError,
		}
		var jobErr *queue.JobError
		if errors.As(err, &jobErr) {
			resp.JobID = jobErr.JobID
		}
		c.JSON(http.StatusInternalServerError, resp)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Daily send completed successfully",
		"jobId":   res.JobID,
		"result":  res.Result,
	})
}

// GetSchedulerStatus returns the current scheduler status
func (h *Handlers) GetSchedulerStatus(c *gin.Context) {
	state := "stopped"
	if h.Scheduler.IsRunning() {
		state = "running"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   state,
		"next_run": h.Scheduler.GetNextRun(),
		"last_run": h.Scheduler.GetLastRun(),
	})
}
