package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Hakote/Hakote/internal/calendar"
	"github.com/Hakote/Hakote/internal/engine"
	"github.com/Hakote/Hakote/internal/queue"
)

// SendTodayStatus answers liveness probes on the cron endpoint
func (h *Handlers) SendTodayStatus(c *gin.Context) {
	c.JSON(http.StatusOK, MessageResponse{
		OK:        true,
		Message:   "Cron endpoint is working. Use POST method with x-cron-secret header for actual execution.",
		Timestamp: h.now(),
	})
}

// EnqueueSendToday queues the daily send and returns immediately
func (h *Handlers) EnqueueSendToday(c *gin.Context) {
	job, err := h.Enqueue(c.Request.Context())
	if err != nil {
		logrus.Errorf("Failed to queue cron job: %v", err)
		abortError(c, http.StatusInternalServerError, "Failed to queue job", "")
		return
	}

	c.JSON(http.StatusAccepted, MessageResponse{
		OK:        true,
		Message:   "Daily email job queued successfully",
		JobID:     job.ID,
		Timestamp: h.now(),
	})
}

// TestRun runs the daily send in dry-run mode. The optional date query
// pins the day being simulated.
func (h *Handlers) TestRun(c *gin.Context) {
	override := h.ClockOverride
	if date := c.Query("date"); date != "" {
		if _, ok := calendar.ParseOverride(date, h.Calendar.Location()); !ok {
			abortError(c, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD or RFC3339")
			return
		}
		override = date
	}

	result, err := h.Engine.Run(c.Request.Context(), engine.RunOptions{
		DryRun:        true,
		Logger:        engine.NewDryRunLogger(nil),
		ClockOverride: override,
	})
	if err != nil {
		logrus.Errorf("Dry run failed: %v", err)
		abortError(c, http.StatusInternalServerError, "Test run failed", runFailureMessage(err))
		return
	}

	c.JSON(http.StatusOK, result)
}

// ProcessJob lets an external trigger drive the worker
func (h *Handlers) ProcessJob(c *gin.Context) {
	res, err := h.Worker.ProcessNext(c.Request.Context())

	var jobErr *queue.JobError
	switch {
	case errors.As(err, &jobErr):
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "Job processing failed",
			Code:  http.StatusInternalServerError,
			JobID: jobErr.JobID,
		})
		return
	case errors.Is(err, queue.ErrRunInProgress):
		abortError(c, http.StatusConflict, "Run in progress", "another daily send is running")
		return
	case err != nil:
		logrus.Errorf("Worker error: %v", err)
		abortError(c, http.StatusInternalServerError, "Internal worker error", "")
		return
	}

	if !res.Processed {
		c.JSON(http.StatusOK, MessageResponse{
			OK:        true,
			Message:   "No pending jobs",
			JobID:     res.JobID,
			Timestamp: h.now(),
		})
		return
	}

	c.JSON(http.StatusOK, JobResponse{
		OK:        true,
		Message:   "Job processed successfully",
		JobID:     res.JobID,
		Result:    res.Result,
		Timestamp: h.now(),
	})
}

func runFailureMessage(err error) string {
	switch {
	case errors.Is(err, engine.ErrNoProblems):
		return "no active problems"
	case errors.Is(err, engine.ErrFetchSubscriptions),
		errors.Is(err, engine.ErrFetchProblems),
		errors.Is(err, engine.ErrFetchState):
		return "failed to load data for the run"
	default:
		return "internal error"
	}
}
