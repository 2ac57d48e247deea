package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/Hakote/Hakote/internal/calendar"
	"github.com/Hakote/Hakote/internal/engine"
	"github.com/Hakote/Hakote/internal/metrics"
	"github.com/Hakote/Hakote/internal/model"
	"github.com/Hakote/Hakote/internal/queue"
	"github.com/Hakote/Hakote/internal/repository"
	"github.com/Hakote/Hakote/internal/view"
)

// SubscriptionStore is the data behind the public endpoints
type SubscriptionStore interface {
	Subscribe(ctx context.Context, in repository.SubscribeInput) (*repository.SubscribeResult, error)
	UnsubscribeSubscription(ctx context.Context, subscriptionID string) (string, error)
	UnsubscribeByToken(ctx context.Context, token string) error
	ListProblemLists(ctx context.Context) ([]model.ProblemList, error)
	ListProblems(ctx context.Context) ([]model.Problem, error)
	SubscriptionStats(ctx context.Context) (*repository.Stats, error)
	ProblemOfTheDay(ctx context.Context, hash int) (*model.Problem, error)
}

// Runner runs the daily send
type Runner interface {
	Run(ctx context.Context, opts engine.RunOptions) (*engine.Result, error)
}

// Processor handles the next queued job
type Processor interface {
	ProcessNext(ctx context.Context) (*queue.ProcessResult, error)
}

// Scheduler is the cron scheduler's control surface
type Scheduler interface {
	Start() error
	Stop() error
	IsRunning() bool
	RunOnce(ctx context.Context) (*queue.ProcessResult, error)
	GetNextRun() time.Time
	GetLastRun() time.Time
}

// Dependencies wires the handlers
type Dependencies struct {
	Store     SubscriptionStore
	Engine    Runner
	Worker    Processor
	Scheduler Scheduler
	Enqueue   func(ctx context.Context) (*model.CronJob, error)
	Views     *view.Renderer
	Calendar  *calendar.Calendar
	Metrics   *metrics.Metrics
	Gatherer  prometheus.Gatherer
	Ping      func(ctx context.Context) error

	CronSecret    string
	WorkerSecret  string
	ClockOverride string
	// SubscribeLimit is requests per minute per client IP; 0 disables it
	SubscribeLimit int
}

// Handlers contains all HTTP handlers
type Handlers struct {
	Dependencies
	limiter *ipLimiter
	now     func() time.Time
}

// NewHandlers creates new HTTP handlers
func NewHandlers(deps Dependencies) *Handlers {
	if deps.Calendar == nil {
		deps.Calendar = calendar.Default()
	}
	if deps.Views == nil {
		deps.Views = view.NewRenderer()
	}
	if deps.Gatherer == nil {
		deps.Gatherer = prometheus.DefaultGatherer
	}
	registerValidators()

	h := &Handlers{Dependencies: deps, now: time.Now}
	if deps.SubscribeLimit > 0 {
		h.limiter = newIPLimiter(deps.SubscribeLimit, time.Minute)
	}
	return h
}

// SetupRoutes sets up all HTTP routes
func (h *Handlers) SetupRoutes(router *gin.Engine) {
	router.GET("/healthz", h.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(h.Gatherer, promhttp.HandlerOpts{})))

	api := router.Group("/api")
	{
		api.GET("/cron/send-today", h.SendTodayStatus)
		api.POST("/cron/send-today", requireSecret("x-cron-secret", h.CronSecret), h.EnqueueSendToday)
		api.POST("/cron/test", requireSecret("x-cron-secret", h.CronSecret), h.TestRun)
		api.POST("/worker/process", requireSecret("x-worker-secret", h.WorkerSecret), h.ProcessJob)

		api.POST("/subscribe", h.rateLimit(), h.Subscribe)
		api.GET("/unsubscribe", h.Unsubscribe)
		api.POST("/unsubscribe", h.Unsubscribe)
		api.GET("/problem-lists", h.ListProblemLists)
		api.GET("/problems", h.ListProblems)
		api.GET("/problems/today", h.ProblemOfTheDay)
		api.GET("/subscribers/stats", h.SubscriberStats)
	}

	v1 := router.Group("/api/v1", requireSecret("x-cron-secret", h.CronSecret))
	{
		v1.POST("/scheduler/start", h.StartScheduler)
		v1.POST("/scheduler/stop", h.StopScheduler)
		v1.POST("/scheduler/run-once", h.RunOnce)
		v1.GET("/scheduler/status", h.GetSchedulerStatus)
	}
}

// HealthCheck handles health check requests
func (h *Handlers) HealthCheck(c *gin.Context) {
	response := HealthResponse{
		Status:    "ok",
		Timestamp: h.now(),
		Database:  "ok",
		Scheduler: make(map[string]string),
	}

	if h.Ping != nil {
		if err := h.Ping(c.Request.Context()); err != nil {
			response.Status = "error"
			response.Database = "error"
			logrus.Errorf("Database health check failed: %v", err)
		}
	}

	if h.Scheduler != nil && h.Scheduler.IsRunning() {
		response.Scheduler["state"] = "running"
		response.Scheduler["next_run"] = h.Scheduler.GetNextRun().Format(time.RFC3339)
	} else {
		response.Scheduler["state"] = "stopped"
	}

	statusCode := http.StatusOK
	if response.Status == "error" {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, response)
}

func (h *Handlers) observeSubscription(action, outcome string) {
	if h.Metrics != nil {
		h.Metrics.ObserveSubscription(action, outcome)
	}
}

func abortError(c *gin.Context, code int, errText, message string) {
	c.AbortWithStatusJSON(code, ErrorResponse{
		Error:   errText,
		Message: message,
		Code:    code,
	})
}
