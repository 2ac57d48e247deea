// Package app wires configuration, storage, the send engine and the HTTP
// surface into a running service.
package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/Hakote/Hakote/internal/calendar"
	"github.com/Hakote/Hakote/internal/config"
	"github.com/Hakote/Hakote/internal/db"
	"github.com/Hakote/Hakote/internal/engine"
	"github.com/Hakote/Hakote/internal/handler"
	"github.com/Hakote/Hakote/internal/lock"
	"github.com/Hakote/Hakote/internal/logging"
	"github.com/Hakote/Hakote/internal/mailer"
	"github.com/Hakote/Hakote/internal/metrics"
	"github.com/Hakote/Hakote/internal/queue"
	"github.com/Hakote/Hakote/internal/repository"
	"github.com/Hakote/Hakote/internal/router"
	"github.com/Hakote/Hakote/internal/service/scheduler"
	"github.com/Hakote/Hakote/internal/unsubscribe"
	"github.com/Hakote/Hakote/internal/view"
)

const (
	runLockKey     = "daily-send"
	subscribeLimit = 5
)

// App holds the wired components
type App struct {
	Config    *config.Config
	DB        *gorm.DB
	Repo      *repository.Repository
	Jobs      *repository.Jobs
	Engine    *engine.Engine
	Worker    *queue.Worker
	Scheduler *scheduler.Scheduler
	Metrics   *metrics.Metrics
	Calendar  *calendar.Calendar
	Views     *view.Renderer

	redis *redis.Client
	locks lock.Factory
}

// LoadConfig loads, validates and applies the logging configuration
func LoadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	logging.Setup(cfg.Log.Level)
	return cfg, nil
}

// New builds every component from cfg
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	cal, err := calendar.Load(cfg.Engine.Timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone: %w", err)
	}

	dbConn, err := db.Init(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	views := view.NewRenderer()
	sender, err := mailer.NewFromConfig(ctx, cfg.Mail, views)
	if err != nil {
		return nil, fmt.Errorf("failed to create mail sender: %w", err)
	}

	m := metrics.NewMetrics(prometheus.DefaultRegisterer)
	repo := repository.New(dbConn)
	jobs := repository.NewJobs(dbConn)

	eng := engine.New(repo, sender, cal, unsubscribe.NewBuilder(cfg.Engine.BaseURL), engineConfig(cfg.Engine),
		engine.WithDryRunSender(mailer.NewDryRunSender(logrus.StandardLogger())),
		engine.WithRecorder(m),
	)

	locks, redisClient, err := newLockFactory(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}

	worker := queue.NewWorker(jobs, eng, locks,
		queue.WithObserver(m),
		queue.WithClockOverride(cfg.Engine.DateOverride),
	)

	enqueue := scheduler.QueueEnqueuer(jobs, cfg.Scheduler.MaxRetries, m.JobsEnqueued.Inc)
	sched := scheduler.New(cfg.Scheduler, cal.Location(), enqueue, worker)

	return &App{
		Config:    cfg,
		DB:        dbConn,
		Repo:      repo,
		Jobs:      jobs,
		Engine:    eng,
		Worker:    worker,
		Scheduler: sched,
		Metrics:   m,
		Calendar:  cal,
		Views:     views,
		redis:     redisClient,
		locks:     locks,
	}, nil
}

func engineConfig(cfg config.EngineConfig) engine.Config {
	ec := engine.DefaultConfig()
	if cfg.BatchSize > 0 {
		ec.BatchSize = cfg.BatchSize
	}
	if cfg.BatchDelay >= 0 {
		ec.BatchDelay = cfg.BatchDelay
	}
	if cfg.SendTimeout > 0 {
		ec.SendTimeout = cfg.SendTimeout
	}
	return ec
}

// newLockFactory uses Redis when a URL is configured so several instances
// share one run lock; otherwise the lock is process-local
func newLockFactory(ctx context.Context, cfg config.RedisConfig) (lock.Factory, *redis.Client, error) {
	if cfg.URL == "" {
		logrus.Info("No Redis configured, using in-process run lock")
		return lock.LocalFactory(), nil, nil
	}
	client, err := lock.NewRedisClient(ctx, cfg.URL)
	if err != nil {
		return nil, nil, err
	}
	ttl := cfg.LockTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	logrus.Info("Using Redis run lock")
	return lock.RedisFactory(client, runLockKey, ttl), client, nil
}

// Handlers builds the HTTP handlers over the app's components
func (a *App) Handlers() *handler.Handlers {
	return handler.NewHandlers(handler.Dependencies{
		Store:     a.Repo,
		Engine:    a.Engine,
		Worker:    a.Worker,
		Scheduler: a.Scheduler,
		Enqueue:   scheduler.QueueEnqueuer(a.Jobs, a.Config.Scheduler.MaxRetries, a.Metrics.JobsEnqueued.Inc),
		Views:     a.Views,
		Calendar:  a.Calendar,
		Metrics:   a.Metrics,
		Gatherer:  prometheus.DefaultGatherer,
		Ping: func(ctx context.Context) error {
			sqlDB, err := a.DB.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
		CronSecret:     a.Config.Auth.CronSecret,
		WorkerSecret:   a.Config.Auth.WorkerSecret,
		ClockOverride:  a.Config.Engine.DateOverride,
		SubscribeLimit: subscribeLimit,
	})
}

// RunOnce performs one daily send outside the queue. A live run holds the
// same run lock as the worker.
func (a *App) RunOnce(ctx context.Context, dryRun bool, date string) (*engine.Result, error) {
	override := a.Config.Engine.DateOverride
	if date != "" {
		override = date
	}
	opts := engine.RunOptions{DryRun: dryRun || a.Config.Engine.DryRun, ClockOverride: override}
	if opts.DryRun {
		opts.Logger = engine.NewDryRunLogger(nil)
		return a.Engine.Run(ctx, opts)
	}
	opts.Logger = engine.NewProductionLogger(nil)

	locks := a.locks
	if locks == nil {
		locks = lock.LocalFactory()
	}
	l := locks()
	acquired, err := l.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire run lock: %w", err)
	}
	if !acquired {
		return nil, queue.ErrRunInProgress
	}
	defer func() {
		if err := l.Release(context.WithoutCancel(ctx)); err != nil {
			logrus.WithError(err).Warn("Failed to release run lock")
		}
	}()
	return a.Engine.Run(ctx, opts)
}

// Close releases connections
func (a *App) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			logrus.Errorf("Failed to close redis: %v", err)
		}
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			logrus.Errorf("Failed to close database: %v", err)
		}
	}
}

// Serve runs the HTTP server and the scheduler until SIGINT or SIGTERM
func Serve() error {
	logrus.Info("Starting Hakote")

	cfg, err := LoadConfig()
	if err != nil {
		return err
	}

	a, err := New(context.Background(), cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router.SetupRouter(a.Handlers()),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	if cfg.Scheduler.Enabled {
		if err := a.Scheduler.Start(); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
	}

	go func() {
		logrus.Infof("Starting HTTP server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("HTTP server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := a.Scheduler.Stop(); err != nil {
		logrus.Errorf("Failed to stop scheduler: %v", err)
	}
	a.Scheduler.Wait()

	if err := srv.Shutdown(ctx); err != nil {
		logrus.Errorf("HTTP server shutdown error: %v", err)
	}

	logrus.Info("Server stopped gracefully")
	return nil
}
