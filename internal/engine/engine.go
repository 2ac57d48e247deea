// Package engine is the daily send: it picks the subscriptions due today,
// resolves each one's next problem, sends it at most once per day and
// records delivery and progress so a re-run only retries what failed.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/Hakote/Hakote/internal/batch"
	"github.com/Hakote/Hakote/internal/calendar"
	"github.com/Hakote/Hakote/internal/logging"
)

// Config tunes batching. SendTimeout bounds one subscription's send,
// retries included.
type Config struct {
	BatchSize   int
	BatchDelay  time.Duration
	SendTimeout time.Duration
}

// DefaultConfig matches the provider's sending budget
func DefaultConfig() Config {
	return Config{
		BatchSize:   10,
		BatchDelay:  5 * time.Second,
		SendTimeout: 45 * time.Second,
	}
}

// RunOptions select the mode of one run
type RunOptions struct {
	DryRun bool
	Logger Logger
	// ClockOverride pins "today"; malformed values are ignored
	ClockOverride string
}

// Option configures an Engine
type Option func(*Engine)

// WithDryRunSender replaces the sender used for dry runs
func WithDryRunSender(s Sender) Option {
	return func(e *Engine) { e.dryRunSender = s }
}

// WithRecorder reports runs and deliveries to r
func WithRecorder(r Recorder) Option {
	return func(e *Engine) { e.recorder = r }
}

// WithSleep replaces the wait between batches
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(e *Engine) { e.sleep = sleep }
}

// Engine runs the daily send
type Engine struct {
	store        Store
	sender       Sender
	dryRunSender Sender
	calendar     *calendar.Calendar
	urls         URLBuilder
	cfg          Config
	recorder     Recorder
	sleep        func(ctx context.Context, d time.Duration) error
}

// New creates an engine
func New(store Store, sender Sender, cal *calendar.Calendar, urls URLBuilder, cfg Config, opts ...Option) *Engine {
	e := &Engine{
		store:    store,
		sender:   sender,
		calendar: cal,
		urls:     urls,
		cfg:      cfg,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.dryRunSender == nil {
		e.dryRunSender = SenderFunc(func(ctx context.Context, email Email) error { return nil })
	}
	return e
}

// Run performs one daily send. Only loading failures are returned as
// errors; per-subscription failures are counted in the summary.
func (e *Engine) Run(ctx context.Context, opts RunOptions) (*Result, error) {
	log := opts.Logger
	if log == nil {
		if opts.DryRun {
			log = NewDryRunLogger(nil)
		} else {
			log = NewProductionLogger(nil)
		}
	}

	now := e.calendar.Now(opts.ClockOverride)
	summary := Summary{
		Date:      calendar.FormatDate(now),
		DayOfWeek: calendar.DayName(now.Weekday()),
		DryRun:    opts.DryRun,
	}
	log.Infof("Daily send starting: %s (%s)", summary.Date, summary.DayOfWeek)

	started := time.Now()
	result, err := e.run(ctx, opts, log, now, summary)
	if err != nil {
		log.Errorf(err, "Daily send aborted")
		return nil, err
	}
	if e.recorder != nil {
		e.recorder.ObserveRun(result.Summary, time.Since(started))
	}
	return result, nil
}

func (e *Engine) run(ctx context.Context, opts RunOptions, log Logger, now time.Time, summary Summary) (*Result, error) {
	subs, err := e.store.ListActiveSubscriptions(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchSubscriptions, err)
	}
	if len(subs) == 0 {
		log.Infof("No active subscriptions found")
		return &Result{OK: true, Summary: summary}, nil
	}

	counts := CountByFrequency(subs)
	log.Infof("Active subscriptions: %d (2x: %d, 3x: %d, 5x: %d)",
		len(subs), counts[TwiceWeekly], counts[ThriceWeekly], counts[Weekdays])

	due := FilterDue(subs, now.Weekday(), log)

	if !calendar.IsWeekday(now.Weekday()) {
		log.Infof("No sends on %s", summary.DayOfWeek)
		return &Result{OK: true, Summary: summary}, nil
	}
	if len(due) == 0 {
		log.Infof("No subscriptions due on %s", summary.DayOfWeek)
		return &Result{OK: true, Summary: summary}, nil
	}
	log.Infof("Subscriptions due on %s: %d", summary.DayOfWeek, len(due))

	problems, err := e.store.ListActiveProblems(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchProblems, err)
	}
	if len(problems) == 0 {
		return nil, ErrNoProblems
	}
	SortProblems(problems)
	log.Infof("Active problems: %d", len(problems))

	ids := make([]string, len(due))
	for i, s := range due {
		ids[i] = s.ID
	}
	state, err := LoadState(ctx, e.store, ids, summary.Date)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchState, err)
	}
	log.Infof("Loaded state: %d progress rows, %d deliveries", len(state.Progress), len(state.Deliveries))

	r := &run{
		date:     summary.Date,
		dryRun:   opts.DryRun,
		log:      log,
		state:    state,
		problems: GroupByList(problems),
	}

	bopts := batch.Options{
		Size:  e.cfg.BatchSize,
		Delay: e.cfg.BatchDelay,
		Sleep: e.sleep,
		OnBatch: func(number, total, size int) {
			log.Infof("Batch %d/%d: %d subscriptions", number, total, size)
		},
		OnDelay: func(d time.Duration) {
			log.Infof("Waiting %s before next batch", d)
		},
	}

	started := time.Now()
	outcomes := batch.Run(ctx, due, bopts, func(ctx context.Context, sub Subscription) (Sent, error) {
		return e.deliver(ctx, r, sub)
	})
	elapsed := time.Since(started)

	summary.Tally(outcomes)
	e.report(log, due, outcomes)

	log.Infof("Daily send finished in %s: succeeded %d (new %d, already sent %d), failed %d",
		elapsed.Round(time.Millisecond), summary.Succeeded, summary.NewlySent, summary.AlreadySent, summary.Failed)
	if opts.DryRun {
		log.Testf("Dry run complete, no records changed")
	}

	return &Result{OK: true, Summary: summary}, nil
}

func (e *Engine) report(log Logger, due []Subscription, outcomes []batch.Outcome[Sent]) {
	var failed []string
	for i, o := range outcomes {
		result := "sent"
		switch {
		case o.Err != nil:
			result = "failed"
			failed = append(failed, logging.RedactEmail(due[i].Email))
		case o.Value.AlreadySent:
			result = "already_sent"
		}
		if e.recorder != nil {
			e.recorder.ObserveDelivery(result)
		}
	}
	if len(failed) > 0 {
		log.Errorf(nil, "Failed deliveries (%d): %v", len(failed), failed)
	}
}
