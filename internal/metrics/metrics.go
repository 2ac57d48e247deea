package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Hakote/Hakote/internal/engine"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	Deliveries        *prometheus.CounterVec
	Runs              *prometheus.CounterVec
	RunDuration       prometheus.Histogram
	LastRunDue        prometheus.Gauge
	LastRunFailed     prometheus.Gauge
	JobsEnqueued      prometheus.Counter
	JobsProcessed     *prometheus.CounterVec
	SubscribeRequests *prometheus.CounterVec
}

// NewMetrics registers the metrics on reg. A nil reg uses the default
// registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		Deliveries: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "hakote_deliveries_total",
			Help: "Subscriptions processed by the daily send, by result (sent, already_sent, failed)",
		}, []string{"result"}),
		Runs: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "hakote_runs_total",
			Help: "Completed daily send runs by mode",
		}, []string{"mode"}),
		RunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "hakote_run_duration_seconds",
			Help:    "Time spent in one daily send run",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),
		LastRunDue: factory.NewGauge(prometheus.GaugeOpts{
			Name: "hakote_last_run_due",
			Help: "Subscriptions due in the most recent run",
		}),
		LastRunFailed: factory.NewGauge(prometheus.GaugeOpts{
			Name: "hakote_last_run_failed",
			Help: "Failed subscriptions in the most recent run",
		}),
		JobsEnqueued: factory.NewCounter(prometheus.CounterOpts{
			Name: "hakote_jobs_enqueued_total",
			Help: "Daily send jobs added to the queue",
		}),
		JobsProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "hakote_jobs_processed_total",
			Help: "Daily send jobs processed by the worker, by final status",
		}, []string{"status"}),
		SubscribeRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "hakote_subscribe_requests_total",
			Help: "Subscribe and unsubscribe requests by outcome",
		}, []string{"action", "outcome"}),
	}
}

// ObserveDelivery counts one subscription outcome
func (m *Metrics) ObserveDelivery(result string) {
	m.Deliveries.WithLabelValues(result).Inc()
}

// ObserveRun records a finished run
func (m *Metrics) ObserveRun(summary engine.Summary, duration time.Duration) {
	mode := "live"
	if summary.DryRun {
		mode = "dry_run"
	}
	m.Runs.WithLabelValues(mode).Inc()
	m.RunDuration.Observe(duration.Seconds())
	m.LastRunDue.Set(float64(summary.TotalDue))
	m.LastRunFailed.Set(float64(summary.Failed))
}

// ObserveJob counts a processed job
func (m *Metrics) ObserveJob(status string) {
	m.JobsProcessed.WithLabelValues(status).Inc()
}

// ObserveSubscription counts a subscribe or unsubscribe request
func (m *Metrics) ObserveSubscription(action, outcome string) {
	m.SubscribeRequests.WithLabelValues(action, outcome).Inc()
}

var _ engine.Recorder = (*Metrics)(nil)
