package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exposes prometheus counters for the dispatcher and scheduled jobs.
type Metrics struct {
	eventsCompleted *prometheus.CounterVec
	eventsRetried   *prometheus.CounterVec
	eventsFailed    *prometheus.CounterVec
	jobRuns         *prometheus.CounterVec
	jobSkips        *prometheus.CounterVec
	jobErrors       *prometheus.CounterVec
	desyncsReported prometheus.Counter
}

var (
	defaultMetrics *Metrics
	once           sync.Once
)

// Default returns the process-wide metrics, registering them on first use.
func Default() *Metrics {
	once.Do(func() {
		defaultMetrics = newMetrics(prometheus.DefaultRegisterer)
	})
	return defaultMetrics
}

// NewForTest registers a fresh set of metrics on the given registry.
func NewForTest(reg prometheus.Registerer) *Metrics {
	return newMetrics(reg)
}

func newMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		eventsCompleted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "membros_webhook_events_completed_total",
			Help: "Webhook events processed to completion.",
		}, []string{"event_type"}),
		eventsRetried: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "membros_webhook_events_retried_total",
			Help: "Webhook events reset to pending after a failed attempt.",
		}, []string{"event_type"}),
		eventsFailed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "membros_webhook_events_failed_total",
			Help: "Webhook events that exhausted their attempts.",
		}, []string{"event_type"}),
		jobRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "membros_job_runs_total",
			Help: "Scheduled job executions.",
		}, []string{"job"}),
		jobSkips: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "membros_job_skips_total",
			Help: "Job ticks skipped because the previous run was still in flight.",
		}, []string{"job"}),
		jobErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "membros_job_errors_total",
			Help: "Scheduled job executions that returned an error.",
		}, []string{"job"}),
		desyncsReported: factory.NewCounter(prometheus.CounterOpts{
			Name: "membros_reconciliation_desyncs_total",
			Help: "Members reported as desynchronized from the payment provider.",
		}),
	}
}

func (m *Metrics) IncEventCompleted(eventType string) {
	m.eventsCompleted.WithLabelValues(eventType).Inc()
}

func (m *Metrics) IncEventRetried(eventType string) {
	m.eventsRetried.WithLabelValues(eventType).Inc()
}

func (m *Metrics) IncEventFailed(eventType string) {
	m.eventsFailed.WithLabelValues(eventType).Inc()
}

func (m *Metrics) IncJobRun(job string) {
	m.jobRuns.WithLabelValues(job).Inc()
}

func (m *Metrics) IncJobSkip(job string) {
	m.jobSkips.WithLabelValues(job).Inc()
}

func (m *Metrics) IncJobError(job string) {
	m.jobErrors.WithLabelValues(job).Inc()
}

func (m *Metrics) IncDesyncReported() {
	m.desyncsReported.Inc()
}
