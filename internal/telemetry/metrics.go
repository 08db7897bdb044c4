package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics — набор Prometheus метрик планировщика.
//
// Регистрируются в собственном registry (не DefaultRegisterer), чтобы
// несколько Scheduler в одном процессе (например, в тестах) не
// конфликтовали по именам метрик.
type Metrics struct {
	registry *prometheus.Registry

	JobsDispatched   *prometheus.CounterVec
	JobsSucceeded    *prometheus.CounterVec
	JobsFailed       *prometheus.CounterVec
	JobsDisabled     *prometheus.CounterVec
	ExecutionSeconds *prometheus.HistogramVec
	JobsRunning      prometheus.Gauge
	InputQueueDepth  *prometheus.GaugeVec
}

// NewMetrics создаёт и регистрирует метрики планировщика.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		JobsDispatched: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "espresso_jobs_dispatched_total",
			Help: "Total number of job attempts dispatched, by job id.",
		}, []string{"job_id"}),
		JobsSucceeded: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "espresso_jobs_succeeded_total",
			Help: "Total number of job attempts that completed successfully, by job id.",
		}, []string{"job_id"}),
		JobsFailed: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "espresso_jobs_failed_total",
			Help: "Total number of job attempts that returned an error, by job id.",
		}, []string{"job_id"}),
		JobsDisabled: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "espresso_jobs_disabled_total",
			Help: "Total number of times a job was disabled after exhausting retries, by job id.",
		}, []string{"job_id"}),
		ExecutionSeconds: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "espresso_job_execution_seconds",
			Help:    "Duration of job attempts, by job id.",
			Buckets: prometheus.DefBuckets,
		}, []string{"job_id"}),
		JobsRunning: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "espresso_jobs_running",
			Help: "Number of job attempts currently executing on the worker pool.",
		}),
		InputQueueDepth: promauto.With(reg).NewGaugeVec(prometheus.GaugeOpts{
			Name: "espresso_input_queue_depth",
			Help: "Last observed depth of a queue-backed input, by input id.",
		}, []string{"input_id"}),
	}

	return m
}

// Handler возвращает an http.Handler exposing metrics in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
