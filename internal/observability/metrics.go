package observability

import (
	"database/sql"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yungbote/foodgram-backend/internal/platform/envutil"
	"github.com/yungbote/foodgram-backend/internal/platform/logger"
)

type Metrics struct {
	registry *prometheus.Registry

	apiRequests *prometheus.CounterVec
	apiLatency  *prometheus.HistogramVec
	apiInflight prometheus.Gauge

	jobOutcomes *prometheus.CounterVec
	jobDuration *prometheus.HistogramVec

	externalRequests *prometheus.CounterVec
	circuitState     *prometheus.GaugeVec
	circuitChanges   *prometheus.CounterVec
}

var (
	initOnce sync.Once
	instance *Metrics
)

func Enabled() bool {
	return envutil.Bool("METRICS_ENABLED", false)
}

// Current returns the process-wide metrics, or nil when metrics are disabled.
func Current() *Metrics {
	return instance
}

func Init(log *logger.Logger) *Metrics {
	if !Enabled() {
		return nil
	}
	initOnce.Do(func() {
		instance = newMetrics()
		if log != nil {
			log.Info("prometheus metrics enabled")
		}
	})
	return instance
}

func newMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := &Metrics{
		registry: reg,
		apiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "foodgram_api_requests_total",
			Help: "Total API requests by method/route/status.",
		}, []string{"method", "route", "status"}),
		apiLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "foodgram_api_request_duration_seconds",
			Help:    "API request latency in seconds by method/route/status.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		}, []string{"method", "route", "status"}),
		apiInflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "foodgram_api_inflight_requests",
			Help: "In-flight API requests.",
		}),
		jobOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "foodgram_job_runs_total",
			Help: "Job attempts by job type and outcome.",
		}, []string{"job_type", "status"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "foodgram_job_run_duration_seconds",
			Help:    "Job attempt duration in seconds.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}, []string{"job_type", "status"}),
		externalRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "foodgram_external_api_requests_total",
			Help: "External recipe API calls by source and result.",
		}, []string{"source", "result"}),
		circuitState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "foodgram_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open).",
		}, []string{"name"}),
		circuitChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "foodgram_circuit_breaker_transitions_total",
			Help: "Circuit breaker state transitions.",
		}, []string{"name", "from", "to"}),
	}
	reg.MustRegister(
		m.apiRequests, m.apiLatency, m.apiInflight,
		m.jobOutcomes, m.jobDuration,
		m.externalRequests, m.circuitState, m.circuitChanges,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RegisterDBStats exports connection pool statistics for db.
func (m *Metrics) RegisterDBStats(db *sql.DB, name string) {
	if m == nil || db == nil {
		return
	}
	_ = m.registry.Register(collectors.NewDBStatsCollector(db, name))
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.apiRequests.WithLabelValues(method, route, status).Inc()
	m.apiLatency.WithLabelValues(method, route, status).Observe(dur.Seconds())
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

func (m *Metrics) ObserveJob(jobType, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.jobOutcomes.WithLabelValues(jobType, status).Inc()
	m.jobDuration.WithLabelValues(jobType, status).Observe(dur.Seconds())
}

func (m *Metrics) IncExternalRequest(source, result string) {
	if m == nil {
		return
	}
	m.externalRequests.WithLabelValues(source, result).Inc()
}

func (m *Metrics) SetCircuitState(name string, state float64) {
	if m == nil {
		return
	}
	m.circuitState.WithLabelValues(name).Set(state)
}

func (m *Metrics) IncCircuitTransition(name, from, to string) {
	if m == nil {
		return
	}
	m.circuitChanges.WithLabelValues(name, from, to).Inc()
}
