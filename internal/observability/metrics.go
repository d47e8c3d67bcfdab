package observability

import (
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/spec-kit/sla-engine/internal/domain"
	"github.com/spec-kit/sla-engine/internal/sla"
)

// Metrics owns the service's prometheus collectors.
type Metrics struct {
	registry        *prometheus.Registry
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	errors          *prometheus.CounterVec
	reconciled      *prometheus.CounterVec
	reconcileRuns   *prometheus.CounterVec
	reconcileTime   prometheus.Histogram
	escalations     *prometheus.CounterVec
}

// NewMetrics registers collectors on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by route, method and status",
		}, []string{"route", "method", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_errors_total",
			Help: "HTTP errors by route, method and error code",
		}, []string{"route", "method", "code"}),
		reconciled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sla_reconcile_records_total",
			Help: "Records touched by reconciliation, by outcome",
		}, []string{"outcome"}),
		reconcileRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sla_reconcile_runs_total",
			Help: "Reconciliation passes by result",
		}, []string{"result"}),
		reconcileTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sla_reconcile_duration_seconds",
			Help:    "Duration of reconciliation passes",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
		escalations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sla_escalations_total",
			Help: "At-risk warnings and breaches by deadline type",
		}, []string{"status", "deadline"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests,
		m.requestDuration,
		m.errors,
		m.reconciled,
		m.reconcileRuns,
		m.reconcileTime,
		m.escalations,
	)
	return m
}

// Registry exposes the registry for the /metrics handler.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(route, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(route, method).Observe(duration.Seconds())
}

// RecordError increments error counters.
func (m *Metrics) RecordError(route, method, code string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(route, method, code).Inc()
}

// ObserveReconcile implements sla.ReconcileObserver.
func (m *Metrics) ObserveReconcile(result sla.ReconcileResult, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.reconciled.WithLabelValues("created").Add(float64(result.Created))
	m.reconciled.WithLabelValues("evaluated").Add(float64(result.Evaluated))
	m.reconciled.WithLabelValues("skipped").Add(float64(result.Skipped))
	m.reconciled.WithLabelValues("unchanged").Add(float64(result.Unchanged))
	m.reconcileTime.Observe(duration.Seconds())
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.reconcileRuns.WithLabelValues(outcome).Inc()
}

// RecordEscalation counts an escalation.
func (m *Metrics) RecordEscalation(esc domain.Escalation) {
	if m == nil {
		return
	}
	m.escalations.WithLabelValues(string(esc.NewStatus), string(esc.DeadlineType)).Inc()
}

// RegisterPgxPool exposes pgx connection pool statistics as gauges.
func (m *Metrics) RegisterPgxPool(pool *pgxpool.Pool) {
	if m == nil || pool == nil {
		return
	}
	m.registry.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "pgxpool_acquired_conns",
			Help: "Number of currently acquired connections in the pool",
		}, func() float64 {
			return float64(pool.Stat().AcquiredConns())
		}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "pgxpool_total_conns",
			Help: "Total number of connections in the pool",
		}, func() float64 {
			return float64(pool.Stat().TotalConns())
		}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "pgxpool_idle_conns",
			Help: "Number of idle connections in the pool",
		}, func() float64 {
			return float64(pool.Stat().IdleConns())
		}),
	)
}
