// Package observability provides Prometheus metrics and OpenTelemetry tracing for the boards service.
//
// Metrics are exposed on /metrics. All metric operations are thread-safe via
// Prometheus's internal locking.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	metricsNamespace = "gol"
	boardsSubsystem  = "boards"
	httpSubsystem    = "http"
)

// Metrics holds the service counters and histograms
type Metrics struct {
	// BoardsCreated counts boards stored by the service
	BoardsCreated prometheus.Counter

	// GenerationsComputed counts next-generation projections.
	// Labels: operation (next, advance, final)
	GenerationsComputed *prometheus.CounterVec

	// StableBoards counts boards found at a fixed point.
	// Labels: operation
	StableBoards *prometheus.CounterVec

	// FinalAttempts measures how many steps the final generation search needed.
	// Labels: outcome (stable, exhausted)
	FinalAttempts *prometheus.HistogramVec

	// RequestsTotal counts HTTP requests. Labels: route, method, status
	RequestsTotal *prometheus.CounterVec

	// RequestDuration measures HTTP latency. Labels: route, method
	RequestDuration *prometheus.HistogramVec

	gatherer prometheus.Gatherer
}

// NewMetrics creates the metrics and registers them on reg. Each registry accepts a
// Metrics only once; tests pass a fresh prometheus.NewRegistry().
func NewMetrics(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		BoardsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: boardsSubsystem,
			Name:      "created_total",
			Help:      "Total number of boards created",
		}),
		GenerationsComputed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: boardsSubsystem,
			Name:      "generations_computed_total",
			Help:      "Total number of generations computed by operation",
		}, []string{"operation"}),
		StableBoards: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: boardsSubsystem,
			Name:      "stable_total",
			Help:      "Total number of operations that found a board at a fixed point",
		}, []string{"operation"}),
		FinalAttempts: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: boardsSubsystem,
			Name:      "final_attempts",
			Help:      "Steps taken while searching for the final generation",
			Buckets:   []float64{1, 2, 5, 10, 25, 50, 100, 250, 1000},
		}, []string{"outcome"}),
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: httpSubsystem,
			Name:      "requests_total",
			Help:      "Total HTTP requests by route, method and status",
		}, []string{"route", "method", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: httpSubsystem,
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		gatherer: reg,
	}

	reg.MustRegister(
		m.BoardsCreated,
		m.GenerationsComputed,
		m.StableBoards,
		m.FinalAttempts,
		m.RequestsTotal,
		m.RequestDuration,
	)
	return m
}

// RecordGenerations adds n computed generations for an operation
func (m *Metrics) RecordGenerations(operation string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.GenerationsComputed.WithLabelValues(operation).Add(float64(n))
}

// RecordStable counts an operation that found a fixed point
func (m *Metrics) RecordStable(operation string) {
	if m == nil {
		return
	}
	m.StableBoards.WithLabelValues(operation).Inc()
}

// RecordBoardCreated counts a created board
func (m *Metrics) RecordBoardCreated() {
	if m == nil {
		return
	}
	m.BoardsCreated.Inc()
}

// RecordFinalAttempts observes the attempts of a final generation search
func (m *Metrics) RecordFinalAttempts(attempts int, stable bool) {
	if m == nil {
		return
	}
	outcome := "exhausted"
	if stable {
		outcome = "stable"
	}
	m.FinalAttempts.WithLabelValues(outcome).Observe(float64(attempts))
}

// Middleware records request counts and latency per route template
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.RequestsTotal.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		m.RequestDuration.WithLabelValues(route, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
