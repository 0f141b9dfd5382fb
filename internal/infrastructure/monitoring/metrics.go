// Package monitoring provides Prometheus metrics and OpenTelemetry tracing
package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/alchemorsel/recipebook/internal/ports/outbound"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "recipebook"

// Metrics holds the Prometheus collectors for the service
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Business metrics
	searchesTotal   prometheus.Counter
	searchDuration  prometheus.Histogram
	searchResults   prometheus.Histogram
	importedRecipes *prometheus.CounterVec
	aiJobsTotal     *prometheus.CounterVec
	aiJobDuration   *prometheus.HistogramVec

	// Queue metrics
	tasksTotal   *prometheus.CounterVec
	taskDuration *prometheus.HistogramVec
	queueDepth   prometheus.Gauge
}

// NewMetrics registers the collectors on a fresh registry
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status_code"},
		),
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),

		searchesTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "searches_total",
				Help:      "Total number of recipe searches",
			},
		),
		searchDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "search_duration_seconds",
				Help:      "Recipe search duration in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
			},
		),
		searchResults: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "search_results",
				Help:      "Number of recipes matching a search",
				Buckets:   prometheus.ExponentialBuckets(1, 4, 6),
			},
		),
		importedRecipes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "imported_recipes_total",
				Help:      "Recipes processed by imports",
			},
			[]string{"result"},
		),
		aiJobsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ai_jobs_total",
				Help:      "AI instruction jobs by outcome",
			},
			[]string{"outcome"},
		),
		aiJobDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "ai_job_duration_seconds",
				Help:      "AI instruction job duration in seconds",
				Buckets:   []float64{0.1, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0, 60.0},
			},
			[]string{"outcome"},
		),

		tasksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tasks_total",
				Help:      "Background tasks by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		taskDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "task_duration_seconds",
				Help:      "Background task duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"kind"},
		),
		queueDepth: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "queue_depth",
				Help:      "Tasks waiting in the queue",
			},
		),
	}
}

// Registry returns the registry the collectors are registered on
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the metrics in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// HTTPMiddleware records request counts and latency by route pattern
func (m *Metrics) HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		m.httpRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.httpRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// RecordSearch records one catalog search
func (m *Metrics) RecordSearch(duration time.Duration, results int64) {
	m.searchesTotal.Inc()
	m.searchDuration.Observe(duration.Seconds())
	m.searchResults.Observe(float64(results))
}

// RecordImport records the outcome of one import run
func (m *Metrics) RecordImport(created, updated, failed int) {
	m.importedRecipes.WithLabelValues("created").Add(float64(created))
	m.importedRecipes.WithLabelValues("updated").Add(float64(updated))
	m.importedRecipes.WithLabelValues("failed").Add(float64(failed))
}

// RecordAIJob records one instruction generation job
func (m *Metrics) RecordAIJob(outcome string, duration time.Duration) {
	m.aiJobsTotal.WithLabelValues(outcome).Inc()
	m.aiJobDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// RecordTask records one dispatched background task
func (m *Metrics) RecordTask(kind, outcome string, duration time.Duration) {
	m.tasksTotal.WithLabelValues(kind, outcome).Inc()
	m.taskDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

// SetQueueDepth reports the number of waiting tasks
func (m *Metrics) SetQueueDepth(depth int) {
	m.queueDepth.Set(float64(depth))
}

var _ outbound.MetricsRecorder = (*Metrics)(nil)
