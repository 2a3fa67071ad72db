// internal/metrics/metrics.go
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Request metrics
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "soulparking_requests_total",
			Help: "Total number of HTTP requests processed",
		},
		[]string{"method", "route", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "soulparking_request_duration_seconds",
			Help:    "Request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// Generator metrics
	MetricsCacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "soulparking_metrics_cache_hits_total",
			Help: "Derived metrics cache hits",
		},
	)

	MetricsCacheMisses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "soulparking_metrics_cache_misses_total",
			Help: "Derived metrics cache misses",
		},
	)

	DateRangeChanges = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "soulparking_date_range_changes_total",
			Help: "Date range selections committed by sessions",
		},
		[]string{"preset"},
	)

	// Session metrics
	LoginAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "soulparking_login_attempts_total",
			Help: "Login attempts by outcome",
		},
		[]string{"outcome"},
	)

	ActiveSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "soulparking_active_sessions",
			Help: "Number of sessions with a held date range",
		},
	)

	// Export metrics
	ExportsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "soulparking_exports_total",
			Help: "Files exported by kind and format",
		},
		[]string{"kind", "format"},
	)

	// Event metrics
	EventsPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "soulparking_events_published_total",
			Help: "Activity events published by result",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		MetricsCacheHits,
		MetricsCacheMisses,
		DateRangeChanges,
		LoginAttempts,
		ActiveSessions,
		ExportsTotal,
		EventsPublished,
	)
}

// Handler serves the default registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.Handler()
}
