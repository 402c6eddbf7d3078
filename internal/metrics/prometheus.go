package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the fixture ingestion service

var (
	// API call metrics
	APICallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tennis_api_calls_total",
			Help: "Total number of fixtures API calls",
		},
		[]string{"endpoint", "status"},
	)

	APICallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tennis_api_call_duration_seconds",
			Help:    "Duration of API calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	// Range fetch metrics
	FetchDaysTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tennis_fetch_days_total",
			Help: "Per-day outcomes inside range fetches",
		},
		[]string{"status"},
	)

	// Partition sync metrics
	SyncOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tennis_sync_operations_total",
			Help: "Total number of partition replace operations",
		},
		[]string{"status"},
	)

	SyncDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tennis_sync_duration_seconds",
			Help:    "Duration of partition replace operations in seconds",
			Buckets: []float64{.1, .5, 1, 5, 10, 30, 60, 120},
		},
	)

	RowsWritten = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tennis_rows_written_total",
			Help: "Total number of fixture rows bulk-inserted",
		},
	)

	RowsDeleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tennis_rows_deleted_total",
			Help: "Total number of fixture rows deleted by partition replaces",
		},
	)

	// Cache metrics
	CacheHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tennis_cache_hits_total",
			Help: "Total number of envelope cache hits",
		},
	)

	CacheMissesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tennis_cache_misses_total",
			Help: "Total number of envelope cache misses",
		},
	)

	// Error metrics
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tennis_errors_total",
			Help: "Total number of errors",
		},
		[]string{"component", "error_type"},
	)

	// System metrics
	SystemUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tennis_system_uptime_seconds",
			Help: "System uptime in seconds",
		},
	)

	LastSuccessfulSync = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tennis_last_successful_sync_timestamp",
			Help: "Timestamp of last successful partition replace",
		},
	)
)

// RecordAPICall records an API call metric
func RecordAPICall(endpoint, status string, duration float64) {
	APICallsTotal.WithLabelValues(endpoint, status).Inc()
	APICallDuration.WithLabelValues(endpoint).Observe(duration)
}

// RecordFetchDay records a single day's outcome inside a range fetch
func RecordFetchDay(status string) {
	FetchDaysTotal.WithLabelValues(status).Inc()
}

// RecordSync records a partition replace operation
func RecordSync(status string, duration float64, deleted, inserted int64) {
	SyncOperationsTotal.WithLabelValues(status).Inc()
	SyncDuration.Observe(duration)

	if status == "success" {
		RowsDeleted.Add(float64(deleted))
		RowsWritten.Add(float64(inserted))
		LastSuccessfulSync.SetToCurrentTime()
	}
}

// RecordCacheHit records an envelope cache hit
func RecordCacheHit() {
	CacheHitsTotal.Inc()
}

// RecordCacheMiss records an envelope cache miss
func RecordCacheMiss() {
	CacheMissesTotal.Inc()
}

// RecordError records an error
func RecordError(component, errorType string) {
	ErrorsTotal.WithLabelValues(component, errorType).Inc()
}
