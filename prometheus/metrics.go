package prometheus

import (
	"time"

	"procurement-service/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	HttpRequestsTotal   prometheus.CounterVec
	HttpRequestDuration prometheus.HistogramVec

	// Import engine metrics
	RowsClassifiedCounter prometheus.CounterVec
	ImportJobsCounter     prometheus.CounterVec
	CommitConflictCounter prometheus.Counter
	PriceChangesCounter   prometheus.Counter

	// Purchase metrics
	ConfirmationsCounter prometheus.CounterVec
	StockDeltaCounter    prometheus.Counter

	// Database operation metrics
	DbOperationDuration prometheus.HistogramVec
)

// InitMetrics initializes Prometheus metrics with configuration
func InitMetrics(appConfig *config.Config) {
	// Use metric prefix from configuration
	prefix := appConfig.Metrics.Prefix

	// HTTP request metrics
	HttpRequestsTotal = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HttpRequestDuration = *promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// Import engine metrics
	RowsClassifiedCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_rows_classified_total",
			Help: "Total number of import rows classified, by status",
		},
		[]string{"status"},
	)

	ImportJobsCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_import_jobs_total",
			Help: "Total number of import jobs, by outcome",
		},
		[]string{"outcome"},
	)

	CommitConflictCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_commit_conflicts_total",
			Help: "Total number of commits aborted by unique-constraint conflicts",
		},
	)

	PriceChangesCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_price_changes_total",
			Help: "Total number of price-history entries appended",
		},
	)

	// Purchase metrics
	ConfirmationsCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_purchase_confirmations_total",
			Help: "Total number of purchase confirmations, by outcome",
		},
		[]string{"outcome"},
	)

	StockDeltaCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_stock_deltas_applied_total",
			Help: "Total number of stock deltas applied by confirmations",
		},
	)

	// Database operation metrics
	DbOperationDuration = *promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation_type"},
	)
}

// TrackDBOperation returns a function that records the duration of a database operation
func TrackDBOperation(operationType string) func(startTime time.Time) {
	return func(startTime time.Time) {
		duration := time.Since(startTime).Seconds()
		DbOperationDuration.WithLabelValues(operationType).Observe(duration)
	}
}

// RecordRowsClassified adds to the classification counter for a status
func RecordRowsClassified(status string, count int) {
	RowsClassifiedCounter.WithLabelValues(status).Add(float64(count))
}

// RecordImportJob increments the import-job counter for an outcome
func RecordImportJob(outcome string) {
	ImportJobsCounter.WithLabelValues(outcome).Inc()
}

// RecordConfirmation increments the confirmation counter for an outcome
func RecordConfirmation(outcome string) {
	ConfirmationsCounter.WithLabelValues(outcome).Inc()
}
