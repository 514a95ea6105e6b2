// Package metrics exposes Prometheus instruments for the student service.
//
// Instruments are package-level and registered once through promauto, so
// any number of service instances (tests create many) share them.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels. Rejections map one-to-one onto the service's sentinel
// errors; "error" means the storage backend itself failed.
const (
	OutcomeOK               = "ok"
	OutcomeNotFound         = "not_found"
	OutcomeValidation       = "validation_failed"
	OutcomeDuplicateEmail   = "duplicate_email"
	OutcomeAlreadyClosed    = "already_closed"
	OutcomeInvalidReference = "invalid_reference"
	OutcomeError            = "error"
)

var (
	operations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "students_operations_total",
			Help: "Total service operations by outcome",
		},
		[]string{"operation", "outcome"},
	)

	operationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "students_operation_duration_seconds",
			Help:    "Duration of service operations",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		},
		[]string{"operation"},
	)
)

// Observe records one finished operation.
func Observe(operation, outcome string, started time.Time) {
	operations.WithLabelValues(operation, outcome).Inc()
	operationDuration.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}

// OperationCount returns the counter for one label pair. Tests use it
// to read the current value.
func OperationCount(operation, outcome string) prometheus.Counter {
	return operations.WithLabelValues(operation, outcome)
}

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
