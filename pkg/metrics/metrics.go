// Package metrics provides Prometheus metrics for the UAF-Auto service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SessionAcquiresTotal tracks session pool acquisitions by outcome
	SessionAcquiresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "uaf",
			Subsystem: "session_pool",
			Name:      "acquires_total",
			Help:      "Total number of session pool acquire attempts by outcome",
		},
		[]string{"outcome"},
	)

	// SessionAcquireWait tracks how long callers waited for a session
	SessionAcquireWait = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "uaf",
			Subsystem: "session_pool",
			Name:      "acquire_wait_seconds",
			Help:      "Time spent waiting for a session from the pool",
			Buckets:   []float64{0.001, 0.01, 0.1, 0.5, 1, 2, 5, 10, 30},
		},
	)

	// SessionsAvailable tracks idle sessions in the pool
	SessionsAvailable = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "uaf",
			Subsystem: "session_pool",
			Name:      "sessions_available",
			Help:      "Number of idle sessions in the pool",
		},
	)

	// SessionsActive tracks sessions currently checked out
	SessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "uaf",
			Subsystem: "session_pool",
			Name:      "sessions_active",
			Help:      "Number of sessions currently checked out",
		},
	)

	// SessionInvalidationsTotal tracks sessions destroyed after corruption
	SessionInvalidationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "uaf",
			Subsystem: "session_pool",
			Name:      "invalidations_total",
			Help:      "Total number of sessions invalidated and destroyed",
		},
	)

	// SessionCreatesTotal tracks session creations by outcome
	SessionCreatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "uaf",
			Subsystem: "session_pool",
			Name:      "creates_total",
			Help:      "Total number of session creation attempts by outcome",
		},
		[]string{"outcome"},
	)

	// ResolutionsTotal tracks customer resolutions by recommendation
	ResolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "uaf",
			Subsystem: "resolution",
			Name:      "resolutions_total",
			Help:      "Total number of customer resolutions by recommendation",
		},
		[]string{"recommendation"},
	)

	// ResolutionDuration tracks resolution latency
	ResolutionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "uaf",
			Subsystem: "resolution",
			Name:      "duration_seconds",
			Help:      "Duration of customer resolution requests in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
	)

	// OrdersTotal tracks sales order creations by outcome
	OrdersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "uaf",
			Subsystem: "orders",
			Name:      "created_total",
			Help:      "Total number of sales order creation attempts by outcome",
		},
		[]string{"outcome"},
	)

	// QueueJobsProcessed tracks jobs processed from the order queue
	QueueJobsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "uaf",
			Subsystem: "queue",
			Name:      "jobs_processed_total",
			Help:      "Total number of jobs processed from the order queue",
		},
		[]string{"status"},
	)

	// QueueJobsInFlight tracks jobs currently being processed
	QueueJobsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "uaf",
			Subsystem: "queue",
			Name:      "jobs_in_flight",
			Help:      "Number of jobs currently being processed",
		},
	)
)

// RecordAcquire records a pool acquire attempt
func RecordAcquire(outcome string, waitSeconds float64) {
	SessionAcquiresTotal.WithLabelValues(outcome).Inc()
	SessionAcquireWait.Observe(waitSeconds)
}

// SetPoolGauges updates the available/active session gauges
func SetPoolGauges(available, active int) {
	SessionsAvailable.Set(float64(available))
	SessionsActive.Set(float64(active))
}

// RecordResolution records a resolution outcome
func RecordResolution(recommendation string, seconds float64) {
	ResolutionsTotal.WithLabelValues(recommendation).Inc()
	ResolutionDuration.Observe(seconds)
}
