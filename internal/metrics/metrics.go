// Package metrics exposes Prometheus metrics for ledger operations.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcomes of an operation
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Metrics holds the collectors for ledger operations.
//
// All methods can be called on a nil *Metrics, they do nothing then.
type Metrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	lockWait   prometheus.Histogram
}

// New creates the collectors. They are not registered with any registry.
func New() *Metrics {
	return &Metrics{
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_operations_total",
				Help: "How many ledger operations were processed, partitioned by operation and outcome.",
			},
			[]string{"operation", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "ledger_operation_duration_seconds",
				Help: "The ledger operation latencies in seconds.",
			},
			[]string{"operation"},
		),
		lockWait: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name: "ledger_lock_wait_seconds",
				Help: "Time spent waiting for the envelope lock in seconds.",
			},
		),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{m.operations, m.duration, m.lockWait}
}

// Register registers all collectors with reg.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.collectors() {
		if err := reg.Register(c); err != nil {
			return fmt.Errorf("could not register %s with Prometheus: %w", c, err)
		}
	}

	return nil
}

// Unregister removes all collectors from reg.
func (m *Metrics) Unregister(reg prometheus.Registerer) bool {
	ok := true
	for _, c := range m.collectors() {
		ok = reg.Unregister(c) && ok
	}

	return ok
}

// ObserveOperation counts one operation and records how long it took.
func (m *Metrics) ObserveOperation(operation string, err error, elapsed time.Duration) {
	if m == nil {
		return
	}

	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeError
	}

	m.operations.WithLabelValues(operation, outcome).Inc()
	m.duration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// ObserveLockWait records how long an operation waited for an envelope lock.
func (m *Metrics) ObserveLockWait(elapsed time.Duration) {
	if m == nil {
		return
	}

	m.lockWait.Observe(elapsed.Seconds())
}
