package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// LifecycleMetrics records order lifecycle activity.
type LifecycleMetrics struct {
	transitions     *prometheus.CounterVec
	cancellations   *prometheus.CounterVec
	partialFailures prometheus.Counter
	duration        *prometheus.HistogramVec
}

// NewLifecycleMetrics registers the lifecycle metrics on the provided registerer.
func NewLifecycleMetrics(reg prometheus.Registerer) *LifecycleMetrics {
	if reg == nil {
		return &LifecycleMetrics{}
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_transitions_total",
		Help: "Order status transitions by resulting status.",
	}, []string{"status"})
	cancellations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_cancellations_total",
		Help: "Order cancellations by actor type.",
	}, []string{"cancelled_by"})
	partialFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "order_partial_failures_total",
		Help: "Order mutations that committed without a ledger entry.",
	})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "order_operation_duration_seconds",
		Help:    "Duration of order service operations in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	reg.MustRegister(transitions, cancellations, partialFailures, duration)
	return &LifecycleMetrics{
		transitions:     transitions,
		cancellations:   cancellations,
		partialFailures: partialFailures,
		duration:        duration,
	}
}

// IncTransition increments the transition counter for the resulting status.
func (m *LifecycleMetrics) IncTransition(status string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(status)).Inc()
}

// IncCancellation increments the cancellation counter for the acting party.
func (m *LifecycleMetrics) IncCancellation(cancelledBy string) {
	if m == nil || m.cancellations == nil {
		return
	}
	m.cancellations.WithLabelValues(normalizeLabel(cancelledBy)).Inc()
}

// IncPartialFailure increments the partial failure counter.
func (m *LifecycleMetrics) IncPartialFailure() {
	if m == nil || m.partialFailures == nil {
		return
	}
	m.partialFailures.Inc()
}

// ObserveDuration records the duration for the named operation.
func (m *LifecycleMetrics) ObserveDuration(operation string, duration time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(operation)).Observe(duration.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
