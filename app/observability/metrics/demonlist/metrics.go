// Package demonlistmetrics records demon list service metrics.
package demonlistmetrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// DemonListMetrics is the metrics surface used by the demon list service and workers.
type DemonListMetrics interface {
	RecordOperationAttempt(ctx context.Context, operation, service string)
	RecordOperationSuccess(ctx context.Context, operation, service string)
	RecordOperationFailure(ctx context.Context, operation, service string)
	RecordOperationDuration(ctx context.Context, operation, service string, duration time.Duration)
	// RecordTierMoves counts levels that crossed the tier boundary in one change.
	RecordTierMoves(ctx context.Context, moves int)
	// RecordStoreOp counts one applied store operation by kind and reason.
	RecordStoreOp(ctx context.Context, kind, reason string)
}

type prometheusMetrics struct {
	attempts  *prometheus.CounterVec
	successes *prometheus.CounterVec
	failures  *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	moves     prometheus.Counter
	storeOps  *prometheus.CounterVec
}

// NewPrometheus registers the demon list collectors on reg.
func NewPrometheus(reg prometheus.Registerer) (DemonListMetrics, error) {
	m := &prometheusMetrics{
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "demonlist",
			Name:      "operation_attempts_total",
			Help:      "Service operations started.",
		}, []string{"operation", "service"}),
		successes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "demonlist",
			Name:      "operation_success_total",
			Help:      "Service operations that returned without an infrastructure error.",
		}, []string{"operation", "service"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "demonlist",
			Name:      "operation_failures_total",
			Help:      "Service operations that failed or panicked.",
		}, []string{"operation", "service"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "demonlist",
			Name:      "operation_duration_seconds",
			Help:      "Service operation latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation", "service"}),
		moves: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "demonlist",
			Name:      "tier_moves_total",
			Help:      "Levels moved between the active and reserve tiers.",
		}),
		storeOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "demonlist",
			Name:      "store_ops_total",
			Help:      "Store operations applied while reconciling tiers.",
		}, []string{"kind", "reason"}),
	}

	for _, c := range []prometheus.Collector{m.attempts, m.successes, m.failures, m.duration, m.moves, m.storeOps} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *prometheusMetrics) RecordOperationAttempt(_ context.Context, operation, service string) {
	m.attempts.WithLabelValues(operation, service).Inc()
}

func (m *prometheusMetrics) RecordOperationSuccess(_ context.Context, operation, service string) {
	m.successes.WithLabelValues(operation, service).Inc()
}

func (m *prometheusMetrics) RecordOperationFailure(_ context.Context, operation, service string) {
	m.failures.WithLabelValues(operation, service).Inc()
}

func (m *prometheusMetrics) RecordOperationDuration(_ context.Context, operation, service string, duration time.Duration) {
	m.duration.WithLabelValues(operation, service).Observe(duration.Seconds())
}

func (m *prometheusMetrics) RecordTierMoves(_ context.Context, moves int) {
	if moves > 0 {
		m.moves.Add(float64(moves))
	}
}

func (m *prometheusMetrics) RecordStoreOp(_ context.Context, kind, reason string) {
	m.storeOps.WithLabelValues(kind, reason).Inc()
}
