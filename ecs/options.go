package ecs

import "github.com/prometheus/client_golang/prometheus"

// Option configures optional, non-required World behavior.
type Option func(*World)

// WithMetrics registers a small set of prometheus metrics (iteration
// duration, per-group update wait, triggered-event counts) against reg.
// Omitting this option keeps metrics collection off the hot path
// entirely.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(w *World) {
		w.metrics = newMetricsCollector(w.name, reg)
	}
}
