package ecs

import (
	"github.com/prometheus/client_golang/prometheus"
)

// metricsCollector is the optional observability surface for a World's
// scheduler loop. It is nil unless WithMetrics is passed to NewWorld, in
// which case every metric is on the hot path of Run but none of it is
// required for correctness.
type metricsCollector struct {
	iterationDuration prometheus.Histogram
	groupUpdateWait   prometheus.Gauge
	triggeredEvents   *prometheus.CounterVec
}

func newMetricsCollector(worldName string, reg prometheus.Registerer) *metricsCollector {
	c := &metricsCollector{
		iterationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   "tef",
			Subsystem:   "world",
			Name:        "iteration_duration_seconds",
			Help:        "Wall-clock duration of one World loop iteration.",
			ConstLabels: prometheus.Labels{"world": worldName},
			Buckets:     prometheus.DefBuckets,
		}),
		groupUpdateWait: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "tef",
			Subsystem:   "world",
			Name:        "group_update_wait_seconds",
			Help:        "Time spent waiting on worker-backed systems in the last priority group update.",
			ConstLabels: prometheus.Labels{"world": worldName},
		}),
		triggeredEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "tef",
			Subsystem:   "world",
			Name:        "triggered_events_total",
			Help:        "Number of OnTrigger invocations, by event kind.",
			ConstLabels: prometheus.Labels{"world": worldName},
		}, []string{"kind"}),
	}
	reg.MustRegister(c.iterationDuration, c.groupUpdateWait, c.triggeredEvents)
	return c
}
