// Package metrics provides optional Prometheus instrumentation for queues.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds Prometheus collectors updated by the queue variants.
type Metrics struct {
	ItemsSubmitted prometheus.Counter
	ItemsCompleted prometheus.Counter
	ItemsFailed    prometheus.Counter
	ItemsDropped   prometheus.Counter
	ActiveWorkers  prometheus.Gauge
	HandlerLatency prometheus.Histogram
}

// New creates metrics and registers them on the default registerer.
func New(namespace, subsystem string) *Metrics {
	return NewOn(prometheus.DefaultRegisterer, namespace, subsystem)
}

// NewOn creates metrics and registers them on the given registerer.
// Tests pass a fresh prometheus.NewRegistry to avoid collisions.
func NewOn(reg prometheus.Registerer, namespace, subsystem string) *Metrics {
	m := &Metrics{
		ItemsSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "items_submitted_total",
			Help:      "Total number of items admitted into the queue",
		}),
		ItemsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "items_completed_total",
			Help:      "Total number of items handled successfully",
		}),
		ItemsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "items_failed_total",
			Help:      "Total number of items whose handler returned an error",
		}),
		ItemsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "items_dropped_total",
			Help:      "Total number of items rejected at Push",
		}),
		ActiveWorkers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "active_workers",
			Help:      "Current number of live worker goroutines",
		}),
		HandlerLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "handler_latency_seconds",
			Help:      "Histogram of handler execution latency",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(
		m.ItemsSubmitted,
		m.ItemsCompleted,
		m.ItemsFailed,
		m.ItemsDropped,
		m.ActiveWorkers,
		m.HandlerLatency,
	)
	return m
}

// Submitted records an admitted item. Nil-safe.
func (m *Metrics) Submitted() {
	if m != nil {
		m.ItemsSubmitted.Inc()
	}
}

// Dropped records an item rejected at Push. Nil-safe.
func (m *Metrics) Dropped() {
	if m != nil {
		m.ItemsDropped.Inc()
	}
}

// Completed records a successful handler invocation. Nil-safe.
func (m *Metrics) Completed(latencySeconds float64) {
	if m != nil {
		m.ItemsCompleted.Inc()
		m.HandlerLatency.Observe(latencySeconds)
	}
}

// Failed records a failed handler invocation. Nil-safe.
func (m *Metrics) Failed(latencySeconds float64) {
	if m != nil {
		m.ItemsFailed.Inc()
		m.HandlerLatency.Observe(latencySeconds)
	}
}

// WorkerUp records a worker goroutine starting. Nil-safe.
func (m *Metrics) WorkerUp() {
	if m != nil {
		m.ActiveWorkers.Inc()
	}
}

// WorkerDown records a worker goroutine exiting. Nil-safe.
func (m *Metrics) WorkerDown() {
	if m != nil {
		m.ActiveWorkers.Dec()
	}
}
