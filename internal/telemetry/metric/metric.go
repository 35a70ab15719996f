// Package metric provides Prometheus metrics for feedback-go.
package metric

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace is the prefix shared by all exported series.
const Namespace = "feedback"

// Registry holds all application metrics, backed by a dedicated
// prometheus.Registry so tests and embedders never collide on the
// global default registerer.
type Registry struct {
	reg *prometheus.Registry

	// Operation lifecycle
	OpsActive    prometheus.Gauge
	OpsStarted   prometheus.Counter
	OpsCompleted prometheus.Counter
	OpsCanceled  prometheus.Counter
	OpsFailed    prometheus.Counter

	// Cancellation signal
	CancelObserveSeconds prometheus.Histogram
	ListenerDispatches   prometheus.Counter

	// Progress reporting
	ProgressUpdates prometheus.Counter
}

// NewRegistry creates a new metrics registry with all series
// registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Registry{
		reg: reg,
		OpsActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "operations_active",
			Help:      "Number of operations currently running.",
		}),
		OpsStarted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "operations_started_total",
			Help:      "Total operations started.",
		}),
		OpsCompleted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "operations_completed_total",
			Help:      "Total operations that ran to completion.",
		}),
		OpsCanceled: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "operations_canceled_total",
			Help:      "Total operations that stopped on cancellation.",
		}),
		OpsFailed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "operations_failed_total",
			Help:      "Total operations that returned a non-cancellation error.",
		}),
		CancelObserveSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "cancel_observe_seconds",
			Help:      "Latency between a cancel request and the worker observing it.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 14), // 100µs .. ~1.6s
		}),
		ListenerDispatches: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "listener_dispatches_total",
			Help:      "Total cancel listener callbacks dispatched.",
		}),
		ProgressUpdates: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "progress_updates_total",
			Help:      "Total progress changes reported by workers.",
		}),
	}
}

// MustRegister adds extra collectors (e.g. the live-stats Collector)
// to the registry.
func (r *Registry) MustRegister(cs ...prometheus.Collector) {
	r.reg.MustRegister(cs...)
}

// Handler returns an HTTP handler serving the /metrics endpoint for
// this registry.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// Gather exposes the underlying gatherer, mainly for tests.
func (r *Registry) Gather() prometheus.Gatherer {
	return r.reg
}
