// Package metric provides Prometheus metrics for feedback-go.
package metric

import "github.com/prometheus/client_golang/prometheus"

// LiveStats is the view of the runner's operation registry the
// collector scrapes. runner.Registry satisfies it.
type LiveStats interface {
	// Len returns the number of live (registered, not yet finished)
	// operations.
	Len() int
}

// Collector exports point-in-time registry stats on scrape, without
// the runner having to push gauge updates.
type Collector struct {
	stats LiveStats
	desc  *prometheus.Desc
}

// NewCollector creates a collector over the given stats source.
func NewCollector(stats LiveStats) *Collector {
	return &Collector{
		stats: stats,
		desc: prometheus.NewDesc(
			Namespace+"_registry_live_operations",
			"Number of operations currently tracked by the registry.",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.desc
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(
		c.desc, prometheus.GaugeValue, float64(c.stats.Len()),
	)
}
