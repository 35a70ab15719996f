// Package metric provides Prometheus metrics for feedback-go.
//
// This package instruments the cancellation runtime:
//
//   - metric.go: metric registry for operation and signal counters
//   - collector.go: live-stats collector over the operation registry
//
// Exposed series cover operation lifecycle (started, completed,
// canceled, failed, active), cancellation observe latency, progress
// update volume, and listener dispatch counts. Handler() serves them
// in Prometheus exposition format.
package metric
