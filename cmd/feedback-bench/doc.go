// Package main provides the entry point for feedback-bench.
//
// feedback-bench is the driver binary for the feedback cancellation
// primitive: it benchmarks how quickly different consumer patterns
// observe a cancel request, and runs a simulated cancellable workload
// with live progress reporting and Prometheus metrics.
package main
