// Package command provides CLI command definitions for feedback-bench.
//
// It uses urfave/cli/v2 for command parsing. Commands:
//
//   - bench: measure cancellation observe latency per consumer pattern
//   - work: run a simulated cancellable workload with live progress
//   - version: print build information
package command
