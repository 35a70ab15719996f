// Package runner executes long-running cancellable operations.
//
// Each operation receives its own feedback, which follows the run-wide
// feedback handed to Run: one Cancel from the controller fans out to
// every operation still executing. Results distinguish a canceled stop
// from a real fault, so callers can tell "stopped because it was told
// to" from "stopped because it broke".
//
// Operations are opaque functions; the runner imposes no semantics on
// the work they do. Live operations are tracked in a sharded registry
// that supports targeted and bulk cancellation.
package runner
