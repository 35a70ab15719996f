// Package shutdown provides graceful shutdown for feedback-go.
//
// This package handles process termination:
//
//   - Signal handling (SIGINT, SIGTERM)
//   - Feedback cancellation on the first signal, forced exit on the second
//   - Timeout-bounded cleanup hook execution
//   - Shutdown coordination via a done channel
//
// Usage:
//
//	h := shutdown.NewHandler(30 * time.Second)
//	h.NotifyFeedback(fb)         // first signal cancels fb
//	h.OnShutdown(closeThings)    // hooks run LIFO
//	err := h.Wait()              // blocks for signal, runs hooks
package shutdown
