// Package feedback provides cooperative cancellation and progress
// signaling between a controlling goroutine and long-running workers.
//
// A Feedback is created by the controller, handed by reference to one
// or more workers, and carries a single irreversible cancellation flag:
//
//   - Workers without an event loop poll IsCanceled inside their work
//     loop, or select on Done.
//   - Workers with an event loop register a listener via OnCanceled;
//     with the Via option the listener is queued onto the worker's own
//     loop instead of running on the canceling goroutine.
//
// The same object also reports progress (a percentage and a processed
// count) from the worker back to the controller.
//
// Feedback methods are safe for concurrent use. A nil *Feedback is a
// valid "never canceled" receiver for the read-side and progress
// methods, so workers can accept an optional feedback parameter without
// guarding every call.
package feedback
