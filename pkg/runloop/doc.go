// Package runloop provides a minimal serial task executor owned by a
// single goroutine.
//
// A Loop is the queued-dispatch substrate for event-driven feedback
// consumers: tasks submitted from any goroutine execute one at a time,
// in submission order, on the goroutine that called Run. Registering a
// cancel listener with feedback.Via(loop) therefore delivers the
// notification on the worker's own loop instead of the canceling
// goroutine.
//
// The loop runs through four states: idle, running, terminating and
// terminated. Run may be called once; Shutdown stops intake, drains
// the queued tasks and waits for the loop goroutine to exit.
package runloop
