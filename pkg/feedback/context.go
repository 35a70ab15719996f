// Package feedback provides cooperative cancellation and progress signaling.
package feedback

import (
	"context"
	"sync"
)

// Bind cancels the feedback when ctx is done. The returned stop
// function releases the watcher goroutine early; calling it is
// optional once either side has fired, and always safe.
//
// Bind lets context-driven code (HTTP handlers, RPC servers) drive
// feedback-based workers.
func (f *Feedback) Bind(ctx context.Context) (stop func()) {
	if f == nil || ctx == nil {
		return func() {}
	}
	if err := ctx.Err(); err != nil {
		f.Cancel()
		return func() {}
	}

	quit := make(chan struct{})
	var once sync.Once
	go func() {
		select {
		case <-ctx.Done():
			f.Cancel()
		case <-f.done:
		case <-quit:
		}
	}()
	return func() {
		once.Do(func() { close(quit) })
	}
}

// Context derives a context from parent that is canceled when the
// feedback is canceled (in addition to parent's own cancellation).
// The returned CancelFunc must be called to release resources, as with
// context.WithCancel.
//
// Context lets feedback-driven workers call context-based APIs.
func (f *Feedback) Context(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	if f == nil {
		return ctx, cancel
	}
	if f.IsCanceled() {
		cancel()
		return ctx, cancel
	}
	go func() {
		select {
		case <-f.done:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

// Follow propagates cancellation from parent to child, forming a
// cancellation tree: canceling the parent cancels every follower,
// while canceling a child leaves the parent alone. If the parent is
// already canceled the child is canceled before Follow returns. The
// returned stop function detaches the child.
func Follow(parent, child *Feedback) (stop func()) {
	if parent == nil || child == nil {
		return func() {}
	}
	return parent.OnCanceled(child.Cancel)
}
