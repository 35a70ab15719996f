// Package feedback provides cooperative cancellation and progress signaling.
package feedback

import "slices"

// ListenOption configures a listener registration.
type ListenOption func(*listenConfig)

type listenConfig struct {
	via Dispatcher
}

// Via makes the listener a queued dispatch: instead of running on the
// goroutine that triggers it, the callback is submitted to d and runs
// on d's own execution context. Use it when the listener belongs to an
// event loop and must not be reentered from a foreign goroutine.
func Via(d Dispatcher) ListenOption {
	return func(c *listenConfig) {
		c.via = d
	}
}

// listener is one registration: a callback plus its optional dispatcher.
type listener[T any] struct {
	id  uint64
	fn  func(T)
	via Dispatcher
}

func newListener[T any](fn func(T), opts []ListenOption) listener[T] {
	var c listenConfig
	for _, opt := range opts {
		opt(&c)
	}
	return listener[T]{fn: fn, via: c.via}
}

// dispatch delivers v to the listener, directly or via its dispatcher.
// Panics in the callback are contained per listener. A Submit error
// (dispatcher already terminated) drops the delivery; the listener's
// loop is gone, there is nowhere left to deliver to.
func (l listener[T]) dispatch(v T) {
	if l.via != nil {
		_ = l.via.Submit(func() { safeCall(l.fn, v) })
		return
	}
	safeCall(l.fn, v)
}

func safeCall[T any](fn func(T), v T) {
	defer func() {
		_ = recover()
	}()
	fn(v)
}

// listeners is an ordered registration list. All mutation happens under
// the owning Feedback's mutex.
type listeners[T any] struct {
	subs []listener[T]
}

func (l *listeners[T]) add(s listener[T]) {
	l.subs = append(l.subs, s)
}

func (l *listeners[T]) remove(id uint64) {
	l.subs = slices.DeleteFunc(l.subs, func(s listener[T]) bool {
		return s.id == id
	})
}

// snapshot returns a copy for dispatch outside the lock, preserving
// registration order.
func (l *listeners[T]) snapshot() []listener[T] {
	return slices.Clone(l.subs)
}

// take returns the current registrations and clears the list; used for
// the one-shot cancel notification.
func (l *listeners[T]) take() []listener[T] {
	subs := l.subs
	l.subs = nil
	return subs
}
