// Package feedback provides cooperative cancellation and progress signaling.
package feedback

import (
	"errors"
	"math"
	"sync"
	"sync/atomic"
)

// ErrCanceled is reported by an operation that stopped because its
// feedback was canceled, as opposed to failing on its own.
// Workers should return it (or wrap it) so callers can tell
// "stopped because it was told to" from a real fault.
var ErrCanceled = errors.New("feedback: operation canceled")

// Dispatcher delivers a listener callback onto its owner's execution
// context instead of the canceling goroutine. runloop.Loop satisfies it.
type Dispatcher interface {
	// Submit enqueues fn for execution. It must be safe for concurrent
	// use and must not wait for fn to run.
	Submit(fn func()) error
}

// neverDone is returned by Done on a nil receiver.
var neverDone = make(chan struct{})

// Feedback is a cancellation token shared between one controller and
// any number of workers. The controller calls Cancel; workers poll
// IsCanceled, select on Done, or register listeners via OnCanceled.
//
// The cancellation flag is monotonic: once set it never resets, and
// every registered cancel listener fires exactly once.
type Feedback struct {
	canceled atomic.Bool
	done     chan struct{}

	mu       sync.Mutex
	nextID   uint64
	onCancel listeners[struct{}]
	onProg   listeners[float64]
	onCount  listeners[uint64]

	progressBits atomic.Uint64 // float64 percent in [0,100]
	processed    atomic.Uint64
}

// New returns a live, unregistered feedback with progress 0.
func New() *Feedback {
	return &Feedback{done: make(chan struct{})}
}

// Cancel requests cancellation. The first call flips the flag and
// notifies every registered cancel listener exactly once, in
// registration order; later or concurrent calls are no-ops.
//
// Cancel is fire-and-forget: it does not wait for workers to observe
// the flag. Direct listeners run on the calling goroutine; listeners
// registered with Via are submitted to their dispatcher.
func (f *Feedback) Cancel() {
	if f == nil {
		return
	}
	if !f.canceled.CompareAndSwap(false, true) {
		return
	}
	close(f.done)

	f.mu.Lock()
	subs := f.onCancel.take()
	f.mu.Unlock()

	for _, s := range subs {
		s.dispatch(struct{}{})
	}
}

// IsCanceled reports whether Cancel has been called. It never blocks
// and is safe from any goroutine; observing true establishes
// happens-before with everything the canceling goroutine did first.
func (f *Feedback) IsCanceled() bool {
	return f != nil && f.canceled.Load()
}

// Done returns a channel closed when the feedback is canceled, for
// select-based consumers. On a nil receiver it returns a channel that
// is never closed.
func (f *Feedback) Done() <-chan struct{} {
	if f == nil {
		return neverDone
	}
	return f.done
}

// Err returns nil while the feedback is live and ErrCanceled after
// cancellation, mirroring context.Context.Err.
func (f *Feedback) Err() error {
	if f.IsCanceled() {
		return ErrCanceled
	}
	return nil
}

// OnCanceled registers fn to run when the feedback is canceled. If
// cancellation already happened, fn is delivered immediately from this
// call (there is no window in which a late registration misses the
// notification). The returned remove function unregisters fn; it is
// idempotent and a no-op once the listener has fired.
//
// A panic in fn is contained: it neither disturbs the flag nor stops
// other listeners from firing.
func (f *Feedback) OnCanceled(fn func(), opts ...ListenOption) (remove func()) {
	if f == nil || fn == nil {
		return func() {}
	}
	sub := newListener(func(struct{}) { fn() }, opts)

	f.mu.Lock()
	if f.canceled.Load() {
		f.mu.Unlock()
		sub.dispatch(struct{}{})
		return func() {}
	}
	f.nextID++
	sub.id = f.nextID
	f.onCancel.add(sub)
	f.mu.Unlock()

	return func() {
		f.mu.Lock()
		f.onCancel.remove(sub.id)
		f.mu.Unlock()
	}
}

// SetProgress records the worker's progress as a percentage, clamped
// to [0,100]. Progress listeners are notified only when the stored
// value actually changes. Intended to be called from the worker.
func (f *Feedback) SetProgress(pct float64) {
	if f == nil {
		return
	}
	switch {
	case pct < 0 || math.IsNaN(pct):
		pct = 0
	case pct > 100:
		pct = 100
	}
	for {
		old := f.progressBits.Load()
		if math.Float64frombits(old) == pct {
			return
		}
		if f.progressBits.CompareAndSwap(old, math.Float64bits(pct)) {
			break
		}
	}

	f.mu.Lock()
	subs := f.onProg.snapshot()
	f.mu.Unlock()

	for _, s := range subs {
		s.dispatch(pct)
	}
}

// Progress returns the last value passed to SetProgress, in [0,100].
func (f *Feedback) Progress() float64 {
	if f == nil {
		return 0
	}
	return math.Float64frombits(f.progressBits.Load())
}

// OnProgress registers fn to run on every progress change. Unlike
// cancel listeners it may fire many times. The returned remove
// function unregisters fn.
func (f *Feedback) OnProgress(fn func(pct float64), opts ...ListenOption) (remove func()) {
	if f == nil || fn == nil {
		return func() {}
	}
	sub := newListener(fn, opts)

	f.mu.Lock()
	f.nextID++
	sub.id = f.nextID
	f.onProg.add(sub)
	f.mu.Unlock()

	return func() {
		f.mu.Lock()
		f.onProg.remove(sub.id)
		f.mu.Unlock()
	}
}

// SetProcessed records the absolute number of items the worker has
// handled and notifies processed-count listeners when it changes.
func (f *Feedback) SetProcessed(n uint64) {
	if f == nil {
		return
	}
	if f.processed.Swap(n) == n {
		return
	}
	f.notifyProcessed(n)
}

// AddProcessed adds delta to the processed count and returns the new
// total.
func (f *Feedback) AddProcessed(delta uint64) uint64 {
	if f == nil {
		return 0
	}
	n := f.processed.Add(delta)
	if delta != 0 {
		f.notifyProcessed(n)
	}
	return n
}

// Processed returns the current processed count.
func (f *Feedback) Processed() uint64 {
	if f == nil {
		return 0
	}
	return f.processed.Load()
}

// OnProcessed registers fn to run on every processed-count change.
// The returned remove function unregisters fn.
func (f *Feedback) OnProcessed(fn func(n uint64), opts ...ListenOption) (remove func()) {
	if f == nil || fn == nil {
		return func() {}
	}
	sub := newListener(fn, opts)

	f.mu.Lock()
	f.nextID++
	sub.id = f.nextID
	f.onCount.add(sub)
	f.mu.Unlock()

	return func() {
		f.mu.Lock()
		f.onCount.remove(sub.id)
		f.mu.Unlock()
	}
}

func (f *Feedback) notifyProcessed(n uint64) {
	f.mu.Lock()
	subs := f.onCount.snapshot()
	f.mu.Unlock()

	for _, s := range subs {
		s.dispatch(n)
	}
}
