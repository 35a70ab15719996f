// Package runloop provides a single-goroutine serial task executor.
package runloop

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
)

var (
	// ErrAlreadyRunning is returned by Run when the loop is already
	// running on another goroutine.
	ErrAlreadyRunning = errors.New("runloop: loop already running")

	// ErrTerminated is returned by Run and Submit once shutdown has
	// begun. A terminated loop cannot be restarted.
	ErrTerminated = errors.New("runloop: loop terminated")
)

// Loop lifecycle states.
const (
	stateIdle int32 = iota
	stateRunning
	stateTerminating
	stateTerminated
)

// DefaultCapacity is the default task queue capacity.
const DefaultCapacity = 64

// Loop executes submitted tasks one at a time, in submission order, on
// the goroutine that calls Run. It satisfies feedback.Dispatcher.
type Loop struct {
	state   atomic.Int32
	submits atomic.Int32 // Submit calls between their state check and enqueue
	tasks   chan func()
	quit    chan struct{}
	done    chan struct{}

	stopOnce sync.Once
	log      *slog.Logger
}

// Option configures a Loop.
type Option func(*Loop)

// WithCapacity sets the task queue capacity. Values < 1 fall back to
// DefaultCapacity.
func WithCapacity(n int) Option {
	return func(l *Loop) {
		if n >= 1 {
			l.tasks = make(chan func(), n)
		}
	}
}

// WithLogger sets the logger used to report task panics.
func WithLogger(log *slog.Logger) Option {
	return func(l *Loop) {
		if log != nil {
			l.log = log
		}
	}
}

// New creates an idle loop. Tasks may be submitted before Run starts;
// they execute once it does.
func New(opts ...Option) *Loop {
	l := &Loop{
		tasks: make(chan func(), DefaultCapacity),
		quit:  make(chan struct{}),
		done:  make(chan struct{}),
		log:   slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Run executes tasks on the calling goroutine until Shutdown is called
// or ctx is done. It returns ErrAlreadyRunning if the loop is running
// elsewhere and ErrTerminated if it has already shut down; when ctx
// ends the loop, Run drains the queue and returns ctx.Err().
func (l *Loop) Run(ctx context.Context) error {
	if !l.state.CompareAndSwap(stateIdle, stateRunning) {
		if l.state.Load() == stateRunning {
			return ErrAlreadyRunning
		}
		return ErrTerminated
	}
	defer func() {
		l.state.Store(stateTerminated)
		close(l.done)
	}()

	for {
		select {
		case fn := <-l.tasks:
			l.exec(fn)
		case <-l.quit:
			l.drain()
			return nil
		case <-ctx.Done():
			l.beginShutdown()
			l.drain()
			return ctx.Err()
		}
	}
}

// Submit enqueues fn for execution on the loop goroutine. It never
// waits for fn to run, but may wait for queue space. It returns
// ErrTerminated once shutdown has begun; a nil return guarantees fn
// executes, by the loop or by the shutdown drain.
func (l *Loop) Submit(fn func()) error {
	if fn == nil {
		return nil
	}
	// The in-flight count keeps the shutdown drain alive until every
	// Submit that passed the state check below has either enqueued or
	// bailed; without it a task racing beginShutdown could land in the
	// buffer after the drain finished and be dropped despite the nil
	// return.
	l.submits.Add(1)
	defer l.submits.Add(-1)
	if l.state.Load() >= stateTerminating {
		return ErrTerminated
	}
	select {
	case l.tasks <- fn:
		return nil
	case <-l.quit:
		return ErrTerminated
	}
}

// Shutdown stops task intake, lets the loop drain already-queued
// tasks, and waits for the loop goroutine to exit or ctx to expire.
// On a loop that never ran, the queued tasks execute on the calling
// goroutine instead.
// It is idempotent. Calling it from a task running on the loop itself
// deadlocks unless ctx carries a deadline; a task that wants to stop
// its own loop should call Shutdown from a separate goroutine.
func (l *Loop) Shutdown(ctx context.Context) error {
	l.beginShutdown()
	select {
	case <-l.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *Loop) beginShutdown() {
	l.stopOnce.Do(func() {
		// A loop that never ran has no goroutine to drain on; tasks
		// already accepted execute here, on the shutdown caller's
		// goroutine, so the Submit guarantee still holds.
		if l.state.CompareAndSwap(stateIdle, stateTerminated) {
			close(l.quit)
			l.drain()
			close(l.done)
			return
		}
		l.state.CompareAndSwap(stateRunning, stateTerminating)
		close(l.quit)
	})
}

// drain runs every task still queued at shutdown. It runs with the
// terminating state already published, so once the queue is empty and
// no Submit is in flight, no further task can arrive: any later Submit
// sees the state and returns ErrTerminated.
func (l *Loop) drain() {
	for {
		select {
		case fn := <-l.tasks:
			l.exec(fn)
		default:
			if l.submits.Load() == 0 {
				return
			}
			runtime.Gosched()
		}
	}
}

// exec runs one task, containing panics so a bad task cannot kill the
// loop.
func (l *Loop) exec(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.log.Error("runloop task panic", "panic", r)
		}
	}()
	fn()
}
