// Package shutdown provides graceful shutdown handling.
package shutdown

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/yndnr/feedback-go/pkg/feedback"
)

// forcedExitCode is used when a second signal arrives before the
// graceful path finishes.
const forcedExitCode = 130

// Handler handles graceful shutdown. The first SIGINT/SIGTERM starts
// the graceful path (cancel registered feedbacks, run hooks); a second
// signal forces the process out immediately.
type Handler struct {
	timeout time.Duration
	hooks   []func(context.Context) error
	mu      sync.Mutex

	sigCh   chan os.Signal
	trigger chan struct{}
	done    chan struct{}

	armOnce     sync.Once
	triggerOnce sync.Once
}

// NewHandler creates a new shutdown handler. timeout bounds hook
// execution once shutdown starts.
func NewHandler(timeout time.Duration) *Handler {
	return &Handler{
		timeout: timeout,
		hooks:   make([]func(context.Context) error, 0),
		sigCh:   make(chan os.Signal, 2),
		trigger: make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// OnShutdown registers a shutdown hook.
// Hooks are called in reverse order of registration.
func (h *Handler) OnShutdown(hook func(context.Context) error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hooks = append(h.hooks, hook)
}

// NotifyFeedback arms signal handling and cancels fb when shutdown
// triggers. The feedback sees the cancel as soon as the first signal
// arrives, before hooks run, so workers begin stopping while cleanup
// proceeds. May be called for multiple feedbacks.
func (h *Handler) NotifyFeedback(fb *feedback.Feedback) {
	h.arm()
	go func() {
		select {
		case <-h.trigger:
			fb.Cancel()
		case <-h.done:
		}
	}()
}

// Trigger starts shutdown programmatically, as if a signal had
// arrived. It is idempotent.
func (h *Handler) Trigger() {
	h.triggerOnce.Do(func() { close(h.trigger) })
}

// Wait blocks until shutdown triggers, then executes hooks in reverse
// order under the configured timeout. It returns the last hook error,
// if any.
func (h *Handler) Wait() error {
	h.arm()
	<-h.trigger

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	h.mu.Lock()
	hooks := make([]func(context.Context) error, len(h.hooks))
	copy(hooks, h.hooks)
	h.mu.Unlock()

	var lastErr error
	for i := len(hooks) - 1; i >= 0; i-- {
		if err := hooks[i](ctx); err != nil {
			lastErr = err
		}
	}

	close(h.done)
	return lastErr
}

// Done returns a channel that closes when shutdown is complete.
func (h *Handler) Done() <-chan struct{} {
	return h.done
}

// arm installs the signal handler once: the first signal triggers the
// graceful path, the second forces exit.
func (h *Handler) arm() {
	h.armOnce.Do(func() {
		signal.Notify(h.sigCh, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			select {
			case <-h.sigCh:
				h.Trigger()
			case <-h.done:
				return
			}
			select {
			case <-h.sigCh:
				os.Exit(forcedExitCode)
			case <-h.done:
			}
		}()
	})
}
