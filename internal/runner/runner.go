// Package runner executes long-running cancellable operations.
package runner

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/yndnr/feedback-go/internal/telemetry/logger"
	"github.com/yndnr/feedback-go/internal/telemetry/metric"
	"github.com/yndnr/feedback-go/pkg/feedback"
)

var (
	// ErrNoOperations is returned by Run when called with nothing to do.
	ErrNoOperations = errors.New("runner: no operations to run")

	// ErrRunnerClosed is returned by Run after Close.
	ErrRunnerClosed = errors.New("runner: runner closed")
)

// OpFunc is the body of a cancellable operation. It must poll fb (or
// register a listener on it) and return feedback.ErrCanceled, possibly
// wrapped, when it stops on cancellation.
type OpFunc func(ctx context.Context, fb *feedback.Feedback) error

// Operation is one unit of cancellable work.
type Operation struct {
	ID   string
	Name string
	Fn   OpFunc
}

// NewOperation creates an operation with a fresh "op-" prefixed ULID.
func NewOperation(name string, fn OpFunc) Operation {
	return Operation{
		ID:   "op-" + ulid.Make().String(),
		Name: name,
		Fn:   fn,
	}
}

// Outcome classifies how an operation ended.
type Outcome string

const (
	// OutcomeCompleted means the operation ran to the end.
	OutcomeCompleted Outcome = "completed"
	// OutcomeCanceled means the operation stopped on a cancel request.
	OutcomeCanceled Outcome = "canceled"
	// OutcomeFailed means the operation returned a non-cancellation
	// error or panicked.
	OutcomeFailed Outcome = "failed"
)

// Result reports one operation's ending.
type Result struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Outcome  Outcome       `json:"outcome"`
	Duration time.Duration `json:"duration" table:"wide"`
	Error    string        `json:"error,omitempty"`
}

// DefaultConcurrency is the default limit on operations running at
// once.
const DefaultConcurrency = 4

// Runner runs operations with bounded concurrency, per-operation
// feedback fan-out, and outcome classification.
type Runner struct {
	limit        int
	progressRate rate.Limit
	log          logger.Logger
	metrics      *metric.Registry
	registry     *Registry
	closed       atomic.Bool
}

// Option configures a Runner.
type Option func(*Runner)

// WithConcurrency bounds how many operations run at once. Values < 1
// fall back to DefaultConcurrency.
func WithConcurrency(n int) Option {
	return func(r *Runner) {
		if n >= 1 {
			r.limit = n
		}
	}
}

// WithLogger sets the runner's logger.
func WithLogger(log logger.Logger) Option {
	return func(r *Runner) {
		if log != nil {
			r.log = log
		}
	}
}

// WithMetrics sets the metrics registry the runner reports into.
func WithMetrics(m *metric.Registry) Option {
	return func(r *Runner) {
		if m != nil {
			r.metrics = m
		}
	}
}

// WithProgressLogRate caps progress log lines per operation to
// perSecond. Progress metrics are unaffected.
func WithProgressLogRate(perSecond float64) Option {
	return func(r *Runner) {
		if perSecond > 0 {
			r.progressRate = rate.Limit(perSecond)
		}
	}
}

// New creates a Runner.
func New(opts ...Option) *Runner {
	r := &Runner{
		limit:        DefaultConcurrency,
		progressRate: rate.Limit(2),
		log:          logger.Default(),
		metrics:      metric.NewRegistry(),
		registry:     NewRegistry(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Registry returns the live-operation registry, for targeted
// cancellation and stats export.
func (r *Runner) Registry() *Registry {
	return r.registry
}

// Close marks the runner closed and cancels every live operation.
// Run calls already in flight drain normally; new ones fail with
// ErrRunnerClosed.
func (r *Runner) Close() {
	if r.closed.CompareAndSwap(false, true) {
		r.registry.CancelAll()
	}
}

// Run executes ops under the run-wide feedback fb and returns one
// Result per operation, in input order. A nil fb disables controller
// cancellation; ctx cancellation still cancels each operation's
// feedback. Run never fails because an operation failed; per-operation
// faults land in the Results.
func (r *Runner) Run(ctx context.Context, fb *feedback.Feedback, ops ...Operation) ([]Result, error) {
	if r.closed.Load() {
		return nil, ErrRunnerClosed
	}
	if len(ops) == 0 {
		return nil, ErrNoOperations
	}

	results := make([]Result, len(ops))
	g := new(errgroup.Group)
	g.SetLimit(r.limit)
	for i, op := range ops {
		g.Go(func() error {
			results[i] = r.runOne(ctx, fb, op)
			return nil
		})
	}
	_ = g.Wait()
	return results, nil
}

// runOne executes a single operation with its own child feedback.
func (r *Runner) runOne(ctx context.Context, parent *feedback.Feedback, op Operation) Result {
	if op.ID == "" {
		op.ID = "op-" + ulid.Make().String()
	}
	log := r.log.With("operation_id", op.ID, "operation", op.Name)

	child := feedback.New()
	unfollow := feedback.Follow(parent, child)
	defer unfollow()
	unbind := child.Bind(ctx)
	defer unbind()

	// Stamp the moment cancellation reached this operation so the
	// observe latency can be measured when the worker actually stops.
	var canceledAt atomic.Int64
	child.OnCanceled(func() {
		canceledAt.Store(time.Now().UnixNano())
		r.metrics.ListenerDispatches.Inc()
	})

	lim := rate.NewLimiter(r.progressRate, 1)
	child.OnProgress(func(pct float64) {
		r.metrics.ProgressUpdates.Inc()
		if lim.Allow() {
			log.Debug("operation progress",
				"percent", pct,
				"processed", child.Processed())
		}
	})

	r.registry.add(op, child)
	defer r.registry.remove(op.ID)

	r.metrics.OpsStarted.Inc()
	r.metrics.OpsActive.Inc()
	defer r.metrics.OpsActive.Dec()

	log.Debug("operation starting")
	start := time.Now()

	var err error
	if child.IsCanceled() {
		// Canceled before it ever ran; report the canceled outcome
		// without invoking the body.
		err = feedback.ErrCanceled
	} else {
		err = invoke(ctx, child, op)
	}
	dur := time.Since(start)

	res := Result{ID: op.ID, Name: op.Name, Duration: dur}
	switch {
	case err == nil:
		res.Outcome = OutcomeCompleted
		r.metrics.OpsCompleted.Inc()
		log.Info("operation completed", "duration", dur)
	case errors.Is(err, feedback.ErrCanceled) || errors.Is(err, context.Canceled):
		res.Outcome = OutcomeCanceled
		res.Error = err.Error()
		r.metrics.OpsCanceled.Inc()
		if at := canceledAt.Load(); at != 0 {
			r.metrics.CancelObserveSeconds.Observe(
				time.Since(time.Unix(0, at)).Seconds())
		}
		log.Info("operation canceled", "duration", dur)
	default:
		res.Outcome = OutcomeFailed
		res.Error = err.Error()
		r.metrics.OpsFailed.Inc()
		log.Error("operation failed", "error", err, "duration", dur)
	}
	return res
}

// invoke runs the operation body, converting a panic into a failure
// instead of taking down the whole run.
func invoke(ctx context.Context, fb *feedback.Feedback, op Operation) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("operation panic: %v", p)
		}
	}()
	return op.Fn(logger.WithOperationID(ctx, op.ID), fb)
}
