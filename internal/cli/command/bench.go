// Package command provides CLI command definitions for feedback-bench.
package command

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/feedback-go/internal/telemetry/logger"
	"github.com/yndnr/feedback-go/pkg/feedback"
	"github.com/yndnr/feedback-go/pkg/runloop"
)

// PatternResult aggregates cancel-to-observe latencies for one
// consumer pattern.
type PatternResult struct {
	Pattern string        `json:"pattern"`
	Workers int           `json:"workers"`
	Rounds  int           `json:"rounds"`
	Min     time.Duration `json:"min"`
	Mean    time.Duration `json:"mean"`
	Max     time.Duration `json:"max" table:"wide"`
}

// benchPatterns maps pattern names to their worker implementations.
// Each worker blocks until it observes cancellation and returns the
// moment it did.
var benchPatterns = map[string]func(fb *feedback.Feedback) time.Time{
	"poll":     pollWorker,
	"done":     doneWorker,
	"listener": listenerWorker,
}

// BenchCommand measures how quickly each consumer pattern observes a
// cancel request.
func BenchCommand() *cli.Command {
	return &cli.Command{
		Name:  "bench",
		Usage: "Measure cancellation observe latency per consumer pattern",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "workers",
				Aliases: []string{"n"},
				Usage:   "Worker goroutines per round",
				Value:   runtime.NumCPU(),
			},
			&cli.IntFlag{
				Name:    "rounds",
				Aliases: []string{"r"},
				Usage:   "Cancel rounds per pattern",
				Value:   20,
			},
			&cli.StringFlag{
				Name:  "patterns",
				Usage: "Comma-separated patterns: poll, done, listener",
				Value: "poll,done,listener",
			},
		},
		Action: runBench,
	}
}

func runBench(c *cli.Context) error {
	workers := c.Int("workers")
	rounds := c.Int("rounds")
	if workers < 1 || rounds < 1 {
		return fmt.Errorf("workers and rounds must be >= 1")
	}

	var patterns []string
	for _, p := range strings.Split(c.String("patterns"), ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, ok := benchPatterns[p]; !ok {
			return fmt.Errorf("unknown pattern %q", p)
		}
		patterns = append(patterns, p)
	}
	if len(patterns) == 0 {
		return fmt.Errorf("no patterns selected")
	}

	log := logger.Default()
	results := make([]PatternResult, 0, len(patterns))
	for _, p := range patterns {
		log.Info("benchmarking pattern", "pattern", p, "workers", workers, "rounds", rounds)
		results = append(results, benchPattern(p, workers, rounds))
	}

	return formatterFor(c).Format(os.Stdout, results)
}

// benchPattern runs the full measurement for one pattern.
func benchPattern(pattern string, workers, rounds int) PatternResult {
	worker := benchPatterns[pattern]
	res := PatternResult{Pattern: pattern, Workers: workers, Rounds: rounds}

	var total time.Duration
	count := 0
	for round := 0; round < rounds; round++ {
		for _, lat := range benchRound(worker, workers) {
			if count == 0 || lat < res.Min {
				res.Min = lat
			}
			if lat > res.Max {
				res.Max = lat
			}
			total += lat
			count++
		}
	}
	if count > 0 {
		res.Mean = total / time.Duration(count)
	}
	return res
}

// benchRound starts the workers, cancels once they are all parked on
// the feedback, and returns each worker's observe latency.
func benchRound(worker func(*feedback.Feedback) time.Time, workers int) []time.Duration {
	fb := feedback.New()

	observed := make([]time.Time, workers)
	var ready, done sync.WaitGroup
	for i := 0; i < workers; i++ {
		ready.Add(1)
		done.Add(1)
		go func(i int) {
			defer done.Done()
			ready.Done()
			observed[i] = worker(fb)
		}(i)
	}

	ready.Wait()
	// Give the workers a beat to actually park on the flag before
	// measuring.
	time.Sleep(time.Millisecond)
	canceledAt := time.Now()
	fb.Cancel()
	done.Wait()

	latencies := make([]time.Duration, workers)
	for i, at := range observed {
		lat := at.Sub(canceledAt)
		if lat < 0 {
			lat = 0
		}
		latencies[i] = lat
	}
	return latencies
}

// pollWorker spins on IsCanceled, the no-event-loop consumer pattern.
func pollWorker(fb *feedback.Feedback) time.Time {
	for !fb.IsCanceled() {
		runtime.Gosched()
	}
	return time.Now()
}

// doneWorker parks on the Done channel.
func doneWorker(fb *feedback.Feedback) time.Time {
	<-fb.Done()
	return time.Now()
}

// listenerWorker runs its own runloop and receives the cancel
// notification as a queued dispatch onto that loop.
func listenerWorker(fb *feedback.Feedback) time.Time {
	loop := runloop.New()
	notified := make(chan time.Time, 1)
	fb.OnCanceled(func() { notified <- time.Now() }, feedback.Via(loop))

	go func() { _ = loop.Run(context.Background()) }()
	at := <-notified

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = loop.Shutdown(ctx)
	return at
}
