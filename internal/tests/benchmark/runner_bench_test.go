package benchmark

import (
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/yndnr/feedback-go/internal/runner"
	"github.com/yndnr/feedback-go/internal/telemetry/logger"
	"github.com/yndnr/feedback-go/pkg/feedback"
)

func quietRunner(concurrency int) *runner.Runner {
	log, _ := logger.New(logger.Config{Level: "error", Format: "json", Output: io.Discard})
	return runner.New(
		runner.WithConcurrency(concurrency),
		runner.WithLogger(log),
	)
}

// BenchmarkRunnerRun measures per-operation overhead (registry, child
// feedback, outcome mapping) with a no-op body.
func BenchmarkRunnerRun(b *testing.B) {
	for _, ops := range []int{1, 8, 64} {
		b.Run(fmt.Sprintf("ops_%d", ops), func(b *testing.B) {
			r := quietRunner(8)
			batch := make([]runner.Operation, ops)
			for i := range batch {
				batch[i] = runner.NewOperation("noop",
					func(context.Context, *feedback.Feedback) error { return nil })
			}

			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := r.Run(context.Background(), nil, batch...); err != nil {
					b.Fatalf("Run: %v", err)
				}
			}
		})
	}
}

// BenchmarkRegistryCancelAll measures fan-out cancellation cost over a
// populated registry.
func BenchmarkRegistryCancelAll(b *testing.B) {
	for _, count := range []int{10, 100, 1000} {
		b.Run(fmt.Sprintf("live_%d", count), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				b.StopTimer()
				r := quietRunner(count)
				ops := make([]runner.Operation, count)
				started := make(chan struct{}, count)
				for j := range ops {
					ops[j] = runner.NewOperation("parked",
						func(_ context.Context, fb *feedback.Feedback) error {
							started <- struct{}{}
							<-fb.Done()
							return fb.Err()
						})
				}
				done := make(chan struct{})
				go func() {
					_, _ = r.Run(context.Background(), nil, ops...)
					close(done)
				}()
				for j := 0; j < count; j++ {
					<-started
				}
				b.StartTimer()

				r.Registry().CancelAll()
				<-done
			}
		})
	}
}
