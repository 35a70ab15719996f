// Package benchmark provides performance benchmarks for feedback-go.
//
// Run benchmarks with:
//
//	go test -bench=. -benchmem ./internal/tests/benchmark/...
//
// Run only the cancellation hot paths:
//
//	go test -bench=BenchmarkIsCanceled -benchmem -benchtime=10s ./internal/tests/benchmark/...
//
// Generate a report for comparison:
//
//	go test -bench=. -benchmem -count=5 ./internal/tests/benchmark/... | tee benchmark.txt
//
// Compare results:
//
//	benchstat old.txt new.txt
package benchmark
