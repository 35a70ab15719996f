// Package command provides CLI command definitions for feedback-bench.
package command

import (
	"context"
	"fmt"
	"math/rand/v2"
	"net/http"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/feedback-go/internal/cli/output"
	"github.com/yndnr/feedback-go/internal/infra/confloader"
	"github.com/yndnr/feedback-go/internal/infra/shutdown"
	"github.com/yndnr/feedback-go/internal/runner"
	"github.com/yndnr/feedback-go/internal/telemetry/logger"
	"github.com/yndnr/feedback-go/internal/telemetry/metric"
	"github.com/yndnr/feedback-go/pkg/feedback"
)

// workConfig is the configuration for the work command, loadable from
// file and FEEDBACK_ environment variables.
type workConfig struct {
	Work struct {
		Workers      int    `koanf:"workers"`
		Steps        int    `koanf:"steps"`
		StepDuration string `koanf:"step_duration"`
		JitterPct    int    `koanf:"jitter_pct"`
		Concurrency  int    `koanf:"concurrency"`
	} `koanf:"work"`
	Metrics struct {
		Enabled bool   `koanf:"enabled"`
		Address string `koanf:"address"`
	} `koanf:"metrics"`
	Log struct {
		Level string `koanf:"level"`
	} `koanf:"log"`
}

func defaultWorkConfig() workConfig {
	var cfg workConfig
	cfg.Work.Workers = 4
	cfg.Work.Steps = 200
	cfg.Work.StepDuration = "25ms"
	cfg.Work.JitterPct = 20
	cfg.Work.Concurrency = 4
	cfg.Metrics.Address = "localhost:9190"
	cfg.Log.Level = "info"
	return cfg
}

// WorkCommand runs a simulated long-running workload under a single
// controller feedback: SIGINT cancels every worker, a summary of
// per-operation outcomes is printed on the way out.
func WorkCommand() *cli.Command {
	return &cli.Command{
		Name:  "work",
		Usage: "Run a simulated cancellable workload (Ctrl-C cancels)",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML configuration file",
				EnvVars: []string{"FEEDBACK_CONFIG"},
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Override work.workers from config",
			},
		},
		Action: runWork,
	}
}

func runWork(c *cli.Context) error {
	cfg, err := loadWorkConfig(c)
	if err != nil {
		return err
	}
	stepDur, err := time.ParseDuration(cfg.Work.StepDuration)
	if err != nil {
		return fmt.Errorf("parse work.step_duration: %w", err)
	}

	logger.SetLevel(cfg.Log.Level)
	log := logger.Default()

	metrics := metric.NewRegistry()
	run := runner.New(
		runner.WithConcurrency(cfg.Work.Concurrency),
		runner.WithLogger(log),
		runner.WithMetrics(metrics),
	)
	metrics.MustRegister(metric.NewCollector(run.Registry()))

	h := shutdown.NewHandler(10 * time.Second)

	if cfg.Metrics.Enabled {
		srv := &http.Server{Addr: cfg.Metrics.Address, Handler: metricsMux(metrics)}
		go func() {
			log.Info("metrics endpoint listening", "addr", cfg.Metrics.Address)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error("metrics server failed", "error", err)
			}
		}()
		h.OnShutdown(func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		})
	}

	// Watch the config file so the log level can change mid-run.
	if path := c.String("config"); path != "" {
		watcher, werr := confloader.NewWatcher(confloader.WithWatcherLogger(log.Slog()))
		if werr != nil {
			return fmt.Errorf("config watcher: %w", werr)
		}
		if werr := watcher.Watch(path); werr != nil {
			return fmt.Errorf("watch config: %w", werr)
		}
		watcher.OnChange(func(string) { reloadLogLevel(path, log) })
		watcher.StartAsync()
		h.OnShutdown(func(context.Context) error { return watcher.Stop() })
	}

	// One controller feedback fans out to every operation; the first
	// signal cancels it.
	fb := feedback.New()
	h.NotifyFeedback(fb)

	ops := make([]runner.Operation, cfg.Work.Workers)
	for i := range ops {
		ops[i] = runner.NewOperation(
			fmt.Sprintf("sim-worker-%d", i),
			simulatedWork(cfg.Work.Steps, stepDur, cfg.Work.JitterPct),
		)
	}

	log.Info("starting workload",
		"workers", cfg.Work.Workers,
		"steps", cfg.Work.Steps,
		"step_duration", stepDur)

	bar := output.NewProgressBar(os.Stderr, "work")
	barDone := make(chan struct{})
	go trackProgress(run.Registry(), bar, barDone)

	resCh := make(chan []runner.Result, 1)
	go func() {
		results, rerr := run.Run(context.Background(), fb, ops...)
		if rerr != nil {
			log.Error("run failed", "error", rerr)
		}
		resCh <- results
	}()

	results := <-resCh
	close(barDone)
	if fb.IsCanceled() {
		bar.Abort()
	} else {
		bar.Finish()
	}

	if err := formatterFor(c).Format(os.Stdout, results); err != nil {
		return err
	}

	h.Trigger()
	sp := output.NewSpinner(os.Stderr, "shutting down")
	sp.Start()
	if err := h.Wait(); err != nil {
		sp.Fail("shutdown finished with errors")
		return err
	}
	sp.Success("shutdown complete")
	return nil
}

// loadWorkConfig merges defaults, the config file, env vars, and flag
// overrides.
func loadWorkConfig(c *cli.Context) (workConfig, error) {
	cfg := defaultWorkConfig()

	var opts []confloader.Option
	if path := c.String("config"); path != "" {
		opts = append(opts, confloader.WithConfigFile(path))
	}
	if err := confloader.NewLoader(opts...).Load(&cfg); err != nil {
		return cfg, fmt.Errorf("load config: %w", err)
	}

	if c.IsSet("workers") {
		cfg.Work.Workers = c.Int("workers")
	}
	if cfg.Work.Workers < 1 {
		return cfg, fmt.Errorf("work.workers must be >= 1")
	}
	if cfg.Work.Steps < 1 {
		return cfg, fmt.Errorf("work.steps must be >= 1")
	}
	return cfg, nil
}

// reloadLogLevel re-reads only log.level from the changed file; a
// broken edit must not take the workload down.
func reloadLogLevel(path string, log logger.Logger) {
	l := confloader.NewLoader(confloader.WithConfigFile(path))
	var cfg workConfig
	if err := l.Load(&cfg); err != nil {
		log.Warn("config reload failed, keeping current log level", "error", err)
		return
	}
	if cfg.Log.Level != "" && cfg.Log.Level != logger.GetLevel() {
		logger.SetLevel(cfg.Log.Level)
		log.Info("log level changed", "level", cfg.Log.Level)
	}
}

// simulatedWork returns an operation body that sleeps through steps,
// reporting progress and checking for cancellation between steps.
func simulatedWork(steps int, stepDur time.Duration, jitterPct int) runner.OpFunc {
	return func(ctx context.Context, fb *feedback.Feedback) error {
		for i := 0; i < steps; i++ {
			if fb.IsCanceled() {
				return feedback.ErrCanceled
			}
			sleepStep(stepDur, jitterPct)
			fb.AddProcessed(1)
			fb.SetProgress(float64(i+1) / float64(steps) * 100)
		}
		return nil
	}
}

func sleepStep(d time.Duration, jitterPct int) {
	if jitterPct > 0 {
		span := int64(d) * int64(jitterPct) / 100
		if span > 0 {
			d += time.Duration(rand.Int64N(2*span) - span)
		}
	}
	time.Sleep(d)
}

// trackProgress periodically averages the live operations' progress
// into the aggregate bar.
func trackProgress(reg *runner.Registry, bar *output.ProgressBar, done <-chan struct{}) {
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			var sum float64
			var processed uint64
			n := 0
			reg.Range(func(e runner.Entry) bool {
				sum += e.Feedback.Progress()
				processed += e.Feedback.Processed()
				n++
				return true
			})
			if n > 0 {
				bar.Update(sum/float64(n), processed)
			}
		}
	}
}

func metricsMux(m *metric.Registry) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	return mux
}
