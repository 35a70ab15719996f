package command

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/feedback-go/pkg/feedback"
)

func TestDefaultWorkConfig(t *testing.T) {
	cfg := defaultWorkConfig()

	if cfg.Work.Workers < 1 {
		t.Errorf("default workers = %d", cfg.Work.Workers)
	}
	if _, err := time.ParseDuration(cfg.Work.StepDuration); err != nil {
		t.Errorf("default step_duration %q unparseable: %v", cfg.Work.StepDuration, err)
	}
}

func TestSimulatedWork_CompletesAndReports(t *testing.T) {
	fb := feedback.New()
	fn := simulatedWork(10, time.Microsecond, 0)

	if err := fn(context.Background(), fb); err != nil {
		t.Fatalf("simulated work failed: %v", err)
	}
	if got := fb.Processed(); got != 10 {
		t.Errorf("Processed() = %d, want 10", got)
	}
	if got := fb.Progress(); got != 100 {
		t.Errorf("Progress() = %v, want 100", got)
	}
}

func TestSimulatedWork_StopsOnCancel(t *testing.T) {
	fb := feedback.New()
	fb.Cancel()
	fn := simulatedWork(1000, time.Millisecond, 0)

	start := time.Now()
	err := fn(context.Background(), fb)
	if err != feedback.ErrCanceled {
		t.Fatalf("err = %v, want ErrCanceled", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("canceled work still ran %v", elapsed)
	}
	if fb.Processed() != 0 {
		t.Errorf("Processed() = %d after immediate cancel, want 0", fb.Processed())
	}
}

func TestSleepStep_JitterBounds(t *testing.T) {
	// With 50% jitter a 10ms step must stay within [5ms, 15ms] plus
	// scheduling slack.
	for i := 0; i < 5; i++ {
		start := time.Now()
		sleepStep(10*time.Millisecond, 50)
		elapsed := time.Since(start)
		if elapsed < 4*time.Millisecond {
			t.Errorf("sleep %v shorter than jitter floor", elapsed)
		}
		if elapsed > 200*time.Millisecond {
			t.Errorf("sleep %v far beyond jitter ceiling", elapsed)
		}
	}
}

func writeWorkConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadWorkConfig_FileAndDefaults(t *testing.T) {
	path := writeWorkConfig(t, `
work:
  workers: 2
  steps: 5
log:
  level: "warn"
`)

	app := App()
	var cfg workConfig
	app.Commands = append(app.Commands, workConfigProbe(&cfg))
	if err := app.Run([]string{"feedback-bench", "probe", "--config", path}); err != nil {
		t.Fatalf("probe run: %v", err)
	}

	if cfg.Work.Workers != 2 {
		t.Errorf("workers = %d, want 2 from file", cfg.Work.Workers)
	}
	if cfg.Work.Steps != 5 {
		t.Errorf("steps = %d, want 5 from file", cfg.Work.Steps)
	}
	if cfg.Work.StepDuration != "25ms" {
		t.Errorf("step_duration = %q, want default 25ms", cfg.Work.StepDuration)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("log.level = %q, want warn", cfg.Log.Level)
	}
}

func TestLoadWorkConfig_WorkersFlagOverride(t *testing.T) {
	path := writeWorkConfig(t, "work:\n  workers: 2\n")

	app := App()
	var cfg workConfig
	app.Commands = append(app.Commands, workConfigProbe(&cfg))
	if err := app.Run([]string{"feedback-bench", "probe", "--config", path, "--workers", "7"}); err != nil {
		t.Fatalf("probe run: %v", err)
	}
	if cfg.Work.Workers != 7 {
		t.Errorf("workers = %d, want flag override 7", cfg.Work.Workers)
	}
}

func TestLoadWorkConfig_RejectsInvalid(t *testing.T) {
	path := writeWorkConfig(t, "work:\n  workers: 0\n")

	app := App()
	var cfg workConfig
	app.Commands = append(app.Commands, workConfigProbe(&cfg))
	if err := app.Run([]string{"feedback-bench", "probe", "--config", path}); err == nil {
		t.Fatal("zero workers accepted")
	}
}

func TestRunWork_EndToEnd(t *testing.T) {
	// Full work command pass: run a tiny workload to completion, then
	// walk the shutdown path with its drain indicator.
	path := writeWorkConfig(t, `
work:
  workers: 2
  steps: 3
  step_duration: "1ms"
`)

	app := App()
	err := app.Run([]string{"feedback-bench", "-o", "json", "work", "--config", path})
	if err != nil {
		t.Fatalf("work run: %v", err)
	}
}

// workConfigProbe exposes loadWorkConfig through the real flag
// parsing path.
func workConfigProbe(out *workConfig) *cli.Command {
	cmd := WorkCommand()
	cmd.Name = "probe"
	cmd.Action = func(c *cli.Context) error {
		cfg, err := loadWorkConfig(c)
		if err != nil {
			return err
		}
		*out = cfg
		return nil
	}
	return cmd
}
