// Package command provides CLI command definitions for feedback-bench.
package command

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/feedback-go/internal/cli/output"
	"github.com/yndnr/feedback-go/internal/infra/buildinfo"
	"github.com/yndnr/feedback-go/internal/telemetry/logger"
)

// App creates the CLI application.
func App() *cli.App {
	app := &cli.App{
		Name:    "feedback-bench",
		Usage:   "cancellation signaling benchmark and workload driver",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			BenchCommand(),
			WorkCommand(),
			VersionCommand(),
		},
		Before: func(c *cli.Context) error {
			log, err := logger.New(logger.Config{
				Level:  c.String("log-level"),
				Format: c.String("log-format"),
			})
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			logger.SetDefault(log)
			return nil
		},
	}

	return app
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml",
			Value:   "table",
		},
		&cli.BoolFlag{
			Name:    "wide",
			Aliases: []string{"w"},
			Usage:   "Show wide output (more columns)",
		},
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "Log level: debug, info, warn, error",
			EnvVars: []string{"FEEDBACK_LOG_LEVEL"},
			Value:   "info",
		},
		&cli.StringFlag{
			Name:    "log-format",
			Usage:   "Log format: json, text",
			EnvVars: []string{"FEEDBACK_LOG_FORMAT"},
			Value:   "text",
		},
	}
}

// formatterFor builds the output formatter selected by the global
// flags.
func formatterFor(c *cli.Context) output.Formatter {
	return output.NewFormatter(output.Format(c.String("output")), c.Bool("wide"))
}

// PrintError prints an error message to stderr.
func PrintError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
}
