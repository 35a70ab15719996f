// Package command provides CLI command definitions for feedback-bench.
package command

import (
	"os"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/feedback-go/internal/infra/buildinfo"
)

// VersionCommand prints build information.
func VersionCommand() *cli.Command {
	return &cli.Command{
		Name:   "version",
		Usage:  "Show version information",
		Action: runVersion,
	}
}

func runVersion(c *cli.Context) error {
	return formatterFor(c).Format(os.Stdout, buildinfo.Get())
}
