// Command dephellp audits an installed node_modules tree against the ranges
// declared by every package.json of a project or monorepo.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/NullVoxPopuli/dep-hellp/internal/cli"
	pkgerrors "github.com/NullVoxPopuli/dep-hellp/pkg/errors"
)

// Exit statuses. CI jobs treat exitUnsatisfied like any failure, so it shares
// the value used for errors.
const (
	exitClean       = 0
	exitUnsatisfied = 1
	exitError       = 1
	exitInterrupted = 130 // 128 + SIGINT
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx)
	cancel()
	os.Exit(exitCode(err, os.Stderr))
}

// exitCode maps the result of a run to the process status, printing errors
// that the command output has not already explained.
func exitCode(err error, stderr io.Writer) int {
	switch {
	case err == nil:
		return exitClean
	case errors.Is(err, context.Canceled):
		return exitInterrupted
	case errors.Is(err, cli.ErrProblemsFound):
		// the report and summary table were the output
		return exitUnsatisfied
	default:
		fmt.Fprintln(stderr, "Error:", pkgerrors.UserMessage(err))
		return exitError
	}
}

func run(ctx context.Context) error {
	c := cli.New(os.Stderr, cli.LogInfo)
	root := c.RootCommand()

	// --verbose lives here rather than in RootCommand so that tests driving
	// the commands directly keep the quiet logger they constructed.
	var verbose bool
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log resolution and cache details")

	next := root.PersistentPreRunE
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if verbose {
			// the spinner is also turned off by a debug-level logger
			c.SetLogLevel(cli.LogDebug)
		}
		if next != nil {
			return next(cmd, args)
		}
		return nil
	}

	return root.ExecuteContext(ctx)
}
