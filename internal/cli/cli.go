// Package cli implements the dephellp command-line interface.
package cli

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/NullVoxPopuli/dep-hellp/pkg/buildinfo"
	"github.com/NullVoxPopuli/dep-hellp/pkg/errors"
	"github.com/NullVoxPopuli/dep-hellp/pkg/shell"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for display and completions.
const appName = "dephellp"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// ErrProblemsFound is returned when an audit finished with diagnostics.
// The diagnostics have already been printed.
var ErrProblemsFound = errors.New(errors.ErrCodeUnsatisfied, "installed dependencies do not satisfy their declarations")

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	In  io.Reader
	Out io.Writer
	Err io.Writer

	// Runner executes remediation commands.
	Runner shell.Runner

	// Interactive enables prompts and the progress spinner.
	Interactive bool

	// prompter overrides the prompt implementation in tests.
	prompter prompter
}

// New creates a new CLI bound to the process streams. Logs go to w.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger:      newLogger(w, level),
		In:          os.Stdin,
		Out:         os.Stdout,
		Err:         w,
		Runner:      shell.Exec{},
		Interactive: isTerminal(os.Stdin) && isTerminal(os.Stdout),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
// Without a subcommand the root runs check.
func (c *CLI) RootCommand() *cobra.Command {
	opts := &checkOptions{}
	root := &cobra.Command{
		Use:   appName,
		Short: "dephellp checks that node_modules satisfies every package.json",
		Long: `dephellp walks the installed node_modules tree of a project (or of every
package in a monorepo) and reports each dependency whose installed version
does not satisfy the range that asked for it.`,
		Version:      buildinfo.Version,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		// ErrProblemsFound is reported by the output itself.
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runCheck(cmd, opts)
		},
	}
	bindCheckFlags(root, opts)

	root.SetVersionTemplate(buildinfo.Template())
	root.SetIn(c.In)
	root.SetOut(c.Out)
	root.SetErr(c.Err)

	root.AddCommand(c.checkCommand())
	root.AddCommand(c.graphCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// prompts returns the prompter used for remediation.
func (c *CLI) prompts(assumeYes bool) prompter {
	switch {
	case c.prompter != nil:
		return c.prompter
	case assumeYes:
		return autoPrompter{}
	default:
		return teaPrompter{in: c.In, out: c.Out}
	}
}

// =============================================================================
// Paths
// =============================================================================

// resolveDir returns the absolute, symlink-free form of dir, defaulting to
// the working directory.
func resolveDir(dir string) (string, error) {
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", errors.Wrap(errors.ErrCodeInternal, err, "get working directory")
		}
		dir = wd
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidInput, err, "resolve %s", dir)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeFileNotFound, err, "resolve %s", dir)
	}
	return resolved, nil
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
