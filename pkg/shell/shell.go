// Package shell runs remediation commands such as "pnpm install".
package shell

import (
	"bytes"
	"context"
	"io"
	"os/exec"
	"runtime"
	"strings"

	"github.com/NullVoxPopuli/dep-hellp/pkg/errors"
)

// execCommandContext is a variable to allow mocking in tests.
var execCommandContext = exec.CommandContext

// Runner executes commands on behalf of the remediation flow.
type Runner interface {
	// Run executes command through the system shell in dir, streaming
	// output to stdout and stderr.
	Run(ctx context.Context, dir, command string, stdout, stderr io.Writer) error

	// Output runs name with args and returns trimmed standard output.
	Output(ctx context.Context, dir, name string, args ...string) (string, error)
}

// Exec runs commands with os/exec.
type Exec struct{}

// Run implements Runner.
func (Exec) Run(ctx context.Context, dir, command string, stdout, stderr io.Writer) error {
	if strings.TrimSpace(command) == "" {
		return errors.New(errors.ErrCodeInvalidInput, "empty command")
	}
	name, args := shellArgs(command)
	cmd := execCommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return errors.Wrap(errors.ErrCodeCommandFailed, err, "run %q", command)
	}
	return nil
}

// Output implements Runner.
func (Exec) Output(ctx context.Context, dir, name string, args ...string) (string, error) {
	if _, err := exec.LookPath(name); err != nil {
		return "", errors.Wrap(errors.ErrCodeNotFound, err, "%s is not installed", name)
	}
	var stderr bytes.Buffer
	cmd := execCommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", errors.Wrap(errors.ErrCodeCommandFailed, err, "%s %s: %s", name, strings.Join(args, " "), msg)
		}
		return "", errors.Wrap(errors.ErrCodeCommandFailed, err, "%s %s", name, strings.Join(args, " "))
	}
	return strings.TrimSpace(string(out)), nil
}

// ToolVersion asks a package manager for its version ("pnpm --version").
// Only the first line of output is used.
func ToolVersion(ctx context.Context, r Runner, dir, tool string) (string, error) {
	out, err := r.Output(ctx, dir, tool, "--version")
	if err != nil {
		return "", err
	}
	line, _, _ := strings.Cut(out, "\n")
	version := strings.TrimPrefix(strings.TrimSpace(line), "v")
	if version == "" {
		return "", errors.New(errors.ErrCodeCommandFailed, "%s --version printed nothing", tool)
	}
	return version, nil
}

func shellArgs(command string) (string, []string) {
	if runtime.GOOS == "windows" {
		return "cmd", []string{"/C", command}
	}
	return "sh", []string{"-c", command}
}
