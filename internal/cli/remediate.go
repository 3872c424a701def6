package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/NullVoxPopuli/dep-hellp/pkg/audit"
	"github.com/NullVoxPopuli/dep-hellp/pkg/config"
	"github.com/NullVoxPopuli/dep-hellp/pkg/errors"
	"github.com/NullVoxPopuli/dep-hellp/pkg/manifest"
	"github.com/NullVoxPopuli/dep-hellp/pkg/shell"
	"github.com/NullVoxPopuli/dep-hellp/pkg/workspace"
)

// pickableTools are offered when the root manifest has no packageManager.
var pickableTools = []string{"pnpm", "npm", "yarn"}

var styleAside = lipgloss.NewStyle().Italic(true)

// remediator walks the user through fixing a dirty audit.
type remediator struct {
	out    io.Writer
	prompt prompter
	runner shell.Runner
	cfg    *config.Config
	logger *log.Logger
	cwd    string
}

// remediate offers help for res. It reports whether the audit should be
// run again.
func (r *remediator) remediate(ctx context.Context, ws *workspace.Workspace, res *audit.RunResult) (bool, error) {
	ok, err := r.ask("Would you like help resolving the above issues?")
	if err != nil {
		return false, err
	}
	if !ok {
		r.aside("Good luck")
		return false, nil
	}

	tool, ok, err := r.ensurePackageManager(ctx, ws.Root)
	if err != nil || !ok {
		return false, err
	}

	if r.cfg.OfferInstall() && r.missingHere(ws, res) {
		r.notice("It looks like your current directory is missing dependencies.")
		if err := r.doIf(ctx, ws.Root.Dir, "Would you like to install them?", tool+" install"); err != nil {
			return false, err
		}
	}

	r.notice("Re-running the dependency scan")
	return true, nil
}

// missingHere reports whether any diagnostic was raised by the package in
// the working directory or by the repository root.
func (r *remediator) missingHere(ws *workspace.Workspace, res *audit.RunResult) bool {
	for _, p := range res.Packages {
		for _, d := range p.Diagnostics {
			if d.Source.Path == r.cwd || d.Source.Path == ws.Root.Dir {
				return true
			}
		}
	}
	return false
}

// ensurePackageManager returns the tool named by the root packageManager
// field, asking the user to choose one when the field is missing or
// malformed. ok is false when the user declined.
func (r *remediator) ensurePackageManager(ctx context.Context, root workspace.Package) (string, bool, error) {
	path := root.ManifestPath()
	m, err := manifest.Read(path)
	if err != nil {
		return "", false, err
	}

	field := m.PackageManager
	if field == "" {
		r.notice(fmt.Sprintf("There is no packageManager field set in the package.json file at %s", root.Dir))
		ok, err := r.ask("Would you like to choose a package manager now?")
		if err != nil || !ok {
			if !ok && err == nil {
				printEncourage(r.out, `Add a "packageManager" field to the package.json and run dephellp again.`)
			}
			return "", false, err
		}
		if field, err = r.choosePackageManager(ctx, root.Dir, path); err != nil {
			return "", false, err
		}
	}

	if errors.ValidatePackageManager(field) != nil {
		printError(r.out, `Looks like the packageManager field is invalid. Make sure that it matches the format "toolName@version". Example: "pnpm@9.12.2"`)
		ok, err := r.ask("Would you like to (re) choose a package manager now?")
		if err != nil || !ok {
			if !ok && err == nil {
				printEncourage(r.out, `Update the "packageManager" field in the package.json and run dephellp again.`)
			}
			return "", false, err
		}
		if field, err = r.choosePackageManager(ctx, root.Dir, path); err != nil {
			return "", false, err
		}
	}

	tool, _, _ := strings.Cut(field, "@")
	return tool, true, nil
}

// choosePackageManager lets the user pick a tool, reads its installed
// version and writes "tool@version" into the manifest at path.
func (r *remediator) choosePackageManager(ctx context.Context, dir, path string) (string, error) {
	versions := make(map[string]string, len(pickableTools))
	options := make([]choice, len(pickableTools))
	for i, tool := range pickableTools {
		options[i] = choice{Label: tool, Hint: "not installed"}
		v, err := shell.ToolVersion(ctx, r.runner, dir, tool)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			r.logger.Debug("tool version unavailable", "tool", tool, "error", err)
			continue
		}
		versions[tool] = v
		options[i].Hint = v
	}

	initial := max(slices.Index(pickableTools, r.cfg.Remediation.PackageManager), 0)
	idx, err := r.prompt.Select("Select a package manager", options, initial)
	if err != nil {
		return "", err
	}
	tool := pickableTools[idx]
	version, ok := versions[tool]
	if !ok {
		return "", errors.New(errors.ErrCodeNotFound, "%s is not installed; install it or choose another package manager", tool)
	}

	value := tool + "@" + version
	if err := manifest.SetPackageManager(path, value); err != nil {
		return "", err
	}
	printSuccess(r.out, "Set packageManager to %s", StyleValue.Render(value))
	printFile(r.out, filepath.Clean(path))
	return value, nil
}

// doIf shows command and runs it in dir if the user agrees.
func (r *remediator) doIf(ctx context.Context, dir, question, command string) error {
	printNewline(r.out)
	printCommand(r.out, "I want to run", command)
	ok, err := r.ask(question)
	if err != nil {
		return err
	}
	if ok {
		r.logger.Debug("running", "command", command, "dir", dir)
		if err := r.runner.Run(ctx, dir, command, r.out, r.out); err != nil {
			return err
		}
	}
	r.aside("Very well")
	return nil
}

// ask confirms question, treating an aborted prompt as "no".
func (r *remediator) ask(question string) (bool, error) {
	ok, err := r.prompt.Confirm(question)
	if errors.Is(err, errors.ErrCodeAborted) {
		return false, nil
	}
	return ok, err
}

func (r *remediator) notice(msg string) {
	printNewline(r.out)
	printInfo(r.out, "%s", msg)
	printNewline(r.out)
}

func (r *remediator) aside(msg string) {
	printNewline(r.out)
	fmt.Fprintln(r.out, "  "+styleAside.Render(msg))
	printNewline(r.out)
}
