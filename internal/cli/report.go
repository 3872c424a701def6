package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/NullVoxPopuli/dep-hellp/pkg/audit"
	"github.com/NullVoxPopuli/dep-hellp/pkg/errors"
	"github.com/NullVoxPopuli/dep-hellp/pkg/workspace"
)

// =============================================================================
// Paths
// =============================================================================

// pathFormatter shortens absolute package directories for display.
type pathFormatter struct {
	cwd  string
	root string
}

func newPathFormatter(cwd, root string) pathFormatter {
	return pathFormatter{cwd: filepath.Clean(cwd), root: filepath.Clean(root)}
}

// human returns path relative to the most specific known location:
// the pnpm store, the working directory, then the repository root.
func (p pathFormatter) human(path string) string {
	slash := filepath.ToSlash(path)
	if i := strings.Index(slash, "/.pnpm/"); i >= 0 {
		return "<.pnpm>/" + slash[i+len("/.pnpm/"):]
	}
	if rel, ok := within(p.cwd, path); ok {
		if rel == "." {
			return "."
		}
		return "./" + rel
	}
	if rel, ok := within(p.root, path); ok {
		if rel == "." {
			return "<root>"
		}
		return "<root>/" + rel
	}
	return path
}

func within(base, path string) (string, bool) {
	if base == "" || base == "." {
		return "", false
	}
	rel, err := filepath.Rel(base, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

// =============================================================================
// Reporter
// =============================================================================

// reporter writes audit results for humans.
type reporter struct {
	w     io.Writer
	paths pathFormatter
}

func (r reporter) packageName(p workspace.Package) string {
	name := p.Name
	if name == "" {
		name = "<name not set>"
	}
	return StyleHighlight.Render(name) + " at " + stylePath.Render(r.paths.human(p.Dir))
}

// diagnostic formats one diagnostic as a two-line entry.
func (r reporter) diagnostic(d audit.Diagnostic) string {
	src := StyleHighlight.Render(d.Source.Name)
	dep := StyleHighlight.Render(d.Requested.Name)
	rng := d.Requested.Raw
	if rng == "" {
		rng = d.Requested.Range
	}
	where := styleSection.Render(string(d.Requested.Section)) + " at " + stylePath.Render(r.paths.human(d.Source.Path))

	switch d.Problem {
	case audit.Missing:
		return src + " is missing " + styleWrong.Render(d.Requested.Name) + "\n  in " + where
	case audit.OverrideMismatch:
		return fmt.Sprintf("%s [Override] %s asked for %s %s but got an overridden version %s\n  - in %s",
			iconOverride, src, dep, styleRange.Render(rng), styleWrong.Render(d.Found.Version), where)
	case audit.InvalidRange:
		return fmt.Sprintf("%s asked for %s %s which cannot be checked: %s\n  - in %s",
			src, dep, styleRange.Render(rng), styleWrong.Render(d.Reason), where)
	default:
		version := ""
		if d.Found != nil {
			version = d.Found.Version
		}
		return fmt.Sprintf("%s asked for %s %s but got %s\n  - in %s",
			src, dep, styleRange.Render(rng), styleWrong.Render(version), where)
	}
}

// scanLines prints the per-package status of a multi-package run.
func (r reporter) scanLines(res *audit.RunResult) {
	for _, p := range res.Packages {
		fmt.Fprintf(r.w, "Scanning %s\n", r.packageName(p.Package))
		switch {
		case p.Err != nil:
			printError(r.w, "  %s", errors.UserMessage(p.Err))
		case len(p.Diagnostics) > 0:
			fmt.Fprintln(r.w, StyleError.Render(fmt.Sprintf("  Found %d errors", len(p.Diagnostics))))
		default:
			fmt.Fprintln(r.w, StyleSuccess.Render("  All good"))
		}
		printNewline(r.w)
	}
	if res.Total > 0 {
		fmt.Fprintln(r.w, StyleError.Render(fmt.Sprintf("There are %d total errors.", res.Total)))
		printNewline(r.w)
	}
}

// problems prints a heading and the diagnostics of every dirty package.
func (r reporter) problems(res *audit.RunResult) {
	for _, p := range res.Packages {
		if len(p.Diagnostics) == 0 {
			continue
		}
		fmt.Fprintln(r.w, StyleTitle.Render(r.packageName(p.Package)))
		for _, d := range p.Diagnostics {
			fmt.Fprintln(r.w, r.diagnostic(d))
		}
		printNewline(r.w)
	}
}

// summary prints a per-package count table.
func (r reporter) summary(res *audit.RunResult) {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(colorCyan).Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Padding(0, 1)

	rows := make([][]string, 0, len(res.Packages))
	for _, p := range res.Packages {
		status := iconSuccess
		if p.Err != nil {
			status = iconError
		} else if len(p.Diagnostics) > 0 {
			status = iconWarning
		}
		rows = append(rows, []string{
			status,
			p.Package.Name,
			r.paths.human(p.Package.Dir),
			count(p, audit.Missing),
			count(p, audit.VersionMismatch),
			count(p, audit.OverrideMismatch),
			count(p, audit.InvalidRange),
			strconv.Itoa(p.Visited),
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Package", "Path", "Missing", "Mismatch", "Override", "Invalid", "Visited").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if col == 0 && row >= 0 && row < len(res.Packages) {
				p := res.Packages[row]
				switch {
				case p.Err != nil:
					return cellStyle.Foreground(colorRed)
				case len(p.Diagnostics) > 0:
					return cellStyle.Foreground(colorYellow)
				default:
					return cellStyle.Foreground(colorGreen)
				}
			}
			return cellStyle
		})

	fmt.Fprintln(r.w, t)
}

func count(p audit.PackageResult, problem audit.Problem) string {
	if p.Err != nil {
		return "-"
	}
	n := audit.Count(p.Diagnostics, problem)
	if n == 0 {
		return StyleDim.Render("0")
	}
	return strconv.Itoa(n)
}

// render prints a complete run. Multi-package runs get the per-package
// scan lines and the summary table.
func (r reporter) render(res *audit.RunResult) {
	multi := len(res.Packages) > 1
	if multi {
		r.scanLines(res)
	} else {
		for _, p := range res.Failed() {
			printError(r.w, "%s", errors.UserMessage(p.Err))
		}
	}
	r.problems(res)
	if multi && !res.Clean() {
		r.summary(res)
	}
	if res.Clean() {
		printGreatSuccess(r.w, "Your node_modules look good")
	} else {
		printDependencyHell(r.w)
	}
}

// writeJSON prints res as indented JSON.
func writeJSON(w io.Writer, res *audit.RunResult) error {
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode result")
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
