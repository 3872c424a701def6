// Package workspace discovers the packages of a JavaScript repository.
//
// A repository is either a single package (one package.json) or a monorepo
// whose root manifest lists member globs in "workspaces", or whose root
// directory holds a pnpm-workspace.yaml. [Find] walks upward from a
// directory to the owning root and expands the member globs.
package workspace

import (
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/NullVoxPopuli/dep-hellp/pkg/errors"
	"github.com/NullVoxPopuli/dep-hellp/pkg/manifest"
)

// PNPMWorkspaceFile lists workspace members for pnpm repositories.
const PNPMWorkspaceFile = "pnpm-workspace.yaml"

// Tool identifies the package manager layout of a repository.
type Tool string

const (
	ToolNPM  Tool = "npm"
	ToolYarn Tool = "yarn"
	ToolPNPM Tool = "pnpm"
	ToolBun  Tool = "bun"
	ToolRoot Tool = "root" // a single package without workspaces
)

// Package is one auditable package of a repository.
type Package struct {
	Name     string             `json:"name"`
	Dir      string             `json:"dir"`
	Manifest *manifest.Manifest `json:"-"`
}

// ManifestPath returns the package.json location of the package.
func (p Package) ManifestPath() string {
	return filepath.Join(p.Dir, manifest.FileName)
}

// Workspace is a repository root and its member packages.
type Workspace struct {
	Root     Package   `json:"root"`
	Packages []Package `json:"packages"` // sorted by Dir, root excluded
	Tool     Tool      `json:"tool"`
}

// IsMonorepo reports whether the repository has member packages.
func (w *Workspace) IsMonorepo() bool { return len(w.Packages) > 0 }

// Targets returns the packages to audit: the root always, followed by
// every member package.
func (w *Workspace) Targets() []Package {
	targets := make([]Package, 0, len(w.Packages)+1)
	targets = append(targets, w.Root)
	return append(targets, w.Packages...)
}

// Find locates the repository that owns startDir.
//
// It walks upward to the nearest directory containing a package.json, then
// keeps walking to find a monorepo root whose members include that package.
// When none exists the nearest package is returned as a single-package
// workspace.
func Find(startDir string) (*Workspace, error) {
	start, err := filepath.Abs(startDir)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "resolve %s", startDir)
	}

	nearest, ok := findUp(start, hasManifest)
	if !ok {
		return nil, errors.New(errors.ErrCodeNotFound, "no %s found in %s or any parent directory", manifest.FileName, start)
	}

	for dir := nearest; ; {
		if isWorkspaceRoot(dir) {
			ws, err := Load(dir)
			if err != nil {
				return nil, err
			}
			if dir == nearest || ws.contains(nearest) {
				return ws, nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return Load(nearest)
}

// Load reads the workspace rooted at dir without searching parents.
func Load(dir string) (*Workspace, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "resolve %s", dir)
	}

	root, err := loadPackage(dir)
	if err != nil {
		return nil, err
	}

	patterns, tool, err := memberPatterns(dir, root.Manifest)
	if err != nil {
		return nil, err
	}

	ws := &Workspace{Root: root, Tool: tool}
	if len(patterns) == 0 {
		return ws, nil
	}

	dirs, err := expand(dir, patterns)
	if err != nil {
		return nil, err
	}
	for _, member := range dirs {
		if member == dir {
			continue
		}
		pkg, err := loadPackage(member)
		if err != nil {
			return nil, err
		}
		ws.Packages = append(ws.Packages, pkg)
	}
	slices.SortFunc(ws.Packages, func(a, b Package) int { return strings.Compare(a.Dir, b.Dir) })
	return ws, nil
}

func (w *Workspace) contains(dir string) bool {
	for _, p := range w.Packages {
		if p.Dir == dir {
			return true
		}
	}
	return false
}

func loadPackage(dir string) (Package, error) {
	m, err := manifest.Read(filepath.Join(dir, manifest.FileName))
	if err != nil {
		return Package{}, err
	}
	return Package{Name: m.DisplayName(), Dir: dir, Manifest: m}, nil
}

// memberPatterns returns the workspace globs declared at dir and the tool
// that declares them.
func memberPatterns(dir string, root *manifest.Manifest) ([]string, Tool, error) {
	if fileExists(filepath.Join(dir, PNPMWorkspaceFile)) {
		patterns, err := readPNPMWorkspace(filepath.Join(dir, PNPMWorkspaceFile))
		if err != nil {
			return nil, "", err
		}
		return patterns, ToolPNPM, nil
	}
	if len(root.Workspaces) > 0 {
		return root.Workspaces, detectTool(dir, root), nil
	}
	return nil, ToolRoot, nil
}

// detectTool picks the package manager of a workspaces-based repository
// from the packageManager field, then from lockfiles.
func detectTool(dir string, root *manifest.Manifest) Tool {
	if name, _, ok := strings.Cut(root.PackageManager, "@"); ok {
		switch Tool(name) {
		case ToolNPM, ToolYarn, ToolPNPM, ToolBun:
			return Tool(name)
		}
	}
	switch {
	case fileExists(filepath.Join(dir, "yarn.lock")):
		return ToolYarn
	case fileExists(filepath.Join(dir, "bun.lockb")), fileExists(filepath.Join(dir, "bun.lock")):
		return ToolBun
	default:
		return ToolNPM
	}
}

func isWorkspaceRoot(dir string) bool {
	if !hasManifest(dir) {
		return false
	}
	if fileExists(filepath.Join(dir, PNPMWorkspaceFile)) {
		return true
	}
	m, err := manifest.Read(filepath.Join(dir, manifest.FileName))
	if err != nil {
		return false
	}
	return len(m.Workspaces) > 0
}

func findUp(dir string, match func(string) bool) (string, bool) {
	for {
		if match(dir) {
			return dir, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

func hasManifest(dir string) bool {
	return fileExists(filepath.Join(dir, manifest.FileName))
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
