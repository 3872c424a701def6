package resolve

import (
	"os"
	"path/filepath"

	"github.com/NullVoxPopuli/dep-hellp/pkg/errors"
	"github.com/NullVoxPopuli/dep-hellp/pkg/manifest"
)

// ModulesDir is the directory packages are installed into.
const ModulesDir = "node_modules"

// Locator finds the manifest of an installed package.
type Locator interface {
	// Locate returns the absolute path of the package.json that name
	// resolves to from dir, and false when no installation exists.
	Locate(name, dir string) (string, bool)
}

// LocatorFunc adapts a function to the Locator interface.
type LocatorFunc func(name, dir string) (string, bool)

// Locate calls f(name, dir).
func (f LocatorFunc) Locate(name, dir string) (string, bool) { return f(name, dir) }

// NodeModules searches ancestor node_modules directories.
type NodeModules struct {
	// realpaths memoizes symlink evaluation of candidate directories;
	// pnpm layouts resolve the same link from many origins.
	realpaths map[string]string
}

// NewNodeModules creates a locator with an empty symlink cache.
func NewNodeModules() *NodeModules {
	return &NodeModules{realpaths: make(map[string]string)}
}

// Locate implements Locator.
func (n *NodeModules) Locate(name, dir string) (string, bool) {
	if errors.ValidatePackageName(name) != nil {
		return "", false
	}

	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", false
	}

	for {
		// node_modules/node_modules is never a lookup location.
		if filepath.Base(dir) != ModulesDir {
			candidate := filepath.Join(dir, ModulesDir, filepath.FromSlash(name), manifest.FileName)
			if info, err := os.Stat(candidate); err == nil && info.Mode().IsRegular() {
				return n.realpath(candidate), true
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

func (n *NodeModules) realpath(path string) string {
	if n.realpaths == nil {
		n.realpaths = make(map[string]string)
	}
	if real, ok := n.realpaths[path]; ok {
		return real
	}
	real, err := filepath.EvalSymlinks(path)
	if err != nil {
		real = path
	}
	n.realpaths[path] = real
	return real
}
