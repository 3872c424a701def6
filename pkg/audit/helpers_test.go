package audit

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/NullVoxPopuli/dep-hellp/pkg/manifest"
)

// tree builds a package layout under a temporary directory.
type tree struct {
	t    *testing.T
	root string
}

func newTree(t *testing.T) *tree {
	t.Helper()
	root, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return &tree{t: t, root: root}
}

// write stores body as rel/package.json and returns the package directory.
func (tr *tree) write(rel, body string) string {
	tr.t.Helper()
	dir := filepath.Join(tr.root, filepath.FromSlash(rel))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		tr.t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, manifest.FileName), []byte(body), 0o644); err != nil {
		tr.t.Fatal(err)
	}
	return dir
}

func (tr *tree) remove(rel string) {
	tr.t.Helper()
	if err := os.RemoveAll(filepath.Join(tr.root, filepath.FromSlash(rel))); err != nil {
		tr.t.Fatal(err)
	}
}

func (tr *tree) path(rel string) string {
	return filepath.Join(tr.root, filepath.FromSlash(rel), manifest.FileName)
}

func (tr *tree) manifest(rel string) *manifest.Manifest {
	tr.t.Helper()
	m, err := manifest.Read(tr.path(rel))
	if err != nil {
		tr.t.Fatal(err)
	}
	return m
}

// countingReader records how often each manifest is loaded.
type countingReader struct {
	reads map[string]int
}

func newCountingReader() *countingReader {
	return &countingReader{reads: map[string]int{}}
}

func (c *countingReader) Read(path string) (*manifest.Manifest, error) {
	c.reads[path]++
	return manifest.Read(path)
}

func problems(diags []Diagnostic) []Problem {
	var out []Problem
	for _, d := range diags {
		out = append(out, d.Problem)
	}
	return out
}
