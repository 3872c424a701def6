package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/NullVoxPopuli/dep-hellp/pkg/errors"
)

// writeManifest stores body as root/rel/package.json.
func writeManifest(t *testing.T, root, rel, body string) string {
	t.Helper()
	dir := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "package.json"), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func tempRoot(t *testing.T) string {
	t.Helper()
	root, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return root
}

// fakePrompter answers from scripted queues and records every question.
type fakePrompter struct {
	confirms []bool
	selects  []int
	asked    []string
}

func (p *fakePrompter) Confirm(question string) (bool, error) {
	p.asked = append(p.asked, question)
	if len(p.confirms) == 0 {
		return false, errAborted
	}
	ok := p.confirms[0]
	p.confirms = p.confirms[1:]
	return ok, nil
}

func (p *fakePrompter) Select(title string, _ []choice, initial int) (int, error) {
	p.asked = append(p.asked, title)
	if len(p.selects) == 0 {
		return initial, nil
	}
	i := p.selects[0]
	p.selects = p.selects[1:]
	return i, nil
}

// fakeRunner reports tool versions and runs commands through onRun.
type fakeRunner struct {
	versions map[string]string
	ran      []string
	onRun    func(dir, command string) error
}

func (r *fakeRunner) Run(_ context.Context, dir, command string, stdout, _ io.Writer) error {
	r.ran = append(r.ran, command)
	io.WriteString(stdout, "ran "+command+"\n")
	if r.onRun != nil {
		return r.onRun(dir, command)
	}
	return nil
}

func (r *fakeRunner) Output(_ context.Context, _ string, name string, args ...string) (string, error) {
	if v, ok := r.versions[name]; ok && len(args) == 1 && args[0] == "--version" {
		return v + "\n", nil
	}
	return "", errors.New(errors.ErrCodeNotFound, "%s not found", name)
}

// testCLI is a CLI writing into buffers.
type testCLI struct {
	*CLI
	out *bytes.Buffer
	err *syncBuffer
}

func newTestCLI() *testCLI {
	out := &bytes.Buffer{}
	errOut := &syncBuffer{}
	c := &CLI{
		Logger: newLogger(io.Discard, LogInfo),
		In:     strings.NewReader(""),
		Out:    out,
		Err:    errOut,
		Runner: &fakeRunner{},
	}
	return &testCLI{CLI: c, out: out, err: errOut}
}

// run executes the root command with args.
func (c *testCLI) run(args ...string) error {
	root := c.RootCommand()
	root.SetArgs(args)
	return root.ExecuteContext(context.Background())
}
