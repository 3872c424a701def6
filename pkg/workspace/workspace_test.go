package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/NullVoxPopuli/dep-hellp/pkg/errors"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func writePackage(t *testing.T, dir, body string) {
	t.Helper()
	writeFile(t, filepath.Join(dir, "package.json"), body)
}

func memberNames(ws *Workspace) []string {
	var names []string
	for _, p := range ws.Packages {
		names = append(names, p.Name)
	}
	return names
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestFindSinglePackage(t *testing.T) {
	root := t.TempDir()
	writePackage(t, root, `{"name": "app"}`)
	if err := os.MkdirAll(filepath.Join(root, "src", "deep"), 0o755); err != nil {
		t.Fatal(err)
	}

	ws, err := Find(filepath.Join(root, "src", "deep"))
	if err != nil {
		t.Fatal(err)
	}
	if ws.Root.Name != "app" || ws.Root.Dir != root {
		t.Errorf("root = %+v, want app at %s", ws.Root, root)
	}
	if ws.IsMonorepo() {
		t.Errorf("unexpected members: %v", memberNames(ws))
	}
	if ws.Tool != ToolRoot {
		t.Errorf("Tool = %q, want %q", ws.Tool, ToolRoot)
	}
	if got := ws.Targets(); len(got) != 1 {
		t.Errorf("Targets() = %d, want 1", len(got))
	}
}

func TestFindNoManifest(t *testing.T) {
	_, err := Find(t.TempDir())
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("code = %v, want NOT_FOUND", errors.GetCode(err))
	}
}

func TestFindNPMWorkspaces(t *testing.T) {
	root := t.TempDir()
	writePackage(t, root, `{"name": "repo", "workspaces": ["packages/*", "!packages/private"]}`)
	writePackage(t, filepath.Join(root, "packages", "b"), `{"name": "b"}`)
	writePackage(t, filepath.Join(root, "packages", "a"), `{"name": "a"}`)
	writePackage(t, filepath.Join(root, "packages", "private"), `{"name": "private"}`)
	writePackage(t, filepath.Join(root, "packages", "a", "node_modules", "dep"), `{"name": "dep"}`)
	if err := os.MkdirAll(filepath.Join(root, "packages", "no-manifest"), 0o755); err != nil {
		t.Fatal(err)
	}

	ws, err := Find(filepath.Join(root, "packages", "a"))
	if err != nil {
		t.Fatal(err)
	}
	if ws.Root.Dir != root {
		t.Errorf("Root.Dir = %s, want %s", ws.Root.Dir, root)
	}
	if got := memberNames(ws); !equal(got, []string{"a", "b"}) {
		t.Errorf("members = %v, want [a b]", got)
	}
	if ws.Tool != ToolNPM {
		t.Errorf("Tool = %q, want npm", ws.Tool)
	}
	if got := ws.Targets(); len(got) != 3 || got[0].Name != "repo" {
		t.Errorf("Targets() = %+v", got)
	}
}

func TestFindYarnPackagesObject(t *testing.T) {
	root := t.TempDir()
	writePackage(t, root, `{"name": "repo", "workspaces": {"packages": ["libs/**"]}}`)
	writeFile(t, filepath.Join(root, "yarn.lock"), "")
	writePackage(t, filepath.Join(root, "libs", "core"), `{"name": "core"}`)
	writePackage(t, filepath.Join(root, "libs", "ui", "button"), `{"name": "button"}`)

	ws, err := Find(root)
	if err != nil {
		t.Fatal(err)
	}
	if got := memberNames(ws); !equal(got, []string{"core", "button"}) {
		t.Errorf("members = %v, want [core button]", got)
	}
	if ws.Tool != ToolYarn {
		t.Errorf("Tool = %q, want yarn", ws.Tool)
	}
}

func TestFindPNPMWorkspace(t *testing.T) {
	root := t.TempDir()
	writePackage(t, root, `{"name": "repo"}`)
	writeFile(t, filepath.Join(root, PNPMWorkspaceFile), "packages:\n  - 'apps/*'\n  - tools/cli\n")
	writePackage(t, filepath.Join(root, "apps", "web"), `{"name": "web"}`)
	writePackage(t, filepath.Join(root, "tools", "cli"), `{"name": "cli"}`)
	writePackage(t, filepath.Join(root, "tools", "other"), `{"name": "other"}`)

	ws, err := Find(filepath.Join(root, "apps", "web"))
	if err != nil {
		t.Fatal(err)
	}
	if ws.Tool != ToolPNPM {
		t.Errorf("Tool = %q, want pnpm", ws.Tool)
	}
	if got := memberNames(ws); !equal(got, []string{"web", "cli"}) {
		t.Errorf("members = %v, want [web cli]", got)
	}
}

func TestFindNestedNonMember(t *testing.T) {
	root := t.TempDir()
	writePackage(t, root, `{"name": "repo", "workspaces": ["packages/*"]}`)
	writePackage(t, filepath.Join(root, "fixtures", "demo"), `{"name": "demo"}`)

	ws, err := Find(filepath.Join(root, "fixtures", "demo"))
	if err != nil {
		t.Fatal(err)
	}
	if ws.Root.Name != "demo" || ws.IsMonorepo() {
		t.Errorf("got root %q with %d members, want standalone demo", ws.Root.Name, len(ws.Packages))
	}
}

func TestLoadInvalidPNPMYAML(t *testing.T) {
	root := t.TempDir()
	writePackage(t, root, `{"name": "repo"}`)
	writeFile(t, filepath.Join(root, PNPMWorkspaceFile), "packages: [unterminated\n")

	_, err := Load(root)
	if !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("err = %v, want INVALID_CONFIG", err)
	}
}

func TestDetectToolFromPackageManager(t *testing.T) {
	root := t.TempDir()
	writePackage(t, root, `{"name": "repo", "packageManager": "bun@1.1.0", "workspaces": ["p/*"]}`)
	writeFile(t, filepath.Join(root, "yarn.lock"), "")

	ws, err := Load(root)
	if err != nil {
		t.Fatal(err)
	}
	if ws.Tool != ToolBun {
		t.Errorf("Tool = %q, want bun", ws.Tool)
	}
}

func TestMatchGlob(t *testing.T) {
	tests := []struct {
		pattern string
		rel     string
		want    bool
	}{
		{"packages/*", "packages/a", true},
		{"packages/*", "packages/a/b", false},
		{"packages/**", "packages/a/b", true},
		{"**/lib", "x/y/lib", true},
		{"apps/web", "apps/web", true},
		{"apps/web", "apps/api", false},
		{"pkg-*", "pkg-one", true},
		{"[", "a", false},
	}
	for _, tt := range tests {
		got := matchAny([]string{tt.pattern}, tt.rel)
		if got != tt.want {
			t.Errorf("match(%q, %q) = %v, want %v", tt.pattern, tt.rel, got, tt.want)
		}
	}
}
