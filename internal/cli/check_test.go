package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/NullVoxPopuli/dep-hellp/pkg/errors"
)

func TestCheckClean(t *testing.T) {
	root := tempRoot(t)
	writeManifest(t, root, ".", `{"name": "app", "dependencies": {"a": "^1.0.0"}}`)
	writeManifest(t, root, "node_modules/a", `{"name": "a", "version": "1.2.0"}`)

	c := newTestCLI()
	if err := c.run("check", "--dir", root); err != nil {
		t.Fatalf("check: %v", err)
	}
	if !strings.Contains(c.out.String(), "Your node_modules look good") {
		t.Errorf("missing success banner:\n%s", c.out)
	}
}

func TestCheckDefaultsToRoot(t *testing.T) {
	root := tempRoot(t)
	writeManifest(t, root, ".", `{"name": "app", "dependencies": {"a": "^2.0.0"}}`)
	writeManifest(t, root, "node_modules/a", `{"name": "a", "version": "1.2.0"}`)

	c := newTestCLI()
	err := c.run("--dir", root)
	if err != ErrProblemsFound {
		t.Fatalf("err = %v, want ErrProblemsFound", err)
	}
	out := c.out.String()
	for _, want := range []string{
		"app asked for a ^2.0.0 but got 1.2.0",
		"- in dependencies at .",
		"You are in dependency hell",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Would you like help") {
		t.Error("non-interactive run should not offer remediation")
	}
}

func TestCheckMissing(t *testing.T) {
	root := tempRoot(t)
	writeManifest(t, root, ".", `{"name": "app", "devDependencies": {"b": "^1.0.0"}}`)

	c := newTestCLI()
	if err := c.run("check", "--dir", root); err != ErrProblemsFound {
		t.Fatalf("err = %v, want ErrProblemsFound", err)
	}
	if out := c.out.String(); !strings.Contains(out, "app is missing b\n  in devDependencies at .") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestCheckJSON(t *testing.T) {
	root := tempRoot(t)
	writeManifest(t, root, ".", `{"name": "app", "dependencies": {"a": "^2.0.0"}}`)
	writeManifest(t, root, "node_modules/a", `{"name": "a", "version": "1.2.0"}`)

	c := newTestCLI()
	if err := c.run("check", "--dir", root, "--json"); err != ErrProblemsFound {
		t.Fatalf("err = %v, want ErrProblemsFound", err)
	}

	var got struct {
		Total    int `json:"total"`
		Packages []struct {
			Diagnostics []struct {
				Problem string `json:"problem"`
				Found   struct {
					Version string `json:"version"`
				} `json:"found"`
			} `json:"diagnostics"`
		} `json:"packages"`
	}
	if err := json.Unmarshal(c.out.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, c.out)
	}
	if got.Total != 1 || len(got.Packages) != 1 || len(got.Packages[0].Diagnostics) != 1 {
		t.Fatalf("unexpected result: %+v", got)
	}
	d := got.Packages[0].Diagnostics[0]
	if d.Problem != "version-mismatch" || d.Found.Version != "1.2.0" {
		t.Errorf("diagnostic = %+v", d)
	}
}

func TestCheckMonorepo(t *testing.T) {
	root := tempRoot(t)
	writeManifest(t, root, ".", `{"name": "repo", "private": true, "workspaces": ["packages/*"]}`)
	writeManifest(t, root, "packages/web", `{"name": "web", "dependencies": {"a": "^1.0.0"}}`)
	writeManifest(t, root, "packages/api", `{"name": "api", "dependencies": {"missing-dep": "^1.0.0"}}`)
	writeManifest(t, root, "node_modules/a", `{"name": "a", "version": "1.0.0"}`)

	for _, parallel := range []bool{false, true} {
		c := newTestCLI()
		args := []string{"check", "--dir", filepath.Join(root, "packages", "web")}
		if parallel {
			args = append(args, "--parallel")
		}
		if err := c.run(args...); err != ErrProblemsFound {
			t.Fatalf("parallel=%v: err = %v, want ErrProblemsFound", parallel, err)
		}
		out := c.out.String()
		for _, want := range []string{
			"Scanning repo at <root>",
			"Scanning api at <root>/packages/api",
			"Found 1 errors",
			"All good",
			"There are 1 total errors.",
			"api is missing missing-dep",
		} {
			if !strings.Contains(out, want) {
				t.Errorf("parallel=%v: output missing %q:\n%s", parallel, want, out)
			}
		}
		// scan lines follow workspace order
		if strings.Index(out, "Scanning api") > strings.Index(out, "Scanning web") {
			t.Errorf("parallel=%v: packages out of order:\n%s", parallel, out)
		}
	}
}

func TestCheckConfigIgnore(t *testing.T) {
	root := tempRoot(t)
	writeManifest(t, root, ".", `{"name": "app", "dependencies": {"a": "^2.0.0"}}`)
	writeManifest(t, root, "node_modules/a", `{"name": "a", "version": "1.2.0"}`)
	if err := os.WriteFile(filepath.Join(root, ".dephellp.toml"), []byte("ignore = [\"a\"]\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	c := newTestCLI()
	if err := c.run("check", "--dir", root); err != nil {
		t.Fatalf("ignored dependency still reported: %v\n%s", err, c.out)
	}

	c = newTestCLI()
	if err := c.run("check", "--dir", root, "--config", filepath.Join(root, "nope.toml")); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("missing --config file: err = %v", err)
	}
}

func TestCheckIgnoreFlag(t *testing.T) {
	root := tempRoot(t)
	writeManifest(t, root, ".", `{"name": "app", "dependencies": {"a": "^2.0.0"}}`)
	writeManifest(t, root, "node_modules/a", `{"name": "a", "version": "1.2.0"}`)

	c := newTestCLI()
	if err := c.run("check", "--dir", root, "--ignore", "a"); err != nil {
		t.Fatalf("err = %v", err)
	}
}

func TestCheckReportOverrides(t *testing.T) {
	root := tempRoot(t)
	writeManifest(t, root, ".", `{"name": "app", "dependencies": {"b": "^1.0.0"}, "overrides": {"a": "1.0.0"}}`)
	writeManifest(t, root, "node_modules/b", `{"name": "b", "version": "1.0.0", "dependencies": {"a": "^2.0.0"}}`)
	writeManifest(t, root, "node_modules/a", `{"name": "a", "version": "1.0.0"}`)

	c := newTestCLI()
	if err := c.run("check", "--dir", root); err != nil {
		t.Fatalf("override mismatch should be suppressed by default: %v\n%s", err, c.out)
	}

	c = newTestCLI()
	if err := c.run("check", "--dir", root, "--report-overrides"); err != ErrProblemsFound {
		t.Fatalf("err = %v, want ErrProblemsFound", err)
	}
	if out := c.out.String(); !strings.Contains(out, "[Override] b asked for a ^2.0.0 but got an overridden version 1.0.0") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestCheckFatalLoad(t *testing.T) {
	root := tempRoot(t)
	writeManifest(t, root, ".", `{"name": "app", "dependencies": {"a": "^1.0.0"}}`)
	writeManifest(t, root, "node_modules/a", `{"name": "a", "version": `)

	c := newTestCLI()
	err := c.run("check", "--dir", root)
	if !errors.Is(err, errors.ErrCodeInvalidManifest) {
		t.Fatalf("err = %v, want INVALID_MANIFEST", err)
	}
}

func TestCheckNoManifest(t *testing.T) {
	c := newTestCLI()
	err := c.run("check", "--dir", tempRoot(t))
	if !errors.Is(err, errors.ErrCodeNotFound) {
		t.Fatalf("err = %v, want NOT_FOUND", err)
	}
}

func TestCheckRemediation(t *testing.T) {
	root := tempRoot(t)
	writeManifest(t, root, ".", "{\n  \"name\": \"app\",\n  \"dependencies\": {\"a\": \"^1.0.0\"}\n}\n")

	runner := &fakeRunner{
		versions: map[string]string{"pnpm": "9.12.2", "npm": "10.8.0"},
		onRun: func(dir, command string) error {
			writeManifest(t, dir, "node_modules/a", `{"name": "a", "version": "1.4.0"}`)
			return nil
		},
	}
	prompts := &fakePrompter{confirms: []bool{true, true, true}, selects: []int{0}}

	c := newTestCLI()
	c.Runner = runner
	c.prompter = prompts
	if err := c.run("check", "--dir", root, "--yes"); err != nil {
		t.Fatalf("check: %v\n%s", err, c.out)
	}

	wantAsked := []string{
		"Would you like help resolving the above issues?",
		"Would you like to choose a package manager now?",
		"Select a package manager",
		"Would you like to install them?",
	}
	if strings.Join(prompts.asked, "|") != strings.Join(wantAsked, "|") {
		t.Errorf("asked %q, want %q", prompts.asked, wantAsked)
	}
	if len(runner.ran) != 1 || runner.ran[0] != "pnpm install" {
		t.Errorf("ran %q, want [pnpm install]", runner.ran)
	}

	data, err := os.ReadFile(filepath.Join(root, "package.json"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"packageManager": "pnpm@9.12.2"`) {
		t.Errorf("packageManager not written:\n%s", data)
	}

	out := c.out.String()
	for _, want := range []string{"There is no packageManager field", "Re-running the dependency scan", "Your node_modules look good"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestCheckRemediationDeclined(t *testing.T) {
	root := tempRoot(t)
	writeManifest(t, root, ".", `{"name": "app", "packageManager": "npm@10.8.0", "dependencies": {"a": "^1.0.0"}}`)

	c := newTestCLI()
	c.Interactive = true
	c.Logger.SetLevel(LogDebug) // no spinner
	c.prompter = &fakePrompter{confirms: []bool{false}}
	if err := c.run("check", "--dir", root); err != ErrProblemsFound {
		t.Fatalf("err = %v, want ErrProblemsFound", err)
	}
	if !strings.Contains(c.out.String(), "Good luck") {
		t.Errorf("output:\n%s", c.out)
	}
}

func TestCheckRemediationInvalidField(t *testing.T) {
	root := tempRoot(t)
	writeManifest(t, root, ".", `{"name": "app", "packageManager": "pnpm", "dependencies": {"a": "^1.0.0"}}`)

	prompts := &fakePrompter{confirms: []bool{true, false}}
	c := newTestCLI()
	c.prompter = prompts
	if err := c.run("check", "--dir", root, "--yes"); err != ErrProblemsFound {
		t.Fatalf("err = %v, want ErrProblemsFound", err)
	}
	out := c.out.String()
	if !strings.Contains(out, "Looks like the packageManager field is invalid") {
		t.Errorf("output:\n%s", out)
	}
	if !strings.Contains(out, `Update the "packageManager" field`) {
		t.Errorf("output:\n%s", out)
	}
}

func TestCheckNoRemediate(t *testing.T) {
	root := tempRoot(t)
	writeManifest(t, root, ".", `{"name": "app", "dependencies": {"a": "^1.0.0"}}`)

	prompts := &fakePrompter{}
	c := newTestCLI()
	c.prompter = prompts
	if err := c.run("check", "--dir", root, "--yes", "--no-remediate"); err != ErrProblemsFound {
		t.Fatalf("err = %v", err)
	}
	if len(prompts.asked) != 0 {
		t.Errorf("asked %q with --no-remediate", prompts.asked)
	}
}
