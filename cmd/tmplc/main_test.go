package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/goccy/go-yaml"
	"github.com/google/go-cmp/cmp"

	"github.com/tmplc/tmplc/parser"
)

func writeProject(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func runCLI(t *testing.T, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code = run(args, &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestParseDebug(t *testing.T) {
	root := writeProject(t, map[string]string{"templates/a.html": "{{ x }}"})
	code, out, stderr := runCLI(t, "--root", root, "parse", filepath.Join(root, "templates/a.html"))
	if code != 0 {
		t.Fatalf("exit %d: %s", code, stderr)
	}
	if !strings.Contains(out, "Expr") || !strings.Contains(out, "Var(x)") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestParseJSONWithNamedSyntax(t *testing.T) {
	root := writeProject(t, map[string]string{
		"tmplc.toml": "[[syntax]]\nname = \"angle\"\nblock_start = \"<%\"\nblock_end = \"%>\"\n",
		"a.html":     "<% if x %>y<% endif %>",
	})
	code, out, stderr := runCLI(t, "--root", root, "parse", "--format", "json", "--syntax", "angle", filepath.Join(root, "a.html"))
	if code != 0 {
		t.Fatalf("exit %d: %s", code, stderr)
	}
	var nodes []parser.OutlineNode
	if err := json.Unmarshal([]byte(out), &nodes); err != nil {
		t.Fatalf("invalid json: %v\n%s", err, out)
	}
	if len(nodes) != 1 || nodes[0].Kind != "if" {
		t.Errorf("unexpected outline %+v", nodes)
	}

	code, _, stderr = runCLI(t, "--root", root, "parse", "--syntax", "square", filepath.Join(root, "a.html"))
	if code != 1 || !strings.Contains(stderr, `syntax "square" is not defined`) {
		t.Errorf("expected an undefined syntax error, got %d: %s", code, stderr)
	}
}

func TestParseYAML(t *testing.T) {
	root := writeProject(t, map[string]string{"a.html": `{% include "b.html" %}`})
	code, out, stderr := runCLI(t, "--root", root, "parse", "--format", "yaml", filepath.Join(root, "a.html"))
	if code != 0 {
		t.Fatalf("exit %d: %s", code, stderr)
	}
	var nodes []parser.OutlineNode
	if err := yaml.Unmarshal([]byte(out), &nodes); err != nil {
		t.Fatalf("invalid yaml: %v\n%s", err, out)
	}
	if len(nodes) != 1 {
		t.Fatalf("expected one node, got %+v", nodes)
	}
	if n := nodes[0]; n.Kind != "include" || n.Label != "b.html" || n.Start != "1:1" {
		t.Errorf("unexpected outline %+v", n)
	}
}

func TestParseErrorRendered(t *testing.T) {
	root := writeProject(t, map[string]string{"bad.html": "a\n{% for x in xs %}"})
	code, out, stderr := runCLI(t, "--root", root, "--color", "off", "parse", filepath.Join(root, "bad.html"))
	if code != 1 || out != "" {
		t.Fatalf("exit %d, stdout %q", code, out)
	}
	for _, want := range []string{"error: unclosed construct", "bad.html:2:", "   2 >"} {
		if !strings.Contains(stderr, want) {
			t.Errorf("stderr lacks %q:\n%s", want, stderr)
		}
	}
}

func TestCheck(t *testing.T) {
	root := writeProject(t, map[string]string{
		"templates/good.html":    `{% block a %}{% endblock a %}`,
		"templates/bad.html":     `{% block a %}{% endblock b %}`,
		"templates/.hidden.html": `{% if %}`,
	})
	cacheDir := filepath.Join(t.TempDir(), "cache")
	args := []string{"--root", root, "check", "--cache-dir", cacheDir}

	code, _, stderr := runCLI(t, args...)
	if code != 1 {
		t.Fatalf("exit %d: %s", code, stderr)
	}
	if !strings.Contains(stderr, "name mismatch") || !strings.Contains(stderr, "checked 2 templates (0 cached), 1 failed") {
		t.Errorf("unexpected report:\n%s", stderr)
	}

	if err := os.WriteFile(filepath.Join(root, "templates/bad.html"), []byte("fixed"), 0o644); err != nil {
		t.Fatal(err)
	}
	code, _, stderr = runCLI(t, args...)
	if code != 0 || !strings.Contains(stderr, "checked 2 templates (1 cached), 0 failed") {
		t.Errorf("second run: exit %d:\n%s", code, stderr)
	}

	code, _, stderr = runCLI(t, append(args, "--clean-cache", "-q")...)
	if code != 0 || stderr != "" {
		t.Errorf("quiet run: exit %d: %q", code, stderr)
	}
}

func TestCheckNoCache(t *testing.T) {
	root := writeProject(t, map[string]string{"a.html": "x"})
	for range 2 {
		code, _, stderr := runCLI(t, "--root", root, "check", "--no-cache", filepath.Join(root, "a.html"))
		if code != 0 || !strings.Contains(stderr, "(0 cached)") {
			t.Errorf("exit %d:\n%s", code, stderr)
		}
	}
}

func TestConfigCommand(t *testing.T) {
	root := writeProject(t, map[string]string{
		"tmplc.toml": "[general]\ndirs = [\"views\"]\n",
	})
	code, out, stderr := runCLI(t, "--root", root, "--whitespace", "suppress", "config")
	if code != 0 {
		t.Fatalf("exit %d: %s", code, stderr)
	}
	for _, want := range []string{"whitespace: suppress", "default_syntax: default", filepath.Join(root, "views")} {
		if !strings.Contains(out, want) {
			t.Errorf("output lacks %q:\n%s", want, out)
		}
	}

	code, out, _ = runCLI(t, "--root", root, "config", "--format", "json")
	var got struct {
		Whitespace string `json:"whitespace"`
	}
	if code != 0 || json.Unmarshal([]byte(out), &got) != nil || got.Whitespace != "preserve" {
		t.Errorf("json config: exit %d, %q", code, out)
	}

	code, _, stderr = runCLI(t, "--root", root, "--whitespace", "trim", "config")
	if code != 1 || !strings.Contains(stderr, "invalid value for `whitespace`") {
		t.Errorf("expected a whitespace error, got %d: %s", code, stderr)
	}
}

func TestFindCommand(t *testing.T) {
	root := writeProject(t, map[string]string{
		"templates/a.html":     "",
		"templates/sub/a.html": "",
	})
	code, out, _ := runCLI(t, "--root", root, "find", "a.html")
	if code != 0 || strings.TrimSpace(out) != filepath.Join(root, "templates", "a.html") {
		t.Errorf("exit %d: %q", code, out)
	}

	origin := filepath.Join(root, "templates", "sub", "page.html")
	code, out, _ = runCLI(t, "--root", root, "find", "--origin", origin, "a.html")
	if code != 0 || strings.TrimSpace(out) != filepath.Join(root, "templates", "sub", "a.html") {
		t.Errorf("origin lookup: exit %d: %q", code, out)
	}

	code, _, stderr := runCLI(t, "--root", root, "find", "missing.html")
	if code != 1 || !strings.Contains(stderr, "not found") {
		t.Errorf("expected not found, got %d: %s", code, stderr)
	}
}

func TestUnknownProfileMode(t *testing.T) {
	code, _, stderr := runCLI(t, "--profile", "gpu", "config")
	if code != 1 || !strings.Contains(stderr, "unknown profile mode") {
		t.Errorf("exit %d: %s", code, stderr)
	}
}

func TestListTemplates(t *testing.T) {
	root := writeProject(t, map[string]string{
		"b.html":        "",
		"sub/a.html":    "",
		".git/config":   "",
		"sub/.swp.html": "",
	})
	got, err := listTemplates([]string{root, filepath.Join(root, "b.html")})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{filepath.Join(root, "b.html"), filepath.Join(root, "sub", "a.html")}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("files mismatch (-want +got):\n%s", diff)
	}

	if _, err := listTemplates([]string{filepath.Join(root, "nope")}); err == nil {
		t.Error("expected an error for a missing path")
	}
}

func TestWithin(t *testing.T) {
	dirs := []string{filepath.Join("proj", "templates")}
	for path, want := range map[string]bool{
		filepath.Join("proj", "templates", "a.html"):       true,
		filepath.Join("proj", "templates", "x", "b.html"):  true,
		filepath.Join("proj", "tmplc.toml"):                false,
		filepath.Join("proj", "templates-old", "a.html"):   false,
		filepath.Join("proj", "templates", "..", "a.html"): false,
	} {
		if got := within(path, dirs); got != want {
			t.Errorf("within(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestWatchLoop(t *testing.T) {
	dir := t.TempDir()
	w, err := fsnotify.NewWatcher()
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()
	if err := addTree(w, dir); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	batches := make(chan []string, 4)
	done := make(chan error, 1)
	go func() {
		done <- watchLoop(ctx, w, 20*time.Millisecond, func(b []string) { batches <- b })
	}()

	file := filepath.Join(dir, "a.html")
	if err := os.WriteFile(file, []byte("{{ x }}"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case b := <-batches:
		if diff := cmp.Diff([]string{file}, b); diff != "" {
			t.Errorf("batch mismatch (-want +got):\n%s", diff)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no batch delivered")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("watch loop: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watch loop did not stop")
	}
}
