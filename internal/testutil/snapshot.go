// Package testutil provides snapshot testing helpers for tmplc.
package testutil

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/andreyvit/diff"
	"github.com/goccy/go-yaml"
)

// UpdateEnv is the environment variable that makes AssertSnapshot rewrite
// snapshot files instead of comparing against them.
const UpdateEnv = "TMPLC_UPDATE_SNAPSHOTS"

// Snapshot represents a parsed .snap file: YAML metadata between two
// `---` lines followed by the expected output.
type Snapshot struct {
	Source      string `yaml:"source"`
	Description string `yaml:"description,omitempty"`
	InputFile   string `yaml:"input_file,omitempty"`
	Expected    string `yaml:"-"`
}

// ParseSnapshotFile parses a .snap file.
func ParseSnapshotFile(path string) (*Snapshot, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseSnapshot(string(content))
}

// ParseSnapshot parses the content of a .snap file. Content without
// metadata is taken as the expected output.
func ParseSnapshot(content string) (*Snapshot, error) {
	meta, body, ok := splitFrontmatter(content)
	if !ok {
		return &Snapshot{Expected: content}, nil
	}
	snap := &Snapshot{}
	if err := yaml.Unmarshal([]byte(meta), snap); err != nil {
		return nil, fmt.Errorf("invalid snapshot metadata: %w", err)
	}
	snap.Expected = body
	return snap, nil
}

// WriteSnapshotFile writes snap to path, creating the directory if needed.
func WriteSnapshotFile(path string, snap *Snapshot) error {
	meta, err := yaml.Marshal(snap)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.Write(meta)
	if !bytes.HasSuffix(meta, []byte("\n")) {
		buf.WriteByte('\n')
	}
	buf.WriteString("---\n")
	buf.WriteString(snap.Expected)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// FindSnapshotFile returns the snapshot path for an input file:
// <dir>/<prefix>@<input base name>.snap.
func FindSnapshotFile(snapshotDir, testPrefix, inputFile string) string {
	return filepath.Join(snapshotDir, testPrefix+"@"+filepath.Base(inputFile)+".snap")
}

// AssertSnapshot compares actual against the snapshot at path. With
// UpdateEnv set the snapshot is (re)written instead.
func AssertSnapshot(t *testing.T, path string, snap *Snapshot) {
	t.Helper()

	if os.Getenv(UpdateEnv) != "" {
		if err := WriteSnapshotFile(path, snap); err != nil {
			t.Fatalf("failed to write snapshot: %v", err)
		}
		return
	}

	want, err := ParseSnapshotFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			t.Fatalf("snapshot not found: %s (set %s=1 to create it)\nActual output:\n%s", path, UpdateEnv, snap.Expected)
		}
		t.Fatalf("failed to parse snapshot: %v", err)
	}
	if d := Diff(want.Expected, snap.Expected); d != "" {
		t.Errorf("output mismatch for %s\n%s", filepath.Base(path), d)
	}
}

// Diff returns a line diff between expected and actual, or "" when they
// are equal up to trailing newlines.
func Diff(expected, actual string) string {
	expected = strings.TrimRight(expected, "\n")
	actual = strings.TrimRight(actual, "\n")
	if expected == actual {
		return ""
	}
	return diff.LineDiff(expected, actual)
}

func splitFrontmatter(content string) (meta, body string, ok bool) {
	rest, found := strings.CutPrefix(content, "---\n")
	if !found {
		return "", "", false
	}
	if strings.HasPrefix(rest, "---\n") {
		return "", rest[len("---\n"):], true
	}
	meta, body, found = strings.Cut(rest, "\n---\n")
	if !found {
		return "", "", false
	}
	return meta, body, true
}
