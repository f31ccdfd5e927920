package testutil

import (
	"path/filepath"
	"testing"
)

func TestParseSnapshot(t *testing.T) {
	snap, err := ParseSnapshot("---\nsource: parser/parser_test.go\ndescription: \"loops\"\n---\nLit {\n}\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.Source != "parser/parser_test.go" || snap.Description != "loops" {
		t.Errorf("unexpected metadata: %+v", snap)
	}
	if snap.Expected != "Lit {\n}\n" {
		t.Errorf("unexpected body %q", snap.Expected)
	}

	plain, err := ParseSnapshot("just output\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plain.Expected != "just output\n" {
		t.Errorf("unexpected body %q", plain.Expected)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "x@a.txt.snap")
	in := &Snapshot{Source: "x_test.go", InputFile: "a.txt", Expected: "line 1\nline 2\n"}
	if err := WriteSnapshotFile(path, in); err != nil {
		t.Fatalf("write: %v", err)
	}
	out, err := ParseSnapshotFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if *out != *in {
		t.Errorf("got %+v, want %+v", out, in)
	}
}

func TestParseTestInput(t *testing.T) {
	in, err := ParseTestInput("---\ndescription: custom\nsyntax:\n  block_start: \"<%\"\n  block_end: \"%>\"\n---\n<% if x %>y<% endif %>")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !in.HasSyntax() || in.Syntax.BlockStart != "<%" || in.Syntax.BlockEnd != "%>" {
		t.Errorf("unexpected syntax %+v", in.Syntax)
	}
	if in.Template != "<% if x %>y<% endif %>" {
		t.Errorf("unexpected template %q", in.Template)
	}

	bare, err := ParseTestInput("{{ x }}\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bare.HasSyntax() || bare.Template != "{{ x }}\n" {
		t.Errorf("unexpected input %+v", bare)
	}
}

func TestDiff(t *testing.T) {
	if d := Diff("a\nb\n", "a\nb"); d != "" {
		t.Errorf("expected no diff, got %q", d)
	}
	if d := Diff("a\nb", "a\nc"); d == "" {
		t.Error("expected a diff")
	}
}
