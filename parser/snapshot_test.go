package parser

import (
	"path/filepath"
	"testing"

	"github.com/tmplc/tmplc/internal/testutil"
	"github.com/tmplc/tmplc/syntax"
)

func TestParserSnapshots(t *testing.T) {
	files, err := testutil.GlobTestInputs("testdata/inputs/*.txt")
	if err != nil {
		t.Fatalf("failed to glob inputs: %v", err)
	}
	if len(files) == 0 {
		t.Fatal("no test inputs found")
	}

	for _, file := range files {
		name := filepath.Base(file)
		t.Run(name, func(t *testing.T) {
			in, err := testutil.ParseTestInputFile(file)
			if err != nil {
				t.Fatalf("failed to read input: %v", err)
			}

			var syn *syntax.Syntax
			if in.HasSyntax() {
				if syn, err = syntax.Build(in.Syntax); err != nil {
					t.Fatalf("invalid syntax: %v", err)
				}
			}

			tmpl, perr := Parse(in.Template, in.Path, syn)
			testutil.AssertSnapshot(t, testutil.FindSnapshotFile("testdata/snapshots", "parser", file), &testutil.Snapshot{
				Source:      "parser/snapshot_test.go",
				Description: in.Description,
				InputFile:   name,
				Expected:    FormatResult(tmpl, perr),
			})
		})
	}
}
