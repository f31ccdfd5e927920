package testutil

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"

	"github.com/tmplc/tmplc/syntax"
)

// TestInput represents a parsed test input file.
//
// Format: an optional YAML frontmatter block between `---` lines, then the
// template source verbatim.
type TestInput struct {
	Description string           `yaml:"description"`
	Path        string           `yaml:"path"`
	Syntax      syntax.Overrides `yaml:"syntax"`
	Template    string           `yaml:"-"`
}

// HasSyntax reports whether the input overrides any delimiter.
func (in *TestInput) HasSyntax() bool {
	return in.Syntax != syntax.Overrides{}
}

// ParseTestInputFile reads and parses a test input file.
func ParseTestInputFile(path string) (*TestInput, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	in, err := ParseTestInput(string(content))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return in, nil
}

// ParseTestInput parses test input content.
func ParseTestInput(content string) (*TestInput, error) {
	meta, body, ok := splitFrontmatter(content)
	if !ok {
		return &TestInput{Template: content}, nil
	}
	in := &TestInput{}
	if err := yaml.Unmarshal([]byte(meta), in); err != nil {
		return nil, err
	}
	in.Template = body
	return in, nil
}

// GlobTestInputs finds all test input files matching a pattern.
func GlobTestInputs(pattern string) ([]string, error) {
	return filepath.Glob(pattern)
}
