// Package config resolves tmplc.toml into the settings the compiler runs
// with: template directories, named delimiter syntaxes, the whitespace
// policy and the escaper table.
package config

import (
	"fmt"
	"path/filepath"
	"slices"

	"github.com/BurntSushi/toml"

	"github.com/tmplc/tmplc/syntax"
)

const (
	// FileName is the config file looked up in the project root.
	FileName = "tmplc.toml"
	// DefaultSyntaxName is the name the built-in delimiters are registered
	// under.
	DefaultSyntaxName = "default"
	// DefaultDir is the template directory used when none is configured.
	DefaultDir = "templates"
)

// Escaper maps file extensions to the escaper generated code applies to
// templates with those extensions.
type Escaper struct {
	Path       string   `json:"path" yaml:"path"`
	Extensions []string `json:"extensions" yaml:"extensions"`
}

var builtinEscapers = []Escaper{
	{Path: "Html", Extensions: []string{"html", "htm", "j2", "jinja", "jinja2", "svg", "xml"}},
	{Path: "Text", Extensions: []string{"md", "none", "txt", "yml", ""}},
}

// Config is a resolved configuration. It is immutable after Resolve
// returns and safe to share.
type Config struct {
	Root          string                    `json:"root" yaml:"root"`
	Path          string                    `json:"path,omitempty" yaml:"path,omitempty"`
	Dirs          []string                  `json:"dirs" yaml:"dirs"`
	Syntaxes      map[string]*syntax.Syntax `json:"syntaxes" yaml:"syntaxes"`
	DefaultSyntax string                    `json:"default_syntax" yaml:"default_syntax"`
	Whitespace    syntax.Whitespace         `json:"whitespace" yaml:"whitespace"`
	Escapers      []Escaper                 `json:"escapers" yaml:"escapers"`
	// Unknown lists keys of the config file that were not recognized.
	Unknown []string `json:"unknown,omitempty" yaml:"unknown,omitempty"`
}

type rawConfig struct {
	General rawGeneral   `toml:"general"`
	Syntax  []rawSyntax  `toml:"syntax"`
	Escaper []rawEscaper `toml:"escaper"`
}

type rawGeneral struct {
	Dirs          []string `toml:"dirs"`
	DefaultSyntax string   `toml:"default_syntax"`
	Whitespace    string   `toml:"whitespace"`
}

// rawSyntax keeps delimiters as pointers so that an explicit empty string
// is rejected instead of falling back to the default.
type rawSyntax struct {
	Name         string  `toml:"name"`
	BlockStart   *string `toml:"block_start"`
	BlockEnd     *string `toml:"block_end"`
	ExprStart    *string `toml:"expr_start"`
	ExprEnd      *string `toml:"expr_end"`
	CommentStart *string `toml:"comment_start"`
	CommentEnd   *string `toml:"comment_end"`
}

type rawEscaper struct {
	Path       string   `toml:"path"`
	Extensions []string `toml:"extensions"`
}

// Resolve builds a Config from the TOML text raw. Relative template dirs
// are joined onto root. path names the file raw was read from and is only
// used in errors. A non-nil ws overrides the configured whitespace policy.
func Resolve(root, raw, path string, ws *string) (*Config, error) {
	var rc rawConfig
	var meta toml.MetaData
	if raw != "" {
		var err error
		if meta, err = toml.Decode(raw, &rc); err != nil {
			return nil, &Error{Path: path, Msg: fmt.Sprintf("invalid TOML in %s: %s", FileName, err), Err: err}
		}
	}

	cfg := &Config{
		Root:          root,
		Path:          path,
		Syntaxes:      map[string]*syntax.Syntax{DefaultSyntaxName: syntax.Default()},
		DefaultSyntax: DefaultSyntaxName,
		Whitespace:    syntax.Preserve,
	}
	for _, k := range meta.Undecoded() {
		cfg.Unknown = append(cfg.Unknown, k.String())
	}

	if meta.IsDefined("general", "dirs") {
		for _, dir := range rc.General.Dirs {
			cfg.Dirs = append(cfg.Dirs, filepath.Join(root, dir))
		}
	} else {
		cfg.Dirs = []string{filepath.Join(root, DefaultDir)}
	}
	if rc.General.DefaultSyntax != "" {
		cfg.DefaultSyntax = rc.General.DefaultSyntax
	}

	if meta.IsDefined("general", "whitespace") {
		if err := cfg.Whitespace.UnmarshalText([]byte(rc.General.Whitespace)); err != nil {
			return nil, &Error{Path: path, Err: err}
		}
	}
	if ws != nil {
		w, err := syntax.ParseWhitespace(*ws)
		if err != nil {
			return nil, &Error{Path: path, Err: err}
		}
		cfg.Whitespace = w
	}

	for i, rs := range rc.Syntax {
		if rs.Name == "" {
			return nil, &Error{
				Path: path,
				Msg:  fmt.Sprintf("syntax entry %d has no `name`", i+1),
				Err:  ErrMissingSyntaxName,
			}
		}
		if _, ok := cfg.Syntaxes[rs.Name]; ok {
			return nil, &Error{
				Path: path,
				Msg:  fmt.Sprintf("syntax %q is already defined", rs.Name),
				Err:  ErrDuplicateSyntaxName,
			}
		}
		s, err := rs.build()
		if err != nil {
			return nil, &Error{Path: path, Msg: fmt.Sprintf("syntax %q: %s", rs.Name, err), Err: err}
		}
		cfg.Syntaxes[rs.Name] = s
	}

	if _, ok := cfg.Syntaxes[cfg.DefaultSyntax]; !ok {
		return nil, &Error{
			Path: path,
			Msg:  fmt.Sprintf("default syntax %q not found", cfg.DefaultSyntax),
			Err:  ErrUnknownDefaultSyntax,
		}
	}

	for _, e := range rc.Escaper {
		cfg.Escapers = append(cfg.Escapers, Escaper{Path: e.Path, Extensions: e.Extensions})
	}
	for _, e := range builtinEscapers {
		cfg.Escapers = append(cfg.Escapers, Escaper{Path: e.Path, Extensions: slices.Clone(e.Extensions)})
	}

	return cfg, nil
}

func (rs rawSyntax) build() (*syntax.Syntax, error) {
	var o syntax.Overrides
	fields := []struct {
		src *string
		dst *string
	}{
		{rs.BlockStart, &o.BlockStart},
		{rs.BlockEnd, &o.BlockEnd},
		{rs.ExprStart, &o.ExprStart},
		{rs.ExprEnd, &o.ExprEnd},
		{rs.CommentStart, &o.CommentStart},
		{rs.CommentEnd, &o.CommentEnd},
	}
	for _, f := range fields {
		if f.src == nil {
			continue
		}
		if *f.src == "" {
			return nil, &syntax.SyntaxError{Kind: syntax.TooShort}
		}
		*f.dst = *f.src
	}
	return syntax.Build(o)
}

// Syntax returns the syntax registered under name.
func (c *Config) Syntax(name string) (*syntax.Syntax, bool) {
	s, ok := c.Syntaxes[name]
	return s, ok
}

// Default returns the default syntax.
func (c *Config) Default() *syntax.Syntax {
	return c.Syntaxes[c.DefaultSyntax]
}

// Escaper returns the escaper for a file extension, without the leading
// dot. Configured escapers take precedence over the built-in ones, and the
// first matching entry wins.
func (c *Config) Escaper(ext string) (string, bool) {
	for _, e := range c.Escapers {
		if slices.Contains(e.Extensions, ext) {
			return e.Path, true
		}
	}
	return "", false
}

// SyntaxNames returns the registered syntax names in sorted order.
func (c *Config) SyntaxNames() []string {
	names := make([]string, 0, len(c.Syntaxes))
	for name := range c.Syntaxes {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
