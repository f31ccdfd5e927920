package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// ReadConfigFile reads the config file for a project. An empty path means
// root/tmplc.toml, which may be missing; the returned content and file
// name are then empty. An explicit path is joined onto root unless it is
// absolute, and must exist.
func ReadConfigFile(root, path string) (content, file string, err error) {
	name := path
	if name == "" {
		name = FileName
	}
	if !filepath.IsAbs(name) {
		name = filepath.Join(root, name)
	}

	data, err := os.ReadFile(name)
	switch {
	case err == nil:
		return string(data), name, nil
	case errors.Is(err, fs.ErrNotExist) && path == "":
		return "", "", nil
	case errors.Is(err, fs.ErrNotExist):
		return "", "", &Error{Path: name, Msg: "config file does not exist", Err: ErrConfigNotFound}
	default:
		return "", "", &Error{Path: name, Msg: fmt.Sprintf("unable to read config: %s", err), Err: err}
	}
}

// projectMarkers are the files that mark a project root, in priority order
// within one directory.
var projectMarkers = []string{FileName, "go.mod"}

// FindProjectRoot walks up from start to the nearest directory holding
// tmplc.toml or go.mod. When there is none, the absolute start directory
// is returned.
func FindProjectRoot(start string) (string, error) {
	if start == "" {
		start = "."
	}
	abs, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for dir := abs; ; {
		for _, marker := range projectMarkers {
			candidate := filepath.Join(dir, marker)
			if _, err := os.Stat(candidate); err == nil {
				return dir, nil
			} else if !errors.Is(err, fs.ErrNotExist) {
				return "", fmt.Errorf("failed to stat %q: %w", candidate, err)
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return abs, nil
		}
		dir = parent
	}
}
