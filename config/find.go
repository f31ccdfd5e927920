package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// NotFoundError is returned by Find when no candidate file exists.
type NotFoundError struct {
	Path string
	Dirs []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("template %q not found in directories %q", e.Path, e.Dirs)
}

// Find resolves a template path. When origin is set, the path is first
// tried relative to the directory of origin; then each configured dir is
// tried in order. The first existing candidate is returned.
func (c *Config) Find(path, origin string) (string, error) {
	if origin != "" {
		if candidate := joinPath(filepath.Dir(origin), path); exists(candidate) {
			return candidate, nil
		}
	}
	for _, dir := range c.Dirs {
		if candidate := joinPath(dir, path); exists(candidate) {
			return candidate, nil
		}
	}
	return "", &NotFoundError{Path: path, Dirs: c.Dirs}
}

func joinPath(dir, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, filepath.FromSlash(path))
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
