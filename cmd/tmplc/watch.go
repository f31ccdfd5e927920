package main

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/tmplc/tmplc/config"
)

const defaultDebounce = 100 * time.Millisecond

func (a *app) watchCmd() *cobra.Command {
	var debounce time.Duration
	cmd := &cobra.Command{
		Use:   "watch [flags] [dir ...]",
		Short: "Re-check templates whenever they change",
		Long: `Watch checks all templates once, then re-checks changed files as they are
written. Each batch of changes runs in a fresh session, so config edits
and template fixes are always picked up.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runWatch(cmd.Context(), args, debounce)
		},
	}
	cmd.Flags().DurationVar(&debounce, "debounce", defaultDebounce, "quiet period before a batch of changes is checked")
	return cmd
}

func (a *app) runWatch(ctx context.Context, dirs []string, debounce time.Duration) error {
	root, err := a.projectRoot()
	if err != nil {
		return err
	}
	if len(dirs) == 0 {
		sess, cfg, err := a.open()
		if err != nil {
			return err
		}
		dirs = existingDirs(cfg.Dirs)
		_ = sess.Close()
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	defer w.Close()

	for _, dir := range dirs {
		if err := addTree(w, dir); err != nil {
			return err
		}
	}
	// The config file lives at the root.
	if err := w.Add(root); err != nil {
		a.logger.Warn("not watching project root", slog.String("dir", root), slog.String("error", err.Error()))
	}

	a.checkBatch(ctx, dirs, nil)
	return watchLoop(ctx, w, debounce, func(changed []string) {
		if slices.ContainsFunc(changed, isConfigFile) {
			a.checkBatch(ctx, dirs, nil)
			return
		}
		changed = slices.DeleteFunc(changed, func(p string) bool { return !within(p, dirs) })
		if len(changed) > 0 {
			a.checkBatch(ctx, dirs, changed)
		}
	})
}

// checkBatch checks the changed files, or every file below dirs when
// changed is nil, in a new session.
func (a *app) checkBatch(ctx context.Context, dirs, changed []string) {
	sess, cfg, err := a.open()
	if err != nil {
		a.renderErr(err)
		return
	}
	defer sess.Close()

	files := changed
	if files == nil {
		if files, err = listTemplates(dirs); err != nil {
			a.renderErr(err)
			return
		}
	}
	results, err := checkFiles(ctx, sess, cfg, nil, files, 0)
	if err != nil {
		return
	}
	_ = a.report(results)
}

// watchLoop collects events until the watcher has been quiet for
// debounce, then hands the changed paths to onBatch in sorted order.
// Removed files are dropped from the batch. It returns when ctx is done
// or the watcher is closed.
func watchLoop(ctx context.Context, w *fsnotify.Watcher, debounce time.Duration, onBatch func([]string)) error {
	pending := make(map[string]struct{})
	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&fsnotify.Create != 0 {
				if st, err := os.Stat(ev.Name); err == nil && st.IsDir() {
					_ = addTree(w, ev.Name)
					continue
				}
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			if strings.HasPrefix(filepath.Base(ev.Name), ".") {
				continue
			}
			pending[ev.Name] = struct{}{}
			timer.Reset(debounce)

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watch failed: %w", err)

		case <-timer.C:
			var batch []string
			for _, name := range slices.Sorted(maps.Keys(pending)) {
				if st, err := os.Stat(name); err == nil && st.Mode().IsRegular() {
					batch = append(batch, name)
				}
			}
			clear(pending)
			if len(batch) > 0 {
				onBatch(batch)
			}
		}
	}
}

func addTree(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
}

// within reports whether path lies below one of dirs.
func within(path string, dirs []string) bool {
	for _, dir := range dirs {
		rel, err := filepath.Rel(dir, path)
		if err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func isConfigFile(path string) bool {
	return filepath.Base(path) == config.FileName
}
