package main

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/tmplc/tmplc"
	"github.com/tmplc/tmplc/config"
	"github.com/tmplc/tmplc/internal/checkcache"
	"github.com/tmplc/tmplc/internal/diag"
)

type checkOptions struct {
	jobs     int
	noCache  bool
	cacheDir string
	clean    bool
}

type checkResult struct {
	file   string
	err    error
	cached bool
}

func (a *app) checkCmd() *cobra.Command {
	var opts checkOptions
	cmd := &cobra.Command{
		Use:   "check [flags] [file|dir ...]",
		Short: "Parse templates and report errors",
		Long: `Check parses every given template in parallel and renders any errors.
With no arguments it checks every file in the template dirs of the config.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runCheck(cmd.Context(), args, opts)
		},
	}
	cmd.Flags().IntVarP(&opts.jobs, "jobs", "j", 0, "max parallel workers (0=auto)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "do not read or write the check cache")
	cmd.Flags().StringVar(&opts.cacheDir, "cache-dir", "", "check cache directory (default: user cache dir)")
	cmd.Flags().BoolVar(&opts.clean, "clean-cache", false, "drop all cached results before checking")
	return cmd
}

func (a *app) openCheckCache(opts checkOptions) *checkcache.Cache {
	if opts.noCache {
		return nil
	}
	var (
		c   *checkcache.Cache
		err error
	)
	if opts.cacheDir != "" {
		c, err = checkcache.Open(opts.cacheDir)
	} else {
		c, err = checkcache.OpenDefault()
	}
	if err != nil {
		a.logger.Warn("check cache disabled", slog.String("error", err.Error()))
		return nil
	}
	if opts.clean {
		if err := c.DropAll(); err != nil {
			a.logger.Warn("failed to clean check cache", slog.String("error", err.Error()))
		}
	}
	return c
}

func (a *app) runCheck(ctx context.Context, args []string, opts checkOptions) error {
	sess, cfg, err := a.open()
	if err != nil {
		return err
	}
	defer sess.Close()

	if len(args) == 0 {
		args = existingDirs(cfg.Dirs)
	}
	files, err := listTemplates(args)
	if err != nil {
		return err
	}

	cache := a.openCheckCache(opts)
	results, err := checkFiles(ctx, sess, cfg, cache, files, opts.jobs)
	if err != nil {
		return err
	}
	return a.report(results)
}

// checkFiles parses files with at most jobs workers. Parse failures are
// recorded per file; only a cancelled context aborts the run.
func checkFiles(ctx context.Context, sess *tmplc.Session, cfg *config.Config, cache *checkcache.Cache, files []string, jobs int) ([]checkResult, error) {
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	results := make([]checkResult, len(files))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, file := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = checkFile(sess, cfg, cache, file)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func checkFile(sess *tmplc.Session, cfg *config.Config, cache *checkcache.Cache, file string) checkResult {
	res := checkResult{file: file}
	data, err := os.ReadFile(file)
	if err != nil {
		res.err = err
		return res
	}
	source := string(data)
	syn := cfg.Default()
	key := checkcache.Key(syn, file, source)

	if _, ok, err := cache.Get(key); err == nil && ok {
		res.cached = true
		return res
	}

	tmpl, err := sess.Parse(syn, source, file)
	if err != nil {
		res.err = err
		return res
	}
	// A failed write only costs a re-parse next time.
	_ = cache.Put(key, &checkcache.Record{
		Path:  file,
		Nodes: len(tmpl.Nodes),
		Deps:  tmpl.Dependencies(),
	})
	return res
}

func (a *app) report(results []checkResult) error {
	var failed, cached int
	for _, r := range results {
		if r.cached {
			cached++
		}
		if r.err != nil {
			failed++
			a.renderErr(r.err)
		}
	}
	if !a.quiet {
		_, _ = fmt.Fprintf(a.stderr, "checked %d templates (%d cached), %d failed\n", len(results), cached, failed)
	}
	if failed > 0 {
		return errReported
	}
	return nil
}

func (a *app) renderErr(err error) {
	diag.Render(a.stderr, err, a.diagOptions())
}

func existingDirs(dirs []string) []string {
	var out []string
	for _, d := range dirs {
		if st, err := os.Stat(d); err == nil && st.IsDir() {
			out = append(out, d)
		}
	}
	return out
}

// listTemplates expands directories into the regular files below them,
// skipping dot files. The result is sorted and free of duplicates.
func listTemplates(paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		st, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("failed to stat path: %w", err)
		}
		if !st.IsDir() {
			files = append(files, p)
			continue
		}
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if path != p && strings.HasPrefix(d.Name(), ".") {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.Type().IsRegular() {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	slices.Sort(files)
	return slices.Compact(files), nil
}
