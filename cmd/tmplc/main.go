// Command tmplc parses and checks templates with the tmplc front end.
package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tmplc/tmplc"
	"github.com/tmplc/tmplc/config"
	"github.com/tmplc/tmplc/internal/diag"
	"github.com/tmplc/tmplc/internal/log"
	"github.com/tmplc/tmplc/internal/profile"
)

var version = "dev"

// errReported is returned by commands that already printed their
// failures.
var errReported = errors.New("failures reported")

type app struct {
	stdout io.Writer
	stderr io.Writer

	root       string
	configPath string
	whitespace string
	color      string
	logFormat  string
	quiet      bool
	verbose    int
	prof       profile.Profiler

	logger  log.Logger
	stopper profile.Stopper
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a := &app{stdout: stdout, stderr: stderr}
	cmd := a.rootCmd()
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	a.teardown()
	if err != nil {
		if !errors.Is(err, errReported) {
			diag.Render(stderr, err, diag.Options{Color: a.useColor()})
		}
		return 1
	}
	return 0
}

func (a *app) rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "tmplc",
		Short:         "Template compiler front end",
		Long:          `tmplc parses Jinja-like templates, validates tmplc.toml and reports template errors.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return a.setup()
		},
	}
	cmd.SetOut(a.stdout)
	cmd.SetErr(a.stderr)

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.root, "root", "", "project root (default: nearest dir with tmplc.toml or go.mod)")
	flags.StringVar(&a.configPath, "config", "", "config file, relative to the project root")
	flags.StringVar(&a.whitespace, "whitespace", "", "override the whitespace policy (preserve|suppress|minimize)")
	flags.StringVar(&a.color, "color", "auto", "colorize output (auto|on|off)")
	flags.StringVar(&a.logFormat, "log-format", "text", "log format (text|json)")
	flags.BoolVarP(&a.quiet, "quiet", "q", false, "only print errors")
	flags.CountVarP(&a.verbose, "verbose", "v", "increase log verbosity (-v info, -vv debug)")
	flags.StringVar(&a.prof.Mode, "profile", "", "profile mode ("+strings.Join(profile.Modes(), "|")+")")
	flags.StringVar(&a.prof.Path, "profile-dir", "", "directory for profile output")

	cmd.AddCommand(
		a.parseCmd(),
		a.checkCmd(),
		a.configCmd(),
		a.findCmd(),
		a.watchCmd(),
	)
	return cmd
}

func (a *app) setup() error {
	if err := a.prof.Validate(); err != nil {
		return err
	}
	a.logger = log.Make(a.stderr,
		log.WithLevel(a.logLevel()),
		log.WithFormat(log.ParseFormat(a.logFormat)),
	)
	a.prof.Quiet = a.quiet
	a.stopper = a.prof.Start()
	return nil
}

func (a *app) teardown() {
	if a.stopper != nil {
		a.stopper.Stop()
	}
}

func (a *app) logLevel() log.Level {
	switch {
	case a.quiet:
		return log.LevelError
	case a.verbose >= 2:
		return log.LevelDebug
	case a.verbose == 1:
		return log.LevelInfo
	}
	return log.DefaultLevel
}

func (a *app) useColor() bool {
	f, _ := a.stderr.(*os.File)
	return diag.UseColor(a.color, f)
}

func (a *app) diagOptions() diag.Options {
	return diag.Options{Color: a.useColor(), Context: diag.DefaultContext}
}

func (a *app) projectRoot() (string, error) {
	if a.root != "" {
		return a.root, nil
	}
	return config.FindProjectRoot(".")
}

func (a *app) newSession() (*tmplc.Session, error) {
	root, err := a.projectRoot()
	if err != nil {
		return nil, err
	}
	a.logger.Debug("project root", slog.String("dir", root))
	return tmplc.NewSession(tmplc.WithRoot(root), tmplc.WithLogger(a.logger)), nil
}

// loadConfig resolves the project config through sess, applying the
// --config and --whitespace flags.
func (a *app) loadConfig(sess *tmplc.Session) (*config.Config, error) {
	var ws *string
	if a.whitespace != "" {
		ws = &a.whitespace
	}
	return sess.LoadConfig(a.configPath, ws)
}

// open starts a session and resolves its config in one step.
func (a *app) open() (*tmplc.Session, *config.Config, error) {
	sess, err := a.newSession()
	if err != nil {
		return nil, nil, err
	}
	cfg, err := a.loadConfig(sess)
	if err != nil {
		_ = sess.Close()
		return nil, nil, err
	}
	return sess, cfg, nil
}
