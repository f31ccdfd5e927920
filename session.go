package tmplc

import (
	"errors"
	"log/slog"
	"os"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/tmplc/tmplc/config"
	"github.com/tmplc/tmplc/internal/log"
	"github.com/tmplc/tmplc/internal/oncemap"
	"github.com/tmplc/tmplc/parsecache"
	"github.com/tmplc/tmplc/parser"
	"github.com/tmplc/tmplc/syntax"
)

// LoaderFunc reads the source of a resolved template file.
type LoaderFunc func(file string) (string, error)

func readFile(file string) (string, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Option configures a Session.
type Option func(*Session)

// WithRoot sets the project root that relative config dirs are joined
// onto. The default is the working directory.
func WithRoot(root string) Option {
	return func(s *Session) {
		s.root = root
	}
}

// WithLogger sets the logger for cache and config events.
func WithLogger(l log.Logger) Option {
	return func(s *Session) {
		s.logger = l
	}
}

// WithLoader replaces the function used to read template files.
func WithLoader(loader LoaderFunc) Option {
	return func(s *Session) {
		s.loader = loader
	}
}

type configKey struct {
	raw, path string
	ws        string
	hasWS     bool
}

func (k configKey) String() string {
	ws := "-"
	if k.hasWS {
		ws = "+" + k.ws
	}
	return strconv.Itoa(len(k.raw)) + ":" + k.raw + strconv.Itoa(len(k.path)) + ":" + k.path + ws
}

// Session owns the memoized state of one compilation run: resolved
// configurations and one parse cache per syntax. Everything it hands out
// stays valid after Close; only the session's own caches are dropped.
//
// A Session is safe for concurrent use.
type Session struct {
	root   string
	logger log.Logger
	loader LoaderFunc

	configs *oncemap.Map[configKey, *config.Config]

	mu     sync.Mutex
	caches map[*syntax.Syntax]*parsecache.Cache

	closed atomic.Bool
}

// NewSession creates an empty session.
func NewSession(opts ...Option) *Session {
	s := &Session{
		root:    ".",
		loader:  readFile,
		configs: oncemap.New[configKey, *config.Config](configKey.String),
		caches:  make(map[*syntax.Syntax]*parsecache.Cache),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Root returns the project root.
func (s *Session) Root() string {
	return s.root
}

// Config resolves raw TOML into a configuration. Calls with the same raw
// text, path and whitespace override return the same *config.Config, and
// concurrent calls resolve it once. Failed resolutions are not retained.
func (s *Session) Config(raw, path string, ws *string) (*config.Config, error) {
	if s.closed.Load() {
		return nil, ErrSessionClosed
	}
	key := configKey{raw: raw, path: path}
	if ws != nil {
		key.ws, key.hasWS = *ws, true
	}
	cfg, err := s.configs.Get(key, func() (*config.Config, error) {
		cfg, err := config.Resolve(s.root, raw, path, ws)
		if err != nil {
			return nil, err
		}
		for _, k := range cfg.Unknown {
			s.logger.Warn("unknown config key", slog.String("key", k), slog.String("file", path))
		}
		s.logger.Debug("resolved config",
			slog.String("file", path),
			slog.Int("syntaxes", len(cfg.Syntaxes)),
			slog.Any("dirs", cfg.Dirs))
		return cfg, nil
	})
	if err != nil {
		return nil, wrapError(ErrConfig, path, err)
	}
	return cfg, nil
}

// LoadConfig reads the config file of the session root (see
// config.ReadConfigFile) and resolves it through Config.
func (s *Session) LoadConfig(path string, ws *string) (*config.Config, error) {
	if s.closed.Load() {
		return nil, ErrSessionClosed
	}
	raw, file, err := config.ReadConfigFile(s.root, path)
	if err != nil {
		return nil, wrapError(ErrConfig, path, err)
	}
	return s.Config(raw, file, ws)
}

// ParseCache returns the cache for syntax syn, creating it on first use.
// A nil syn means the default syntax. Distinct syntaxes never share a
// cache. It fails with ErrSessionClosed after Close.
func (s *Session) ParseCache(syn *syntax.Syntax) (*parsecache.Cache, error) {
	if syn == nil {
		syn = syntax.Default()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	// Close sets the flag before taking mu.
	if s.closed.Load() {
		return nil, ErrSessionClosed
	}
	c, ok := s.caches[syn]
	if !ok {
		c = parsecache.New(syn)
		s.caches[syn] = c
	}
	return c, nil
}

// Parse parses source through the cache of syn.
func (s *Session) Parse(syn *syntax.Syntax, source, path string) (*parser.Template, error) {
	c, err := s.ParseCache(syn)
	if err != nil {
		return nil, err
	}
	if !c.Cached(source, path) {
		s.logger.Debug("parse cache miss", slog.String("path", path), slog.Int("bytes", len(source)))
	}
	tmpl, err := c.Parse(source, path)
	if err != nil {
		return nil, wrapError(ErrParse, path, err)
	}
	return tmpl, nil
}

// Load resolves a template name with cfg.Find, reads it and parses it with
// the default syntax of cfg.
func (s *Session) Load(cfg *config.Config, name string) (*parser.Template, error) {
	return s.load(cfg, name, "")
}

// LoadFile reads and parses a template file given by path rather than by
// name.
func (s *Session) LoadFile(cfg *config.Config, file string) (*parser.Template, error) {
	if s.closed.Load() {
		return nil, ErrSessionClosed
	}
	return s.parseFile(cfg, file)
}

func (s *Session) load(cfg *config.Config, name, origin string) (*parser.Template, error) {
	if s.closed.Load() {
		return nil, ErrSessionClosed
	}
	file, err := cfg.Find(name, origin)
	if err != nil {
		return nil, wrapError(ErrTemplateNotFound, name, err)
	}
	return s.parseFile(cfg, file)
}

func (s *Session) parseFile(cfg *config.Config, file string) (*parser.Template, error) {
	source, err := s.loader(file)
	if err != nil {
		return nil, wrapError(ErrIO, file, err)
	}
	return s.Parse(cfg.Default(), source, file)
}

// Collect loads the template name and every template it reaches through
// extends, include and import tags. Each dependency is looked up next to
// the template that references it first, then in the config dirs. The
// result starts with the root template and lists each file once, in
// discovery order.
func (s *Session) Collect(cfg *config.Config, name string) ([]*parser.Template, error) {
	root, err := s.Load(cfg, name)
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{root.Path: true}
	out := []*parser.Template{root}
	for i := 0; i < len(out); i++ {
		tmpl := out[i]
		for _, dep := range tmpl.Dependencies() {
			file, err := cfg.Find(dep, tmpl.Path)
			if err != nil {
				return nil, wrapError(ErrTemplateNotFound, dep, err)
			}
			if seen[file] {
				continue
			}
			seen[file] = true
			t, err := s.parseFile(cfg, file)
			if err != nil {
				return nil, err
			}
			out = append(out, t)
		}
	}
	return out, nil
}

// Stats reports the number of memoized entries.
type Stats struct {
	Configs   int
	Caches    int
	Templates int
}

// Stats returns the current cache sizes.
func (s *Session) Stats() Stats {
	st := Stats{Configs: s.configs.Len()}
	s.mu.Lock()
	defer s.mu.Unlock()
	st.Caches = len(s.caches)
	for _, c := range s.caches {
		st.Templates += c.Len()
	}
	return st
}

// Close drops all cached state. Later calls return ErrSessionClosed;
// closing twice is an error too.
func (s *Session) Close() error {
	if s.closed.Swap(true) {
		return ErrSessionClosed
	}
	s.configs.Clear()
	s.mu.Lock()
	for syn, c := range s.caches {
		c.Reset()
		delete(s.caches, syn)
	}
	s.mu.Unlock()
	return nil
}

// IsNotFound reports whether err means a template could not be located.
func IsNotFound(err error) bool {
	var nf *config.NotFoundError
	return errors.As(err, &nf)
}
