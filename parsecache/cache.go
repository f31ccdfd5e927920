// Package parsecache memoizes parsed templates for one syntax.
package parsecache

import (
	"strconv"

	"github.com/tmplc/tmplc/internal/oncemap"
	"github.com/tmplc/tmplc/parser"
	"github.com/tmplc/tmplc/syntax"
)

type key struct {
	source string
	path   string
}

// Cache holds at most one successful parse per (source, path) pair. All
// entries share the syntax the cache was created with.
type Cache struct {
	syn     *syntax.Syntax
	entries *oncemap.Map[key, *parser.Template]
}

// New creates an empty cache for s. A nil s means the default syntax.
func New(s *syntax.Syntax) *Cache {
	if s == nil {
		s = syntax.Default()
	}
	return &Cache{
		syn: s,
		entries: oncemap.New[key, *parser.Template](func(k key) string {
			return strconv.Itoa(len(k.path)) + ":" + k.path + k.source
		}),
	}
}

// Syntax returns the syntax templates in this cache are parsed with.
func (c *Cache) Syntax() *syntax.Syntax {
	return c.syn
}

// Parse returns the template for source, parsing it on the first request.
// Repeated requests for the same source and path return the same
// *parser.Template. A failed parse is reported to the callers waiting on
// it and then forgotten, so a later request parses again.
func (c *Cache) Parse(source, path string) (*parser.Template, error) {
	return c.entries.Get(key{source, path}, func() (*parser.Template, error) {
		return parser.Parse(source, path, c.syn)
	})
}

// Cached reports whether a successful parse for source and path is stored.
func (c *Cache) Cached(source, path string) bool {
	_, ok := c.entries.Lookup(key{source, path})
	return ok
}

// Len returns the number of stored templates.
func (c *Cache) Len() int {
	return c.entries.Len()
}

// Reset drops every stored template.
func (c *Cache) Reset() {
	c.entries.Clear()
}
