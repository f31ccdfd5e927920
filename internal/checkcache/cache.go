// Package checkcache remembers templates that already passed `tmplc check`
// so that unchanged files are not parsed again by the next run.
//
// Records are msgpack files named after a digest of the syntax, path and
// source. Only successful checks are stored.
package checkcache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/tmplc/tmplc/syntax"
)

// schemaVersion is bumped whenever Record changes shape.
const schemaVersion uint16 = 1

// Digest identifies one (syntax, path, source) triple.
type Digest [sha256.Size]byte

func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// Key computes the digest for a check of source at path under syn.
func Key(syn *syntax.Syntax, path, source string) Digest {
	if syn == nil {
		syn = syntax.Default()
	}
	h := sha256.New()
	for _, part := range []string{
		syn.BlockStart, syn.BlockEnd,
		syn.ExprStart, syn.ExprEnd,
		syn.CommentStart, syn.CommentEnd,
		path, source,
	} {
		var n [4]byte
		l := len(part)
		n[0], n[1], n[2], n[3] = byte(l>>24), byte(l>>16), byte(l>>8), byte(l)
		h.Write(n[:])
		h.Write([]byte(part))
	}
	var d Digest
	h.Sum(d[:0])
	return d
}

// Record is what gets stored for a successful check.
type Record struct {
	Schema    uint16
	Path      string
	Nodes     int
	Deps      []string
	CheckedAt int64 // unix seconds
}

// Cache is a directory of check records. A nil *Cache is valid and never
// hits. It is safe for concurrent use.
type Cache struct {
	mu  sync.RWMutex
	dir string
}

// Open returns a cache rooted at dir, creating it when needed.
func Open(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Cache{dir: dir}, nil
}

// OpenDefault opens the per-user cache under $XDG_CACHE_HOME/tmplc.
func OpenDefault() (*Cache, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return nil, err
	}
	return Open(filepath.Join(base, "tmplc", "check"))
}

// Dir returns the cache directory.
func (c *Cache) Dir() string {
	if c == nil {
		return ""
	}
	return c.dir
}

func (c *Cache) pathFor(key Digest) string {
	s := key.String()
	return filepath.Join(c.dir, s[:2], s+".mp")
}

// Put stores rec under key. The file is written to a temp file first and
// renamed into place.
func (c *Cache) Put(key Digest, rec *Record) (err error) {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(f.Name())
		}
	}()

	stored := *rec
	stored.Schema = schemaVersion
	if stored.CheckedAt == 0 {
		stored.CheckedAt = time.Now().Unix()
	}
	if err = msgpack.NewEncoder(f).Encode(&stored); err != nil {
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), p)
}

// Get loads the record for key. A missing record, or one written by an
// older schema, reports false with no error.
func (c *Cache) Get(key Digest) (*Record, bool, error) {
	if c == nil {
		return nil, false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer f.Close()

	var rec Record
	if err := msgpack.NewDecoder(f).Decode(&rec); err != nil {
		return nil, false, err
	}
	if rec.Schema != schemaVersion {
		return nil, false, nil
	}
	return &rec, true, nil
}

// Drop removes the record for key, if any.
func (c *Cache) Drop(key Digest) error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	err := os.Remove(c.pathFor(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// DropAll removes every record.
func (c *Cache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	old := c.dir + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(c.dir, old); err != nil {
		return err
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return err
	}
	return os.RemoveAll(old)
}
