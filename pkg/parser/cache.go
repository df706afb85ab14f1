package parser

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/zeebo/blake3"
)

type entryKind byte

const (
	scriptKey entryKind = iota + 1
	templateKey
)

// cacheKey is a BLAKE3 digest of the text, salted with the parse mode.
type cacheKey [32]byte

func keyFor(kind entryKind, text string) cacheKey {
	h := blake3.New()
	_, _ = h.Write([]byte{byte(kind)})
	_, _ = h.Write([]byte(text))
	var k cacheKey
	copy(k[:], h.Sum(nil))
	return k
}

// Entry is a cached parse result: a tree or the failure.
type Entry struct {
	Tree *Tree
	Err  error
}

// Cache memoizes parse results by content hash. Both trees and failures
// are stored. It is safe for concurrent use; concurrent lookups of the same
// text agree on a single stored result.
type Cache struct {
	entries sync.Map // cacheKey -> Entry
	size    atomic.Int64
	hits    atomic.Int64
	misses  atomic.Int64
}

// CacheStats is a snapshot of cache counters.
type CacheStats struct {
	Entries int64 `json:"entries"`
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{}
}

// Lookup returns the stored result for text parsed as a script.
func (c *Cache) Lookup(text string) (Entry, bool) {
	return c.lookup(keyFor(scriptKey, text))
}

// Store records the result of parsing text as a script. An existing entry
// is kept.
func (c *Cache) Store(text string, tree *Tree, err error) {
	c.store(keyFor(scriptKey, text), Entry{Tree: tree, Err: err})
}

func (c *Cache) lookup(k cacheKey) (Entry, bool) {
	v, ok := c.entries.Load(k)
	if !ok {
		c.misses.Add(1)
		return Entry{}, false
	}
	c.hits.Add(1)
	return v.(Entry), true
}

func (c *Cache) store(k cacheKey, e Entry) Entry {
	v, loaded := c.entries.LoadOrStore(k, e)
	if !loaded {
		c.size.Add(1)
	}
	return v.(Entry)
}

// LoadOrParse returns the cached result for text parsed as a script,
// calling parse on a miss. The boolean reports whether the result came from
// the cache. Canceled parses are not stored.
func (c *Cache) LoadOrParse(text string, parse func() (*Tree, error)) (Entry, bool) {
	return c.loadOrParse(scriptKey, text, parse)
}

func (c *Cache) loadOrParse(kind entryKind, text string, parse func() (*Tree, error)) (Entry, bool) {
	k := keyFor(kind, text)
	if e, ok := c.lookup(k); ok {
		return e, true
	}
	tree, err := parse()
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return Entry{Tree: tree, Err: err}, false
	}
	return c.store(k, Entry{Tree: tree, Err: err}), false
}

// Stats returns the current counters.
func (c *Cache) Stats() CacheStats {
	return CacheStats{
		Entries: c.size.Load(),
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
	}
}

// Reset drops all entries and zeroes the counters.
func (c *Cache) Reset() {
	c.entries.Range(func(k, _ any) bool {
		c.entries.Delete(k)
		return true
	})
	c.size.Store(0)
	c.hits.Store(0)
	c.misses.Store(0)
}
