// Package cache stores per-file lint results on disk so unchanged host
// documents are not analyzed twice.
package cache

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/panbanda/fraglint/pkg/models"
	"github.com/zeebo/blake3"
)

// Cache provides file-based caching of lint results.
type Cache struct {
	dir         string
	ttl         time.Duration
	enabled     bool
	fingerprint string
}

// Entry represents a cached result.
type Entry struct {
	Path      string            `json:"path"`
	Hash      string            `json:"hash"`
	Timestamp time.Time         `json:"timestamp"`
	Result    models.FileResult `json:"result"`
}

// New creates a new cache instance. fingerprint identifies the settings
// results were computed with; entries written under another fingerprint
// are misses.
func New(dir string, ttlHours int, enabled bool, fingerprint string) (*Cache, error) {
	if !enabled {
		return &Cache{enabled: false}, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	return &Cache{
		dir:         dir,
		ttl:         time.Duration(ttlHours) * time.Hour,
		enabled:     true,
		fingerprint: fingerprint,
	}, nil
}

// Enabled reports whether the cache reads and writes anything.
func (c *Cache) Enabled() bool {
	return c.enabled
}

// HashBytes computes a BLAKE3 hash of bytes and returns it as a hex string.
func HashBytes(data []byte) string {
	hash := blake3.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// Fingerprint hashes the JSON form of v, typically the effective config.
func Fingerprint(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return HashBytes(data), nil
}

func (c *Cache) contentHash(content []byte) string {
	h := blake3.New()
	_, _ = h.Write(content)
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(c.fingerprint))
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the cached result for path if it was computed from the same
// content and settings and has not expired.
func (c *Cache) Get(path string, content []byte) (models.FileResult, bool) {
	if !c.enabled {
		return models.FileResult{}, false
	}

	file := c.keyPath(path)
	data, err := os.ReadFile(file)
	if err != nil {
		return models.FileResult{}, false
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return models.FileResult{}, false
	}

	if entry.Path != path || entry.Hash != c.contentHash(content) {
		return models.FileResult{}, false
	}

	if time.Since(entry.Timestamp) > c.ttl {
		os.Remove(file)
		return models.FileResult{}, false
	}

	return entry.Result, true
}

// Set stores the result for path.
func (c *Cache) Set(path string, content []byte, result models.FileResult) error {
	if !c.enabled {
		return nil
	}

	entry := Entry{
		Path:      path,
		Hash:      c.contentHash(content),
		Timestamp: time.Now(),
		Result:    result,
	}

	entryData, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	return os.WriteFile(c.keyPath(path), entryData, 0600)
}

// Invalidate removes the entry for path.
func (c *Cache) Invalidate(path string) error {
	if !c.enabled {
		return nil
	}
	err := os.Remove(c.keyPath(path))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// Clear removes all cache entries.
func (c *Cache) Clear() error {
	if !c.enabled {
		return nil
	}
	return os.RemoveAll(c.dir)
}

// keyPath converts a key to a filesystem path.
func (c *Cache) keyPath(key string) string {
	// Use BLAKE3 hash of key for filename to avoid path issues
	hash := blake3.Sum256([]byte(key))
	return filepath.Join(c.dir, hex.EncodeToString(hash[:])+".json")
}

// Stats returns cache statistics.
type Stats struct {
	Dir       string        `json:"dir"`
	Entries   int           `json:"entries"`
	TotalSize int64         `json:"total_size"`
	OldestAge time.Duration `json:"oldest_age"`
	NewestAge time.Duration `json:"newest_age"`
}

// GetStats returns statistics about the cache.
func (c *Cache) GetStats() (*Stats, error) {
	if !c.enabled {
		return &Stats{}, nil
	}

	stats := &Stats{Dir: c.dir}
	var oldest, newest time.Time

	err := filepath.Walk(c.dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if info.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}

		stats.Entries++
		stats.TotalSize += info.Size()

		modTime := info.ModTime()
		if oldest.IsZero() || modTime.Before(oldest) {
			oldest = modTime
		}
		if newest.IsZero() || modTime.After(newest) {
			newest = modTime
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	if !oldest.IsZero() {
		stats.OldestAge = time.Since(oldest)
	}
	if !newest.IsZero() {
		stats.NewestAge = time.Since(newest)
	}

	return stats, nil
}
