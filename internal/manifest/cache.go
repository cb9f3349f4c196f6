package manifest

import (
	"path/filepath"
	"time"

	"cursor-keeper/internal/logger"

	"github.com/spf13/afero"
)

/**
 * Time bounded manifest cache kept in a single file
 * @description
 * - Content is the raw manifest document, the file mtime is the freshness signal
 * - Every read failure (missing file, unreadable, corrupt JSON) is a miss
 * - Writes are best effort
 */
type Cache struct {
	fs     afero.Fs
	path   string
	maxAge time.Duration
	now    func() time.Time
}

// NewCache creates a cache stored at path on fs.
func NewCache(fs afero.Fs, path string, maxAge time.Duration) *Cache {
	return &Cache{fs: fs, path: path, maxAge: maxAge, now: time.Now}
}

// WithClock replaces the clock used for age checks.
func (c *Cache) WithClock(now func() time.Time) *Cache {
	if now != nil {
		c.now = now
	}
	return c
}

func (c *Cache) Path() string {
	return c.path
}

// Valid reports whether the cache file exists and is younger than maxAge.
func (c *Cache) Valid() bool {
	info, err := c.fs.Stat(c.path)
	if err != nil || info.IsDir() {
		return false
	}
	return c.now().Sub(info.ModTime()) < c.maxAge
}

/**
 * Load fresh cached manifest
 * @returns {*Manifest, bool} Manifest and true only when the file is fresh and well formed
 */
func (c *Cache) Load() (*Manifest, bool) {
	if !c.Valid() {
		return nil, false
	}
	return c.read()
}

/**
 * Load cached manifest regardless of age
 * @returns {*Manifest, bool} Manifest and true when the file exists and is well formed
 */
func (c *Cache) LoadStale() (*Manifest, bool) {
	return c.read()
}

func (c *Cache) read() (*Manifest, bool) {
	data, err := afero.ReadFile(c.fs, c.path)
	if err != nil {
		return nil, false
	}
	m, err := Decode(data)
	if err != nil {
		logger.Debugf("cache '%s' is corrupt, ignored: %v", c.path, err)
		return nil, false
	}
	return m, true
}

// Save writes raw to the cache file; errors are logged and dropped.
func (c *Cache) Save(raw []byte) {
	if err := c.fs.MkdirAll(filepath.Dir(c.path), 0755); err != nil {
		logger.Debugf("cache dir for '%s' not created: %v", c.path, err)
		return
	}
	if err := afero.WriteFile(c.fs, c.path, raw, 0644); err != nil {
		logger.Debugf("cache '%s' not written: %v", c.path, err)
	}
}
