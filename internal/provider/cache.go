package provider

import (
	"crypto/md5"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Cache is a file-based response cache shared by the vendor connectors. It
// keeps provider calls off the wire when the same window is requested twice,
// which matters for rate-limited free API tiers.
type Cache struct {
	dir     string
	ttl     time.Duration
	enabled bool
}

// NewCache creates a cache rooted at dir. A disabled cache is a no-op.
func NewCache(dir string, ttl time.Duration, enabled bool) *Cache {
	return &Cache{
		dir:     dir,
		ttl:     ttl,
		enabled: enabled,
	}
}

func (c *Cache) key(vendor, method string, params any) string {
	data, _ := json.Marshal(params)
	hash := md5.Sum(data)
	return fmt.Sprintf("%s_%s_%x.json", vendor, method, hash)
}

// Get retrieves a cached response if present and not expired.
func (c *Cache) Get(vendor, method string, params, result any) bool {
	if c == nil || !c.enabled {
		return false
	}

	path := filepath.Join(c.dir, c.key(vendor, method, params))

	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	if time.Since(info.ModTime()) > c.ttl {
		os.Remove(path)
		return false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	return json.Unmarshal(data, result) == nil
}

// Set stores a response in the cache.
func (c *Cache) Set(vendor, method string, params, data any) error {
	if c == nil || !c.enabled {
		return nil
	}

	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return err
	}

	encoded, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}

	path := filepath.Join(c.dir, c.key(vendor, method, params))
	return os.WriteFile(path, encoded, 0o644)
}
