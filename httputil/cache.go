package httputil

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
)

// Cache stores response bodies on disk keyed by the sha256 of the URL.
type Cache struct {
	dir string
}

func NewCache(dir string) *Cache {
	return &Cache{dir: dir}
}

func (c *Cache) path(rawURL string) string {
	sum := sha256.Sum256([]byte(rawURL))
	key := hex.EncodeToString(sum[:])
	return filepath.Join(c.dir, key[:2], key+".html")
}

func (c *Cache) Get(rawURL string) ([]byte, bool) {
	data, err := os.ReadFile(c.path(rawURL))
	if err != nil {
		return nil, false
	}
	return data, true
}

func (c *Cache) Put(rawURL string, body []byte) error {
	p := c.path(rawURL)
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return err
	}
	return os.WriteFile(p, body, 0644)
}
