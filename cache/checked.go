package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// CheckedCache remembers the content hash of every file that passed
// `vsharp check`, so that unchanged files can be skipped on the next run.
// The data is persisted as JSON. An empty path disables the cache.
type CheckedCache struct {
	mu       sync.RWMutex
	entries  map[string]CheckedEntry // Key: absolute path
	filePath string
}

// CheckedEntry is what is remembered about a file that passed.
type CheckedEntry struct {
	Hash    string   `json:"hash"`              // hex sha256 of the source
	Imports []string `json:"imports,omitempty"` // resolved import targets
}

// NewCheckedCache creates a cache persisted at filePath.
func NewCheckedCache(filePath string) *CheckedCache {
	return &CheckedCache{entries: make(map[string]CheckedEntry), filePath: filePath}
}

// IsEnabled reports whether the cache is backed by a file.
func (c *CheckedCache) IsEnabled() bool { return c.filePath != "" }

// Load reads the cache file. A missing file is not an error; a corrupted
// one is discarded.
func (c *CheckedCache) Load() error {
	if !c.IsEnabled() {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := os.ReadFile(c.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read cache file %s: %w", c.filePath, err)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, &c.entries); err != nil {
		c.entries = make(map[string]CheckedEntry)
	}
	return nil
}

// Save writes the cache file, creating its directory if needed.
func (c *CheckedCache) Save() error {
	if !c.IsEnabled() {
		return nil
	}
	c.mu.RLock()
	data, err := json.MarshalIndent(c.entries, "", "  ")
	c.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to marshal cache data: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(c.filePath), 0o750); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	if err := os.WriteFile(c.filePath, data, 0o640); err != nil {
		return fmt.Errorf("failed to write cache file %s: %w", c.filePath, err)
	}
	return nil
}

// Hash returns the key used for src.
func Hash(src []byte) string {
	sum := sha256.Sum256(src)
	return hex.EncodeToString(sum[:])
}

// Fresh reports whether path was checked with exactly this content and
// every import it resolved then still exists.
func (c *CheckedCache) Fresh(path string, src []byte, exists func(string) bool) bool {
	c.mu.RLock()
	entry, ok := c.entries[path]
	c.mu.RUnlock()
	if !ok || entry.Hash != Hash(src) {
		return false
	}
	for _, target := range entry.Imports {
		if !exists(target) {
			return false
		}
	}
	return true
}

// Mark records that path passed with this content and these resolved imports.
func (c *CheckedCache) Mark(path string, src []byte, imports []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[path] = CheckedEntry{Hash: Hash(src), Imports: imports}
}

// Forget drops path, e.g. after it failed.
func (c *CheckedCache) Forget(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, path)
}
