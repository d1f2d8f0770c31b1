package cache

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/quantmind-br/pkgjson-go/internal/domain"
	"github.com/quantmind-br/pkgjson-go/pkg/pkgjson"
)

// DefaultMemoryEntries is the LRU size used when none is configured
const DefaultMemoryEntries = 512

type memoryEntry struct {
	manifest *pkgjson.Manifest
	stamp    domain.FileStamp
}

// MemoryManifestCache keeps recently loaded manifests in process.
// Manifests are immutable, so entries are shared without copying.
type MemoryManifestCache struct {
	entries *lru.Cache[string, memoryEntry]
}

// NewMemoryManifestCache creates an LRU manifest cache holding up to size entries
func NewMemoryManifestCache(size int) (*MemoryManifestCache, error) {
	if size <= 0 {
		size = DefaultMemoryEntries
	}
	entries, err := lru.New[string, memoryEntry](size)
	if err != nil {
		return nil, err
	}
	return &MemoryManifestCache{entries: entries}, nil
}

// Get returns the manifest cached for path if it was stored under the same stamp
func (c *MemoryManifestCache) Get(_ context.Context, path string, stamp domain.FileStamp) (*pkgjson.Manifest, error) {
	key := normalizeForKey(path)
	e, ok := c.entries.Get(key)
	if !ok {
		return nil, domain.ErrCacheMiss
	}
	if !e.stamp.Matches(stamp) {
		c.entries.Remove(key)
		return nil, domain.ErrCacheStale
	}
	return e.manifest, nil
}

// Put caches m for path
func (c *MemoryManifestCache) Put(_ context.Context, path string, stamp domain.FileStamp, m *pkgjson.Manifest) error {
	c.entries.Add(normalizeForKey(path), memoryEntry{manifest: m, stamp: stamp})
	return nil
}

// Invalidate drops the entry for path
func (c *MemoryManifestCache) Invalidate(_ context.Context, path string) error {
	c.entries.Remove(normalizeForKey(path))
	return nil
}

// Len returns the number of cached manifests
func (c *MemoryManifestCache) Len() int {
	return c.entries.Len()
}

// Purge drops every entry
func (c *MemoryManifestCache) Purge() {
	c.entries.Purge()
}
