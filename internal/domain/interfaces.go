package domain

//go:generate mockgen -source=interfaces.go -destination=../testutil/mocks/domain_mock.go -package=mocks

import (
	"context"
	"time"

	"github.com/quantmind-br/pkgjson-go/pkg/pkgjson"
)

// Cache defines the interface for persistent byte caching
type Cache interface {
	// Get retrieves a value from cache
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores a value in cache with TTL
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Has checks if a key exists in cache
	Has(ctx context.Context, key string) bool
	// Delete removes a key from cache
	Delete(ctx context.Context, key string) error
	// Close releases cache resources
	Close() error
}

// ManifestCache stores parsed manifests keyed by manifest path.
// Implementations validate entries against the file they came from.
type ManifestCache interface {
	// Get returns the manifest cached for path, or ErrCacheMiss
	Get(ctx context.Context, path string, stat FileStamp) (*pkgjson.Manifest, error)
	// Put caches a manifest loaded from path
	Put(ctx context.Context, path string, stat FileStamp, m *pkgjson.Manifest) error
	// Invalidate drops any entry for path
	Invalidate(ctx context.Context, path string) error
}

// ManifestLoader locates and loads manifests from the filesystem
type ManifestLoader interface {
	// Load reads the manifest file at path
	Load(ctx context.Context, path string) (*LoadedManifest, error)
	// LoadDir reads the manifest of the package rooted at dir
	LoadDir(ctx context.Context, dir string) (*LoadedManifest, error)
	// Closest walks up from start to the nearest directory holding a manifest
	Closest(ctx context.Context, start string) (*LoadedManifest, error)
}
