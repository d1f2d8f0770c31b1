package testutil

import (
	"context"
	"testing"

	"github.com/quantmind-br/pkgjson-go/internal/cache"
	"github.com/quantmind-br/pkgjson-go/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// NewBadgerCache creates an in-memory BadgerDB cache for testing
func NewBadgerCache(t *testing.T) *cache.BadgerCache {
	t.Helper()

	c, err := cache.NewBadgerCache(cache.Options{
		InMemory: true,
		Logger:   false,
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		c.Close()
	})

	return c
}

// NewManifestStore creates a layered manifest cache over an in-memory BadgerDB
func NewManifestStore(t *testing.T) *cache.ManifestStore {
	t.Helper()

	memory, err := cache.NewMemoryManifestCache(16)
	require.NoError(t, err)

	persistent, err := cache.NewBadgerCache(cache.Options{InMemory: true})
	require.NoError(t, err)

	store, err := cache.NewManifestStore(memory, persistent, cache.StoreOptions{
		Logger: NewTestLogger(t),
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		store.Close()
	})

	return store
}

// VerifyCacheMiss verifies a key is absent from the cache
func VerifyCacheMiss(t *testing.T, c domain.Cache, key string) {
	t.Helper()

	_, err := c.Get(context.Background(), key)
	assert.ErrorIs(t, err, domain.ErrCacheMiss)
	assert.False(t, c.Has(context.Background(), key))
}
