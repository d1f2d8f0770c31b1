package cache

import (
	"context"
	"errors"
	"time"

	"github.com/quantmind-br/pkgjson-go/internal/domain"
	"github.com/quantmind-br/pkgjson-go/internal/utils"
	"github.com/quantmind-br/pkgjson-go/pkg/pkgjson"
)

// StoreOptions configures a ManifestStore
type StoreOptions struct {
	// TTL of persistent entries. Zero keeps entries until the file changes.
	TTL    time.Duration
	Logger *utils.Logger
}

// ManifestStore layers the in-process LRU over an optional persistent cache.
// Persistent entries are validated against the file's size and modification
// time. Persistent cache failures are logged and never fail a lookup.
type ManifestStore struct {
	memory     *MemoryManifestCache
	persistent domain.Cache
	codec      *codec
	ttl        time.Duration
	logger     *utils.Logger
}

// NewManifestStore creates a layered manifest cache. persistent may be nil.
func NewManifestStore(memory *MemoryManifestCache, persistent domain.Cache, opts StoreOptions) (*ManifestStore, error) {
	if memory == nil {
		var err error
		if memory, err = NewMemoryManifestCache(DefaultMemoryEntries); err != nil {
			return nil, err
		}
	}
	c, err := newCodec()
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	return &ManifestStore{
		memory:     memory,
		persistent: persistent,
		codec:      c,
		ttl:        opts.TTL,
		logger:     logger.WithComponent("cache"),
	}, nil
}

// Get returns the manifest for path if a fresh entry exists in either layer
func (s *ManifestStore) Get(ctx context.Context, path string, stamp domain.FileStamp) (*pkgjson.Manifest, error) {
	m, err := s.memory.Get(ctx, path, stamp)
	if err == nil {
		s.logger.Debug().Str("path", path).Str("layer", "memory").Msg("Cache hit")
		return m, nil
	}
	if s.persistent == nil {
		return nil, err
	}

	key := ManifestKey(path)
	data, err := s.persistent.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, domain.ErrCacheMiss) {
			s.logger.Warn().Err(err).Str("path", path).Msg("Persistent cache read failed")
		}
		return nil, domain.ErrCacheMiss
	}

	entry, err := s.codec.decode(data)
	if err != nil {
		s.logger.Warn().Err(err).Str("path", path).Msg("Dropping unreadable cache entry")
		s.dropPersistent(ctx, key)
		return nil, domain.ErrCacheMiss
	}
	if entry.IsExpired() {
		s.dropPersistent(ctx, key)
		return nil, domain.ErrCacheExpired
	}
	if !entry.Stamp().Matches(stamp) {
		s.logger.Debug().Str("path", path).Msg("Cache entry stale")
		s.dropPersistent(ctx, key)
		return nil, domain.ErrCacheStale
	}

	m, err = pkgjson.Parse(entry.Document)
	if err != nil {
		s.logger.Warn().Err(err).Str("path", path).Msg("Dropping invalid cached manifest")
		s.dropPersistent(ctx, key)
		return nil, domain.ErrCacheMiss
	}

	_ = s.memory.Put(ctx, path, stamp, m)
	s.logger.Debug().Str("path", path).Str("layer", "persistent").Msg("Cache hit")
	return m, nil
}

// Put stores m in both layers
func (s *ManifestStore) Put(ctx context.Context, path string, stamp domain.FileStamp, m *pkgjson.Manifest) error {
	_ = s.memory.Put(ctx, path, stamp, m)
	if s.persistent == nil {
		return nil
	}

	doc, err := m.MarshalJSON()
	if err != nil {
		return err
	}
	now := time.Now()
	entry := &Entry{
		Path:     path,
		Size:     stamp.Size,
		ModTime:  stamp.ModTime,
		Document: doc,
		StoredAt: now,
	}
	if s.ttl > 0 {
		entry.ExpiresAt = now.Add(s.ttl)
	}

	data, err := s.codec.encode(entry)
	if err != nil {
		return err
	}
	if err := s.persistent.Set(ctx, ManifestKey(path), data, s.ttl); err != nil {
		s.logger.Warn().Err(err).Str("path", path).Msg("Persistent cache write failed")
	}
	return nil
}

// Invalidate drops path from both layers
func (s *ManifestStore) Invalidate(ctx context.Context, path string) error {
	_ = s.memory.Invalidate(ctx, path)
	if s.persistent == nil {
		return nil
	}
	return s.persistent.Delete(ctx, ManifestKey(path))
}

// Close releases the codec and the persistent cache
func (s *ManifestStore) Close() error {
	s.codec.close()
	if s.persistent == nil {
		return nil
	}
	return s.persistent.Close()
}

func (s *ManifestStore) dropPersistent(ctx context.Context, key string) {
	if err := s.persistent.Delete(ctx, key); err != nil {
		s.logger.Debug().Err(err).Str("key", key).Msg("Failed to drop cache entry")
	}
}
