package cache

import (
	"time"

	"github.com/quantmind-br/pkgjson-go/internal/domain"
)

// Ensure the caches implement the domain interfaces
var (
	_ domain.Cache         = (*BadgerCache)(nil)
	_ domain.ManifestCache = (*MemoryManifestCache)(nil)
	_ domain.ManifestCache = (*ManifestStore)(nil)
)

// Entry is a manifest stored in the persistent cache
type Entry struct {
	Path      string    `json:"path"`
	Size      int64     `json:"size"`
	ModTime   time.Time `json:"mod_time"`
	Document  []byte    `json:"document"`
	StoredAt  time.Time `json:"stored_at"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// IsExpired returns true if the entry has expired. Entries without an
// expiry never expire.
func (e *Entry) IsExpired() bool {
	return !e.ExpiresAt.IsZero() && time.Now().After(e.ExpiresAt)
}

// TTL returns the remaining time-to-live
func (e *Entry) TTL() time.Duration {
	if e.ExpiresAt.IsZero() {
		return 0
	}
	remaining := time.Until(e.ExpiresAt)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Stamp returns the file stamp the entry was stored under
func (e *Entry) Stamp() domain.FileStamp {
	return domain.FileStamp{Size: e.Size, ModTime: e.ModTime}
}

// Options contains cache configuration options
type Options struct {
	Directory string
	InMemory  bool
	// Logger enables badger's own logging
	Logger bool
	// LockTimeout bounds how long opening waits for another process to
	// release the directory lock
	LockTimeout time.Duration
}

// DefaultOptions returns default cache options
func DefaultOptions() Options {
	return Options{
		Directory:   "",
		InMemory:    false,
		Logger:      false,
		LockTimeout: 2 * time.Second,
	}
}
