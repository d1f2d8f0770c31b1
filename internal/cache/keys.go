package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
)

// KeyPrefix constants for different cache entry types
const (
	PrefixManifest = "manifest"
)

// GenerateKey generates a cache key from a file path.
// The key is a SHA256 hash of the cleaned absolute path.
func GenerateKey(path string) string {
	normalized := normalizeForKey(path)
	hash := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(hash[:])
}

// GenerateKeyWithPrefix generates a cache key with a prefix
func GenerateKeyWithPrefix(prefix, path string) string {
	key := GenerateKey(path)
	return prefix + ":" + key
}

// normalizeForKey returns the cleaned, slash-separated absolute form of path
func normalizeForKey(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = filepath.Clean(path)
	}
	return filepath.ToSlash(abs)
}

// ManifestKey generates a cache key for a manifest file
func ManifestKey(path string) string {
	return GenerateKeyWithPrefix(PrefixManifest, path)
}
