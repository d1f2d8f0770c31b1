package config

import (
	"os"
	"path/filepath"
	"time"
)

// Default values
const (
	// Cache defaults
	DefaultCacheEnabled  = true
	DefaultCacheTTL      = 7 * 24 * time.Hour
	DefaultMemoryEntries = 512
	DefaultLockTimeout   = 2 * time.Second

	// Audit defaults
	DefaultAuditWorkers = 4

	// Logging defaults
	DefaultLogLevel  = "warn"
	DefaultLogFormat = "pretty"
)

// DefaultConditions returns the conditions active for an importing referrer
func DefaultConditions() []string {
	return []string{"node", "import"}
}

// DefaultRequireConditions returns the conditions active for a requiring referrer
func DefaultRequireConditions() []string {
	return []string{"node", "require"}
}

// DefaultManifestNames returns the manifest file names tried in a package directory
func DefaultManifestNames() []string {
	return []string{"package.json", "package.yaml"}
}

// DefaultAuditConditionSets returns the condition sets an audit resolves under
func DefaultAuditConditionSets() []string {
	return []string{"node,import", "node,require", "browser,import"}
}

// ConfigDir returns the config directory path
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".pkgjson"
	}
	return filepath.Join(home, ".pkgjson")
}

// CacheDir returns the cache directory path
func CacheDir() string {
	return filepath.Join(ConfigDir(), "cache")
}

// ConfigFilePath returns the config file path
func ConfigFilePath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Resolution: ResolutionConfig{
			Conditions:        DefaultConditions(),
			RequireConditions: DefaultRequireConditions(),
			ManifestNames:     DefaultManifestNames(),
		},
		Cache: CacheConfig{
			Enabled:       DefaultCacheEnabled,
			TTL:           DefaultCacheTTL,
			Directory:     CacheDir(),
			MemoryEntries: DefaultMemoryEntries,
			LockTimeout:   DefaultLockTimeout,
		},
		Audit: AuditConfig{
			Workers:       DefaultAuditWorkers,
			ConditionSets: DefaultAuditConditionSets(),
		},
		Logging: LoggingConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
