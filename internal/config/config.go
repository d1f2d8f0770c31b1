package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Config represents the application configuration
type Config struct {
	Resolution ResolutionConfig `mapstructure:"resolution" yaml:"resolution"`
	Cache      CacheConfig      `mapstructure:"cache" yaml:"cache"`
	Audit      AuditConfig      `mapstructure:"audit" yaml:"audit"`
	Logging    LoggingConfig    `mapstructure:"logging" yaml:"logging"`
}

// ResolutionConfig contains resolution defaults
type ResolutionConfig struct {
	// Conditions are active when resolving for an importing referrer
	Conditions []string `mapstructure:"conditions" yaml:"conditions"`
	// RequireConditions are active when resolving for a requiring referrer
	RequireConditions []string `mapstructure:"require_conditions" yaml:"require_conditions"`
	// ManifestNames are the manifest file names tried in a package directory
	ManifestNames []string `mapstructure:"manifest_names" yaml:"manifest_names"`
}

// CacheConfig contains cache settings
type CacheConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	// TTL of persistent entries. Zero keeps entries until the file changes.
	TTL           time.Duration `mapstructure:"ttl" yaml:"ttl"`
	Directory     string        `mapstructure:"directory" yaml:"directory"`
	MemoryEntries int           `mapstructure:"memory_entries" yaml:"memory_entries"`
	LockTimeout   time.Duration `mapstructure:"lock_timeout" yaml:"lock_timeout"`
}

// AuditConfig contains audit settings
type AuditConfig struct {
	Workers int `mapstructure:"workers" yaml:"workers"`
	// ConditionSets are comma-separated condition lists, each audited separately
	ConditionSets []string `mapstructure:"condition_sets" yaml:"condition_sets"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// Validate validates the configuration, replacing unusable values with defaults
func (c *Config) Validate() error {
	c.Resolution.Conditions = cleanList(c.Resolution.Conditions)
	if len(c.Resolution.Conditions) == 0 {
		c.Resolution.Conditions = DefaultConditions()
	}
	c.Resolution.RequireConditions = cleanList(c.Resolution.RequireConditions)
	if len(c.Resolution.RequireConditions) == 0 {
		c.Resolution.RequireConditions = DefaultRequireConditions()
	}
	c.Resolution.ManifestNames = cleanList(c.Resolution.ManifestNames)
	if len(c.Resolution.ManifestNames) == 0 {
		c.Resolution.ManifestNames = DefaultManifestNames()
	}
	for _, name := range c.Resolution.ManifestNames {
		switch strings.ToLower(filepath.Ext(name)) {
		case ".json", ".yaml", ".yml":
		default:
			return fmt.Errorf("invalid resolution.manifest_names: %q is not a .json or .yaml file", name)
		}
	}

	if c.Cache.TTL < 0 {
		c.Cache.TTL = DefaultCacheTTL
	}
	if c.Cache.MemoryEntries < 1 {
		c.Cache.MemoryEntries = DefaultMemoryEntries
	}
	if c.Cache.LockTimeout <= 0 {
		c.Cache.LockTimeout = DefaultLockTimeout
	}
	if c.Cache.Directory == "" {
		c.Cache.Directory = CacheDir()
	}

	if c.Audit.Workers < 1 {
		c.Audit.Workers = DefaultAuditWorkers
	}
	var sets []string
	for _, set := range c.Audit.ConditionSets {
		if names := ParseConditionSet(set); len(names) > 0 {
			sets = append(sets, strings.Join(names, ","))
		}
	}
	if len(sets) == 0 {
		sets = DefaultAuditConditionSets()
	}
	c.Audit.ConditionSets = sets

	switch c.Logging.Format {
	case "pretty", "json":
	case "":
		c.Logging.Format = DefaultLogFormat
	default:
		return fmt.Errorf("invalid logging.format: %q (use pretty or json)", c.Logging.Format)
	}
	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
	return nil
}

// ParseConditionSet splits a comma-separated condition list, dropping blanks
func ParseConditionSet(s string) []string {
	return cleanList(strings.Split(s, ","))
}

// AuditConditionSets returns the audit condition sets as name lists
func (c *Config) AuditConditionSets() [][]string {
	sets := make([][]string, 0, len(c.Audit.ConditionSets))
	for _, s := range c.Audit.ConditionSets {
		sets = append(sets, ParseConditionSet(s))
	}
	return sets
}

func cleanList(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
