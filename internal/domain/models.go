package domain

import (
	"time"

	"github.com/quantmind-br/pkgjson-go/pkg/pkgjson"
)

// RequestKind classifies a resolution request
type RequestKind int

const (
	// RequestSubpath is "." or "./..." resolved against exports
	RequestSubpath RequestKind = iota
	// RequestImport is a "#..." specifier resolved against imports
	RequestImport
	// RequestSelf is the package's own name, optionally followed by a subpath
	RequestSelf
)

func (k RequestKind) String() string {
	switch k {
	case RequestSubpath:
		return "subpath"
	case RequestImport:
		return "import"
	case RequestSelf:
		return "self"
	}
	return "unknown"
}

// MarshalText renders the kind by name in JSON and YAML output
func (k RequestKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// FileStamp identifies one version of a file on disk
type FileStamp struct {
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}

// Matches reports whether both stamps describe the same file contents
func (s FileStamp) Matches(other FileStamp) bool {
	return s.Size == other.Size && s.ModTime.Equal(other.ModTime)
}

// LoadedManifest is a manifest together with where it came from
type LoadedManifest struct {
	Path      string
	Dir       string
	Manifest  *pkgjson.Manifest
	FromCache bool
}

// Resolution is the outcome of resolving one request
type Resolution struct {
	PackageDir   string      `json:"package_dir" yaml:"package_dir" toml:"package_dir"`
	ManifestPath string      `json:"manifest_path" yaml:"manifest_path" toml:"manifest_path"`
	PackageName  string      `json:"package_name,omitempty" yaml:"package_name,omitempty" toml:"package_name,omitempty"`
	Request      string      `json:"request" yaml:"request" toml:"request"`
	Kind         RequestKind `json:"kind" yaml:"kind" toml:"kind"`
	Conditions   []string    `json:"conditions" yaml:"conditions" toml:"conditions"`
	// Target is the resolved target as written in the manifest
	Target string `json:"target" yaml:"target" toml:"target"`
	// Legacy is set when Target came from "main", "module" or "browser"
	// because the package has no "exports"
	Legacy bool `json:"legacy,omitempty" yaml:"legacy,omitempty" toml:"legacy,omitempty"`
	// Path is Target joined onto PackageDir. Empty for bare specifier
	// targets and for targets outside the package.
	Path string `json:"path,omitempty" yaml:"path,omitempty" toml:"path,omitempty"`
}

// IsRelative reports whether the target points into the package
func (r *Resolution) IsRelative() bool {
	return r.Path != ""
}

// AuditStatus is the outcome of auditing one key
type AuditStatus string

const (
	AuditOK AuditStatus = "ok"
	// AuditFailed means the entry resolved to an invalid target
	AuditFailed AuditStatus = "failed"
	// AuditMissing means the target points to a file that does not exist
	AuditMissing AuditStatus = "missing"
	// AuditUnavailable means the entry is disabled or has no branch for the condition set
	AuditUnavailable AuditStatus = "unavailable"
	// AuditSkipped is reported once for pattern keys, which have no single target
	AuditSkipped AuditStatus = "skipped"
)

// AuditResult is the resolution of one exports/imports key under one condition set
type AuditResult struct {
	Field      string      `json:"field" yaml:"field" toml:"field"`
	Key        string      `json:"key" yaml:"key" toml:"key"`
	Conditions []string    `json:"conditions,omitempty" yaml:"conditions,omitempty" toml:"conditions,omitempty"`
	Status     AuditStatus `json:"status" yaml:"status" toml:"status"`
	Target     string      `json:"target,omitempty" yaml:"target,omitempty" toml:"target,omitempty"`
	Error      string      `json:"error,omitempty" yaml:"error,omitempty" toml:"error,omitempty"`
}

// AuditReport collects the results of auditing a manifest
type AuditReport struct {
	ManifestPath string        `json:"manifest_path" yaml:"manifest_path" toml:"manifest_path"`
	PackageName  string        `json:"package_name,omitempty" yaml:"package_name,omitempty" toml:"package_name,omitempty"`
	Results      []AuditResult `json:"results" yaml:"results" toml:"results"`
	Duration     time.Duration `json:"duration" yaml:"duration" toml:"duration"`
}

// Count returns how many results have the given status
func (r *AuditReport) Count(status AuditStatus) int {
	n := 0
	for _, res := range r.Results {
		if res.Status == status {
			n++
		}
	}
	return n
}

// HasFailures reports whether any entry is broken
func (r *AuditReport) HasFailures() bool {
	return r.Count(AuditFailed)+r.Count(AuditMissing) > 0
}
