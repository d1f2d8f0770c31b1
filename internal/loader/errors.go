package loader

import "errors"

// Sentinel errors for the loader package
var (
	// ErrManifestNotFound indicates no manifest file exists at the location
	ErrManifestNotFound = errors.New("manifest file not found")

	// ErrInvalidFormat indicates the manifest file is not valid JSON or YAML
	ErrInvalidFormat = errors.New("manifest must be valid JSON or YAML")

	// ErrUnsupportedExt indicates an unsupported file extension
	ErrUnsupportedExt = errors.New("unsupported file extension (use .json, .yaml, or .yml)")
)
