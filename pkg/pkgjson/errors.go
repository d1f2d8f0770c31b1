package pkgjson

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for manifest loading
var (
	// ErrManifestSyntax indicates a recognized field has an unexpected shape
	ErrManifestSyntax = errors.New("manifest syntax error")

	// ErrDuplicateImportKey indicates two "imports" keys collide after normalization
	ErrDuplicateImportKey = errors.New("duplicate \"imports\" key")

	// ErrMixedExportsShape indicates an "exports" object mixing subpath keys and condition keys
	ErrMixedExportsShape = errors.New("\"exports\" cannot contain some keys starting with '.' and some not")
)

// Sentinel errors for resolution
var (
	// ErrPackagePathNotExported indicates a subpath with no usable "exports" entry
	ErrPackagePathNotExported = errors.New("package path not exported")

	// ErrPackageImportNotDefined indicates a '#' specifier with no usable "imports" entry
	ErrPackageImportNotDefined = errors.New("package import not defined")

	// ErrInvalidPackageTarget indicates a target that is absolute, escapes the package, or is a URL
	ErrInvalidPackageTarget = errors.New("invalid package target")

	// ErrInvalidModuleSpecifier indicates a request that cannot be looked up at all
	ErrInvalidModuleSpecifier = errors.New("invalid module specifier")
)

// Sentinel errors for dependency entries
var (
	// ErrUnsupportedScheme indicates a dependency value using a non-registry scheme
	ErrUnsupportedScheme = errors.New("unsupported dependency scheme")

	// ErrInvalidDependencyValue indicates a dependency value that is not a usable string
	ErrInvalidDependencyValue = errors.New("invalid dependency value")
)

// Outcomes of walking a target node that are not failures on their own.
// The resolvers turn them into ErrPackagePathNotExported or
// ErrPackageImportNotDefined at the top level.
var (
	errNoMatch    = errors.New("no condition matched")
	errTargetNull = errors.New("target is null")
)

// ManifestError is a structural problem found while loading a manifest
type ManifestError struct {
	Field   string
	Message string
	Err     error
}

func (e *ManifestError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Field == "" {
		return fmt.Sprintf("invalid manifest: %s", msg)
	}
	return fmt.Sprintf("invalid manifest field %s: %s", e.Field, msg)
}

func (e *ManifestError) Unwrap() error {
	return e.Err
}

func syntaxError(field, format string, args ...any) *ManifestError {
	return &ManifestError{Field: field, Message: fmt.Sprintf(format, args...), Err: ErrManifestSyntax}
}

// ResolutionError describes why a subpath or specifier could not be resolved.
// Err is one of the resolution sentinels.
type ResolutionError struct {
	// Specifier is the request as the caller passed it
	Specifier string
	// Subpath is the key-space request: "." or "./x" for exports, "#x" for imports
	Subpath     string
	PackageName string
	// Target is the offending target string for ErrInvalidPackageTarget
	Target string
	Reason string
	Err    error
}

func (e *ResolutionError) Error() string {
	in := ""
	if e.PackageName != "" {
		in = fmt.Sprintf(" in package %q", e.PackageName)
	}

	switch {
	case errors.Is(e.Err, ErrPackagePathNotExported):
		if e.Subpath == "." {
			return fmt.Sprintf("No \"exports\" main defined%s", in)
		}
		return fmt.Sprintf("Package subpath '%s' is not defined by \"exports\"%s", e.Subpath, in)
	case errors.Is(e.Err, ErrPackageImportNotDefined):
		return fmt.Sprintf("Package import specifier %q is not defined%s", e.Specifier, in)
	case errors.Is(e.Err, ErrInvalidPackageTarget):
		field := "exports"
		if strings.HasPrefix(e.Subpath, "#") {
			field = "imports"
		}
		msg := fmt.Sprintf("Invalid %q target %q defined for '%s'%s", field, e.Target, e.Subpath, in)
		if e.Reason != "" {
			msg += "; " + e.Reason
		}
		return msg
	case errors.Is(e.Err, ErrInvalidModuleSpecifier):
		msg := fmt.Sprintf("Invalid module specifier %q", e.Specifier)
		if e.Reason != "" {
			msg += ": " + e.Reason
		}
		return msg
	}
	return fmt.Sprintf("cannot resolve %q%s: %v", e.Specifier, in, e.Err)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// DependencyError is a dependency entry that cannot be parsed
type DependencyError struct {
	Name  string
	Value string
	// Scheme is set for ErrUnsupportedScheme
	Scheme string
	Err    error
}

func (e *DependencyError) Error() string {
	if e.Scheme != "" {
		return fmt.Sprintf("dependency %q: not implemented scheme '%s'", e.Name, e.Scheme)
	}
	return fmt.Sprintf("dependency %q: %v: %q", e.Name, e.Err, e.Value)
}

func (e *DependencyError) Unwrap() error {
	return e.Err
}
