package pkgjson

import (
	"errors"
	"net/url"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// request carries what every step of a resolution needs for error reporting
type request struct {
	manifest   *Manifest
	specifier  string
	subpath    string
	imports    bool
	conditions Conditions
}

func (r *request) fail(err error, target, reason string) *ResolutionError {
	return &ResolutionError{
		Specifier:   r.specifier,
		Subpath:     r.subpath,
		PackageName: r.manifest.name,
		Target:      target,
		Reason:      reason,
		Err:         err,
	}
}

func (r *request) notFound() *ResolutionError {
	if r.imports {
		return r.fail(ErrPackageImportNotDefined, "", "")
	}
	return r.fail(ErrPackagePathNotExported, "", "")
}

// ResolveExport resolves a request against "exports".
//
// subpath is "." or "./x". Any other value is taken as a self-reference and
// must be the package's own name, optionally followed by "/x". When
// "exports" is absent only "." resolves, through "main", "module" and
// "browser" in that order.
func ResolveExport(m *Manifest, subpath string, conditions Conditions) (string, error) {
	r := &request{manifest: m, specifier: subpath, subpath: subpath, conditions: conditions}

	if subpath != "." && !strings.HasPrefix(subpath, "./") {
		sub, err := selfReference(r)
		if err != nil {
			return "", err
		}
		r.subpath = sub
	}

	if m.exports == nil {
		if r.subpath == "." {
			if entry := m.legacyMain(); entry != "" {
				return entry, nil
			}
		}
		return "", r.notFound()
	}
	return r.resolveIn(m.exports)
}

// ResolveImport resolves a '#' specifier against "imports". Targets that are
// package specifiers are returned as they are.
func ResolveImport(m *Manifest, specifier string, conditions Conditions) (string, error) {
	r := &request{manifest: m, specifier: specifier, subpath: specifier, imports: true, conditions: conditions}

	switch {
	case !strings.HasPrefix(specifier, "#"):
		return "", r.fail(ErrInvalidModuleSpecifier, "", "imports specifiers must start with \"#\"")
	case specifier == "#" || strings.HasPrefix(specifier, "#/"):
		return "", r.fail(ErrInvalidModuleSpecifier, "", "is not a valid internal imports specifier name")
	case strings.HasSuffix(specifier, "/"):
		return "", r.fail(ErrInvalidModuleSpecifier, "", "imports specifiers must not end with \"/\"")
	}

	r.subpath = norm.NFC.String(specifier)
	if m.imports == nil {
		return "", r.notFound()
	}
	return r.resolveIn(m.imports)
}

// ResolveSelf resolves a bare specifier naming the package itself
func ResolveSelf(m *Manifest, specifier string, conditions Conditions) (string, error) {
	if specifier == "." || strings.HasPrefix(specifier, "./") {
		r := &request{manifest: m, specifier: specifier, subpath: specifier}
		return "", r.fail(ErrInvalidModuleSpecifier, "", "not a package name")
	}
	return ResolveExport(m, specifier, conditions)
}

// selfReference maps "name" to "." and "name/x" to "./x"
func selfReference(r *request) (string, error) {
	name := r.manifest.name
	spec := r.specifier
	if spec == "" {
		return "", r.fail(ErrInvalidModuleSpecifier, "", "empty specifier")
	}
	if name == "" {
		return "", r.fail(ErrInvalidModuleSpecifier, "", "the package has no name to refer to itself by")
	}
	if spec != name && !strings.HasPrefix(spec, name+"/") {
		return "", r.fail(ErrInvalidModuleSpecifier, "", "not a subpath and does not name package \""+name+"\"")
	}
	sub := "." + spec[len(name):]
	if r.manifest.exports == nil {
		r.subpath = sub
		return "", r.notFound()
	}
	return sub, nil
}

func (m *Manifest) legacyMain() string {
	for _, entry := range []string{m.main, m.module, m.browser} {
		if entry != "" {
			return entry
		}
	}
	return ""
}

func (r *request) resolveIn(t *subpathTable) (string, error) {
	node, capture, pattern, ok := t.lookup(r.subpath)
	if !ok {
		return "", r.notFound()
	}
	resolved, err := r.resolveNode(node, capture, pattern)
	if errors.Is(err, errNoMatch) || errors.Is(err, errTargetNull) {
		return "", r.notFound()
	}
	return resolved, err
}

// resolveNode walks a target node. errNoMatch means no condition applied
// and the enclosing conditions object keeps scanning; errTargetNull means an
// explicit null was selected and scanning stops.
func (r *request) resolveNode(n Node, capture string, pattern bool) (string, error) {
	switch t := n.(type) {
	case Target:
		return r.resolveTarget(string(t), capture, pattern)
	case Disabled:
		return "", errTargetNull
	case *Conditional:
		for _, e := range t.entries {
			if !r.conditions.Has(e.Key) {
				continue
			}
			resolved, err := r.resolveNode(e.Value, capture, pattern)
			if errors.Is(err, errNoMatch) {
				continue
			}
			return resolved, err
		}
		return "", errNoMatch
	case Fallback:
		if len(t) == 0 {
			return "", errTargetNull
		}
		// an element matching no condition leaves the last raised error alone
		var last error = errNoMatch
		for _, e := range t {
			resolved, err := r.resolveNode(e, capture, pattern)
			switch {
			case err == nil:
				return resolved, nil
			case errors.Is(err, errNoMatch):
			case errors.Is(err, ErrInvalidPackageTarget),
				errors.Is(err, errTargetNull):
				last = err
			default:
				return "", err
			}
		}
		return "", last
	}
	return "", errNoMatch
}

func (r *request) resolveTarget(target, capture string, pattern bool) (string, error) {
	if !strings.HasPrefix(target, "./") {
		if r.imports && isBareSpecifier(target) {
			if pattern {
				return Substitute(target, capture), nil
			}
			return target, nil
		}
		return "", r.fail(ErrInvalidPackageTarget, target, "targets must start with \"./\"")
	}

	if hasInvalidSegment(target[2:]) {
		return "", r.fail(ErrInvalidPackageTarget, target, "the target escapes the package or names node_modules")
	}
	if !pattern {
		return target, nil
	}
	if hasInvalidSegment(capture) {
		return "", r.fail(ErrInvalidModuleSpecifier, target, "request "+r.subpath+" has an invalid path segment")
	}
	return Substitute(target, capture), nil
}

// isBareSpecifier reports whether an imports target names a package rather
// than a file. URLs are rejected apart from node: builtins.
func isBareSpecifier(target string) bool {
	if target == "" || strings.HasPrefix(target, "/") || strings.HasPrefix(target, "../") {
		return false
	}
	if strings.HasPrefix(target, "node:") {
		return len(target) > len("node:")
	}
	if u, err := url.Parse(target); err == nil && u.Scheme != "" {
		return false
	}
	return !strings.HasPrefix(target, "\\")
}

// hasInvalidSegment reports whether p contains an empty, ".", ".." or
// "node_modules" segment, also when percent-encoded or differently cased.
func hasInvalidSegment(p string) bool {
	for _, seg := range strings.Split(strings.ReplaceAll(p, "\\", "/"), "/") {
		s := strings.ToLower(seg)
		if dec, err := url.PathUnescape(s); err == nil {
			s = dec
		}
		switch s {
		case "", ".", "..", "node_modules":
			return true
		}
	}
	return false
}
