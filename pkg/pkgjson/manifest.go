package pkgjson

import (
	"path"
	"strings"
	"sync"

	"github.com/quantmind-br/pkgjson-go/pkg/jsonvalue"
)

// ModuleType is the value of the "type" field
type ModuleType string

const (
	TypeCommonJS ModuleType = "commonjs"
	TypeModule   ModuleType = "module"
)

// ModuleKind is the module system of the code that asks for an entry point
type ModuleKind int

const (
	KindCJS ModuleKind = iota
	KindESM
)

// StringMap is an ordered string-to-string mapping
type StringMap struct {
	keys   []string
	values map[string]string
}

func (m *StringMap) set(k, v string) {
	if m.values == nil {
		m.values = make(map[string]string)
	}
	if _, ok := m.values[k]; !ok {
		m.keys = append(m.keys, k)
	}
	m.values[k] = v
}

// Get returns the value for k
func (m StringMap) Get(k string) (string, bool) {
	v, ok := m.values[k]
	return v, ok
}

// Keys returns the keys in document order
func (m StringMap) Keys() []string {
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Len returns the number of entries
func (m StringMap) Len() int { return len(m.keys) }

// Each calls fn for every entry in document order
func (m StringMap) Each(fn func(k, v string)) {
	for _, k := range m.keys {
		fn(k, m.values[k])
	}
}

// Manifest is a loaded package.json. It is never modified after Load and is
// safe for concurrent use.
type Manifest struct {
	name    string
	version string
	typ     ModuleType
	main    string
	module  string
	browser string
	types   string
	private bool

	browserMap *jsonvalue.Object
	bin        jsonvalue.Value

	exports *subpathTable
	imports *subpathTable

	dependencies         StringMap
	devDependencies      StringMap
	peerDependencies     StringMap
	optionalDependencies StringMap
	depObjects           map[string]*jsonvalue.Object

	scripts    StringMap
	workspaces []string

	raw  *jsonvalue.Object
	deps func() *Deps
}

// Name returns the package name, or "" when absent
func (m *Manifest) Name() string { return m.name }

// Version returns the package version, or "" when absent
func (m *Manifest) Version() string { return m.version }

// Type returns the module type, commonjs unless "type" is "module"
func (m *Manifest) Type() ModuleType { return m.typ }

// Module returns the legacy "module" entry point
func (m *Manifest) Module() string { return m.module }

// Browser returns "browser" when it is a string
func (m *Manifest) Browser() string { return m.browser }

// BrowserMap returns "browser" when it is a replacement object
func (m *Manifest) BrowserMap() *jsonvalue.Object { return m.browserMap.Clone() }

// Types returns "typings", or "types" when "typings" is absent
func (m *Manifest) Types() string { return m.types }

// Private returns the "private" flag
func (m *Manifest) Private() bool { return m.private }

// Scripts returns the "scripts" mapping
func (m *Manifest) Scripts() StringMap { return m.scripts }

// Workspaces returns the workspace globs
func (m *Manifest) Workspaces() []string {
	if m.workspaces == nil {
		return nil
	}
	out := make([]string, len(m.workspaces))
	copy(out, m.workspaces)
	return out
}

// DependencyMap returns one of the dependency fields by its manifest name,
// e.g. "devDependencies"
func (m *Manifest) DependencyMap(field string) StringMap {
	switch field {
	case "dependencies":
		return m.dependencies
	case "devDependencies":
		return m.devDependencies
	case "peerDependencies":
		return m.peerDependencies
	case "optionalDependencies":
		return m.optionalDependencies
	}
	return StringMap{}
}

// Main returns the entry point used when "exports" is absent. ESM referrers
// inside a "type": "module" package prefer "module" over "main".
func (m *Manifest) Main(kind ModuleKind) string {
	if kind == KindESM && m.typ == TypeModule && m.module != "" {
		return m.module
	}
	return m.main
}

// Bin returns the command map. A string "bin" is keyed by the unscoped
// package name.
func (m *Manifest) Bin() map[string]string {
	switch t := m.bin.(type) {
	case jsonvalue.String:
		if m.name == "" {
			return nil
		}
		return map[string]string{path.Base(m.name): string(t)}
	case *jsonvalue.Object:
		out := make(map[string]string, t.Len())
		t.Each(func(k string, v jsonvalue.Value) bool {
			if s, ok := jsonvalue.AsString(v); ok {
				out[k] = s
			}
			return true
		})
		return out
	}
	return nil
}

// HasExports reports whether the manifest declares "exports"
func (m *Manifest) HasExports() bool { return m.exports != nil }

// HasImports reports whether the manifest declares "imports"
func (m *Manifest) HasImports() bool { return m.imports != nil }

// ExportEntries returns the subpath entries of "exports". The string, array
// and conditions forms are reported under ".".
func (m *Manifest) ExportEntries() []Entry {
	if m.exports == nil {
		return nil
	}
	return cloneEntries(m.exports.entries)
}

// ImportEntries returns the entries of "imports" with normalized keys
func (m *Manifest) ImportEntries() []Entry {
	if m.imports == nil {
		return nil
	}
	return cloneEntries(m.imports.entries)
}

// ExportKeys returns the subpath keys of "exports" in document order
func (m *Manifest) ExportKeys() []string { return m.exports.keys() }

// ImportKeys returns the keys of "imports" in document order
func (m *Manifest) ImportKeys() []string { return m.imports.keys() }

// ConditionNames returns every condition name used in "exports" and
// "imports", first occurrence first.
func (m *Manifest) ConditionNames() []string {
	seen := map[string]bool{}
	var names []string
	add := func(n string) {
		if !seen[n] {
			seen[n] = true
			names = append(names, n)
		}
	}
	for _, t := range []*subpathTable{m.exports, m.imports} {
		if t == nil {
			continue
		}
		for _, e := range t.entries {
			walkConditions(e.Value, add)
		}
	}
	return names
}

// Raw returns a copy of the whole document in its original key order
func (m *Manifest) Raw() *jsonvalue.Object {
	if m.raw == nil {
		return jsonvalue.NewObject()
	}
	return m.raw.Clone()
}

// Field returns an arbitrary top-level field from the original document
func (m *Manifest) Field(name string) (jsonvalue.Value, bool) {
	v, ok := m.raw.Get(name)
	if !ok {
		return nil, false
	}
	return jsonvalue.Clone(v), true
}

// MarshalJSON writes the original document
func (m *Manifest) MarshalJSON() ([]byte, error) {
	return jsonvalue.Marshal(m.Raw())
}

// Dependencies returns the parsed dependency fields. They are parsed on
// first use; each call returns its own copy.
func (m *Manifest) Dependencies() *Deps {
	return m.deps().clone()
}

func (m *Manifest) initDeps() {
	m.deps = sync.OnceValue(func() *Deps {
		return parseDeps(m.depObjects)
	})
}

func trimmed(s string) string {
	return strings.TrimSpace(s)
}
