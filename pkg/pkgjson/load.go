package pkgjson

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/quantmind-br/pkgjson-go/pkg/jsonvalue"
)

var dependencyFields = []string{"dependencies", "devDependencies", "peerDependencies", "optionalDependencies"}

// Parse decodes package.json text and loads it. Empty or whitespace-only
// text yields an empty manifest.
func Parse(data []byte) (*Manifest, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Load(jsonvalue.NewObject())
	}
	v, err := jsonvalue.Parse(data)
	if err != nil {
		return nil, &ManifestError{Message: err.Error(), Err: errors.Join(ErrManifestSyntax, err)}
	}
	return Load(v)
}

// Load builds a Manifest from a parsed document. Recognized fields are
// validated; every other field is kept untouched in Raw.
func Load(v jsonvalue.Value) (*Manifest, error) {
	obj, ok := jsonvalue.AsObject(v)
	if !ok {
		kind := "nothing"
		if v != nil {
			kind = v.Kind().String()
		}
		return nil, syntaxError("", "document must be an object but found %s", kind)
	}

	// the copy turns nil values from hand-built trees into Null
	obj = obj.Clone()
	m := &Manifest{
		typ:        TypeCommonJS,
		raw:        obj,
		depObjects: map[string]*jsonvalue.Object{},
	}

	var err error
	if m.name, err = stringField(obj, "name"); err != nil {
		return nil, err
	}
	if m.version, err = stringField(obj, "version"); err != nil {
		return nil, err
	}
	if m.main, err = stringField(obj, "main"); err != nil {
		return nil, err
	}
	if m.module, err = stringField(obj, "module"); err != nil {
		return nil, err
	}
	m.main, m.module = trimmed(m.main), trimmed(m.module)

	if err := loadType(m, obj); err != nil {
		return nil, err
	}
	if err := loadTypes(m, obj); err != nil {
		return nil, err
	}
	if err := loadBrowser(m, obj); err != nil {
		return nil, err
	}
	if err := loadBin(m, obj); err != nil {
		return nil, err
	}
	if err := loadPrivate(m, obj); err != nil {
		return nil, err
	}
	if err := loadExports(m, obj); err != nil {
		return nil, err
	}
	if err := loadImports(m, obj); err != nil {
		return nil, err
	}
	if err := loadDependencies(m, obj); err != nil {
		return nil, err
	}
	if m.scripts, err = stringMapField(obj, "scripts"); err != nil {
		return nil, err
	}
	if err := loadWorkspaces(m, obj); err != nil {
		return nil, err
	}

	m.initDeps()
	return m, nil
}

// present returns the field unless it is missing or null
func present(obj *jsonvalue.Object, field string) (jsonvalue.Value, bool) {
	v, ok := obj.Get(field)
	if !ok || v.Kind() == jsonvalue.KindNull {
		return nil, false
	}
	return v, true
}

// stringField reads a string field. Numbers are accepted as their text.
func stringField(obj *jsonvalue.Object, field string) (string, error) {
	v, ok := present(obj, field)
	if !ok {
		return "", nil
	}
	switch t := v.(type) {
	case jsonvalue.String:
		return string(t), nil
	case jsonvalue.Number:
		return string(t), nil
	}
	return "", syntaxError(field, "expected a string but found %s", v.Kind())
}

func stringMapField(obj *jsonvalue.Object, field string) (StringMap, error) {
	var out StringMap
	v, ok := present(obj, field)
	if !ok {
		return out, nil
	}
	o, ok := jsonvalue.AsObject(v)
	if !ok {
		return out, syntaxError(field, "expected an object but found %s", v.Kind())
	}
	o.Each(func(k string, e jsonvalue.Value) bool {
		switch t := e.(type) {
		case jsonvalue.String:
			out.set(k, string(t))
		case jsonvalue.Number:
			out.set(k, string(t))
		}
		return true
	})
	return out, nil
}

func loadType(m *Manifest, obj *jsonvalue.Object) error {
	v, ok := present(obj, "type")
	if !ok {
		return nil
	}
	s, ok := jsonvalue.AsString(v)
	if !ok {
		return syntaxError("type", "expected a string but found %s", v.Kind())
	}
	// unknown values are ignored for forward compatibility
	if ModuleType(s) == TypeModule {
		m.typ = TypeModule
	}
	return nil
}

func loadTypes(m *Manifest, obj *jsonvalue.Object) error {
	for _, field := range []string{"typings", "types"} {
		if _, ok := present(obj, field); !ok {
			continue
		}
		s, err := stringField(obj, field)
		if err != nil {
			return err
		}
		m.types = s
		return nil
	}
	return nil
}

func loadBrowser(m *Manifest, obj *jsonvalue.Object) error {
	v, ok := present(obj, "browser")
	if !ok {
		return nil
	}
	switch t := v.(type) {
	case jsonvalue.String:
		m.browser = trimmed(string(t))
	case *jsonvalue.Object:
		m.browserMap = t.Clone()
	default:
		return syntaxError("browser", "expected a string or object but found %s", v.Kind())
	}
	return nil
}

func loadBin(m *Manifest, obj *jsonvalue.Object) error {
	v, ok := present(obj, "bin")
	if !ok {
		return nil
	}
	switch t := v.(type) {
	case jsonvalue.String:
		m.bin = t
	case *jsonvalue.Object:
		m.bin = t.Clone()
	default:
		return syntaxError("bin", "expected a string or object but found %s", v.Kind())
	}
	return nil
}

func loadPrivate(m *Manifest, obj *jsonvalue.Object) error {
	v, ok := present(obj, "private")
	if !ok {
		return nil
	}
	b, ok := v.(jsonvalue.Bool)
	if !ok {
		return syntaxError("private", "expected a boolean but found %s", v.Kind())
	}
	m.private = bool(b)
	return nil
}

func loadWorkspaces(m *Manifest, obj *jsonvalue.Object) error {
	v, ok := present(obj, "workspaces")
	if !ok {
		return nil
	}
	field := "workspaces"
	// yarn also accepts { "packages": [...] }
	if o, isObj := jsonvalue.AsObject(v); isObj {
		v, ok = present(o, "packages")
		if !ok {
			return nil
		}
		field = "workspaces.packages"
	}
	arr, ok := v.(jsonvalue.Array)
	if !ok {
		return syntaxError(field, "expected an array but found %s", v.Kind())
	}
	m.workspaces = make([]string, 0, len(arr))
	for _, e := range arr {
		if s, ok := jsonvalue.AsString(e); ok {
			m.workspaces = append(m.workspaces, s)
		}
	}
	return nil
}

func loadDependencies(m *Manifest, obj *jsonvalue.Object) error {
	for _, field := range dependencyFields {
		sm, err := stringMapField(obj, field)
		if err != nil {
			return err
		}
		switch field {
		case "dependencies":
			m.dependencies = sm
		case "devDependencies":
			m.devDependencies = sm
		case "peerDependencies":
			m.peerDependencies = sm
		case "optionalDependencies":
			m.optionalDependencies = sm
		}
		if v, ok := present(obj, field); ok {
			o, _ := jsonvalue.AsObject(v)
			m.depObjects[field] = o.Clone()
		}
	}
	return nil
}

func loadExports(m *Manifest, obj *jsonvalue.Object) error {
	v, ok := present(obj, "exports")
	if !ok {
		return nil
	}

	o, isObj := jsonvalue.AsObject(v)
	if isObj {
		if err := checkExportsShape(o); err != nil {
			return err
		}
	}
	if !isObj || isConditionsSugar(o) {
		n, err := parseNode("exports", v, 0)
		if err != nil {
			return err
		}
		m.exports = newSubpathTable([]Entry{{Key: ".", Value: n}})
		return nil
	}

	entries := make([]Entry, 0, o.Len())
	var err error
	o.Each(func(key string, e jsonvalue.Value) bool {
		field := fmt.Sprintf("exports[%q]", key)
		if key != "." && !strings.HasPrefix(key, "./") {
			err = syntaxError(field, "subpath keys must be \".\" or start with \"./\"")
			return false
		}
		if !validPatternKey(key) {
			err = syntaxError(field, "a subpath pattern may contain only one '*'")
			return false
		}
		var n Node
		if n, err = parseNode(field, e, 1); err != nil {
			return false
		}
		entries = append(entries, Entry{Key: key, Value: n})
		return true
	})
	if err != nil {
		return err
	}

	m.exports = newSubpathTable(entries)
	return nil
}

// isConditionsSugar reports whether an exports object is keyed by condition
// names (the main entry shorthand). An empty object counts as subpaths.
func isConditionsSugar(o *jsonvalue.Object) bool {
	keys := o.Keys()
	return len(keys) > 0 && !strings.HasPrefix(keys[0], ".")
}

func checkExportsShape(o *jsonvalue.Object) error {
	subpaths := 0
	for _, k := range o.Keys() {
		if strings.HasPrefix(k, ".") {
			subpaths++
		}
	}
	if subpaths != 0 && subpaths != o.Len() {
		return &ManifestError{Field: "exports", Err: ErrMixedExportsShape}
	}
	return nil
}

func loadImports(m *Manifest, obj *jsonvalue.Object) error {
	v, ok := present(obj, "imports")
	if !ok {
		return nil
	}
	o, ok := jsonvalue.AsObject(v)
	if !ok {
		return syntaxError("imports", "expected an object but found %s", v.Kind())
	}
	if dups := o.Duplicates(); len(dups) > 0 {
		return &ManifestError{
			Field:   fmt.Sprintf("imports[%q]", dups[0]),
			Message: fmt.Sprintf("key %q appears more than once", dups[0]),
			Err:     ErrDuplicateImportKey,
		}
	}

	entries := make([]Entry, 0, o.Len())
	seen := make(map[string]string, o.Len())
	var err error
	o.Each(func(key string, e jsonvalue.Value) bool {
		field := fmt.Sprintf("imports[%q]", key)
		if !strings.HasPrefix(key, "#") || key == "#" || strings.HasPrefix(key, "#/") {
			err = syntaxError(field, "keys must start with \"#\" followed by a name")
			return false
		}
		if !validPatternKey(key) {
			err = syntaxError(field, "a subpath pattern may contain only one '*'")
			return false
		}
		normalized := norm.NFC.String(key)
		if prev, dup := seen[normalized]; dup {
			err = &ManifestError{
				Field:   field,
				Message: fmt.Sprintf("key %q collides with %q", key, prev),
				Err:     ErrDuplicateImportKey,
			}
			return false
		}
		seen[normalized] = key

		var n Node
		if n, err = parseNode(field, e, 1); err != nil {
			return false
		}
		entries = append(entries, Entry{Key: normalized, Value: n})
		return true
	})
	if err != nil {
		return err
	}

	m.imports = newSubpathTable(entries)
	return nil
}
