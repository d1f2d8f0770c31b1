package pkgjson

import (
	"slices"
	"strings"

	"github.com/quantmind-br/pkgjson-go/pkg/jsonvalue"
)

// DependencyKind tells registry requests from workspace references
type DependencyKind int

const (
	DependencyRequest DependencyKind = iota
	DependencyWorkspace
)

// WorkspaceKind is the form of a "workspace:" reference
type WorkspaceKind int

const (
	// WorkspaceRange is "workspace:<range>", e.g. "workspace:*" or "workspace:^1.2.0"
	WorkspaceRange WorkspaceKind = iota
	// WorkspaceTilde is "workspace:~"
	WorkspaceTilde
	// WorkspaceCaret is "workspace:^"
	WorkspaceCaret
)

// unsupportedSchemes are dependency sources that are not a registry or a workspace
var unsupportedSchemes = []string{"file", "git", "git+ssh", "git+https", "git+http", "http", "https", "link", "github"}

// DependencyValue is a parsed dependency entry
type DependencyValue struct {
	Kind DependencyKind
	// Name is the package requested from the registry. It differs from the
	// entry key for "npm:" aliases.
	Name string
	// Range is the version range, kept as written. "*" when empty.
	Range     string
	Workspace WorkspaceKind
}

// String renders the value the way it would be requested
func (v DependencyValue) String() string {
	if v.Kind == DependencyWorkspace {
		switch v.Workspace {
		case WorkspaceTilde:
			return "workspace:~"
		case WorkspaceCaret:
			return "workspace:^"
		}
		return "workspace:" + v.Range
	}
	return v.Name + "@" + v.Range
}

// DependencyEntry is one entry of a dependency field. Exactly one of Value
// and Err is meaningful.
type DependencyEntry struct {
	Alias string
	Value DependencyValue
	Err   error
}

// Deps holds the parsed dependency fields of a manifest
type Deps struct {
	Dependencies         []DependencyEntry
	DevDependencies      []DependencyEntry
	PeerDependencies     []DependencyEntry
	OptionalDependencies []DependencyEntry

	byAlias    map[string]int
	devByAlias map[string]int
}

// Get returns the entry for alias from "dependencies", or from
// "devDependencies" when it is not a regular dependency.
func (d *Deps) Get(alias string) (DependencyEntry, bool) {
	if i, ok := d.byAlias[alias]; ok {
		return d.Dependencies[i], true
	}
	if i, ok := d.devByAlias[alias]; ok {
		return d.DevDependencies[i], true
	}
	return DependencyEntry{}, false
}

// Errors returns every entry that failed to parse, in field order
func (d *Deps) Errors() []DependencyEntry {
	var out []DependencyEntry
	for _, list := range [][]DependencyEntry{d.Dependencies, d.DevDependencies, d.PeerDependencies, d.OptionalDependencies} {
		for _, e := range list {
			if e.Err != nil {
				out = append(out, e)
			}
		}
	}
	return out
}

// clone copies the entry lists. The alias indexes are never written after
// parsing and are shared.
func (d *Deps) clone() *Deps {
	return &Deps{
		Dependencies:         slices.Clone(d.Dependencies),
		DevDependencies:      slices.Clone(d.DevDependencies),
		PeerDependencies:     slices.Clone(d.PeerDependencies),
		OptionalDependencies: slices.Clone(d.OptionalDependencies),
		byAlias:              d.byAlias,
		devByAlias:           d.devByAlias,
	}
}

func parseDeps(fields map[string]*jsonvalue.Object) *Deps {
	d := &Deps{
		Dependencies:         parseDepEntries(fields["dependencies"]),
		DevDependencies:      parseDepEntries(fields["devDependencies"]),
		PeerDependencies:     parseDepEntries(fields["peerDependencies"]),
		OptionalDependencies: parseDepEntries(fields["optionalDependencies"]),
	}
	d.byAlias = indexEntries(d.Dependencies)
	d.devByAlias = indexEntries(d.DevDependencies)
	return d
}

func indexEntries(entries []DependencyEntry) map[string]int {
	idx := make(map[string]int, len(entries))
	for i, e := range entries {
		idx[e.Alias] = i
	}
	return idx
}

func parseDepEntries(obj *jsonvalue.Object) []DependencyEntry {
	if obj == nil {
		return nil
	}
	entries := make([]DependencyEntry, 0, obj.Len())
	obj.Each(func(alias string, v jsonvalue.Value) bool {
		entry := DependencyEntry{Alias: alias}
		switch t := v.(type) {
		case jsonvalue.String:
			entry.Value, entry.Err = ParseDependency(alias, string(t))
		case jsonvalue.Number:
			entry.Value, entry.Err = ParseDependency(alias, string(t))
		default:
			entry.Err = &DependencyError{Name: alias, Value: v.Kind().String(), Err: ErrInvalidDependencyValue}
		}
		entries = append(entries, entry)
		return true
	})
	return entries
}

// ParseDependency parses the value of a dependency entry keyed by alias.
// Version ranges are not interpreted.
func ParseDependency(alias, value string) (DependencyValue, error) {
	value = strings.TrimSpace(value)

	if ws, ok := strings.CutPrefix(value, "workspace:"); ok {
		switch ws {
		case "~":
			return DependencyValue{Kind: DependencyWorkspace, Workspace: WorkspaceTilde}, nil
		case "^":
			return DependencyValue{Kind: DependencyWorkspace, Workspace: WorkspaceCaret}, nil
		}
		return DependencyValue{Kind: DependencyWorkspace, Workspace: WorkspaceRange, Range: anyRange(ws)}, nil
	}

	if scheme, _, found := strings.Cut(value, ":"); found {
		for _, s := range unsupportedSchemes {
			if strings.EqualFold(scheme, s) {
				return DependencyValue{}, &DependencyError{Name: alias, Value: value, Scheme: scheme, Err: ErrUnsupportedScheme}
			}
		}
	}

	if rest, ok := strings.CutPrefix(value, "npm:"); ok {
		name, rng := splitAliasRequest(rest)
		if name == "" || (strings.HasPrefix(name, "@") && !strings.Contains(name, "/")) {
			return DependencyValue{}, &DependencyError{Name: alias, Value: value, Err: ErrInvalidDependencyValue}
		}
		return DependencyValue{Kind: DependencyRequest, Name: name, Range: rng}, nil
	}

	return DependencyValue{Kind: DependencyRequest, Name: alias, Range: anyRange(value)}, nil
}

// splitAliasRequest splits "name@range" at the last '@'. A scoped name
// without a range ("@scope/name") keeps its leading '@'.
func splitAliasRequest(s string) (name, rng string) {
	i := strings.LastIndexByte(s, '@')
	if i <= 0 {
		return s, "*"
	}
	return s[:i], anyRange(s[i+1:])
}

func anyRange(r string) string {
	if strings.TrimSpace(r) == "" {
		return "*"
	}
	return r
}
