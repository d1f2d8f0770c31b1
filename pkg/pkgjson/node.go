package pkgjson

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/quantmind-br/pkgjson-go/pkg/jsonvalue"
)

// Node is one value of an "exports" or "imports" entry.
// The concrete type is Target, Disabled, *Conditional or Fallback.
type Node interface {
	isNode()
}

// Target is a path (or, for imports, a package specifier) that may contain '*'
type Target string

// Disabled is an explicit null: the entry exists but is unavailable
type Disabled struct{}

// Fallback is an array of alternatives tried in order
type Fallback []Node

// Entry is one key of a conditions or subpath mapping
type Entry struct {
	Key   string
	Value Node
}

// Conditional maps condition names to nodes in document order
type Conditional struct {
	entries []Entry
}

func (Target) isNode()       {}
func (Disabled) isNode()     {}
func (Fallback) isNode()     {}
func (*Conditional) isNode() {}

// Entries returns a copy of the conditions in document order
func (c *Conditional) Entries() []Entry {
	return cloneEntries(c.entries)
}

// Keys returns the condition names in document order
func (c *Conditional) Keys() []string {
	keys := make([]string, len(c.entries))
	for i, e := range c.entries {
		keys[i] = e.Key
	}
	return keys
}

// Get returns the node stored under a condition name
func (c *Conditional) Get(key string) (Node, bool) {
	for _, e := range c.entries {
		if e.Key == key {
			return cloneNode(e.Value), true
		}
	}
	return nil, false
}

// cloneNode copies the mutable parts of n. A *Conditional has no exported
// mutators and is shared.
func cloneNode(n Node) Node {
	fb, ok := n.(Fallback)
	if !ok {
		return n
	}
	out := make(Fallback, len(fb))
	for i, e := range fb {
		out[i] = cloneNode(e)
	}
	return out
}

func cloneEntries(entries []Entry) []Entry {
	out := make([]Entry, len(entries))
	for i, e := range entries {
		out[i] = Entry{Key: e.Key, Value: cloneNode(e.Value)}
	}
	return out
}

// subpathTable is the parsed form of a subpath-keyed mapping. Exact keys
// are indexed; pattern keys keep their document order.
type subpathTable struct {
	entries  []Entry
	exact    map[string]Node
	patterns []Entry
}

func newSubpathTable(entries []Entry) *subpathTable {
	t := &subpathTable{
		entries: entries,
		exact:   make(map[string]Node, len(entries)),
	}
	for _, e := range entries {
		if IsPattern(e.Key) {
			t.patterns = append(t.patterns, e)
			continue
		}
		t.exact[e.Key] = e.Value
	}
	return t
}

// lookup finds the entry for request: an exact key first, then the first
// pattern key in document order.
func (t *subpathTable) lookup(request string) (node Node, capture string, pattern bool, ok bool) {
	if t == nil {
		return nil, "", false, false
	}
	if n, found := t.exact[request]; found && !IsPattern(request) {
		return n, "", false, true
	}
	for _, e := range t.patterns {
		if c, matched := Match(e.Key, request); matched {
			return e.Value, c, true, true
		}
	}
	return nil, "", false, false
}

func (t *subpathTable) keys() []string {
	if t == nil {
		return nil
	}
	keys := make([]string, len(t.entries))
	for i, e := range t.entries {
		keys[i] = e.Key
	}
	return keys
}

// parseNode converts a target value. Strings, arrays, objects of conditions
// and null are accepted.
func parseNode(field string, v jsonvalue.Value, depth int) (Node, error) {
	if depth > jsonvalue.MaxDepth {
		return nil, syntaxError(field, "nested too deeply")
	}

	switch t := v.(type) {
	case jsonvalue.String:
		return Target(t), nil
	case jsonvalue.Null, nil:
		return Disabled{}, nil
	case jsonvalue.Array:
		fb := make(Fallback, 0, len(t))
		for i, e := range t {
			n, err := parseNode(fmt.Sprintf("%s[%d]", field, i), e, depth+1)
			if err != nil {
				return nil, err
			}
			fb = append(fb, n)
		}
		return fb, nil
	case *jsonvalue.Object:
		return parseConditional(field, t, depth)
	}
	return nil, syntaxError(field, "expected a string, array, object or null but found %s", v.Kind())
}

func parseConditional(field string, obj *jsonvalue.Object, depth int) (*Conditional, error) {
	c := &Conditional{entries: make([]Entry, 0, obj.Len())}
	var err error
	obj.Each(func(key string, v jsonvalue.Value) bool {
		sub := fmt.Sprintf("%s[%q]", field, key)
		if !validConditionKey(key) {
			err = syntaxError(sub, "condition names must not be empty, start with '.' or be numeric")
			return false
		}
		var n Node
		n, err = parseNode(sub, v, depth+1)
		if err != nil {
			return false
		}
		c.entries = append(c.entries, Entry{Key: key, Value: n})
		return true
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func validConditionKey(key string) bool {
	if key == "" || strings.HasPrefix(key, ".") {
		return false
	}
	if _, err := strconv.ParseUint(key, 10, 64); err == nil {
		return false
	}
	return true
}

// walkConditions calls fn for every condition key under n, depth first
func walkConditions(n Node, fn func(string)) {
	switch t := n.(type) {
	case Fallback:
		for _, e := range t {
			walkConditions(e, fn)
		}
	case *Conditional:
		for _, e := range t.entries {
			fn(e.Key)
			walkConditions(e.Value, fn)
		}
	}
}
