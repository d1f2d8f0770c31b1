package pkgjson

import "strings"

// DefaultCondition is always active
const DefaultCondition = "default"

// Conditions is an ordered set of active condition names. The order is kept
// for display only: matching walks the keys of the manifest, not this set.
// The zero value holds only "default".
type Conditions struct {
	names []string
	set   map[string]struct{}
}

// NewConditions builds a condition set. Empty and repeated names are dropped
// and "default" is appended when missing.
func NewConditions(names ...string) Conditions {
	c := Conditions{set: make(map[string]struct{}, len(names)+1)}
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if _, dup := c.set[n]; dup {
			continue
		}
		c.set[n] = struct{}{}
		c.names = append(c.names, n)
	}
	if _, ok := c.set[DefaultCondition]; !ok {
		c.set[DefaultCondition] = struct{}{}
		c.names = append(c.names, DefaultCondition)
	}
	return c
}

// ImportConditions is the set used for ESM requests under Node
func ImportConditions() Conditions {
	return NewConditions("node", "import")
}

// RequireConditions is the set used for CommonJS requests under Node
func RequireConditions() Conditions {
	return NewConditions("node", "require")
}

// Has reports whether name is active
func (c Conditions) Has(name string) bool {
	if name == DefaultCondition {
		return true
	}
	_, ok := c.set[name]
	return ok
}

// Names returns the active names in order, "default" included
func (c Conditions) Names() []string {
	if len(c.names) == 0 {
		return []string{DefaultCondition}
	}
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}

func (c Conditions) String() string {
	return strings.Join(c.Names(), ",")
}
