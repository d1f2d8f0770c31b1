package jsonvalue

import (
	"strconv"

	"github.com/emirpasic/gods/maps/linkedhashmap"
)

// Kind identifies the JSON type of a Value
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

// String returns the JSON name of the kind
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// Value is one node of a parsed JSON document.
// The concrete type is one of Null, Bool, Number, String, Array or *Object.
type Value interface {
	Kind() Kind
	isValue()
}

// Null is the JSON null literal
type Null struct{}

// Bool is a JSON boolean
type Bool bool

// Number is a JSON number kept as its decimal text so that documents
// round-trip without float conversion.
type Number string

// String is a JSON string
type String string

// Array is a JSON array
type Array []Value

func (Null) Kind() Kind   { return KindNull }
func (Bool) Kind() Kind   { return KindBool }
func (Number) Kind() Kind { return KindNumber }
func (String) Kind() Kind { return KindString }
func (Array) Kind() Kind  { return KindArray }

func (Null) isValue()   {}
func (Bool) isValue()   {}
func (Number) isValue() {}
func (String) isValue() {}
func (Array) isValue()  {}

// Float64 returns the number as a float64
func (n Number) Float64() (float64, error) {
	return strconv.ParseFloat(string(n), 64)
}

// Int64 returns the number as an int64
func (n Number) Int64() (int64, error) {
	return strconv.ParseInt(string(n), 10, 64)
}

// Object is a JSON object that remembers the order in which its keys
// first appeared. Keys repeated in the source document keep their first
// position and the last value, and are reported by Duplicates.
// The zero value is an empty object ready to use.
type Object struct {
	fields     *linkedhashmap.Map
	duplicates []string
}

// NewObject creates an empty object
func NewObject() *Object {
	return &Object{fields: linkedhashmap.New()}
}

func (*Object) Kind() Kind { return KindObject }
func (*Object) isValue()   {}

// Set stores a value under key. An existing key keeps its position.
// A nil v is stored as Null.
func (o *Object) Set(key string, v Value) {
	if v == nil {
		v = Null{}
	}
	if o.fields == nil {
		o.fields = linkedhashmap.New()
	}
	o.fields.Put(key, v)
}

func (o *Object) empty() bool {
	return o == nil || o.fields == nil
}

// add is Set for decoders: a repeated key is remembered as a duplicate.
func (o *Object) add(key string, v Value) {
	if o.Has(key) {
		o.duplicates = append(o.duplicates, key)
	}
	o.Set(key, v)
}

// Get returns the value stored under key
func (o *Object) Get(key string) (Value, bool) {
	if o.empty() {
		return nil, false
	}
	v, found := o.fields.Get(key)
	if !found {
		return nil, false
	}
	return v.(Value), true
}

// Has reports whether key is present
func (o *Object) Has(key string) bool {
	_, ok := o.Get(key)
	return ok
}

// Delete removes key from the object
func (o *Object) Delete(key string) {
	if o.empty() {
		return
	}
	o.fields.Remove(key)
}

// Len returns the number of distinct keys
func (o *Object) Len() int {
	if o.empty() {
		return 0
	}
	return o.fields.Size()
}

// Keys returns the keys in document order
func (o *Object) Keys() []string {
	if o.empty() {
		return nil
	}
	keys := make([]string, 0, o.fields.Size())
	for _, k := range o.fields.Keys() {
		keys = append(keys, k.(string))
	}
	return keys
}

// Each calls fn for every member in document order until fn returns false
func (o *Object) Each(fn func(key string, v Value) bool) {
	if o.empty() {
		return
	}
	it := o.fields.Iterator()
	for it.Next() {
		if !fn(it.Key().(string), it.Value().(Value)) {
			return
		}
	}
}

// Duplicates returns the keys that occurred more than once in the source
// document, in the order the repetitions were seen.
func (o *Object) Duplicates() []string {
	if o == nil || len(o.duplicates) == 0 {
		return nil
	}
	out := make([]string, len(o.duplicates))
	copy(out, o.duplicates)
	return out
}

// Clone returns a deep copy of the object
func (o *Object) Clone() *Object {
	if o == nil {
		return nil
	}
	c := NewObject()
	o.Each(func(key string, v Value) bool {
		c.Set(key, Clone(v))
		return true
	})
	c.duplicates = o.Duplicates()
	return c
}

// Clone returns a deep copy of v
func Clone(v Value) Value {
	switch t := v.(type) {
	case *Object:
		return t.Clone()
	case Array:
		out := make(Array, len(t))
		for i, e := range t {
			out[i] = Clone(e)
		}
		return out
	case nil:
		return Null{}
	default:
		return t
	}
}

// Equal reports whether a and b hold the same JSON data with the same key order
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch x := a.(type) {
	case Array:
		y := b.(Array)
		if len(x) != len(y) {
			return false
		}
		for i := range x {
			if !Equal(x[i], y[i]) {
				return false
			}
		}
		return true
	case *Object:
		y := b.(*Object)
		xk, yk := x.Keys(), y.Keys()
		if len(xk) != len(yk) {
			return false
		}
		for i, k := range xk {
			if yk[i] != k {
				return false
			}
			xv, _ := x.Get(k)
			yv, _ := y.Get(k)
			if !Equal(xv, yv) {
				return false
			}
		}
		return true
	default:
		return a == b
	}
}

// AsString returns v as a Go string when it is a JSON string
func AsString(v Value) (string, bool) {
	s, ok := v.(String)
	return string(s), ok
}

// AsObject returns v as an object when it is one
func AsObject(v Value) (*Object, bool) {
	o, ok := v.(*Object)
	return o, ok && o != nil
}
