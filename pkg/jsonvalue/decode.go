package jsonvalue

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"

	"gopkg.in/yaml.v3"
)

// MaxDepth bounds the nesting of arrays and objects accepted by the decoders
const MaxDepth = 512

// Sentinel errors for the decoders
var (
	// ErrSyntax indicates the input is not a single well-formed document
	ErrSyntax = errors.New("invalid JSON document")

	// ErrTooDeep indicates the document nests deeper than MaxDepth
	ErrTooDeep = errors.New("document nesting exceeds limit")

	// ErrUnsupportedType indicates a Go value that has no JSON equivalent
	ErrUnsupportedType = errors.New("unsupported value type")
)

// Parse decodes exactly one JSON document. Object key order is preserved.
func Parse(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	v, err := decodeValue(dec, 0)
	if err != nil {
		return nil, err
	}

	if tok, err := dec.Token(); err != io.EOF {
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
		}
		return nil, fmt.Errorf("%w: unexpected %v after top-level value", ErrSyntax, tok)
	}
	return v, nil
}

func decodeValue(dec *json.Decoder, depth int) (Value, error) {
	tok, err := dec.Token()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: unexpected end of input", ErrSyntax)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
	}

	switch t := tok.(type) {
	case json.Delim:
		if depth >= MaxDepth {
			return nil, ErrTooDeep
		}
		switch t {
		case '{':
			return decodeObject(dec, depth+1)
		case '[':
			return decodeArray(dec, depth+1)
		}
		return nil, fmt.Errorf("%w: unexpected %q", ErrSyntax, rune(t))
	case string:
		return String(t), nil
	case json.Number:
		return Number(t), nil
	case bool:
		return Bool(t), nil
	case nil:
		return Null{}, nil
	}
	return nil, fmt.Errorf("%w: unexpected token %v", ErrSyntax, tok)
}

func decodeObject(dec *json.Decoder, depth int) (Value, error) {
	obj := NewObject()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("%w: object key must be a string", ErrSyntax)
		}
		v, err := decodeValue(dec, depth)
		if err != nil {
			return nil, err
		}
		obj.add(key, v)
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
	}
	return obj, nil
}

func decodeArray(dec *json.Decoder, depth int) (Value, error) {
	arr := Array{}
	for dec.More() {
		v, err := decodeValue(dec, depth)
		if err != nil {
			return nil, err
		}
		arr = append(arr, v)
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
	}
	return arr, nil
}

// FromYAML converts a YAML document into a Value. Mapping order is kept,
// aliases are expanded and merge keys are applied. An empty document is Null.
func FromYAML(data []byte) (Value, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return Null{}, nil
	}
	return fromYAMLNode(doc.Content[0], 0)
}

func fromYAMLNode(n *yaml.Node, depth int) (Value, error) {
	if depth >= MaxDepth {
		return nil, ErrTooDeep
	}

	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return Null{}, nil
		}
		return fromYAMLNode(n.Content[0], depth+1)
	case yaml.AliasNode:
		return fromYAMLNode(n.Alias, depth+1)
	case yaml.SequenceNode:
		arr := make(Array, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := fromYAMLNode(c, depth+1)
			if err != nil {
				return nil, err
			}
			arr = append(arr, v)
		}
		return arr, nil
	case yaml.MappingNode:
		obj := NewObject()
		if err := mergeYAMLMapping(obj, n, depth); err != nil {
			return nil, err
		}
		return obj, nil
	case yaml.ScalarNode:
		return fromYAMLScalar(n)
	}
	return nil, fmt.Errorf("%w: unsupported YAML node at line %d", ErrSyntax, n.Line)
}

func mergeYAMLMapping(obj *Object, n *yaml.Node, depth int) error {
	merged := map[string]bool{}
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, val := n.Content[i], n.Content[i+1]

		if k.ShortTag() == "!!merge" {
			keys, err := mergeYAMLSources(obj, val, depth)
			if err != nil {
				return err
			}
			for _, key := range keys {
				merged[key] = true
			}
			continue
		}

		if k.Kind != yaml.ScalarNode {
			return fmt.Errorf("%w: non-scalar mapping key at line %d", ErrSyntax, k.Line)
		}
		v, err := fromYAMLNode(val, depth+1)
		if err != nil {
			return err
		}
		if merged[k.Value] {
			// explicit keys override merged ones without counting as repeats
			delete(merged, k.Value)
			obj.Set(k.Value, v)
			continue
		}
		obj.add(k.Value, v)
	}
	return nil
}

// mergeYAMLSources applies a "<<" merge and returns the keys it added.
// Keys already present in obj are left untouched.
func mergeYAMLSources(obj *Object, src *yaml.Node, depth int) ([]string, error) {
	if src.Kind == yaml.AliasNode {
		src = src.Alias
	}
	sources := []*yaml.Node{src}
	if src.Kind == yaml.SequenceNode {
		sources = src.Content
	}
	var added []string
	for _, s := range sources {
		if s.Kind == yaml.AliasNode {
			s = s.Alias
		}
		if s.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("%w: merge value must be a mapping at line %d", ErrSyntax, s.Line)
		}
		from := NewObject()
		if err := mergeYAMLMapping(from, s, depth+1); err != nil {
			return nil, err
		}
		from.Each(func(key string, v Value) bool {
			if !obj.Has(key) {
				obj.Set(key, v)
				added = append(added, key)
			}
			return true
		})
	}
	return added, nil
}

func fromYAMLScalar(n *yaml.Node) (Value, error) {
	switch n.ShortTag() {
	case "!!null":
		return Null{}, nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
		}
		return Bool(b), nil
	case "!!int":
		if isJSONNumber(n.Value) {
			return Number(n.Value), nil
		}
		var i int64
		if err := n.Decode(&i); err != nil {
			return String(n.Value), nil
		}
		return Number(strconv.FormatInt(i, 10)), nil
	case "!!float":
		if isJSONNumber(n.Value) {
			return Number(n.Value), nil
		}
		var f float64
		if err := n.Decode(&f); err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
			return String(n.Value), nil
		}
		return Number(strconv.FormatFloat(f, 'g', -1, 64)), nil
	default:
		return String(n.Value), nil
	}
}

func isJSONNumber(s string) bool {
	if s == "" {
		return false
	}
	if c := s[0]; c != '-' && (c < '0' || c > '9') {
		return false
	}
	return json.Valid([]byte(s))
}

// FromInterface converts values produced by encoding/json (or built by hand)
// into a Value. Map keys are sorted because Go maps carry no order.
func FromInterface(x any) (Value, error) {
	switch t := x.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return t, nil
	case bool:
		return Bool(t), nil
	case string:
		return String(t), nil
	case json.Number:
		return Number(t), nil
	case float64:
		if math.IsInf(t, 0) || math.IsNaN(t) {
			return nil, fmt.Errorf("%w: %v", ErrUnsupportedType, t)
		}
		return Number(strconv.FormatFloat(t, 'g', -1, 64)), nil
	case float32:
		return FromInterface(float64(t))
	case int:
		return Number(strconv.Itoa(t)), nil
	case int64:
		return Number(strconv.FormatInt(t, 10)), nil
	case int32:
		return Number(strconv.FormatInt(int64(t), 10)), nil
	case uint64:
		return Number(strconv.FormatUint(t, 10)), nil
	case []any:
		arr := make(Array, 0, len(t))
		for _, e := range t {
			v, err := FromInterface(e)
			if err != nil {
				return nil, err
			}
			arr = append(arr, v)
		}
		return arr, nil
	case []string:
		arr := make(Array, 0, len(t))
		for _, e := range t {
			arr = append(arr, String(e))
		}
		return arr, nil
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		obj := NewObject()
		for _, k := range keys {
			v, err := FromInterface(t[k])
			if err != nil {
				return nil, err
			}
			obj.Set(k, v)
		}
		return obj, nil
	case map[string]string:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		obj := NewObject()
		for _, k := range keys {
			obj.Set(k, String(t[k]))
		}
		return obj, nil
	}
	return nil, fmt.Errorf("%w: %T", ErrUnsupportedType, x)
}
