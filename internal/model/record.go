package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"

	"gopkg.in/yaml.v3"
)

// Record is an open, order-preserving string-keyed mapping. It models
// diagnostic data and the dynamic shape of thrown failures: a handful of
// well-known keys (cause, errors, name, stack, message) plus an opaque bag
// of arbitrary properties.
//
// The zero value and a nil *Record are both valid empty records for reads.
type Record struct {
	keys   []string
	values map[string]any
}

// NewRecord returns an empty record.
func NewRecord() *Record {
	return &Record{values: map[string]any{}}
}

// RecordOf builds a record from alternating key/value arguments.
// It panics when a key is not a string, which only happens on programmer error.
func RecordOf(kv ...any) *Record {
	if len(kv)%2 != 0 {
		panic("model.RecordOf: odd number of arguments")
	}

	r := NewRecord()

	for i := 0; i < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			panic(fmt.Sprintf("model.RecordOf: key %v is not a string", kv[i]))
		}

		r.Set(key, kv[i+1])
	}

	return r
}

// RecordFromMap converts a plain map into a record. Keys are sorted so the
// result is deterministic; nested maps are converted as well.
func RecordFromMap(m map[string]any) *Record {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	r := NewRecord()
	for _, k := range keys {
		r.Set(k, normalizeValue(m[k]))
	}

	return r
}

func normalizeValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return RecordFromMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = normalizeValue(e)
		}

		return out
	default:
		return v
	}
}

// Len returns the number of keys.
func (r *Record) Len() int {
	if r == nil {
		return 0
	}

	return len(r.keys)
}

// Keys returns the keys in insertion order.
func (r *Record) Keys() []string {
	if r == nil {
		return nil
	}

	out := make([]string, len(r.keys))
	copy(out, r.keys)

	return out
}

// Get returns the value stored under key.
func (r *Record) Get(key string) (any, bool) {
	if r == nil {
		return nil, false
	}

	v, ok := r.values[key]

	return v, ok
}

// Value returns the value stored under key, or nil.
func (r *Record) Value(key string) any {
	v, _ := r.Get(key)
	return v
}

// Has reports whether key is present, even when it holds nil.
func (r *Record) Has(key string) bool {
	_, ok := r.Get(key)
	return ok
}

// Set stores v under key. New keys are appended; existing keys keep their position.
func (r *Record) Set(key string, v any) {
	if r.values == nil {
		r.values = map[string]any{}
	}

	if _, ok := r.values[key]; !ok {
		r.keys = append(r.keys, key)
	}

	r.values[key] = v
}

// Delete removes key.
func (r *Record) Delete(key string) {
	if r == nil {
		return
	}

	if _, ok := r.values[key]; !ok {
		return
	}

	delete(r.values, key)

	for i, k := range r.keys {
		if k == key {
			r.keys = append(r.keys[:i], r.keys[i+1:]...)
			break
		}
	}
}

// Range calls fn for every entry in order until fn returns false.
func (r *Record) Range(fn func(key string, v any) bool) {
	if r == nil {
		return
	}

	for _, k := range r.Keys() {
		if !fn(k, r.values[k]) {
			return
		}
	}
}

// Clone returns a shallow copy.
func (r *Record) Clone() *Record {
	out := NewRecord()
	r.Range(func(k string, v any) bool {
		out.Set(k, v)
		return true
	})

	return out
}

// Merge copies every entry of other into r, overwriting existing keys.
func (r *Record) Merge(other *Record) {
	other.Range(func(k string, v any) bool {
		r.Set(k, v)
		return true
	})
}

// Map returns a plain map view with nested records converted.
func (r *Record) Map() map[string]any {
	out := make(map[string]any, r.Len())
	r.Range(func(k string, v any) bool {
		out[k] = plainValue(v)
		return true
	})

	return out
}

func plainValue(v any) any {
	switch t := v.(type) {
	case *Record:
		return t.Map()
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = plainValue(e)
		}

		return out
	default:
		return v
	}
}

// Equal reports deep equality with other. Key order is not significant.
func (r *Record) Equal(other *Record) bool {
	if r.Len() != other.Len() {
		return false
	}

	equal := true

	r.Range(func(k string, v any) bool {
		ov, ok := other.Get(k)
		if !ok || !ValuesEqual(v, ov) {
			equal = false
		}

		return equal
	})

	return equal
}

// ValuesEqual compares two record values, descending into records and sequences.
func ValuesEqual(a, b any) bool {
	switch ta := a.(type) {
	case *Record:
		tb, ok := b.(*Record)
		return ok && ta.Equal(tb)
	case []any:
		tb, ok := b.([]any)
		if !ok || len(ta) != len(tb) {
			return false
		}

		for i := range ta {
			if !ValuesEqual(ta[i], tb[i]) {
				return false
			}
		}

		return true
	default:
		return reflect.DeepEqual(a, b)
	}
}

// MarshalYAML renders the record as an ordered mapping node.
func (r *Record) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}

	var err error

	r.Range(func(k string, v any) bool {
		keyNode := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k}
		valueNode := &yaml.Node{}

		if err = valueNode.Encode(v); err != nil {
			err = fmt.Errorf("encode %q: %w", k, err)
			return false
		}

		node.Content = append(node.Content, keyNode, valueNode)

		return true
	})

	if err != nil {
		return nil, err
	}

	return node, nil
}

// UnmarshalYAML decodes a mapping node into an ordered record.
func (r *Record) UnmarshalYAML(node *yaml.Node) error {
	v, err := FromYAMLNode(node)
	if err != nil {
		return err
	}

	decoded, ok := v.(*Record)
	if !ok {
		return fmt.Errorf("expected a mapping, got %v", node.Tag)
	}

	*r = *decoded

	return nil
}

// FromYAMLNode converts a decoded YAML node into record values:
// mappings become *Record, sequences []any, scalars their natural Go type.
func FromYAMLNode(node *yaml.Node) (any, error) {
	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			return nil, nil
		}

		return FromYAMLNode(node.Content[0])
	case yaml.AliasNode:
		return FromYAMLNode(node.Alias)
	case yaml.MappingNode:
		r := NewRecord()

		for i := 0; i+1 < len(node.Content); i += 2 {
			v, err := FromYAMLNode(node.Content[i+1])
			if err != nil {
				return nil, err
			}

			r.Set(node.Content[i].Value, v)
		}

		return r, nil
	case yaml.SequenceNode:
		out := make([]any, 0, len(node.Content))

		for _, c := range node.Content {
			v, err := FromYAMLNode(c)
			if err != nil {
				return nil, err
			}

			out = append(out, v)
		}

		return out, nil
	default:
		var v any
		if err := node.Decode(&v); err != nil {
			return nil, fmt.Errorf("decode scalar %q: %w", node.Value, err)
		}

		return v, nil
	}
}

// MarshalJSON renders the record as a JSON object preserving key order.
func (r *Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte('{')

	var err error

	i := 0

	r.Range(func(k string, v any) bool {
		if i > 0 {
			buf.WriteByte(',')
		}

		i++

		var kb, vb []byte

		if kb, err = json.Marshal(k); err != nil {
			return false
		}

		if vb, err = json.Marshal(v); err != nil {
			err = fmt.Errorf("encode %q: %w", k, err)
			return false
		}

		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)

		return true
	})

	if err != nil {
		return nil, err
	}

	buf.WriteByte('}')

	return buf.Bytes(), nil
}
