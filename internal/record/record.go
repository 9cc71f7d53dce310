// Package record models nested input records and table rows as
// insertion-order-preserving mappings.
package record

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"

	yaml "github.com/goccy/go-yaml"
)

// ErrRecord is the sentinel error for all record decoding failures.
// It allows error wrapping and consistent error checks using errors.Is().
var ErrRecord = errors.New("record error")

// Map is a string-keyed mapping that preserves insertion order.
// It is used both for nested input records and for output rows.
type Map struct {
	keys   []string
	values map[string]any
}

// NewMap creates an empty ordered mapping.
func NewMap() *Map {
	return &Map{values: make(map[string]any)}
}

// Set inserts or updates a key. Updating keeps the key's original position.
func (m *Map) Set(key string, value any) {
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// Get returns the value stored under key.
func (m *Map) Get(key string) (any, bool) {
	value, ok := m.values[key]
	return value, ok
}

// Has reports whether key is present.
func (m *Map) Has(key string) bool {
	_, ok := m.values[key]
	return ok
}

// Keys returns the keys in insertion order.
func (m *Map) Keys() []string {
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Len returns the number of entries.
func (m *Map) Len() int {
	return len(m.keys)
}

// Values returns the values in insertion order.
func (m *Map) Values() []any {
	out := make([]any, 0, len(m.keys))
	for _, key := range m.keys {
		out = append(out, m.values[key])
	}
	return out
}

// MarshalJSON encodes the mapping as a JSON object in insertion order.
func (m *Map) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		encodedKey, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(encodedKey)
		buf.WriteByte(':')
		encodedValue, err := json.Marshal(m.values[key])
		if err != nil {
			return nil, err
		}
		buf.Write(encodedValue)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalYAML encodes the mapping as a YAML mapping in insertion order.
func (m *Map) MarshalYAML() (any, error) {
	out := make(yaml.MapSlice, 0, len(m.keys))
	for _, key := range m.keys {
		out = append(out, yaml.MapItem{Key: key, Value: m.values[key]})
	}
	return out, nil
}

// Plain converts a record into plain Go containers (map[string]any and
// []any), erasing insertion order. Used where standard-shape input is
// required, such as JSONPath selection.
func Plain(value any) any {
	switch v := value.(type) {
	case *Map:
		out := make(map[string]any, v.Len())
		for _, key := range v.keys {
			out[key] = Plain(v.values[key])
		}
		return out
	case []any:
		out := make([]any, 0, len(v))
		for _, item := range v {
			out = append(out, Plain(item))
		}
		return out
	default:
		return v
	}
}

// Decode reads a JSON or YAML stream and returns the records it contains.
// A top-level sequence contributes one record per element; a top-level
// mapping contributes a single record. Mappings decode as *Map with key
// order preserved.
func Decode(r io.Reader) ([]any, error) {
	decoder := yaml.NewDecoder(r, yaml.UseOrderedMap())

	var records []any
	for {
		var doc any
		err := decoder.Decode(&doc)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: failed to decode input: %v", ErrRecord, err)
		}

		normalized, err := normalize(doc)
		if err != nil {
			return nil, err
		}

		switch v := normalized.(type) {
		case []any:
			records = append(records, v...)
		case *Map:
			records = append(records, v)
		default:
			return nil, fmt.Errorf("%w: input document must be a sequence or mapping, got %T", ErrRecord, normalized)
		}
	}

	return records, nil
}

// normalize rewrites decoded containers into *Map and []any recursively.
func normalize(value any) (any, error) {
	switch v := value.(type) {
	case yaml.MapSlice:
		out := NewMap()
		for _, item := range v {
			key, ok := item.Key.(string)
			if !ok {
				return nil, fmt.Errorf("%w: mapping key must be a string, got %T", ErrRecord, item.Key)
			}
			normalized, err := normalize(item.Value)
			if err != nil {
				return nil, err
			}
			out.Set(key, normalized)
		}
		return out, nil
	case map[string]any:
		// Decoded aliases can surface as plain maps; order them by key
		// so output stays deterministic.
		keys := make([]string, 0, len(v))
		for key := range v {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		out := NewMap()
		for _, key := range keys {
			normalized, err := normalize(v[key])
			if err != nil {
				return nil, err
			}
			out.Set(key, normalized)
		}
		return out, nil
	case []any:
		out := make([]any, 0, len(v))
		for _, item := range v {
			normalized, err := normalize(item)
			if err != nil {
				return nil, err
			}
			out = append(out, normalized)
		}
		return out, nil
	default:
		return v, nil
	}
}
