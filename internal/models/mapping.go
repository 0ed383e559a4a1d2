package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ContentMapping maps archive-relative paths to file contents and remembers
// insertion order. Replacing a key keeps its original position.
type ContentMapping struct {
	keys   []string
	values map[string]string
}

// NewContentMapping returns an empty mapping
func NewContentMapping() *ContentMapping {
	return &ContentMapping{values: make(map[string]string)}
}

// Set stores content under path and reports whether an existing value was replaced
func (m *ContentMapping) Set(path, content string) bool {
	if m.values == nil {
		m.values = make(map[string]string)
	}
	_, exists := m.values[path]
	if !exists {
		m.keys = append(m.keys, path)
	}
	m.values[path] = content
	return exists
}

// Get returns the content stored under path
func (m *ContentMapping) Get(path string) (string, bool) {
	if m == nil {
		return "", false
	}
	v, ok := m.values[path]
	return v, ok
}

// Keys returns a copy of the paths in mapping order
func (m *ContentMapping) Keys() []string {
	if m == nil {
		return nil
	}
	keys := make([]string, len(m.keys))
	copy(keys, m.keys)
	return keys
}

// Len returns the number of paths
func (m *ContentMapping) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Each calls fn for every pair in mapping order
func (m *ContentMapping) Each(fn func(path, content string)) {
	if m == nil {
		return
	}
	for _, k := range m.keys {
		fn(k, m.values[k])
	}
}

// Equal reports whether both mappings hold the same paths with the same
// contents. Order is not compared.
func (m *ContentMapping) Equal(other *ContentMapping) bool {
	if m.Len() != other.Len() {
		return false
	}
	for _, k := range m.Keys() {
		ov, ok := other.Get(k)
		if !ok {
			return false
		}
		if v, _ := m.Get(k); v != ov {
			return false
		}
	}
	return true
}

// MarshalJSON encodes the mapping as a JSON object with keys in mapping order
func (m *ContentMapping) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	out := []byte{'{'}
	for i, k := range m.Keys() {
		if i > 0 {
			out = append(out, ',')
		}
		buf.Reset()
		if err := enc.Encode(k); err != nil {
			return nil, err
		}
		out = append(out, bytes.TrimRight(buf.Bytes(), "\n")...)
		out = append(out, ':')

		buf.Reset()
		if err := enc.Encode(m.values[k]); err != nil {
			return nil, err
		}
		out = append(out, bytes.TrimRight(buf.Bytes(), "\n")...)
	}
	out = append(out, '}')
	return out, nil
}

// UnmarshalJSON decodes a JSON object of strings, keeping document order
func (m *ContentMapping) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("content mapping must be a JSON object")
	}

	m.keys = nil
	m.values = make(map[string]string)

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected key token %v", tok)
		}
		var value string
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("failed to decode content for %q: %w", key, err)
		}
		m.Set(key, value)
	}

	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}
