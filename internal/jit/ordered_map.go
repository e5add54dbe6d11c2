package jit

import (
	"bytes"
	"encoding/json"
)

// OrderedMap is a JSON object whose fields marshal in insertion order. The
// teacher has no equivalent (grpcrt's response batching never needs it),
// but botobag-artemis's executor/result_marshaler.go takes the same shape
// for the same reason: a GraphQL response's field order is part of its
// contract (P6), and Go's native map[string]any always marshals its keys
// alphabetically regardless of insertion order.
type OrderedMap struct {
	keys   []string
	values map[string]any
}

// NewOrderedMap allocates an OrderedMap sized for capacity fields.
func NewOrderedMap(capacity int) *OrderedMap {
	return &OrderedMap{keys: make([]string, 0, capacity), values: make(map[string]any, capacity)}
}

// Set assigns key's value, appending key to the insertion order the first
// time it's seen and updating it in place on repeat assignment.
func (m *OrderedMap) Set(key string, value any) {
	if _, exists := m.values[key]; !exists {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// Get returns key's value and whether it was present.
func (m *OrderedMap) Get(key string) (any, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Len returns the number of fields.
func (m *OrderedMap) Len() int { return len(m.keys) }

// Keys returns the field names in insertion order.
func (m *OrderedMap) Keys() []string { return m.keys }

// MarshalJSON implements json.Marshaler, writing fields in insertion order.
func (m *OrderedMap) MarshalJSON() ([]byte, error) {
	if m == nil || len(m.keys) == 0 {
		return []byte("{}"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(m.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
