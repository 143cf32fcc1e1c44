/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package store

// Memory is a Store which keeps entries in a map for the process lifetime.
// It is not safe for concurrent use.
type Memory[V any] struct {
	entries map[string]Entry[V]
}

var _ Store[struct{}] = (*Memory[struct{}])(nil)

// NewMemory creates an empty in-memory store.
func NewMemory[V any]() *Memory[V] {
	return &Memory[V]{entries: make(map[string]Entry[V])}
}

// Put stores the entry.
func (m *Memory[V]) Put(key string, entry Entry[V]) error {
	m.entries[key] = entry
	return nil
}

// Get returns the entry stored under the key.
func (m *Memory[V]) Get(key string) (Entry[V], bool, error) {
	entry, ok := m.entries[key]
	return entry, ok, nil
}

// Remove deletes the entry.
func (m *Memory[V]) Remove(key string) error {
	delete(m.entries, key)
	return nil
}

// Keys returns all stored keys in no particular order.
func (m *Memory[V]) Keys() ([]string, error) {
	keys := make([]string, 0, len(m.entries))
	for k := range m.entries {
		keys = append(keys, k)
	}
	return keys, nil
}

// Clear deletes all entries.
func (m *Memory[V]) Clear() error {
	m.entries = make(map[string]Entry[V])
	return nil
}
