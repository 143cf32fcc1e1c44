/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package store

import (
	"fmt"
	"sync"

	"code.cloudfoundry.org/bytefmt"
)

// MapMedium is an in-process Medium whose content lives as long as the process (the session).
// If a quota is set, writes which would make the total size of keys and values exceed it are rejected.
type MapMedium struct {
	mu    sync.RWMutex
	items map[string][]byte
	used  uint64
	quota uint64
}

var _ Medium = (*MapMedium)(nil)

// NewMapMedium creates a MapMedium. Zero quota means no limit.
func NewMapMedium(quota uint64) *MapMedium {
	return &MapMedium{items: make(map[string][]byte), quota: quota}
}

// GetItem returns a copy of the stored data.
func (m *MapMedium) GetItem(key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.items[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), data...), true, nil
}

// SetItem stores a copy of the data.
func (m *MapMedium) SetItem(key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	used := m.used + itemSize(key, data)
	if old, ok := m.items[key]; ok {
		used -= itemSize(key, old)
	}
	if m.quota > 0 && used > m.quota {
		return fmt.Errorf("%w: storing %q needs %s, quota is %s",
			ErrQuotaExceeded, key, bytefmt.ByteSize(used), bytefmt.ByteSize(m.quota))
	}
	m.items[key] = append([]byte(nil), data...)
	m.used = used
	return nil
}

// RemoveItem deletes the item, removing a missing key is not an error.
func (m *MapMedium) RemoveItem(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.items[key]; ok {
		m.used -= itemSize(key, old)
		delete(m.items, key)
	}
	return nil
}

// Keys returns all keys of the medium, including ones written by other consumers.
func (m *MapMedium) Keys() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.items))
	for k := range m.items {
		keys = append(keys, k)
	}
	return keys, nil
}

// Used returns the number of bytes occupied by keys and values.
func (m *MapMedium) Used() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.used
}

func itemSize(key string, data []byte) uint64 {
	return uint64(len(key) + len(data))
}
