/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Persistent is a Store which serializes entries as JSON into a Medium.
// All keys are namespaced with DeriveKey, items of the medium outside the namespace are never touched.
type Persistent[V any] struct {
	medium    Medium
	namespace string
	prefix    string
}

var _ Store[struct{}] = (*Persistent[struct{}])(nil)

// persistedEntry is the on-medium representation of Entry.
type persistedEntry struct {
	Value    json.RawMessage `json:"value"`
	StoredAt int64           `json:"storedAtNs"` // unix nanoseconds
	TTL      int64           `json:"ttlNs"`
}

// NewPersistent creates a Persistent store over the medium using the given key namespace.
func NewPersistent[V any](medium Medium, namespace string) (*Persistent[V], error) {
	if medium == nil {
		return nil, errors.New("medium cannot be nil")
	}
	if err := ValidateNamespace(namespace); err != nil {
		return nil, err
	}
	return &Persistent[V]{medium: medium, namespace: namespace, prefix: DeriveKey(namespace, "")}, nil
}

// Namespace returns the key namespace of the store.
func (p *Persistent[V]) Namespace() string {
	return p.namespace
}

// Put encodes the entry and writes it to the medium.
// Errors of the medium are wrapped with ErrStorageWrite.
func (p *Persistent[V]) Put(key string, entry Entry[V]) error {
	value, err := json.Marshal(entry.Value)
	if err != nil {
		return fmt.Errorf("%w: encode value of %q: %v", ErrSerialization, key, err)
	}
	data, err := json.Marshal(persistedEntry{
		Value:    value,
		StoredAt: entry.StoredAt.UnixNano(),
		TTL:      int64(entry.TTL),
	})
	if err != nil {
		return fmt.Errorf("%w: encode entry %q: %v", ErrSerialization, key, err)
	}
	if err = p.medium.SetItem(DeriveKey(p.namespace, key), data); err != nil {
		return fmt.Errorf("%w: %w", ErrStorageWrite, err)
	}
	return nil
}

// Get reads and decodes the entry. Undecodable items are reported with ErrSerialization.
func (p *Persistent[V]) Get(key string) (Entry[V], bool, error) {
	var entry Entry[V]
	data, found, err := p.medium.GetItem(DeriveKey(p.namespace, key))
	if err != nil || !found {
		return entry, false, err
	}
	var pe persistedEntry
	if err = json.Unmarshal(data, &pe); err != nil {
		return entry, false, fmt.Errorf("%w: decode entry %q: %v", ErrSerialization, key, err)
	}
	if len(pe.Value) == 0 {
		return entry, false, fmt.Errorf("%w: entry %q has no value", ErrSerialization, key)
	}
	if err = json.Unmarshal(pe.Value, &entry.Value); err != nil {
		return entry, false, fmt.Errorf("%w: decode value of %q: %v", ErrSerialization, key, err)
	}
	entry.StoredAt = time.Unix(0, pe.StoredAt)
	entry.TTL = time.Duration(pe.TTL)
	return entry, true, nil
}

// Remove deletes the entry from the medium.
func (p *Persistent[V]) Remove(key string) error {
	return p.medium.RemoveItem(DeriveKey(p.namespace, key))
}

// Keys returns keys of the namespace with the namespace prefix stripped.
func (p *Persistent[V]) Keys() ([]string, error) {
	mediumKeys, err := p.medium.Keys()
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(mediumKeys))
	for _, mk := range mediumKeys {
		if strings.HasPrefix(mk, p.prefix) {
			keys = append(keys, strings.TrimPrefix(mk, p.prefix))
		}
	}
	return keys, nil
}

// Clear removes all entries of the namespace.
func (p *Persistent[V]) Clear() error {
	keys, err := p.Keys()
	if err != nil {
		return err
	}
	var errs []error
	for _, k := range keys {
		if rmErr := p.Remove(k); rmErr != nil {
			errs = append(errs, rmErr)
		}
	}
	return errors.Join(errs...)
}
