/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package store

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Errors returned by stores and media.
var (
	// ErrSerialization means an entry could not be encoded or decoded.
	// Decode failures are treated by the cache as misses.
	ErrSerialization = errors.New("cache entry serialization failure")

	// ErrStorageWrite means the underlying medium rejected a write.
	ErrStorageWrite = errors.New("cache storage write failure")

	// ErrQuotaExceeded is returned by a medium which has no room left for the item.
	ErrQuotaExceeded = errors.New("storage quota exceeded")
)

// Entry is a cached value together with its storage and expiry metadata.
type Entry[V any] struct {
	Value    V
	StoredAt time.Time
	TTL      time.Duration
}

// Store persists cache entries of a single backend.
type Store[V any] interface {
	Put(key string, entry Entry[V]) error
	Get(key string) (entry Entry[V], found bool, err error)
	Remove(key string) error
	Keys() ([]string, error)
	Clear() error
}

const keySeparator = ":"

// ValidateNamespace checks that the namespace is non-empty and free of the key separator,
// so that no namespace is a prefix of another one's keys.
func ValidateNamespace(namespace string) error {
	if namespace == "" {
		return errors.New("namespace for persistent store cannot be empty")
	}
	if strings.Contains(namespace, keySeparator) {
		return fmt.Errorf("namespace %q cannot contain %q", namespace, keySeparator)
	}
	return nil
}

// DeriveKey namespaces the name so that entries of the cache do not collide
// with unrelated consumers of the same persistent medium.
func DeriveKey(namespace, name string) string {
	return namespace + keySeparator + name
}
