/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package store

// Medium is an external key/value storage with string keys and opaque byte values.
// A medium may be shared by unrelated consumers, so implementations must be safe for concurrent use.
type Medium interface {
	GetItem(key string) (data []byte, found bool, err error)
	SetItem(key string, data []byte) error
	RemoveItem(key string) error
	Keys() ([]string, error)
}
