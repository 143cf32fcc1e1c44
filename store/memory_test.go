/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemory(t *testing.T) {
	m := NewMemory[string]()
	now := time.Now()

	_, found, err := m.Get("a")
	require.NoError(t, err)
	require.False(t, found)

	require.NoError(t, m.Put("a", Entry[string]{Value: "1", StoredAt: now, TTL: time.Minute}))
	require.NoError(t, m.Put("b", Entry[string]{Value: "2", StoredAt: now}))

	entry, found, err := m.Get("a")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, Entry[string]{Value: "1", StoredAt: now, TTL: time.Minute}, entry)

	keys, err := m.Keys()
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"a", "b"}, keys)

	require.NoError(t, m.Remove("a"))
	require.NoError(t, m.Remove("missing"))
	keys, _ = m.Keys()
	require.Equal(t, []string{"b"}, keys)

	require.NoError(t, m.Clear())
	keys, _ = m.Keys()
	require.Empty(t, keys)
}
