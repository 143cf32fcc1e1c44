/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMedia(t *testing.T) {
	makeDirMedium := func(t *testing.T) Medium {
		m, err := NewDirMedium(filepath.Join(t.TempDir(), "local"))
		require.NoError(t, err)
		return m
	}
	media := map[string]func(t *testing.T) Medium{
		"map": func(t *testing.T) Medium { return NewMapMedium(0) },
		"dir": makeDirMedium,
	}
	for name, makeMedium := range media {
		t.Run(name, func(t *testing.T) {
			m := makeMedium(t)

			_, found, err := m.GetItem("k1")
			require.NoError(t, err)
			require.False(t, found)

			require.NoError(t, m.SetItem("k1", []byte("v1")))
			require.NoError(t, m.SetItem("k2", []byte("v2")))
			require.NoError(t, m.SetItem("k1", []byte("v1-updated")))

			data, found, err := m.GetItem("k1")
			require.NoError(t, err)
			require.True(t, found)
			require.Equal(t, []byte("v1-updated"), data)

			keys, err := m.Keys()
			require.NoError(t, err)
			require.ElementsMatch(t, []string{"k1", "k2"}, keys)

			require.NoError(t, m.RemoveItem("k1"))
			require.NoError(t, m.RemoveItem("k1"))
			_, found, err = m.GetItem("k1")
			require.NoError(t, err)
			require.False(t, found)

			keys, err = m.Keys()
			require.NoError(t, err)
			require.Equal(t, []string{"k2"}, keys)
		})
	}
}

func TestMapMedium_Quota(t *testing.T) {
	m := NewMapMedium(10)

	require.NoError(t, m.SetItem("a", []byte("1234"))) // 5 bytes
	require.NoError(t, m.SetItem("b", []byte("1234"))) // 10 bytes
	require.ErrorIs(t, m.SetItem("c", []byte("1")), ErrQuotaExceeded)
	require.Equal(t, uint64(10), m.Used())

	// Replacing an item only accounts for the difference.
	require.NoError(t, m.SetItem("a", []byte("12")))
	require.Equal(t, uint64(8), m.Used())
	require.NoError(t, m.SetItem("c", []byte("1")))

	require.NoError(t, m.RemoveItem("b"))
	require.Equal(t, uint64(5), m.Used())
}

func TestMapMedium_ReturnsCopies(t *testing.T) {
	m := NewMapMedium(0)
	data := []byte("value")
	require.NoError(t, m.SetItem("k", data))
	data[0] = 'X'

	got, _, err := m.GetItem("k")
	require.NoError(t, err)
	require.Equal(t, []byte("value"), got)
}

func TestDirMedium(t *testing.T) {
	t.Run("empty directory is rejected", func(t *testing.T) {
		_, err := NewDirMedium("")
		require.Error(t, err)
	})

	t.Run("items survive reopening", func(t *testing.T) {
		dir := t.TempDir()
		m, err := NewDirMedium(dir)
		require.NoError(t, err)
		require.NoError(t, m.SetItem("ns:user1", []byte(`{"name":"Bob"}`)))

		reopened, err := NewDirMedium(dir)
		require.NoError(t, err)
		data, found, err := reopened.GetItem("ns:user1")
		require.NoError(t, err)
		require.True(t, found)
		require.Equal(t, []byte(`{"name":"Bob"}`), data)
	})

	t.Run("foreign and corrupt files are skipped", func(t *testing.T) {
		dir := t.TempDir()
		m, err := NewDirMedium(dir)
		require.NoError(t, err)
		require.NoError(t, m.SetItem("k", []byte("v")))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "README.txt"), []byte("hello"), 0o600))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "broken"+dirMediumFileExt), []byte("{"), 0o600))

		keys, err := m.Keys()
		require.NoError(t, err)
		require.Equal(t, []string{"k"}, keys)
	})

	t.Run("corrupt item is a serialization error", func(t *testing.T) {
		m, err := NewDirMedium(t.TempDir())
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(m.path("k"), []byte("not json"), 0o600))

		_, _, err = m.GetItem("k")
		require.ErrorIs(t, err, ErrSerialization)
	})
}
