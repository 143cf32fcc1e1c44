/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package backend

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		want Backend
	}{
		{"memory", Memory},
		{"MEMORY", Memory},
		{"in-memory", Memory},
		{" mem ", Memory},
		{"localPersistent", LocalPersistent},
		{"localStorage", LocalPersistent},
		{"local", LocalPersistent},
		{"local_persistent", LocalPersistent},
		{"sessionPersistent", SessionPersistent},
		{"sessionStorage", SessionPersistent},
		{"session-persistent", SessionPersistent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.name)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	for _, name := range []string{"", "redis", "indexedDB", "memoryy"} {
		_, err := Parse(name)
		require.ErrorIs(t, err, ErrInvalidBackend, "name %q", name)
	}
	require.Panics(t, func() { MustParse("disk") })
}

func TestBackend_Normalize(t *testing.T) {
	b, err := Backend("LocalStorage").Normalize()
	require.NoError(t, err)
	require.Equal(t, LocalPersistent, b)
	require.True(t, b.IsPersistent())
	require.False(t, Memory.IsPersistent())
	require.Equal(t, []string{"memory", "localPersistent", "sessionPersistent"}, Names())
}
