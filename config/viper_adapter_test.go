/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package config

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const testViperAdapterYAML = `
name: respcache
port: 6380
enabled: true
timeout: 1m30s
backend: LocalPersistent
quota: 512K
quotaInt: 1024
quotaNegative: -1
quotaBad: lots
`

func newTestViperAdapter(t *testing.T) *ViperAdapter {
	t.Helper()
	va := NewViperAdapter()
	require.NoError(t, va.SetFromReader(bytes.NewBufferString(testViperAdapterYAML), DataTypeYAML))
	return va
}

func TestViperAdapter_Getters(t *testing.T) {
	va := newTestViperAdapter(t)

	s, err := va.GetString("name")
	require.NoError(t, err)
	require.Equal(t, "respcache", s)

	i, err := va.GetInt("port")
	require.NoError(t, err)
	require.Equal(t, 6380, i)

	_, err = va.GetInt("name")
	require.ErrorContains(t, err, "name: ")

	b, err := va.GetBool("enabled")
	require.NoError(t, err)
	require.True(t, b)

	d, err := va.GetDuration("timeout")
	require.NoError(t, err)
	require.Equal(t, 90*time.Second, d)

	d, err = va.GetDuration("missing")
	require.NoError(t, err)
	require.Zero(t, d)

	require.True(t, va.IsSet("name"))
	require.False(t, va.IsSet("missing"))
}

func TestViperAdapter_GetStringFromSet(t *testing.T) {
	va := newTestViperAdapter(t)
	set := []string{"memory", "localPersistent", "sessionPersistent"}

	s, err := va.GetStringFromSet("backend", set, true)
	require.NoError(t, err)
	require.Equal(t, "LocalPersistent", s)

	_, err = va.GetStringFromSet("backend", set, false)
	require.ErrorContains(t, err, `backend: unknown value "LocalPersistent"`)
}

func TestViperAdapter_GetByteSize(t *testing.T) {
	va := newTestViperAdapter(t)

	tests := []struct {
		key     string
		want    ByteSize
		wantErr bool
	}{
		{key: "quota", want: 512 * 1024},
		{key: "quotaInt", want: 1024},
		{key: "missing", want: 0},
		{key: "quotaNegative", wantErr: true},
		{key: "quotaBad", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, err := va.GetByteSize(tt.key)
			if tt.wantErr {
				require.ErrorContains(t, err, tt.key)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}

	va.Set("override", ByteSize(7))
	got, err := va.GetByteSize("override")
	require.NoError(t, err)
	require.Equal(t, ByteSize(7), got)
}
