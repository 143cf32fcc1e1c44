/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package config

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKeyPrefixedDataProvider(t *testing.T) {
	va := NewViperAdapter()
	require.NoError(t, va.SetFromReader(bytes.NewBufferString(`
cache:
  sessionPersistent:
    maxSize: 100
    enableLRU: false
    quota: 1M
`), DataTypeYAML))

	dp := NewKeyPrefixedDataProvider(va, "cache.sessionPersistent")

	maxSize, err := dp.GetInt("maxSize")
	require.NoError(t, err)
	require.Equal(t, 100, maxSize)

	enableLRU, err := dp.GetBool("enableLRU")
	require.NoError(t, err)
	require.False(t, enableLRU)

	quota, err := dp.GetByteSize("quota")
	require.NoError(t, err)
	require.Equal(t, ByteSize(1024*1024), quota)

	dp.SetDefault("dir", "/tmp")
	require.True(t, dp.IsSet("dir"))
	require.Equal(t, "/tmp", va.Get("cache.sessionPersistent.dir"))

	dp.Set("maxSize", 5)
	require.Equal(t, 5, va.Get("cache.sessionPersistent.maxSize"))

	err = dp.WrapKeyErr("maxSize", errors.New("bad value"))
	require.EqualError(t, err, "cache.sessionPersistent.maxSize: bad value")
}
