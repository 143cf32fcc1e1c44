/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package respserver

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/acronis/go-respcache/config"
)

func TestConfig(t *testing.T) {
	load := func(yaml string) (*Config, error) {
		cfg := NewConfig("")
		err := config.NewLoader(config.NewViperAdapter()).LoadFromReader(
			bytes.NewBufferString(yaml), config.DataTypeYAML, cfg)
		return cfg, err
	}

	cfg, err := load(`{}`)
	require.NoError(t, err)
	require.True(t, cfg.Enabled)
	require.Equal(t, DefaultAddress, cfg.Address)

	cfg, err = load("redis:\n  enabled: false\n  address: 127.0.0.1:7000\n")
	require.NoError(t, err)
	require.False(t, cfg.Enabled)
	require.Equal(t, "127.0.0.1:7000", cfg.Address)

	_, err = load("redis:\n  address: \"\"\n")
	require.ErrorContains(t, err, "redis.address: cannot be empty")
}
