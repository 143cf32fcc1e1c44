/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/acronis/go-respcache/adminserver"
	"github.com/acronis/go-respcache/config"
	"github.com/acronis/go-respcache/respserver"
)

func TestLoadAppConfig(t *testing.T) {
	dir := t.TempDir()

	cfg, err := loadAppConfig("")
	require.NoError(t, err)
	require.Equal(t, respserver.DefaultAddress, cfg.RESPServer.Address)
	require.Equal(t, adminserver.DefaultAddress, cfg.Admin.Address)
	require.True(t, cfg.Cache.Memory.EnableLRU)

	yamlPath := filepath.Join(dir, "respcached.yml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(`
cache:
  memory:
    maxSize: 100
  localPersistent:
    dir: `+filepath.Join(dir, "data")+`
  sessionPersistent:
    quota: 1M
redis:
  address: 127.0.0.1:7000
admin:
  enabled: false
`), 0o600))
	cfg, err = loadAppConfig(yamlPath)
	require.NoError(t, err)
	require.Equal(t, 100, cfg.Cache.Memory.MaxSize)
	require.Equal(t, config.ByteSize(1024*1024), cfg.Cache.SessionPersistent.Quota)
	require.Equal(t, "127.0.0.1:7000", cfg.RESPServer.Address)
	require.False(t, cfg.Admin.Enabled)

	jsonPath := filepath.Join(dir, "respcached.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"cache":{"memory":{"maxSize":-2}}}`), 0o600))
	_, err = loadAppConfig(jsonPath)
	require.ErrorContains(t, err, "cache.memory.maxSize")
}

func TestMakeServiceUnit_NoServers(t *testing.T) {
	cfg, err := loadAppConfig("")
	require.NoError(t, err)
	cfg.RESPServer.Enabled = false
	cfg.Admin.Enabled = false
	_, err = makeServiceUnit(cfg, nil)
	require.EqualError(t, err, "at least one of RESP and admin servers should be enabled")
}

func TestRunApp_InvalidFlag(t *testing.T) {
	require.Error(t, runApp([]string{"--no-such-flag"}))
}
