/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package adminserver

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/acronis/go-respcache/config"
)

func TestConfig(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		want    *Config
		wantErr string
	}{
		{
			name: "defaults",
			yaml: `{}`,
			want: NewDefaultConfig(),
		},
		{
			name: "custom",
			yaml: `
admin:
  enabled: false
  address: 127.0.0.1:9000
  pprof: true
  timeouts:
    write: 1s
    read: 2s
    readHeader: 3s
    idle: 4s
    shutdown: 5s
`,
			want: &Config{
				Enabled: false,
				Address: "127.0.0.1:9000",
				PProf:   true,
				Timeouts: TimeoutsConfig{
					Write: time.Second, Read: 2 * time.Second, ReadHeader: 3 * time.Second,
					Idle: 4 * time.Second, Shutdown: 5 * time.Second,
				},
			},
		},
		{
			name:    "empty address",
			yaml:    "admin:\n  address: \"\"\n",
			wantErr: "admin.address: cannot be empty",
		},
		{
			name:    "negative timeout",
			yaml:    "admin:\n  timeouts:\n    shutdown: -1s\n",
			wantErr: "admin.timeouts.shutdown: cannot be negative",
		},
		{
			name:    "invalid timeout",
			yaml:    "admin:\n  timeouts:\n    idle: soon\n",
			wantErr: "admin.timeouts.idle",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig("")
			err := config.NewLoader(config.NewViperAdapter()).LoadFromReader(
				bytes.NewBufferString(tt.yaml), config.DataTypeYAML, cfg)
			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want.Enabled, cfg.Enabled)
			require.Equal(t, tt.want.Address, cfg.Address)
			require.Equal(t, tt.want.PProf, cfg.PProf)
			require.Equal(t, tt.want.Timeouts, cfg.Timeouts)
		})
	}
}
