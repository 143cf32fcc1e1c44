/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package log

import (
	"bytes"
	"testing"

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
			name: "file output",
			yaml: `
log:
  level: DEBUG
  format: text
  output: file
  nocolor: true
  addCaller: true
  file:
    path: /var/log/respcached-{{pid}}.log
    rotation:
      compress: true
      maxSize: 100M
      maxBackups: 3
      maxAgeDays: 7
`,
			want: &Config{
				Level:     LevelDebug,
				Format:    FormatText,
				Output:    OutputFile,
				NoColor:   true,
				AddCaller: true,
				File: FileOutputConfig{
					Path: "/var/log/respcached-{{pid}}.log",
					Rotation: FileRotationConfig{
						Compress:   true,
						MaxSize:    100 * 1024 * 1024,
						MaxBackups: 3,
						MaxAgeDays: 7,
					},
				},
			},
		},
		{
			name:    "unknown level",
			yaml:    "log:\n  level: trace\n",
			wantErr: `log.level: unknown value "trace"`,
		},
		{
			name:    "file output without path",
			yaml:    "log:\n  output: file\n",
			wantErr: "log.file.path: cannot be empty",
		},
		{
			name:    "too small rotation size",
			yaml:    "log:\n  file:\n    rotation:\n      maxSize: 1K\n",
			wantErr: "log.file.rotation.maxSize: should be >= 1M",
		},
		{
			name:    "negative max age",
			yaml:    "log:\n  file:\n    rotation:\n      maxAgeDays: -1\n",
			wantErr: "log.file.rotation.maxAgeDays: should be >= 0",
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
			tt.want.keyPrefix = cfg.keyPrefix
			require.Equal(t, tt.want, cfg)
		})
	}
}

func TestNewLogger(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Output = OutputStderr
	cfg.Level = LevelError
	logger, closeFn := NewLogger(cfg)
	defer closeFn()

	require.NotNil(t, logger.With(String("backend", "memory")))
	logger.Info("not written")
}

func TestResolvePlaceholders(t *testing.T) {
	require.NotContains(t, resolvePlaceholders("/tmp/{{starttime}}-{{pid}}.log"), "{{")
	require.Equal(t, "/tmp/app.log", resolvePlaceholders("/tmp/app.log"))
}
