/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package logtest

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/acronis/go-respcache/log"
)

func TestRecorder(t *testing.T) {
	recorder := NewRecorder()
	logger := recorder.With(log.String("backend", "memory"))

	logger.Info("cache entry stored", log.String("key", "user1"))
	logger.WithLevel(log.LevelWarn).Info("filtered out")
	logger.Warn("cache entry dropped", log.String("key", "user2"))

	require.Len(t, recorder.Entries(), 2)

	entry, found := recorder.FindEntry("cache entry stored")
	require.True(t, found)
	require.Equal(t, log.LevelInfo, entry.Level)
	field, found := entry.FindField("backend")
	require.True(t, found)
	require.Equal(t, "memory", string(field.Bytes))
	field, found = entry.FindField("key")
	require.True(t, found)
	require.Equal(t, "user1", string(field.Bytes))

	require.Len(t, recorder.FindAllEntries("cache entry dropped"), 1)
	_, found = recorder.FindEntry("filtered out")
	require.False(t, found)

	recorder.Reset()
	require.Empty(t, recorder.Entries())
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf)
	logger.Debug("cache entry evicted", log.String("key", "user1"))
	require.Contains(t, buf.String(), `"msg":"cache entry evicted"`)
	require.Contains(t, buf.String(), `"key":"user1"`)
}
