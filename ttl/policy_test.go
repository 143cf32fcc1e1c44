/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package ttl

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPolicy_IsExpired(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	p := NewPolicy(func() time.Time { return now })

	storedAt := p.Stamp()
	require.Equal(t, now, storedAt)

	tests := []struct {
		name    string
		elapsed time.Duration
		ttl     time.Duration
		want    bool
	}{
		{name: "fresh", elapsed: time.Minute, ttl: 5 * time.Minute, want: false},
		{name: "exactly at ttl", elapsed: 5 * time.Minute, ttl: 5 * time.Minute, want: false},
		{name: "past ttl", elapsed: 5*time.Minute + time.Millisecond, ttl: 5 * time.Minute, want: true},
		{name: "zero ttl never expires", elapsed: 24 * time.Hour, ttl: 0, want: false},
		{name: "negative ttl never expires", elapsed: 24 * time.Hour, ttl: -time.Second, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			now = storedAt.Add(tt.elapsed)
			require.Equal(t, tt.want, p.IsExpired(storedAt, tt.ttl))
		})
	}
}

func TestPolicy_ZeroValueUsesWallClock(t *testing.T) {
	var p Policy
	before := time.Now()
	require.False(t, p.Stamp().Before(before))
	require.True(t, p.IsExpired(before.Add(-time.Hour), time.Minute))
}
