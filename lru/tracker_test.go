/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package lru

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTracker(t *testing.T) {
	tests := []struct {
		name       string
		fn         func(tr *Tracker)
		wantKeys   []string
		wantCounts map[string]int
	}{
		{
			name:       "empty",
			fn:         func(tr *Tracker) {},
			wantKeys:   []string{},
			wantCounts: map[string]int{},
		},
		{
			name: "insertion order breaks ties",
			fn: func(tr *Tracker) {
				tr.RecordInsert("a")
				tr.RecordInsert("b")
				tr.RecordInsert("c")
			},
			wantKeys:   []string{"a", "b", "c"},
			wantCounts: map[string]int{"a": 0, "b": 0, "c": 0},
		},
		{
			name: "access moves key to the end and counts",
			fn: func(tr *Tracker) {
				tr.RecordInsert("a")
				tr.RecordInsert("b")
				tr.RecordInsert("c")
				require.True(t, tr.RecordAccess("a"))
				require.True(t, tr.RecordAccess("a"))
				require.True(t, tr.RecordAccess("b"))
			},
			wantKeys:   []string{"c", "a", "b"},
			wantCounts: map[string]int{"a": 2, "b": 1, "c": 0},
		},
		{
			name: "access of untracked key is a no-op",
			fn: func(tr *Tracker) {
				tr.RecordInsert("a")
				require.False(t, tr.RecordAccess("zzz"))
			},
			wantKeys:   []string{"a"},
			wantCounts: map[string]int{"a": 0},
		},
		{
			name: "overwrite refreshes recency but keeps count",
			fn: func(tr *Tracker) {
				tr.RecordInsert("a")
				tr.RecordInsert("b")
				tr.RecordAccess("a")
				tr.RecordAccess("b")
				tr.RecordInsert("a")
			},
			wantKeys:   []string{"b", "a"},
			wantCounts: map[string]int{"a": 1, "b": 1},
		},
		{
			name: "untrack drops recency and count",
			fn: func(tr *Tracker) {
				tr.RecordInsert("a")
				tr.RecordInsert("b")
				tr.RecordAccess("a")
				tr.Untrack("a")
				tr.Untrack("missing")
			},
			wantKeys:   []string{"b"},
			wantCounts: map[string]int{"b": 0},
		},
		{
			name: "reset",
			fn: func(tr *Tracker) {
				tr.RecordInsert("a")
				tr.RecordAccess("a")
				tr.Reset()
			},
			wantKeys:   []string{},
			wantCounts: map[string]int{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NewTracker()
			tt.fn(tr)
			require.Equal(t, tt.wantKeys, tr.Keys())
			require.Equal(t, tt.wantCounts, tr.AccessCounts())
			require.Equal(t, len(tt.wantKeys), tr.Len())
		})
	}
}

func TestTracker_LeastRecentlyUsed(t *testing.T) {
	tr := NewTracker()
	_, ok := tr.LeastRecentlyUsed()
	require.False(t, ok)

	tr.RecordInsert("user1")
	tr.RecordInsert("user2")
	tr.RecordInsert("user3")
	tr.RecordAccess("user1")

	key, ok := tr.LeastRecentlyUsed()
	require.True(t, ok)
	require.Equal(t, "user2", key)

	tr.Untrack(key)
	key, _ = tr.LeastRecentlyUsed()
	require.Equal(t, "user3", key)
	require.True(t, tr.Has("user1"))
	require.False(t, tr.Has("user2"))
	require.Equal(t, 1, tr.AccessCount("user1"))
}

func TestTracker_AccessCountsIsCopy(t *testing.T) {
	tr := NewTracker()
	tr.RecordInsert("a")
	counts := tr.AccessCounts()
	counts["a"] = 100
	require.Equal(t, 0, tr.AccessCount("a"))
}
