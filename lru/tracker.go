/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package lru

import "container/list"

// Tracker keeps keys ordered by recency and counts how many times each key was read.
// Tracker is not safe for concurrent use; callers serialize access together with the payload store.
type Tracker struct {
	order        *list.List // front is the least recently used key, back is the most recently used one
	index        map[string]*list.Element
	accessCounts map[string]int
}

// NewTracker creates an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{
		order:        list.New(),
		index:        make(map[string]*list.Element),
		accessCounts: make(map[string]int),
	}
}

// RecordInsert marks the key as the most recently used one.
// The access count of an already tracked key is preserved, only its recency is refreshed.
func (t *Tracker) RecordInsert(key string) {
	if elem, ok := t.index[key]; ok {
		t.order.MoveToBack(elem)
		return
	}
	t.index[key] = t.order.PushBack(key)
	if _, ok := t.accessCounts[key]; !ok {
		t.accessCounts[key] = 0
	}
}

// RecordAccess moves the key to the most recently used position and increments its access count.
// It returns false and does nothing if the key is not tracked.
func (t *Tracker) RecordAccess(key string) bool {
	elem, ok := t.index[key]
	if !ok {
		return false
	}
	t.order.MoveToBack(elem)
	t.accessCounts[key]++
	return true
}

// LeastRecentlyUsed returns the oldest tracked key.
func (t *Tracker) LeastRecentlyUsed() (string, bool) {
	elem := t.order.Front()
	if elem == nil {
		return "", false
	}
	return elem.Value.(string), true
}

// Untrack forgets the key together with its access count.
func (t *Tracker) Untrack(key string) {
	if elem, ok := t.index[key]; ok {
		t.order.Remove(elem)
		delete(t.index, key)
	}
	delete(t.accessCounts, key)
}

// Has reports whether the key is tracked.
func (t *Tracker) Has(key string) bool {
	_, ok := t.index[key]
	return ok
}

// Len returns the number of tracked keys.
func (t *Tracker) Len() int {
	return len(t.index)
}

// Keys returns tracked keys from the least to the most recently used.
func (t *Tracker) Keys() []string {
	keys := make([]string, 0, len(t.index))
	for elem := t.order.Front(); elem != nil; elem = elem.Next() {
		keys = append(keys, elem.Value.(string))
	}
	return keys
}

// AccessCount returns the number of recorded reads of the key.
func (t *Tracker) AccessCount(key string) int {
	return t.accessCounts[key]
}

// AccessCounts returns a copy of the access counters.
func (t *Tracker) AccessCounts() map[string]int {
	counts := make(map[string]int, len(t.accessCounts))
	for k, v := range t.accessCounts {
		counts[k] = v
	}
	return counts
}

// Reset drops all recency and access information.
func (t *Tracker) Reset() {
	t.order.Init()
	t.index = make(map[string]*list.Element)
	t.accessCounts = make(map[string]int)
}
