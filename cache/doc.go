/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

// Package cache provides a response cache with TTL expiration and LRU eviction
// over three independent backends: in-memory, local persistent and session persistent.
//
// Expired entries are not removed in the background, they are dropped when they are read
// or when they are evicted as the least recently used ones.
package cache
