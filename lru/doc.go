/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

// Package lru provides recency and access-frequency bookkeeping for cache keys,
// decoupled from where the entry payloads are stored.
package lru
