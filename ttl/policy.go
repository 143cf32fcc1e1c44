/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

// Package ttl provides per-entry expiration stamping and lazy expiry checks.
package ttl

import "time"

// Clock returns the current time.
type Clock func() time.Time

// Policy stamps entries with their storage time and decides whether they are expired.
// Expiry is only evaluated on demand, nothing is swept in the background.
type Policy struct {
	now Clock
}

// NewPolicy creates a Policy. A nil clock means time.Now.
func NewPolicy(clock Clock) Policy {
	if clock == nil {
		clock = time.Now
	}
	return Policy{now: clock}
}

// Stamp returns the storage time for a new entry.
func (p Policy) Stamp() time.Time {
	return p.clock()()
}

// IsExpired reports whether an entry stored at storedAt with the given ttl is stale.
// A non-positive ttl never expires.
func (p Policy) IsExpired(storedAt time.Time, ttl time.Duration) bool {
	if ttl <= 0 {
		return false
	}
	return p.clock()().Sub(storedAt) > ttl
}

func (p Policy) clock() Clock {
	if p.now == nil {
		return time.Now
	}
	return p.now
}
