/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

// Package backend defines the storage targets the response cache can write to
// and normalizes their historical string aliases.
package backend

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidBackend is returned when a backend identifier is not recognized.
var ErrInvalidBackend = errors.New("invalid cache backend")

// Backend identifies one of the independent storage targets of the cache.
type Backend string

// Canonical backends.
const (
	Memory            Backend = "memory"
	LocalPersistent   Backend = "localPersistent"
	SessionPersistent Backend = "sessionPersistent"
)

// All lists canonical backends in a stable order.
var All = []Backend{Memory, LocalPersistent, SessionPersistent}

// aliases maps lower-cased historical names to canonical backends.
var aliases = map[string]Backend{
	"memory":             Memory,
	"mem":                Memory,
	"inmemory":           Memory,
	"in-memory":          Memory,
	"in_memory":          Memory,
	"localpersistent":    LocalPersistent,
	"local":              LocalPersistent,
	"localstorage":       LocalPersistent,
	"local-persistent":   LocalPersistent,
	"local_persistent":   LocalPersistent,
	"sessionpersistent":  SessionPersistent,
	"session":            SessionPersistent,
	"sessionstorage":     SessionPersistent,
	"session-persistent": SessionPersistent,
	"session_persistent": SessionPersistent,
}

// Parse returns the canonical backend for the given name.
// Canonical names and their aliases are matched case-insensitively.
func Parse(name string) (Backend, error) {
	if b, ok := aliases[strings.ToLower(strings.TrimSpace(name))]; ok {
		return b, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidBackend, name)
}

// MustParse is like Parse but panics on an unknown name.
func MustParse(name string) Backend {
	b, err := Parse(name)
	if err != nil {
		panic(err)
	}
	return b
}

// Normalize returns the canonical form of b.
func (b Backend) Normalize() (Backend, error) {
	return Parse(string(b))
}

// IsPersistent reports whether the backend keeps entries outside the process heap.
func (b Backend) IsPersistent() bool {
	return b == LocalPersistent || b == SessionPersistent
}

// String implements fmt.Stringer.
func (b Backend) String() string {
	return string(b)
}

// Names returns canonical names, used in configuration validation and error messages.
func Names() []string {
	names := make([]string, 0, len(All))
	for _, b := range All {
		names = append(names, string(b))
	}
	return names
}
