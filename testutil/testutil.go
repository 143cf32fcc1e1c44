/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

// Package testutil contains helpers for testing respcache servers.
package testutil

type tHelper interface {
	Helper()
}
