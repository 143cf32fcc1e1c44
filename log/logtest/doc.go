/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

// Package logtest provides log.FieldLogger implementations for tests:
// a JSON logger writing to an arbitrary output and a Recorder keeping entries for later inspection.
package logtest
