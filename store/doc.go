/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

// Package store provides entry stores used by the response cache backends:
// an in-process map and a persistent store that serializes entries into a key/value medium.
package store
