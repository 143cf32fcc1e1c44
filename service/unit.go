/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

// Package service runs the respcache servers as units with a common lifecycle
// and stops them on OS signals or context cancellation.
package service

// Unit represents a service unit that can be started and stopped.
type Unit interface {
	// Start runs the unit. It may return right after initialization or block for the unit's lifetime.
	// A failure is reported by sending exactly one error to fatalErr; the channel must not be used after Start returns.
	Start(fatalErr chan<- error)

	// Stop halts the unit. It may be called even if Start has failed or was never called.
	Stop(gracefully bool) error
}

// MetricsRegisterer is an interface for objects that can register its own metrics.
type MetricsRegisterer interface {
	MustRegisterMetrics()
	UnregisterMetrics()
}
