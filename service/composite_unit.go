/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package service

import (
	"errors"
	"sync"
)

// CompositeUnit starts and stops several units as one.
type CompositeUnit struct {
	Units []Unit
}

var (
	_ Unit              = (*CompositeUnit)(nil)
	_ MetricsRegisterer = (*CompositeUnit)(nil)
)

// NewCompositeUnit creates a new composite unit.
func NewCompositeUnit(units ...Unit) *CompositeUnit {
	return &CompositeUnit{units}
}

// Start launches all units concurrently and blocks until every Start call returns.
// If any unit fails, the others are stopped non-gracefully and
// the joined failure and stop errors are sent to fatalErr.
func (cu *CompositeUnit) Start(fatalErr chan<- error) {
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		errs   []error
		failed = make(chan struct{})
		once   sync.Once
	)
	for _, u := range cu.Units {
		wg.Add(1)
		go func(u Unit) {
			defer wg.Done()
			unitErr := make(chan error, 1)
			u.Start(unitErr)
			select {
			case err := <-unitErr:
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
				once.Do(func() { close(failed) })
			default:
			}
		}(u)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		select {
		case <-failed:
		default:
			return
		}
	case <-failed:
	}

	stopErr := cu.Stop(false)
	<-done

	mu.Lock()
	defer mu.Unlock()
	fatalErr <- errors.Join(append(errs, stopErr)...)
}

// Stop stops all units concurrently and returns their joined errors.
func (cu *CompositeUnit) Stop(gracefully bool) error {
	errs := make([]error, len(cu.Units))
	var wg sync.WaitGroup
	for i, u := range cu.Units {
		wg.Add(1)
		go func(i int, u Unit) {
			defer wg.Done()
			errs[i] = u.Stop(gracefully)
		}(i, u)
	}
	wg.Wait()
	return errors.Join(errs...)
}

// MustRegisterMetrics registers metrics of all units which can do it.
func (cu *CompositeUnit) MustRegisterMetrics() {
	for _, u := range cu.Units {
		if mr, ok := u.(MetricsRegisterer); ok {
			mr.MustRegisterMetrics()
		}
	}
}

// UnregisterMetrics unregisters metrics of all units which can do it.
func (cu *CompositeUnit) UnregisterMetrics() {
	for _, u := range cu.Units {
		if mr, ok := u.(MetricsRegisterer); ok {
			mr.UnregisterMetrics()
		}
	}
}
