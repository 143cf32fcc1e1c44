/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/acronis/go-respcache/log/logtest"
)

type mockUnit struct {
	name     string
	startErr error
	stopErr  error
	blocking bool

	stopped       chan struct{}
	running       atomic.Bool
	stopCalls     atomic.Int32
	gracefulStops atomic.Int32
	registered    atomic.Int32
	unregistered  atomic.Int32
}

func newMockUnit(name string) *mockUnit {
	return &mockUnit{name: name, blocking: true, stopped: make(chan struct{})}
}

func (u *mockUnit) Start(fatalErr chan<- error) {
	if u.startErr != nil {
		fatalErr <- u.startErr
		return
	}
	u.running.Store(true)
	if u.blocking {
		<-u.stopped
	}
}

func (u *mockUnit) Stop(gracefully bool) error {
	if u.stopCalls.Add(1) == 1 {
		close(u.stopped)
	}
	if gracefully {
		u.gracefulStops.Add(1)
	}
	u.running.Store(false)
	if u.stopErr != nil {
		return fmt.Errorf("%s: %w", u.name, u.stopErr)
	}
	return nil
}

func (u *mockUnit) MustRegisterMetrics() { u.registered.Add(1) }
func (u *mockUnit) UnregisterMetrics()   { u.unregistered.Add(1) }

func TestService_StopBySignal(t *testing.T) {
	unit := newMockUnit("srv")
	svc := New(logtest.NewRecorder(), unit)

	done := make(chan error, 1)
	go func() { done <- svc.Run(context.Background()) }()
	require.Eventually(t, unit.running.Load, 3*time.Second, 10*time.Millisecond)
	require.EqualValues(t, 1, unit.registered.Load())

	svc.Signals <- os.Interrupt

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		require.Fail(t, "service is not stopped")
	}
	require.EqualValues(t, 1, unit.gracefulStops.Load())
	require.EqualValues(t, 1, unit.unregistered.Load())
}

func TestService_StopByContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	unit := newMockUnit("srv")
	unit.stopErr = errors.New("listener is already closed")
	recorder := logtest.NewRecorder()
	svc := New(recorder, unit)

	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()
	require.Eventually(t, unit.running.Load, 3*time.Second, 10*time.Millisecond)
	cancel()

	err := <-done
	require.ErrorIs(t, err, unit.stopErr)
	_, found := recorder.FindEntry("context is canceled, service will be stopped")
	require.True(t, found)
}

func TestService_FatalError(t *testing.T) {
	unit := newMockUnit("srv")
	unit.startErr = errors.New("address already in use")
	recorder := logtest.NewRecorder()

	err := New(recorder, unit).Run(context.Background())
	require.ErrorIs(t, err, unit.startErr)
	_, found := recorder.FindEntry("service fatal error")
	require.True(t, found)
}
