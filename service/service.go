/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package service

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/acronis/go-respcache/log"
)

// Service runs a unit until a fatal error, a shutdown signal or context cancellation.
type Service struct {
	Unit    Unit
	Logger  log.FieldLogger
	Signals chan os.Signal

	shutdownSignals []os.Signal
}

// New creates a Service which stops the unit on SIGINT and SIGTERM.
func New(logger log.FieldLogger, unit Unit, shutdownSignals ...os.Signal) *Service {
	if len(shutdownSignals) == 0 {
		shutdownSignals = []os.Signal{syscall.SIGINT, syscall.SIGTERM}
	}
	return &Service{Unit: unit, Logger: logger, Signals: make(chan os.Signal, 1), shutdownSignals: shutdownSignals}
}

// Run starts the unit in a separate goroutine and blocks until it has to be stopped.
// Metrics of the unit are registered for the run duration.
func (s *Service) Run(ctx context.Context) error {
	if mr, ok := s.Unit.(MetricsRegisterer); ok {
		mr.MustRegisterMetrics()
		defer mr.UnregisterMetrics()
	}

	fatalErr := make(chan error, 1)
	go s.Unit.Start(fatalErr)

	signal.Notify(s.Signals, s.shutdownSignals...)
	defer signal.Stop(s.Signals)

	select {
	case err := <-fatalErr:
		s.Logger.Error("service fatal error", log.Error(err))
		return fmt.Errorf("fatal error: %w", err)
	case <-ctx.Done():
		s.Logger.Info("context is canceled, service will be stopped")
	case sig := <-s.Signals:
		s.Logger.Info("service got signal", log.String("signal", sig.String()))
	}
	if err := s.Unit.Stop(true); err != nil {
		return fmt.Errorf("stop service gracefully: %w", err)
	}
	return nil
}
