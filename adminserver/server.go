/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

// Package adminserver provides an HTTP server for inspecting and managing cache backends.
// Besides the JSON API under /api/respcache/v1 it exposes /healthz and Prometheus /metrics.
package adminserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/atomic"

	"github.com/acronis/go-respcache/backend"
	"github.com/acronis/go-respcache/log"
	"github.com/acronis/go-respcache/service"
)

// APIPrefix is the path prefix of the cache management API.
const APIPrefix = "/api/respcache/v1"

const (
	endpointHealthz = "/healthz"
	endpointMetrics = "/metrics"
	endpointPProf   = "/debug"
)

// Server is the admin HTTP server.
type Server struct {
	HTTPServer      *http.Server
	ShutdownTimeout time.Duration

	logger   log.FieldLogger
	metrics  *httpMetrics
	port     atomic.Int32
	serveEnd atomic.Value
}

var (
	_ service.Unit              = (*Server)(nil)
	_ service.MetricsRegisterer = (*Server)(nil)
)

// New creates a new admin server. It starts listening only in Start.
func New(cfg *Config, c Cache, logger log.FieldLogger) (*Server, error) {
	if c == nil {
		return nil, errors.New("cache cannot be nil")
	}
	if cfg.Address == "" {
		return nil, errors.New("address cannot be empty")
	}
	if logger == nil {
		logger = log.NewDisabledLogger()
	}
	logger = logger.With(log.String("server", "admin"))
	if cfg.PProf {
		logger.Warn("profiling endpoints are enabled", log.String("path", endpointPProf+"/pprof"))
	}

	metrics := newHTTPMetrics()
	return &Server{
		HTTPServer: &http.Server{
			Addr:              cfg.Address,
			Handler:           newRouter(c, logger, metrics, cfg.PProf),
			WriteTimeout:      cfg.Timeouts.Write,
			ReadTimeout:       cfg.Timeouts.Read,
			ReadHeaderTimeout: cfg.Timeouts.ReadHeader,
			IdleTimeout:       cfg.Timeouts.Idle,
		},
		ShutdownTimeout: cfg.Timeouts.Shutdown,
		logger:          logger,
		metrics:         metrics,
	}, nil
}

// newRouter creates chi.Router serving the admin API over the cache.
// With pprof enabled, runtime profiles are served under /debug/pprof.
func newRouter(c Cache, logger log.FieldLogger, metrics *httpMetrics, pprof bool) chi.Router {
	if metrics == nil {
		metrics = newHTTPMetrics()
	}
	h := &handlers{cache: c, logger: logger}

	router := chi.NewRouter()
	router.Use(
		requestIDMiddleware,
		loggingMiddleware(logger, endpointHealthz, endpointMetrics),
		recoveryMiddleware(logger),
		metrics.middleware,
	)

	router.Method(http.MethodGet, endpointMetrics, promhttp.Handler())
	router.Get(endpointHealthz, h.healthz)
	if pprof {
		router.Mount(endpointPProf, chimw.Profiler())
	}

	router.Route(APIPrefix+"/backends/{"+urlParamBackend+"}", func(r chi.Router) {
		r.Get("/stats", h.getStats)
		r.Get("/config", h.getConfig)
		r.Put("/config", h.putConfig)
		r.Post("/evict", h.evict)
		r.Get("/keys", h.getKeys)
		r.Delete("/entries", h.clear)
		r.Get("/entries/{"+urlParamKey+"}", h.getEntry)
		r.Put("/entries/{"+urlParamKey+"}", h.putEntry)
		r.Delete("/entries/{"+urlParamKey+"}", h.deleteEntry)
	})

	router.NotFound(func(rw http.ResponseWriter, r *http.Request) {
		respondError(rw, http.StatusNotFound, ErrCodeNotFound, "Not found.", loggerFromRequest(r, logger))
	})
	router.MethodNotAllowed(func(rw http.ResponseWriter, r *http.Request) {
		respondError(rw, http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed, "Method not allowed.",
			loggerFromRequest(r, logger))
	})
	return router
}

type healthCheckResponseData struct {
	Components map[string]bool `json:"components"`
}

// healthz reports whether every backend storage can be listed.
func (h *handlers) healthz(rw http.ResponseWriter, r *http.Request) {
	logger := loggerFromRequest(r, h.logger)
	data := healthCheckResponseData{Components: make(map[string]bool, len(backend.All))}
	status := http.StatusOK
	for _, b := range backend.All {
		_, err := h.cache.Stats(b)
		data.Components[string(b)] = err == nil
		if err != nil {
			logger.Error("health check failed", log.String("backend", string(b)), log.Error(err))
			status = http.StatusServiceUnavailable
		}
	}
	respondJSON(rw, status, data, logger)
}

// Start starts the admin server in a blocking way.
// If a fatal error occurs, it will be sent to the fatalErr channel.
func (s *Server) Start(fatalErr chan<- error) {
	done := make(chan struct{})
	defer close(done)
	s.serveEnd.Store(done)

	logger := s.logger.With(log.String("address", s.HTTPServer.Addr))
	logger.Info("starting admin HTTP server...")

	listener, err := net.Listen("tcp", s.HTTPServer.Addr)
	if err != nil {
		logger.Error("admin HTTP server error", log.Error(err))
		fatalErr <- err
		return
	}
	if tcpAddr, ok := listener.Addr().(*net.TCPAddr); ok {
		s.port.Store(int32(tcpAddr.Port)) //nolint:gosec // port fits int32
	}

	if err = s.HTTPServer.Serve(listener); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			logger.Info("admin HTTP server closed")
			return
		}
		logger.Error("admin HTTP server error", log.Error(err))
		fatalErr <- err
	}
}

// Stop stops the admin server (gracefully or not).
func (s *Server) Stop(gracefully bool) error {
	if !gracefully {
		s.logger.Info("closing admin HTTP server...")
		if err := s.HTTPServer.Close(); err != nil {
			s.logger.Error("admin HTTP server closing error", log.Error(err))
			return err
		}
		s.waitServeEnd()
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.ShutdownTimeout)
	defer cancel()

	s.logger.Info("shutting down admin HTTP server...", log.Duration("timeout", s.ShutdownTimeout))
	if err := s.HTTPServer.Shutdown(ctx); err != nil {
		s.logger.Error("admin HTTP server shutting down error", log.Error(err))
		return err
	}
	s.logger.Info("admin HTTP server shut down")
	s.waitServeEnd()
	return nil
}

func (s *Server) waitServeEnd() {
	if done, ok := s.serveEnd.Load().(chan struct{}); ok && done != nil {
		<-done
	}
}

// Port returns the bound TCP port or 0 if the server has not started listening.
func (s *Server) Port() int {
	return int(s.port.Load())
}

// MustRegisterMetrics registers HTTP request metrics in Prometheus and panics if any error occurs.
func (s *Server) MustRegisterMetrics() {
	s.metrics.MustRegister()
}

// UnregisterMetrics unregisters HTTP request metrics in Prometheus.
func (s *Server) UnregisterMetrics() {
	s.metrics.Unregister()
}
