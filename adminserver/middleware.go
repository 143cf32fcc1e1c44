/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package adminserver

import (
	"context"
	"fmt"
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/xid"

	"github.com/acronis/go-respcache/log"
)

const headerRequestID = "X-Request-ID"

const recoveryStackSize = 8192

type ctxKey int

const (
	ctxKeyRequestID ctxKey = iota
	ctxKeyLogger
)

// GetRequestIDFromContext extracts request id from the context.
func GetRequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(ctxKeyRequestID).(string)
	return id
}

// GetLoggerFromContext extracts the request-scoped logger from the context.
func GetLoggerFromContext(ctx context.Context) log.FieldLogger {
	logger, _ := ctx.Value(ctxKeyLogger).(log.FieldLogger)
	return logger
}

func loggerFromRequest(r *http.Request, fallback log.FieldLogger) log.FieldLogger {
	if logger := GetLoggerFromContext(r.Context()); logger != nil {
		return logger
	}
	return fallback
}

// requestIDMiddleware takes X-Request-ID from the request or generates a new one with xid.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(headerRequestID)
		if requestID == "" {
			requestID = xid.New().String()
		}
		rw.Header().Set(headerRequestID, requestID)
		next.ServeHTTP(rw, r.WithContext(context.WithValue(r.Context(), ctxKeyRequestID, requestID)))
	})
}

// loggingMiddleware puts a logger with the request id into the context and logs completed requests.
func loggingMiddleware(logger log.FieldLogger, excludedEndpoints ...string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
			startTime := time.Now()
			reqLogger := logger.With(log.String("request_id", GetRequestIDFromContext(r.Context())))
			r = r.WithContext(context.WithValue(r.Context(), ctxKeyLogger, reqLogger))

			wrw := chimw.NewWrapResponseWriter(rw, r.ProtoMajor)
			next.ServeHTTP(wrw, r)

			for _, endpoint := range excludedEndpoints {
				if r.URL.Path == endpoint && wrw.Status() < http.StatusBadRequest {
					return
				}
			}
			duration := time.Since(startTime)
			reqLogger.Info(fmt.Sprintf("response completed in %.3fs", duration.Seconds()),
				log.String("method", r.Method),
				log.String("uri", r.RequestURI),
				log.String("remote_addr", r.RemoteAddr),
				log.Int64("duration_ms", duration.Milliseconds()),
				log.Int("status", wrw.Status()),
				log.Int("bytes_sent", wrw.BytesWritten()),
			)
		})
	}
}

// recoveryMiddleware turns a handler panic into a logged internal error.
func recoveryMiddleware(logger log.FieldLogger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
			defer func() {
				p := recover()
				if p == nil {
					return
				}
				reqLogger := loggerFromRequest(r, logger)
				if p == http.ErrAbortHandler { //nolint:errorlint // sentinel panic value
					reqLogger.Warn("request has been aborted", log.Error(http.ErrAbortHandler))
					panic(p)
				}
				stack := make([]byte, recoveryStackSize)
				stack = stack[:runtime.Stack(stack, false)]
				reqLogger.Error(fmt.Sprintf("Panic: %+v", p), log.String("stack", string(stack)))
				respondError(rw, http.StatusInternalServerError, ErrCodeInternal, "", reqLogger)
			}()
			next.ServeHTTP(rw, r)
		})
	}
}

type httpMetrics struct {
	requestDuration *prometheus.HistogramVec
}

func newHTTPMetrics() *httpMetrics {
	return &httpMetrics{
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "respcache_admin_http_request_duration_seconds",
			Help:    "A histogram of the admin HTTP request durations.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"method", "route_pattern", "status"}),
	}
}

func (m *httpMetrics) MustRegister() {
	prometheus.MustRegister(m.requestDuration)
}

func (m *httpMetrics) Unregister() {
	prometheus.Unregister(m.requestDuration)
}

func (m *httpMetrics) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		startTime := time.Now()
		wrw := chimw.NewWrapResponseWriter(rw, r.ProtoMajor)
		next.ServeHTTP(wrw, r)

		routePattern := "_unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			routePattern = rctx.RoutePattern()
		}
		m.requestDuration.WithLabelValues(r.Method, routePattern, strconv.Itoa(wrw.Status())).
			Observe(time.Since(startTime).Seconds())
	})
}
