/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package respserver

import (
	"errors"
	"net"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/xid"
	"github.com/tidwall/redcon"
	"go.uber.org/atomic"

	"github.com/acronis/go-respcache/log"
	"github.com/acronis/go-respcache/service"
)

// Server serves the cache over the Redis serialization protocol.
type Server struct {
	address string
	handler *handler
	logger  log.FieldLogger
	metrics *metrics
	srv     *redcon.Server

	// mu guards listening and stopped, which order Stop against a concurrent Start.
	mu        sync.Mutex
	listening bool
	stopped   bool

	port        atomic.Int32
	connections atomic.Int64
}

var (
	_ service.Unit              = (*Server)(nil)
	_ service.MetricsRegisterer = (*Server)(nil)
)

// New creates a new RESP server. It starts listening only in Start.
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
	s := &Server{
		address: cfg.Address,
		handler: &handler{cache: c},
		logger:  logger.With(log.String("server", "resp")),
		metrics: newMetrics(),
	}
	s.srv = redcon.NewServerNetwork("tcp", cfg.Address, s.serveCommand, s.accept, s.closed)
	return s, nil
}

// Start listens on the configured address and blocks until the server is stopped.
func (s *Server) Start(fatalErr chan<- error) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		s.logger.Info("RESP server stopped before start")
		return
	}
	s.mu.Unlock()

	s.logger.Info("starting RESP server...", log.String("address", s.address))

	listening := make(chan error, 1)
	go func() {
		if err := <-listening; err != nil {
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		s.listening = true
		if s.stopped {
			if err := s.srv.Close(); err != nil {
				s.logger.Error("failed to close RESP server", log.Error(err))
			}
			return
		}
		if tcpAddr, ok := s.srv.Addr().(*net.TCPAddr); ok {
			s.port.Store(int32(tcpAddr.Port)) //nolint:gosec // port fits int32
		}
		s.logger.Info("RESP server is listening", log.String("address", s.srv.Addr().String()))
	}()

	if err := s.srv.ListenServeAndSignal(listening); err != nil {
		s.logger.Error("RESP server failed", log.Error(err))
		fatalErr <- err
		return
	}
	s.logger.Info("RESP server stopped")
}

// Stop closes the listener. Open connections are closed by the underlying server.
// If Start has not bound the listener yet, it is closed as soon as it is bound.
func (s *Server) Stop(gracefully bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return nil
	}
	s.stopped = true
	if !s.listening {
		return nil
	}
	s.logger.Info("stopping RESP server...", log.Bool("gracefully", gracefully))
	if err := s.srv.Close(); err != nil {
		return err
	}
	s.port.Store(0)
	return nil
}

// Port returns the bound TCP port or 0 if the server is not listening.
func (s *Server) Port() int {
	return int(s.port.Load())
}

// Connections returns the number of open client connections.
func (s *Server) Connections() int64 {
	return s.connections.Load()
}

// MustRegisterMetrics registers server metrics in Prometheus.
func (s *Server) MustRegisterMetrics() {
	s.metrics.MustRegister()
}

// UnregisterMetrics unregisters server metrics in Prometheus.
func (s *Server) UnregisterMetrics() {
	s.metrics.Unregister()
}

func (s *Server) serveCommand(conn redcon.Conn, rc redcon.Command) {
	if len(rc.Args) == 0 {
		return
	}
	// Arguments are only valid during the call, stored values must own their bytes.
	cmd := command{name: strings.ToUpper(string(rc.Args[0])), args: make([][]byte, len(rc.Args)-1)}
	for i, arg := range rc.Args[1:] {
		cmd.args[i] = append([]byte{}, arg...)
	}

	r := s.handler.handle(cmd)
	s.metrics.observeCommand(cmd.name, r.kind != replyError)
	if r.kind == replyError {
		s.logger.Debug("RESP command failed",
			log.String("conn_id", connID(conn)), log.String("command", cmd.name), log.String("error", r.text))
	}
	writeReply(conn, r)
	if r.closeConn {
		if err := conn.Close(); err != nil {
			s.logger.Warn("failed to close RESP connection", log.String("conn_id", connID(conn)), log.Error(err))
		}
	}
}

func (s *Server) accept(conn redcon.Conn) bool {
	id := xid.New().String()
	conn.SetContext(id)
	s.metrics.connectionsOpen.Set(float64(s.connections.Inc()))
	s.logger.Debug("RESP connection accepted", log.String("conn_id", id), log.String("remote_addr", conn.RemoteAddr()))
	return true
}

func (s *Server) closed(conn redcon.Conn, err error) {
	s.metrics.connectionsOpen.Set(float64(s.connections.Dec()))
	fields := []log.Field{log.String("conn_id", connID(conn))}
	if err != nil {
		fields = append(fields, log.Error(err))
	}
	s.logger.Debug("RESP connection closed", fields...)
}

func connID(conn redcon.Conn) string {
	id, _ := conn.Context().(string)
	return id
}

func writeReply(conn redcon.Conn, r reply) {
	switch r.kind {
	case replyStatus:
		conn.WriteString(r.text)
	case replyError:
		conn.WriteError(r.text)
	case replyInt:
		conn.WriteInt(r.integer)
	case replyBulk:
		conn.WriteBulk(r.bulk)
	case replyNull:
		conn.WriteNull()
	case replyArray:
		conn.WriteArray(len(r.array))
		for _, item := range r.array {
			conn.WriteBulkString(item)
		}
	}
}

type metrics struct {
	commandsTotal   *prometheus.CounterVec
	connectionsOpen prometheus.Gauge
}

var knownCommands = map[string]bool{
	"PING": true, "QUIT": true, "GET": true, "SET": true, "DEL": true, "EVICT": true,
	"FLUSHDB": true, "CACHESTATS": true, "CACHEKEYS": true, "CACHECONFIG": true,
}

func newMetrics() *metrics {
	return &metrics{
		commandsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "respcache_resp_commands_total",
			Help: "Number of RESP commands handled.",
		}, []string{"command", "status"}),
		connectionsOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "respcache_resp_connections_open",
			Help: "Number of open RESP client connections.",
		}),
	}
}

func (m *metrics) observeCommand(name string, ok bool) {
	if !knownCommands[name] {
		name = "unknown"
	}
	status := "ok"
	if !ok {
		status = "error"
	}
	m.commandsTotal.WithLabelValues(name, status).Inc()
}

func (m *metrics) MustRegister() {
	prometheus.MustRegister(m.commandsTotal, m.connectionsOpen)
}

func (m *metrics) Unregister() {
	prometheus.Unregister(m.commandsTotal)
	prometheus.Unregister(m.connectionsOpen)
}
