package server

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/vango-dev/blockwire/pkg/capture"
	"github.com/vango-dev/blockwire/pkg/conn"
	"github.com/vango-dev/blockwire/pkg/protocol/packets"
	"github.com/vango-dev/blockwire/pkg/telemetry"
)

// ErrServerClosed is returned by Serve and ListenAndServe after Shutdown.
var ErrServerClosed = errors.New("server: closed")

// Server accepts game connections.
type Server struct {
	config *ServerConfig

	// RSA key for the login key exchange; nil without encryption.
	key       *rsa.PrivateKey
	publicDER []byte

	metrics *telemetry.Metrics
	tracer  *telemetry.Tracer
	sink    capture.Sink
	gather  prometheus.Gatherer
	logger  *slog.Logger

	upgrader websocket.Upgrader
	clients  chan *Client
	online   atomic.Int64

	mu         sync.Mutex
	listeners  map[net.Listener]struct{}
	conns      map[*conn.Conn]struct{}
	httpServer *http.Server
	closed     bool
	wg         sync.WaitGroup
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetrics records connection and codec metrics.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithTracer starts a span per connection and exchange.
func WithTracer(t *telemetry.Tracer) Option {
	return func(s *Server) {
		s.tracer = t
	}
}

// WithCaptureSink uploads each finished capture file to sink.
func WithCaptureSink(sink capture.Sink) Option {
	return func(s *Server) {
		s.sink = sink
	}
}

// WithGatherer sets the registry served on /metrics. The default is
// prometheus.DefaultGatherer.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gather = g
	}
}

// New creates a Server. With encryption enabled it generates the RSA key
// pair used for every login.
func New(config *ServerConfig, opts ...Option) (*Server, error) {
	config = config.withDefaults()
	s := &Server{
		config:    config,
		clients:   make(chan *Client, config.ClientQueue),
		listeners: make(map[net.Listener]struct{}),
		conns:     make(map[*conn.Conn]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     config.CheckOrigin,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.gather == nil {
		s.gather = prometheus.DefaultGatherer
	}
	s.logger = s.logger.With("component", "server")

	if config.Encryption {
		key, err := rsa.GenerateKey(rand.Reader, 1024)
		if err != nil {
			return nil, fmt.Errorf("server: generate key: %w", err)
		}
		der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
		if err != nil {
			return nil, fmt.Errorf("server: marshal key: %w", err)
		}
		s.key, s.publicDER = key, der
	}
	return s, nil
}

// Config returns the server configuration.
func (s *Server) Config() *ServerConfig {
	return s.config
}

// Logger returns the server logger.
func (s *Server) Logger() *slog.Logger {
	return s.logger
}

// Metrics returns the metrics the server records into, possibly nil.
func (s *Server) Metrics() *telemetry.Metrics {
	return s.metrics
}

// Clients delivers logged-in players. Connections wait here until
// received; a full queue stalls logins rather than dropping them.
func (s *Server) Clients() <-chan *Client {
	return s.clients
}

// Online returns the number of players logged in and not yet closed.
func (s *Server) Online() int {
	return int(s.online.Load())
}

// Status returns the document sent to server list pings.
func (s *Server) Status() *packets.StatusResponse {
	return packets.NewStatusResponse(s.config.MOTD, s.Online(), s.config.MaxPlayers)
}

// ListenAndServe listens on the configured addresses and serves until ctx
// is cancelled, then shuts down.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return fmt.Errorf("server: listen: %w", err)
	}

	errCh := make(chan error, 2)
	go func() {
		errCh <- s.Serve(ctx, ln)
	}()

	if s.config.AdminAddress != "" {
		httpServer := &http.Server{
			Addr:              s.config.AdminAddress,
			Handler:           s.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}
		s.mu.Lock()
		s.httpServer = httpServer
		s.mu.Unlock()
		go func() {
			s.logger.Info("admin listening", "address", s.config.AdminAddress)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("server: admin: %w", err)
			}
		}()
	}

	select {
	case err = <-errCh:
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	if serr := s.Shutdown(shutdownCtx); err == nil {
		err = serr
	}
	if errors.Is(err, ErrServerClosed) {
		return nil
	}
	return err
}

// Serve accepts connections on ln until ctx is cancelled or Shutdown is
// called. Each connection is served on its own goroutine.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	if !s.track(ln) {
		ln.Close()
		return ErrServerClosed
	}
	defer s.untrack(ln)

	stop := context.AfterFunc(ctx, func() { ln.Close() })
	defer stop()

	s.logger.Info("server listening", "address", ln.Addr().String())
	for {
		nc, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || s.isClosed() {
				return ErrServerClosed
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				time.Sleep(5 * time.Millisecond)
				continue
			}
			return fmt.Errorf("server: accept: %w", err)
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.ServeConn(ctx, nc, nc.RemoteAddr().String())
		}()
	}
}

// ServeConn runs the handshake on rw and either answers a status query or
// logs the player in. It returns once the connection is closed or handed
// to Clients.
func (s *Server) ServeConn(ctx context.Context, rw io.ReadWriteCloser, remote string) {
	s.metrics.ConnOpened()
	ctx, span := s.tracer.StartConn(ctx, remote)

	opts := []conn.Option{
		conn.WithLogger(s.logger),
		conn.WithMetrics(s.metrics),
		conn.WithRegistry(packets.Registry),
		conn.WithRemoteAddr(remote),
	}
	rec, capPath := s.openCapture()
	if rec != nil {
		opts = append(opts, conn.WithRecorder(rec))
	}
	c := conn.New(rw, conn.RoleServer, opts...)
	if !s.trackConn(c) {
		c.Close()
		s.finish(c, rec, capPath)
		telemetry.End(span, ErrServerClosed)
		return
	}

	client, err := s.handshake(ctx, c)
	if err != nil || client == nil {
		if err != nil && !isDisconnect(err) {
			c.Logger().Warn("connection failed", "error", err)
		}
		c.Close()
		s.finish(c, rec, capPath)
		telemetry.End(span, err)
		return
	}

	s.online.Add(1)
	client.release = func() {
		s.online.Add(-1)
		s.finish(c, rec, capPath)
		telemetry.End(span, nil)
	}
	c.Logger().Info("player logged in", "username", client.Username, "uuid", client.UUID)

	select {
	case s.clients <- client:
	case <-ctx.Done():
		client.Close()
	case <-c.Done():
		client.Close()
	}
}

// finish releases what ServeConn set up for c.
func (s *Server) finish(c *conn.Conn, rec *capture.Recorder, path string) {
	s.untrackConn(c)
	s.metrics.ConnClosed()
	if rec == nil {
		return
	}
	if err := rec.Close(); err != nil {
		s.logger.Warn("capture close failed", "path", path, "error", err)
		return
	}
	if s.sink == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	loc, err := capture.Upload(ctx, s.sink, path)
	if err != nil {
		s.logger.Warn("capture upload failed", "path", path, "error", err)
		return
	}
	s.logger.Debug("capture uploaded", "location", loc)
}

func (s *Server) openCapture() (*capture.Recorder, string) {
	if s.config.CaptureDir == "" {
		return nil, ""
	}
	path := filepath.Join(s.config.CaptureDir, capture.FileName(time.Now(), uuid.NewString()[:8]))
	rec, err := capture.Create(path)
	if err != nil {
		s.logger.Warn("capture disabled for connection", "error", err)
		return nil, ""
	}
	return rec, path
}

// Shutdown stops accepting, closes every open connection and waits for
// their goroutines, or for ctx.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	for ln := range s.listeners {
		ln.Close()
	}
	for c := range s.conns {
		c.Close()
	}
	httpServer := s.httpServer
	s.mu.Unlock()

	var err error
	if httpServer != nil {
		if herr := httpServer.Shutdown(ctx); herr != nil {
			s.logger.Error("admin shutdown error", "error", herr)
			err = herr
		}
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		if err == nil {
			err = ctx.Err()
		}
	}

	s.logger.Info("server shutdown complete")
	return err
}

func (s *Server) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Server) track(ln net.Listener) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.listeners[ln] = struct{}{}
	return true
}

func (s *Server) untrack(ln net.Listener) {
	s.mu.Lock()
	delete(s.listeners, ln)
	s.mu.Unlock()
}

func (s *Server) trackConn(c *conn.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.conns[c] = struct{}{}
	return true
}

func (s *Server) untrackConn(c *conn.Conn) {
	s.mu.Lock()
	delete(s.conns, c)
	s.mu.Unlock()
}

// isDisconnect reports whether err is the peer going away.
func isDisconnect(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) || errors.Is(err, conn.ErrClosed)
}
