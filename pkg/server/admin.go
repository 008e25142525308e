package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/blockwire/pkg/conn"
	"github.com/vango-dev/blockwire/pkg/protocol"
	"github.com/vango-dev/blockwire/pkg/protocol/packets"
	"github.com/vango-dev/blockwire/pkg/telemetry"
)

// AdminStatus is the document served on /status.
type AdminStatus struct {
	Version  string                  `json:"version"`
	Protocol int32                   `json:"protocol"`
	Address  string                  `json:"address"`
	Online   int                     `json:"online"`
	Status   *packets.StatusResponse `json:"status"`
	Stats    telemetry.Stats         `json:"stats"`
}

// Handler returns the admin HTTP handler:
//
//	GET /healthz   liveness probe
//	GET /metrics   Prometheus exposition
//	GET /status    AdminStatus as JSON
//	GET /ws        WebSocket carrying the game byte stream
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gather, promhttp.HandlerOpts{}))
	r.Get("/status", s.handleStatus)
	r.Get("/ws", s.HandleWebSocket)
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.isClosed() {
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok\n"))
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	doc := AdminStatus{
		Version:  protocol.GameVersion,
		Protocol: protocol.ProtocolVersion,
		Address:  s.config.Address,
		Online:   s.Online(),
		Status:   s.Status(),
		Stats:    s.metrics.Snapshot(),
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(doc); err != nil {
		s.logger.Warn("status encode failed", "error", err)
	}
}

// HandleWebSocket upgrades the request and serves the game protocol over
// binary messages.
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade failed", "error", err)
		return
	}
	stream := conn.NewWebSocketStream(ws)

	s.wg.Add(1)
	defer s.wg.Done()
	s.ServeConn(r.Context(), stream, r.RemoteAddr)
}
