// Package server is the read-only debug observer. It exposes the latest
// world snapshot over HTTP and streams per-tick snapshots to websocket
// clients. The simulation stays single-threaded: the run loop publishes
// snapshots into the server, which buffers the latest behind its own lock.
package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"sprawl/pkg/config"
	"sprawl/pkg/stream"
)

// Server serves debug state for a running world.
type Server struct {
	port int
	cfg  *config.Config
	log  *zap.Logger

	upgrader websocket.Upgrader

	mu      sync.Mutex
	latest  stream.Snapshot
	hasSnap bool
	clients map[*websocket.Conn]chan stream.Snapshot
}

// New creates an observer server for the given world configuration.
func New(port int, cfg *config.Config, log *zap.Logger) *Server {
	return &Server{
		port:    port,
		cfg:     cfg,
		log:     log,
		clients: make(map[*websocket.Conn]chan stream.Snapshot),
		upgrader: websocket.Upgrader{
			// Local debug tool, no origin policy.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Publish records the snapshot for HTTP readers and fans it out to
// websocket clients. Slow clients drop frames rather than block the tick.
func (s *Server) Publish(snap stream.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest = snap
	s.hasSnap = true
	for _, ch := range s.clients {
		select {
		case ch <- snap:
		default:
		}
	}
}

// Start launches the HTTP server. It blocks until the listener fails.
func (s *Server) Start() error {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/snapshot", s.handleSnapshot)
	mux.HandleFunc("GET /api/stats", s.handleStats)
	mux.HandleFunc("GET /api/config", s.handleConfig)
	mux.HandleFunc("GET /ws", s.handleWS)
	mux.HandleFunc("GET /", s.handleIndex)

	addr := fmt.Sprintf(":%d", s.port)
	s.log.Info("observer listening", zap.String("addr", addr))

	return http.ListenAndServe(addr, mux)
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	fmt.Fprint(w, `<!DOCTYPE html>
<html><head><title>sprawl observer</title></head>
<body style="margin:0;background:#111;color:#fff;font-family:system-ui;display:flex;align-items:center;justify-content:center;height:100vh">
<div style="text-align:center">
<h1>sprawl</h1>
<p>World observer. JSON at <code>/api/snapshot</code>, live feed at <code>/ws</code>.</p>
</div>
</body></html>`)
}

func (s *Server) handleSnapshot(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	snap, ok := s.latest, s.hasSnap
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if !ok {
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]string{"error": "no snapshot yet"})
		return
	}
	json.NewEncoder(w).Encode(snap)
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	stats := s.latest.Stats
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}

func (s *Server) handleConfig(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.cfg)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	ch := make(chan stream.Snapshot, 1)
	s.mu.Lock()
	s.clients[conn] = ch
	s.mu.Unlock()

	s.log.Info("observer client connected", zap.String("remote", r.RemoteAddr))

	go func() {
		defer func() {
			s.mu.Lock()
			delete(s.clients, conn)
			s.mu.Unlock()
			conn.Close()
		}()
		for snap := range ch {
			if err := conn.WriteJSON(snap); err != nil {
				s.log.Debug("observer client dropped", zap.Error(err))
				return
			}
		}
	}()
}
