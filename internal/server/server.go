package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/BioHazard786/pairrelay/internal/config"
	"github.com/BioHazard786/pairrelay/internal/signaling"
)

// RootMessage is the liveness text served on GET /.
const RootMessage = "Pair relay server is running!"

const shutdownTimeout = 5 * time.Second

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status      string `json:"status"`
	ActiveRooms int    `json:"activeRooms"`
}

// Server serves the websocket relay and its HTTP status endpoints.
type Server struct {
	config     *config.Config
	hub        *signaling.Hub
	upgrader   *websocket.Upgrader
	httpServer *http.Server
	mux        *http.ServeMux
	handler    http.Handler
}

// New creates a Server around hub. The hub must be running.
func New(cfg *config.Config, hub *signaling.Hub) *Server {
	s := &Server{
		config:   cfg,
		hub:      hub,
		upgrader: newUpgrader(),
		mux:      http.NewServeMux(),
	}
	s.setupRoutes()
	s.handler = withCORS(s.mux)

	s.httpServer = &http.Server{
		Addr:              cfg.Address(),
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) setupRoutes() {
	ws := ServeWs(s.hub, s.upgrader, signaling.ClientOptions{
		KeepAlive:      s.config.KeepAlive,
		SendBuffer:     s.config.SendBuffer,
		MaxMessageSize: s.config.MaxMessageSize,
	})

	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /ws", ws)

	// Websocket clients may also connect at the root.
	s.mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		if websocket.IsWebSocketUpgrade(r) {
			ws(w, r)
			return
		}
		s.handleRoot(w, r)
	})
}

// Handler exposes the routes, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(RootMessage))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:      "ok",
		ActiveRooms: s.hub.RoomCount(),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Warn("failed to write health response", "error", err)
	}
}

// Start listens on the configured address and serves until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.httpServer.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("relay server listening", "addr", ln.Addr().String())
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("serve: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}

	return s.Shutdown()
}

// Shutdown stops accepting new connections. Websocket connections are
// hijacked and end when the hub stops.
func (s *Server) Shutdown() error {
	slog.Info("shutting down relay server")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
