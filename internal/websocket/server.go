package websocket

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"moodcast/internal/logging"
)

// ServerConfig tunes the WebSocket endpoint.
type ServerConfig struct {
	MaxConnections    int           `json:"max_connections"`
	ReadBufferSize    int           `json:"read_buffer_size"`
	WriteBufferSize   int           `json:"write_buffer_size"`
	HandshakeTimeout  time.Duration `json:"handshake_timeout"`
	EnableCompression bool          `json:"enable_compression"`
	AllowedOrigins    []string      `json:"allowed_origins"`
}

// DefaultServerConfig returns the defaults used when no configuration
// is supplied.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		MaxConnections:    256,
		ReadBufferSize:    1024,
		WriteBufferSize:   1024,
		HandshakeTimeout:  10 * time.Second,
		EnableCompression: true,
		AllowedOrigins:    []string{"*"},
	}
}

// Server owns the hub and upgrades HTTP requests into hub clients.
type Server struct {
	config   *ServerConfig
	upgrader websocket.Upgrader
	hub      *Hub
	logger   logging.Logger

	mu      sync.RWMutex
	running bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewServer creates a WebSocket server. A nil config uses defaults.
func NewServer(config *ServerConfig, logger logging.Logger) *Server {
	if config == nil {
		config = DefaultServerConfig()
	}
	if logger == nil {
		logger = logging.NewNoOpLogger()
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:    config.ReadBufferSize,
		WriteBufferSize:   config.WriteBufferSize,
		HandshakeTimeout:  config.HandshakeTimeout,
		EnableCompression: config.EnableCompression,
		CheckOrigin: func(r *http.Request) bool {
			return checkOrigin(r, config.AllowedOrigins)
		},
	}

	return &Server{
		config:   config,
		upgrader: upgrader,
		hub:      NewHub(logger),
		logger:   logger.WithComponent("websocket"),
	}
}

// Start launches the hub loop.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("websocket server is already running")
	}

	s.ctx, s.cancel = context.WithCancel(context.Background())
	go s.hub.Run(s.ctx)
	s.running = true
	s.logger.Info("WebSocket server started")
	return nil
}

// Stop shuts the hub down and closes all connections.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return fmt.Errorf("websocket server is not running")
	}

	s.cancel()
	s.running = false
	s.logger.Info("WebSocket server stopped")
	return nil
}

// IsRunning reports whether the hub loop is active.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Hub exposes the event hub for broadcasters.
func (s *Server) Hub() *Hub {
	return s.hub
}

// ConnectionCount returns the number of connected clients.
func (s *Server) ConnectionCount() int {
	return s.hub.ClientCount()
}

// HandleUpgrade upgrades an HTTP request to a WebSocket connection and
// attaches it to the hub. An optional date query parameter subscribes
// the client to a single forecast date.
func (s *Server) HandleUpgrade(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	running, ctx := s.running, s.ctx
	s.mu.RUnlock()
	if !running {
		http.Error(w, "WebSocket server not running", http.StatusServiceUnavailable)
		return
	}

	if s.config.MaxConnections > 0 && s.hub.ClientCount() >= s.config.MaxConnections {
		http.Error(w, "Connection limit reached", http.StatusServiceUnavailable)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("WebSocket upgrade failed", "remote_addr", r.RemoteAddr, "error", err)
		return
	}

	client := NewClient(uuid.NewString(), conn, s.hub, r.URL.Query().Get("date"))
	s.hub.RegisterClient(client)

	// Pumps outlive the HTTP handler, so they run on the server context.
	go client.WritePump(ctx)
	go client.ReadPump(ctx)

	s.logger.Info("WebSocket client connected", "client_id", client.ID, "remote_addr", r.RemoteAddr)
}

// checkOrigin validates the request origin. Requests without an Origin
// header (CLI tools) are allowed.
func checkOrigin(r *http.Request, allowedOrigins []string) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range allowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}
