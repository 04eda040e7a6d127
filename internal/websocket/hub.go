// Package websocket pushes live forecast and journal events to
// connected clients.
package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"moodcast/internal/logging"
	"moodcast/pkg/types"
)

// Event types carried over the stream.
const (
	EventTypeForecast   = "forecast"
	EventTypeEntry      = "entry"
	EventTypeConnection = "connection"
	EventTypeSystem     = "system"
	EventTypeHeartbeat  = "heartbeat"
	EventTypePong       = "pong"
)

// Event actions.
const (
	ActionCreated     = "created"
	ActionScored      = "scored"
	ActionDeleted     = "deleted"
	ActionRecomputed  = "recomputed"
	ActionInvalidated = "invalidated"
	ActionConnected   = "connected"
)

const dateLayout = "2006-01-02"

// Connection tuning. The ping period stays inside the pong wait so an
// idle but healthy connection never times out.
const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxMessageSize = 512
)

// ForecastEvent is one message on the update stream.
type ForecastEvent struct {
	Type       string                `json:"type"`
	Action     string                `json:"action,omitempty"`
	Date       string                `json:"date,omitempty"` // forecast date, YYYY-MM-DD
	Prediction *types.MoodPrediction `json:"prediction,omitempty"`
	Timestamp  time.Time             `json:"timestamp"`
	Data       interface{}           `json:"data,omitempty"`
}

// Client is one connected WebSocket consumer.
type Client struct {
	ID         string
	Connection *websocket.Conn
	Send       chan ForecastEvent
	Hub        *Hub

	mu     sync.Mutex
	date   string // subscribed forecast date, empty means all
	closed bool
}

// NewClient wraps an upgraded connection. date optionally narrows the
// stream to events for one forecast date.
func NewClient(id string, conn *websocket.Conn, hub *Hub, date string) *Client {
	return &Client{
		ID:         id,
		Connection: conn,
		Send:       make(chan ForecastEvent, 256),
		Hub:        hub,
		date:       date,
	}
}

// DateFilter returns the client's current date subscription.
func (c *Client) DateFilter() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.date
}

// SetDateFilter updates the client's date subscription.
func (c *Client) SetDateFilter(date string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.date = date
}

// SafeClose closes the client's send channel exactly once.
func (c *Client) SafeClose() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed && c.Send != nil {
		close(c.Send)
		c.closed = true
	}
}

// Hub fans events out to registered clients.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan ForecastEvent
	logger     logging.Logger
	mutex      sync.RWMutex
}

// NewHub creates a hub. A nil logger disables logging.
func NewHub(logger logging.Logger) *Hub {
	if logger == nil {
		logger = logging.NewNoOpLogger()
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan ForecastEvent, 256),
		logger:     logger.WithComponent("websocket"),
	}
}

// Run drives the hub until the context is canceled. All registered
// connections are closed on the way out.
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		h.mutex.Lock()
		for client := range h.clients {
			client.SafeClose()
			if err := client.Connection.Close(); err != nil {
				h.logger.Warn("Failed to close client connection", "client_id", client.ID, "error", err)
			}
		}
		h.mutex.Unlock()
	}()

	for {
		select {
		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mutex.Unlock()

			h.logger.Info("WebSocket client registered", "client_id", client.ID, "total", total)

			welcome := ForecastEvent{
				Type:      EventTypeConnection,
				Action:    ActionConnected,
				Timestamp: time.Now().UTC(),
				Data: map[string]interface{}{
					"client_id": client.ID,
					"message":   "Connected to forecast update stream",
				},
			}
			select {
			case client.Send <- welcome:
			default:
				h.removeClient(client)
			}

		case client := <-h.unregister:
			h.removeClient(client)

		case event := <-h.broadcast:
			h.mutex.RLock()
			for client := range h.clients {
				if !h.shouldSendToClient(client, &event) {
					continue
				}
				select {
				case client.Send <- event:
				default:
					// Slow consumer, drop the connection.
					h.removeClientUnsafe(client)
				}
			}
			h.mutex.RUnlock()

		case <-ctx.Done():
			h.logger.Info("WebSocket hub shutting down")
			return
		}
	}
}

func (h *Hub) removeClient(client *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.removeClientUnsafe(client)
}

// removeClientUnsafe assumes the caller holds the lock.
func (h *Hub) removeClientUnsafe(client *Client) {
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	client.SafeClose()
	if err := client.Connection.Close(); err != nil {
		h.logger.Debug("Failed to close client connection", "client_id", client.ID, "error", err)
	}
	h.logger.Info("WebSocket client disconnected", "client_id", client.ID, "total", len(h.clients))
}

// shouldSendToClient applies the client's date subscription. Connection
// and system events always go through.
func (h *Hub) shouldSendToClient(client *Client, event *ForecastEvent) bool {
	switch event.Type {
	case EventTypeConnection, EventTypeSystem, EventTypeHeartbeat:
		return true
	}
	filter := client.DateFilter()
	if filter != "" && event.Date != "" && filter != event.Date {
		return false
	}
	return true
}

// RegisterClient hands a new client to the hub loop.
func (h *Hub) RegisterClient(client *Client) {
	h.register <- client
}

// UnregisterClient removes a client from the hub loop.
func (h *Hub) UnregisterClient(client *Client) {
	h.unregister <- client
}

// Broadcast queues an event for all matching clients. Events are
// dropped when the hub cannot keep up.
func (h *Hub) Broadcast(event ForecastEvent) {
	select {
	case h.broadcast <- event:
	default:
		h.logger.Warn("Broadcast channel full, dropping event", "type", event.Type, "action", event.Action)
	}
}

// BroadcastForecast announces a freshly computed forecast.
func (h *Hub) BroadcastForecast(action string, prediction *types.MoodPrediction) {
	h.Broadcast(ForecastEvent{
		Type:       EventTypeForecast,
		Action:     action,
		Date:       prediction.Date.UTC().Format(dateLayout),
		Prediction: prediction,
		Timestamp:  time.Now().UTC(),
	})
}

// BroadcastEntry announces a journal entry change.
func (h *Hub) BroadcastEntry(action string, entry *types.JournalEntry) {
	event := ForecastEvent{
		Type:      EventTypeEntry,
		Action:    action,
		Date:      entry.CreatedAt.UTC().Format(dateLayout),
		Timestamp: time.Now().UTC(),
		Data:      map[string]interface{}{"entry_id": entry.ID},
	}
	h.Broadcast(event)
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// WritePump drains the send channel onto the wire and keeps the
// connection alive with heartbeats.
func (c *Client) WritePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Connection.Close()
	}()

	for {
		select {
		case event, ok := <-c.Send:
			_ = c.Connection.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				_ = c.Connection.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Connection.WriteJSON(event); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.Connection.SetWriteDeadline(time.Now().Add(writeWait))
			heartbeat := ForecastEvent{Type: EventTypeHeartbeat, Timestamp: time.Now().UTC()}
			if err := c.Connection.WriteJSON(heartbeat); err != nil {
				return
			}

		case <-ctx.Done():
			return
		}
	}
}

// ReadPump consumes client messages until the connection drops, then
// unregisters the client.
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.Hub.UnregisterClient(c)
		_ = c.Connection.Close()
	}()

	c.Connection.SetReadLimit(maxMessageSize)
	_ = c.Connection.SetReadDeadline(time.Now().Add(pongWait))
	c.Connection.SetPongHandler(func(string) error {
		return c.Connection.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		select {
		case <-ctx.Done():
			return
		default:
			var msg map[string]interface{}
			if err := c.Connection.ReadJSON(&msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
					c.Hub.logger.Debug("WebSocket read failed", "client_id", c.ID, "error", err)
				}
				return
			}
			c.handleClientMessage(msg)
		}
	}
}

// handleClientMessage processes subscription changes and pings sent by
// the client.
func (c *Client) handleClientMessage(msg map[string]interface{}) {
	msgType, ok := msg["type"].(string)
	if !ok {
		return
	}

	switch msgType {
	case "subscribe":
		if date, ok := msg["date"].(string); ok {
			c.SetDateFilter(date)
			c.Hub.logger.Debug("Client subscribed to date", "client_id", c.ID, "date", date)
		}

	case "unsubscribe":
		c.SetDateFilter("")
		c.Hub.logger.Debug("Client cleared date subscription", "client_id", c.ID)

	case "ping":
		pong := ForecastEvent{Type: EventTypePong, Timestamp: time.Now().UTC()}
		select {
		case c.Send <- pong:
		default:
		}
	}
}
