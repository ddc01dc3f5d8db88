package ws

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"sequence-platform/backend/internal/events"
)

// Close codes for rejected channel attachments.
const (
	CloseMissingSession = 4001
	CloseInvalidSession = 4002
)

const (
	heartbeatInterval = 30 * time.Second
	disconnectGrace   = 10 * time.Second
	writeWait         = 10 * time.Second
)

// Upgrader configures the WebSocket upgrader.
var Upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// inbound is the only message shape clients may send on the channel.
type inbound struct {
	Type string `json:"type"`
}

// Client is one attached duplex channel.
type Client struct {
	PlayerID string
	Conn     *websocket.Conn
	Send     chan []byte
}

// Hub tracks at most one channel per player and fans events out to them.
// A dropped channel starts a grace timer; if the player does not reattach
// before it fires, the hub reports the disconnect upstream.
type Hub struct {
	mu               sync.RWMutex
	clients          map[string]*Client
	disconnectTimers map[string]*time.Timer
	onDisconnect     func(playerID string)
}

// NewHub builds an empty hub. onDisconnect runs on its own goroutine after
// the grace period expires without a reattachment; it may be nil.
func NewHub(onDisconnect func(playerID string)) *Hub {
	if onDisconnect == nil {
		onDisconnect = func(string) {}
	}
	return &Hub{
		clients:          make(map[string]*Client),
		disconnectTimers: make(map[string]*time.Timer),
		onDisconnect:     onDisconnect,
	}
}

// Attach registers a freshly upgraded connection for a player, replacing any
// previous channel and cancelling a pending disconnect timer.
func (h *Hub) Attach(playerID string, conn *websocket.Conn) *Client {
	client := &Client{
		PlayerID: playerID,
		Conn:     conn,
		Send:     make(chan []byte, 256),
	}

	h.mu.Lock()
	if timer, ok := h.disconnectTimers[playerID]; ok {
		timer.Stop()
		delete(h.disconnectTimers, playerID)
	}
	if prev, ok := h.clients[playerID]; ok {
		close(prev.Send)
		prev.Conn.Close()
	}
	h.clients[playerID] = client
	h.mu.Unlock()

	go client.writePump()
	go h.readPump(client)

	return client
}

// Connected reports whether a player has a live channel right now.
func (h *Hub) Connected(playerID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[playerID]
	return ok
}

// Send pushes an event to one player. Events for players without a channel
// are dropped; state lives server-side and is resent on reattach.
func (h *Hub) Send(playerID string, data []byte) {
	if data == nil {
		return
	}
	h.mu.RLock()
	client, ok := h.clients[playerID]
	h.mu.RUnlock()
	if !ok {
		return
	}
	select {
	case client.Send <- data:
	default:
		log.Printf("[WS] send buffer full, dropping event for %s", playerID)
	}
}

// SendEvent marshals and pushes one event to one player.
func (h *Hub) SendEvent(playerID, eventType string, payload interface{}) {
	h.Send(playerID, events.Marshal(eventType, payload))
}

// Broadcast pushes the same event to every listed player.
func (h *Hub) Broadcast(playerIDs []string, eventType string, payload interface{}) {
	data := events.Marshal(eventType, payload)
	for _, id := range playerIDs {
		h.Send(id, data)
	}
}

// Reject closes an upgraded connection that failed authentication.
func Reject(conn *websocket.Conn, code int, reason string) {
	deadline := time.Now().Add(writeWait)
	conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(code, reason), deadline)
	conn.Close()
}

// detach removes a client and arms the disconnect grace timer. A newer
// channel for the same player means this one was already replaced.
func (h *Hub) detach(client *Client) {
	h.mu.Lock()
	current, ok := h.clients[client.PlayerID]
	if !ok || current != client {
		h.mu.Unlock()
		client.Conn.Close()
		return
	}
	delete(h.clients, client.PlayerID)
	close(client.Send)

	playerID := client.PlayerID
	h.disconnectTimers[playerID] = time.AfterFunc(disconnectGrace, func() {
		h.mu.Lock()
		delete(h.disconnectTimers, playerID)
		_, reattached := h.clients[playerID]
		h.mu.Unlock()
		if !reattached {
			h.onDisconnect(playerID)
		}
	})
	h.mu.Unlock()

	client.Conn.Close()
}

// readPump consumes client frames. Only ping requests are honored; every
// mutation goes through the REST surface.
func (h *Hub) readPump(client *Client) {
	defer h.detach(client)

	client.Conn.SetReadDeadline(time.Now().Add(2 * heartbeatInterval))
	client.Conn.SetPongHandler(func(string) error {
		client.Conn.SetReadDeadline(time.Now().Add(2 * heartbeatInterval))
		return nil
	})

	for {
		var msg inbound
		if err := client.Conn.ReadJSON(&msg); err != nil {
			return
		}
		client.Conn.SetReadDeadline(time.Now().Add(2 * heartbeatInterval))
		if msg.Type == "ping" {
			h.Send(client.PlayerID, events.Marshal(events.TypePong, nil))
		}
	}
}

// writePump drains the send buffer and keeps the connection alive with
// protocol pings every heartbeat interval.
func (c *Client) writePump() {
	ticker := time.NewTicker(heartbeatInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
