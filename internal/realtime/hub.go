// Package realtime carries the websocket event bus: the server-side hub
// that groups connections into per-user rooms, and the client session
// that subscribes to it.
package realtime

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"taskhub/pkg/metrics"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// Join frames are tiny; anything bigger is a misbehaving client.
	maxMessageSize = 1024

	// Outbound buffer per connection. A subscriber that falls this far
	// behind is dropped rather than allowed to stall the hub.
	sendBufferSize = 64
)

// Frame is the wire format for every message in both directions.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type connection struct {
	ws     *websocket.Conn
	send   chan []byte
	userID string // room, set by the join frame; empty until then
}

// Hub tracks live connections and their room membership. Membership is
// ephemeral: a connection leaves its room on disconnect and the client
// must re-join after reconnecting.
type Hub struct {
	mu     sync.RWMutex
	conns  map[*connection]struct{}
	rooms  map[string]map[*connection]struct{}
	logger *zap.Logger

	upgrader websocket.Upgrader
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		conns:  make(map[*connection]struct{}),
		rooms:  make(map[string]map[*connection]struct{}),
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The upgrade endpoint sits behind the auth middleware;
			// cross-origin browsers carry the auth cookie.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// HandleWS upgrades an HTTP request into a hub connection and blocks
// until the connection closes.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("Websocket upgrade failed", zap.Error(err))
		return
	}

	conn := &connection{
		ws:   ws,
		send: make(chan []byte, sendBufferSize),
	}
	h.register(conn)

	go conn.writePump()
	h.readPump(conn)
}

func (h *Hub) register(c *connection) {
	h.mu.Lock()
	h.conns[c] = struct{}{}
	h.mu.Unlock()

	metrics.WSConnections.Inc()
	h.logger.Info("Client connected", zap.String("remote", c.ws.RemoteAddr().String()))
}

// unregister removes the connection from the hub and its room. Safe to
// call more than once; only the first call closes the send channel.
func (h *Hub) unregister(c *connection) {
	h.mu.Lock()
	_, present := h.conns[c]
	if present {
		delete(h.conns, c)
		if c.userID != "" {
			if room, ok := h.rooms[c.userID]; ok {
				delete(room, c)
				if len(room) == 0 {
					delete(h.rooms, c.userID)
				}
			}
		}
	}
	h.mu.Unlock()

	if present {
		close(c.send)
		metrics.WSConnections.Dec()
		h.logger.Info("Client disconnected", zap.String("user_id", c.userID))
	}
}

// join places the connection in the user's room. The user id comes from
// the client's join frame and is trusted as-is; the connection itself
// was authenticated at upgrade time. A second join moves the connection.
func (h *Hub) join(c *connection, userID string) {
	h.mu.Lock()
	if c.userID != "" {
		if room, ok := h.rooms[c.userID]; ok {
			delete(room, c)
			if len(room) == 0 {
				delete(h.rooms, c.userID)
			}
		}
	}
	c.userID = userID
	if userID != "" {
		room, ok := h.rooms[userID]
		if !ok {
			room = make(map[*connection]struct{})
			h.rooms[userID] = room
		}
		room[c] = struct{}{}
	}
	h.mu.Unlock()

	h.logger.Info("Client joined room", zap.String("user_id", userID))
}

func (h *Hub) readPump(c *connection) {
	defer func() {
		h.unregister(c)
		c.ws.Close()
	}()

	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("Websocket read error", zap.Error(err))
			}
			return
		}

		var frame Frame
		if err := json.Unmarshal(raw, &frame); err != nil {
			h.logger.Warn("Dropping malformed frame", zap.Error(err))
			continue
		}

		if frame.Event == "join" {
			var userID string
			if err := json.Unmarshal(frame.Data, &userID); err != nil {
				h.logger.Warn("Dropping malformed join frame", zap.Error(err))
				continue
			}
			h.join(c, userID)
		}
	}
}

func (c *connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func encodeFrame(event string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Frame{Event: event, Data: data})
}

// Publish delivers the event to every live connection, joined or not.
func (h *Hub) Publish(event string, payload any) error {
	msg, err := encodeFrame(event, payload)
	if err != nil {
		return err
	}

	h.mu.RLock()
	var slow []*connection
	for c := range h.conns {
		select {
		case c.send <- msg:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.logger.Warn("Dropping slow subscriber", zap.String("user_id", c.userID))
		h.unregister(c)
		c.ws.Close()
	}

	metrics.IncrementEventPublished(event, "broadcast")
	return nil
}

// PublishToUser delivers the event only to connections in the user's
// room. Publishing to an empty room is not an error; the events are
// simply lost, there is no queue or replay.
func (h *Hub) PublishToUser(userID, event string, payload any) error {
	msg, err := encodeFrame(event, payload)
	if err != nil {
		return err
	}

	h.mu.RLock()
	var slow []*connection
	for c := range h.rooms[userID] {
		select {
		case c.send <- msg:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.logger.Warn("Dropping slow subscriber", zap.String("user_id", c.userID))
		h.unregister(c)
		c.ws.Close()
	}

	metrics.IncrementEventPublished(event, "room")
	return nil
}

// ConnectionCount reports live connections, for readiness and tests.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// RoomSize reports how many connections occupy a user's room.
func (h *Hub) RoomSize(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[userID])
}
