package websocket

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	sendBuffer = 64
)

// Message is the frame pushed to connected clients
type Message struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

// Connection represents a WebSocket client connection
type Connection struct {
	ID          string
	UserID      uuid.UUID
	Conn        *websocket.Conn
	Send        chan Message
	ConnectedAt time.Time
	closeOnce   sync.Once
}

func (c *Connection) close() {
	c.closeOnce.Do(func() { close(c.Send) })
}

// Hub tracks live connections per user and routes messages to them
type Hub struct {
	mu       sync.RWMutex
	users    map[uuid.UUID]map[string]*Connection
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewHub creates a hub. allowedOrigins empty accepts any origin.
func NewHub(allowedOrigins []string, logger *zap.Logger) *Hub {
	origins := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = true
	}

	return &Hub{
		users:  make(map[uuid.UUID]map[string]*Connection),
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return len(origins) == 0 || origin == "" || origins[origin]
			},
		},
	}
}

// Serve upgrades the request and pumps messages for userID until the client goes away
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, userID uuid.UUID) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("failed to upgrade connection: %w", err)
	}

	connection := &Connection{
		ID:          uuid.NewString(),
		UserID:      userID,
		Conn:        conn,
		Send:        make(chan Message, sendBuffer),
		ConnectedAt: time.Now(),
	}
	h.register(connection)

	go h.writePump(connection)
	h.readPump(connection)
	return nil
}

func (h *Hub) register(c *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.users[c.UserID] == nil {
		h.users[c.UserID] = make(map[string]*Connection)
	}
	h.users[c.UserID][c.ID] = c
	h.logger.Debug("Websocket connected", zap.String("connection_id", c.ID), zap.String("user_id", c.UserID.String()))
}

func (h *Hub) unregister(c *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.users[c.UserID]; ok {
		if _, ok := conns[c.ID]; ok {
			delete(conns, c.ID)
			c.close()
		}
		if len(conns) == 0 {
			delete(h.users, c.UserID)
		}
	}
}

// readPump only services control frames; clients don't send application messages
func (h *Hub) readPump(c *Connection) {
	defer func() {
		h.unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(512)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Warn("Websocket read failed", zap.Error(err))
			}
			return
		}
	}
}

func (h *Hub) writePump(c *Connection) {
	ticker := time.NewTicker(pingPeriod)
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
			if err := c.Conn.WriteJSON(message); err != nil {
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

// SendToUser queues message on every connection userID holds and returns how
// many accepted it. Slow connections with a full buffer are skipped.
func (h *Hub) SendToUser(userID uuid.UUID, message Message) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	sent := 0
	for _, conn := range h.users[userID] {
		select {
		case conn.Send <- message:
			sent++
		default:
			h.logger.Warn("Websocket buffer full, dropping message", zap.String("connection_id", conn.ID))
		}
	}
	return sent
}

// ConnectionCount returns the number of open connections
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, conns := range h.users {
		n += len(conns)
	}
	return n
}

// Close drops every connection
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for userID, conns := range h.users {
		for _, c := range conns {
			c.close()
		}
		delete(h.users, userID)
	}
}
