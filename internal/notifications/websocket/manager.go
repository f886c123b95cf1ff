package websocket

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxMessageSize = 512
	sendBuffer     = 256
)

// Message is the frame pushed to connected clients.
type Message struct {
	Type      string      `json:"type"`
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

// Manager tracks WebSocket connections keyed by user and fans
// notification frames out to every connection a user holds open.
type Manager struct {
	connections map[*Connection]bool
	mu          sync.RWMutex
	upgrader    websocket.Upgrader
	logger      *zap.Logger
}

// Connection is a single client socket.
type Connection struct {
	ID     uuid.UUID
	UserID uuid.UUID
	conn   *websocket.Conn
	send   chan Message
}

func NewManager(logger *zap.Logger) *Manager {
	return &Manager{
		connections: make(map[*Connection]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// Origin checking is delegated to the CORS layer.
				return true
			},
		},
		logger: logger,
	}
}

// HandleConnection upgrades the request and starts the read/write pumps.
// The caller resolves userID through the auth middleware beforehand.
func (m *Manager) HandleConnection(w http.ResponseWriter, r *http.Request, userID uuid.UUID) error {
	conn, err := m.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	c := &Connection{
		ID:     uuid.New(),
		UserID: userID,
		conn:   conn,
		send:   make(chan Message, sendBuffer),
	}

	m.mu.Lock()
	m.connections[c] = true
	m.mu.Unlock()
	m.logger.Debug("websocket connected",
		zap.String("connection_id", c.ID.String()),
		zap.String("user_id", userID.String()))

	go m.writePump(c)
	go m.readPump(c)
	return nil
}

// SendToUser delivers a frame to every open connection of the user.
// Connections with a full buffer are dropped.
func (m *Manager) SendToUser(userID uuid.UUID, msg Message) {
	m.mu.RLock()
	var stale []*Connection
	for c := range m.connections {
		if c.UserID != userID {
			continue
		}
		select {
		case c.send <- msg:
		default:
			stale = append(stale, c)
		}
	}
	m.mu.RUnlock()

	for _, c := range stale {
		m.remove(c)
	}
}

// Broadcast delivers a frame to every connected client.
func (m *Manager) Broadcast(msg Message) {
	m.mu.RLock()
	var stale []*Connection
	for c := range m.connections {
		select {
		case c.send <- msg:
		default:
			stale = append(stale, c)
		}
	}
	m.mu.RUnlock()

	for _, c := range stale {
		m.remove(c)
	}
}

func (m *Manager) ConnectionCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.connections)
}

func (m *Manager) Close() {
	m.mu.Lock()
	for c := range m.connections {
		c.conn.Close()
		close(c.send)
		delete(m.connections, c)
	}
	m.mu.Unlock()
}

func (m *Manager) remove(c *Connection) {
	m.mu.Lock()
	if _, ok := m.connections[c]; ok {
		delete(m.connections, c)
		close(c.send)
		c.conn.Close()
	}
	m.mu.Unlock()
}

func (m *Manager) readPump(c *Connection) {
	defer m.remove(c)

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	// Clients only consume; inbound frames are drained for pong handling.
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				m.logger.Debug("websocket read error", zap.Error(err))
			}
			return
		}
	}
}

func (m *Manager) writePump(c *Connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
