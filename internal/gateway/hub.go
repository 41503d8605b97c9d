package gateway

import (
	"net/http"
	"sync"

	jwtutil "github.com/comy-dev/comy-server/pkg/jwt"
	"github.com/comy-dev/comy-server/pkg/logger"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type client struct {
	conn   *websocket.Conn
	userID string
	mu     sync.Mutex // serializes writes to the conn
}

func (c *client) send(payload interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(payload)
}

// Hub is the websocket implementation of Gateway. Clients authenticate
// with a session token, then join chat rooms they want pushes for.
type Hub struct {
	jwtSecret string

	mu    sync.Mutex
	rooms map[string]map[*client]bool
}

func NewHub(jwtSecret string) *Hub {
	return &Hub{
		jwtSecret: jwtSecret,
		rooms:     make(map[string]map[*client]bool),
	}
}

type inboundFrame struct {
	Type   string `json:"type"` // "join", "leave"
	ChatID string `json:"chat_id"`
}

// HandleWS upgrades the connection and serves join/leave frames until the
// client disconnects.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "Missing token", http.StatusUnauthorized)
		return
	}
	claims, err := jwtutil.ValidateToken(token, h.jwtSecret)
	if err != nil {
		logger.Log.Warnf("WebSocket auth failed: %v", err)
		http.Error(w, "Invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Warnf("WebSocket upgrade failed: %v", err)
		return
	}

	c := &client{conn: conn, userID: claims.UserID}
	logger.Log.Infof("WebSocket connected: %s", claims.UserID)

	defer func() {
		h.dropClient(c)
		conn.Close()
		logger.Log.Infof("WebSocket disconnected: %s", claims.UserID)
	}()

	for {
		var frame inboundFrame
		if err := conn.ReadJSON(&frame); err != nil {
			break // client went away
		}

		switch frame.Type {
		case "join":
			if frame.ChatID != "" {
				h.join(frame.ChatID, c)
			}
		case "leave":
			if frame.ChatID != "" {
				h.leave(frame.ChatID, c)
			}
		}
	}
}

func (h *Hub) join(chatID string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[chatID] == nil {
		h.rooms[chatID] = make(map[*client]bool)
	}
	h.rooms[chatID][c] = true
}

func (h *Hub) leave(chatID string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.rooms[chatID], c)
}

func (h *Hub) dropClient(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, room := range h.rooms {
		delete(room, c)
	}
}

// Emit broadcasts the payload to every client in the chat room. Write
// failures are logged and the connection is left for the read loop to
// reap; the push is never retried.
func (h *Hub) Emit(chatID string, payload interface{}) {
	h.mu.Lock()
	clients := make([]*client, 0, len(h.rooms[chatID]))
	for c := range h.rooms[chatID] {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		if err := c.send(payload); err != nil {
			logger.Log.Warnf("WebSocket push to %s failed: %v", c.userID, err)
		}
	}
}

// EmitBulk pushes a batch of payloads, one room at a time.
func (h *Hub) EmitBulk(batch []Outbound) {
	for _, out := range batch {
		h.Emit(out.ChatID, out.Payload)
	}
}
