package websocket

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"inkline/middleware"
	"inkline/querycache"
	"inkline/session"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024
)

type Client struct {
	ID        string
	SessionID string
	Hub       *Hub
	Conn      *websocket.Conn
	Send      chan []byte

	cache *querycache.Coordinator
	// mu guards mounts and closed; Send is only written or closed under it.
	mu     sync.Mutex
	mounts map[string]func()
	closed bool
}

func newClient(hub *Hub, s *session.Session, conn *websocket.Conn) *Client {
	return &Client{
		ID:        uuid.New().String(),
		SessionID: s.ID,
		Hub:       hub,
		Conn:      conn,
		Send:      make(chan []byte, 64),
		cache:     s.Cache(),
		mounts:    make(map[string]func()),
	}
}

func (c *Client) ReadPump() {
	defer func() {
		c.Hub.unregister <- c
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Warn("websocket read", "session", c.SessionID, "error", err)
			}
			break
		}

		c.handleMessage(message)
	}
}

func (c *Client) WritePump() {
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

func (c *Client) handleMessage(message []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		return
	}

	switch msg.Action {
	case "ping":
		c.push(&Message{Event: "pong"})
	case "mount":
		c.mount(msg.View, msg.Roots)
		c.push(&Message{Event: "mounted", Data: gin.H{"view": msg.View}})
	case "unmount":
		c.unmount(msg.View)
	}
}

// mount subscribes a view to invalidations of the given roots. Mounting a
// view again replaces its roots.
func (c *Client) mount(view string, roots []string) {
	if view == "" || len(roots) == 0 {
		return
	}
	cancel := c.cache.Subscribe(querycache.Roots(roots...), func(k querycache.Key) {
		c.push(&Message{Event: "invalidate", Data: gin.H{"view": view, "key": k.String(), "root": k.Root()}})
	})

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		cancel()
		return
	}
	prev := c.mounts[view]
	c.mounts[view] = cancel
	c.mu.Unlock()
	if prev != nil {
		prev()
	}
}

func (c *Client) unmount(view string) {
	c.mu.Lock()
	cancel := c.mounts[view]
	delete(c.mounts, view)
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// unmountAll drops every subscription; a closed connection gets no further
// events.
func (c *Client) unmountAll() {
	c.mu.Lock()
	mounts := c.mounts
	c.mounts = make(map[string]func())
	c.mu.Unlock()
	for _, cancel := range mounts {
		cancel()
	}
}

// push never blocks the invalidating goroutine.
func (c *Client) push(msg *Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	c.send(data)
}

// send queues data unless the client is closed; a full queue drops it.
func (c *Client) send(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.Send <- data:
		return true
	default:
		return false
	}
}

// close ends the write pump. Later pushes are dropped.
func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.Send)
}

type Handler struct {
	hub      *Hub
	upgrader websocket.Upgrader
}

func NewHandler(hub *Hub, allowedOrigins []string) *Handler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return &Handler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowed[origin] || allowed["*"]
			},
		},
	}
}

// Serve upgrades the request; the session comes from the session cookie.
func (h *Handler) Serve(c *gin.Context) {
	s := middleware.GetSession(c)

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Warn("websocket upgrade", "error", err)
		return
	}

	client := newClient(h.hub, s, conn)
	client.Hub.register <- client

	go client.WritePump()
	go client.ReadPump()
}
