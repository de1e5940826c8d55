package websocket

import (
	"encoding/json"
	"sync"
)

// Hub tracks the open push connections of every session.
type Hub struct {
	clients      map[string]*Client
	sessionConns map[string]map[*Client]bool
	register     chan *Client
	unregister   chan *Client
	mu           sync.RWMutex
}

type Message struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// ClientMessage is sent by a mounted view. Roots name the result sets the
// view displays, e.g. ["friendships", "user-search"].
type ClientMessage struct {
	Action string   `json:"action"`
	View   string   `json:"view,omitempty"`
	Roots  []string `json:"roots,omitempty"`
}

func NewHub() *Hub {
	return &Hub{
		clients:      make(map[string]*Client),
		sessionConns: make(map[string]map[*Client]bool),
		register:     make(chan *Client),
		unregister:   make(chan *Client),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			if h.sessionConns[client.SessionID] == nil {
				h.sessionConns[client.SessionID] = make(map[*Client]bool)
			}
			h.sessionConns[client.SessionID][client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.ID]; ok {
				delete(h.clients, client.ID)
				if h.sessionConns[client.SessionID] != nil {
					delete(h.sessionConns[client.SessionID], client)
					if len(h.sessionConns[client.SessionID]) == 0 {
						delete(h.sessionConns, client.SessionID)
					}
				}
				client.unmountAll()
				client.close()
			}
			h.mu.Unlock()
		}
	}
}

// SendToSession pushes msg to every connection of a session. Slow
// connections miss the message rather than block the sender.
func (h *Hub) SendToSession(sessionID string, msg *Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.sessionConns[sessionID] {
		client.send(data)
	}
}

func (h *Hub) Connected(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessionConns[sessionID])
}
