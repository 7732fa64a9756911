// Package feed broadcasts session events to UI clients over websocket: item
// highlights, transcripts, session state and speaking changes. Clients are
// read-only; slow clients are dropped rather than allowed to stall the
// conversation.
package feed

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// EventKind names one broadcast event type.
type EventKind string

const (
	KindHighlight    EventKind = "highlight"
	KindTranscript   EventKind = "transcript"
	KindSessionState EventKind = "session_state"
	KindSpeaking     EventKind = "speaking"
)

// Event is one UI-bound message.
type Event struct {
	Kind EventKind `json:"kind"`
	Time time.Time `json:"time"`

	// ItemID is set for highlight events.
	ItemID string `json:"item_id,omitempty"`
	// Role and Text are set for transcript events.
	Role string `json:"role,omitempty"`
	Text string `json:"text,omitempty"`
	// State is set for session-state events.
	State string `json:"state,omitempty"`
	// Speaking is set for speaking events.
	Speaking bool `json:"speaking,omitempty"`
}

const clientBuffer = 32

// Hub fans events out to connected websocket clients.
type Hub struct {
	logger   *slog.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// NewHub creates an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		logger:  logger,
		clients: make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			// The UI runs on a different local port.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// ServeHTTP upgrades the request and streams events until the client leaves.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("feed: upgrade failed", "error", err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, clientBuffer)}
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.logger.Info("feed: client connected", "clients", n)

	go h.writeLoop(c)

	// Drain (and ignore) client frames so pings are answered and closes
	// are noticed.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.drop(c)
}

func (h *Hub) writeLoop(c *client) {
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			h.drop(c)
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	c.conn.Close()
}

func (h *Hub) drop(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	if ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
	if ok {
		c.conn.Close()
	}
}

// Publish sends one event to every connected client. Clients whose buffers
// are full are disconnected.
func (h *Hub) Publish(ev *Event) {
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}
	data, err := json.Marshal(ev)
	if err != nil {
		h.logger.Error("feed: marshal event", "error", err)
		return
	}

	h.mu.Lock()
	var stalled []*client
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			stalled = append(stalled, c)
		}
	}
	h.mu.Unlock()

	for _, c := range stalled {
		h.logger.Warn("feed: dropping stalled client")
		h.drop(c)
	}
}

// Highlight publishes a highlight event for one item.
func (h *Hub) Highlight(itemID string) {
	h.Publish(&Event{Kind: KindHighlight, ItemID: itemID})
}

// Transcript publishes one transcript fragment.
func (h *Hub) Transcript(role, text string) {
	h.Publish(&Event{Kind: KindTranscript, Role: role, Text: text})
}

// SessionState publishes a session state change.
func (h *Hub) SessionState(state string) {
	h.Publish(&Event{Kind: KindSessionState, State: state})
}

// Speaking publishes a speaking change.
func (h *Hub) Speaking(speaking bool) {
	h.Publish(&Event{Kind: KindSpeaking, Speaking: speaking})
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client. The hub cannot be reused.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
	for _, c := range clients {
		c.conn.Close()
	}
}
