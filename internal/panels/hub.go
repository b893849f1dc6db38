package panels

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeTimeout = 10 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Message is the outgoing WebSocket message format.
type Message struct {
	Type    string `json:"type"` // "html" or "deleted"
	PanelID string `json:"panel_id"`
	HTML    string `json:"html,omitempty"`
	Version uint64 `json:"version,omitempty"`
}

// Snapshot returns the current HTML of a panel and its version.
type Snapshot func() (html string, version uint64)

type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
	last uint64 // version of the last html message written
}

// send writes msg unless it is an html message no newer than one already
// written to this client.
func (c *client) send(msg Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if msg.Type == "html" {
		if msg.Version <= c.last {
			return nil
		}
		c.last = msg.Version
	}
	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteJSON(msg)
}

// Hub fans rendered HTML out to the browsers viewing each panel.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*client]struct{}
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[string]map[*client]struct{})}
}

// Broadcast sends version of a panel's html to every subscriber of panelID.
func (h *Hub) Broadcast(panelID, html string, version uint64) {
	h.publish(panelID, Message{Type: "html", PanelID: panelID, HTML: html, Version: version})
}

// Deleted tells subscribers the panel is gone and disconnects them.
func (h *Hub) Deleted(panelID string) {
	h.publish(panelID, Message{Type: "deleted", PanelID: panelID})

	h.mu.Lock()
	subs := h.clients[panelID]
	delete(h.clients, panelID)
	h.mu.Unlock()

	for c := range subs {
		c.conn.Close()
	}
}

// Count returns the number of subscribers of panelID.
func (h *Hub) Count(panelID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[panelID])
}

// Serve upgrades the request, sends the current HTML and keeps the socket
// subscribed until the client disconnects. The client is subscribed before
// current is read, so a change that lands in between is either broadcast to
// it or already part of the snapshot.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, panelID string, current Snapshot) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("panels: websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	c := &client{conn: conn}
	h.add(panelID, c)
	defer h.remove(panelID, c)

	html, version := current()
	if err := c.send(Message{Type: "html", PanelID: panelID, HTML: html, Version: version}); err != nil {
		log.Printf("panels: websocket write: %v", err)
		return
	}

	// Incoming messages are ignored; reading detects the disconnect.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("panels: websocket read: %v", err)
			}
			return
		}
	}
}

func (h *Hub) publish(panelID string, msg Message) {
	h.mu.RLock()
	subs := make([]*client, 0, len(h.clients[panelID]))
	for c := range h.clients[panelID] {
		subs = append(subs, c)
	}
	h.mu.RUnlock()

	for _, c := range subs {
		if err := c.send(msg); err != nil {
			log.Printf("panels: websocket write error: %v", err)
			c.conn.Close()
		}
	}
}

func (h *Hub) add(panelID string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[panelID] == nil {
		h.clients[panelID] = make(map[*client]struct{})
	}
	h.clients[panelID][c] = struct{}{}
}

func (h *Hub) remove(panelID string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients[panelID], c)
	if len(h.clients[panelID]) == 0 {
		delete(h.clients, panelID)
	}
}
