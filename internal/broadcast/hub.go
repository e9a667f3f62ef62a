// Package broadcast implements events.Broadcaster over WebSocket
// connections: a Hub keyed by room then by user, since each room runs
// its own independent Engine rather than sharing one table registry.
package broadcast

import (
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/lox/holdem-engine/internal/events"
)

// Hub fans events out to WebSocket clients grouped by room. It
// implements events.Broadcaster. A user may hold more than one live
// connection in the same room at once (multiple tabs/devices); all of
// them receive every event addressed to that user.
type Hub struct {
	logger   *log.Logger
	upgrader websocket.Upgrader

	mu    sync.RWMutex
	rooms map[string]map[string]map[*client]struct{} // roomID -> userID -> connection set
}

// NewHub constructs an empty Hub. checkOrigin is passed through to
// the underlying websocket.Upgrader; pass nil to accept any origin.
func NewHub(logger *log.Logger, checkOrigin func(*http.Request) bool) *Hub {
	if logger == nil {
		logger = log.Default()
	}
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}
	return &Hub{
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     checkOrigin,
		},
		rooms: make(map[string]map[string]map[*client]struct{}),
	}
}

// Upgrade promotes an HTTP connection to a WebSocket and adds it to
// userID's connection set in roomID, starting its read/write pumps.
// A second (or third) connection for the same userID does not evict
// the earlier ones — all of them receive subsequent events until each
// closes or is explicitly unregistered.
func (h *Hub) Upgrade(w http.ResponseWriter, r *http.Request, roomID, userID string) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	c := newClient(conn, h.logger)
	c.onClose = func() { h.removeClient(roomID, userID, c) }

	h.mu.Lock()
	room, ok := h.rooms[roomID]
	if !ok {
		room = make(map[string]map[*client]struct{})
		h.rooms[roomID] = room
	}
	conns, ok := room[userID]
	if !ok {
		conns = make(map[*client]struct{})
		room[userID] = conns
	}
	conns[c] = struct{}{}
	h.mu.Unlock()

	c.start()
	return nil
}

// removeClient drops c from userID's connection set in roomID,
// pruning now-empty maps. Called once per client, either from
// Unregister or from the client's own onClose when its connection
// dies on its own (read error, full send buffer).
func (h *Hub) removeClient(roomID, userID string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[roomID]
	if !ok {
		return
	}
	conns, ok := room[userID]
	if !ok {
		return
	}
	delete(conns, c)
	if len(conns) == 0 {
		delete(room, userID)
	}
	if len(room) == 0 {
		delete(h.rooms, roomID)
	}
}

// Unregister closes and removes every connection userID holds in
// roomID, if any.
func (h *Hub) Unregister(roomID, userID string) {
	h.mu.RLock()
	conns := h.rooms[roomID][userID]
	clients := make([]*client, 0, len(conns))
	for c := range conns {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		_ = c.Close() // triggers onClose -> removeClient
	}
}

// Broadcast delivers event to every connection registered in roomID,
// across all of that room's users and all of their concurrent
// connections.
func (h *Hub) Broadcast(roomID string, event events.Event) {
	env, err := newEnvelope(event.EventType(), event)
	if err != nil {
		h.logger.Error("marshal broadcast event", "type", event.EventType(), "error", err)
		return
	}

	h.mu.RLock()
	var clients []*client
	for _, conns := range h.rooms[roomID] {
		for c := range conns {
			clients = append(clients, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.enqueue(env)
	}
}

// SendPrivate delivers event to every connection userID holds in
// roomID, if any.
func (h *Hub) SendPrivate(roomID, userID string, event events.Event) {
	env, err := newEnvelope(event.EventType(), event)
	if err != nil {
		h.logger.Error("marshal private event", "type", event.EventType(), "error", err)
		return
	}

	h.mu.RLock()
	conns := h.rooms[roomID][userID]
	clients := make([]*client, 0, len(conns))
	for c := range conns {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.enqueue(env)
	}
}

var _ events.Broadcaster = (*Hub)(nil)
