package room

import (
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/holdem-engine/internal/engine"
	"github.com/lox/holdem-engine/internal/events"
	"github.com/lox/holdem-engine/internal/store"
)

// Registry tracks running Rooms keyed by room id.
type Registry struct {
	logger *log.Logger
	clock  quartz.Clock

	mu    sync.RWMutex
	rooms map[string]*Room
}

// NewRegistry constructs an empty Registry. clock is threaded through
// to every Engine it creates; production callers pass
// quartz.NewReal().
func NewRegistry(logger *log.Logger, clock quartz.Clock) *Registry {
	if logger == nil {
		logger = log.Default()
	}
	return &Registry{
		logger: logger,
		clock:  clock,
		rooms:  make(map[string]*Room),
	}
}

// CreateRoom constructs a new Engine for roomID/gameID and starts its
// actor goroutine, registering it under roomID. It errors if roomID
// is already registered or the seat list is invalid.
func (reg *Registry) CreateRoom(roomID, gameID string, seats []engine.Seat, broadcaster events.Broadcaster, st store.Store) (*Room, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if _, exists := reg.rooms[roomID]; exists {
		return nil, fmt.Errorf("room: %s already registered", roomID)
	}

	e, err := engine.New(roomID, gameID, seats, broadcaster, st, reg.clock, reg.logger.WithPrefix("engine"))
	if err != nil {
		return nil, fmt.Errorf("room: construct engine: %w", err)
	}

	r := newRoom(roomID, e, reg.logger)
	reg.rooms[roomID] = r
	return r, nil
}

// Get returns the room registered under roomID, if any.
func (reg *Registry) Get(roomID string) (*Room, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	r, ok := reg.rooms[roomID]
	return r, ok
}

// Remove shuts down and unregisters roomID's room, if present.
func (reg *Registry) Remove(roomID string) {
	reg.mu.Lock()
	r, ok := reg.rooms[roomID]
	if ok {
		delete(reg.rooms, roomID)
	}
	reg.mu.Unlock()

	if ok {
		r.Shutdown()
	}
}

// List returns the ids of every currently registered room.
func (reg *Registry) List() []string {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	ids := make([]string, 0, len(reg.rooms))
	for id := range reg.rooms {
		ids = append(ids, id)
	}
	return ids
}

// ShutdownAll stops every registered room's actor goroutine.
func (reg *Registry) ShutdownAll() {
	reg.mu.Lock()
	rooms := make([]*Room, 0, len(reg.rooms))
	for id, r := range reg.rooms {
		rooms = append(rooms, r)
		delete(reg.rooms, id)
	}
	reg.mu.Unlock()

	for _, r := range rooms {
		r.Shutdown()
	}
}
