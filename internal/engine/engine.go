package engine

import (
	"fmt"
	"sort"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/holdem-engine/internal/events"
	"github.com/lox/holdem-engine/internal/store"
	"github.com/lox/holdem-engine/internal/timer"
)

// Engine drives a single room's Texas Hold'em game: one instance per
// active room, owning all game state exclusively during a hand. It is
// not safe to share across goroutines except through its own methods,
// which serialize internally.
type Engine struct {
	roomID string
	gameID string

	logger      *log.Logger
	broadcaster events.Broadcaster
	store       store.Store
	timer       *timer.Timer

	// HandCompleteHook, if set, is invoked after HandComplete finishes
	// rotating and emitting events, while the Engine is idle (or
	// ended). The room layer uses it to schedule the next StartHand
	// after a short inter-hand pause; the Engine itself has no run
	// loop to own that pause.
	HandCompleteHook func()

	mu sync.Mutex

	players      map[int]*PlayerState
	userPosition map[string]int
	seatOrder    []int // sorted, fixed at construction

	dealerPos int
	sbPos     int
	bbPos     int

	handNumber int
	hand       *HandState
	state      lifecycleState
}

// New constructs an idle Engine for roomID/gameID with the given
// seats. Every seat starts with the full starting stack. clock drives
// the per-turn timer; production callers pass
// quartz.NewReal(), tests pass quartz.NewMock(t).
func New(roomID, gameID string, seats []Seat, broadcaster events.Broadcaster, st store.Store, clock quartz.Clock, logger *log.Logger) (*Engine, error) {
	if len(seats) < MinSeats {
		return nil, fmt.Errorf("engine: need at least %d seats, got %d", MinSeats, len(seats))
	}
	if len(seats) > MaxSeats {
		return nil, fmt.Errorf("engine: at most %d seats, got %d", MaxSeats, len(seats))
	}
	if logger == nil {
		logger = log.Default()
	}

	players := make(map[int]*PlayerState, len(seats))
	userPosition := make(map[string]int, len(seats))
	seatOrder := make([]int, 0, len(seats))
	for _, s := range seats {
		if _, exists := players[s.Position]; exists {
			return nil, fmt.Errorf("engine: duplicate seat position %d", s.Position)
		}
		players[s.Position] = &PlayerState{
			UserID:   s.UserID,
			Username: s.Username,
			Position: s.Position,
			Stack:    StartingStack,
		}
		userPosition[s.UserID] = s.Position
		seatOrder = append(seatOrder, s.Position)
	}
	sort.Ints(seatOrder)

	dealerPos := seatOrder[0]
	sbPos, bbPos := initialBlindPositions(seatOrder, dealerPos)

	return &Engine{
		roomID:       roomID,
		gameID:       gameID,
		logger:       logger,
		broadcaster:  broadcaster,
		store:        st,
		timer:        timer.New(clock),
		players:      players,
		userPosition: userPosition,
		seatOrder:    seatOrder,
		dealerPos:    dealerPos,
		sbPos:        sbPos,
		bbPos:        bbPos,
		state:        lifecycleIdle,
	}, nil
}

func initialBlindPositions(liveOrder []int, dealerPos int) (sb, bb int) {
	if len(liveOrder) == 2 {
		return dealerPos, nextInOrder(liveOrder, dealerPos)
	}
	sb = nextInOrder(liveOrder, dealerPos)
	bb = nextInOrder(liveOrder, sb)
	return sb, bb
}

// nextInOrder returns the smallest element of order greater than
// from, wrapping to order's smallest element if from is the maximum
// or absent from order. order must be sorted ascending and
// non-empty.
func nextInOrder(order []int, from int) int {
	for _, p := range order {
		if p > from {
			return p
		}
	}
	return order[0]
}

func indexOf(order []int, v int) int {
	for i, p := range order {
		if p == v {
			return i
		}
	}
	return -1
}

// liveSeatOrder returns the positions of non-eliminated players,
// ascending; their sorted order defines clockwise order.
func (e *Engine) liveSeatOrder() []int {
	live := make([]int, 0, len(e.seatOrder))
	for _, pos := range e.seatOrder {
		if !e.players[pos].Eliminated {
			live = append(live, pos)
		}
	}
	return live
}

func (e *Engine) playerByUserID(userID string) *PlayerState {
	pos, ok := e.userPosition[userID]
	if !ok {
		return nil
	}
	return e.players[pos]
}

// RoomID returns the room this Engine serves.
func (e *Engine) RoomID() string {
	return e.roomID
}

// Shutdown disarms any running turn timer. Callers (the room layer)
// should call this when tearing down an Engine so its timer goroutine
// does not outlive it.
func (e *Engine) Shutdown() {
	e.timer.Disarm()
}
