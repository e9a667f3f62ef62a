// Package room serializes access to one Engine per room through a
// single actor goroutine and inbound command channel: a map of running
// Engine actors keyed by room id, each owning its own goroutine.
package room

import (
	"time"

	"github.com/charmbracelet/log"

	"github.com/lox/holdem-engine/internal/engine"
)

// interHandPause is the pause between a hand completing and the next
// StartHand being scheduled. Chosen to give clients time to render the
// prior hand's showdown before the next deal.
const interHandPause = 3 * time.Second

type command struct {
	kind     commandKind
	userID   string
	action   engine.Action
	reply    chan error
	snapshot chan engine.Snapshot
}

type commandKind int

const (
	cmdStartHand commandKind = iota
	cmdSubmitAction
	cmdSnapshot
	cmdShutdown
)

// Room owns one Engine and the single goroutine that is ever allowed
// to call its methods, so concurrent SubmitAction calls from many
// socket handlers serialize into the Engine's actual call order.
type Room struct {
	id     string
	engine *engine.Engine
	logger *log.Logger

	inbox chan command
	done  chan struct{}
}

func newRoom(id string, e *engine.Engine, logger *log.Logger) *Room {
	r := &Room{
		id:     id,
		engine: e,
		logger: logger.WithPrefix("room").With("room_id", id),
		inbox:  make(chan command, 64),
		done:   make(chan struct{}),
	}
	e.HandCompleteHook = r.scheduleNextHand
	go r.run()
	return r
}

func (r *Room) run() {
	defer close(r.done)
	for cmd := range r.inbox {
		switch cmd.kind {
		case cmdStartHand:
			cmd.reply <- r.engine.StartHand()
		case cmdSubmitAction:
			cmd.reply <- r.engine.SubmitAction(cmd.userID, cmd.action)
		case cmdSnapshot:
			cmd.snapshot <- r.engine.Snapshot(cmd.userID)
		case cmdShutdown:
			r.engine.Shutdown()
			return
		}
	}
}

// scheduleNextHand is the Engine's HandCompleteHook: it enqueues a
// StartHand command after interHandPause. Errors from the scheduled
// StartHand (e.g. too few live players) are logged; the room simply
// stays idle.
func (r *Room) scheduleNextHand() {
	time.AfterFunc(interHandPause, func() {
		reply := make(chan error, 1)
		select {
		case r.inbox <- command{kind: cmdStartHand, reply: reply}:
		case <-r.done:
			return
		}
		if err := <-reply; err != nil {
			r.logger.Debug("scheduled StartHand did not run", "error", err)
		}
	})
}

// StartHand enqueues a StartHand command and waits for it to run.
func (r *Room) StartHand() error {
	reply := make(chan error, 1)
	r.inbox <- command{kind: cmdStartHand, reply: reply}
	return <-reply
}

// SubmitAction enqueues a player action and waits for it to run.
func (r *Room) SubmitAction(userID string, action engine.Action) error {
	reply := make(chan error, 1)
	r.inbox <- command{kind: cmdSubmitAction, userID: userID, action: action, reply: reply}
	return <-reply
}

// Snapshot enqueues a read of the current game state.
func (r *Room) Snapshot(userID string) engine.Snapshot {
	snap := make(chan engine.Snapshot, 1)
	r.inbox <- command{kind: cmdSnapshot, userID: userID, snapshot: snap}
	return <-snap
}

// ID returns the room identifier.
func (r *Room) ID() string {
	return r.id
}

// Shutdown stops the actor goroutine and disarms the Engine's timer.
// It does not wait for in-flight commands beyond the shutdown signal
// itself.
func (r *Room) Shutdown() {
	select {
	case r.inbox <- command{kind: cmdShutdown}:
	case <-r.done:
	}
	<-r.done
}
