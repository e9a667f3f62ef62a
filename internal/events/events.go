// Package events defines the tagged-union event contract the Engine
// emits and the Broadcaster interface it depends on: an exhaustive set
// of typed structs, each naming its own stable wire type, rather than
// a string-keyed interface{} payload.
package events

import "github.com/lox/holdem-engine/internal/card"

// Event is implemented by every room-scoped or per-user event the
// Engine emits. EventType returns the stable wire name used by
// clients to dispatch on.
type Event interface {
	EventType() string
}

// Broadcaster is the fan-out contract the Engine depends on (spec
// §4.6). Broadcast reaches every connected client of the room;
// SendPrivate reaches only sockets identified with userID. Both must
// be safe for concurrent use and deliver in the Engine's emission
// order per recipient.
type Broadcaster interface {
	Broadcast(roomID string, event Event)
	SendPrivate(roomID, userID string, event Event)
}

// HandStarted announces the start of a new hand.
type HandStarted struct {
	HandNumber int
	DealerPos  int
	SBPos      int
	BBPos      int
	Pot        int
}

func (HandStarted) EventType() string { return "HandStarted" }

// PotUpdated announces a change in the total pot.
type PotUpdated struct {
	Pot int
}

func (PotUpdated) EventType() string { return "PotUpdated" }

// ActionPerformed announces a completed player action.
type ActionPerformed struct {
	UserID     string
	Action     string
	Amount     int
	Pot        int
	CurrentBet int
}

func (ActionPerformed) EventType() string { return "ActionPerformed" }

// StreetAdvanced announces a new community-card street.
type StreetAdvanced struct {
	Street string
	Board  []card.Card
	Pot    int
}

func (StreetAdvanced) EventType() string { return "StreetAdvanced" }

// TurnStarted announces whose turn it is and the legal call/raise
// context.
type TurnStarted struct {
	UserID        string
	Position      int
	TimeRemaining int
	CurrentBet    int
	MinRaise      int
	CallAmount    int
}

func (TurnStarted) EventType() string { return "TurnStarted" }

// TurnTick announces the per-second countdown.
type TurnTick struct {
	TimeRemaining int
}

func (TurnTick) EventType() string { return "TurnTick" }

// WinnerInfo is one winner's share of a completed hand.
type WinnerInfo struct {
	UserID       string
	AmountWon    int
	HandRankName string
	HoleCards    []card.Card // nil for fold-outs
}

// WinnerDetermined announces a hand's outcome.
type WinnerDetermined struct {
	Winners []WinnerInfo
	Pot     int
	Board   []card.Card
}

func (WinnerDetermined) EventType() string { return "WinnerDetermined" }

// PlayerStackInfo is one player's stack as of a StacksUpdated event.
type PlayerStackInfo struct {
	UserID     string
	Stack      int
	Eliminated bool
}

// StacksUpdated announces stacks after a hand completes.
type StacksUpdated struct {
	Players []PlayerStackInfo
}

func (StacksUpdated) EventType() string { return "StacksUpdated" }

// PositionsUpdated announces the dealer/blind rotation.
type PositionsUpdated struct {
	DealerPos int
	SBPos     int
	BBPos     int
}

func (PositionsUpdated) EventType() string { return "PositionsUpdated" }

// GameEndedWinner is the last player standing, if any.
type GameEndedWinner struct {
	UserID string
	Stack  int
}

// GameEnded announces the room has no further hands to play.
type GameEnded struct {
	Winner *GameEndedWinner
}

func (GameEnded) EventType() string { return "GameEnded" }

// GameErrorEvent carries a room-fatal or player-facing error. Kind
// matches one of the engine's stable error kind identifiers.
type GameErrorEvent struct {
	Message string
	Kind    string
}

func (GameErrorEvent) EventType() string { return "GameError" }

// HoleCardsDealt is delivered privately to the owning player only.
type HoleCardsDealt struct {
	HoleCards []card.Card
}

func (HoleCardsDealt) EventType() string { return "HoleCardsDealt" }
