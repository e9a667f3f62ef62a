package engine

import "github.com/lox/holdem-engine/internal/card"

// PlayerSnapshot is one player's read-only state as exposed to a
// reconnecting client; HoleCards is populated only for the requesting
// user.
type PlayerSnapshot struct {
	UserID               string
	Username             string
	Position             int
	Stack                int
	CommittedThisStreet  int
	CommittedThisHand    int
	HoleCards            []card.Card
	Folded               bool
	AllIn                bool
	Eliminated           bool
}

// Snapshot is a read-only view of the current HandState and every
// player's state, used to bring a reconnecting client fully current
// without relying on replayed events.
type Snapshot struct {
	HandNumber int
	DealerPos  int
	SBPos      int
	BBPos      int
	ToActPos   int
	Street     string
	Board      []card.Card
	Pot        int
	CurrentBet int
	MinRaise   int
	Players    []PlayerSnapshot
}

// Snapshot returns the current game state, with hole cards filtered
// to requestingUserID: only that user's own hole cards are included;
// every other player's are omitted.
func (e *Engine) Snapshot(requestingUserID string) Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	snap := Snapshot{
		DealerPos: e.dealerPos,
		SBPos:     e.sbPos,
		BBPos:     e.bbPos,
	}
	if e.hand != nil {
		snap.HandNumber = e.hand.HandNumber
		snap.ToActPos = e.hand.ToActPos
		snap.Street = e.hand.Street.String()
		snap.Board = append([]card.Card{}, e.hand.Board...)
		snap.Pot = e.hand.Pot
		snap.CurrentBet = e.hand.CurrentBet
		snap.MinRaise = e.hand.MinRaise
	}

	snap.Players = make([]PlayerSnapshot, 0, len(e.seatOrder))
	for _, pos := range e.seatOrder {
		p := e.players[pos]
		ps := PlayerSnapshot{
			UserID:              p.UserID,
			Username:            p.Username,
			Position:            p.Position,
			Stack:               p.Stack,
			CommittedThisStreet: p.CommittedThisStreet,
			CommittedThisHand:   p.CommittedThisHand,
			Folded:              p.Folded,
			AllIn:               p.AllIn,
			Eliminated:          p.Eliminated,
		}
		if p.UserID == requestingUserID {
			ps.HoleCards = append([]card.Card{}, p.HoleCards...)
		}
		snap.Players = append(snap.Players, ps)
	}
	return snap
}
