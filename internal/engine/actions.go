package engine

import (
	"context"

	"github.com/lox/holdem-engine/internal/events"
	"github.com/lox/holdem-engine/internal/store"
)

// SubmitAction processes one player's action. It fails
// with a typed *Error if the engine is not mid-hand, if userID is not
// the acting seat, if the player cannot act, or if the action itself
// is illegal; client-facing failures are also delivered as a private
// GameError to userID and never mutate state.
func (e *Engine) SubmitAction(userID string, action Action) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.submitActionLocked(userID, action)
}

func (e *Engine) submitActionLocked(userID string, action Action) error {
	if e.state != lifecycleInHand || e.hand == nil {
		return e.failLocked(userID, KindNotInHand, "no hand in progress")
	}

	pos, ok := e.userPosition[userID]
	if !ok {
		return e.failLocked(userID, KindBadInput, "unknown user")
	}
	if pos != e.hand.ToActPos {
		return e.failLocked(userID, KindNotYourTurn, "it is not your turn")
	}
	p := e.players[pos]
	if p.Folded || p.AllIn || p.Eliminated {
		return e.failLocked(userID, KindNotInHand, "player cannot act")
	}

	hand := e.hand
	var actionType string
	var amount int

	switch action.Type {
	case ActionFold:
		p.Folded = true
		p.HasActedThisStreet = true
		actionType = "fold"

	case ActionCheck:
		if p.CommittedThisStreet != hand.CurrentBet {
			return e.failLocked(userID, KindIllegalAction, "cannot check facing a bet")
		}
		p.HasActedThisStreet = true
		actionType = "check"

	case ActionCall:
		if hand.CurrentBet <= p.CommittedThisStreet {
			return e.failLocked(userID, KindIllegalAction, "nothing to call")
		}
		toCall := hand.CurrentBet - p.CommittedThisStreet
		if toCall > p.Stack {
			toCall = p.Stack
		}
		e.commit(hand, p, toCall)
		p.HasActedThisStreet = true
		actionType = "call"
		amount = toCall

	case ActionRaise:
		if hand.RaiseClosedFor[pos] {
			return e.failLocked(userID, KindIllegalAction, "a short all-in already acted on; raising is closed until a full raise reopens it")
		}
		to := action.Amount
		if to < hand.CurrentBet+hand.MinRaise {
			return e.failLocked(userID, KindIllegalAction, "raise below minimum")
		}
		needed := to - p.CommittedThisStreet
		if needed > p.Stack {
			return e.failLocked(userID, KindInsufficientChips, "insufficient chips to raise to that amount")
		}
		prevCurrentBet := hand.CurrentBet
		e.commit(hand, p, needed)
		hand.CurrentBet = to
		hand.MinRaise = to - prevCurrentBet
		hand.LastAggressorPos = pos
		p.HasActedThisStreet = true
		e.reopenActionExcept(pos)
		actionType = "raise"
		amount = needed

	case ActionAllIn:
		if p.Stack == 0 {
			return e.failLocked(userID, KindIllegalAction, "no chips to go all in with")
		}
		prevCurrentBet := hand.CurrentBet
		allInAmount := p.Stack
		committedAfter := p.CommittedThisStreet + allInAmount
		e.commit(hand, p, allInAmount)
		p.HasActedThisStreet = true
		if committedAfter > hand.CurrentBet {
			increment := committedAfter - prevCurrentBet
			hand.CurrentBet = committedAfter
			if increment >= hand.MinRaise {
				hand.MinRaise = increment
				hand.LastAggressorPos = pos
				e.reopenActionExcept(pos)
			} else {
				// Short all-in: players who have already acted this
				// street keep their HasActedThisStreet flag (so the
				// round can still close), but must not regain the
				// right to raise until a full raise comes along.
				for _, otherPos := range e.liveSeatOrder() {
					other := e.players[otherPos]
					if otherPos != pos && !other.Folded && !other.AllIn && other.HasActedThisStreet {
						hand.RaiseClosedFor[otherPos] = true
					}
				}
			}
		}
		actionType = "all_in"
		amount = allInAmount

	default:
		return e.failLocked(userID, KindBadInput, "unknown action type")
	}

	e.timer.Disarm()

	ctx, cancel := store.WithDefaultTimeout(context.Background())
	defer cancel()
	if err := e.store.InsertAction(ctx, hand.HandID, userID, actionType, amount, hand.Street.String()); err != nil {
		return e.fatalLocked(KindStorageFailure, "insert action: "+err.Error())
	}

	e.broadcaster.Broadcast(e.roomID, events.ActionPerformed{
		UserID:     userID,
		Action:     actionType,
		Amount:     amount,
		Pot:        hand.Pot,
		CurrentBet: hand.CurrentBet,
	})
	e.broadcaster.Broadcast(e.roomID, events.PotUpdated{Pot: hand.Pot})

	e.advance()
	return nil
}

func (e *Engine) commit(hand *HandState, p *PlayerState, amount int) {
	p.Stack -= amount
	p.CommittedThisStreet += amount
	p.CommittedThisHand += amount
	hand.Pot += amount
	if p.Stack == 0 {
		p.AllIn = true
	}
}

// reopenActionExcept resets HasActedThisStreet for every other
// non-folded, non-all-in player following a full raise or full all-in
// raise, and clears any raise-barring left over from an earlier short
// all-in this street, since a full raise fully reopens the action.
func (e *Engine) reopenActionExcept(pos int) {
	for _, otherPos := range e.liveSeatOrder() {
		if otherPos == pos {
			continue
		}
		other := e.players[otherPos]
		if !other.Folded && !other.AllIn {
			other.HasActedThisStreet = false
		}
	}
	e.hand.RaiseClosedFor = make(map[int]bool)
}

func (e *Engine) failLocked(userID string, kind ErrorKind, msg string) error {
	err := newError(kind, msg)
	e.broadcaster.SendPrivate(e.roomID, userID, events.GameErrorEvent{Message: msg, Kind: string(kind)})
	return err
}
