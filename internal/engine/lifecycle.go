package engine

import (
	"context"
	"strings"

	"github.com/lox/holdem-engine/internal/card"
	"github.com/lox/holdem-engine/internal/deck"
	"github.com/lox/holdem-engine/internal/events"
	"github.com/lox/holdem-engine/internal/evaluator"
	"github.com/lox/holdem-engine/internal/pot"
	"github.com/lox/holdem-engine/internal/store"
)

// StartHand begins a new hand. Preconditions: the Engine is idle and
// at least MinSeats non-eliminated players remain.
func (e *Engine) StartHand() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.startHandLocked()
}

func (e *Engine) startHandLocked() error {
	if e.state != lifecycleIdle {
		return newError(KindBadInput, "engine is not idle")
	}
	live := e.liveSeatOrder()
	if len(live) < MinSeats {
		return newError(KindBadInput, "not enough players to start a hand")
	}

	e.handNumber++
	for _, pos := range live {
		p := e.players[pos]
		p.Folded = false
		p.AllIn = false
		p.HasActedThisStreet = false
		p.CommittedThisStreet = 0
		p.CommittedThisHand = 0
		p.HoleCards = nil
	}

	d, err := deck.NewShuffled()
	if err != nil {
		return e.fatalLocked(KindDeckExhausted, "failed to shuffle a new deck: "+err.Error())
	}

	hand := &HandState{
		HandNumber:       e.handNumber,
		DealerPos:        e.dealerPos,
		SmallBlindPos:    e.sbPos,
		BigBlindPos:      e.bbPos,
		Street:           StreetPreflop,
		CurrentBet:       BigBlind,
		MinRaise:         BigBlind,
		LastAggressorPos: e.bbPos,
		Deck:             d,
		RaiseClosedFor:   make(map[int]bool),
	}
	e.hand = hand

	e.postBlind(hand, e.sbPos, SmallBlind)
	e.postBlind(hand, e.bbPos, BigBlind)

	// sbPos itself must be first to receive, so rotate starting just
	// before it.
	dealOrder := rotateStartingAfter(live, prevInOrder(live, e.sbPos))
	for round := 0; round < 2; round++ {
		for _, pos := range dealOrder {
			cards, err := hand.Deck.Deal(1)
			if err != nil {
				return e.fatalLocked(KindDeckExhausted, "deck exhausted dealing hole cards")
			}
			e.players[pos].HoleCards = append(e.players[pos].HoleCards, cards[0])
		}
	}

	ctx, cancel := store.WithDefaultTimeout(context.Background())
	defer cancel()
	handID, err := e.store.InsertHand(ctx, e.gameID, hand.HandNumber, hand.DealerPos, hand.SmallBlindPos, hand.BigBlindPos, hand.Street.String(), "", hand.Pot)
	if err != nil {
		return e.fatalLocked(KindStorageFailure, "insert hand: "+err.Error())
	}
	hand.HandID = handID
	for _, pos := range dealOrder {
		p := e.players[pos]
		if err := e.store.InsertHoleCards(ctx, handID, p.UserID, p.HoleCards[0].String(), p.HoleCards[1].String()); err != nil {
			return e.fatalLocked(KindStorageFailure, "insert hole cards: "+err.Error())
		}
	}

	hand.ToActPos = e.firstToAct(live, hand.BigBlindPos)

	e.state = lifecycleInHand

	e.broadcaster.Broadcast(e.roomID, events.HandStarted{
		HandNumber: hand.HandNumber,
		DealerPos:  hand.DealerPos,
		SBPos:      hand.SmallBlindPos,
		BBPos:      hand.BigBlindPos,
		Pot:        hand.Pot,
	})
	for _, pos := range dealOrder {
		p := e.players[pos]
		e.broadcaster.SendPrivate(e.roomID, p.UserID, events.HoleCardsDealt{HoleCards: append([]card.Card{}, p.HoleCards...)})
	}
	e.emitTurnStarted(hand.ToActPos)
	e.armTimer()

	return nil
}

func (e *Engine) postBlind(hand *HandState, pos, amount int) {
	p := e.players[pos]
	post := amount
	if post > p.Stack {
		post = p.Stack
	}
	p.Stack -= post
	p.CommittedThisStreet += post
	p.CommittedThisHand += post
	hand.Pot += post
	if p.Stack == 0 {
		p.AllIn = true
	}
}

// firstToAct picks the next eligible (non-folded, non-all-in) seat
// clockwise of from, per the same skip rule Advance uses. Used for
// StartHand's initial to-act seat so that a short-stacked blind that
// posted all-in is never handed a turn it cannot take.
func (e *Engine) firstToAct(live []int, from int) int {
	n := len(live)
	idx := indexOf(live, from)
	for i := 1; i <= n; i++ {
		cand := live[(idx+i)%n]
		p := e.players[cand]
		if !p.Folded && !p.AllIn {
			return cand
		}
	}
	return nextInOrder(live, from)
}

func prevInOrder(order []int, from int) int {
	for i := len(order) - 1; i >= 0; i-- {
		if order[i] < from {
			return order[i]
		}
	}
	return order[len(order)-1]
}

// rotateStartingAfter returns order's elements rotated so the first
// element is the one immediately clockwise of from.
func rotateStartingAfter(order []int, from int) []int {
	start := nextInOrder(order, from)
	idx := indexOf(order, start)
	out := make([]int, len(order))
	for i := range order {
		out[i] = order[(idx+i)%len(order)]
	}
	return out
}

func (e *Engine) emitTurnStarted(pos int) {
	p := e.players[pos]
	callAmount := e.hand.CurrentBet - p.CommittedThisStreet
	if callAmount < 0 {
		callAmount = 0
	}
	e.broadcaster.Broadcast(e.roomID, events.TurnStarted{
		UserID:        p.UserID,
		Position:      pos,
		TimeRemaining: TurnTimerSeconds,
		CurrentBet:    e.hand.CurrentBet,
		MinRaise:      e.hand.MinRaise,
		CallAmount:    callAmount,
	})
}

func (e *Engine) armTimer() {
	e.timer.Arm(TurnTimerSeconds,
		func(remaining int) {
			e.broadcaster.Broadcast(e.roomID, events.TurnTick{TimeRemaining: remaining})
		},
		func() {
			e.handleTimeout()
		},
	)
}

func (e *Engine) handleTimeout() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != lifecycleInHand || e.hand == nil {
		return
	}
	actingUserID := e.players[e.hand.ToActPos].UserID
	_ = e.submitActionLocked(actingUserID, Action{Type: ActionFold})
}

// advance runs after every action: fold-out short circuit, then
// round-complete check, then move to the next turn.
func (e *Engine) advance() {
	hand := e.hand

	nonFolded := 0
	for _, pos := range e.liveSeatOrder() {
		if !e.players[pos].Folded {
			nonFolded++
		}
	}
	if nonFolded <= 1 {
		e.handComplete()
		return
	}

	if e.roundComplete() {
		e.nextStreet()
		return
	}

	next := e.nextToAct(hand.ToActPos)
	hand.ToActPos = next
	e.emitTurnStarted(next)
	e.armTimer()
}

// roundComplete reports whether every live player has matched the
// current bet and acted, including the preflop big-blind option:
// since posting a blind does
// not set HasActedThisStreet, the predicate naturally stays false
// until the big blind has acted once action returns to them.
func (e *Engine) roundComplete() bool {
	for _, pos := range e.liveSeatOrder() {
		p := e.players[pos]
		if p.Folded || p.AllIn {
			continue
		}
		if !(p.HasActedThisStreet && p.CommittedThisStreet == e.hand.CurrentBet) {
			return false
		}
	}
	return true
}

// nextToAct returns the next seat clockwise of from that is neither
// folded nor all-in.
func (e *Engine) nextToAct(from int) int {
	live := e.liveSeatOrder()
	n := len(live)
	idx := indexOf(live, from)
	for i := 1; i <= n; i++ {
		cand := live[(idx+i)%n]
		p := e.players[cand]
		if !p.Folded && !p.AllIn {
			return cand
		}
	}
	return from
}

// nextStreet resets per-street state, deals community cards (no
// burn), and either starts the new street's betting or, if fewer than
// two remaining players can still bet, recurses straight through to
// the next street (or handComplete at the river).
func (e *Engine) nextStreet() {
	hand := e.hand

	for _, pos := range e.liveSeatOrder() {
		p := e.players[pos]
		if p.Folded {
			continue
		}
		p.CommittedThisStreet = 0
		p.HasActedThisStreet = p.AllIn
	}
	hand.CurrentBet = 0
	hand.MinRaise = BigBlind
	hand.LastAggressorPos = -1
	hand.RaiseClosedFor = make(map[int]bool)

	if hand.Street == StreetRiver {
		hand.Street = StreetShowdown
		e.handComplete()
		return
	}

	var dealCount int
	switch hand.Street {
	case StreetPreflop:
		hand.Street = StreetFlop
		dealCount = 3
	case StreetFlop:
		hand.Street = StreetTurn
		dealCount = 1
	case StreetTurn:
		hand.Street = StreetRiver
		dealCount = 1
	}

	cards, err := hand.Deck.Deal(dealCount)
	if err != nil {
		e.fatalLocked(KindDeckExhausted, "deck exhausted dealing "+hand.Street.String())
		return
	}
	hand.Board = append(hand.Board, cards...)

	ctx, cancel := store.WithDefaultTimeout(context.Background())
	defer cancel()
	if err := e.store.UpdateHandBoardStreetPot(ctx, hand.HandID, boardString(hand.Board), hand.Street.String(), hand.Pot); err != nil {
		e.fatalLocked(KindStorageFailure, "update board/street/pot: "+err.Error())
		return
	}
	e.broadcaster.Broadcast(e.roomID, events.StreetAdvanced{
		Street: hand.Street.String(),
		Board:  append([]card.Card{}, hand.Board...),
		Pot:    hand.Pot,
	})

	activeBettors := 0
	for _, pos := range e.liveSeatOrder() {
		p := e.players[pos]
		if !p.Folded && !p.AllIn {
			activeBettors++
		}
	}
	if activeBettors >= 2 {
		hand.ToActPos = e.firstToAct(e.liveSeatOrder(), hand.DealerPos)
		e.emitTurnStarted(hand.ToActPos)
		e.armTimer()
		return
	}

	// Fewer than two remaining players can still bet: no more betting
	// is possible. Run the board out.
	e.nextStreet()
}

func boardString(board []card.Card) string {
	parts := make([]string, len(board))
	for i, c := range board {
		parts[i] = c.String()
	}
	return strings.Join(parts, " ")
}

// handComplete resolves the finished hand: fold-out award or side-pot
// distribution, stack updates, persistence, events, rotation, and
// end-of-game detection.
func (e *Engine) handComplete() {
	hand := e.hand
	ctx, cancel := store.WithDefaultTimeout(context.Background())
	defer cancel()

	contributors := make([]pot.Contributor, 0, len(e.players))
	for _, pos := range e.liveSeatOrder() {
		p := e.players[pos]
		contributors = append(contributors, pot.Contributor{
			UserID:            p.UserID,
			Position:          p.Position,
			CommittedThisHand: p.CommittedThisHand,
			Folded:            p.Folded,
		})
	}

	var winnerInfos []events.WinnerInfo
	var storeErr error

	if winnerID, ok := pot.FoldOutWinner(contributors); ok {
		p := e.playerByUserID(winnerID)
		p.Stack += hand.Pot
		if err := e.store.InsertWinner(ctx, hand.HandID, winnerID, hand.Pot, "Win by fold"); err != nil {
			e.logger.Error("insert winner failed", "err", err)
			storeErr = err
		}
		winnerInfos = append(winnerInfos, events.WinnerInfo{
			UserID:       winnerID,
			AmountWon:    hand.Pot,
			HandRankName: "Win by fold",
		})
	} else {
		positionOrder := e.rotationOrderFromDealer(hand.DealerPos)

		ranks := make(map[string]evaluator.HandRank, len(contributors))
		for _, pos := range e.liveSeatOrder() {
			p := e.players[pos]
			if p.Folded {
				continue
			}
			rank, err := evaluator.Evaluate(p.HoleCards, hand.Board)
			if err != nil {
				e.logger.Error("evaluate hand failed", "userID", p.UserID, "err", err)
				continue
			}
			ranks[p.UserID] = rank
		}

		totals := make(map[string]int)
		rankNames := make(map[string]string)
		for _, sp := range pot.Partition(contributors) {
			hands := make([]pot.Hand, 0, len(sp.Eligible))
			for _, id := range sp.Eligible {
				hands = append(hands, pot.Hand{UserID: id, Rank: ranks[id]})
			}
			for _, award := range pot.Distribute(sp, hands, positionOrder) {
				totals[award.UserID] += award.Amount
				rankNames[award.UserID] = award.HandRank.String()
			}
		}

		for id, amount := range totals {
			p := e.playerByUserID(id)
			p.Stack += amount
			if err := e.store.InsertWinner(ctx, hand.HandID, id, amount, rankNames[id]); err != nil {
				e.logger.Error("insert winner failed", "err", err)
				storeErr = err
			}
			winnerInfos = append(winnerInfos, events.WinnerInfo{
				UserID:       id,
				AmountWon:    amount,
				HandRankName: rankNames[id],
				HoleCards:    p.HoleCards,
			})
		}
	}

	if err := e.store.MarkHandCompleted(ctx, hand.HandID); err != nil {
		e.logger.Error("mark hand completed failed", "err", err)
		storeErr = err
	}

	e.broadcaster.Broadcast(e.roomID, events.WinnerDetermined{
		Winners: winnerInfos,
		Pot:     hand.Pot,
		Board:   hand.Board,
	})

	e.rotate()

	stacks := make([]events.PlayerStackInfo, 0, len(e.seatOrder))
	for _, pos := range e.seatOrder {
		p := e.players[pos]
		stacks = append(stacks, events.PlayerStackInfo{UserID: p.UserID, Stack: p.Stack, Eliminated: p.Eliminated})
	}
	e.broadcaster.Broadcast(e.roomID, events.StacksUpdated{Players: stacks})

	if storeErr != nil {
		e.fatalLocked(KindStorageFailure, "persist hand result: "+storeErr.Error())
		return
	}

	liveWithChips := 0
	var lastStanding *PlayerState
	for _, pos := range e.seatOrder {
		p := e.players[pos]
		if !p.Eliminated && p.Stack > 0 {
			liveWithChips++
			lastStanding = p
		}
	}

	e.hand = nil
	if liveWithChips < 2 {
		var winner *events.GameEndedWinner
		if liveWithChips == 1 {
			winner = &events.GameEndedWinner{UserID: lastStanding.UserID, Stack: lastStanding.Stack}
		}
		e.broadcaster.Broadcast(e.roomID, events.GameEnded{Winner: winner})
		e.state = lifecycleEnded
	} else {
		e.state = lifecycleIdle
	}

	if e.HandCompleteHook != nil {
		e.HandCompleteHook()
	}
}

// rotate eliminates empty stacks, advances the dealer among remaining
// live seats, and reassigns blinds, with the heads-up special case
// (dealer is small blind).
func (e *Engine) rotate() {
	for _, pos := range e.seatOrder {
		p := e.players[pos]
		if !p.Eliminated && p.Stack == 0 {
			p.Eliminated = true
		}
	}
	live := e.liveSeatOrder()
	if len(live) == 0 {
		return
	}

	e.dealerPos = nextInOrder(live, e.dealerPos)
	if len(live) == 2 {
		e.sbPos = e.dealerPos
		e.bbPos = nextInOrder(live, e.dealerPos)
	} else {
		e.sbPos = nextInOrder(live, e.dealerPos)
		e.bbPos = nextInOrder(live, e.sbPos)
	}

	e.broadcaster.Broadcast(e.roomID, events.PositionsUpdated{
		DealerPos: e.dealerPos,
		SBPos:     e.sbPos,
		BBPos:     e.bbPos,
	})
}

// rotationOrderFromDealer returns the live users in clockwise order
// starting immediately after dealerPos, used for side-pot remainder
// distribution.
func (e *Engine) rotationOrderFromDealer(dealerPos int) []string {
	live := e.liveSeatOrder()
	if len(live) == 0 {
		return nil
	}
	ordered := rotateStartingAfter(live, dealerPos)
	ids := make([]string, len(ordered))
	for i, pos := range ordered {
		ids[i] = e.players[pos].UserID
	}
	return ids
}

func (e *Engine) fatalLocked(kind ErrorKind, msg string) error {
	err := newError(kind, msg)
	e.state = lifecycleErrored
	e.broadcaster.Broadcast(e.roomID, events.GameErrorEvent{Message: msg, Kind: string(kind)})
	e.logger.Error("engine entering error state", "kind", kind, "message", msg)
	return err
}
