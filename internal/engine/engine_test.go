package engine

import (
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/holdem-engine/internal/events"
	"github.com/lox/holdem-engine/internal/store"
)

func newTestEngine(t *testing.T, n int) (*Engine, *events.FakeBroadcaster, *store.MemoryStore, *quartz.Mock) {
	t.Helper()
	seats := make([]Seat, n)
	for i := 0; i < n; i++ {
		seats[i] = Seat{UserID: userID(i), Username: userID(i), Position: i}
	}
	bc := events.NewFakeBroadcaster()
	st := store.NewMemoryStore()
	clock := quartz.NewMock(t)
	e, err := New("room-1", "game-1", seats, bc, st, clock, nil)
	require.NoError(t, err)
	t.Cleanup(e.Shutdown)
	return e, bc, st, clock
}

func userID(i int) string {
	return string(rune('a' + i))
}

// 3 players, seats 0/1/2, stacks 1500 each, dealer=0. SB=1 posts
// 10, BB=2 posts 20. Preflop to-act=0. 0 folds, 1 folds. Expected:
// 2 wins 30; stacks {0:1500, 1:1490, 2:1510}; handRankName = "Win by
// fold".
func TestFoldOutAwardsPotToLastPlayer(t *testing.T) {
	e, bc, _, _ := newTestEngine(t, 3)

	require.NoError(t, e.StartHand())
	require.Equal(t, 0, e.hand.ToActPos)
	assert.Equal(t, 1, e.sbPos)
	assert.Equal(t, 2, e.bbPos)
	assert.Equal(t, 0, e.dealerPos)

	require.NoError(t, e.SubmitAction(userID(0), Action{Type: ActionFold}))
	require.NoError(t, e.SubmitAction(userID(1), Action{Type: ActionFold}))

	assert.Equal(t, 1500, e.players[0].Stack)
	assert.Equal(t, 1490, e.players[1].Stack)
	assert.Equal(t, 1510, e.players[2].Stack)

	winnerEvents := bc.ByType("WinnerDetermined")
	require.Len(t, winnerEvents, 1)
	wd := winnerEvents[0].Event.(events.WinnerDetermined)
	require.Len(t, wd.Winners, 1)
	assert.Equal(t, userID(2), wd.Winners[0].UserID)
	assert.Equal(t, 30, wd.Winners[0].AmountWon)
	assert.Equal(t, "Win by fold", wd.Winners[0].HandRankName)
}

// Preflop heads-up: SB calls, BB raises to 60, SB re-raises to
// 140. minRaise tracks the last full raise increment and
// hasActedThisStreet resets for BB after SB's re-raise.
func TestRaiseReopensAction(t *testing.T) {
	e, _, _, _ := newTestEngine(t, 2)

	require.NoError(t, e.StartHand())
	require.Equal(t, 0, e.dealerPos)
	require.Equal(t, 0, e.sbPos, "heads-up: dealer is small blind")
	require.Equal(t, 1, e.bbPos)
	require.Equal(t, 0, e.hand.ToActPos, "heads-up: SB acts first preflop")

	require.NoError(t, e.SubmitAction(userID(0), Action{Type: ActionCall}))
	assert.Equal(t, 1, e.hand.ToActPos)

	require.NoError(t, e.SubmitAction(userID(1), Action{Type: ActionRaise, Amount: 60}))
	assert.Equal(t, 60, e.hand.CurrentBet)
	assert.Equal(t, 40, e.hand.MinRaise)
	assert.Equal(t, 0, e.hand.ToActPos)

	require.NoError(t, e.SubmitAction(userID(0), Action{Type: ActionRaise, Amount: 140}))
	assert.Equal(t, 140, e.hand.CurrentBet)
	assert.Equal(t, 80, e.hand.MinRaise)
	assert.False(t, e.players[1].HasActedThisStreet, "BB's acted flag resets after SB's re-raise")
}

// A short all-in (one below the current minimum raise increment) must
// not reopen raising for a player who had already acted since the
// last full raise: they may still call, fold, or go all-in, but a
// raise from them is illegal until someone makes a full raise.
func TestShortAllInDoesNotReopenRaisingForPlayersWhoAlreadyActed(t *testing.T) {
	e, _, _, _ := newTestEngine(t, 3)
	require.NoError(t, e.StartHand())
	require.Equal(t, 0, e.hand.ToActPos)

	// Seat 0 raises to 100: CurrentBet=100, MinRaise=80.
	require.NoError(t, e.SubmitAction(userID(0), Action{Type: ActionRaise, Amount: 100}))
	require.Equal(t, 100, e.hand.CurrentBet)
	require.Equal(t, 80, e.hand.MinRaise)
	require.Equal(t, 1, e.hand.ToActPos)

	// Seat 1 (small blind, already committed 10) calls up to 100.
	require.NoError(t, e.SubmitAction(userID(1), Action{Type: ActionCall}))
	require.True(t, e.players[1].HasActedThisStreet)
	require.Equal(t, 2, e.hand.ToActPos)

	// Seat 2 (big blind) goes all-in for a short increment (only 50
	// more than the current bet, below the 80 minimum raise).
	e.players[2].Stack = 130 // plus the 20 already posted: all in for 150
	require.NoError(t, e.SubmitAction(userID(2), Action{Type: ActionAllIn}))
	require.Equal(t, 150, e.hand.CurrentBet)
	require.Equal(t, 80, e.hand.MinRaise, "short all-in does not change MinRaise")
	require.True(t, e.hand.RaiseClosedFor[0])
	require.True(t, e.hand.RaiseClosedFor[1])

	// Action returns to seat 0, which still owes chips to call the
	// all-in. A raise is illegal; a call is not.
	require.Equal(t, 0, e.hand.ToActPos)
	err := e.SubmitAction(userID(0), Action{Type: ActionRaise, Amount: 300})
	require.Error(t, err)
	var gameErr *Error
	require.ErrorAs(t, err, &gameErr)
	assert.Equal(t, KindIllegalAction, gameErr.Kind)

	require.NoError(t, e.SubmitAction(userID(0), Action{Type: ActionCall}))
}

func TestRaiseBelowMinimumIsIllegal(t *testing.T) {
	e, bc, _, _ := newTestEngine(t, 2)
	require.NoError(t, e.StartHand())

	err := e.SubmitAction(userID(0), Action{Type: ActionRaise, Amount: 30})
	require.Error(t, err)
	var gameErr *Error
	require.ErrorAs(t, err, &gameErr)
	assert.Equal(t, KindIllegalAction, gameErr.Kind)

	errs := bc.ByType("GameError")
	require.Len(t, errs, 1)
	assert.Equal(t, userID(0), errs[0].UserID)
}

func TestNotYourTurnIsRejected(t *testing.T) {
	e, _, _, _ := newTestEngine(t, 2)
	require.NoError(t, e.StartHand())

	err := e.SubmitAction(userID(1), Action{Type: ActionCheck})
	require.Error(t, err)
	var gameErr *Error
	require.ErrorAs(t, err, &gameErr)
	assert.Equal(t, KindNotYourTurn, gameErr.Kind)
}

func TestCallCoercesToAllInWhenShortStacked(t *testing.T) {
	e, _, _, _ := newTestEngine(t, 2)
	require.NoError(t, e.StartHand())
	e.players[0].Stack = 5 // far short of the call amount

	require.NoError(t, e.SubmitAction(userID(0), Action{Type: ActionCall}))
	assert.Equal(t, 0, e.players[0].Stack)
	assert.True(t, e.players[0].AllIn)
}

// The acting player never responds; 30 ticks of TurnTick are
// emitted, then ActionPerformed{fold} appears and state advances.
func TestTimeoutForcesFold(t *testing.T) {
	e, bc, _, clock := newTestEngine(t, 2)
	require.NoError(t, e.StartHand())
	actingPos := e.hand.ToActPos
	actingUser := e.players[actingPos].UserID

	for i := 0; i < TurnTimerSeconds; i++ {
		clock.Advance(time.Second)
	}

	deadline := time.After(2 * time.Second)
	for {
		e.mu.Lock()
		done := e.hand == nil || e.hand.ToActPos != actingPos || e.players[actingPos].Folded
		e.mu.Unlock()
		if done {
			break
		}
		select {
		case <-deadline:
			t.Fatal("timed out waiting for timeout-driven fold")
		case <-time.After(10 * time.Millisecond):
		}
	}

	actions := bc.ByType("ActionPerformed")
	require.NotEmpty(t, actions)
	last := actions[len(actions)-1].Event.(events.ActionPerformed)
	assert.Equal(t, actingUser, last.UserID)
	assert.Equal(t, "fold", last.Action)

	ticks := bc.ByType("TurnTick")
	assert.GreaterOrEqual(t, len(ticks), TurnTimerSeconds-1)
}

// Property: pot == sum of committedThisHand at every point in a hand.
func TestPropertyPotConservation(t *testing.T) {
	e, _, _, _ := newTestEngine(t, 3)
	require.NoError(t, e.StartHand())

	require.NoError(t, e.SubmitAction(userID(0), Action{Type: ActionCall}))
	require.NoError(t, e.SubmitAction(userID(1), Action{Type: ActionRaise, Amount: 60}))
	require.NoError(t, e.SubmitAction(userID(2), Action{Type: ActionCall}))
	require.NoError(t, e.SubmitAction(userID(0), Action{Type: ActionCall}))

	sum := 0
	for _, p := range e.players {
		sum += p.CommittedThisHand
	}
	assert.Equal(t, e.hand.Pot, sum)
}

// Property: check never mutates pot or stacks.
func TestPropertyCheckInvariance(t *testing.T) {
	e, _, _, _ := newTestEngine(t, 2)
	require.NoError(t, e.StartHand())
	require.NoError(t, e.SubmitAction(userID(0), Action{Type: ActionCall}))

	potBefore := e.hand.Pot
	stacksBefore := map[int]int{0: e.players[0].Stack, 1: e.players[1].Stack}

	require.NoError(t, e.SubmitAction(userID(1), Action{Type: ActionCheck}))

	assert.Equal(t, potBefore, e.hand.Pot)
	assert.Equal(t, stacksBefore[0], e.players[0].Stack)
	assert.Equal(t, stacksBefore[1], e.players[1].Stack)
}

// Property: chip conservation across a fold-out hand.
func TestPropertyChipConservationAcrossHand(t *testing.T) {
	e, _, _, _ := newTestEngine(t, 3)
	totalBefore := 0
	for _, p := range e.players {
		totalBefore += p.Stack
	}

	require.NoError(t, e.StartHand())
	require.NoError(t, e.SubmitAction(userID(0), Action{Type: ActionFold}))
	require.NoError(t, e.SubmitAction(userID(1), Action{Type: ActionFold}))

	totalAfter := 0
	for _, p := range e.players {
		totalAfter += p.Stack
	}
	assert.Equal(t, totalBefore, totalAfter)
}

func TestSnapshotFiltersHoleCardsToRequestingUser(t *testing.T) {
	e, _, _, _ := newTestEngine(t, 2)
	require.NoError(t, e.StartHand())

	snap := e.Snapshot(userID(0))
	for _, p := range snap.Players {
		if p.UserID == userID(0) {
			assert.Len(t, p.HoleCards, 2)
		} else {
			assert.Empty(t, p.HoleCards)
		}
	}
}

func TestStartHandRejectsWhenAlreadyInHand(t *testing.T) {
	e, _, _, _ := newTestEngine(t, 2)
	require.NoError(t, e.StartHand())
	err := e.StartHand()
	require.Error(t, err)
}

func TestRotateAdvancesDealerAndEliminatesBustPlayers(t *testing.T) {
	e, _, _, _ := newTestEngine(t, 3)
	require.NoError(t, e.StartHand())
	// Force seat 0 to bust so Rotate eliminates it.
	e.players[0].Stack = 0
	e.hand.ToActPos = 0

	require.NoError(t, e.SubmitAction(userID(0), Action{Type: ActionFold}))
	require.NoError(t, e.SubmitAction(userID(1), Action{Type: ActionFold}))

	assert.True(t, e.players[0].Eliminated)
	live := e.liveSeatOrder()
	assert.NotContains(t, live, 0)
	assert.Equal(t, 1, e.dealerPos, "dealer advances to the next live seat")
}
