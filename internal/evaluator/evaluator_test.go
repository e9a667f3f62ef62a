package evaluator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/holdem-engine/internal/card"
)

func mustParse(t *testing.T, s string) card.Card {
	t.Helper()
	c, err := card.Parse(s)
	require.NoError(t, err)
	return c
}

func parseAll(t *testing.T, ss ...string) []card.Card {
	t.Helper()
	out := make([]card.Card, len(ss))
	for i, s := range ss {
		out[i] = mustParse(t, s)
	}
	return out
}

// S4: hole As 2d, board 3c 4c 5h 9d Kc -> straight, wheel, top value 5.
func TestEvaluateWheelStraight(t *testing.T) {
	hole := parseAll(t, "As", "2d")
	board := parseAll(t, "3c", "4c", "5h", "9d", "Kc")

	rank, err := Evaluate(hole, board)
	require.NoError(t, err)
	assert.Equal(t, Straight, rank.Category)
	require.Len(t, rank.Tiebreakers, 1)
	assert.Equal(t, 5, rank.Tiebreakers[0])
}

func TestEvaluateStraightFlush(t *testing.T) {
	hole := parseAll(t, "8c", "9c")
	board := parseAll(t, "Tc", "Jc", "Qc", "2h", "3d")

	rank, err := Evaluate(hole, board)
	require.NoError(t, err)
	assert.Equal(t, StraightFlush, rank.Category)
	assert.Equal(t, []int{12}, rank.Tiebreakers)
}

func TestEvaluateFourOfAKind(t *testing.T) {
	hole := parseAll(t, "9h", "9d")
	board := parseAll(t, "9c", "9s", "2h", "3d", "4c")

	rank, err := Evaluate(hole, board)
	require.NoError(t, err)
	assert.Equal(t, FourOfAKind, rank.Category)
	assert.Equal(t, []int{9, 4}, rank.Tiebreakers)
}

func TestEvaluateFullHouseFromTwoTrips(t *testing.T) {
	hole := parseAll(t, "9h", "9d")
	board := parseAll(t, "9c", "5s", "5h", "5d", "2c")

	rank, err := Evaluate(hole, board)
	require.NoError(t, err)
	assert.Equal(t, FullHouse, rank.Category)
	assert.Equal(t, []int{9, 5}, rank.Tiebreakers)
}

func TestEvaluateFlushTakesTopFive(t *testing.T) {
	hole := parseAll(t, "2c", "4c")
	board := parseAll(t, "6c", "8c", "Tc", "Qh", "Kd")

	rank, err := Evaluate(hole, board)
	require.NoError(t, err)
	assert.Equal(t, Flush, rank.Category)
	assert.Equal(t, []int{10, 8, 6, 4, 2}, rank.Tiebreakers)
}

func TestEvaluateTwoPair(t *testing.T) {
	hole := parseAll(t, "Kh", "Kd")
	board := parseAll(t, "2c", "2s", "9h", "5d", "3c")

	rank, err := Evaluate(hole, board)
	require.NoError(t, err)
	assert.Equal(t, TwoPair, rank.Category)
	assert.Equal(t, []int{13, 2, 9}, rank.Tiebreakers)
}

func TestEvaluateHighCard(t *testing.T) {
	hole := parseAll(t, "2c", "7d")
	board := parseAll(t, "9h", "Jc", "Kd", "4s", "3h")

	rank, err := Evaluate(hole, board)
	require.NoError(t, err)
	assert.Equal(t, HighCard, rank.Category)
	assert.Equal(t, []int{13, 11, 9, 7, 4}, rank.Tiebreakers)
}

func TestEvaluateRejectsTooFewCards(t *testing.T) {
	hole := parseAll(t, "2c", "7d")
	_, err := Evaluate(hole, nil)
	assert.Error(t, err)
}

// Property: Compare is antisymmetric and reflexive.
func TestCompareAntisymmetricAndReflexive(t *testing.T) {
	a := HandRank{Category: Flush, Tiebreakers: []int{14, 10, 8, 6, 2}}
	b := HandRank{Category: FullHouse, Tiebreakers: []int{5, 3}}

	assert.Equal(t, 0, a.Compare(a))
	assert.Equal(t, 0, b.Compare(b))
	assert.Equal(t, -a.Compare(b), b.Compare(a))
	assert.Equal(t, 1, b.Compare(a), "full house beats flush")
}

func TestFindWinnersSingleWinner(t *testing.T) {
	board := parseAll(t, "9h", "Jc", "Kd", "4s", "3h")
	strong, err := Evaluate(parseAll(t, "Kh", "Kc"), board)
	require.NoError(t, err)
	weak, err := Evaluate(parseAll(t, "2c", "7d"), board)
	require.NoError(t, err)

	winners := FindWinners([]Entrant{
		{ID: "p1", Rank: strong},
		{ID: "p2", Rank: weak},
	})
	assert.Equal(t, []string{"p1"}, winners)
}

func TestFindWinnersSplitPot(t *testing.T) {
	board := parseAll(t, "9h", "Jc", "Kd", "4s", "3h")
	rank, err := Evaluate(parseAll(t, "2c", "2d"), board)
	require.NoError(t, err)

	winners := FindWinners([]Entrant{
		{ID: "p1", Rank: rank},
		{ID: "p2", Rank: rank},
	})
	assert.ElementsMatch(t, []string{"p1", "p2"}, winners)
}
