package evaluator

import (
	"fmt"
	"sort"

	"github.com/lox/holdem-engine/internal/card"
)

// Evaluate returns the best HandRank obtainable from hole plus board:
// every C(n,5) five-card subset of the combined cards is scored, and
// the maximum (by Compare) is returned. hole+board must total between
// 5 and 7 cards.
func Evaluate(hole []card.Card, board []card.Card) (HandRank, error) {
	all := make([]card.Card, 0, len(hole)+len(board))
	all = append(all, hole...)
	all = append(all, board...)

	if len(all) < 5 {
		return HandRank{}, fmt.Errorf("evaluator: need at least 5 cards, got %d", len(all))
	}
	if len(all) > 7 {
		return HandRank{}, fmt.Errorf("evaluator: at most 7 cards supported, got %d", len(all))
	}

	var best HandRank
	first := true
	forEachCombination(len(all), 5, func(idx []int) {
		hand := make([]card.Card, 5)
		for i, j := range idx {
			hand[i] = all[j]
		}
		rank := evaluate5(hand)
		if first || rank.Compare(best) > 0 {
			best = rank
			first = false
		}
	})
	return best, nil
}

// forEachCombination invokes fn with every k-length, strictly
// increasing index combination drawn from [0,n).
func forEachCombination(n, k int, fn func(idx []int)) {
	if k > n {
		return
	}
	idx := make([]int, k)
	for i := range idx {
		idx[i] = i
	}
	for {
		fn(idx)
		i := k - 1
		for i >= 0 && idx[i] == n-k+i {
			i--
		}
		if i < 0 {
			return
		}
		idx[i]++
		for j := i + 1; j < k; j++ {
			idx[j] = idx[j-1] + 1
		}
	}
}

// evaluate5 classifies exactly five cards using rank-count and
// suit-count preprocessing, returning an explicit (category,
// tiebreakers) pair instead of a packed score.
func evaluate5(hand []card.Card) HandRank {
	var counts [15]int
	var suitCounts [4]int
	for _, c := range hand {
		counts[c.Value()]++
		suitCounts[c.Suit]++
	}

	flush := false
	for _, n := range suitCounts {
		if n == 5 {
			flush = true
			break
		}
	}

	straightTop := straightHigh(hand)

	if straightTop > 0 && flush {
		return HandRank{Category: StraightFlush, Tiebreakers: []int{straightTop}}
	}

	var fours, threes, pairs, singles []int
	for v := 14; v >= 2; v-- {
		switch counts[v] {
		case 4:
			fours = append(fours, v)
		case 3:
			threes = append(threes, v)
		case 2:
			pairs = append(pairs, v)
		case 1:
			singles = append(singles, v)
		}
	}

	if len(fours) == 1 {
		kicker := 0
		for _, v := range append(append(append([]int{}, threes...), pairs...), singles...) {
			if v > kicker {
				kicker = v
			}
		}
		return HandRank{Category: FourOfAKind, Tiebreakers: []int{fours[0], kicker}}
	}

	if len(threes) >= 1 && (len(pairs) >= 1 || len(threes) >= 2) {
		trip := threes[0]
		var pair int
		if len(threes) >= 2 {
			pair = threes[1]
		} else {
			pair = pairs[0]
		}
		return HandRank{Category: FullHouse, Tiebreakers: []int{trip, pair}}
	}

	if flush {
		vals := sortedValuesDesc(hand)
		return HandRank{Category: Flush, Tiebreakers: vals}
	}

	if straightTop > 0 {
		return HandRank{Category: Straight, Tiebreakers: []int{straightTop}}
	}

	if len(threes) == 1 {
		return HandRank{Category: ThreeOfAKind, Tiebreakers: []int{threes[0], singles[0], singles[1]}}
	}

	if len(pairs) >= 2 {
		return HandRank{Category: TwoPair, Tiebreakers: []int{pairs[0], pairs[1], singles[0]}}
	}

	if len(pairs) == 1 {
		return HandRank{Category: Pair, Tiebreakers: []int{pairs[0], singles[0], singles[1], singles[2]}}
	}

	return HandRank{Category: HighCard, Tiebreakers: singles}
}

// straightHigh returns the high card value of the straight formed by
// the five cards' values, 0 if they do not form one. The wheel
// (A-2-3-4-5) is reported with a high value of 5.
func straightHigh(hand []card.Card) int {
	seen := make(map[int]bool, 5)
	for _, c := range hand {
		seen[c.Value()] = true
	}
	if len(seen) != 5 {
		return 0
	}
	vals := make([]int, 0, 5)
	for v := range seen {
		vals = append(vals, v)
	}
	sort.Ints(vals)

	if vals[0] == 2 && vals[1] == 3 && vals[2] == 4 && vals[3] == 5 && vals[4] == 14 {
		return 5
	}
	for i := 1; i < 5; i++ {
		if vals[i] != vals[i-1]+1 {
			return 0
		}
	}
	return vals[4]
}

func sortedValuesDesc(hand []card.Card) []int {
	vals := make([]int, len(hand))
	for i, c := range hand {
		vals[i] = c.Value()
	}
	sort.Sort(sort.Reverse(sort.IntSlice(vals)))
	return vals
}

// Entrant is one player's evaluated hand entering a showdown comparison.
type Entrant struct {
	ID   string
	Rank HandRank
}

// FindWinners returns the IDs tied for the strongest HandRank among
// entrants at showdown. entrants must be non-empty.
func FindWinners(entrants []Entrant) []string {
	if len(entrants) == 0 {
		return nil
	}
	best := entrants[0].Rank
	for _, e := range entrants[1:] {
		if e.Rank.Compare(best) > 0 {
			best = e.Rank
		}
	}
	winners := make([]string, 0, 1)
	for _, e := range entrants {
		if e.Rank.Compare(best) == 0 {
			winners = append(winners, e.ID)
		}
	}
	return winners
}
