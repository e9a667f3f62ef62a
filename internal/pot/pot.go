// Package pot implements side-pot partitioning and distribution for a
// finished hand: splitting contributions into main and side pots by
// all-in level, and paying each pot's winners with remainder chips
// rotated clockwise from the seat after the dealer.
package pot

import (
	"sort"

	"github.com/lox/holdem-engine/internal/evaluator"
)

// Contributor is one seated player's state as seen by the pot
// partition algorithm. Folded players still contribute their chips to
// the pot but are excluded from eligibility.
type Contributor struct {
	UserID            string
	Position          int
	CommittedThisHand int
	Folded            bool
}

// Pot is a single side (or main) pot: an amount and the set of user
// IDs eligible to win it.
type Pot struct {
	Amount   int
	Eligible []string
}

// Partition computes the side-pot structure for a finished hand: sort
// the distinct positive CommittedThisHand values ascending
// L1<L2<...<Lk; the pot at level Li is
// (Li - Li-1) * |{p: committed(p) >= Li}|, eligible for players both
// not folded and committed(p) >= Li. The sum of all pot amounts
// equals the sum of all contributions, folded or not.
func Partition(contributors []Contributor) []Pot {
	levels := distinctLevels(contributors)

	pots := make([]Pot, 0, len(levels))
	prev := 0
	for _, level := range levels {
		covering := 0
		eligible := make([]string, 0, len(contributors))
		for _, c := range contributors {
			if c.CommittedThisHand >= level {
				covering++
				if !c.Folded {
					eligible = append(eligible, c.UserID)
				}
			}
		}
		amount := (level - prev) * covering
		if amount > 0 {
			pots = append(pots, Pot{Amount: amount, Eligible: eligible})
		}
		prev = level
	}
	return pots
}

func distinctLevels(contributors []Contributor) []int {
	seen := make(map[int]bool)
	for _, c := range contributors {
		if c.CommittedThisHand > 0 {
			seen[c.CommittedThisHand] = true
		}
	}
	levels := make([]int, 0, len(seen))
	for v := range seen {
		levels = append(levels, v)
	}
	sort.Ints(levels)
	return levels
}

// Award is one player's share of a single pot's distribution.
type Award struct {
	UserID   string
	Amount   int
	HandRank evaluator.HandRank
}

// Hand is the showdown input for one eligible player in a pot:
// their evaluated hand rank.
type Hand struct {
	UserID string
	Rank   evaluator.HandRank
}

// Distribute resolves a single pot's winners and chip shares: winners
// are those tied for the strongest hand among
// hands whose UserID appears in pot.Eligible. Each winner receives
// floor(amount/len(winners)); the remainder is paid one chip at a
// time to winners in clockwise order starting from the seat position
// closest to (but not less than) the position just clockwise of the
// dealer, per positionOrder (already rotated to start there).
func Distribute(p Pot, hands []Hand, positionOrder []string) []Award {
	eligibleSet := make(map[string]bool, len(p.Eligible))
	for _, id := range p.Eligible {
		eligibleSet[id] = true
	}

	entrants := make([]evaluator.Entrant, 0, len(hands))
	rankByID := make(map[string]evaluator.HandRank, len(hands))
	for _, h := range hands {
		if !eligibleSet[h.UserID] {
			continue
		}
		entrants = append(entrants, evaluator.Entrant{ID: h.UserID, Rank: h.Rank})
		rankByID[h.UserID] = h.Rank
	}
	if len(entrants) == 0 {
		return nil
	}

	winnerIDs := evaluator.FindWinners(entrants)
	winnerSet := make(map[string]bool, len(winnerIDs))
	for _, id := range winnerIDs {
		winnerSet[id] = true
	}

	ordered := make([]string, 0, len(winnerIDs))
	for _, id := range positionOrder {
		if winnerSet[id] {
			ordered = append(ordered, id)
		}
	}
	for _, id := range winnerIDs {
		found := false
		for _, o := range ordered {
			if o == id {
				found = true
				break
			}
		}
		if !found {
			ordered = append(ordered, id)
		}
	}

	share := p.Amount / len(ordered)
	remainder := p.Amount % len(ordered)

	awards := make([]Award, len(ordered))
	for i, id := range ordered {
		amount := share
		if i < remainder {
			amount++
		}
		awards[i] = Award{UserID: id, Amount: amount, HandRank: rankByID[id]}
	}
	return awards
}

// FoldOutWinner returns the single non-folded contributor who wins
// the entire pot without evaluation, short-circuiting a showdown when
// every other player has folded. ok is false unless exactly one
// contributor is live.
func FoldOutWinner(contributors []Contributor) (userID string, ok bool) {
	live := ""
	count := 0
	for _, c := range contributors {
		if !c.Folded {
			count++
			live = c.UserID
		}
	}
	if count != 1 {
		return "", false
	}
	return live, true
}
