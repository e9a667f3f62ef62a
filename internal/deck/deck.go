// Package deck implements the 52-card deck and a cryptographically
// secure shuffle.
package deck

import (
	"crypto/rand"
	"errors"
	"math/big"

	"github.com/lox/holdem-engine/internal/card"
)

// ErrDeckExhausted is returned by Deal when fewer cards remain than
// requested. This should be unreachable in normal play and is treated
// as fatal by the engine.
var ErrDeckExhausted = errors.New("deck: exhausted")

// Deck is an ordered sequence of cards with no duplicates. Dealing
// removes from the head.
type Deck struct {
	cards []card.Card
}

// New builds an unshuffled, ordered 52-card deck.
func New() *Deck {
	cards := make([]card.Card, 0, 52)
	for _, s := range card.AllSuits {
		for _, r := range card.AllRanks {
			cards = append(cards, card.New(r, s))
		}
	}
	return &Deck{cards: cards}
}

// NewShuffled builds a full 52-card deck and shuffles it with a
// cryptographically secure Fisher-Yates: for i from 51 down to 1, pick
// j uniformly in [0,i] using a CSPRNG and swap positions i and j.
func NewShuffled() (*Deck, error) {
	d := New()
	if err := d.shuffle(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Deck) shuffle() error {
	for i := len(d.cards) - 1; i > 0; i-- {
		j, err := cryptoIntn(i + 1)
		if err != nil {
			return err
		}
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	}
	return nil
}

// cryptoIntn returns a uniform random integer in [0, n) using
// crypto/rand.
func cryptoIntn(n int) (int, error) {
	if n <= 0 {
		return 0, nil
	}
	max := big.NewInt(int64(n))
	v, err := rand.Int(rand.Reader, max)
	if err != nil {
		return 0, err
	}
	return int(v.Int64()), nil
}

// Deal removes and returns the first n cards from the head of the
// deck. It fails with ErrDeckExhausted if n exceeds the number of
// cards remaining; the deck is left unmodified on failure.
func (d *Deck) Deal(n int) ([]card.Card, error) {
	if n > len(d.cards) {
		return nil, ErrDeckExhausted
	}
	dealt := make([]card.Card, n)
	copy(dealt, d.cards[:n])
	d.cards = d.cards[n:]
	return dealt, nil
}

// Remaining returns the number of cards left in the deck.
func (d *Deck) Remaining() int {
	return len(d.cards)
}

// Cards returns a defensive copy of the remaining cards, head first.
// Intended for diagnostics/tests; the engine itself never inspects
// deck contents beyond dealing.
func (d *Deck) Cards() []card.Card {
	out := make([]card.Card, len(d.cards))
	copy(out, d.cards)
	return out
}
