package store

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store fake for tests, recording writes
// in call order.
type MemoryStore struct {
	mu sync.Mutex

	Hands   []HandRow
	Cards   []HoleCardsRow
	Actions []ActionRow
	Winners []WinnerRow

	FailNext error // if set, the next call returns this error once
}

type HandRow struct {
	ID                                      string
	GameID                                  string
	HandNumber                              int
	DealerSeat, SBSeat, BBSeat              int
	Street, Board                           string
	Pot                                     int
	Completed                               bool
}

type HoleCardsRow struct {
	HandID, UserID, Card1, Card2 string
}

type ActionRow struct {
	HandID, UserID, ActionType string
	Amount                     int
	Street                     string
}

type WinnerRow struct {
	HandID, UserID      string
	AmountWon           int
	HandRankName        string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) takeFailure() error {
	if m.FailNext != nil {
		err := m.FailNext
		m.FailNext = nil
		return err
	}
	return nil
}

func (m *MemoryStore) InsertHand(_ context.Context, gameID string, handNumber, dealerSeat, sbSeat, bbSeat int, street, boardCards string, pot int) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return "", err
	}
	id := uuid.NewString()
	m.Hands = append(m.Hands, HandRow{
		ID: id, GameID: gameID, HandNumber: handNumber,
		DealerSeat: dealerSeat, SBSeat: sbSeat, BBSeat: bbSeat,
		Street: street, Board: boardCards, Pot: pot,
	})
	return id, nil
}

func (m *MemoryStore) InsertHoleCards(_ context.Context, handID, userID, card1, card2 string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return err
	}
	m.Cards = append(m.Cards, HoleCardsRow{HandID: handID, UserID: userID, Card1: card1, Card2: card2})
	return nil
}

func (m *MemoryStore) InsertAction(_ context.Context, handID, userID, actionType string, amount int, street string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return err
	}
	m.Actions = append(m.Actions, ActionRow{HandID: handID, UserID: userID, ActionType: actionType, Amount: amount, Street: street})
	return nil
}

func (m *MemoryStore) UpdateHandBoardStreetPot(_ context.Context, handID, boardCards, street string, pot int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return err
	}
	for i := range m.Hands {
		if m.Hands[i].ID == handID {
			m.Hands[i].Board = boardCards
			m.Hands[i].Street = street
			m.Hands[i].Pot = pot
			return nil
		}
	}
	return nil
}

func (m *MemoryStore) InsertWinner(_ context.Context, handID, userID string, amountWon int, handRankName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return err
	}
	m.Winners = append(m.Winners, WinnerRow{HandID: handID, UserID: userID, AmountWon: amountWon, HandRankName: handRankName})
	return nil
}

func (m *MemoryStore) MarkHandCompleted(_ context.Context, handID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return err
	}
	for i := range m.Hands {
		if m.Hands[i].ID == handID {
			m.Hands[i].Completed = true
			return nil
		}
	}
	return nil
}

var _ Store = (*MemoryStore)(nil)
