// Package store defines the durable-write contract the Engine depends
// on and a sqlite-backed implementation, grounded on
// vctt94-pokerbisonrelay's pkg/server/internal/db/db.go: database/sql
// plus github.com/mattn/go-sqlite3, CREATE TABLE IF NOT EXISTS schema
// setup in a constructor, reshaped from that repo's table/player-state
// snapshot tables into hand/hand_cards/actions/winners tables.
package store

import "context"

// Store is the persistence contract the Engine uses. A failing call
// must surface to the Engine as StorageFailure; the Engine never
// rolls back chip state on a store failure.
type Store interface {
	InsertHand(ctx context.Context, gameID string, handNumber, dealerSeat, sbSeat, bbSeat int, street, boardCards string, pot int) (handID string, err error)
	InsertHoleCards(ctx context.Context, handID, userID, card1, card2 string) error
	InsertAction(ctx context.Context, handID, userID, actionType string, amount int, street string) error
	UpdateHandBoardStreetPot(ctx context.Context, handID, boardCards, street string, pot int) error
	InsertWinner(ctx context.Context, handID, userID string, amountWon int, handRankName string) error
	MarkHandCompleted(ctx context.Context, handID string) error
}
