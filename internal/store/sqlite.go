package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/google/uuid"
)

// SQLStore is the production Store backed by sqlite: a thin wrapper
// over *sql.DB with CREATE TABLE IF NOT EXISTS setup run once at
// construction.
type SQLStore struct {
	db *sql.DB
}

// Open connects to (and if necessary creates) the sqlite database at
// path and ensures the schema exists.
func Open(path string) (*SQLStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLStore{db: db}, nil
}

// Close releases the underlying database handle.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

func createTables(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS hands (
			id TEXT PRIMARY KEY,
			game_id TEXT NOT NULL,
			hand_number INTEGER NOT NULL,
			dealer_seat INTEGER NOT NULL,
			sb_seat INTEGER NOT NULL,
			bb_seat INTEGER NOT NULL,
			current_street TEXT NOT NULL,
			pot_size INTEGER NOT NULL DEFAULT 0,
			board_cards TEXT NOT NULL DEFAULT '',
			is_completed BOOLEAN NOT NULL DEFAULT FALSE,
			start_time TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS hand_cards (
			hand_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			card_1 TEXT NOT NULL,
			card_2 TEXT NOT NULL,
			PRIMARY KEY (hand_id, user_id),
			FOREIGN KEY (hand_id) REFERENCES hands(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS actions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			hand_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			action_type TEXT NOT NULL,
			amount INTEGER NOT NULL,
			street TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (hand_id) REFERENCES hands(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS winners (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			hand_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			amount_won INTEGER NOT NULL,
			hand_rank TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (hand_id) REFERENCES hands(id) ON DELETE CASCADE
		)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("store: create schema: %w", err)
		}
	}
	return nil
}

// InsertHand inserts a new hand record and returns its generated id.
// Callers must insert the hand row before inserting its hole cards,
// since hole-card rows reference the generated hand id.
func (s *SQLStore) InsertHand(ctx context.Context, gameID string, handNumber, dealerSeat, sbSeat, bbSeat int, street, boardCards string, pot int) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO hands (id, game_id, hand_number, dealer_seat, sb_seat, bb_seat, current_street, pot_size, board_cards)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, id, gameID, handNumber, dealerSeat, sbSeat, bbSeat, street, pot, boardCards)
	if err != nil {
		return "", fmt.Errorf("store: insert hand: %w", err)
	}
	return id, nil
}

func (s *SQLStore) InsertHoleCards(ctx context.Context, handID, userID, card1, card2 string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO hand_cards (hand_id, user_id, card_1, card_2) VALUES (?, ?, ?, ?)
	`, handID, userID, card1, card2)
	if err != nil {
		return fmt.Errorf("store: insert hole cards: %w", err)
	}
	return nil
}

func (s *SQLStore) InsertAction(ctx context.Context, handID, userID, actionType string, amount int, street string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO actions (hand_id, user_id, action_type, amount, street) VALUES (?, ?, ?, ?, ?)
	`, handID, userID, actionType, amount, street)
	if err != nil {
		return fmt.Errorf("store: insert action: %w", err)
	}
	return nil
}

func (s *SQLStore) UpdateHandBoardStreetPot(ctx context.Context, handID, boardCards, street string, pot int) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE hands SET board_cards = ?, current_street = ?, pot_size = ? WHERE id = ?
	`, boardCards, street, pot, handID)
	if err != nil {
		return fmt.Errorf("store: update hand board/street/pot: %w", err)
	}
	return nil
}

func (s *SQLStore) InsertWinner(ctx context.Context, handID, userID string, amountWon int, handRankName string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO winners (hand_id, user_id, amount_won, hand_rank) VALUES (?, ?, ?, ?)
	`, handID, userID, amountWon, handRankName)
	if err != nil {
		return fmt.Errorf("store: insert winner: %w", err)
	}
	return nil
}

func (s *SQLStore) MarkHandCompleted(ctx context.Context, handID string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE hands SET is_completed = TRUE WHERE id = ?`, handID)
	if err != nil {
		return fmt.Errorf("store: mark hand completed: %w", err)
	}
	return nil
}

var _ Store = (*SQLStore)(nil)

// defaultTimeout bounds a single store call so a wedged database
// cannot block the Engine's single-threaded actor indefinitely.
const defaultTimeout = 5 * time.Second

// WithDefaultTimeout returns a context bounded by defaultTimeout,
// derived from parent. Callers that already carry a deadline should
// pass their own context to the Store methods directly instead.
func WithDefaultTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, defaultTimeout)
}
