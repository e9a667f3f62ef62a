// Command engineserver hosts the room registry behind a WebSocket
// endpoint: kong flags, zerolog console logging, and signal-driven
// graceful shutdown.
package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	charmlog "github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/rs/zerolog"

	"github.com/lox/holdem-engine/internal/broadcast"
	"github.com/lox/holdem-engine/internal/engine"
	"github.com/lox/holdem-engine/internal/room"
	"github.com/lox/holdem-engine/internal/store"
)

type CLI struct {
	Addr    string `kong:"default=':8080',help='Server address'"`
	DB      string `kong:"default='engine.db',help='Path to the sqlite database file'"`
	Debug   bool   `kong:"help='Enable debug logging'"`
	GameID  string `kong:"default='default',help='Game id new rooms are created under'"`
}

type createRoomRequest struct {
	RoomID string `json:"roomId"`
	Seats  []struct {
		UserID   string `json:"userId"`
		Username string `json:"username"`
		Position int    `json:"position"`
	} `json:"seats"`
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("engineserver"),
		kong.Description("Texas Hold'em room engine server"),
		kong.UsageOnError(),
	)

	level := zerolog.InfoLevel
	if cli.Debug {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().
		Timestamp().
		Logger()

	engineLogger := charmlog.New(os.Stderr)
	if cli.Debug {
		engineLogger.SetLevel(charmlog.DebugLevel)
	}

	st, err := store.Open(cli.DB)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open store")
	}
	defer func() { _ = st.Close() }()

	hub := broadcast.NewHub(engineLogger, nil)
	registry := room.NewRegistry(engineLogger, quartz.NewReal())

	mux := http.NewServeMux()
	mux.HandleFunc("/rooms", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		var req createRoomRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		seats := make([]engine.Seat, len(req.Seats))
		for i, s := range req.Seats {
			seats[i] = engine.Seat{UserID: s.UserID, Username: s.Username, Position: s.Position}
		}
		if _, err := registry.CreateRoom(req.RoomID, cli.GameID, seats, hub, st); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusCreated)
	})

	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		roomID := r.URL.Query().Get("room")
		userID := r.URL.Query().Get("user")
		if roomID == "" || userID == "" {
			http.Error(w, "room and user query parameters are required", http.StatusBadRequest)
			return
		}
		if _, ok := registry.Get(roomID); !ok {
			http.Error(w, "room not found", http.StatusNotFound)
			return
		}
		if err := hub.Upgrade(w, r, roomID, userID); err != nil {
			logger.Error().Err(err).Str("room", roomID).Str("user", userID).Msg("websocket upgrade failed")
		}
	})

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	srv := &http.Server{Addr: cli.Addr, Handler: mux}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info().Msg("shutting down")
		registry.ShutdownAll()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}()

	logger.Info().Str("addr", cli.Addr).Msg("engineserver starting")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal().Err(err).Msg("server failed")
		kctx.Exit(1)
	}
}
