package main

import (
	"context"
	"errors"
	"io"
	"log"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/julienschmidt/httprouter"

	"github.com/dgonzalez7/three-thirteen/internal/protocol"
	"github.com/dgonzalez7/three-thirteen/internal/room"
)

func logf(cfg *Config, format string, args ...interface{}) {
	if cfg.verbose {
		log.Printf(format, args...)
	}
}

func serveHealth() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, "ok")
	}
}

// serveLobby implements GET /ws/lobby: a read-only feed of rooms_update
// snapshots, per spec.md §6.
func serveLobby(cfg *Config, hub *room.Hub) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		conn, err := room.Upgrade(w, r)
		if err != nil {
			logf(cfg, "lobby upgrade error: %v", err)
			return
		}

		ch, snapshot := hub.SubscribeLobby()
		defer hub.UnsubscribeLobby(ch)

		conn.Enqueue(protocol.Envelope{Type: protocol.MsgRoomsUpdate, Payload: snapshot})

		go conn.WritePump()
		go func() {
			for payload := range ch {
				conn.Enqueue(protocol.Envelope{Type: protocol.MsgRoomsUpdate, Payload: payload})
			}
		}()

		// /ws/lobby accepts no client commands; drain and discard frames
		// until the socket closes, per spec.md §6.
		conn.ReadLoop(func(protocol.Envelope, []byte) {})
		conn.Close()
	}
}

// serveRoom implements GET /ws/room/:room_id?player_id=...: the
// connection manager of spec.md §4.5.
func serveRoom(cfg *Config, hub *room.Hub, dispatcher *room.Dispatcher) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		roomID := p.ByName("room_id")
		playerID := r.URL.Query().Get("player_id")
		if playerID == "" {
			http.Error(w, "missing player_id query parameter", http.StatusBadRequest)
			return
		}

		target, ok := hub.GetRoom(roomID)
		if !ok {
			http.Error(w, "room not found", http.StatusNotFound)
			return
		}

		conn, err := room.Upgrade(w, r)
		if err != nil {
			logf(cfg, "room upgrade error: %v", err)
			return
		}

		target.Lock()
		target.Connect(playerID, conn)
		target.Broadcast(target.LobbyUpdateEnvelope())
		if target.Game != nil {
			conn.Enqueue(target.GameStateEnvelopeFor(playerID))
		}
		target.Unlock()

		log.Printf("[room %s] player %s connected (%s)", roomID, playerID, conn.InstanceID())

		go conn.WritePump()

		conn.ReadLoop(func(env protocol.Envelope, raw []byte) {
			dispatcher.Handle(target, playerID, env, raw)
		})

		target.Lock()
		target.Disconnect(playerID, conn)
		if target.Status() == room.StatusGathering {
			target.Broadcast(target.LobbyUpdateEnvelope())
		}
		target.Unlock()

		log.Printf("[room %s] player %s disconnected (%s)", roomID, playerID, conn.InstanceID())
	}
}

// Serve builds the HTTP server and blocks until ctx is cancelled.
func Serve(ctx context.Context, cfg *Config) error {
	hub := room.NewHub(cfg.roomCount)
	dispatcher := room.NewDispatcher()

	mux := httprouter.New()
	mux.GET("/health", serveHealth())
	mux.GET("/ws/lobby", serveLobby(cfg, hub))
	mux.GET("/ws/room/:room_id", serveRoom(cfg, hub, dispatcher))

	srv := &http.Server{
		Addr:         net.JoinHostPort(cfg.bind, strconv.Itoa(cfg.port)),
		Handler:      mux,
		ReadTimeout:  cfg.readTimeout,
		WriteTimeout: cfg.writeTimeout,
		IdleTimeout:  10 * time.Minute,
	}

	log.Printf("listening on http://%s (%d rooms)", srv.Addr, cfg.roomCount)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Println("server shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
