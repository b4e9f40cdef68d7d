package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/elieapp/elie/pkg/domain"
	"github.com/elieapp/elie/pkg/graph"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// liveEvent is one WebSocket push: a full session snapshot with its
// rendered figure, or a deletion notice.
type liveEvent struct {
	Session *SessionView  `json:"session,omitempty"`
	Figure  *graph.Figure `json:"figure,omitempty"`
	Deleted bool          `json:"deleted,omitempty"`
}

// handleLiveWebSocket streams session snapshots to the client: one on
// connect and one for every store event touching this session, so a
// second tab follows along without polling.
func (s *Server) handleLiveWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	if _, err := s.sessions.Get(r.Context(), sessionID); err != nil {
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("Failed to upgrade websocket", "error", err)
		return
	}
	defer ws.Close()

	done := make(chan struct{})
	updates := s.sessions.Subscribe()
	defer s.sessions.Unsubscribe(updates)

	// Send the initial snapshot.
	if err := s.syncSession(ws, sessionID); err != nil {
		slog.Error("Failed initial session sync", "error", err)
		return
	}

	var wg sync.WaitGroup
	wg.Add(1)

	// Writer goroutine: pushes fresh snapshots to the client.
	go func() {
		defer wg.Done()
		defer ws.Close()

		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-done:
				return
			case eventID, ok := <-updates:
				if !ok {
					// Store shut down.
					return
				}
				if eventID != sessionID {
					continue
				}
				if err := s.syncSession(ws, sessionID); err != nil {
					if !errors.Is(err, domain.ErrNotFound) {
						slog.Error("Failed session sync", "error", err)
					}
					return
				}
			case <-ticker.C:
				deadline := time.Now().Add(5 * time.Second)
				if err := ws.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
					return
				}
			}
		}
	}()

	// Reader loop: the client sends nothing; we only watch for the close.
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.Debug("WebSocket read ended", "error", err)
			}
			break
		}
	}

	close(done)
	wg.Wait()
}

// syncSession writes the current snapshot for a session. A deleted
// session produces a final deletion event before the error return.
func (s *Server) syncSession(ws *websocket.Conn, sessionID string) error {
	sess, err := s.sessions.Get(context.Background(), sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			ws.WriteJSON(liveEvent{Deleted: true})
		}
		return err
	}

	view := newSessionView(sess)
	return ws.WriteJSON(liveEvent{
		Session: &view,
		Figure:  s.graph.Figure(sess, graph.FigureParams{}),
	})
}
