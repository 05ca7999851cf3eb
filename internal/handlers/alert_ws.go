package handlers

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ruthwwikreddy/emergency/internal/services"
)

var alertUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// CORS for WebSocket is handled at the HTTP layer already.
		return true
	},
}

// SessionEvent is the wire format pushed over the alert WebSocket.
type SessionEvent struct {
	Type    string                 `json:"type"` // "session_updated", "session_closed"
	Session *services.AlertSession `json:"session,omitempty"`
}

// sessionHub fans session events out to every WebSocket connection
// watching a given session token. It implements services.SessionNotifier.
type sessionHub struct {
	mu    sync.Mutex
	conns map[string]map[*websocket.Conn]bool
}

var alertHub = &sessionHub{conns: make(map[string]map[*websocket.Conn]bool)}

func (h *sessionHub) register(token string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.conns[token] == nil {
		h.conns[token] = make(map[*websocket.Conn]bool)
	}
	h.conns[token][conn] = true
}

func (h *sessionHub) unregister(token string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.conns[token]; ok {
		delete(set, conn)
		if len(set) == 0 {
			delete(h.conns, token)
		}
	}
}

// broadcast sends an event to every watcher of the token. Write failures
// drop the connection; its reader loop cleans up on the next read.
func (h *sessionHub) broadcast(token string, evt SessionEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.conns[token] {
		if err := conn.WriteJSON(evt); err != nil {
			conn.Close()
			delete(h.conns[token], conn)
		}
	}
}

// SessionUpdated implements services.SessionNotifier.
func (h *sessionHub) SessionUpdated(session *services.AlertSession) {
	h.broadcast(session.Token, SessionEvent{Type: "session_updated", Session: session})
}

// SessionClosed implements services.SessionNotifier.
func (h *sessionHub) SessionClosed(token string) {
	h.broadcast(token, SessionEvent{Type: "session_closed"})
}

// AlertWebSocket handles GET /ws/alerts?session=<token>. The connection
// receives a snapshot immediately, then live session_updated events as
// location reports and edits recompose the message, and session_closed
// when the modal is dismissed.
func AlertWebSocket(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("session")
	if token == "" {
		http.Error(w, "session is required", http.StatusBadRequest)
		return
	}

	// Reject tokens that don't resolve to live state before upgrading.
	session, err := alertController.Get(r.Context(), token)
	if err != nil {
		http.Error(w, "alert session not found", http.StatusNotFound)
		return
	}

	conn, err := alertUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	alertHub.register(token, conn)
	defer alertHub.unregister(token, conn)

	// Initial snapshot so the client renders without a separate GET.
	if err := conn.WriteJSON(SessionEvent{Type: "session_updated", Session: session}); err != nil {
		return
	}

	conn.SetReadLimit(4 * 1024)
	_ = conn.SetReadDeadline(time.Now().Add(90 * time.Second))
	conn.SetPongHandler(func(appData string) error {
		_ = conn.SetReadDeadline(time.Now().Add(90 * time.Second))
		return nil
	})

	// Reader loop only keeps the connection alive; clients don't send
	// workflow commands over the socket.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(90 * time.Second))
	}
}
