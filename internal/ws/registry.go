package ws

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"
)

// Conn is the slice of a websocket connection the registry needs. Sessions
// implement it for real traffic; tests substitute in-memory conns.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

type entry struct {
	conn          Conn
	focusedPeerID string
}

// Registry maps a user id to its single live connection plus the peer whose
// conversation that user is currently viewing. At most one entry exists per
// user; a new connection replaces the old entry outright.
//
// The registry is shared mutable state across connection goroutines and
// request handlers, so every operation takes the lock. It is injected where
// needed rather than living as a package singleton.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
	logger  *slog.Logger
}

func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		entries: make(map[string]*entry),
		logger:  logger,
	}
}

// Register inserts or replaces the entry for userID. Last login wins: the
// superseded connection is not closed here, it keeps running until its own
// close or error event, and that event cannot evict the new entry (see
// Unregister).
func (r *Registry) Register(userID string, conn Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[userID] = &entry{conn: conn}
}

// Unregister removes the entry for userID, but only while it still owns conn.
// This makes the call idempotent and makes a stale connection's teardown a
// no-op once a newer connection has taken the slot.
func (r *Registry) Unregister(userID string, conn Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[userID]
	if !ok || e.conn != conn {
		return
	}
	delete(r.entries, userID)
}

// SetFocus records which peer's conversation the user is viewing. Empty
// peerID clears the focus. No-op when the user has no live connection.
func (r *Registry) SetFocus(userID, peerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[userID]
	if !ok {
		return
	}
	e.focusedPeerID = peerID
}

// IsFocusedOn reports whether userID is connected and currently viewing
// peerID's conversation. Offline users are never focused.
func (r *Registry) IsFocusedOn(userID, peerID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[userID]
	return ok && peerID != "" && e.focusedPeerID == peerID
}

// Send marshals v and writes it as one text frame to userID's connection.
// Fire and forget: an offline user is a silent no-op, a write failure is
// logged and dropped. Delivery is at most once; offline users see the data
// through the REST endpoints instead.
func (r *Registry) Send(userID string, v any) {
	r.mu.RLock()
	e, ok := r.entries[userID]
	r.mu.RUnlock()
	if !ok {
		return
	}

	data, err := json.Marshal(v)
	if err != nil {
		r.logger.Error("failed to marshal outbound frame", "userId", userID, "error", err)
		return
	}
	if err := e.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		r.logger.Warn("failed to push frame", "userId", userID, "error", err)
	}
}

// Len reports the number of live connections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// CloseAll closes every live connection. Used during shutdown; each close
// triggers the session's own teardown, which unregisters the entry.
func (r *Registry) CloseAll() {
	r.mu.RLock()
	conns := make([]Conn, 0, len(r.entries))
	for _, e := range r.entries {
		conns = append(conns, e.conn)
	}
	r.mu.RUnlock()

	for _, conn := range conns {
		if err := conn.Close(); err != nil {
			r.logger.Debug("close during shutdown", "error", err)
		}
	}
}
