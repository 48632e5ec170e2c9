package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a frame to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong from the peer.
	pongWait = 60 * time.Second

	// Ping period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum inbound frame size. The only legal inbound frame is tiny.
	maxMessageSize = 4096

	// Outbound frame buffer per connection.
	sendBufferSize = 256
)

var ErrSessionClosed = errors.New("session closed")

// ReadTracker marks the conversation between userID and peerID as read for
// userID. The conversation service implements it; tests substitute fakes.
type ReadTracker interface {
	MarkConversationRead(ctx context.Context, userID, peerID string) error
}

// Session owns one authenticated websocket connection. Its lifecycle is a
// two-state machine, open then closed, driven by an atomic flag: whichever
// pump fails first runs the teardown, and the teardown runs exactly once.
// Unregister is therefore called exactly once per session.
type Session struct {
	userID   string
	conn     *websocket.Conn
	registry *Registry
	tracker  ReadTracker
	logger   *slog.Logger

	send    chan []byte
	done    chan struct{}
	closed  atomic.Bool
	onClose func()
}

func newSession(userID string, conn *websocket.Conn, registry *Registry, tracker ReadTracker, logger *slog.Logger, onClose func()) *Session {
	return &Session{
		userID:   userID,
		conn:     conn,
		registry: registry,
		tracker:  tracker,
		logger:   logger,
		send:     make(chan []byte, sendBufferSize),
		done:     make(chan struct{}),
		onClose:  onClose,
	}
}

// WriteMessage implements Conn by queueing the frame for the write pump.
// The message type is fixed to text on the wire; a full buffer means the
// client has stopped draining and the frame is dropped with an error.
func (s *Session) WriteMessage(_ int, data []byte) error {
	if s.closed.Load() {
		return ErrSessionClosed
	}
	select {
	case s.send <- data:
		return nil
	default:
		return errors.New("send buffer full")
	}
}

// Close implements Conn and tears the session down.
func (s *Session) Close() error {
	s.close()
	return nil
}

// close transitions open -> closed at most once: removes the registry entry,
// stops the write pump and closes the underlying socket.
func (s *Session) close() {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}
	s.registry.Unregister(s.userID, s)
	close(s.done)
	s.conn.Close()
	if s.onClose != nil {
		s.onClose()
	}
	s.logger.Debug("websocket session closed", "userId", s.userID)
}

func (s *Session) readPump() {
	defer s.close()

	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Debug("websocket read error", "userId", s.userID, "error", err)
			}
			return
		}
		s.handleFrame(data)
	}
}

// handleFrame processes one inbound frame. Malformed payloads are logged and
// dropped; they never terminate the connection.
func (s *Session) handleFrame(data []byte) {
	var frame inboundFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		s.logger.Warn("dropping malformed frame", "userId", s.userID, "error", err)
		return
	}
	if frame.Type != frameMessageOpen {
		return
	}

	peerID := ""
	if frame.UserID != nil {
		peerID = *frame.UserID
	}
	s.registry.SetFocus(s.userID, peerID)

	if peerID == "" || s.tracker == nil {
		return
	}
	// Read tracking is a side effect the channel must not depend on: run it
	// off the read loop and only log failures.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.tracker.MarkConversationRead(ctx, s.userID, peerID); err != nil {
			s.logger.Error("failed to mark conversation read",
				"userId", s.userID, "peerId", peerID, "error", err)
		}
	}()
}

func (s *Session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.close()
	}()

	for {
		select {
		case data := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-s.done:
			return
		}
	}
}
