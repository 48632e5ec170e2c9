package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"chat-api/internal/models"
	"chat-api/internal/token"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDirectory struct {
	mu      sync.Mutex
	users   map[string]*models.User
	queried bool
}

func (d *fakeDirectory) FindByID(_ context.Context, id string) (*models.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.queried = true
	user, ok := d.users[id]
	if !ok {
		return nil, errors.New("user not found")
	}
	return user, nil
}

func (d *fakeDirectory) wasQueried() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.queried
}

type fakeTracker struct {
	calls chan [2]string
	err   error
}

func newFakeTracker() *fakeTracker {
	return &fakeTracker{calls: make(chan [2]string, 8)}
}

func (f *fakeTracker) MarkConversationRead(_ context.Context, userID, peerID string) error {
	f.calls <- [2]string{userID, peerID}
	return f.err
}

type wsFixture struct {
	server   *httptest.Server
	registry *Registry
	codec    *token.Codec
	dir      *fakeDirectory
	tracker  *fakeTracker
}

func newWSFixture(t *testing.T) *wsFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	codec, err := token.NewCodec("access-secret", "refresh-secret", time.Minute, time.Hour)
	require.NoError(t, err)

	registry := NewRegistry(nil)
	dir := &fakeDirectory{users: map[string]*models.User{}}
	tracker := newFakeTracker()

	engine := gin.New()
	handler := NewHandler(codec, dir, registry, tracker, nil, nil)
	engine.GET("/ws", handler.HandleWebSocket)

	server := httptest.NewServer(engine)
	t.Cleanup(server.Close)

	return &wsFixture{server: server, registry: registry, codec: codec, dir: dir, tracker: tracker}
}

func (f *wsFixture) wsURL(query string) string {
	return "ws" + strings.TrimPrefix(f.server.URL, "http") + "/ws" + query
}

func (f *wsFixture) dial(t *testing.T, query string) *websocket.Conn {
	t.Helper()
	conn, resp, err := websocket.DefaultDialer.Dial(f.wsURL(query), nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForRegistration(t *testing.T, registry *Registry, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for registry.Len() != want {
		if time.Now().After(deadline) {
			t.Fatalf("registry size never reached %d (got %d)", want, registry.Len())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestUpgradeRejectedWithoutTokens(t *testing.T) {
	f := newWSFixture(t)

	for _, query := range []string{"", "?accessToken=abc", "?refreshToken=abc"} {
		_, resp, err := websocket.DefaultDialer.Dial(f.wsURL(query), nil)
		require.Error(t, err)
		require.NotNil(t, resp)
		resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	}
	assert.Equal(t, 0, f.registry.Len(), "rejected upgrades must never reach the registry")
}

func TestUpgradeAcceptedWithValidAccessToken(t *testing.T) {
	f := newWSFixture(t)

	pair, err := f.codec.IssuePair("u1", 1)
	require.NoError(t, err)

	f.dial(t, "?accessToken="+pair.AccessToken+"&refreshToken=whatever")
	waitForRegistration(t, f.registry, 1)

	assert.False(t, f.dir.wasQueried(), "access-token fast path must not hit the user directory")
}

func TestUpgradeFallsBackToRefreshToken(t *testing.T) {
	f := newWSFixture(t)
	f.dir.users["u1"] = &models.User{ID: "u1", TokenVersion: 2}

	pair, err := f.codec.IssuePair("u1", 2)
	require.NoError(t, err)

	f.dial(t, "?accessToken=expired-garbage&refreshToken="+pair.RefreshToken)
	waitForRegistration(t, f.registry, 1)
	assert.True(t, f.dir.wasQueried())
}

func TestUpgradeRejectsRevokedRefreshToken(t *testing.T) {
	f := newWSFixture(t)
	// Stored counter moved past the token's version: logout-everywhere happened.
	f.dir.users["u1"] = &models.User{ID: "u1", TokenVersion: 3}

	pair, err := f.codec.IssuePair("u1", 2)
	require.NoError(t, err)

	_, resp, err := websocket.DefaultDialer.Dial(f.wsURL("?accessToken=bad&refreshToken="+pair.RefreshToken), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, 0, f.registry.Len())
}

func TestUpgradeRejectsUnknownUserOnRefreshPath(t *testing.T) {
	f := newWSFixture(t)

	pair, err := f.codec.IssuePair("ghost", 1)
	require.NoError(t, err)

	_, resp, err := websocket.DefaultDialer.Dial(f.wsURL("?accessToken=bad&refreshToken="+pair.RefreshToken), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestFocusSignalInvokesReadTracker(t *testing.T) {
	f := newWSFixture(t)

	pair, err := f.codec.IssuePair("u1", 1)
	require.NoError(t, err)
	conn := f.dial(t, "?accessToken="+pair.AccessToken+"&refreshToken=x")
	waitForRegistration(t, f.registry, 1)

	err = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"message-open","userId":"peer-1"}`))
	require.NoError(t, err)

	select {
	case call := <-f.tracker.calls:
		assert.Equal(t, [2]string{"u1", "peer-1"}, call)
	case <-time.After(2 * time.Second):
		t.Fatal("read tracker was never invoked")
	}
	assert.Eventually(t, func() bool {
		return f.registry.IsFocusedOn("u1", "peer-1")
	}, 2*time.Second, 5*time.Millisecond)
}

func TestMalformedFrameKeepsConnectionAlive(t *testing.T) {
	f := newWSFixture(t)

	pair, err := f.codec.IssuePair("u1", 1)
	require.NoError(t, err)
	conn := f.dial(t, "?accessToken="+pair.AccessToken+"&refreshToken=x")
	waitForRegistration(t, f.registry, 1)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))

	// A valid frame afterwards still works, so the bad one was just dropped.
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"message-open","userId":"p"}`)))
	select {
	case <-f.tracker.calls:
	case <-time.After(2 * time.Second):
		t.Fatal("connection did not survive the malformed frame")
	}
	assert.Equal(t, 1, f.registry.Len())
}

func TestDisconnectRemovesRegistryEntry(t *testing.T) {
	f := newWSFixture(t)

	pair, err := f.codec.IssuePair("u1", 1)
	require.NoError(t, err)
	conn := f.dial(t, "?accessToken="+pair.AccessToken+"&refreshToken=x")
	waitForRegistration(t, f.registry, 1)

	conn.Close()
	waitForRegistration(t, f.registry, 0)
}

// End-to-end: connect, focus a peer, then have the server push a message.
// Exactly one new-message frame must arrive on the socket.
func TestConnectFocusAndReceivePush(t *testing.T) {
	f := newWSFixture(t)

	pair, err := f.codec.IssuePair("A", 1)
	require.NoError(t, err)
	conn := f.dial(t, "?accessToken="+pair.AccessToken+"&refreshToken=x")
	waitForRegistration(t, f.registry, 1)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"message-open","userId":"B"}`)))
	select {
	case call := <-f.tracker.calls:
		assert.Equal(t, [2]string{"A", "B"}, call)
	case <-time.After(2 * time.Second):
		t.Fatal("conversation was never marked read")
	}

	msg := &models.Message{ID: "m1", SenderID: "B", RecipientID: "A", Text: "hi", CreatedAt: time.Now().UTC()}
	f.registry.Send("A", NewMessage(msg))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var frame NewMessageFrame
	require.NoError(t, json.Unmarshal(data, &frame))
	assert.Equal(t, "new-message", frame.Type)
	require.NotNil(t, frame.Message)
	assert.Equal(t, "m1", frame.Message.ID)
	assert.Equal(t, "B", frame.Message.SenderID)

	// The sender is the focused peer, so the message must not flip the
	// conversation back to unread.
	assert.True(t, f.registry.IsFocusedOn("A", "B"))
}
