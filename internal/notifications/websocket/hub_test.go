package websocket

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func dial(t *testing.T, hub *Hub, userID uuid.UUID) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = hub.Serve(w, r, userID)
	}))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForConnections(t *testing.T, hub *Hub, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return hub.ConnectionCount() == n }, time.Second, 10*time.Millisecond)
}

func TestSendToUserReachesOnlyThatUser(t *testing.T) {
	hub := NewHub(nil, zap.NewNop())
	alice, bob := uuid.New(), uuid.New()

	aliceConn := dial(t, hub, alice)
	bobConn := dial(t, hub, bob)
	waitForConnections(t, hub, 2)

	sent := hub.SendToUser(alice, Message{Type: "match.created", Data: map[string]string{"id": "m1"}})
	assert.Equal(t, 1, sent)

	var got Message
	aliceConn.SetReadDeadline(time.Now().Add(time.Second))
	require.NoError(t, aliceConn.ReadJSON(&got))
	assert.Equal(t, "match.created", got.Type)

	bobConn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	_, _, err := bobConn.ReadMessage()
	assert.Error(t, err)
}

func TestSendToDisconnectedUser(t *testing.T) {
	hub := NewHub(nil, zap.NewNop())
	assert.Equal(t, 0, hub.SendToUser(uuid.New(), Message{Type: "x"}))
}

func TestUnregisterOnClientClose(t *testing.T) {
	hub := NewHub(nil, zap.NewNop())
	conn := dial(t, hub, uuid.New())
	waitForConnections(t, hub, 1)

	conn.Close()
	waitForConnections(t, hub, 0)
}

func TestCheckOrigin(t *testing.T) {
	hub := NewHub([]string{"https://portal.example.org"}, zap.NewNop())

	r := httptest.NewRequest(http.MethodGet, "/ws", nil)
	r.Header.Set("Origin", "https://evil.example.com")
	assert.False(t, hub.upgrader.CheckOrigin(r))

	r.Header.Set("Origin", "https://portal.example.org")
	assert.True(t, hub.upgrader.CheckOrigin(r))
}
