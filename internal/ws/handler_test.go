package ws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pod-service/internal/auth"
	"pod-service/internal/logger"
	"pod-service/internal/middleware"
	"pod-service/internal/models"
)

type wsFixture struct {
	hub    *Hub
	server *httptest.Server
	jwt    *auth.JWTManager
}

func newWSFixture(t *testing.T, opts Options) *wsFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	hub := NewHub(nil, nil, nil, opts, logger.Nop())
	handler := NewHandler(context.Background(), hub, nil)

	r := gin.New()
	r.GET("/ws", middleware.AuthMiddleware(jwtManager), handler.Handle)
	srv := httptest.NewServer(r)
	t.Cleanup(func() {
		hub.Shutdown(context.Background())
		srv.Close()
	})
	return &wsFixture{hub: hub, server: srv, jwt: jwtManager}
}

func (f *wsFixture) dial(t *testing.T, userID string) *websocket.Conn {
	t.Helper()
	token, err := f.jwt.Generate(userID)
	require.NoError(t, err)
	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) models.PodEvent {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	var ev models.PodEvent
	require.NoError(t, conn.ReadJSON(&ev))
	return ev
}

// joinBoth joins u1 then u2 to podID and waits until u1 has seen u2 arrive.
func (f *wsFixture) joinBoth(t *testing.T, c1, c2 *websocket.Conn, podID string) {
	t.Helper()
	require.NoError(t, c1.WriteJSON(joinFrame("u1", podID)))
	require.Eventually(t, func() bool { return f.hub.OnlineCount(podID) == 1 }, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, c2.WriteJSON(joinFrame("u2", podID)))
	ev := readEvent(t, c1)
	assert.Equal(t, models.PodEvent{Type: models.EventUserJoined, UserID: "u2"}, ev)
}

func TestHandshakeRequiresToken(t *testing.T) {
	f := newWSFixture(t, Options{})
	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/ws"

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestSocketBroadcastAndDisconnect(t *testing.T) {
	f := newWSFixture(t, Options{})
	c1 := f.dial(t, "u1")
	c2 := f.dial(t, "u2")
	f.joinBoth(t, c1, c2, "p1")

	f.hub.BroadcastMessage(context.Background(), models.ChatMessage{ID: 1, PodID: "p1", AuthorID: "u1", Content: "hello"})
	for _, conn := range []*websocket.Conn{c1, c2} {
		ev := readEvent(t, conn)
		require.Equal(t, models.EventNewMessage, ev.Type)
		assert.Equal(t, "hello", ev.Message.Content)
	}

	require.NoError(t, c2.Close())
	ev := readEvent(t, c1)
	assert.Equal(t, models.PodEvent{Type: models.EventUserLeft, UserID: "u2"}, ev)
	require.Eventually(t, func() bool { return f.hub.OnlineCount("p1") == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestJoinAsAnotherUserIsIgnored(t *testing.T) {
	f := newWSFixture(t, Options{})
	c := f.dial(t, "u1")

	require.NoError(t, c.WriteJSON(joinFrame("u2", "p1")))
	require.NoError(t, c.WriteJSON(joinFrame("u1", "p1")))

	require.Eventually(t, func() bool {
		users := f.hub.OnlineUsers("p1")
		return len(users) == 1 && users[0] == "u1"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestIdleConnectionTimesOut(t *testing.T) {
	f := newWSFixture(t, Options{PongWait: time.Second, WriteWait: 200 * time.Millisecond})
	c1 := f.dial(t, "u1")
	idle := f.dial(t, "u2")
	f.joinBoth(t, c1, idle, "p1")

	// c1 keeps reading, so its pongs flow; idle never reads and never answers pings.
	ev := readEvent(t, c1)
	assert.Equal(t, models.PodEvent{Type: models.EventUserLeft, UserID: "u2"}, ev)
	assert.Equal(t, []string{"u1"}, f.hub.OnlineUsers("p1"))
}
