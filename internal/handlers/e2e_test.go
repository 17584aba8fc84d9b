package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"pod-service/internal/auth"
	"pod-service/internal/logger"
	"pod-service/internal/middleware"
	"pod-service/internal/mocks"
	"pod-service/internal/models"
	"pod-service/internal/repositories"
	"pod-service/internal/ws"
)

// memoryMessages is an in-process append-only store.
type memoryMessages struct {
	mu   sync.Mutex
	rows []models.ChatMessage
}

func (m *memoryMessages) CreateMessage(_ context.Context, in models.NewMessage) (models.ChatMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg := models.ChatMessage{
		ID:        int64(len(m.rows) + 1),
		PodID:     in.PodID,
		AuthorID:  in.AuthorID,
		Content:   in.Content,
		Kind:      in.Kind,
		Metadata:  in.Metadata,
		CreatedAt: time.Now().UTC(),
	}
	m.rows = append(m.rows, msg)
	return msg, nil
}

func (m *memoryMessages) GetMessage(_ context.Context, id int64) (models.ChatMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id <= 0 || int(id) > len(m.rows) {
		return models.ChatMessage{}, repositories.ErrMessageNotFound
	}
	return m.rows[id-1], nil
}

func (m *memoryMessages) ListRecentMessages(_ context.Context, podID string, limit int, beforeID int64) ([]models.ChatMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.ChatMessage
	for i := len(m.rows) - 1; i >= 0 && len(out) < limit; i-- {
		row := m.rows[i]
		if row.PodID != podID || (beforeID > 0 && row.ID >= beforeID) {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}

func TestSendReachesRoomAndHistory(t *testing.T) {
	gin.SetMode(gin.TestMode)
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	store := &memoryMessages{}
	pods := new(mocks.PodRepositoryMock)
	pods.On("IsMember", mock.Anything, "p1", mock.Anything).Return(true, nil)

	hub := ws.NewHub(pods, store, nil, ws.Options{}, logger.Nop())
	messages := NewMessageHandler(pods, store, hub, nil, nil, logger.Nop())

	r := gin.New()
	authed := r.Group("/", middleware.AuthMiddleware(jwtManager))
	authed.GET("/ws", ws.NewHandler(context.Background(), hub, nil).Handle)
	authed.GET("/pods/:pod_id/messages", messages.GetMessages)
	authed.POST("/pods/:pod_id/messages", messages.PostMessage)
	srv := httptest.NewServer(r)
	defer srv.Close()
	defer hub.Shutdown(context.Background())

	dial := func(userID string) *websocket.Conn {
		token, err := jwtManager.Generate(userID)
		require.NoError(t, err)
		conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws?token="+token, nil)
		require.NoError(t, err)
		return conn
	}
	read := func(conn *websocket.Conn) models.PodEvent {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
		var ev models.PodEvent
		require.NoError(t, conn.ReadJSON(&ev))
		return ev
	}

	c1 := dial("u1")
	defer c1.Close()
	c2 := dial("u2")
	defer c2.Close()

	require.NoError(t, c1.WriteJSON(map[string]string{"type": "join_pod", "userId": "u1", "podId": "p1"}))
	require.Eventually(t, func() bool { return hub.OnlineCount("p1") == 1 }, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, c2.WriteJSON(map[string]string{"type": "join_pod", "userId": "u2", "podId": "p1"}))
	assert.Equal(t, models.PodEvent{Type: models.EventUserJoined, UserID: "u2"}, read(c1))

	token, err := jwtManager.Generate("u1")
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/pods/p1/messages", strings.NewReader(`{"content":"hello"}`))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	for _, conn := range []*websocket.Conn{c1, c2} {
		ev := read(conn)
		require.Equal(t, models.EventNewMessage, ev.Type)
		assert.Equal(t, "hello", ev.Message.Content)

		history, err := store.ListRecentMessages(context.Background(), "p1", 10, 0)
		require.NoError(t, err)
		require.Len(t, history, 1)
		assert.Equal(t, ev.Message.ID, history[0].ID)
	}
}
