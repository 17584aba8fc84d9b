package ws

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"pod-service/internal/logger"
	"pod-service/internal/models"
)

type fakeTransport struct {
	mu         sync.Mutex
	frames     [][]byte
	failWrites bool
	closed     int
	reads      chan []byte
	// block, when set before use, holds every write until it is closed.
	block chan struct{}
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{reads: make(chan []byte, 8)}
}

func (f *fakeTransport) ReadMessage() (int, []byte, error) {
	data, ok := <-f.reads
	if !ok {
		return 0, nil, io.EOF
	}
	return websocket.TextMessage, data, nil
}

func (f *fakeTransport) WriteMessage(_ int, data []byte) error {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrites {
		return errors.New("broken pipe")
	}
	f.frames = append(f.frames, append([]byte(nil), data...))
	return nil
}

func (f *fakeTransport) WriteControl(int, []byte, time.Time) error { return nil }
func (f *fakeTransport) SetReadDeadline(time.Time) error           { return nil }
func (f *fakeTransport) SetWriteDeadline(time.Time) error          { return nil }
func (f *fakeTransport) SetPongHandler(func(string) error)         {}

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed++
	return nil
}

func (f *fakeTransport) setFailWrites(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failWrites = v
}

func (f *fakeTransport) frameCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.frames)
}

func (f *fakeTransport) closeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *fakeTransport) events(t *testing.T) []models.PodEvent {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.PodEvent, 0, len(f.frames))
	for _, raw := range f.frames {
		var ev models.PodEvent
		require.NoError(t, json.Unmarshal(raw, &ev))
		out = append(out, ev)
	}
	return out
}

func (f *fakeTransport) eventsOfType(t *testing.T, eventType models.EventType) []models.PodEvent {
	t.Helper()
	var out []models.PodEvent
	for _, ev := range f.events(t) {
		if ev.Type == eventType {
			out = append(out, ev)
		}
	}
	return out
}

type memberFunc func(podID, userID string) bool

func (f memberFunc) IsMember(_ context.Context, podID, userID string) (bool, error) {
	return f(podID, userID), nil
}

var errNoMessage = errors.New("message not found")

type messageMap map[int64]models.ChatMessage

func (m messageMap) GetMessage(_ context.Context, id int64) (models.ChatMessage, error) {
	msg, ok := m[id]
	if !ok {
		return models.ChatMessage{}, errNoMessage
	}
	return msg, nil
}

func newTestHub(members MembershipChecker, messages MessageLookup) *Hub {
	return NewHub(members, messages, nil, Options{}, logger.Nop())
}

func connect(h *Hub, authUserID string) (*Conn, *fakeTransport) {
	tr := newFakeTransport()
	conn := NewConn(tr, ConnInfo{AuthUserID: authUserID})
	h.register(conn)
	return conn, tr
}

func sendFrame(t *testing.T, h *Hub, conn *Conn, v any) {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	h.handleFrame(context.Background(), conn, data)
}

func joinFrame(userID, podID string) map[string]string {
	return map[string]string{"type": "join_pod", "userId": userID, "podId": podID}
}
