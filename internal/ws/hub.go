package ws

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"pod-service/internal/logger"
	"pod-service/internal/models"
	"pod-service/internal/observability"
	"pod-service/internal/repositories"
)

// MembershipChecker decides whether a user may join a pod room.
type MembershipChecker interface {
	IsMember(ctx context.Context, podID string, userID string) (bool, error)
}

// MessageLookup resolves persisted messages referenced by relayed frames.
type MessageLookup interface {
	GetMessage(ctx context.Context, messageID int64) (models.ChatMessage, error)
}

// PresenceEmitter receives join and leave notifications, tagged with the
// request and trace ids of the socket's handshake.
type PresenceEmitter interface {
	Presence(ctx context.Context, podID, userID string, eventType models.EventType, requestID, traceID string)
}

// Options tunes socket timeouts. Zero values take the defaults.
type Options struct {
	PongWait  time.Duration
	WriteWait time.Duration
	ReadLimit int64
}

const (
	defaultPongWait  = 60 * time.Second
	defaultWriteWait = 10 * time.Second
	defaultReadLimit = 64 << 10
)

// Hub owns the room registry and drives each connection through
// Connected, Joined and Closed.
type Hub struct {
	registry   *Registry
	dispatcher *Dispatcher
	members    MembershipChecker
	messages   MessageLookup
	presence   PresenceEmitter
	opts       Options
	log        *logger.Logger

	mu    sync.Mutex
	conns map[*Conn]struct{}
}

// NewHub creates a hub. members, messages and presence may be nil.
func NewHub(members MembershipChecker, messages MessageLookup, presence PresenceEmitter, opts Options, log *logger.Logger) *Hub {
	if opts.PongWait <= 0 {
		opts.PongWait = defaultPongWait
	}
	if opts.WriteWait <= 0 {
		opts.WriteWait = defaultWriteWait
	}
	if opts.ReadLimit <= 0 {
		opts.ReadLimit = defaultReadLimit
	}
	log = log.With("component", "hub")
	registry := NewRegistry()
	h := &Hub{
		registry:   registry,
		dispatcher: NewDispatcher(registry, opts.WriteWait, log),
		members:    members,
		messages:   messages,
		presence:   presence,
		opts:       opts,
		log:        log,
		conns:      make(map[*Conn]struct{}),
	}
	h.dispatcher.onWriteFailure = func(conn *Conn, err error) {
		h.Disconnect(conn, err.Error())
	}
	return h
}

func (h *Hub) Registry() *Registry {
	return h.registry
}

// BroadcastMessage delivers a persisted message to its pod room, sender included.
func (h *Hub) BroadcastMessage(ctx context.Context, msg models.ChatMessage) int {
	return h.dispatcher.Broadcast(ctx, msg.PodID, models.NewMessageEvent(msg), nil)
}

// OnlineUsers lists distinct users connected to podID.
func (h *Hub) OnlineUsers(podID string) []string {
	return h.registry.Users(podID)
}

func (h *Hub) OnlineCount(podID string) int {
	return len(h.registry.Users(podID))
}

func (h *Hub) register(conn *Conn) {
	h.mu.Lock()
	h.conns[conn] = struct{}{}
	h.mu.Unlock()
	observability.IncWSActive()
	observability.IncWSEvent("ws_connect")
}

// Serve runs the read loop for conn until the transport fails or the peer
// stops answering pings.
func (h *Hub) Serve(ctx context.Context, conn *Conn) {
	h.register(conn)

	pongWait := h.opts.PongWait
	_ = conn.transport.SetReadDeadline(time.Now().Add(pongWait))
	conn.transport.SetPongHandler(func(string) error {
		return conn.transport.SetReadDeadline(time.Now().Add(pongWait))
	})

	done := make(chan struct{})
	go h.heartbeat(conn, done)

	reason := "closed"
	defer func() {
		close(done)
		h.Disconnect(conn, reason)
	}()

	for {
		_, data, err := conn.transport.ReadMessage()
		if err != nil {
			reason = err.Error()
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				observability.IncWSEvent("ws_error")
			}
			return
		}
		h.handleFrame(ctx, conn, data)
	}
}

func (h *Hub) heartbeat(conn *Conn, done <-chan struct{}) {
	ticker := time.NewTicker(h.opts.PongWait * 9 / 10)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := conn.ping(h.opts.WriteWait); err != nil {
				h.Disconnect(conn, "ping: "+err.Error())
				return
			}
		}
	}
}

func (h *Hub) handleFrame(ctx context.Context, conn *Conn, data []byte) {
	f, err := parseFrame(data)
	if err != nil {
		observability.IncWSEvent("ignored")
		h.log.Debug("ignoring frame", "conn_id", conn.ID(), "error", err)
		return
	}
	observability.IncWSEvent(string(f.eventType()))

	switch f := f.(type) {
	case joinPodFrame:
		h.join(ctx, conn, f)
	case leavePodFrame:
		h.leave(ctx, conn)
	case newMessageFrame:
		h.relay(ctx, conn, f)
	}
}

func (h *Hub) join(ctx context.Context, conn *Conn, f joinPodFrame) {
	if auth := conn.info.AuthUserID; auth != "" && auth != f.UserID {
		h.log.Warn("join rejected: user mismatch", "conn_id", conn.ID(), "pod_id", f.PodID, "ip", conn.info.IP, "request_id", conn.info.RequestID)
		return
	}
	if h.members != nil {
		ok, err := h.members.IsMember(ctx, f.PodID, f.UserID)
		if errors.Is(err, repositories.ErrPodNotFound) {
			h.log.Info("join rejected: unknown pod", "pod_id", f.PodID, "user_id", f.UserID, "request_id", conn.info.RequestID)
			return
		}
		if err != nil {
			h.log.Error("membership check failed", "pod_id", f.PodID, "user_id", f.UserID, "error", err)
			return
		}
		if !ok {
			h.log.Info("join rejected: not a member", "pod_id", f.PodID, "user_id", f.UserID, "request_id", conn.info.RequestID)
			return
		}
	}

	prevPod, prevUser, ok := conn.enter(h.registry, f.UserID, f.PodID)
	if !ok {
		return
	}
	if prevPod != "" {
		h.announce(ctx, prevPod, prevUser, models.EventUserLeft, conn)
	}
	h.announce(ctx, f.PodID, f.UserID, models.EventUserJoined, conn)
}

func (h *Hub) leave(ctx context.Context, conn *Conn) {
	podID, userID, left := conn.exit(h.registry)
	if left {
		h.announce(ctx, podID, userID, models.EventUserLeft, conn)
	}
}

func (h *Hub) relay(ctx context.Context, conn *Conn, f newMessageFrame) {
	podID := conn.PodID()
	if podID == "" || h.messages == nil {
		return
	}
	msg, err := h.messages.GetMessage(ctx, f.MessageID)
	if err != nil {
		h.log.Debug("relay skipped", "message_id", f.MessageID, "error", err)
		return
	}
	if msg.PodID != podID {
		h.log.Warn("relay rejected: foreign pod", "conn_id", conn.ID(), "message_id", f.MessageID)
		return
	}
	h.BroadcastMessage(ctx, msg)
}

// announce tells the room about conn's join or leave. conn is excluded from the broadcast.
func (h *Hub) announce(ctx context.Context, podID, userID string, eventType models.EventType, conn *Conn) {
	h.dispatcher.Broadcast(ctx, podID, models.PresenceEvent(eventType, userID), conn)
	if h.presence != nil {
		h.presence.Presence(ctx, podID, userID, eventType, conn.info.RequestID, conn.info.TraceID)
	}
}

// Disconnect closes conn. Repeated calls are no-ops, and user_left is sent
// at most once per vacated room.
func (h *Hub) Disconnect(conn *Conn, reason string) {
	podID, userID, left, first := conn.terminate(h.registry)
	if !first {
		return
	}
	_ = conn.transport.Close()

	h.mu.Lock()
	_, tracked := h.conns[conn]
	delete(h.conns, conn)
	h.mu.Unlock()
	if tracked {
		observability.DecWSActive()
	}
	observability.IncWSEvent("ws_disconnect")
	h.log.Debug("websocket closed",
		"conn_id", conn.ID(),
		"pod_id", podID,
		"ip", conn.info.IP,
		"request_id", conn.info.RequestID,
		"duration_ms", time.Since(conn.info.ConnectedAt).Milliseconds(),
		"reason", reason,
	)

	if left {
		h.announce(context.Background(), podID, userID, models.EventUserLeft, conn)
	}
}

// Shutdown sends a going-away close frame to every live connection and closes it.
func (h *Hub) Shutdown(ctx context.Context) {
	h.mu.Lock()
	conns := make([]*Conn, 0, len(h.conns))
	for conn := range h.conns {
		conns = append(conns, conn)
	}
	h.mu.Unlock()

	deadline := time.Now().Add(h.opts.WriteWait)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutdown")
	for _, conn := range conns {
		_ = conn.transport.WriteControl(websocket.CloseMessage, msg, deadline)
		h.Disconnect(conn, "shutdown")
	}
}
