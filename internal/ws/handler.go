package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"pod-service/internal/middleware"
	"pod-service/internal/observability"
)

// Handler upgrades authenticated requests to pod sockets.
type Handler struct {
	hub      *Hub
	upgrader websocket.Upgrader
	// baseCtx outlives the upgrade request; Serve must not stop when the handler returns.
	baseCtx context.Context
}

// NewHandler constructs a Handler. An empty origins list or "*" accepts any origin.
func NewHandler(ctx context.Context, hub *Hub, origins []string) *Handler {
	return &Handler{
		hub:     hub,
		baseCtx: ctx,
		upgrader: websocket.Upgrader{
			CheckOrigin: originChecker(origins),
		},
	}
}

func originChecker(origins []string) func(r *http.Request) bool {
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		allowed[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		if len(allowed) == 0 {
			return true
		}
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := allowed[origin]
		return ok
	}
}

// Handle upgrades the connection and runs its read loop.
func (h *Handler) Handle(c *gin.Context) {
	ctx, span := observability.Tracer("ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	userID := c.GetString(middleware.UserIDKey)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	wsConn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	wsConn.SetReadLimit(h.hub.opts.ReadLimit)

	conn := NewConn(wsConn, ConnInfo{
		ConnID:      newConnID(),
		AuthUserID:  userID,
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   observability.RequestID(c),
		TraceID:     observability.TraceID(ctx),
		ConnectedAt: time.Now(),
	})
	go h.hub.Serve(h.baseCtx, conn)
}
