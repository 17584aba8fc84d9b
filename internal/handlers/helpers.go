package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"pod-service/internal/middleware"
	"pod-service/internal/models"
	"pod-service/internal/observability"
	"pod-service/internal/repositories"
)

// Broadcaster delivers persisted messages to live pod rooms.
type Broadcaster interface {
	BroadcastMessage(ctx context.Context, msg models.ChatMessage) int
}

// PresenceReader reports who is connected to a pod room.
type PresenceReader interface {
	OnlineUsers(podID string) []string
	OnlineCount(podID string) int
}

// MessageEvents publishes message activity to the broker.
type MessageEvents interface {
	MessageCreated(ctx context.Context, msg models.ChatMessage, requestID string)
}

func userIDFromContext(c *gin.Context) string {
	return c.GetString(middleware.UserIDKey)
}

func requestIDFromContext(c *gin.Context) string {
	return observability.RequestID(c)
}

// requireMember writes an error response and returns false unless the
// authenticated user belongs to the pod in the path.
func requireMember(c *gin.Context, pods repositories.PodRepository, podID string) bool {
	member, err := pods.IsMember(c.Request.Context(), podID, userIDFromContext(c))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrPodNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "failed to verify membership"})
		return false
	}
	if !member {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a pod member"})
		return false
	}
	return true
}
