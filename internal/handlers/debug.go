package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pod-service/internal/rabbitmq"
)

// RegisterDebugRoutes wires debug-only endpoints.
func RegisterDebugRoutes(router *gin.Engine, publisher rabbitmq.Publisher, enabled bool) {
	if !enabled {
		return
	}

	router.GET("/debug/publisher", func(c *gin.Context) {
		if publisher == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "publisher not configured"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"mode":        rabbitmq.PublisherMode(publisher),
			"noop_reason": rabbitmq.PublisherNoopReason(publisher),
			"request_id":  requestIDFromContext(c),
		})
	})
}
