package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pod-service/internal/models"
	"pod-service/internal/repositories"
)

// PodHandler serves the caller's pod directory and live presence.
type PodHandler struct {
	pods     repositories.PodRepository
	presence PresenceReader
}

// NewPodHandler builds a PodHandler.
func NewPodHandler(pods repositories.PodRepository, presence PresenceReader) *PodHandler {
	return &PodHandler{pods: pods, presence: presence}
}

// ListPods returns the pods the user belongs to with their online counts.
func (h *PodHandler) ListPods(c *gin.Context) {
	pods, err := h.pods.ListPodsForUser(c.Request.Context(), userIDFromContext(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load pods"})
		return
	}

	summaries := make([]models.PodSummary, 0, len(pods))
	for _, pod := range pods {
		summaries = append(summaries, models.PodSummary{Pod: pod, OnlineCount: h.presence.OnlineCount(pod.ID)})
	}
	c.JSON(http.StatusOK, gin.H{"pods": summaries})
}

// Presence lists users currently connected to the pod room.
func (h *PodHandler) Presence(c *gin.Context) {
	podID := c.Param("pod_id")
	if !requireMember(c, h.pods, podID) {
		return
	}
	users := h.presence.OnlineUsers(podID)
	c.JSON(http.StatusOK, gin.H{"pod_id": podID, "online": users, "online_count": len(users)})
}
