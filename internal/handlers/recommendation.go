package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"pod-service/internal/models"
	"pod-service/internal/repositories"
)

const (
	defaultRecommendationLimit = 10
	maxRecommendationLimit     = 50
)

// Recommender ranks pods for a user.
type Recommender interface {
	RecommendPods(ctx context.Context, userID string, limit int) ([]models.PodRecommendation, error)
	MatchPod(ctx context.Context, userID, podID string) (models.PodMatch, error)
}

// RecommendationHandler serves pod recommendations.
type RecommendationHandler struct {
	recommender Recommender
}

func NewRecommendationHandler(recommender Recommender) *RecommendationHandler {
	return &RecommendationHandler{recommender: recommender}
}

// Recommendations lists open pods ranked by match score.
func (h *RecommendationHandler) Recommendations(c *gin.Context) {
	limit := defaultRecommendationLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		if n > maxRecommendationLimit {
			n = maxRecommendationLimit
		}
		limit = n
	}

	recs, err := h.recommender.RecommendPods(c.Request.Context(), userIDFromContext(c), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load recommendations"})
		return
	}
	if recs == nil {
		recs = []models.PodRecommendation{}
	}
	c.JSON(http.StatusOK, gin.H{"recommendations": recs})
}

// PodMatch scores a single pod for the caller.
func (h *RecommendationHandler) PodMatch(c *gin.Context) {
	match, err := h.recommender.MatchPod(c.Request.Context(), userIDFromContext(c), c.Param("pod_id"))
	if err != nil {
		if errors.Is(err, repositories.ErrPodNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "pod not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to score pod"})
		return
	}
	c.JSON(http.StatusOK, match)
}
