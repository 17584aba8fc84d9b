package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"pod-service/internal/ai"
	"pod-service/internal/logger"
	"pod-service/internal/models"
	"pod-service/internal/repositories"
)

const (
	defaultMessageLimit = 50
	maxMessageLimit     = 100
	maxContentLength    = 4000
)

const assistantSystemPrompt = `You are a study assistant inside a small student study pod.
Answer the question clearly and briefly. Prefer explanations and worked steps over final answers.`

// MessageHandler serves pod message history, sends and assistant questions.
type MessageHandler struct {
	pods        repositories.PodRepository
	messages    repositories.MessageRepository
	broadcaster Broadcaster
	events      MessageEvents
	assistant   ai.Client
	log         *logger.Logger
}

// NewMessageHandler builds a MessageHandler. events and assistant may be nil.
func NewMessageHandler(pods repositories.PodRepository, messages repositories.MessageRepository, broadcaster Broadcaster, events MessageEvents, assistant ai.Client, log *logger.Logger) *MessageHandler {
	return &MessageHandler{
		pods:        pods,
		messages:    messages,
		broadcaster: broadcaster,
		events:      events,
		assistant:   assistant,
		log:         log.With("component", "messages"),
	}
}

// GetMessages returns the newest page of pod messages.
func (h *MessageHandler) GetMessages(c *gin.Context) {
	podID := c.Param("pod_id")

	limit := defaultMessageLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		if n > maxMessageLimit {
			n = maxMessageLimit
		}
		limit = n
	}
	var before int64
	if raw := c.Query("before"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid before"})
			return
		}
		before = n
	}

	if !requireMember(c, h.pods, podID) {
		return
	}

	// one extra row tells whether an older page exists
	msgs, err := h.messages.ListRecentMessages(c.Request.Context(), podID, limit+1, before)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}
	hasMore := len(msgs) > limit
	if hasMore {
		msgs = msgs[:limit]
	}
	if msgs == nil {
		msgs = []models.ChatMessage{}
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs, "has_more": hasMore})
}

// PostMessage stores a message and broadcasts it to the pod room.
func (h *MessageHandler) PostMessage(c *gin.Context) {
	podID := c.Param("pod_id")

	var req struct {
		Content  string             `json:"content" binding:"required"`
		Kind     models.MessageKind `json:"kind"`
		Metadata json.RawMessage    `json:"metadata"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "content is required"})
		return
	}
	if len(content) > maxContentLength {
		c.JSON(http.StatusBadRequest, gin.H{"error": "content too long"})
		return
	}
	if req.Kind == "" {
		req.Kind = models.MessageKindText
	}
	if !req.Kind.Valid() || req.Kind == models.MessageKindAIResponse {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message kind"})
		return
	}

	if !requireMember(c, h.pods, podID) {
		return
	}

	msg, err := h.messages.CreateMessage(c.Request.Context(), models.NewMessage{
		PodID:    podID,
		AuthorID: userIDFromContext(c),
		Content:  content,
		Kind:     req.Kind,
		Metadata: req.Metadata,
	})
	if err != nil {
		h.log.Error("persist message", "pod_id", podID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not send message"})
		return
	}

	h.deliver(c, msg)
	c.JSON(http.StatusCreated, msg)
}

// AskAssistant answers a question in the pod and posts the answer as an ai_response message.
func (h *MessageHandler) AskAssistant(c *gin.Context) {
	podID := c.Param("pod_id")

	var req struct {
		Prompt string `json:"prompt" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" || len(prompt) > maxContentLength {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid prompt"})
		return
	}

	if !requireMember(c, h.pods, podID) {
		return
	}
	if h.assistant == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "assistant unavailable"})
		return
	}

	answer, err := h.assistant.GenerateText(c.Request.Context(), assistantSystemPrompt, prompt)
	answer = strings.TrimSpace(answer)
	if err != nil || answer == "" {
		h.log.Warn("assistant request failed", "pod_id", podID, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "assistant unavailable"})
		return
	}

	metadata, _ := json.Marshal(map[string]string{"prompt": prompt, "asked_by": userIDFromContext(c)})
	msg, err := h.messages.CreateMessage(c.Request.Context(), models.NewMessage{
		PodID:    podID,
		AuthorID: models.AssistantAuthorID,
		Content:  answer,
		Kind:     models.MessageKindAIResponse,
		Metadata: metadata,
	})
	if err != nil {
		h.log.Error("persist assistant answer", "pod_id", podID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not save answer"})
		return
	}

	h.deliver(c, msg)
	c.JSON(http.StatusCreated, msg)
}

// deliver runs only after the store accepted msg.
func (h *MessageHandler) deliver(c *gin.Context, msg models.ChatMessage) {
	if h.broadcaster != nil {
		h.broadcaster.BroadcastMessage(c.Request.Context(), msg)
	}
	if h.events != nil {
		h.events.MessageCreated(c.Request.Context(), msg, requestIDFromContext(c))
	}
}
