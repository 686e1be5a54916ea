package chat

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"crewdesk/pkg/logging"
)

const maxMessageRunes = 5000

type ChatRequest struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversation_id"`
}

type ChatResponse struct {
	Content string `json:"content"`
	Agent   string `json:"agent"`
}

// ChatHandler serves the chat endpoint. The conversation store may be nil
// when no database is configured; history and logging are skipped then.
type ChatHandler struct {
	store        *ConversationStore
	orchestrator *Handle
	logger       logging.Logger
	historyLimit int
}

func NewChatHandler(store *ConversationStore, orchestrator *Handle, logger logging.Logger, historyLimit int) *ChatHandler {
	if historyLimit <= 0 {
		historyLimit = 10
	}
	return &ChatHandler{
		store:        store,
		orchestrator: orchestrator,
		logger:       logger,
		historyLimit: historyLimit,
	}
}

func RegisterRoutes(router gin.IRouter, handler *ChatHandler) {
	router.POST("/api/chat", handler.HandleChat)
	router.GET("/api/conversations/:id", handler.HandleGetConversation)
}

func (h *ChatHandler) HandleChat(c *gin.Context) {
	start := time.Now()

	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid request body", "field": "message"})
		return
	}

	message := strings.TrimSpace(req.Message)
	if message == "" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "message must not be empty", "field": "message"})
		return
	}
	if len([]rune(message)) > maxMessageRunes {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "message exceeds maximum length", "field": "message"})
		return
	}

	orchestrator, err := h.orchestrator.Get()
	if err != nil {
		h.logger.WithError(err).Error("Orchestrator unavailable")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "service is not configured"})
		return
	}

	conversationID := strings.TrimSpace(req.ConversationID)
	if conversationID == "" {
		conversationID = uuid.New().String()
	}

	ctx := c.Request.Context()

	var history []Turn
	if h.store != nil {
		history, err = h.store.RecentTurns(ctx, conversationID, h.historyLimit)
		if err != nil {
			h.logger.WithError(err).WithField("conversation_id", conversationID).
				Warn("History fetch failed; continuing without history")
			history = nil
		}
	}

	h.logTurn(c, conversationID, "user", message, "")

	reply, err := orchestrator.Respond(ctx, message, history)
	if err != nil {
		h.logger.WithError(err).WithField("conversation_id", conversationID).Error("Model call failed")
		reply = Reply{
			Content: "Something went wrong while answering: " + err.Error(),
			Agent:   TagError,
		}
	}

	h.logTurn(c, conversationID, "assistant", reply.Content, reply.Agent)

	chatRequestsTotal.WithLabelValues(reply.Agent).Inc()
	chatRequestDuration.Observe(time.Since(start).Seconds())

	c.JSON(http.StatusOK, ChatResponse{Content: reply.Content, Agent: reply.Agent})
}

// logTurn appends one turn, swallowing failures. Logging is a side channel
// and must never block the answer.
func (h *ChatHandler) logTurn(c *gin.Context, conversationID, role, content, agent string) {
	if h.store == nil {
		return
	}
	if err := h.store.AddTurn(c.Request.Context(), conversationID, role, content, agent); err != nil {
		turnWritesTotal.WithLabelValues("error").Inc()
		h.logger.WithError(err).WithFields(logging.Fields{
			"conversation_id": conversationID,
			"role":            role,
		}).Warn("Turn write failed")
		return
	}
	turnWritesTotal.WithLabelValues("success").Inc()
}

func (h *ChatHandler) HandleGetConversation(c *gin.Context) {
	conversationID := c.Param("id")

	if h.store == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
		return
	}

	turns, err := h.store.AllTurns(c.Request.Context(), conversationID)
	if errors.Is(err, ErrNoConversation) {
		c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
		return
	}
	if err != nil {
		h.logger.WithError(err).WithField("conversation_id", conversationID).Error("Conversation fetch failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load conversation"})
		return
	}

	type turnPayload struct {
		Role      string    `json:"role"`
		Content   string    `json:"content"`
		Agent     string    `json:"agent,omitempty"`
		CreatedAt time.Time `json:"created_at"`
	}
	payload := make([]turnPayload, 0, len(turns))
	for _, turn := range turns {
		payload = append(payload, turnPayload{
			Role:      turn.Role,
			Content:   turn.Content,
			Agent:     turn.Agent,
			CreatedAt: turn.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"conversation_id": conversationID,
		"messages":        payload,
	})
}
