package handlers

import (
	"context"
	"net/http"
	"strings"

	"merchant-chat-api/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Chatter answers one chat turn
type Chatter interface {
	Chat(ctx context.Context, merchantID string, req models.PromptRequest) (*models.ChatResponse, error)
}

// ChatHandler serves the merchant assistant
type ChatHandler struct {
	chat   Chatter
	logger *logrus.Logger
}

// NewChatHandler creates a new ChatHandler
func NewChatHandler(chat Chatter, logger *logrus.Logger) *ChatHandler {
	return &ChatHandler{chat: chat, logger: logger}
}

// Chat answers a message, running at most one function on the merchant's data
func (h *ChatHandler) Chat(c *gin.Context) {
	var req models.PromptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "message is required")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		badRequest(c, "message is required")
		return
	}

	resp, err := h.chat.Chat(c.Request.Context(), merchantID(c), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
