package handlers

import (
	"errors"
	"net/http"

	"chat-api/internal/api/middleware"
	"chat-api/internal/models"
	"chat-api/internal/services"

	"github.com/gin-gonic/gin"
)

type ConversationHandler struct {
	conversations *services.ConversationService
}

func NewConversationHandler(conversations *services.ConversationService) *ConversationHandler {
	return &ConversationHandler{conversations: conversations}
}

func (h *ConversationHandler) List(c *gin.Context) {
	userID, _ := middleware.UserID(c)

	summaries, err := h.conversations.ListForUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Code:    http.StatusInternalServerError,
			Message: "Failed to fetch conversations",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversations": summaries})
}

func (h *ConversationHandler) Create(c *gin.Context) {
	userID, _ := middleware.UserID(c)

	var req models.CreateConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Code:    http.StatusBadRequest,
			Message: "Valid userId is required",
		})
		return
	}

	conv, created, err := h.conversations.FindOrCreate(c.Request.Context(), userID, req.UserID)
	if err != nil {
		if errors.Is(err, services.ErrSelfConversation) {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Code:    http.StatusBadRequest,
				Message: "Cannot create a conversation with yourself",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Code:    http.StatusInternalServerError,
			Message: "Failed to create conversation",
		})
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"conv": conv, "ok": true, "created": created})
}
