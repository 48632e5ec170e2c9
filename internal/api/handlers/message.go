package handlers

import (
	"errors"
	"net/http"

	"chat-api/internal/api/middleware"
	"chat-api/internal/models"
	"chat-api/internal/services"

	"github.com/gin-gonic/gin"
)

type MessageHandler struct {
	messages *services.MessageService
}

func NewMessageHandler(messages *services.MessageService) *MessageHandler {
	return &MessageHandler{messages: messages}
}

// List pages through the history with another user, newest first. The cursor
// is the createdAt of the oldest message already loaded, in milliseconds.
func (h *MessageHandler) List(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	otherID := c.Param("userId")
	if otherID == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Code:    http.StatusBadRequest,
			Message: "userId parameter is required",
		})
		return
	}

	messages, hasMore, err := h.messages.ListBetween(c.Request.Context(), userID, otherID, c.Query("cursor"))
	if err != nil {
		if errors.Is(err, services.ErrInvalidCursor) {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Code:    http.StatusBadRequest,
				Message: "Invalid cursor",
				Details: err.Error(),
			})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Code:    http.StatusInternalServerError,
			Message: "Failed to fetch messages",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages, "hasMore": hasMore})
}

// Create persists a message and triggers real-time delivery to the recipient.
func (h *MessageHandler) Create(c *gin.Context) {
	userID, _ := middleware.UserID(c)

	var req models.CreateMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Code:    http.StatusBadRequest,
			Message: "recipientId and text are required",
		})
		return
	}

	message, err := h.messages.Create(c.Request.Context(), userID, req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmptyMessage), errors.Is(err, services.ErrSelfRecipient):
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Code:    http.StatusBadRequest,
				Message: err.Error(),
			})
		default:
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{
				Code:    http.StatusInternalServerError,
				Message: "Failed to create message",
			})
		}
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": message})
}
