package handlers

import (
	"errors"
	"net/http"

	"chat-api/internal/api/middleware"
	"chat-api/internal/models"
	"chat-api/internal/services"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	users *services.UserService
	prod  bool
}

func NewUserHandler(users *services.UserService, prod bool) *UserHandler {
	return &UserHandler{users: users, prod: prod}
}

// Feed lists every other user's public profile.
func (h *UserHandler) Feed(c *gin.Context) {
	userID, _ := middleware.UserID(c)

	profiles, err := h.users.Feed(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Code:    http.StatusInternalServerError,
			Message: "Failed to fetch feed",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"profiles": profiles})
}

func (h *UserHandler) UpdateCurrent(c *gin.Context) {
	userID, _ := middleware.UserID(c)

	var req models.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Code:    http.StatusBadRequest,
			Message: "Email and username are required",
		})
		return
	}

	user, err := h.users.UpdateProfile(c.Request.Context(), userID, req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmailTaken):
			c.JSON(http.StatusConflict, models.ErrorResponse{
				Code:    http.StatusConflict,
				Message: "Email already in use",
			})
		case errors.Is(err, services.ErrUserNotFound):
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Code:    http.StatusNotFound,
				Message: "User not found",
			})
		default:
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{
				Code:    http.StatusInternalServerError,
				Message: "Failed to update user",
			})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// GetByID returns another user's public profile.
func (h *UserHandler) GetByID(c *gin.Context) {
	id := c.Param("id")

	user, err := h.users.FindByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Code:    http.StatusNotFound,
				Message: "User not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Code:    http.StatusInternalServerError,
			Message: "Failed to fetch user",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user.Public()})
}

// DevCreate is a development-only user factory.
func (h *UserHandler) DevCreate(c *gin.Context) {
	if h.prod {
		c.JSON(http.StatusForbidden, models.ErrorResponse{
			Code:    http.StatusForbidden,
			Message: "Not available in production",
		})
		return
	}

	var req models.DevCreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Code:    http.StatusBadRequest,
			Message: "Email and username are required",
		})
		return
	}

	user, err := h.users.CreateDevUser(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, services.ErrEmailTaken) {
			c.JSON(http.StatusConflict, models.ErrorResponse{
				Code:    http.StatusConflict,
				Message: "User with this email or username already exists",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Code:    http.StatusInternalServerError,
			Message: "Failed to create user",
		})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": user})
}
