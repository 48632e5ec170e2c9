package ws

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"chat-api/internal/models"
	"chat-api/internal/token"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// UserDirectory resolves user records during refresh-token authentication.
type UserDirectory interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// Presence records online state, best effort. Optional.
type Presence interface {
	SetUserOnline(ctx context.Context, userID string) error
	SetUserOffline(ctx context.Context, userID string) error
}

// Handler authenticates websocket upgrade requests and promotes accepted
// connections into registered sessions.
type Handler struct {
	codec    *token.Codec
	users    UserDirectory
	registry *Registry
	tracker  ReadTracker
	presence Presence
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

func NewHandler(codec *token.Codec, users UserDirectory, registry *Registry, tracker ReadTracker, presence Presence, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		codec:    codec,
		users:    users,
		registry: registry,
		tracker:  tracker,
		presence: presence,
		logger:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// Tokens authenticate the connection; the origin does not.
				return true
			},
		},
	}
}

// HandleWebSocket authenticates GET /ws?accessToken=..&refreshToken=.. and
// upgrades the connection.
//
// The access token is the fast path: if it verifies, the connection is
// accepted without touching the directory. Otherwise the refresh token must
// verify and its tokenVersion must match the stored user record; a mismatch
// means the token was revoked. Rejections are written on the still-unupgraded
// transport and the request ends there.
func (h *Handler) HandleWebSocket(c *gin.Context) {
	accessToken := c.Query("accessToken")
	refreshToken := c.Query("refreshToken")
	if accessToken == "" || refreshToken == "" {
		h.unauthorized(c)
		return
	}

	userID, err := h.codec.VerifyAccess(accessToken)
	if err != nil {
		// Access token expired or invalid; fall back to the refresh token.
		refreshUserID, tokenVersion, rerr := h.codec.VerifyRefresh(refreshToken)
		if rerr != nil {
			h.unauthorized(c)
			return
		}
		user, derr := h.users.FindByID(c.Request.Context(), refreshUserID)
		if derr != nil || user == nil || user.TokenVersion != tokenVersion {
			h.unauthorized(c)
			return
		}
		userID = refreshUserID
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote its own error response.
		h.logger.Warn("websocket upgrade failed", "userId", userID, "error", err)
		return
	}

	sess := newSession(userID, conn, h.registry, h.tracker, h.logger, func() {
		h.setOffline(userID)
	})
	h.registry.Register(userID, sess)
	h.setOnline(userID)
	h.logger.Info("websocket connected", "userId", userID)

	go sess.writePump()
	go sess.readPump()
}

func (h *Handler) unauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{
		Code:    http.StatusUnauthorized,
		Message: "Unauthorized",
	})
}

func (h *Handler) setOnline(userID string) {
	if h.presence == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := h.presence.SetUserOnline(ctx, userID); err != nil {
		h.logger.Warn("failed to set user online", "userId", userID, "error", err)
	}
}

func (h *Handler) setOffline(userID string) {
	if h.presence == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := h.presence.SetUserOffline(ctx, userID); err != nil {
		h.logger.Warn("failed to set user offline", "userId", userID, "error", err)
	}
}
