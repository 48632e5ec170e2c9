package handlers

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"chat-api/internal/api/middleware"
	"chat-api/internal/models"
	"chat-api/internal/services"
	"chat-api/internal/token"

	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// editorRedirectScheme is the custom URI scheme the editor extension
// registers to receive tokens after the browser-based OAuth dance.
const editorRedirectScheme = "vschat"

type AuthHandler struct {
	users     *services.UserService
	codec     *token.Codec
	oauth     *oauth2.Config
	clientURL string
	logger    *slog.Logger
}

func NewAuthHandler(users *services.UserService, codec *token.Codec, oauth *oauth2.Config, clientURL string, logger *slog.Logger) *AuthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthHandler{
		users:     users,
		codec:     codec,
		oauth:     oauth,
		clientURL: clientURL,
		logger:    logger,
	}
}

// oauthState rides through the provider round-trip and tells the callback
// where to deliver the tokens.
type oauthState struct {
	Editor bool `json:"editor"`
}

// GoogleLogin redirects to the Google consent screen.
func (h *AuthHandler) GoogleLogin(c *gin.Context) {
	state := oauthState{Editor: c.Query("editor") == "true"}
	encoded, err := encodeState(state)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Code:    http.StatusInternalServerError,
			Message: "Failed to start login",
		})
		return
	}
	c.Redirect(http.StatusTemporaryRedirect, h.oauth.AuthCodeURL(encoded))
}

// GoogleCallback exchanges the authorization code, matches or creates the
// user and hands a fresh token pair to the client: either through the editor
// URI scheme or the web client's callback page.
func (h *AuthHandler) GoogleCallback(c *gin.Context) {
	code := c.Query("code")
	if code == "" {
		h.loginError(c, "missing_code")
		return
	}
	state, err := decodeState(c.Query("state"))
	if err != nil {
		h.loginError(c, "state_processing_failed")
		return
	}

	oauthToken, err := h.oauth.Exchange(c.Request.Context(), code)
	if err != nil {
		h.logger.Warn("oauth code exchange failed", "error", err)
		h.loginError(c, "exchange_failed")
		return
	}

	profile, err := h.fetchGoogleProfile(c, oauthToken)
	if err != nil {
		h.logger.Error("failed to fetch google profile", "error", err)
		h.loginError(c, "profile_fetch_failed")
		return
	}

	user, err := h.users.GetOrCreateGoogleUser(c.Request.Context(), profile)
	if err != nil {
		h.logger.Error("failed to resolve google user", "error", err)
		h.loginError(c, "user_resolution_failed")
		return
	}

	pair, err := h.codec.IssuePair(user.ID, user.TokenVersion)
	if err != nil {
		h.logger.Error("failed to issue token pair", "userId", user.ID, "error", err)
		h.loginError(c, "token_issue_failed")
		return
	}

	if state.Editor {
		c.Redirect(http.StatusTemporaryRedirect,
			fmt.Sprintf("%s://auth/%s/%s", editorRedirectScheme, pair.AccessToken, pair.RefreshToken))
		return
	}
	c.Redirect(http.StatusTemporaryRedirect,
		fmt.Sprintf("%s/auth/callback?accessToken=%s&refreshToken=%s", h.clientURL, pair.AccessToken, pair.RefreshToken))
}

// Me returns the logged-in user's own record, or {"user": null} when the
// request carries no valid credentials.
func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"user": nil})
		return
	}

	user, err := h.users.FindByID(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"user": nil, "message": "User not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// Logout bumps the revocation counter, invalidating every refresh token
// issued for this user so far.
func (h *AuthHandler) Logout(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	if err := h.users.RevokeTokens(c.Request.Context(), userID); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Code:    http.StatusInternalServerError,
			Message: "Logout failed",
		})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *AuthHandler) fetchGoogleProfile(c *gin.Context, oauthToken *oauth2.Token) (services.GoogleProfile, error) {
	client := h.oauth.Client(c.Request.Context(), oauthToken)
	resp, err := client.Get(googleUserInfoURL)
	if err != nil {
		return services.GoogleProfile{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return services.GoogleProfile{}, fmt.Errorf("userinfo returned status %d", resp.StatusCode)
	}

	var payload struct {
		ID      string `json:"id"`
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return services.GoogleProfile{}, err
	}
	return services.GoogleProfile{
		ID:     payload.ID,
		Email:  payload.Email,
		Name:   payload.Name,
		Avatar: payload.Picture,
	}, nil
}

func (h *AuthHandler) loginError(c *gin.Context, reason string) {
	c.Redirect(http.StatusTemporaryRedirect, fmt.Sprintf("%s/login-error?message=%s", h.clientURL, reason))
}

func encodeState(state oauthState) (string, error) {
	raw, err := json.Marshal(state)
	if err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(raw), nil
}

func decodeState(encoded string) (oauthState, error) {
	var state oauthState
	raw, err := base64.URLEncoding.DecodeString(encoded)
	if err != nil {
		return state, err
	}
	err = json.Unmarshal(raw, &state)
	return state, err
}
