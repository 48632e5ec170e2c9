package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"chat-api/internal/models"
	"chat-api/internal/token"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDirectory struct {
	users map[string]*models.User
}

func (d *fakeDirectory) FindByID(_ context.Context, id string) (*models.User, error) {
	user, ok := d.users[id]
	if !ok {
		return nil, errors.New("user not found")
	}
	return user, nil
}

type authFixture struct {
	engine *gin.Engine
	codec  *token.Codec
	dir    *fakeDirectory
}

func newAuthFixture(t *testing.T, required bool) *authFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	codec, err := token.NewCodec("access-secret", "refresh-secret", time.Minute, time.Hour)
	require.NoError(t, err)

	dir := &fakeDirectory{users: map[string]*models.User{}}
	mw := NewAuthMiddleware(codec, dir)

	engine := gin.New()
	handler := mw.RequireAuth()
	if !required {
		handler = mw.OptionalAuth()
	}
	engine.GET("/probe", handler, func(c *gin.Context) {
		userID, ok := UserID(c)
		if !ok {
			c.JSON(http.StatusOK, gin.H{"userId": nil})
			return
		}
		c.JSON(http.StatusOK, gin.H{"userId": userID})
	})

	return &authFixture{engine: engine, codec: codec, dir: dir}
}

func (f *authFixture) probe(headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	return w
}

func TestAccessTokenAuthenticatesWithoutRotation(t *testing.T) {
	f := newAuthFixture(t, true)

	pair, err := f.codec.IssuePair("u1", 1)
	require.NoError(t, err)

	w := f.probe(map[string]string{HeaderAccessToken: pair.AccessToken})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "u1")
	assert.Empty(t, w.Header().Get(HeaderAccessToken), "access-token path must not rotate")
	assert.Empty(t, w.Header().Get(HeaderRefreshToken))
}

func TestRefreshTokenRotatesPair(t *testing.T) {
	f := newAuthFixture(t, true)
	f.dir.users["u1"] = &models.User{ID: "u1", TokenVersion: 4}

	pair, err := f.codec.IssuePair("u1", 4)
	require.NoError(t, err)

	w := f.probe(map[string]string{
		HeaderAccessToken:  "expired-garbage",
		HeaderRefreshToken: pair.RefreshToken,
	})
	assert.Equal(t, http.StatusOK, w.Code)

	newAccess := w.Header().Get(HeaderAccessToken)
	newRefresh := w.Header().Get(HeaderRefreshToken)
	require.NotEmpty(t, newAccess)
	require.NotEmpty(t, newRefresh)

	userID, err := f.codec.VerifyAccess(newAccess)
	require.NoError(t, err)
	assert.Equal(t, "u1", userID)

	userID, version, err := f.codec.VerifyRefresh(newRefresh)
	require.NoError(t, err)
	assert.Equal(t, "u1", userID)
	assert.Equal(t, 4, version)
}

func TestRevokedRefreshTokenRejected(t *testing.T) {
	f := newAuthFixture(t, true)
	// Counter bumped since the token was issued.
	f.dir.users["u1"] = &models.User{ID: "u1", TokenVersion: 5}

	pair, err := f.codec.IssuePair("u1", 4)
	require.NoError(t, err)

	w := f.probe(map[string]string{HeaderRefreshToken: pair.RefreshToken})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, w.Header().Get(HeaderAccessToken))
}

func TestMissingTokensRejectedWhenRequired(t *testing.T) {
	f := newAuthFixture(t, true)

	w := f.probe(nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestOptionalAuthPassesAnonymously(t *testing.T) {
	f := newAuthFixture(t, false)

	w := f.probe(nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "null")

	w = f.probe(map[string]string{HeaderAccessToken: "garbage"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "null")
}

func TestOptionalAuthStillResolvesIdentity(t *testing.T) {
	f := newAuthFixture(t, false)

	pair, err := f.codec.IssuePair("u1", 1)
	require.NoError(t, err)

	w := f.probe(map[string]string{HeaderAccessToken: pair.AccessToken})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "u1")
}
