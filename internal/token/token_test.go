package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCodec(t *testing.T) *Codec {
	t.Helper()
	codec, err := NewCodec("access-secret", "refresh-secret", 15*time.Minute, 14*24*time.Hour)
	require.NoError(t, err)
	return codec
}

func TestNewCodecRequiresSecrets(t *testing.T) {
	_, err := NewCodec("", "refresh-secret", 0, 0)
	assert.Error(t, err)

	_, err = NewCodec("access-secret", "", 0, 0)
	assert.Error(t, err)
}

func TestAccessTokenRoundTrip(t *testing.T) {
	codec := newTestCodec(t)

	pair, err := codec.IssuePair("user-1", 3)
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	userID, err := codec.VerifyAccess(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
}

func TestRefreshTokenCarriesVersion(t *testing.T) {
	codec := newTestCodec(t)

	pair, err := codec.IssuePair("user-1", 7)
	require.NoError(t, err)

	userID, version, err := codec.VerifyRefresh(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
	assert.Equal(t, 7, version)
}

func TestTokenClassesAreNotInterchangeable(t *testing.T) {
	codec := newTestCodec(t)

	pair, err := codec.IssuePair("user-1", 1)
	require.NoError(t, err)

	_, err = codec.VerifyAccess(pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, _, err = codec.VerifyRefresh(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestExpiredAccessTokenRejected(t *testing.T) {
	codec, err := NewCodec("access-secret", "refresh-secret", -time.Minute, time.Hour)
	require.NoError(t, err)
	// Negative TTL falls back to the default, so build an expired one explicitly.
	codec.accessTTL = -time.Minute

	pair, err := codec.IssuePair("user-1", 1)
	require.NoError(t, err)

	_, err = codec.VerifyAccess(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenSignedWithDifferentSecretRejected(t *testing.T) {
	codec := newTestCodec(t)
	other, err := NewCodec("other-access", "other-refresh", time.Minute, time.Hour)
	require.NoError(t, err)

	pair, err := other.IssuePair("user-1", 1)
	require.NoError(t, err)

	_, err = codec.VerifyAccess(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, _, err = codec.VerifyRefresh(pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestGarbageTokensRejected(t *testing.T) {
	codec := newTestCodec(t)

	for _, tok := range []string{"", "not-a-jwt", "a.b.c"} {
		_, err := codec.VerifyAccess(tok)
		assert.ErrorIs(t, err, ErrInvalidToken)
		_, _, err = codec.VerifyRefresh(tok)
		assert.ErrorIs(t, err, ErrInvalidToken)
	}
}
