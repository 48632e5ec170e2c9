// Package token signs and verifies the two bearer tokens the service runs on:
// a short-lived access token carrying only the user id, and a long-lived
// refresh token that additionally carries the user's revocation counter.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken covers every verification failure: bad signature, malformed
// payload, wrong token class or expiry. Callers fall through to the next
// credential tier or reject; they never need to distinguish the cause.
var ErrInvalidToken = errors.New("invalid token")

const (
	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 14 * 24 * time.Hour
)

// Pair is one freshly issued access/refresh token couple.
type Pair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type accessClaims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

type refreshClaims struct {
	UserID       string `json:"userId"`
	TokenVersion int    `json:"tokenVersion"`
	jwt.RegisteredClaims
}

// Codec issues and verifies token pairs. The two token classes use distinct
// secrets so an access token can never pass refresh verification or vice versa.
type Codec struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

// NewCodec fails when either secret is empty. That is a configuration error
// and is meant to abort startup, not to be handled at request time.
func NewCodec(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) (*Codec, error) {
	if accessSecret == "" {
		return nil, errors.New("token: access token secret is not configured")
	}
	if refreshSecret == "" {
		return nil, errors.New("token: refresh token secret is not configured")
	}
	if accessTTL <= 0 {
		accessTTL = DefaultAccessTTL
	}
	if refreshTTL <= 0 {
		refreshTTL = DefaultRefreshTTL
	}
	return &Codec{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}, nil
}

// IssuePair signs a fresh access/refresh pair for the user. The refresh token
// embeds tokenVersion; it is checked against the user record on use.
func (c *Codec) IssuePair(userID string, tokenVersion int) (Pair, error) {
	now := time.Now()

	access := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.accessTTL)),
		},
	})
	accessToken, err := access.SignedString(c.accessSecret)
	if err != nil {
		return Pair{}, err
	}

	refresh := jwt.NewWithClaims(jwt.SigningMethodHS256, refreshClaims{
		UserID:       userID,
		TokenVersion: tokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.refreshTTL)),
		},
	})
	refreshToken, err := refresh.SignedString(c.refreshSecret)
	if err != nil {
		return Pair{}, err
	}

	return Pair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// VerifyAccess returns the user id carried by a valid access token.
func (c *Codec) VerifyAccess(tokenString string) (string, error) {
	var claims accessClaims
	if err := c.parse(tokenString, &claims, c.accessSecret); err != nil {
		return "", err
	}
	if claims.UserID == "" {
		return "", ErrInvalidToken
	}
	return claims.UserID, nil
}

// VerifyRefresh returns the user id and revocation counter carried by a valid
// refresh token. The counter comparison against the user record is the
// caller's job; this is pure signature and expiry checking.
func (c *Codec) VerifyRefresh(tokenString string) (string, int, error) {
	var claims refreshClaims
	if err := c.parse(tokenString, &claims, c.refreshSecret); err != nil {
		return "", 0, err
	}
	if claims.UserID == "" {
		return "", 0, ErrInvalidToken
	}
	return claims.UserID, claims.TokenVersion, nil
}

func (c *Codec) parse(tokenString string, claims jwt.Claims, secret []byte) error {
	tok, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return secret, nil
	})
	if err != nil || !tok.Valid {
		return ErrInvalidToken
	}
	return nil
}
