// Package auth issues and verifies bearer tokens, hashes passwords and holds the
// authorization predicate shared by every handler.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrMissingSecret means JWT_SECRET is not configured. Callers answer 500.
	ErrMissingSecret = errors.New("jwt secret is not configured")
	ErrInvalidToken  = errors.New("invalid token")
	ErrExpiredToken  = errors.New("token expired")
)

type Claims struct {
	UserID uint `json:"userId"`
	jwt.RegisteredClaims
}

// TokenManager signs and verifies HS256 tokens.
type TokenManager struct {
	secret    []byte
	expiresIn time.Duration
	now       func() time.Time
}

func NewTokenManager(secret string, expiresIn time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), expiresIn: expiresIn, now: time.Now}
}

func (m *TokenManager) ExpiresIn() time.Duration { return m.expiresIn }

// Configured reports whether a signing secret is set.
func (m *TokenManager) Configured() bool { return len(m.secret) > 0 }

// Issue returns a signed token for userID.
func (m *TokenManager) Issue(userID uint) (string, error) {
	if len(m.secret) == 0 {
		return "", ErrMissingSecret
	}
	now := m.now()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.expiresIn)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature and expiration and returns the embedded user id.
func (m *TokenManager) Verify(raw string) (uint, error) {
	if len(m.secret) == 0 {
		return 0, ErrMissingSecret
	}

	var claims Claims
	token, err := jwt.ParseWithClaims(raw, &claims,
		func(t *jwt.Token) (any, error) { return m.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, ErrExpiredToken
		}
		return 0, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return 0, ErrInvalidToken
	}

	uid := claims.UserID
	if uid == 0 && claims.Subject != "" {
		if n, err := strconv.ParseUint(claims.Subject, 10, 64); err == nil {
			uid = uint(n)
		}
	}
	if uid == 0 {
		return 0, fmt.Errorf("%w: missing user id", ErrInvalidToken)
	}
	return uid, nil
}
