package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid session token")

// SessionClaims is the payload of a signed session token. The token ID (jti)
// doubles as the database session ID so individual sessions stay revocable.
type SessionClaims struct {
	Role       string `json:"role"`
	PlayerName string `json:"playerName,omitempty"`
	jwt.RegisteredClaims
}

// TokenSigner mints and verifies session tokens using HMAC-SHA256.
type TokenSigner struct {
	secret []byte
}

// NewTokenSigner creates a signer from the configured session secret.
func NewTokenSigner(secret string) *TokenSigner {
	return &TokenSigner{secret: []byte(secret)}
}

// GenerateSessionID creates a new UUID for session identification.
func GenerateSessionID() string {
	return uuid.New().String()
}

// Mint signs a session token for the given user. sessionID must be the ID of
// the backing database session row.
func (s *TokenSigner) Mint(sessionID string, userID int64, role, playerName string, expiresAt time.Time) (string, error) {
	claims := SessionClaims{
		Role:       role,
		PlayerName: playerName,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sessionID,
			Subject:   fmt.Sprintf("%d", userID),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}

// Parse verifies a session token and returns its claims. The caller must
// still check that the referenced database session exists and is unexpired.
func (s *TokenSigner) Parse(tokenString string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid || claims.ID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
