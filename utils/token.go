package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SessionClaims is carried in the browser's session cookie. It only names
// the server-side session; nothing else about the viewer is stored there.
type SessionClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

func GenerateUUID() string {
	return uuid.New().String()
}

func GenerateToken(sessionID string, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        GenerateUUID(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func ParseToken(tokenString string, secret []byte) (*SessionClaims, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.SessionID == "" {
		return nil, errors.New("invalid session token")
	}
	return claims, nil
}
