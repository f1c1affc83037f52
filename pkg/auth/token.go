// Package auth issues and verifies the bearer tokens carried on every
// private route.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenTTL matches the fixed 30-day expiry the frontend expects.
const TokenTTL = 30 * 24 * time.Hour

var signingMethod = jwt.SigningMethodHS256

// Claims is the typed JWT payload: the user id plus the display name, so the
// frontend can greet the user without an extra profile fetch.
type Claims struct {
	UserID string `json:"id"`
	Name   string `json:"nombres"`
	jwt.RegisteredClaims
}

// MintToken issues a signed JWT for the given user.
func MintToken(secret, userID, name string) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("jwt secret is required")
	}

	now := time.Now()
	claims := Claims{
		UserID: userID,
		Name:   name,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(signingMethod, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("signing jwt: %w", err)
	}
	return signed, nil
}

// ParseToken validates signature and expiry and returns the typed claims.
func ParseToken(secret, tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (interface{}, error) {
			if token.Method != signingMethod {
				return nil, fmt.Errorf("unexpected signing method %s", token.Header["alg"])
			}
			return []byte(secret), nil
		},
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
	)
	if err != nil {
		return nil, err
	}
	return claims, nil
}
