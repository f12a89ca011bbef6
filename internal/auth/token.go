package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	resetTokenIssuer = "starterkit"
	resetTokenTTL    = 15 * time.Minute
)

type resetClaims struct {
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// GenerateResetToken signs a short-lived password reset token for the user.
func GenerateResetToken(userID string, secret []byte) (string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", errors.New("userID is required")
	}
	if len(secret) == 0 {
		return "", errors.New("reset token secret is not configured")
	}

	now := time.Now().UTC()
	claims := resetClaims{
		Purpose: "password_reset",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    resetTokenIssuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(resetTokenTTL)),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign reset token: %w", err)
	}
	return signed, nil
}

// VerifyResetToken validates the token and returns the user id it was issued
// for.
func VerifyResetToken(token string, secret []byte) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" || len(secret) == 0 {
		return "", ErrInvalidToken
	}

	parsed, err := jwt.ParseWithClaims(token, &resetClaims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidToken
		}
		return secret, nil
	})
	if err != nil {
		return "", ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*resetClaims)
	if !ok || !parsed.Valid || claims.Purpose != "password_reset" || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	if claims.Issuer != resetTokenIssuer {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
