package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

const tokenTTL = 24 * time.Hour

type tokenClaims struct {
	UserID int    `json:"userId"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

func generateToken(secret []byte, u *user) (string, error) {
	now := time.Now()
	claims := tokenClaims{
		UserID: u.ID,
		Email:  u.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// tokenVerifier turns a raw bearer token into the caller's identity.
// The auth middleware holds one of these so tests can swap in a
// deterministic implementation.
type tokenVerifier func(token string) (*identity, error)

func jwtVerifier(secret []byte) tokenVerifier {
	return func(tokenStr string) (*identity, error) {
		var claims tokenClaims
		token, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return secret, nil
		})
		if err != nil {
			return nil, err
		}
		if !token.Valid {
			return nil, errors.New("invalid token")
		}
		return &identity{UserID: claims.UserID, Email: claims.Email}, nil
	}
}
