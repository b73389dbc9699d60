package jwtutil

import (
	"fmt"

	"github.com/golang-jwt/jwt/v4"
)

// Claims is the subset of the upstream auth token the platform cares about.
type Claims struct {
	PrincipalID string `json:"principal_id"`
	Email       string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

func Parse(tokenString, secret string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if claims.PrincipalID == "" {
		return nil, fmt.Errorf("token has no principal_id claim")
	}

	return claims, nil
}
