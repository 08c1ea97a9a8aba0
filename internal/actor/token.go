package actor

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type SessionClaims struct {
	jwt.RegisteredClaims

	Name string `json:"name,omitempty"`
	Role string `json:"role,omitempty"`
}

// SignToken mints an HS256 session token for the given actor.
func SignToken(a Actor, secret string, ttl time.Duration, now time.Time) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("missing auth secret")
	}
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   a.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Name: a.Name,
		Role: string(a.Role),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// VerifyToken verifies an actor session token (JWT, HS256) and returns the
// actor it identifies.
func VerifyToken(tokenString string, secret string, now time.Time) (*Actor, error) {
	if tokenString == "" {
		return nil, fmt.Errorf("missing token")
	}
	if secret == "" {
		return nil, fmt.Errorf("missing auth secret")
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	claims := &SessionClaims{}
	tok, err := parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !tok.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	if claims.ExpiresAt == nil || claims.ExpiresAt.Time.Before(now) {
		return nil, fmt.Errorf("token expired")
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("missing subject")
	}
	role, err := ParseRole(claims.Role)
	if err != nil {
		return nil, err
	}

	return &Actor{
		ID:   claims.Subject,
		Name: claims.Name,
		Role: role,
	}, nil
}
