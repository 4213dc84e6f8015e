package jwtlocal

import (
	"context"
	"errors"
	"strings"

	"fieldserve/internal/domain"

	jwt "github.com/golang-jwt/jwt/v5"
)

// Authenticator verifies HS256 tokens signed with a shared secret, for
// deployments without an OIDC issuer.
type Authenticator struct {
	secret []byte
}

type claims struct {
	Roles []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

func NewAuthenticator(secret string) (*Authenticator, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	return &Authenticator{secret: []byte(secret)}, nil
}

func (a *Authenticator) Authenticate(_ context.Context, bearerToken string) (domain.Principal, error) {
	tokenString := strings.TrimSpace(bearerToken)
	if tokenString == "" {
		return domain.Principal{}, domain.ErrUnauthenticated
	}
	var parsed claims
	token, err := jwt.ParseWithClaims(tokenString, &parsed, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return a.secret, nil
	})
	if err != nil || !token.Valid || parsed.Subject == "" {
		return domain.Principal{}, domain.ErrUnauthenticated
	}
	return domain.Principal{
		Subject: parsed.Subject,
		Roles:   parsed.Roles,
	}, nil
}
