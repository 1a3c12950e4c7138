package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL is the lifetime of tokens issued by the token command.
const DefaultTokenTTL = 24 * time.Hour

// Issuer is the iss claim of every token this service signs and accepts.
const Issuer = "companyrisk"

var (
	errEmptySecret  = errors.New("empty signing secret")
	errEmptySubject = errors.New("empty subject")
)

// Claims identify the analyst who requested an analysis.
type Claims struct {
	jwt.RegisteredClaims
}

type claimsKey struct{}

// GenerateToken signs an HS256 token for subject. A non-positive ttl uses
// DefaultTokenTTL.
func GenerateToken(subject, secret string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errEmptySecret
	}
	if subject == "" {
		return "", errEmptySubject
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	now := time.Now()
	claims := Claims{jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    Issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseToken verifies an HS256 token issued by this service. Tokens
// without an expiry or a subject are rejected.
func ParseToken(tokenString, secret string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("invalid token: %w", errEmptySubject)
	}
	return claims, nil
}

func withClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, c)
}

// Subject returns the analyst stored in ctx by the interceptor or the
// HTTP middleware.
func Subject(ctx context.Context) (string, bool) {
	c, ok := ctx.Value(claimsKey{}).(*Claims)
	if !ok {
		return "", false
	}
	return c.Subject, true
}
