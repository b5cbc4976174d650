// Package identity carries the caller's bearer token through context.Context
// so platform clients can forward it to the gateway.
package identity

import (
	"context"
	"errors"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNoIdentity is returned by a TokenSource when no authenticated caller is present.
var ErrNoIdentity = errors.New("no authenticated identity")

type tokenKey struct{}

// WithToken returns a copy of ctx carrying the bearer token.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// TokenFrom returns the bearer token stored in ctx, if any.
func TokenFrom(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(tokenKey{}).(string)
	return token, ok && token != ""
}

// TokenSource supplies the bearer token for the current caller.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

type TokenSourceFunc func(ctx context.Context) (string, error)

func (f TokenSourceFunc) Token(ctx context.Context) (string, error) {
	return f(ctx)
}

// FromContext reads the token placed in the context by WithToken or Middleware.
var FromContext TokenSource = TokenSourceFunc(func(ctx context.Context) (string, error) {
	if token, ok := TokenFrom(ctx); ok {
		return token, nil
	}
	return "", ErrNoIdentity
})

// Static always returns the same token, e.g. a service account credential.
func Static(token string) TokenSource {
	return TokenSourceFunc(func(context.Context) (string, error) {
		if token == "" {
			return "", ErrNoIdentity
		}
		return token, nil
	})
}

// ParseBearer extracts the token from an Authorization header value.
func ParseBearer(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}

// Subject returns the unverified "sub" claim of a JWT. It is meant for log
// correlation only; the gateway is the party that verifies tokens.
func Subject(token string) string {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return ""
	}
	sub, err := claims.GetSubject()
	if err != nil {
		return ""
	}
	return sub
}
