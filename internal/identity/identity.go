// Package identity authenticates callers from bearer ID tokens.
package identity

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/api/idtoken"

	"github.com/nyralabs/nira/internal/core"
)

// Claims is the verified caller identity attached to a request.
type Claims struct {
	UserID string
	Email  string
}

// Verifier validates a bearer token and returns its claims.
type Verifier interface {
	Verify(ctx context.Context, token string) (*Claims, error)
}

// GoogleVerifier validates Google-issued ID tokens against an audience.
type GoogleVerifier struct {
	audience string
}

// NewGoogleVerifier creates a verifier for the given OAuth audience.
func NewGoogleVerifier(audience string) *GoogleVerifier {
	return &GoogleVerifier{audience: audience}
}

// Verify implements Verifier. Expired tokens get a distinct error so
// the API can tell clients to refresh instead of re-login.
func (v *GoogleVerifier) Verify(ctx context.Context, token string) (*Claims, error) {
	payload, err := idtoken.Validate(ctx, token, v.audience)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "expired") {
			return nil, core.ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", core.ErrUnauthorized, err)
	}

	claims := &Claims{UserID: payload.Subject}
	if email, ok := payload.Claims["email"].(string); ok {
		claims.Email = strings.ToLower(email)
	}
	if claims.UserID == "" {
		return nil, core.ErrUnauthorized
	}
	return claims, nil
}

// StaticVerifier maps fixed tokens to claims. Tests and local
// development use it in place of the Google verifier.
type StaticVerifier struct {
	Tokens map[string]*Claims
}

// Verify implements Verifier.
func (v *StaticVerifier) Verify(_ context.Context, token string) (*Claims, error) {
	if claims, ok := v.Tokens[token]; ok {
		return claims, nil
	}
	return nil, core.ErrUnauthorized
}

type contextKey struct{}

// WithClaims attaches verified claims to a request context.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, contextKey{}, claims)
}

// ClaimsFrom returns the claims attached by the auth middleware.
func ClaimsFrom(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(contextKey{}).(*Claims)
	return claims, ok
}
