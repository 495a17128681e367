package middleware

import (
	"context"
	"net/http"
	"strings"

	jwtinfra "github.com/voucher-console/internal/infrastructure/jwt"
)

type contextKey string

const claimsKey contextKey = "claims"

// TokenVerifier turns a bearer token into claims. Implemented by the RS256
// JWT provider and the Google ID-token verifier.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (*jwtinfra.Claims, error)
}

// Auth returns middleware that validates the Bearer token against each
// verifier in turn and injects the first accepted claims into context.
func Auth(verifiers ...TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				writeJSONError(w, http.StatusUnauthorized, "missing or invalid authorization header")
				return
			}
			claims := verify(r.Context(), verifiers, strings.TrimPrefix(authHeader, "Bearer "))
			if claims == nil {
				writeJSONError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

func verify(ctx context.Context, verifiers []TokenVerifier, token string) *jwtinfra.Claims {
	for _, v := range verifiers {
		if claims, err := v.VerifyToken(ctx, token); err == nil {
			return claims
		}
	}
	return nil
}

// WithClaims stores claims in ctx the way Auth does.
func WithClaims(ctx context.Context, claims *jwtinfra.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// ClaimsFromContext extracts JWT claims from the request context.
func ClaimsFromContext(ctx context.Context) (*jwtinfra.Claims, bool) {
	c, ok := ctx.Value(claimsKey).(*jwtinfra.Claims)
	return c, ok
}
