package jwt

import (
	"context"
	"net/http"
	"strings"
)

type claimsContextKey struct{}

// WithClaims stores parsed claims in ctx.
func WithClaims(ctx context.Context, claims StandardClaims) context.Context {
	return context.WithValue(ctx, claimsContextKey{}, claims)
}

// ClaimsFromContext returns the claims stored by the middleware.
func ClaimsFromContext(ctx context.Context) (StandardClaims, bool) {
	claims, ok := ctx.Value(claimsContextKey{}).(StandardClaims)
	return claims, ok
}

// Middleware verifies the Authorization bearer token and stores its claims
// in the request context. Requests without a valid token get 401.
func Middleware(svc *Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			var claims StandardClaims
			if err := svc.Parse(token, &claims); err != nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(auth) <= len(prefix) || !strings.EqualFold(auth[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(auth[len(prefix):]), true
}
