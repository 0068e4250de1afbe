package clientip

import (
	"context"
	"net/http"
)

type contextKey struct{}

// WithContext stores the client IP in ctx.
func WithContext(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, contextKey{}, ip)
}

// FromContext returns the client IP stored in ctx, or "" when absent.
func FromContext(ctx context.Context) string {
	ip, _ := ctx.Value(contextKey{}).(string)
	return ip
}

// Middleware resolves the client IP once per request and stores it in the
// request context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := WithContext(r.Context(), GetIP(r))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
