package guard

import (
	"net/http"

	"github.com/dmitrymomot/gatekit/pkg/clientip"
	"github.com/dmitrymomot/gatekit/pkg/idempotency"
	"github.com/dmitrymomot/gatekit/pkg/loginguard"
	"github.com/dmitrymomot/gatekit/pkg/ratelimit"
	"github.com/dmitrymomot/gatekit/pkg/requestid"
	"github.com/dmitrymomot/gatekit/pkg/secheaders"
)

// MiddlewareOptions tunes the HTTP adapter.
type MiddlewareOptions struct {
	// SecurityHeaders overrides individual security header values.
	SecurityHeaders secheaders.Config

	// RateLimitKey extracts the rate limit key. Defaults to the client IP
	// resolved by the clientip middleware.
	RateLimitKey ratelimit.KeyFunc

	// OnRateLimited customizes the rate limit rejection response.
	OnRateLimited func(w http.ResponseWriter, r *http.Request, result *ratelimit.Result)
}

// Middleware applies the pipeline to an http.Handler in the contract order:
// request ID decoration, security headers, client IP resolution, body size
// bound, rate limiting, idempotent deduplication. The login guard is not
// part of this chain; mount AuthMiddleware on authentication routes.
func (p *Pipeline) Middleware(opts MiddlewareOptions) func(http.Handler) http.Handler {
	keyFunc := opts.RateLimitKey
	if keyFunc == nil {
		keyFunc = func(r *http.Request) string { return clientip.FromContext(r.Context()) }
	}

	return func(next http.Handler) http.Handler {
		h := next
		if p.cache != nil {
			h = idempotency.Middleware(p.cache, p.log)(h)
		}
		if p.limiter != nil {
			limitOpts := []ratelimit.MiddlewareOption{}
			if opts.OnRateLimited != nil {
				limitOpts = append(limitOpts, ratelimit.WithOnLimitReached(opts.OnRateLimited))
			}
			h = ratelimit.Middleware(p.limiter, keyFunc, limitOpts...)(h)
		}
		h = p.bodyLimit(h)
		h = clientip.Middleware(h)
		h = secheaders.Middleware(opts.SecurityHeaders)(h)
		h = requestid.Middleware(h)
		return h
	}
}

// AuthMiddleware gates authentication endpoints with the login guard.
// Mount it on login routes only.
func (p *Pipeline) AuthMiddleware(keyFunc loginguard.KeyFunc, opts ...loginguard.MiddlewareOption) func(http.Handler) http.Handler {
	if p.logins == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return loginguard.Middleware(p.logins, keyFunc, opts...)
}

// bodyLimit rejects declared-oversized payloads up front and caps undeclared
// ones while the handler reads.
func (p *Pipeline) bodyLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength > p.maxBody {
			http.Error(w, "Request Entity Too Large", http.StatusRequestEntityTooLarge)
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, p.maxBody)
		next.ServeHTTP(w, r)
	})
}
