package loginguard

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strconv"
)

// KeyFunc extracts the credential identifier from an authentication request,
// e.g. a normalized email from the form body or the client IP. An empty
// result skips the guard for that request.
type KeyFunc func(*http.Request) string

// MiddlewareOption configures middleware behavior.
type MiddlewareOption func(*middlewareConfig)

type middlewareConfig struct {
	onLocked func(w http.ResponseWriter, r *http.Request, status *Status)
}

// WithOnLocked sets a custom handler invoked for locked-out keys.
func WithOnLocked(fn func(w http.ResponseWriter, r *http.Request, status *Status)) MiddlewareOption {
	return func(c *middlewareConfig) {
		if fn != nil {
			c.onLocked = fn
		}
	}
}

// Middleware gates an authentication handler with the guard. Locked keys are
// rejected before the handler runs. Otherwise the handler executes and its
// status code is observed: 401 counts as a failed attempt, a 2xx clears the
// key. Other statuses (validation errors, server faults) leave the counter
// untouched so they can neither trigger nor defuse a lockout.
func Middleware(guard *Guard, keyFunc KeyFunc, opts ...MiddlewareOption) func(http.Handler) http.Handler {
	if keyFunc == nil {
		panic("loginguard.Middleware: keyFunc is required")
	}

	cfg := &middlewareConfig{
		onLocked: func(w http.ResponseWriter, r *http.Request, status *Status) {
			http.Error(w, "Too Many Failed Attempts", http.StatusTooManyRequests)
		},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := keyFunc(r)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			if guard.IsLocked(key) {
				status := guard.Status(key)
				retryAfter := int(status.RetryAfter().Seconds())
				if retryAfter < 1 {
					retryAfter = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				cfg.onLocked(w, r, status)
				return
			}

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			switch {
			case rec.status == http.StatusUnauthorized:
				guard.RecordFailure(key)
			case rec.status >= 200 && rec.status < 300:
				guard.RecordSuccess(key)
			}
		})
	}
}

// statusRecorder captures the status code written by the wrapped handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
	wrote  bool
}

func (r *statusRecorder) WriteHeader(status int) {
	if !r.wrote {
		r.status = status
		r.wrote = true
	}
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	r.wrote = true
	return r.ResponseWriter.Write(b)
}

// Flush implements http.Flusher when the underlying writer supports it.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Hijack implements http.Hijacker when the underlying writer supports it.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := r.ResponseWriter.(http.Hijacker); ok {
		return h.Hijack()
	}
	return nil, nil, errors.New("loginguard: underlying ResponseWriter does not support hijacking")
}
