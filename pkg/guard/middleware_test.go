package guard_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/gatekit/pkg/guard"
	"github.com/dmitrymomot/gatekit/pkg/idempotency"
	"github.com/dmitrymomot/gatekit/pkg/ratelimit"
)

func TestPipelineMiddleware(t *testing.T) {
	t.Parallel()

	okHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	t.Run("decorates allowed responses", func(t *testing.T) {
		t.Parallel()
		p, _ := newTestPipeline(t, guard.Config{})
		handler := p.Middleware(guard.MiddlewareOptions{})(okHandler)

		req := httptest.NewRequest(http.MethodGet, "/items", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
		assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
		assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
		assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
		assert.NotEmpty(t, rec.Header().Get("X-RateLimit-Remaining"))
	})

	t.Run("decorates rejections too", func(t *testing.T) {
		t.Parallel()
		p, _ := newTestPipeline(t, guard.Config{})
		handler := p.Middleware(guard.MiddlewareOptions{})(okHandler)

		// Limit is 3 in the test pipeline.
		for i := 0; i < 3; i++ {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/items", nil)
			req.RemoteAddr = "10.0.0.1:1234"
			handler.ServeHTTP(rec, req)
			require.Equal(t, http.StatusOK, rec.Code)
		}

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/items", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
		assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
		assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	})

	t.Run("rate limit keyed by client ip", func(t *testing.T) {
		t.Parallel()
		p, _ := newTestPipeline(t, guard.Config{})
		handler := p.Middleware(guard.MiddlewareOptions{})(okHandler)

		for i := 0; i < 3; i++ {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = "10.0.0.1:1234"
			handler.ServeHTTP(httptest.NewRecorder(), req)
		}

		// Exhausted for 10.0.0.1, still open for another address.
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusTooManyRequests, rec.Code)

		req = httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.2:1234"
		rec = httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("oversized declared payload rejected", func(t *testing.T) {
		t.Parallel()
		p, _ := newTestPipeline(t, guard.Config{MaxBodySize: 8})
		handler := p.Middleware(guard.MiddlewareOptions{})(okHandler)

		req := httptest.NewRequest(http.MethodPost, "/items", strings.NewReader("way more than eight bytes"))
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	})

	t.Run("idempotent replay through the full chain", func(t *testing.T) {
		t.Parallel()
		p, _ := newTestPipeline(t, guard.Config{})
		var calls atomic.Int64
		handler := p.Middleware(guard.MiddlewareOptions{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"id":7}`))
		}))

		send := func() *httptest.ResponseRecorder {
			req := httptest.NewRequest(http.MethodPost, "/items", strings.NewReader(`{"title":"x"}`))
			req.RemoteAddr = "10.0.0.1:1234"
			req.Header.Set(idempotency.HeaderKey, "tok-1")
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			return rec
		}

		first := send()
		require.Equal(t, http.StatusCreated, first.Code)

		second := send()
		require.Equal(t, http.StatusCreated, second.Code)
		assert.Equal(t, `{"id":7}`, second.Body.String())
		assert.Equal(t, "true", second.Header().Get("Idempotency-Replayed"))
		assert.Equal(t, int64(1), calls.Load())
	})

	t.Run("auth middleware locks after failures", func(t *testing.T) {
		t.Parallel()
		p, _ := newTestPipeline(t, guard.Config{})
		// MaxFailures is 2 in the test pipeline.
		handler := p.AuthMiddleware(func(r *http.Request) string { return r.URL.Query().Get("email") })(
			http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
			}))

		for i := 0; i < 2; i++ {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/login?email=a@b.com", nil))
			require.Equal(t, http.StatusUnauthorized, rec.Code)
		}

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/login?email=a@b.com", nil))
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	})

	t.Run("custom rate limit response", func(t *testing.T) {
		t.Parallel()
		p, _ := newTestPipeline(t, guard.Config{})
		handler := p.Middleware(guard.MiddlewareOptions{
			OnRateLimited: func(w http.ResponseWriter, r *http.Request, result *ratelimit.Result) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"error":"too many requests"}`))
			},
		})(okHandler)

		for i := 0; i < 3; i++ {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = "10.0.0.1:1234"
			handler.ServeHTTP(httptest.NewRecorder(), req)
		}

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.JSONEq(t, `{"error":"too many requests"}`, rec.Body.String())
	})
}
