package ratelimit_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/gatekit/pkg/ratelimit"
)

func TestComposite(t *testing.T) {
	t.Parallel()

	byHeader := func(name string) ratelimit.KeyFunc {
		return func(r *http.Request) string { return r.Header.Get(name) }
	}

	t.Run("single short key passes through", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-A", "client-1")

		key := ratelimit.Composite(byHeader("X-A"))(req)
		assert.Equal(t, "client-1", key)
	})

	t.Run("joins multiple parts", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-A", "left")
		req.Header.Set("X-B", "right")

		key := ratelimit.Composite(byHeader("X-A"), byHeader("X-B"))(req)
		assert.Equal(t, "left:right", key)
	})

	t.Run("skips empty parts", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-B", "right")

		key := ratelimit.Composite(byHeader("X-A"), byHeader("X-B"))(req)
		assert.Equal(t, "right", key)
	})

	t.Run("empty when nothing extracted", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodGet, "/", nil)

		key := ratelimit.Composite(byHeader("X-A"))(req)
		assert.Empty(t, key)
	})

	t.Run("long keys are hashed", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-A", strings.Repeat("x", 200))

		keyFunc := ratelimit.Composite(byHeader("X-A"), byHeader("X-A"))
		key := keyFunc(req)
		assert.Len(t, key, 32)

		// Deterministic for the same input.
		assert.Equal(t, key, keyFunc(req))
	})
}
