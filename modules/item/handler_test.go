package item_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/gatekit/modules/item"
	"github.com/dmitrymomot/gatekit/pkg/jwt"
)

const testSigningKey = "test-signing-key-0123456789abcdef"

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	svc := item.NewService(item.NewMemoryStorage())
	tokens, err := jwt.NewFromString(testSigningKey)
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(jwt.Middleware(tokens))
		r.Mount("/items", item.NewHandler(svc, nil).Router())
	})
	return r
}

func tokenFor(t *testing.T, userID uuid.UUID) string {
	t.Helper()

	tokens, err := jwt.NewFromString(testSigningKey)
	require.NoError(t, err)
	now := time.Now()
	token, err := tokens.Generate(jwt.StandardClaims{
		Subject:   userID.String(),
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(time.Hour).Unix(),
	})
	require.NoError(t, err)
	return token
}

func do(t *testing.T, h http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandlerAuth(t *testing.T) {
	t.Parallel()

	t.Run("missing token rejected", func(t *testing.T) {
		t.Parallel()

		h := newTestRouter(t)
		rec := do(t, h, http.MethodGet, "/items", "", "")
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("garbage token rejected", func(t *testing.T) {
		t.Parallel()

		h := newTestRouter(t)
		rec := do(t, h, http.MethodGet, "/items", "not.a.token", "")
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestHandlerCRUD(t *testing.T) {
	t.Parallel()

	t.Run("full lifecycle", func(t *testing.T) {
		t.Parallel()

		h := newTestRouter(t)
		token := tokenFor(t, uuid.New())

		rec := do(t, h, http.MethodPost, "/items", token, `{"title":"groceries","description":"milk"}`)
		require.Equal(t, http.StatusCreated, rec.Code)

		var created item.Item
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
		assert.Equal(t, "groceries", created.Title)

		rec = do(t, h, http.MethodGet, "/items/"+created.ID.String(), token, "")
		require.Equal(t, http.StatusOK, rec.Code)

		rec = do(t, h, http.MethodPut, "/items/"+created.ID.String(), token, `{"title":"updated","description":""}`)
		require.Equal(t, http.StatusOK, rec.Code)
		var updated item.Item
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
		assert.Equal(t, "updated", updated.Title)

		rec = do(t, h, http.MethodGet, "/items", token, "")
		require.Equal(t, http.StatusOK, rec.Code)
		var items []item.Item
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
		require.Len(t, items, 1)

		rec = do(t, h, http.MethodDelete, "/items/"+created.ID.String(), token, "")
		require.Equal(t, http.StatusNoContent, rec.Code)

		rec = do(t, h, http.MethodGet, "/items/"+created.ID.String(), token, "")
		require.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("foreign item returns not found", func(t *testing.T) {
		t.Parallel()

		h := newTestRouter(t)
		aliceToken := tokenFor(t, uuid.New())
		bobToken := tokenFor(t, uuid.New())

		rec := do(t, h, http.MethodPost, "/items", aliceToken, `{"title":"secret"}`)
		require.Equal(t, http.StatusCreated, rec.Code)
		var created item.Item
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

		rec = do(t, h, http.MethodGet, "/items/"+created.ID.String(), bobToken, "")
		require.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("empty title rejected", func(t *testing.T) {
		t.Parallel()

		h := newTestRouter(t)
		token := tokenFor(t, uuid.New())
		rec := do(t, h, http.MethodPost, "/items", token, `{"title":"  "}`)
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("malformed id returns not found", func(t *testing.T) {
		t.Parallel()

		h := newTestRouter(t)
		token := tokenFor(t, uuid.New())
		rec := do(t, h, http.MethodGet, "/items/not-a-uuid", token, "")
		require.Equal(t, http.StatusNotFound, rec.Code)
	})
}
