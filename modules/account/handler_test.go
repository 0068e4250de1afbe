package account_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrymomot/gatekit/modules/account"
	"github.com/dmitrymomot/gatekit/pkg/jwt"
)

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()

	svc := account.NewService(account.NewMemoryStorage(), account.WithBcryptCost(bcrypt.MinCost))
	tokens, err := jwt.NewFromString("test-signing-key-0123456789abcdef")
	require.NoError(t, err)
	return account.NewHandler(svc, tokens).Router()
}

func postJSON(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandlerRegister(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		h := newTestHandler(t)
		rec := postJSON(t, h, "/register", `{"email":"alice@example.com","password":"sup3rsecret"}`)
		require.Equal(t, http.StatusCreated, rec.Code)

		var user account.User
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
		assert.Equal(t, "alice@example.com", user.Email)
	})

	t.Run("duplicate email returns conflict", func(t *testing.T) {
		t.Parallel()

		h := newTestHandler(t)
		rec := postJSON(t, h, "/register", `{"email":"bob@example.com","password":"sup3rsecret"}`)
		require.Equal(t, http.StatusCreated, rec.Code)

		rec = postJSON(t, h, "/register", `{"email":"bob@example.com","password":"sup3rsecret"}`)
		require.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("weak password returns unprocessable entity", func(t *testing.T) {
		t.Parallel()

		h := newTestHandler(t)
		rec := postJSON(t, h, "/register", `{"email":"carol@example.com","password":"short"}`)
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("malformed body returns bad request", func(t *testing.T) {
		t.Parallel()

		h := newTestHandler(t)
		rec := postJSON(t, h, "/register", `{not json`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandlerLogin(t *testing.T) {
	t.Parallel()

	t.Run("issues bearer token", func(t *testing.T) {
		t.Parallel()

		h := newTestHandler(t)
		rec := postJSON(t, h, "/register", `{"email":"dave@example.com","password":"sup3rsecret"}`)
		require.Equal(t, http.StatusCreated, rec.Code)

		rec = postJSON(t, h, "/login", `{"email":"dave@example.com","password":"sup3rsecret"}`)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			AccessToken string `json:"access_token"`
			TokenType   string `json:"token_type"`
			ExpiresIn   int    `json:"expires_in"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp.AccessToken)
		assert.Equal(t, "Bearer", resp.TokenType)
		assert.Equal(t, 3600, resp.ExpiresIn)

		tokens, err := jwt.NewFromString("test-signing-key-0123456789abcdef")
		require.NoError(t, err)
		var claims jwt.StandardClaims
		require.NoError(t, tokens.Parse(resp.AccessToken, &claims))
		assert.NotEmpty(t, claims.Subject)
	})

	t.Run("wrong password returns unauthorized", func(t *testing.T) {
		t.Parallel()

		h := newTestHandler(t)
		rec := postJSON(t, h, "/register", `{"email":"eve@example.com","password":"sup3rsecret"}`)
		require.Equal(t, http.StatusCreated, rec.Code)

		rec = postJSON(t, h, "/login", `{"email":"eve@example.com","password":"wrongpass"}`)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("unknown user returns unauthorized", func(t *testing.T) {
		t.Parallel()

		h := newTestHandler(t)
		rec := postJSON(t, h, "/login", `{"email":"ghost@example.com","password":"whatever"}`)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
