package account

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dmitrymomot/gatekit/pkg/jwt"
)

// Handler serves registration and login over JSON.
type Handler struct {
	svc      *Service
	tokens   *jwt.Service
	tokenTTL time.Duration
	issuer   string
	log      *slog.Logger
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithTokenTTL sets the lifetime of issued access tokens. Default 1h.
func WithTokenTTL(ttl time.Duration) HandlerOption {
	return func(h *Handler) {
		if ttl > 0 {
			h.tokenTTL = ttl
		}
	}
}

// WithIssuer sets the iss claim on issued tokens.
func WithIssuer(issuer string) HandlerOption {
	return func(h *Handler) {
		h.issuer = issuer
	}
}

// WithHandlerLogger sets the handler's logger.
func WithHandlerLogger(log *slog.Logger) HandlerOption {
	return func(h *Handler) {
		if log != nil {
			h.log = log
		}
	}
}

// NewHandler creates an HTTP handler for the account service.
func NewHandler(svc *Service, tokens *jwt.Service, opts ...HandlerOption) *Handler {
	h := &Handler{
		svc:      svc,
		tokens:   tokens,
		tokenTTL: time.Hour,
		issuer:   "gatekit",
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Router mounts the account routes.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Post("/register", h.register)
	r.Post("/login", h.login)
	return r
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.svc.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrEmailAlreadyExists):
			writeError(w, http.StatusConflict, err.Error())
		case errors.Is(err, ErrInvalidEmail), errors.Is(err, ErrWeakPassword):
			writeError(w, http.StatusUnprocessableEntity, err.Error())
		default:
			h.log.Error("registration failed", slog.Any("error", err))
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.svc.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}
		h.log.Error("login failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	now := time.Now()
	token, err := h.tokens.Generate(jwt.StandardClaims{
		ID:        uuid.NewString(),
		Subject:   user.ID.String(),
		Issuer:    h.issuer,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(h.tokenTTL).Unix(),
	})
	if err != nil {
		h.log.Error("token generation failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int(h.tokenTTL.Seconds()),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
