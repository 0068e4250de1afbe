package item

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dmitrymomot/gatekit/pkg/jwt"
)

// Handler serves item CRUD over JSON. All routes require authenticated
// claims in the request context.
type Handler struct {
	svc *Service
	log *slog.Logger
}

// NewHandler creates an HTTP handler for the item service.
func NewHandler(svc *Service, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{svc: svc, log: log}
}

// Router mounts the item routes.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.delete)
	return r
}

type itemRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := ownerFromContext(w, r)
	if !ok {
		return
	}

	var req itemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	it, err := h.svc.Create(r.Context(), ownerID, req.Title, req.Description)
	if err != nil {
		if errors.Is(err, ErrTitleMissing) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		h.log.Error("item create failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusCreated, it)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := ownerFromContext(w, r)
	if !ok {
		return
	}

	items, err := h.svc.List(r.Context(), ownerID)
	if err != nil {
		h.log.Error("item list failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if items == nil {
		items = []*Item{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := ownerFromContext(w, r)
	if !ok {
		return
	}
	id, ok := itemID(w, r)
	if !ok {
		return
	}

	it, err := h.svc.Get(r.Context(), ownerID, id)
	if err != nil {
		if errors.Is(err, ErrItemNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		h.log.Error("item get failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, it)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := ownerFromContext(w, r)
	if !ok {
		return
	}
	id, ok := itemID(w, r)
	if !ok {
		return
	}

	var req itemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	it, err := h.svc.Update(r.Context(), ownerID, id, req.Title, req.Description)
	if err != nil {
		switch {
		case errors.Is(err, ErrItemNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, ErrTitleMissing):
			writeError(w, http.StatusUnprocessableEntity, err.Error())
		default:
			h.log.Error("item update failed", slog.Any("error", err))
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}
	writeJSON(w, http.StatusOK, it)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := ownerFromContext(w, r)
	if !ok {
		return
	}
	id, ok := itemID(w, r)
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), ownerID, id); err != nil {
		if errors.Is(err, ErrItemNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		h.log.Error("item delete failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func ownerFromContext(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	claims, ok := jwt.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return uuid.Nil, false
	}
	ownerID, err := uuid.Parse(claims.Subject)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return uuid.Nil, false
	}
	return ownerID, true
}

func itemID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, ErrItemNotFound.Error())
		return uuid.Nil, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
