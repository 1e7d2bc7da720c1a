// Package handler exposes category endpoints over HTTP.
package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pocketledger/pocketledger/internal/domain/category"
	"github.com/pocketledger/pocketledger/pkg/auth"
	"github.com/pocketledger/pocketledger/pkg/httputil"
)

// CategoryHandler serves the /categories routes
type CategoryHandler struct {
	svc    *category.Service
	logger *slog.Logger
}

// NewCategoryHandler creates a new category handler
func NewCategoryHandler(svc *category.Service, logger *slog.Logger) *CategoryHandler {
	return &CategoryHandler{svc: svc, logger: logger}
}

// RegisterRoutes mounts the category routes on the given router
func (h *CategoryHandler) RegisterRoutes(r chi.Router) {
	r.Route("/categories", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/all", h.ListAll)
		r.Post("/", h.Create)
		r.Delete("/", h.Remove)
		r.Get("/{id}", h.Get)
		r.Patch("/{id}", h.Update)
	})
}

type createRequest struct {
	Name string `json:"name"`
}

type updateRequest struct {
	Name *string `json:"name"`
}

type removeRequest struct {
	IDs []uuid.UUID `json:"ids"`
}

type listResponse struct {
	Categories []*category.Category `json:"categories"`
	NextCursor string               `json:"nextCursor,omitempty"`
}

// List returns a page of the caller's categories
func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		httputil.WriteError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	page, err := h.svc.List(r.Context(), identity,
		r.URL.Query().Get("search"), r.URL.Query().Get("cursor"), limit)
	if err != nil {
		h.respondError(w, err)
		return
	}
	if page.Categories == nil {
		page.Categories = []*category.Category{}
	}

	httputil.WriteJSON(w, http.StatusOK, listResponse{
		Categories: page.Categories,
		NextCursor: page.NextCursor,
	})
}

// ListAll returns every category the caller owns
func (h *CategoryHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		httputil.WriteError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}

	categories, err := h.svc.ListAll(r.Context(), identity)
	if err != nil {
		h.respondError(w, err)
		return
	}
	if categories == nil {
		categories = []*category.Category{}
	}
	httputil.WriteJSON(w, http.StatusOK, categories)
}

// Get returns one category by id
func (h *CategoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		httputil.WriteError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid_id", "invalid category id")
		return
	}

	cat, err := h.svc.Get(r.Context(), identity, id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, cat)
}

// Create inserts a new category owned by the caller
func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		httputil.WriteError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}

	var req createRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}

	cat, err := h.svc.Create(r.Context(), identity, req.Name)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, cat)
}

// Update renames one category
func (h *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		httputil.WriteError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid_id", "invalid category id")
		return
	}

	var req updateRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}

	cat, err := h.svc.Update(r.Context(), identity, id, req.Name)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, cat)
}

// Remove deletes a batch of categories
func (h *CategoryHandler) Remove(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		httputil.WriteError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}

	var req removeRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}

	deleted, err := h.svc.Remove(r.Context(), identity, req.IDs)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]int{"deletedCount": deleted})
}

func (h *CategoryHandler) respondError(w http.ResponseWriter, err error) {
	if errors.Is(err, category.ErrNotFound) {
		httputil.WriteError(w, http.StatusNotFound, "not_found", "category not found")
		return
	}
	h.logger.Error("category request failed", "error", err)
	httputil.WriteError(w, http.StatusInternalServerError, "internal", "internal error")
}
