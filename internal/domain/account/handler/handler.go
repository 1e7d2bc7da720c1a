// Package handler exposes account endpoints over HTTP.
package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pocketledger/pocketledger/internal/domain/account"
	"github.com/pocketledger/pocketledger/pkg/auth"
	"github.com/pocketledger/pocketledger/pkg/httputil"
)

// AccountHandler serves the /accounts routes
type AccountHandler struct {
	svc    *account.Service
	logger *slog.Logger
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(svc *account.Service, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{svc: svc, logger: logger}
}

// RegisterRoutes mounts the account routes on the given router
func (h *AccountHandler) RegisterRoutes(r chi.Router) {
	r.Route("/accounts", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/all", h.ListAll)
		r.Post("/", h.Create)
		r.Delete("/", h.Remove)
		r.Get("/{id}", h.Get)
		r.Patch("/{id}", h.Update)
	})
}

type createRequest struct {
	Name       string  `json:"name"`
	ExternalID *string `json:"externalId"`
}

type updateRequest struct {
	Name       *string `json:"name"`
	ExternalID *string `json:"externalId"`
}

type removeRequest struct {
	IDs []uuid.UUID `json:"ids"`
}

type listResponse struct {
	Accounts   []*account.Account `json:"accounts"`
	NextCursor string             `json:"nextCursor,omitempty"`
}

// List returns a page of the caller's accounts
func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
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
	if page.Accounts == nil {
		page.Accounts = []*account.Account{}
	}

	httputil.WriteJSON(w, http.StatusOK, listResponse{
		Accounts:   page.Accounts,
		NextCursor: page.NextCursor,
	})
}

// ListAll returns every account the caller owns
func (h *AccountHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		httputil.WriteError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}

	accounts, err := h.svc.ListAll(r.Context(), identity)
	if err != nil {
		h.respondError(w, err)
		return
	}
	if accounts == nil {
		accounts = []*account.Account{}
	}
	httputil.WriteJSON(w, http.StatusOK, accounts)
}

// Get returns one account by id
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		httputil.WriteError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid_id", "invalid account id")
		return
	}

	acc, err := h.svc.Get(r.Context(), identity, id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, acc)
}

// Create inserts a new account owned by the caller
func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
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

	acc, err := h.svc.Create(r.Context(), identity, account.CreateInput{
		Name:       req.Name,
		ExternalID: req.ExternalID,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, acc)
}

// Update applies a partial update to one account
func (h *AccountHandler) Update(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		httputil.WriteError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid_id", "invalid account id")
		return
	}

	var req updateRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}

	acc, err := h.svc.Update(r.Context(), identity, id, account.UpdateInput{
		Name:       req.Name,
		ExternalID: req.ExternalID,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, acc)
}

// Remove deletes a batch of accounts and their transactions
func (h *AccountHandler) Remove(w http.ResponseWriter, r *http.Request) {
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

func (h *AccountHandler) respondError(w http.ResponseWriter, err error) {
	if errors.Is(err, account.ErrNotFound) {
		httputil.WriteError(w, http.StatusNotFound, "not_found", "account not found")
		return
	}
	h.logger.Error("account request failed", "error", err)
	httputil.WriteError(w, http.StatusInternalServerError, "internal", "internal error")
}
