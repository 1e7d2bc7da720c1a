// Package handler exposes transaction endpoints over HTTP.
package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pocketledger/pocketledger/internal/domain/account"
	"github.com/pocketledger/pocketledger/internal/domain/category"
	"github.com/pocketledger/pocketledger/internal/domain/transaction"
	"github.com/pocketledger/pocketledger/pkg/auth"
	"github.com/pocketledger/pocketledger/pkg/httputil"
	"github.com/pocketledger/pocketledger/pkg/money"
)

// TransactionHandler serves the /transactions routes
type TransactionHandler struct {
	svc      *transaction.Service
	currency string
	logger   *slog.Logger
}

// NewTransactionHandler creates a new transaction handler. currency is the
// ISO 4217 code used for display amounts.
func NewTransactionHandler(svc *transaction.Service, currency string, logger *slog.Logger) *TransactionHandler {
	return &TransactionHandler{svc: svc, currency: currency, logger: logger}
}

// RegisterRoutes mounts the transaction routes on the given router
func (h *TransactionHandler) RegisterRoutes(r chi.Router) {
	r.Route("/transactions", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Post("/bulk", h.BulkCreate)
		r.Delete("/", h.Remove)
		r.Get("/{id}", h.Get)
		r.Patch("/{id}", h.Update)
		r.Patch("/{id}/category", h.UpdateCategory)
	})
}

type transactionPayload struct {
	AccountID  uuid.UUID  `json:"accountId"`
	CategoryID *uuid.UUID `json:"categoryId"`
	Amount     float64    `json:"amount"`
	Payee      string     `json:"payee"`
	Notes      *string    `json:"notes"`
	Date       time.Time  `json:"date"`
}

type bulkCreateRequest struct {
	Transactions []transactionPayload `json:"transactions"`
}

type updateRequest struct {
	AccountID  *uuid.UUID `json:"accountId"`
	CategoryID *uuid.UUID `json:"categoryId"`
	Amount     *float64   `json:"amount"`
	Payee      *string    `json:"payee"`
	Notes      *string    `json:"notes"`
	Date       *time.Time `json:"date"`
}

type updateCategoryRequest struct {
	CategoryID *uuid.UUID `json:"categoryId"`
}

type removeRequest struct {
	IDs []uuid.UUID `json:"ids"`
}

// transactionResponse is the wire shape; amounts go out as currency units,
// not milliunits.
type transactionResponse struct {
	ID            uuid.UUID  `json:"id"`
	AccountID     uuid.UUID  `json:"accountId"`
	AccountName   string     `json:"accountName,omitempty"`
	CategoryID    *uuid.UUID `json:"categoryId"`
	CategoryName  *string    `json:"categoryName,omitempty"`
	Amount        float64    `json:"amount"`
	DisplayAmount string     `json:"displayAmount"`
	Payee         string     `json:"payee"`
	Notes         *string    `json:"notes"`
	Date          time.Time  `json:"date"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

func (h *TransactionHandler) toResponse(tx *transaction.Transaction) transactionResponse {
	return transactionResponse{
		ID:            tx.ID,
		AccountID:     tx.AccountID,
		CategoryID:    tx.CategoryID,
		Amount:        money.Float(tx.AmountMilli),
		DisplayAmount: money.Format(tx.AmountMilli, h.currency),
		Payee:         tx.Payee,
		Notes:         tx.Notes,
		Date:          tx.Date,
		CreatedAt:     tx.CreatedAt,
		UpdatedAt:     tx.UpdatedAt,
	}
}

func (h *TransactionHandler) toJoinedResponse(j *transaction.Joined) transactionResponse {
	resp := h.toResponse(&j.Transaction)
	resp.AccountName = j.AccountName
	resp.CategoryName = j.CategoryName
	return resp
}

// List returns the caller's transactions, optionally filtered by account,
// date window and payee search.
func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		httputil.WriteError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}

	var filter transaction.ListFilter
	filter.Search = r.URL.Query().Get("search")
	if raw := r.URL.Query().Get("accountId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			httputil.WriteError(w, http.StatusBadRequest, "invalid_id", "invalid account id")
			return
		}
		filter.AccountID = &id
	}
	if raw := r.URL.Query().Get("from"); raw != "" {
		from, err := time.Parse("2006-01-02", raw)
		if err != nil {
			httputil.WriteError(w, http.StatusBadRequest, "invalid_date", "from must be yyyy-MM-dd")
			return
		}
		filter.From = from
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		to, err := time.Parse("2006-01-02", raw)
		if err != nil {
			httputil.WriteError(w, http.StatusBadRequest, "invalid_date", "to must be yyyy-MM-dd")
			return
		}
		// include the whole closing day
		filter.To = to.Add(24*time.Hour - time.Nanosecond)
	}

	txs, err := h.svc.List(r.Context(), identity, filter)
	if err != nil {
		h.respondError(w, err)
		return
	}

	resp := make([]transactionResponse, 0, len(txs))
	for _, j := range txs {
		resp = append(resp, h.toJoinedResponse(j))
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// Get returns one transaction by id
func (h *TransactionHandler) Get(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		httputil.WriteError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid_id", "invalid transaction id")
		return
	}

	j, err := h.svc.Get(r.Context(), identity, id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, h.toJoinedResponse(j))
}

// Create inserts a new transaction owned by the caller
func (h *TransactionHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		httputil.WriteError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}

	var req transactionPayload
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}

	tx, err := h.svc.Create(r.Context(), identity, transaction.CreateInput{
		AccountID:  req.AccountID,
		CategoryID: req.CategoryID,
		Amount:     req.Amount,
		Payee:      req.Payee,
		Notes:      req.Notes,
		Date:       req.Date,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, h.toResponse(tx))
}

// BulkCreate inserts a batch of transactions atomically
func (h *TransactionHandler) BulkCreate(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		httputil.WriteError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}

	var req bulkCreateRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}

	inputs := make([]transaction.CreateInput, 0, len(req.Transactions))
	for _, p := range req.Transactions {
		inputs = append(inputs, transaction.CreateInput{
			AccountID:  p.AccountID,
			CategoryID: p.CategoryID,
			Amount:     p.Amount,
			Payee:      p.Payee,
			Notes:      p.Notes,
			Date:       p.Date,
		})
	}

	txs, err := h.svc.BulkCreate(r.Context(), identity, inputs)
	if err != nil {
		h.respondError(w, err)
		return
	}

	resp := make([]transactionResponse, 0, len(txs))
	for _, tx := range txs {
		resp = append(resp, h.toResponse(tx))
	}
	httputil.WriteJSON(w, http.StatusCreated, resp)
}

// Update applies a partial update to one transaction
func (h *TransactionHandler) Update(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		httputil.WriteError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid_id", "invalid transaction id")
		return
	}

	var req updateRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}

	tx, err := h.svc.Update(r.Context(), identity, id, transaction.UpdateInput{
		AccountID:  req.AccountID,
		CategoryID: req.CategoryID,
		Amount:     req.Amount,
		Payee:      req.Payee,
		Notes:      req.Notes,
		Date:       req.Date,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, h.toResponse(tx))
}

// UpdateCategory sets or clears the category of one transaction; a null
// categoryId clears the reference.
func (h *TransactionHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		httputil.WriteError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid_id", "invalid transaction id")
		return
	}

	var req updateCategoryRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}

	if err := h.svc.UpdateCategory(r.Context(), identity, id, req.CategoryID); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Remove deletes a batch of transactions
func (h *TransactionHandler) Remove(w http.ResponseWriter, r *http.Request) {
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

func (h *TransactionHandler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, transaction.ErrNotFound):
		httputil.WriteError(w, http.StatusNotFound, "not_found", "transaction not found")
	case errors.Is(err, account.ErrNotFound):
		httputil.WriteError(w, http.StatusNotFound, "not_found", "account not found")
	case errors.Is(err, category.ErrNotFound):
		httputil.WriteError(w, http.StatusNotFound, "not_found", "category not found")
	default:
		h.logger.Error("transaction request failed", "error", err)
		httputil.WriteError(w, http.StatusInternalServerError, "internal", "internal error")
	}
}
